package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 200

// RedisStore keeps each record as a string value under <prefix><key>.
type RedisStore struct {
	client *redis.Client
	prefix string
	log    *slog.Logger
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// NewRedisStore namespaces keys by cache version so layouts can coexist.
func NewRedisStore(client *redis.Client, version string, log *slog.Logger) *RedisStore {
	if version == "" {
		version = DefaultCacheVersion
	}

	return &RedisStore{client: client, prefix: "pinpoint:geocode:" + version + ":", log: log}
}

// Ping checks the server connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) (*models.GeocodeRecord, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache record: %w", err)
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		s.log.WarnContext(ctx, "Ignoring malformed cache record", "key", key, "error", err)
		return nil, nil
	}

	return rec, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, rec *models.GeocodeRecord) error {
	if key == "" {
		return ErrEmptyKey
	}

	raw, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	if err = s.client.Set(ctx, s.prefix+key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to set cache record: %w", err)
	}

	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete cache record: %w", err)
	}

	return nil
}

// List walks the key space with SCAN, so it never blocks the server the way KEYS would.
func (s *RedisStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	var entries []Entry

	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		fullKey := iter.Val()
		entry := Entry{Key: strings.TrimPrefix(fullKey, s.prefix)}

		raw, err := s.client.Get(ctx, fullKey).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			continue // deleted between SCAN and GET
		case err != nil:
			entry.Err = err
		default:
			entry.Record, entry.Err = decodeRecord(raw)
		}

		if keep(filter, entry) {
			entries = append(entries, entry)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan cache keys: %w", err)
	}

	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Key, b.Key) })

	return entries, nil
}
