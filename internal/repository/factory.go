package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Cache backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// ErrUnknownBackend is returned for a backend name NewStore does not know.
var ErrUnknownBackend = errors.New("unknown cache backend")

// PostgresConfig holds connection settings for the Postgres backend.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// StoreConfig selects and configures the cache backend.
type StoreConfig struct {
	Backend    string
	Dir        string // file backend root
	Version    string // layout version, file and redis backends
	SQLitePath string
	RedisURL   string
	Postgres   PostgresConfig
}

// NewStore builds the configured backend. The returned close function releases
// connections and is never nil.
func NewStore(ctx context.Context, cfg StoreConfig, log *slog.Logger) (Store, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case BackendFile, "":
		store, err := NewFileStore(cfg.Dir, cfg.Version, log)
		return store, noop, err
	case BackendMemory:
		return NewMemoryStore(log), noop, nil
	case BackendSQLite:
		store, err := NewSQLiteStore(cfg.SQLitePath, log)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { store.Close() }, nil
	case BackendPostgres:
		pg := cfg.Postgres
		pool, err := NewDatabase(ctx, pg.Host, pg.Port, pg.User, pg.Password, pg.Name)
		if err != nil {
			return nil, noop, err
		}
		store := NewPostgresStore(pool, log)
		if err = store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return store, pool.Close, nil
	case BackendRedis:
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return NewRedisStore(client, cfg.Version, log), func() { client.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}
