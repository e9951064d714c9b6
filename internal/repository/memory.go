package repository

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/UnknownOlympus/pinpoint/internal/models"
)

// MemoryStore keeps encoded records in a map. Values are stored as JSON so callers
// never share pointers with the cache, the same as with the durable backends.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
	log     *slog.Logger
}

func NewMemoryStore(log *slog.Logger) *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte), log: log}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*models.GeocodeRecord, error) {
	s.mu.RLock()
	data, ok := s.records[key]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	rec, err := decodeRecord(data)
	if err != nil {
		s.log.WarnContext(ctx, "Ignoring malformed cache record", "key", key, "error", err)
		return nil, nil
	}

	return rec, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, rec *models.GeocodeRecord) error {
	if key == "" {
		return ErrEmptyKey
	}

	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.records[key] = data
	s.mu.Unlock()

	return nil
}

// PutRaw stores bytes as-is. Tests use it to plant malformed records.
func (s *MemoryStore) PutRaw(key string, data []byte) {
	s.mu.Lock()
	s.records[key] = slices.Clone(data)
	s.mu.Unlock()
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.records))
	for key, data := range s.records {
		entry := Entry{Key: key}
		entry.Record, entry.Err = decodeRecord(data)
		if keep(filter, entry) {
			entries = append(entries, entry)
		}
	}

	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Key, b.Key) })

	return entries, nil
}
