package repository

import (
	"context"
	"errors"

	"github.com/UnknownOlympus/pinpoint/internal/models"
)

// Store is the geocode cache. Records are replaced whole; the last writer wins.
//
// Get returns nil without an error when the key has no record or the stored record
// cannot be decoded. Errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) (*models.GeocodeRecord, error)
	Put(ctx context.Context, key string, rec *models.GeocodeRecord) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

// Entry is one cache record as seen by List. Err is set instead of Record when the
// stored value could not be read, so scans can count broken entries.
type Entry struct {
	Key    string
	Record *models.GeocodeRecord
	Err    error
}

// Filter selects entries returned by List. A nil filter keeps everything.
type Filter func(Entry) bool

// Pinger is implemented by stores backed by a server or database handle.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ErrEmptyKey is returned when a write or delete gets a key that normalized to nothing.
var ErrEmptyKey = errors.New("cache key is empty")

func keep(filter Filter, entry Entry) bool {
	return filter == nil || filter(entry)
}
