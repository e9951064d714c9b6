package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/jackc/pgx/v5"
)

// PostgresStore keeps cache records as JSONB rows, one per key.
type PostgresStore struct {
	db  Database
	log *slog.Logger
}

// NewPostgresStore creates a new instance of PostgresStore with the provided Database.
func NewPostgresStore(db Database, log *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// EnsureSchema creates the cache table when it does not exist yet.
func (r *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS geocode_cache (
			cache_key  TEXT PRIMARY KEY,
			record     JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create geocode cache table: %w", err)
	}

	return nil
}

// Get returns the record stored under key, or nil when there is none.
func (r *PostgresStore) Get(ctx context.Context, key string) (*models.GeocodeRecord, error) {
	query := `
		SELECT record
		FROM geocode_cache
		WHERE cache_key = $1;
	`

	var raw []byte
	err := r.db.QueryRow(ctx, query, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache record: %w", err)
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		r.log.WarnContext(ctx, "Ignoring malformed cache record", "key", key, "error", err)
		return nil, nil
	}

	return rec, nil
}

// Put inserts or replaces the record under key.
func (r *PostgresStore) Put(ctx context.Context, key string, rec *models.GeocodeRecord) error {
	if key == "" {
		return ErrEmptyKey
	}

	raw, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO geocode_cache (cache_key, record, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (cache_key) DO UPDATE
		SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at;
	`

	if _, err = r.db.Exec(ctx, query, key, raw); err != nil {
		return fmt.Errorf("failed to upsert cache record: %w", err)
	}

	return nil
}

// Delete removes the record under key. Deleting a missing key is not an error.
func (r *PostgresStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	query := `
		DELETE FROM geocode_cache
		WHERE cache_key = $1;
	`

	if _, err := r.db.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete cache record: %w", err)
	}

	return nil
}

// List returns every record ordered by key. Rows whose JSON cannot be decoded are
// returned as entries carrying the error.
func (r *PostgresStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `
		SELECT cache_key, record
		FROM geocode_cache
		ORDER BY cache_key ASC;
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache records: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry Entry
			raw   []byte
		)
		if errScan := rows.Scan(&entry.Key, &raw); errScan != nil {
			return nil, fmt.Errorf("failed to scan cache record: %w", errScan)
		}

		entry.Record, entry.Err = decodeRecord(raw)
		if keep(filter, entry) {
			entries = append(entries, entry)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return entries, nil
}
