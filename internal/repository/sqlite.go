package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/pinpoint/internal/models"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore keeps the cache in a single embedded database file.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at path. Use ":memory:" in tests.
func NewSQLiteStore(path string, log *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// A pooled second connection to ":memory:" would see a different database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err = db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS geocode_cache (
			cache_key  TEXT PRIMARY KEY,
			record     TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		);
	`
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create geocode cache table: %w", err)
	}

	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*models.GeocodeRecord, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM geocode_cache WHERE cache_key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache record: %w", err)
	}

	rec, err := decodeRecord([]byte(raw))
	if err != nil {
		s.log.WarnContext(ctx, "Ignoring malformed cache record", "key", key, "error", err)
		return nil, nil
	}

	return rec, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, rec *models.GeocodeRecord) error {
	if key == "" {
		return ErrEmptyKey
	}

	raw, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (cache_key, record) VALUES (?, ?)
		ON CONFLICT (cache_key) DO UPDATE
		SET record = excluded.record, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		key, string(raw))
	if err != nil {
		return fmt.Errorf("failed to upsert cache record: %w", err)
	}

	return nil
}

// PutRaw stores text as-is. Tests use it to plant malformed records.
func (s *SQLiteStore) PutRaw(ctx context.Context, key, raw string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO geocode_cache (cache_key, record) VALUES (?, ?)`, key, raw)
	if err != nil {
		return fmt.Errorf("failed to store raw cache record: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM geocode_cache WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache record: %w", err)
	}

	return nil
}

func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cache_key, record FROM geocode_cache ORDER BY cache_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache records: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry Entry
			raw   string
		)
		if err = rows.Scan(&entry.Key, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan cache record: %w", err)
		}

		entry.Record, entry.Err = decodeRecord([]byte(raw))
		if keep(filter, entry) {
			entries = append(entries, entry)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return entries, nil
}
