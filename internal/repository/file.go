package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/UnknownOlympus/pinpoint/internal/models"
)

// DefaultCacheVersion names the on-disk layout of file cache records.
const DefaultCacheVersion = "v2"

const recordExt = ".json"

// FileStore keeps one JSON file per key under <dir>/geocode/<version>/.
type FileStore struct {
	root string
	log  *slog.Logger
}

// NewFileStore creates the cache directory if needed.
func NewFileStore(dir, version string, log *slog.Logger) (*FileStore, error) {
	if version == "" {
		version = DefaultCacheVersion
	}

	root := filepath.Join(dir, "geocode", version)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileStore{root: root, log: log}, nil
}

// Root returns the directory holding the record files.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, key+recordExt)
}

func (s *FileStore) Get(ctx context.Context, key string) (*models.GeocodeRecord, error) {
	if key == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache record: %w", err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		s.log.WarnContext(ctx, "Ignoring malformed cache record", "key", key, "error", err)
		return nil, nil
	}

	return rec, nil
}

// Put replaces the record atomically: readers see the old or the new file, never a mix.
func (s *FileStore) Put(_ context.Context, key string, rec *models.GeocodeRecord) error {
	if key == "" {
		return ErrEmptyKey
	}

	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	return writeFileAtomic(s.path(key), data)
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete cache record: %w", err)
	}

	return nil
}

func (s *FileStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, recordExt) || strings.HasPrefix(name, ".") {
			continue
		}

		entry := Entry{Key: strings.TrimSuffix(name, recordExt)}
		data, readErr := os.ReadFile(filepath.Join(s.root, name))
		if readErr == nil {
			entry.Record, readErr = decodeRecord(data)
		}
		entry.Err = readErr

		if keep(filter, entry) {
			entries = append(entries, entry)
		}
	}

	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Key, b.Key) })

	return entries, nil
}

// writeFileAtomic writes to a temp file in the target directory and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}

	return nil
}
