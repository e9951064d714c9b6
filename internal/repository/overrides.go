package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/UnknownOlympus/pinpoint/internal/models"
)

// ErrInvalidOverride is returned by Set for an unknown kind or an empty key.
var ErrInvalidOverride = errors.New("invalid override")

type overrideDocument struct {
	ByAddress map[string]models.Point `json:"byAddress"`
	ByJob     map[string]models.Point `json:"byJob"`
}

// OverrideFile holds manual corrections in one JSON document:
//
//	{"byAddress": {"<cache key>": point}, "byJob": {"<job id>": point}}
//
// The file is reread on every lookup so hand edits take effect without a restart.
type OverrideFile struct {
	mu   sync.Mutex
	path string
}

func NewOverrideFile(path string) *OverrideFile {
	return &OverrideFile{path: path}
}

// ByJob returns the override for a job identifier, if any.
func (o *OverrideFile) ByJob(jobID string) (*models.Point, error) {
	if jobID == "" {
		return nil, nil
	}

	doc, err := o.load()
	if err != nil {
		return nil, err
	}

	return lookup(doc.ByJob, jobID), nil
}

// ByAddress returns the override for an address cache key, if any.
func (o *OverrideFile) ByAddress(key string) (*models.Point, error) {
	if key == "" {
		return nil, nil
	}

	doc, err := o.load()
	if err != nil {
		return nil, err
	}

	return lookup(doc.ByAddress, key), nil
}

// Set records an override and rewrites the file atomically.
func (o *OverrideFile) Set(kind, key string, point models.Point) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidOverride)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	doc, err := o.load()
	if err != nil {
		return err
	}

	switch kind {
	case models.OverrideByAddress:
		doc.ByAddress[key] = point
	case models.OverrideByJob:
		doc.ByJob[key] = point
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOverride, kind)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode overrides: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(o.path), 0o755); err != nil {
		return fmt.Errorf("failed to create overrides directory: %w", err)
	}

	return writeFileAtomic(o.path, data)
}

// List returns every override, job overrides first, each group sorted by key.
func (o *OverrideFile) List() ([]models.Override, error) {
	doc, err := o.load()
	if err != nil {
		return nil, err
	}

	overrides := make([]models.Override, 0, len(doc.ByJob)+len(doc.ByAddress))
	overrides = appendSorted(overrides, models.OverrideByJob, doc.ByJob)
	overrides = appendSorted(overrides, models.OverrideByAddress, doc.ByAddress)

	return overrides, nil
}

// load reads the document. A missing file is an empty document.
func (o *OverrideFile) load() (overrideDocument, error) {
	doc := overrideDocument{}

	data, err := os.ReadFile(o.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return doc, fmt.Errorf("failed to read overrides: %w", err)
	default:
		if err = json.Unmarshal(data, &doc); err != nil {
			return doc, fmt.Errorf("failed to decode overrides: %w", err)
		}
	}

	if doc.ByAddress == nil {
		doc.ByAddress = make(map[string]models.Point)
	}
	if doc.ByJob == nil {
		doc.ByJob = make(map[string]models.Point)
	}

	return doc, nil
}

func lookup(points map[string]models.Point, key string) *models.Point {
	point, ok := points[key]
	if !ok {
		return nil
	}

	return &point
}

func appendSorted(dst []models.Override, kind string, points map[string]models.Point) []models.Override {
	start := len(dst)
	for key, point := range points {
		dst = append(dst, models.Override{Kind: kind, Key: key, Point: point})
	}
	slices.SortFunc(dst[start:], func(a, b models.Override) int { return strings.Compare(a.Key, b.Key) })

	return dst
}
