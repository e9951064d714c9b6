package maintenance

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/UnknownOlympus/pinpoint/internal/models"
)

const (
	scanPrefix    = "geocode-scan-"
	summaryPrefix = "regeocode-summary-"
	// Sortable and safe in file names on every platform.
	reportTimeLayout = "20060102T150405.000Z"
)

var (
	// ErrNoReport is returned when no scan report exists yet, or the named one is missing.
	ErrNoReport = errors.New("no scan report found")
	// ErrInvalidReportName is returned for report names that are not a scan report
	// file name inside the reports directory.
	ErrInvalidReportName = errors.New("invalid scan report name")
)

// ReportStore reads and writes maintenance reports in one directory.
// Reports are write-once: an existing file is never replaced.
type ReportStore struct {
	dir string
}

func NewReportStore(dir string) *ReportStore {
	return &ReportStore{dir: dir}
}

// WriteScan stores the report as geocode-scan-<UTC timestamp>.json and returns its path.
func (s *ReportStore) WriteScan(report *models.ScanReport) (string, error) {
	return s.writeOnce(scanPrefix, report.GeneratedAt, report)
}

// WriteSummary stores the summary as regeocode-summary-<UTC timestamp>.json.
func (s *ReportStore) WriteSummary(summary *models.RegeocodeSummary) (string, error) {
	return s.writeOnce(summaryPrefix, summary.FinishedAt, summary)
}

// ValidReportName checks that name is a bare scan report file name, such as
// geocode-scan-20250502T090000.000Z.json, with no directory part.
func ValidReportName(name string) error {
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) ||
		!strings.HasPrefix(name, scanPrefix) || !strings.HasSuffix(name, ".json") {
		return fmt.Errorf("%w: %q", ErrInvalidReportName, name)
	}

	return nil
}

// ScanPath resolves a scan report name inside the reports directory.
func (s *ReportStore) ScanPath(name string) (string, error) {
	if err := ValidReportName(name); err != nil {
		return "", err
	}

	return filepath.Join(s.dir, name), nil
}

// ReadScan loads a scan report from path.
func (s *ReportStore) ReadScan(path string) (*models.ScanReport, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoReport, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read scan report: %w", err)
	}

	var report models.ScanReport
	if err = json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode scan report %s: %w", filepath.Base(path), err)
	}

	return &report, nil
}

// LatestScan returns the path of the newest scan report.
func (s *ReportStore) LatestScan() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoReport
	}
	if err != nil {
		return "", fmt.Errorf("failed to list reports: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), scanPrefix) && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", ErrNoReport
	}

	slices.Sort(names)

	return filepath.Join(s.dir, names[len(names)-1]), nil
}

func (s *ReportStore) writeOnce(prefix string, at time.Time, v any) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	path := filepath.Join(s.dir, prefix+at.UTC().Format(reportTimeLayout)+".json")

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err = file.Close(); err != nil {
		return "", fmt.Errorf("failed to close report: %w", err)
	}

	return path, nil
}
