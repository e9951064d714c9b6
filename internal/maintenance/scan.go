// Package maintenance audits the geocode cache and repairs weak entries.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/UnknownOlympus/pinpoint/internal/ranking"
	"github.com/UnknownOlympus/pinpoint/internal/repository"
	"github.com/google/uuid"
)

// MaxSamples caps each sample list of a scan report.
const MaxSamples = 50

// ScanOptions overrides the configured region and threshold for one scan.
type ScanOptions struct {
	BBox                *models.BBox
	ConfidenceThreshold float64
}

// Scanner reads every cache record and flags the ones worth re-geocoding.
// It never writes to the cache.
type Scanner struct {
	log       *slog.Logger
	store     repository.Store
	reports   *ReportStore
	bbox      models.BBox
	threshold float64
	now       func() time.Time
}

func NewScanner(
	log *slog.Logger,
	store repository.Store,
	reports *ReportStore,
	bbox models.BBox,
	threshold float64,
) *Scanner {
	return &Scanner{
		log:       log,
		store:     store,
		reports:   reports,
		bbox:      bbox,
		threshold: threshold,
		now:       time.Now,
	}
}

// Run scans the cache and writes the report. It returns the report and its path.
func (s *Scanner) Run(ctx context.Context, opts ScanOptions) (*models.ScanReport, string, error) {
	report, err := s.Scan(ctx, opts)
	if err != nil {
		return nil, "", err
	}

	path, err := s.reports.WriteScan(report)
	if err != nil {
		return nil, "", err
	}

	s.log.InfoContext(ctx, "Cache scan finished",
		"run", report.RunID,
		"records", report.Totals.Records,
		"low_confidence", report.Totals.LowConfidence,
		"out_of_bounds", report.Totals.OutOfBounds,
		"errors", report.Totals.Errors,
		"report", path)

	return report, path, nil
}

// Scan builds the report without writing it.
func (s *Scanner) Scan(ctx context.Context, opts ScanOptions) (*models.ScanReport, error) {
	bbox, threshold := s.settings(opts)

	entries, err := s.store.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}

	report := &models.ScanReport{
		RunID:               uuid.NewString(),
		GeneratedAt:         s.now().UTC(),
		BBox:                bbox,
		ConfidenceThreshold: threshold,
		Samples: models.ScanSamples{
			LowConfidence: []models.ScanDetail{},
			OutOfBounds:   []models.ScanDetail{},
			Errors:        []models.ScanDetail{},
		},
		Details: make(map[string]models.ScanDetail, len(entries)),
	}

	for _, entry := range entries {
		detail := inspect(entry, bbox, threshold)
		report.Totals.Records++

		if detail.Error != "" {
			report.Totals.Errors++
			report.Samples.Errors = appendSample(report.Samples.Errors, detail)
			report.Details[detail.Address] = detail
			continue
		}

		if detail.NoChosen {
			report.Totals.NoChosen++
		}
		if detail.LowConfidence {
			report.Totals.LowConfidence++
			report.Samples.LowConfidence = appendSample(report.Samples.LowConfidence, detail)
		}
		if detail.OutOfBounds {
			report.Totals.OutOfBounds++
			report.Samples.OutOfBounds = appendSample(report.Samples.OutOfBounds, detail)
		}

		report.Details[detail.Address] = detail
	}

	return report, nil
}

// Filter returns a store filter keeping only the entries a scan with the same
// options would flag for re-geocoding.
func (s *Scanner) Filter(opts ScanOptions) repository.Filter {
	bbox, threshold := s.settings(opts)

	return func(entry repository.Entry) bool {
		return inspect(entry, bbox, threshold).Flagged()
	}
}

func (s *Scanner) settings(opts ScanOptions) (models.BBox, float64) {
	bbox := s.bbox
	if opts.BBox != nil {
		bbox = *opts.BBox
	}

	threshold := s.threshold
	if opts.ConfidenceThreshold > 0 {
		threshold = opts.ConfidenceThreshold
	}
	if threshold <= 0 {
		threshold = ranking.DefaultAcceptConfidence
	}

	return bbox, threshold
}

// inspect judges one entry. A record without a chosen point counts as low confidence.
func inspect(entry repository.Entry, bbox models.BBox, threshold float64) models.ScanDetail {
	detail := models.ScanDetail{Address: entry.Key, Key: entry.Key}

	if entry.Err != nil || entry.Record == nil {
		detail.Error = "unreadable record"
		if entry.Err != nil {
			detail.Error = entry.Err.Error()
		}
		return detail
	}

	if entry.Record.Query != "" {
		detail.Address = entry.Record.Query
	}

	chosen := entry.Record.Chosen
	if chosen == nil {
		detail.NoChosen = true
		detail.LowConfidence = true
		return detail
	}

	point := *chosen
	detail.Chosen = &point
	detail.LowConfidence = chosen.Confidence < threshold
	detail.OutOfBounds = !bbox.Contains(chosen.Lat, chosen.Lng)

	return detail
}

func appendSample(samples []models.ScanDetail, detail models.ScanDetail) []models.ScanDetail {
	if len(samples) >= MaxSamples {
		return samples
	}

	return append(samples, detail)
}
