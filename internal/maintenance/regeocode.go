package maintenance

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/UnknownOlympus/pinpoint/internal/address"
	"github.com/UnknownOlympus/pinpoint/internal/geocoding"
	"github.com/UnknownOlympus/pinpoint/internal/metrics"
	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/UnknownOlympus/pinpoint/internal/ranking"
	"github.com/UnknownOlympus/pinpoint/internal/repository"
	"github.com/google/uuid"
)

// Configuration errors, returned before any provider is called.
var (
	ErrWriteNotAllowed       = errors.New("regeocode writes are not allowed, enable them or request a dry run")
	ErrProviderNotConfigured = errors.New("provider in regeocode order is not configured")
	ErrEmptyProviderOrder    = errors.New("regeocode provider order is empty")
)

var errNoCandidates = errors.New("no provider returned a candidate")

// RegeocodeOptions controls one re-geocode run.
type RegeocodeOptions struct {
	ReportPath    string        // scan report to work from, the latest one when empty
	ReportName    string        // scan report file name inside the reports directory, wins over ReportPath
	ProviderOrder []string      // providers asked in order, one at a time
	AllowWrite    bool          // permits cache writes
	DryRun        bool          // never write, even when allowed
	Delay         time.Duration // pause between addresses
	Progress      func(done, total int)
}

// Regeocoder repairs flagged cache entries from a scan report.
type Regeocoder struct {
	log      *slog.Logger
	store    repository.Store
	registry *geocoding.Registry
	reports  *ReportStore
	policy   ranking.Policy
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewRegeocoder(
	log *slog.Logger,
	store repository.Store,
	registry *geocoding.Registry,
	reports *ReportStore,
	policy ranking.Policy,
	metrics *metrics.Metrics,
) *Regeocoder {
	return &Regeocoder{
		log:      log,
		store:    store,
		registry: registry,
		reports:  reports,
		policy:   policy,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Validate checks the options without touching any provider or file.
func (r *Regeocoder) Validate(opts RegeocodeOptions) error {
	if !opts.AllowWrite && !opts.DryRun {
		return ErrWriteNotAllowed
	}

	if len(opts.ProviderOrder) == 0 {
		return ErrEmptyProviderOrder
	}

	for _, name := range opts.ProviderOrder {
		if !r.registry.Enabled(name) {
			return fmt.Errorf("%w: %s", ErrProviderNotConfigured, name)
		}
	}

	return nil
}

// Run re-geocodes every flagged address of the report and writes the summary.
// A canceled context stops the run between addresses; the partial summary is
// still written and returned together with the context error.
func (r *Regeocoder) Run(ctx context.Context, opts RegeocodeOptions) (*models.RegeocodeSummary, string, error) {
	if err := r.Validate(opts); err != nil {
		return nil, "", err
	}

	reportPath := opts.ReportPath
	if opts.ReportName != "" {
		named, err := r.reports.ScanPath(opts.ReportName)
		if err != nil {
			return nil, "", err
		}
		reportPath = named
	}
	if reportPath == "" {
		latest, err := r.reports.LatestScan()
		if err != nil {
			return nil, "", err
		}
		reportPath = latest
	}

	report, err := r.reports.ReadScan(reportPath)
	if err != nil {
		return nil, "", err
	}

	flagged := flaggedDetails(report)
	policy := r.policyFor(report)

	summary := &models.RegeocodeSummary{
		RunID:         uuid.NewString(),
		ReportRunID:   report.RunID,
		StartedAt:     r.now().UTC(),
		ProviderOrder: slices.Clone(opts.ProviderOrder),
		DryRun:        opts.DryRun,
		Total:         len(flagged),
		Items:         make([]models.RegeocodeItem, 0, len(flagged)),
	}

	r.log.InfoContext(ctx, "Starting regeocode run",
		"run", summary.RunID, "report", reportPath, "flagged", len(flagged), "dry_run", opts.DryRun)

	var runErr error
	for i, detail := range flagged {
		if i > 0 {
			if runErr = sleep(ctx, opts.Delay); runErr != nil {
				break
			}
		}

		item := r.process(ctx, detail, policy, opts)
		summary.Items = append(summary.Items, item)
		summary.Processed++

		switch {
		case item.Status == models.RegeocodeError:
			summary.Errors++
		case item.Status == models.RegeocodeAccepted && !opts.DryRun:
			summary.Updated++
		default:
			summary.Suggested++
		}
		r.metrics.RegeocodeOutcomes.WithLabelValues(item.Status).Inc()

		if opts.Progress != nil {
			opts.Progress(summary.Processed, summary.Total)
		}
	}

	summary.FinishedAt = r.now().UTC()

	path, err := r.reports.WriteSummary(summary)
	if err != nil {
		return summary, "", errors.Join(runErr, err)
	}

	r.log.InfoContext(ctx, "Regeocode run finished",
		"run", summary.RunID,
		"processed", summary.Processed,
		"updated", summary.Updated,
		"suggested", summary.Suggested,
		"errors", summary.Errors,
		"summary", path)

	return summary, path, runErr
}

// flaggedDetails returns the report entries needing work, sorted by address.
func flaggedDetails(report *models.ScanReport) []models.ScanDetail {
	flagged := make([]models.ScanDetail, 0, len(report.Details))
	for _, detail := range report.Details {
		if detail.Flagged() {
			flagged = append(flagged, detail)
		}
	}

	slices.SortFunc(flagged, func(a, b models.ScanDetail) int {
		return cmp.Or(strings.Compare(a.Address, b.Address), strings.Compare(a.Key, b.Key))
	})

	return flagged
}

// policyFor judges candidates against the box the scan flagged them with, so a scan
// run with a custom box is re-geocoded against that same box.
func (r *Regeocoder) policyFor(report *models.ScanReport) ranking.Policy {
	policy := r.policy
	if report.BBox != (models.BBox{}) {
		policy.BBox = report.BBox
	}

	return policy
}

func (r *Regeocoder) process(
	ctx context.Context,
	detail models.ScanDetail,
	policy ranking.Policy,
	opts RegeocodeOptions,
) models.RegeocodeItem {
	item := models.RegeocodeItem{Address: detail.Address, Key: detail.Key}

	key := detail.Key
	if key == "" {
		key = repository.CacheKey(address.Normalize(detail.Address).Query)
		item.Key = key
	}

	rec, err := r.store.Get(ctx, key)
	if err != nil {
		return failed(item, err)
	}
	if rec != nil && rec.Chosen != nil {
		before := *rec.Chosen
		item.ChosenBefore = &before
	}

	normalized := address.Normalize(detail.Address)
	if normalized.Empty() {
		return failed(item, geocoding.ErrEmptyAddress)
	}

	candidate, accepted, attempts := r.query(ctx, normalized, policy, opts.ProviderOrder)
	item.Attempts = attempts
	if candidate == nil {
		return failed(item, errNoCandidates)
	}
	item.Candidate = candidate

	item.Status = models.RegeocodeSuggested
	if accepted {
		item.Status = models.RegeocodeAccepted
	}

	if opts.DryRun {
		return item
	}

	if rec == nil {
		rec = &models.GeocodeRecord{Query: normalized.Query}
	}
	now := r.now().UTC()
	if accepted {
		applyAccepted(rec, *candidate)
	} else {
		rec.Suggestion = &models.Suggestion{Candidate: *candidate, SuggestedAt: now}
	}
	rec.UpdatedAt = now

	if err = r.store.Put(ctx, key, rec); err != nil {
		return failed(item, err)
	}

	return item
}

// query walks the providers one at a time until a candidate passes the policy.
// Without an accepted candidate it returns the best one seen, for a suggestion.
func (r *Regeocoder) query(
	ctx context.Context,
	addr models.NormalizedAddress,
	policy ranking.Policy,
	order []string,
) (*models.Candidate, bool, []models.ProviderAttempt) {
	var (
		all      []models.Candidate
		attempts []models.ProviderAttempt
	)

	for _, name := range order {
		found, err := r.registry.Query(ctx, name, addr, geocoding.QueryContext{Zip: addr.Zip})
		attempt := models.ProviderAttempt{Provider: name, Candidates: len(found)}
		if err != nil {
			attempt.Error = err.Error()
			r.log.WarnContext(ctx, "Provider query failed during regeocode",
				"provider", name, "address", addr.Query, "error", err)
		}
		attempts = append(attempts, attempt)

		found = ranking.Score(found, policy.BBox)
		if best, ok := policy.FirstAccepted(found); ok {
			return &best, true, attempts
		}

		all = append(all, found...)
	}

	if len(all) == 0 {
		return nil, false, attempts
	}

	best := ranking.Rank(all)[0]

	return &best, false, attempts
}

// applyAccepted makes the candidate the chosen point and puts it first among the
// record's candidates, dropping older candidates from the same provider.
func applyAccepted(rec *models.GeocodeRecord, accepted models.Candidate) {
	point := accepted.Point()
	rec.Chosen = &point
	rec.Suggestion = nil

	candidates := make([]models.Candidate, 0, len(rec.Candidates)+1)
	candidates = append(candidates, accepted)
	for _, c := range rec.Candidates {
		if c.Provider != accepted.Provider {
			candidates = append(candidates, c)
		}
	}
	rec.Candidates = candidates
}

func failed(item models.RegeocodeItem, err error) models.RegeocodeItem {
	item.Status = models.RegeocodeError
	item.Error = err.Error()

	return item
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
