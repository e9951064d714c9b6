package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/pinpoint/internal/address"
	"github.com/UnknownOlympus/pinpoint/internal/geocoding"
	"github.com/UnknownOlympus/pinpoint/internal/metrics"
	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/UnknownOlympus/pinpoint/internal/ranking"
	"github.com/UnknownOlympus/pinpoint/internal/repository"
)

// Resolution outcomes, used as metric labels.
const (
	OutcomeOverride = "override"
	OutcomeKnown    = "known"
	OutcomeCached   = "cached"
	OutcomeResolved = "resolved"
	OutcomeNotFound = "not_found"
	OutcomeEmpty    = "empty"
)

// ResolveContext carries what the caller already knows about the address.
type ResolveContext struct {
	JobID        string        // external job identifier, selects job overrides
	Zip          string        // ZIP known independently of the address text
	KnownPoint   *models.Point // a point the caller trusts; returned as-is unless overridden
	ForceRefresh bool          // skip the cache and ask the providers again
}

// OverrideSource looks up manual corrections.
type OverrideSource interface {
	ByJob(jobID string) (*models.Point, error)
	ByAddress(key string) (*models.Point, error)
}

// Resolver turns raw addresses into points using overrides, the cache and the providers.
type Resolver struct {
	log       *slog.Logger        // Logger for logging resolver activities
	registry  *geocoding.Registry // Enabled providers and the credential blocklist
	store     repository.Store    // Geocode cache
	overrides OverrideSource      // Manual corrections
	policy    ranking.Policy      // Early-stop acceptance and the service region
	order     []string            // Provider order on the request path
	metrics   *metrics.Metrics    // Metrics for tracking resolver performance
	workers   int                 // Default batch concurrency
	now       func() time.Time    // Clock for record timestamps
}

// DefaultBatchWorkers is the batch concurrency used when none is configured.
const DefaultBatchWorkers = 8

// NewResolver creates a new instance of Resolver.
// An empty order means every registered provider in registration order.
func NewResolver(
	log *slog.Logger,
	registry *geocoding.Registry,
	store repository.Store,
	overrides OverrideSource,
	policy ranking.Policy,
	order []string,
	metrics *metrics.Metrics,
	workers int,
) *Resolver {
	if workers < 1 {
		workers = DefaultBatchWorkers
	}

	return &Resolver{
		log:       log,
		registry:  registry,
		store:     store,
		overrides: overrides,
		policy:    policy,
		order:     order,
		metrics:   metrics,
		workers:   workers,
		now:       time.Now,
	}
}

// Resolve returns the best point for raw, or nil when nothing was found.
//
// Precedence: job override, address override, the caller's known point, the cache
// (unless ForceRefresh), then the providers. Provider and cache failures are logged
// and never surface to the caller.
func (r *Resolver) Resolve(ctx context.Context, raw string, rc ResolveContext) *models.Point {
	normalized := address.Normalize(raw)
	if normalized.Empty() {
		r.log.DebugContext(ctx, "Address is empty after normalization", "raw", raw)
		r.metrics.Resolutions.WithLabelValues(OutcomeEmpty).Inc()
		return nil
	}

	key := repository.CacheKey(normalized.Query)

	if point := r.override(ctx, key, rc.JobID); point != nil {
		r.metrics.Resolutions.WithLabelValues(OutcomeOverride).Inc()
		return point
	}

	if rc.KnownPoint != nil {
		r.metrics.Resolutions.WithLabelValues(OutcomeKnown).Inc()
		point := *rc.KnownPoint
		return &point
	}

	if !rc.ForceRefresh {
		if rec, hit := r.cached(ctx, key); hit {
			r.metrics.Resolutions.WithLabelValues(OutcomeCached).Inc()
			if rec.Chosen == nil {
				return nil
			}
			point := *rec.Chosen
			return &point
		}
	}

	w := r.gather(ctx, normalized, geocoding.QueryContext{Zip: rc.Zip, JobID: rc.JobID}, r.order, true)
	ranked := ranking.Rank(ranking.Score(w.candidates, r.policy.BBox))
	chosen := ranking.Select(ranked, ranking.Overrides{})

	if w.outage() {
		// Nobody answered, so "not found" would be a guess. Leave the cache alone.
		r.log.WarnContext(ctx, "Every provider failed, not caching the result",
			"address", normalized.Query, "failed", w.failed)
	} else {
		rec := &models.GeocodeRecord{
			Query:      normalized.Query,
			Chosen:     chosen,
			Candidates: ranked,
			UpdatedAt:  r.now().UTC(),
		}
		if err := r.store.Put(ctx, key, rec); err != nil {
			r.log.ErrorContext(ctx, "Failed to write geocode cache", "key", key, "error", err)
		}
	}

	if chosen == nil {
		r.log.InfoContext(ctx, "No provider found the address", "address", normalized.Query, "job", rc.JobID)
		r.metrics.Resolutions.WithLabelValues(OutcomeNotFound).Inc()
		return nil
	}

	r.log.DebugContext(ctx, "Address resolved",
		"address", normalized.Query, "provider", chosen.Provider, "confidence", chosen.Confidence)
	r.metrics.Resolutions.WithLabelValues(OutcomeResolved).Inc()

	point := *chosen
	return &point
}

// Candidates queries the given providers (all enabled ones when empty) without early
// stopping and without touching the cache, and returns every scored candidate ranked.
func (r *Resolver) Candidates(
	ctx context.Context,
	raw string,
	rc ResolveContext,
	providers []string,
) (models.NormalizedAddress, []models.Candidate) {
	normalized := address.Normalize(raw)
	if normalized.Empty() {
		return normalized, nil
	}

	if len(providers) == 0 {
		providers = r.order
	}

	w := r.gather(ctx, normalized, geocoding.QueryContext{Zip: rc.Zip, JobID: rc.JobID}, providers, false)

	return normalized, ranking.Rank(ranking.Score(w.candidates, r.policy.BBox))
}

func (r *Resolver) override(ctx context.Context, key, jobID string) *models.Point {
	var found ranking.Overrides
	var err error

	if found.ByJob, err = r.overrides.ByJob(jobID); err != nil {
		r.log.ErrorContext(ctx, "Failed to read job overrides", "job", jobID, "error", err)
	}
	if found.ByJob == nil {
		if found.ByAddress, err = r.overrides.ByAddress(key); err != nil {
			r.log.ErrorContext(ctx, "Failed to read address overrides", "key", key, "error", err)
		}
	}

	return ranking.Select(nil, found)
}

func (r *Resolver) cached(ctx context.Context, key string) (*models.GeocodeRecord, bool) {
	rec, err := r.store.Get(ctx, key)
	switch {
	case err != nil:
		r.log.ErrorContext(ctx, "Failed to read geocode cache, treating as miss", "key", key, "error", err)
		r.metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, false
	case rec == nil:
		r.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	default:
		r.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return rec, true
	}
}

// walk is what one pass over the providers produced.
type walk struct {
	candidates []models.Candidate
	answered   int // providers that replied, with or without results
	failed     int // providers that errored for any other reason
}

// outage reports whether providers were tried and none of them answered.
func (w walk) outage() bool {
	return w.answered == 0 && w.failed > 0
}

// gather asks providers in order and collects their candidates. Regular providers go
// first; last-resort providers are asked only if nothing else produced a candidate.
// With earlyStop, the walk ends as soon as a candidate settles the address: accepted
// by the policy and inside the service region.
func (r *Resolver) gather(
	ctx context.Context,
	addr models.NormalizedAddress,
	qc geocoding.QueryContext,
	order []string,
	earlyStop bool,
) walk {
	var regular, lastResort []string
	for _, name := range r.registry.Ordered(order) {
		if r.registry.LastResort(name) {
			lastResort = append(lastResort, name)
		} else {
			regular = append(regular, name)
		}
	}

	var w walk
	for _, name := range regular {
		found := r.query(ctx, name, addr, qc, &w)
		w.candidates = append(w.candidates, found...)

		if earlyStop && r.anySettles(found) {
			r.log.DebugContext(ctx, "Provider produced an acceptable candidate, stopping", "provider", name)
			return w
		}
	}

	for _, name := range lastResort {
		if len(w.candidates) > 0 {
			break
		}
		w.candidates = append(w.candidates, r.query(ctx, name, addr, qc, &w)...)
	}

	return w
}

func (r *Resolver) query(
	ctx context.Context,
	name string,
	addr models.NormalizedAddress,
	qc geocoding.QueryContext,
	w *walk,
) []models.Candidate {
	startTime := time.Now()
	found, err := r.registry.Query(ctx, name, addr, qc)
	r.metrics.RequestSeconds.WithLabelValues(name).Observe(time.Since(startTime).Seconds())

	switch {
	case err == nil:
		w.answered++
		return found
	case errors.Is(err, geocoding.ErrCredentialBlocked):
		r.log.DebugContext(ctx, "Skipping provider with blocked credential", "provider", name)
		return nil
	case geocoding.IsNoResult(err):
		w.answered++
		r.log.DebugContext(ctx, "Provider found nothing", "provider", name, "address", addr.Query)
		return nil
	default:
		w.failed++
		r.log.WarnContext(ctx, "Provider query failed", "provider", name, "address", addr.Query, "error", err)
		r.metrics.ProviderErrors.WithLabelValues(name).Inc()
		return nil
	}
}

func (r *Resolver) anySettles(candidates []models.Candidate) bool {
	for _, c := range candidates {
		if r.policy.Settles(c) {
			return true
		}
	}

	return false
}
