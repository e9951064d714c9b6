package service

import (
	"context"
	"sync"

	"github.com/UnknownOlympus/pinpoint/internal/models"
)

type batchJob struct {
	idx     int
	address string
}

// ResolveBatch resolves addresses concurrently with a bounded worker pool.
// The result has one entry per input address, in input order; nil means not found.
func (r *Resolver) ResolveBatch(
	ctx context.Context,
	addresses []string,
	concurrency int,
	force bool,
) []*models.Point {
	results := make([]*models.Point, len(addresses))
	if len(addresses) == 0 {
		return results
	}

	if concurrency < 1 {
		concurrency = r.workers
	}
	concurrency = min(concurrency, len(addresses))

	r.log.InfoContext(ctx, "Starting batch resolution", "jobs", len(addresses), "num_workers", concurrency)

	jobs := make(chan batchJob, len(addresses))
	var wgr sync.WaitGroup

	for i := 1; i <= concurrency; i++ {
		wgr.Add(1)
		go r.worker(ctx, i, &wgr, jobs, results, force)
	}

	for idx, addr := range addresses {
		jobs <- batchJob{idx: idx, address: addr}
	}
	close(jobs)

	wgr.Wait()
	r.log.InfoContext(ctx, "Batch resolution finished", "jobs", len(addresses))

	return results
}

// worker resolves jobs until the channel is drained. Each job writes only its own
// slot of results, so no locking is needed.
func (r *Resolver) worker(
	ctx context.Context,
	idx int,
	wg *sync.WaitGroup,
	jobs <-chan batchJob,
	results []*models.Point,
	force bool,
) {
	defer wg.Done()
	for job := range jobs {
		if ctx.Err() != nil {
			continue
		}

		r.metrics.ActiveWorkers.Inc()
		r.log.DebugContext(ctx, "Resolving address", "worker", idx, "position", job.idx)

		results[job.idx] = r.Resolve(ctx, job.address, ResolveContext{ForceRefresh: force})

		r.metrics.ActiveWorkers.Dec()
	}
}
