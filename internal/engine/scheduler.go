package engine

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/logger"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/observability"
)

// Scheduler is the safety net behind the inline post-ingest evaluation. On a
// fixed cadence it drains whatever backlog accumulated, in capped batches, so
// a missed inline run can delay an exclusion by at most one interval.
type Scheduler struct {
	processor *BatchProcessor
	clock     clockwork.Clock
	metrics   *observability.Metrics
	log       *logger.Logger

	interval   time.Duration
	batchSize  int
	maxBatches int
}

// NewScheduler creates a scheduler that runs the batch processor every
// interval, pulling batchSize calls per batch up to maxBatches per run.
func NewScheduler(processor *BatchProcessor, clock clockwork.Clock, interval time.Duration, batchSize, maxBatches int, metrics *observability.Metrics, log *logger.Logger) *Scheduler {
	return &Scheduler{
		processor:  processor,
		clock:      clock,
		interval:   interval,
		batchSize:  batchSize,
		maxBatches: maxBatches,
		metrics:    metrics,
		log:        log,
	}
}

// Start runs the scheduler loop until the context is canceled. It blocks, so
// callers run it in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("safety-net scheduler started", map[string]interface{}{
		"interval":    s.interval.String(),
		"batch_size":  s.batchSize,
		"max_batches": s.maxBatches,
	})

	for {
		select {
		case <-ctx.Done():
			s.log.Info("safety-net scheduler stopped", nil)
			return
		case <-ticker.Chan():
			s.RunOnce(ctx)
		}
	}
}

// RunOnce drains the backlog in capped batches. Each run stops when the
// backlog is empty, the per-run batch cap is hit, or the context is canceled.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.metrics.SchedulerRuns.Inc()

	for batch := 0; batch < s.maxBatches; batch++ {
		if ctx.Err() != nil {
			return
		}

		stats, err := s.processor.ProcessUnevaluatedCalls(ctx, s.batchSize)
		if err != nil {
			s.log.Error("scheduled batch failed", err, map[string]interface{}{
				"batch": batch,
			})
			return
		}
		if stats.TotalProcessed == 0 {
			break
		}

		remaining, err := s.processor.CountRemaining(ctx)
		if err != nil {
			s.log.Error("failed to count backlog", err, nil)
			return
		}
		if remaining == 0 {
			break
		}
	}
}
