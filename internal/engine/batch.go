package engine

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/logger"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/observability"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/repository"
)

// BatchStats summarizes one safety-net batch run.
type BatchStats struct {
	TotalProcessed int `json:"totalProcessed"`
	Excluded       int `json:"excluded"`
	NotExcluded    int `json:"notExcluded"`
	Errors         int `json:"errors"`
}

// BatchProcessor drains the unevaluated-call backlog in bounded batches. It is
// invoked inline after ingestion and periodically by the scheduler; both paths
// are safe to overlap because evaluation is idempotent.
type BatchProcessor struct {
	engine  *Engine
	calls   repository.CallRepository
	clock   clockwork.Clock
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewBatchProcessor creates a batch processor over the engine.
func NewBatchProcessor(engine *Engine, calls repository.CallRepository, clock clockwork.Clock, metrics *observability.Metrics, log *logger.Logger) *BatchProcessor {
	return &BatchProcessor{
		engine:  engine,
		calls:   calls,
		clock:   clock,
		metrics: metrics,
		log:     log,
	}
}

// ProcessUnevaluatedCalls pulls up to maxCalls unevaluated calls and runs each
// through the engine. A per-call failure is counted and logged but never
// aborts the batch.
func (p *BatchProcessor) ProcessUnevaluatedCalls(ctx context.Context, maxCalls int) (BatchStats, error) {
	started := p.clock.Now()

	calls, err := p.calls.ListUnevaluated(ctx, maxCalls)
	if err != nil {
		return BatchStats{}, fmt.Errorf("failed to load unevaluated calls: %w", err)
	}

	stats := BatchStats{}
	for i := range calls {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		evaluation, err := p.engine.Evaluate(ctx, &calls[i])
		stats.TotalProcessed++
		if err != nil {
			stats.Errors++
			p.metrics.EvaluationError.Inc()
			p.log.Error("call evaluation failed", err, map[string]interface{}{
				"call_id": calls[i].ID,
			})
			continue
		}
		if evaluation.Excluded {
			stats.Excluded++
		} else {
			stats.NotExcluded++
		}
	}

	p.metrics.BatchSize.Observe(float64(len(calls)))
	p.metrics.BatchDuration.Observe(p.clock.Now().Sub(started).Seconds())
	p.log.Info("batch complete", map[string]interface{}{
		"processed":    stats.TotalProcessed,
		"excluded":     stats.Excluded,
		"not_excluded": stats.NotExcluded,
		"errors":       stats.Errors,
	})
	return stats, nil
}

// CountRemaining returns the size of the backlog and refreshes the gauge.
func (p *BatchProcessor) CountRemaining(ctx context.Context) (int, error) {
	remaining, err := p.calls.CountUnevaluated(ctx)
	if err != nil {
		return 0, err
	}
	p.metrics.BacklogSize.Set(float64(remaining))
	return remaining, nil
}
