package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/logger"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/matcher"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/observability"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/repository"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/timeparse"
)

// Evaluation is the outcome of running one call through the engine.
type Evaluation struct {
	Strategy string
	Reason   string
	Excluded bool
}

// ErrUnusableQueueTime reports a call whose free-text queue time could not be
// parsed. The call is still marked evaluated so the backlog converges, and the
// batch loop counts the defect as an error.
var ErrUnusableQueueTime = errors.New("call queue time is unparseable")

// Engine runs a call through the exclusion strategies in order and records the
// outcome. Spatial matching runs before text matching, and the first strategy
// that produces matches wins; the other is never consulted for that call.
type Engine struct {
	weather    repository.WeatherEventRepository
	ledger     *Ledger
	calls      repository.CallRepository
	strategies []matcher.Strategy
	metrics    *observability.Metrics
	log        *logger.Logger
	window     time.Duration
}

// NewEngine creates an engine over the given strategies, in evaluation order.
func NewEngine(
	weather repository.WeatherEventRepository,
	calls repository.CallRepository,
	ledger *Ledger,
	strategies []matcher.Strategy,
	exposureWindow time.Duration,
	metrics *observability.Metrics,
	log *logger.Logger,
) *Engine {
	return &Engine{
		weather:    weather,
		calls:      calls,
		ledger:     ledger,
		strategies: strategies,
		window:     exposureWindow,
		metrics:    metrics,
		log:        log,
	}
}

// Evaluate runs one call through the strategies. A call whose queue time
// cannot be parsed is marked evaluated and left unexcluded, since neither
// strategy can place it in time; that case returns ErrUnusableQueueTime so
// callers count the data defect. Returns the evaluation outcome.
func (e *Engine) Evaluate(ctx context.Context, call *models.Call) (Evaluation, error) {
	e.metrics.CallsEvaluated.Inc()

	if call.IsManuallyExcluded() {
		// Manual exclusions are human decisions; the engine never touches them.
		return Evaluation{}, e.calls.MarkEvaluated(ctx, call.ID)
	}

	callStart, ok := e.callStart(call)
	if !ok {
		e.log.Warn("call has no usable queue time, skipping match", map[string]interface{}{
			"call_id": call.ID,
		})
		if err := e.calls.MarkEvaluated(ctx, call.ID); err != nil {
			return Evaluation{}, err
		}
		return Evaluation{}, fmt.Errorf("call %d: %w", call.ID, ErrUnusableQueueTime)
	}

	candidates, err := e.weather.ListCandidates(ctx, callStart, callStart.Add(e.window))
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to load candidate events for call %d: %w", call.ID, err)
	}

	for _, strategy := range e.strategies {
		results, err := strategy.Match(call, candidates)
		if err != nil {
			return Evaluation{}, err
		}
		if len(results) == 0 {
			continue
		}
		return e.exclude(ctx, call, results)
	}

	if err := e.calls.MarkEvaluated(ctx, call.ID); err != nil {
		return Evaluation{}, err
	}
	return Evaluation{}, nil
}

// exclude records every match in the audit trail and applies the exclusion
// with a reason naming the most severe matched event.
func (e *Engine) exclude(ctx context.Context, call *models.Call, results []matcher.MatchResult) (Evaluation, error) {
	for i := range results {
		if _, err := e.ledger.RecordMatch(ctx, call.ID, &results[i]); err != nil {
			return Evaluation{}, err
		}
	}

	best := matcher.MostSevere(results)
	reason := fmt.Sprintf("Weather event: %s (%s)", best.Event.Event, best.Event.Severity)
	metadata := map[string]interface{}{
		"event_external_id": best.Event.ExternalID,
		"event_severity":    best.Event.Severity,
		"matched_events":    len(results),
	}

	applied, err := e.ledger.ApplyAutoExclusion(ctx, call.ID, best.Strategy, reason, metadata)
	if err != nil {
		return Evaluation{}, err
	}
	if applied {
		e.metrics.CallsExcluded.WithLabelValues(best.Strategy).Inc()
		e.log.Info("call auto-excluded", map[string]interface{}{
			"call_id":  call.ID,
			"strategy": best.Strategy,
			"event":    best.Event.ExternalID,
		})
	}

	if err := e.calls.MarkEvaluated(ctx, call.ID); err != nil {
		return Evaluation{}, err
	}
	return Evaluation{Excluded: true, Strategy: best.Strategy, Reason: reason}, nil
}

// callStart parses the call's free-text queue time.
func (e *Engine) callStart(call *models.Call) (time.Time, bool) {
	if call.CallInQueTime == nil {
		return time.Time{}, false
	}
	start, err := timeparse.Parse(*call.CallInQueTime)
	if err != nil {
		return time.Time{}, false
	}
	return start, true
}
