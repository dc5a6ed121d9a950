package engine

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/logger"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/matcher"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/repository"
)

// Ledger glues the audit trail, the unified exclusion log, and the denormalized
// call fields together. The audit insert is the idempotency gate: everything
// downstream of a suppressed insert is already guarded, so re-running the
// engine over the same call never double-writes.
type Ledger struct {
	calls      repository.CallRepository
	exclusions repository.ExclusionRepository
	clock      clockwork.Clock
	log        *logger.Logger
}

// NewLedger creates a ledger over the call and exclusion repositories.
func NewLedger(calls repository.CallRepository, exclusions repository.ExclusionRepository, clock clockwork.Clock, log *logger.Logger) *Ledger {
	return &Ledger{
		calls:      calls,
		exclusions: exclusions,
		clock:      clock,
		log:        log,
	}
}

// RecordMatch appends one audit row for a match attempt. Returns false when an
// identical non-reverted row already exists, which is the expected outcome on
// re-runs, not an error.
func (l *Ledger) RecordMatch(ctx context.Context, callID int64, result *matcher.MatchResult) (bool, error) {
	audit := &models.ExclusionAudit{
		CallID:          callID,
		WeatherEventID:  result.Event.ID,
		Strategy:        result.Strategy,
		OverlapStart:    result.OverlapStart,
		OverlapEnd:      result.OverlapEnd,
		EventExternalID: result.Event.ExternalID,
		EventName:       result.Event.Event,
		EventSeverity:   result.Event.Severity,
		Diagnostics:     result.Diagnostics,
	}
	return l.exclusions.InsertAudit(ctx, audit)
}

// ApplyAutoExclusion sets the denormalized exclusion fields and writes the
// ledger entry, but only when the call has no active exclusion. Returns false
// on the no-op path.
func (l *Ledger) ApplyAutoExclusion(ctx context.Context, callID int64, strategy, reason string, metadata map[string]interface{}) (bool, error) {
	now := l.clock.Now().UTC()

	applied, err := l.calls.ApplyExclusion(ctx, callID, models.ExclusionAuto, reason, now)
	if err != nil {
		return false, err
	}
	if !applied {
		l.log.Debug("exclusion already active, skipping", map[string]interface{}{
			"call_id":  callID,
			"strategy": strategy,
		})
		return false, nil
	}

	entry := &models.ExclusionLog{
		CallID:   callID,
		Type:     models.ExclusionAuto,
		Strategy: strategy,
		Reason:   reason,
		Metadata: metadata,
	}
	if _, err := l.exclusions.InsertLog(ctx, entry); err != nil {
		return false, err
	}
	return true, nil
}

// Revert marks a ledger entry reverted. When no other active entry remains for
// the call, the denormalized fields are cleared; otherwise the most recent
// remaining active entry is promoted onto the call. Reverting an already
// reverted entry is a no-op.
func (l *Ledger) Revert(ctx context.Context, logID int64) error {
	entry, err := l.exclusions.GetLog(ctx, logID)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("exclusion log %d not found", logID)
	}

	reverted, err := l.exclusions.MarkLogReverted(ctx, logID, l.clock.Now().UTC())
	if err != nil {
		return err
	}
	if !reverted {
		return nil
	}

	remaining, err := l.exclusions.ListActiveLogs(ctx, entry.CallID)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		return l.calls.ClearExclusion(ctx, entry.CallID)
	}

	// Entries come back most recent first; promote the newest survivor.
	promoted := remaining[0]
	return l.calls.SetExclusion(ctx, entry.CallID, promoted.Type, promoted.Reason, promoted.CreatedAt)
}
