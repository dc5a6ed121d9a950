package matcher

import (
	"time"

	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
)

// MatchResult is one (call, weather event) pairing produced by a strategy.
// The overlap window is the intersection of the call's exposure window and the
// alert's validity window, recorded for the audit trail.
type MatchResult struct {
	OverlapStart time.Time
	OverlapEnd   time.Time
	Diagnostics  map[string]interface{}
	Strategy     string
	Event        models.WeatherEvent
}

// Strategy matches a call against a set of candidate weather events. Strategies
// are pure: they never write, and the same inputs always produce the same
// matches.
type Strategy interface {
	// Name returns the strategy key recorded on audit and ledger rows.
	Name() string

	// Match returns every candidate event that matches the call. An empty
	// result with a nil error means the call simply did not match.
	Match(call *models.Call, candidates []models.WeatherEvent) ([]MatchResult, error)
}

// MostSevere picks the result whose event has the highest severity rank,
// breaking ties by lowest event id so the choice is stable across runs.
func MostSevere(results []MatchResult) *MatchResult {
	if len(results) == 0 {
		return nil
	}
	best := &results[0]
	for i := 1; i < len(results); i++ {
		candidate := &results[i]
		cr, br := models.SeverityRank(candidate.Event.Severity), models.SeverityRank(best.Event.Severity)
		if cr > br || (cr == br && candidate.Event.ID < best.Event.ID) {
			best = candidate
		}
	}
	return best
}

// overlapWindow intersects the call exposure window with the event validity
// window. Callers check OverlapsWindow first, so the result is non-empty.
func overlapWindow(event *models.WeatherEvent, windowStart, windowEnd time.Time) (time.Time, time.Time) {
	start := windowStart
	if event.StartsAt.After(start) {
		start = event.StartsAt
	}
	end := windowEnd
	if effective := event.EffectiveEnd(); effective.Before(end) {
		end = effective
	}
	return start, end
}
