package matcher

import (
	"fmt"
	"time"

	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/timeparse"
)

// SpatialMatcher matches calls against geometry-bearing alerts: the call's
// origin point must fall inside the alert polygon while the alert is active
// during the call's exposure window.
type SpatialMatcher struct {
	exposureWindow time.Duration
}

// NewSpatialMatcher creates a spatial strategy with the given exposure window.
func NewSpatialMatcher(exposureWindow time.Duration) *SpatialMatcher {
	return &SpatialMatcher{exposureWindow: exposureWindow}
}

// Name returns the spatial strategy key.
func (m *SpatialMatcher) Name() string {
	return models.StrategyWeatherSpatial
}

// Match returns one result per containing, time-overlapping alert. Calls
// without coordinates or without a parseable queue time cannot be matched
// spatially and produce no results.
func (m *SpatialMatcher) Match(call *models.Call, candidates []models.WeatherEvent) ([]MatchResult, error) {
	point, ok := call.OriginPoint()
	if !ok {
		return nil, nil
	}
	if call.CallInQueTime == nil {
		return nil, nil
	}

	callStart, err := timeparse.Parse(*call.CallInQueTime)
	if err != nil {
		return nil, fmt.Errorf("call %d has unusable queue time %q: %w", call.ID, *call.CallInQueTime, err)
	}
	windowEnd := callStart.Add(m.exposureWindow)

	var results []MatchResult
	for _, event := range candidates {
		if !event.HasGeometry() {
			continue
		}
		if !event.OverlapsWindow(callStart, windowEnd) {
			continue
		}
		if !event.Geometry.Contains(point) {
			continue
		}

		overlapStart, overlapEnd := overlapWindow(&event, callStart, windowEnd)
		results = append(results, MatchResult{
			Event:        event,
			Strategy:     m.Name(),
			OverlapStart: overlapStart,
			OverlapEnd:   overlapEnd,
			Diagnostics: map[string]interface{}{
				"origin_lat": point.Lat,
				"origin_lng": point.Lng,
			},
		})
	}
	return results, nil
}
