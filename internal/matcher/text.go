package matcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/timeparse"
)

// minCityNameLength guards against short tokens like "LA" matching everywhere
// in the free-text area descriptions.
const minCityNameLength = 4

// TextMatcher matches calls against geometry-less alerts by comparing the
// call's origin city with the alert's semicolon-separated area names. Only
// alerts from trusted jurisdictions participate, since area names are only
// unambiguous within a known region.
type TextMatcher struct {
	trusted        map[string]struct{}
	exposureWindow time.Duration
}

// NewTextMatcher creates a text strategy limited to the given jurisdictions.
func NewTextMatcher(exposureWindow time.Duration, trustedJurisdictions []string) *TextMatcher {
	trusted := make(map[string]struct{}, len(trustedJurisdictions))
	for _, j := range trustedJurisdictions {
		j = strings.ToLower(strings.TrimSpace(j))
		if j != "" {
			trusted[j] = struct{}{}
		}
	}
	return &TextMatcher{trusted: trusted, exposureWindow: exposureWindow}
}

// Name returns the text strategy key.
func (m *TextMatcher) Name() string {
	return models.StrategyWeatherText
}

// Match returns one result per geometry-less, time-overlapping alert whose
// area description names the call's origin city. The comparison is exact and
// case-insensitive; cities shorter than four characters never match.
func (m *TextMatcher) Match(call *models.Call, candidates []models.WeatherEvent) ([]MatchResult, error) {
	if call.OriginCity == nil || call.CallInQueTime == nil {
		return nil, nil
	}
	city := strings.ToLower(strings.TrimSpace(*call.OriginCity))
	if len(city) < minCityNameLength {
		return nil, nil
	}

	callStart, err := timeparse.Parse(*call.CallInQueTime)
	if err != nil {
		return nil, fmt.Errorf("call %d has unusable queue time %q: %w", call.ID, *call.CallInQueTime, err)
	}
	windowEnd := callStart.Add(m.exposureWindow)

	var results []MatchResult
	for _, event := range candidates {
		if event.HasGeometry() {
			continue
		}
		if _, ok := m.trusted[strings.ToLower(strings.TrimSpace(event.Jurisdiction))]; !ok {
			continue
		}
		if !event.OverlapsWindow(callStart, windowEnd) {
			continue
		}

		matched := ""
		for _, area := range event.SubAreas() {
			if area == city {
				matched = area
				break
			}
		}
		if matched == "" {
			continue
		}

		overlapStart, overlapEnd := overlapWindow(&event, callStart, windowEnd)
		results = append(results, MatchResult{
			Event:        event,
			Strategy:     m.Name(),
			OverlapStart: overlapStart,
			OverlapEnd:   overlapEnd,
			Diagnostics: map[string]interface{}{
				"origin_city":  city,
				"matched_area": matched,
			},
		})
	}
	return results, nil
}
