package models

import (
	"strings"
	"time"
)

// DefaultOpenEndedValidity is how long an alert with a NULL ends_at is
// considered active for overlap purposes. The stored row is never rewritten.
const DefaultOpenEndedValidity = 24 * time.Hour

// WeatherEvent is one normalized weather alert from the upstream ingestion
// job. Rows are keyed by the upstream alert identifier and refreshed with
// upsert semantics, so re-ingestion is always safe.
type WeatherEvent struct {
	StartsAt     time.Time  `json:"startsAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	EndsAt       *time.Time `json:"endsAt,omitempty"`
	Certainty    *string    `json:"certainty,omitempty"`
	Urgency      *string    `json:"urgency,omitempty"`
	AreaDesc     *string    `json:"areaDesc,omitempty"`
	ExternalID   string     `json:"externalId"`
	Source       string     `json:"source"`
	Jurisdiction string     `json:"jurisdiction"`
	Event        string     `json:"event"`
	Severity     string     `json:"severity"`
	Geometry     Geometry   `json:"geometry"`
	ID           int64      `json:"id"`
}

// HasGeometry reports whether the alert carries usable polygon geometry.
// Alerts without geometry are matched by area-name text instead.
func (e *WeatherEvent) HasGeometry() bool {
	return !e.Geometry.IsEmpty()
}

// EffectiveEnd returns the end of the alert's validity window, substituting
// starts_at + 24h when the upstream source delivered no expiry.
func (e *WeatherEvent) EffectiveEnd() time.Time {
	if e.EndsAt != nil {
		return *e.EndsAt
	}
	return e.StartsAt.Add(DefaultOpenEndedValidity)
}

// OverlapsWindow reports whether the alert's validity window intersects
// [from, to].
func (e *WeatherEvent) OverlapsWindow(from, to time.Time) bool {
	return !e.StartsAt.After(to) && !e.EffectiveEnd().Before(from)
}

// SubAreas splits the free-text area description on ';' into trimmed,
// lower-cased sub-area names. Empty segments are dropped.
func (e *WeatherEvent) SubAreas() []string {
	if e.AreaDesc == nil {
		return nil
	}
	parts := strings.Split(*e.AreaDesc, ";")
	areas := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		if name != "" {
			areas = append(areas, name)
		}
	}
	return areas
}

// SeverityRank orders alert severities for tie-breaking when several alerts
// match the same call: Extreme > Severe > Moderate > Minor > Unknown.
func SeverityRank(severity string) int {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "extreme":
		return 4
	case "severe":
		return 3
	case "moderate":
		return 2
	case "minor":
		return 1
	default:
		return 0
	}
}
