package models

import (
	"time"
)

// Exclusion strategy keys. Each matcher writes audit rows under its own key so
// the two paths stay separately auditable.
const (
	StrategyWeatherSpatial = "weather_spatial"
	StrategyWeatherText    = "weather_text"
)

// ExclusionAudit is one row per (call, weather event, strategy) match attempt.
// Append-only; a partial unique index over non-reverted rows makes repeated
// engine runs no-ops.
type ExclusionAudit struct {
	CreatedAt       time.Time              `json:"createdAt"`
	OverlapStart    time.Time              `json:"overlapStart"`
	OverlapEnd      time.Time              `json:"overlapEnd"`
	RevertedAt      *time.Time             `json:"revertedAt,omitempty"`
	Diagnostics     map[string]interface{} `json:"diagnostics,omitempty"`
	Strategy        string                 `json:"strategy"`
	EventExternalID string                 `json:"eventExternalId"`
	EventName       string                 `json:"eventName"`
	EventSeverity   string                 `json:"eventSeverity"`
	ID              int64                  `json:"id"`
	CallID          int64                  `json:"callId"`
	WeatherEventID  int64                  `json:"weatherEventId"`
}

// ExclusionLog is the unified ledger across all exclusion strategies, weather
// or otherwise. It is the canonical source for audit views and per-strategy
// counts. Rows are never deleted; reverting sets reverted_at.
type ExclusionLog struct {
	CreatedAt  time.Time              `json:"createdAt"`
	RevertedAt *time.Time             `json:"revertedAt,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Type       string                 `json:"type"`
	Strategy   string                 `json:"strategy"`
	Reason     string                 `json:"reason"`
	ID         int64                  `json:"id"`
	CallID     int64                  `json:"callId"`
}

// IsActive reports whether the ledger entry still applies to the call.
func (l *ExclusionLog) IsActive() bool {
	return l.RevertedAt == nil
}
