package models

import (
	"time"
)

// Exclusion types recorded on a call. A call with no exclusion has a NULL
// exclusion_type, represented here as a nil pointer.
const (
	ExclusionAuto   = "AUTO"
	ExclusionManual = "MANUAL"
)

// Call represents one emergency-response record as delivered by the ingestion
// pipeline. Timestamp columns are free text from the CAD export and may be
// malformed; only exclusion-related fields are ever mutated by this service.
// All nullable fields use pointers to distinguish between zero values and NULL.
type Call struct {
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	ParishID           *int64     `json:"parishId,omitempty"`
	ZoneID             *int64     `json:"zoneId,omitempty"`
	OriginLat          *float64   `json:"originLat,omitempty"`
	OriginLng          *float64   `json:"originLng,omitempty"`
	OriginCity         *string    `json:"originCity,omitempty"`
	CallInQueTime      *string    `json:"callInQueTime,omitempty"`
	DispatchTime       *string    `json:"dispatchTime,omitempty"`
	ArrivedAtSceneTime *string    `json:"arrivedAtSceneTime,omitempty"`
	Priority           *string    `json:"priority,omitempty"`
	ExclusionType      *string    `json:"exclusionType,omitempty"`
	ExclusionReason    *string    `json:"exclusionReason,omitempty"`
	ExcludedAt         *time.Time `json:"excludedAt,omitempty"`
	ID                 int64      `json:"id"`
	Evaluated          bool       `json:"evaluated"`
}

// OriginPoint returns the call's origin coordinate, if both components are set.
func (c *Call) OriginPoint() (Point, bool) {
	if c.OriginLat == nil || c.OriginLng == nil {
		return Point{}, false
	}
	return Point{Lng: *c.OriginLng, Lat: *c.OriginLat}, true
}

// IsExcluded reports whether the call carries an active exclusion of any type.
func (c *Call) IsExcluded() bool {
	return c.ExclusionType != nil && *c.ExclusionType != ""
}

// IsManuallyExcluded reports whether a human excluded the call.
func (c *Call) IsManuallyExcluded() bool {
	return c.ExclusionType != nil && *c.ExclusionType == ExclusionManual
}
