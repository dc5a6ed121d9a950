package models

import (
	"time"
)

// Zone is a response zone with an optional drawn boundary. Coverage analysis
// requires the boundary to be present.
type Zone struct {
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Boundary  *MultiPolygon `json:"boundary,omitempty"`
	Name      string        `json:"name"`
	ID        int64         `json:"id"`
}

// HasBoundary reports whether the zone has a usable boundary polygon.
func (z *Zone) HasBoundary() bool {
	return z.Boundary != nil && len(z.Boundary.Coordinates) > 0
}

// CoveragePost is a candidate staffed location used for travel-time coverage
// analysis. Posts without coordinates cannot be analyzed.
type CoveragePost struct {
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Lat            *float64  `json:"lat,omitempty"`
	Lng            *float64  `json:"lng,omitempty"`
	Name           string    `json:"name"`
	ID             int64     `json:"id"`
	UnitsAvailable int       `json:"unitsAvailable"`
}

// Location returns the post's coordinate, if set.
func (p *CoveragePost) Location() (Point, bool) {
	if p.Lat == nil || p.Lng == nil {
		return Point{}, false
	}
	return Point{Lng: *p.Lng, Lat: *p.Lat}, true
}

// Isochrone is a travel-time polygon returned by the routing service for a
// post at a given minute threshold.
type Isochrone struct {
	Polygon      Polygon `json:"polygon"`
	AreaSqKm     float64 `json:"areaSqKm"`
	RangeMinutes int     `json:"rangeMinutes"`
}
