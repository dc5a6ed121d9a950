package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0088

// Point is a WGS84 coordinate. GeoJSON stores coordinates in (lon, lat) order.
type Point struct {
	Lng float64
	Lat float64
}

// Polygon represents a GeoJSON Polygon geometry.
// It stores coordinates in GeoJSON format: [rings][points][lon,lat].
// The first ring is the exterior boundary; subsequent rings are holes.
// SRID 4326 (WGS84) is used for lat/lng coordinates.
type Polygon struct {
	Coordinates [][][2]float64 // GeoJSON coordinate structure
	SRID        int            // Spatial Reference ID (default: 4326)
}

// Scan implements sql.Scanner for reading polygon geometry from the database.
// Geometry columns are read back as GeoJSON (via ST_AsGeoJSON).
func (p *Polygon) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan Polygon: expected []byte, got %T", value)
	}

	var geom struct {
		Type        string         `json:"type"`
		Coordinates [][][2]float64 `json:"coordinates"`
	}

	if err := json.Unmarshal(bytes, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal polygon geometry: %w", err)
	}

	if geom.Type != "Polygon" {
		return fmt.Errorf("expected Polygon type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	p.SRID = 4326

	return nil
}

// Value implements driver.Valuer for writing polygon geometry to the database.
// Returns a GeoJSON string for use with ST_GeomFromGeoJSON in raw SQL queries.
func (p Polygon) Value() (driver.Value, error) {
	if len(p.Coordinates) == 0 {
		return nil, nil
	}

	geom := map[string]interface{}{
		"type":        "Polygon",
		"coordinates": p.Coordinates,
	}

	geoJSON, err := json.Marshal(geom)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal polygon to GeoJSON: %w", err)
	}

	return string(geoJSON), nil
}

// MarshalJSON implements json.Marshaler for API responses.
// Returns GeoJSON-compliant format for frontend consumption.
func (p Polygon) MarshalJSON() ([]byte, error) {
	geom := struct {
		Type        string         `json:"type"`
		Coordinates [][][2]float64 `json:"coordinates"`
	}{
		Type:        "Polygon",
		Coordinates: p.Coordinates,
	}
	return json.Marshal(geom)
}

// UnmarshalJSON implements json.Unmarshaler for parsing GeoJSON input.
func (p *Polygon) UnmarshalJSON(data []byte) error {
	var geom struct {
		Type        string         `json:"type"`
		Coordinates [][][2]float64 `json:"coordinates"`
	}

	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal polygon: %w", err)
	}

	if geom.Type != "" && geom.Type != "Polygon" {
		return fmt.Errorf("expected Polygon type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	p.SRID = 4326

	return nil
}

// Contains reports whether the point lies inside the polygon.
// A point inside the exterior ring but also inside a hole is outside.
func (p Polygon) Contains(pt Point) bool {
	if len(p.Coordinates) == 0 {
		return false
	}
	if !ringContains(p.Coordinates[0], pt) {
		return false
	}
	for _, hole := range p.Coordinates[1:] {
		if ringContains(hole, pt) {
			return false
		}
	}
	return true
}

// AreaSqKm returns the approximate geodesic area of the polygon in square
// kilometers, computed by spherical excess. Hole areas are subtracted.
func (p Polygon) AreaSqKm() float64 {
	if len(p.Coordinates) == 0 {
		return 0
	}
	area := ringAreaSqKm(p.Coordinates[0])
	for _, hole := range p.Coordinates[1:] {
		area -= ringAreaSqKm(hole)
	}
	if area < 0 {
		return 0
	}
	return area
}

// ringContains runs the standard ray-casting test against one ring.
// The ring may be open or explicitly closed; both forms work.
func ringContains(ring [][2]float64, pt Point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > pt.Lat) != (yj > pt.Lat) &&
			pt.Lng < (xj-xi)*(pt.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// ringAreaSqKm computes the unsigned spherical area of a single ring.
func ringAreaSqKm(ring [][2]float64) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		p1 := ring[i]
		p2 := ring[(i+1)%n]
		lng1 := p1[0] * math.Pi / 180
		lng2 := p2[0] * math.Pi / 180
		lat1 := p1[1] * math.Pi / 180
		lat2 := p2[1] * math.Pi / 180
		sum += (lng2 - lng1) * (2 + math.Sin(lat1) + math.Sin(lat2))
	}
	return math.Abs(sum * earthRadiusKm * earthRadiusKm / 2)
}

// MultiPolygon represents a GeoJSON MultiPolygon geometry.
// It stores coordinates in GeoJSON format: [polygons][rings][points][lon,lat].
// Used for zone boundaries that consist of multiple separate polygons.
type MultiPolygon struct {
	Coordinates [][][][2]float64 // GeoJSON coordinate structure for MultiPolygon
	SRID        int              // Spatial Reference ID (default: 4326)
}

// Scan implements sql.Scanner for reading multipolygon geometry from the database.
func (mp *MultiPolygon) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan MultiPolygon: expected []byte, got %T", value)
	}

	var geom struct {
		Type        string           `json:"type"`
		Coordinates [][][][2]float64 `json:"coordinates"`
	}

	if err := json.Unmarshal(bytes, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal multipolygon geometry: %w", err)
	}

	if geom.Type != "MultiPolygon" {
		return fmt.Errorf("expected MultiPolygon type, got %s", geom.Type)
	}

	mp.Coordinates = geom.Coordinates
	mp.SRID = 4326

	return nil
}

// Value implements driver.Valuer for writing multipolygon geometry to the database.
func (mp MultiPolygon) Value() (driver.Value, error) {
	if len(mp.Coordinates) == 0 {
		return nil, nil
	}

	geom := map[string]interface{}{
		"type":        "MultiPolygon",
		"coordinates": mp.Coordinates,
	}

	geoJSON, err := json.Marshal(geom)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal multipolygon to GeoJSON: %w", err)
	}

	return string(geoJSON), nil
}

// MarshalJSON implements json.Marshaler for API responses.
func (mp MultiPolygon) MarshalJSON() ([]byte, error) {
	geom := struct {
		Type        string           `json:"type"`
		Coordinates [][][][2]float64 `json:"coordinates"`
	}{
		Type:        "MultiPolygon",
		Coordinates: mp.Coordinates,
	}
	return json.Marshal(geom)
}

// UnmarshalJSON implements json.Unmarshaler for parsing GeoJSON input.
func (mp *MultiPolygon) UnmarshalJSON(data []byte) error {
	var geom struct {
		Type        string           `json:"type"`
		Coordinates [][][][2]float64 `json:"coordinates"`
	}

	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal multipolygon: %w", err)
	}

	if geom.Type != "" && geom.Type != "MultiPolygon" {
		return fmt.Errorf("expected MultiPolygon type, got %s", geom.Type)
	}

	mp.Coordinates = geom.Coordinates
	mp.SRID = 4326

	return nil
}

// Contains reports whether the point lies inside any member polygon.
func (mp MultiPolygon) Contains(pt Point) bool {
	for _, coords := range mp.Coordinates {
		if (Polygon{Coordinates: coords}).Contains(pt) {
			return true
		}
	}
	return false
}

// AreaSqKm returns the summed area of all member polygons in square kilometers.
func (mp MultiPolygon) AreaSqKm() float64 {
	var total float64
	for _, coords := range mp.Coordinates {
		total += (Polygon{Coordinates: coords}).AreaSqKm()
	}
	return total
}

// Geometry holds an arbitrary weather-alert geometry: Polygon, MultiPolygon,
// or GeometryCollection. Collections are flattened to their polygonal members
// at parse time; non-areal members (points, lines) are dropped since they
// cannot contain a call origin.
type Geometry struct {
	Type     string
	Polygons []Polygon
}

// UnmarshalJSON parses any supported GeoJSON geometry type.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("failed to unmarshal geometry: %w", err)
	}

	switch head.Type {
	case "Polygon":
		var p Polygon
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		g.Type = head.Type
		g.Polygons = []Polygon{p}
	case "MultiPolygon":
		var mp MultiPolygon
		if err := json.Unmarshal(data, &mp); err != nil {
			return err
		}
		g.Type = head.Type
		g.Polygons = make([]Polygon, 0, len(mp.Coordinates))
		for _, coords := range mp.Coordinates {
			g.Polygons = append(g.Polygons, Polygon{Coordinates: coords, SRID: 4326})
		}
	case "GeometryCollection":
		var coll struct {
			Geometries []json.RawMessage `json:"geometries"`
		}
		if err := json.Unmarshal(data, &coll); err != nil {
			return fmt.Errorf("failed to unmarshal geometry collection: %w", err)
		}
		g.Type = head.Type
		g.Polygons = nil
		for _, raw := range coll.Geometries {
			var member Geometry
			if err := member.UnmarshalJSON(raw); err != nil {
				// Non-areal collection members are skipped, not an error.
				continue
			}
			g.Polygons = append(g.Polygons, member.Polygons...)
		}
	default:
		return fmt.Errorf("unsupported geometry type %q", head.Type)
	}

	return nil
}

// MarshalJSON round-trips the flattened polygons as a MultiPolygon, which is
// sufficient for API responses regardless of the original GeoJSON type.
func (g Geometry) MarshalJSON() ([]byte, error) {
	coords := make([][][][2]float64, 0, len(g.Polygons))
	for _, p := range g.Polygons {
		coords = append(coords, p.Coordinates)
	}
	return MultiPolygon{Coordinates: coords}.MarshalJSON()
}

// Scan implements sql.Scanner for reading alert geometry stored as GeoJSON.
// A NULL column leaves the geometry empty.
func (g *Geometry) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to scan Geometry: expected []byte or string, got %T", value)
	}

	return g.UnmarshalJSON(bytes)
}

// Value implements driver.Valuer for writing alert geometry as GeoJSON.
func (g Geometry) Value() (driver.Value, error) {
	if g.IsEmpty() {
		return nil, nil
	}
	data, err := g.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// IsEmpty reports whether the geometry has no polygonal members.
func (g Geometry) IsEmpty() bool {
	return len(g.Polygons) == 0
}

// Contains reports whether the point lies inside any flattened member.
func (g Geometry) Contains(pt Point) bool {
	for _, p := range g.Polygons {
		if p.Contains(pt) {
			return true
		}
	}
	return false
}
