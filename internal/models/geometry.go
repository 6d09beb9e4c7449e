package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LatLng is a WGS84 coordinate pair in the order the map widget uses.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point represents a PostGIS Point geometry.
// It stores coordinates in GeoJSON order: [lon, lat].
// SRID 4326 (WGS84) is used for lat/lng coordinates.
type Point struct {
	Coordinates [2]float64 // GeoJSON coordinate structure
	SRID        int        // Spatial Reference ID (default: 4326)
}

// NewPoint builds a Point from latitude and longitude.
func NewPoint(lat, lng float64) Point {
	return Point{Coordinates: [2]float64{lng, lat}, SRID: 4326}
}

// Lat returns the latitude of the point.
func (p Point) Lat() float64 { return p.Coordinates[1] }

// Lng returns the longitude of the point.
func (p Point) Lng() float64 { return p.Coordinates[0] }

// Scan implements sql.Scanner interface for reading point geometry from database.
// PostGIS returns geometry data which we parse as GeoJSON (ST_AsGeoJSON).
func (p *Point) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan Point: expected []byte, got %T", value)
	}

	var geom struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	}

	if err := json.Unmarshal(raw, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal point geometry: %w", err)
	}

	if geom.Type != "Point" {
		return fmt.Errorf("expected Point type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	p.SRID = 4326

	return nil
}

// Value implements driver.Valuer interface for writing point geometry to database.
// Returns GeoJSON string to be used with ST_GeomFromGeoJSON in raw SQL queries.
func (p Point) Value() (driver.Value, error) {
	geoJSON, err := p.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal point to GeoJSON: %w", err)
	}
	return string(geoJSON), nil
}

// MarshalJSON implements json.Marshaler for API responses.
func (p Point) MarshalJSON() ([]byte, error) {
	geom := struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	}{
		Type:        "Point",
		Coordinates: p.Coordinates,
	}
	return json.Marshal(geom)
}

// UnmarshalJSON implements json.Unmarshaler for parsing GeoJSON input.
func (p *Point) UnmarshalJSON(data []byte) error {
	var geom struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	}

	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal point: %w", err)
	}

	if geom.Type != "" && geom.Type != "Point" {
		return fmt.Errorf("expected Point type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	p.SRID = 4326

	return nil
}

// BBox is a lng/lat bounding box in the "minLng,minLat,maxLng,maxLat" order
// used by the bbox query parameter.
type BBox struct {
	MinLng float64 `json:"minLng"`
	MinLat float64 `json:"minLat"`
	MaxLng float64 `json:"maxLng"`
	MaxLat float64 `json:"maxLat"`
}

// ParseBBox parses "minLng,minLat,maxLng,maxLat".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, fmt.Errorf("bbox must have 4 comma-separated values, got %d", len(parts))
	}

	var vals [4]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("bbox value %d is not a number: %q", i, part)
		}
		vals[i] = v
	}

	return BBox{MinLng: vals[0], MinLat: vals[1], MaxLng: vals[2], MaxLat: vals[3]}, nil
}

// String formats the box back into query parameter form.
func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLng, b.MinLat, b.MaxLng, b.MaxLat)
}

// Contains reports whether the coordinate lies inside the box, edges included.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Feature is a GeoJSON feature carrying a property record.
type Feature struct {
	Type       string   `json:"type"`
	ID         string   `json:"id,omitempty"`
	Geometry   Point    `json:"geometry"`
	Properties Property `json:"properties"`
}

// FeatureCollection is the wire format of GET /properties.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection wraps properties as GeoJSON point features.
func NewFeatureCollection(props []Property) FeatureCollection {
	features := make([]Feature, 0, len(props))
	for _, p := range props {
		features = append(features, Feature{
			Type:       "Feature",
			ID:         p.ID,
			Geometry:   NewPoint(p.Latitude, p.Longitude),
			Properties: p,
		})
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// Properties unwraps the collection. Coordinates come from the geometry
// when the feature properties omit them.
func (fc FeatureCollection) Properties() []Property {
	props := make([]Property, 0, len(fc.Features))
	for _, f := range fc.Features {
		p := f.Properties
		if p.ID == "" {
			p.ID = f.ID
		}
		if p.Latitude == 0 && p.Longitude == 0 {
			p.Latitude = f.Geometry.Lat()
			p.Longitude = f.Geometry.Lng()
		}
		props = append(props, p)
	}
	return props
}
