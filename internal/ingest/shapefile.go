package ingest

import (
	"fmt"

	shp "github.com/jonas-p/go-shp"
	"github.com/stwalsh4118/wealthmap/internal/models"
)

// ReadShapefile loads properties from an ESRI shapefile in WGS84. Point
// shapes are used as-is; polygon parcels are placed at their bounding box
// center. Other shape types are skipped.
func ReadShapefile(path string) ([]models.Property, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}

	props := []models.Property{}
	for r.Next() {
		idx, shape := r.Shape()

		var pos models.LatLng
		switch s := shape.(type) {
		case *shp.Point:
			pos = models.LatLng{Lat: s.Y, Lng: s.X}
		case *shp.Polygon:
			b := s.BBox()
			pos = models.LatLng{Lat: (b.MinY + b.MaxY) / 2, Lng: (b.MinX + b.MaxX) / 2}
		default:
			continue
		}

		values := make([]string, len(fields))
		for i := range fields {
			values[i] = r.ReadAttribute(idx, i)
		}

		p, err := newRecord(names, values).property(&pos)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", idx, err)
		}
		props = append(props, p)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	return props, nil
}
