package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/stwalsh4118/wealthmap/internal/logger"
	"github.com/stwalsh4118/wealthmap/internal/models"
)

// Coordinate validation constants
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// MaxSelection caps how many ids a single lookup may carry.
const MaxSelection = 5000

// Service-level errors
var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidBBox        = errors.New("invalid bounding box")
	ErrInvalidValueRange  = errors.New("invalid value range")
	ErrPropertyNotFound   = errors.New("property not found")
	ErrSelectionTooLarge  = fmt.Errorf("selection exceeds %d properties", MaxSelection)
)

// PropertySource is where property records come from. Both the PostGIS
// repository and the upstream REST client implement it.
type PropertySource interface {
	Fetch(ctx context.Context, q models.PropertyQuery) ([]models.Property, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Property, error)
	FindByID(ctx context.Context, id string) (*models.Property, error)
}

// PropertyService defines the interface for property lookups.
type PropertyService interface {
	// Search returns the properties matching the query.
	// Returns ErrInvalidBBox, ErrInvalidCoordinates or ErrInvalidValueRange for bad input.
	// Returns an empty slice when nothing matches.
	Search(ctx context.Context, q models.PropertyQuery) ([]models.Property, error)

	// Get returns a single property or ErrPropertyNotFound.
	Get(ctx context.Context, id string) (*models.Property, error)

	// GetMany returns the known properties among ids, in the order requested.
	// Duplicate and unknown ids are skipped.
	GetMany(ctx context.Context, ids []string) ([]models.Property, error)
}

type propertyService struct {
	source PropertySource
	log    *logger.Logger
}

// NewPropertyService creates a new instance of PropertyService.
func NewPropertyService(source PropertySource, log *logger.Logger) PropertyService {
	return &propertyService{
		source: source,
		log:    log,
	}
}

// ValidateQuery checks the bounding box and the value range of q.
func ValidateQuery(q models.PropertyQuery) error {
	if b := q.BBox; b != nil {
		for _, lat := range []float64{b.MinLat, b.MaxLat} {
			if math.IsNaN(lat) || lat < MinLatitude || lat > MaxLatitude {
				return fmt.Errorf("%w: latitude must be between %g and %g, got %g",
					ErrInvalidCoordinates, MinLatitude, MaxLatitude, lat)
			}
		}
		for _, lng := range []float64{b.MinLng, b.MaxLng} {
			if math.IsNaN(lng) || lng < MinLongitude || lng > MaxLongitude {
				return fmt.Errorf("%w: longitude must be between %g and %g, got %g",
					ErrInvalidCoordinates, MinLongitude, MaxLongitude, lng)
			}
		}
		if b.MinLat >= b.MaxLat || b.MinLng >= b.MaxLng {
			return fmt.Errorf("%w: minimum corner must be south-west of maximum corner", ErrInvalidBBox)
		}
	}

	for _, v := range []*float64{q.MinValue, q.MaxValue} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0) {
			return fmt.Errorf("%w: values must be finite and non-negative", ErrInvalidValueRange)
		}
	}
	if q.MinValue != nil && q.MaxValue != nil && *q.MinValue > *q.MaxValue {
		return fmt.Errorf("%w: minValue %g is greater than maxValue %g",
			ErrInvalidValueRange, *q.MinValue, *q.MaxValue)
	}
	return nil
}

func (s *propertyService) Search(ctx context.Context, q models.PropertyQuery) ([]models.Property, error) {
	if err := ValidateQuery(q); err != nil {
		s.log.Warn("Invalid property query", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	fields := map[string]interface{}{}
	if q.BBox != nil {
		fields["bbox"] = q.BBox.String()
	}

	props, err := s.source.Fetch(ctx, q)
	if err != nil {
		s.log.Error("Failed to fetch properties", err, fields)
		return nil, fmt.Errorf("failed to fetch properties: %w", err)
	}
	if props == nil {
		props = []models.Property{}
	}

	fields["count"] = len(props)
	s.log.Debug("Properties fetched", fields)
	return props, nil
}

func (s *propertyService) Get(ctx context.Context, id string) (*models.Property, error) {
	if id == "" {
		return nil, ErrPropertyNotFound
	}

	p, err := s.source.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to fetch property", err, map[string]interface{}{
			"property_id": id,
		})
		return nil, fmt.Errorf("failed to fetch property: %w", err)
	}
	// Source returns nil, nil when no property found - transform to domain error
	if p == nil {
		return nil, ErrPropertyNotFound
	}
	return p, nil
}

func (s *propertyService) GetMany(ctx context.Context, ids []string) ([]models.Property, error) {
	if len(ids) > MaxSelection {
		return nil, ErrSelectionTooLarge
	}

	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return []models.Property{}, nil
	}

	found, err := s.source.FindByIDs(ctx, unique)
	if err != nil {
		s.log.Error("Failed to fetch properties by id", err, map[string]interface{}{
			"count": len(unique),
		})
		return nil, fmt.Errorf("failed to fetch properties: %w", err)
	}

	byID := make(map[string]models.Property, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Property, 0, len(found))
	for _, id := range unique {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
