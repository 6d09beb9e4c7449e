// Package filter evaluates property filter sets.
package filter

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/stwalsh4118/wealthmap/internal/models"
)

var (
	ErrInvertedRange  = errors.New("minimum is greater than maximum")
	ErrNonFiniteBound = errors.New("bound must be a finite number")
)

// bound pairs a min/max filter with the property field it constrains.
type bound struct {
	name    string
	min     *float64
	max     *float64
	extract func(p *models.Property) float64
}

func bounds(fs *models.FilterSet) []bound {
	return []bound{
		{"price", fs.MinPrice, fs.MaxPrice, func(p *models.Property) float64 { return p.Price }},
		{"size", fs.MinSize, fs.MaxSize, func(p *models.Property) float64 { return p.LivingSpace }},
		{"beds", fs.MinBeds, fs.MaxBeds, func(p *models.Property) float64 { return float64(p.Beds) }},
		{"baths", fs.MinBaths, fs.MaxBaths, func(p *models.Property) float64 { return p.Baths }},
		{"value", fs.MinValue, fs.MaxValue, func(p *models.Property) float64 { return p.EstimatedValue() }},
		{"income", fs.MinIncome, fs.MaxIncome, func(p *models.Property) float64 { return p.MedianIncome }},
	}
}

// Matches reports whether p satisfies every populated bound of fs.
// Numeric bounds are inclusive. Location matches case-insensitively against
// the address, county, region or zip.
func Matches(p *models.Property, fs models.FilterSet) bool {
	for _, b := range bounds(&fs) {
		if b.min == nil && b.max == nil {
			continue
		}
		v := b.extract(p)
		if b.min != nil && v < *b.min {
			return false
		}
		if b.max != nil && v > *b.max {
			return false
		}
	}

	if fs.Location != "" {
		needle := strings.ToLower(strings.TrimSpace(fs.Location))
		if !containsFold(needle, p.Address, p.County, p.Region, p.Zip) {
			return false
		}
	}

	return true
}

func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Filter returns the properties matching fs, in input order.
// The result is never nil.
func Filter(props []models.Property, fs models.FilterSet) []models.Property {
	out := make([]models.Property, 0, len(props))
	for i := range props {
		if Matches(&props[i], fs) {
			out = append(out, props[i])
		}
	}
	return out
}

// ValidationError names the filter whose bounds were rejected.
type ValidationError struct {
	Err   error
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate rejects non-finite bounds and ranges whose minimum exceeds the maximum.
func Validate(fs models.FilterSet) error {
	for _, b := range bounds(&fs) {
		for _, v := range []*float64{b.min, b.max} {
			if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
				return &ValidationError{Field: b.name, Err: ErrNonFiniteBound}
			}
		}
		if b.min != nil && b.max != nil && *b.min > *b.max {
			return &ValidationError{
				Field: b.name,
				Err:   fmt.Errorf("%w (min=%g, max=%g)", ErrInvertedRange, *b.min, *b.max),
			}
		}
	}
	return nil
}

// FieldOf extracts the filter name from an error returned by Validate.
func FieldOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}

// Model holds the active filter set of a map session.
type Model struct {
	mu     sync.RWMutex
	active models.FilterSet
}

// NewModel creates a Model with no constraints.
func NewModel() *Model {
	return &Model{}
}

// Apply replaces the active filters wholesale.
func (m *Model) Apply(fs models.FilterSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = fs.Clone()
}

// Active returns a copy of the active filters.
func (m *Model) Active() models.FilterSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active.Clone()
}

// Matches evaluates p against the active filters.
func (m *Model) Matches(p *models.Property) bool {
	return Matches(p, m.Active())
}
