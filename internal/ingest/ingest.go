// Package ingest reads property records from shapefiles and CSV exports.
package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stwalsh4118/wealthmap/internal/models"
)

// Column aliases, matched case-insensitively. DBF field names are capped at
// ten characters, so the short forms are what shapefiles carry.
var (
	idColumns       = []string{"id", "prop_id", "parcel_id"}
	addressColumns  = []string{"address", "situs", "addr"}
	countyColumns   = []string{"county"}
	regionColumns   = []string{"region", "city"}
	zipColumns      = []string{"zip", "zipcode", "zip_code"}
	priceColumns    = []string{"price", "list_price"}
	sizeColumns     = []string{"sqft", "living", "living_space"}
	bedsColumns     = []string{"beds", "bedrooms"}
	bathsColumns    = []string{"baths", "bathrooms"}
	incomeColumns   = []string{"income", "med_income", "median_income"}
	popColumns      = []string{"population", "pop"}
	densityColumns  = []string{"density"}
	netWorthColumns = []string{"networth", "net_worth", "owner_net_worth"}
	latColumns      = []string{"latitude", "lat"}
	lngColumns      = []string{"longitude", "lng", "lon"}
)

// valuationPrefix marks per-year valuation columns such as val_2024.
const valuationPrefix = "val_"

// record is one input row keyed by lower-cased column name.
type record map[string]string

func newRecord(names, values []string) record {
	r := make(record, len(names))
	for i, name := range names {
		if i < len(values) {
			r[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(strings.Trim(values[i], "\x00"))
		}
	}
	return r
}

func (r record) text(aliases []string) string {
	for _, a := range aliases {
		if v, ok := r[a]; ok && v != "" {
			return v
		}
	}
	return ""
}

func (r record) float(aliases []string) (float64, bool, error) {
	for _, a := range aliases {
		v, ok := r[a]
		if !ok || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		if err != nil {
			return 0, false, fmt.Errorf("column %s: %q is not a number", a, v)
		}
		return f, true, nil
	}
	return 0, false, nil
}

// property converts the record. Coordinates come from the geometry when the
// caller has it, otherwise from latitude/longitude columns.
func (r record) property(geom *models.LatLng) (models.Property, error) {
	p := models.Property{
		ID:      r.text(idColumns),
		Address: r.text(addressColumns),
		County:  r.text(countyColumns),
		Region:  r.text(regionColumns),
		Zip:     r.text(zipColumns),
	}
	if p.ID == "" {
		return p, fmt.Errorf("missing id")
	}

	numbers := []struct {
		aliases []string
		set     func(float64)
	}{
		{priceColumns, func(v float64) { p.Price = v }},
		{sizeColumns, func(v float64) { p.LivingSpace = v }},
		{bedsColumns, func(v float64) { p.Beds = int(v) }},
		{bathsColumns, func(v float64) { p.Baths = v }},
		{incomeColumns, func(v float64) { p.MedianIncome = v }},
		{popColumns, func(v float64) { p.Population = int(v) }},
		{densityColumns, func(v float64) { p.Density = v }},
		{netWorthColumns, func(v float64) { p.OwnerNetWorth = models.Float(v) }},
	}
	for _, n := range numbers {
		v, ok, err := r.float(n.aliases)
		if err != nil {
			return p, err
		}
		if ok {
			n.set(v)
		}
	}

	for name, raw := range r {
		if !strings.HasPrefix(name, valuationPrefix) || raw == "" {
			continue
		}
		year, err := strconv.Atoi(strings.TrimPrefix(name, valuationPrefix))
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return p, fmt.Errorf("column %s: %q is not a number", name, raw)
		}
		p.Valuations = append(p.Valuations, models.Valuation{Year: year, Value: v})
	}
	p.SortValuations()

	if geom != nil {
		p.Latitude, p.Longitude = geom.Lat, geom.Lng
	} else {
		lat, okLat, err := r.float(latColumns)
		if err != nil {
			return p, err
		}
		lng, okLng, err := r.float(lngColumns)
		if err != nil {
			return p, err
		}
		if !okLat || !okLng {
			return p, fmt.Errorf("missing latitude/longitude")
		}
		p.Latitude, p.Longitude = lat, lng
	}

	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return p, fmt.Errorf("coordinates out of range (%g, %g)", p.Latitude, p.Longitude)
	}
	return p, nil
}
