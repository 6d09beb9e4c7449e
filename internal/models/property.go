package models

import "sort"

// Valuation is one point of a property's annual valuation index.
type Valuation struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Property is a real-estate record as served by the property backend.
// Records are immutable once fetched; a session caches them until it is swept.
type Property struct {
	OwnerNetWorth *float64    `json:"ownerNetWorth,omitempty"`
	ID            string      `json:"id"`
	Address       string      `json:"address"`
	County        string      `json:"county"`
	Region        string      `json:"region"`
	Zip           string      `json:"zip"`
	Valuations    []Valuation `json:"valuations,omitempty"`
	Latitude      float64     `json:"latitude"`
	Longitude     float64     `json:"longitude"`
	Price         float64     `json:"price"`
	LivingSpace   float64     `json:"livingSpace"`
	Baths         float64     `json:"baths"`
	MedianIncome  float64     `json:"medianIncome"`
	Density       float64     `json:"density"`
	Beds          int         `json:"beds"`
	Population    int         `json:"population"`
}

// EstimatedValue returns the most recent valuation, or 0 when the series is empty.
func (p *Property) EstimatedValue() float64 {
	latest := -1
	var value float64
	for _, v := range p.Valuations {
		if v.Year > latest {
			latest = v.Year
			value = v.Value
		}
	}
	return value
}

// ValuationFor returns the valuation for the given year.
func (p *Property) ValuationFor(year int) (float64, bool) {
	for _, v := range p.Valuations {
		if v.Year == year {
			return v.Value, true
		}
	}
	return 0, false
}

// WealthProxy is the scalar used for heatmap intensity: owner net worth when
// known, otherwise the estimated value, otherwise the listing price.
func (p *Property) WealthProxy() float64 {
	if p.OwnerNetWorth != nil {
		return *p.OwnerNetWorth
	}
	if v := p.EstimatedValue(); v > 0 {
		return v
	}
	return p.Price
}

// SortValuations orders the valuation series by year.
func (p *Property) SortValuations() {
	sort.Slice(p.Valuations, func(i, j int) bool {
		return p.Valuations[i].Year < p.Valuations[j].Year
	})
}

// PropertyQuery is the request shape of the property data client.
// Nil bounds are not sent.
type PropertyQuery struct {
	BBox     *BBox
	MinValue *float64
	MaxValue *float64
}
