package models

// FilterSet is the set of optional constraints applied to the property map.
// A nil bound imposes no constraint; an empty Location matches everything.
type FilterSet struct {
	MinPrice  *float64 `json:"minPrice,omitempty"`
	MaxPrice  *float64 `json:"maxPrice,omitempty"`
	MinSize   *float64 `json:"minSize,omitempty"`
	MaxSize   *float64 `json:"maxSize,omitempty"`
	MinBeds   *float64 `json:"minBeds,omitempty"`
	MaxBeds   *float64 `json:"maxBeds,omitempty"`
	MinBaths  *float64 `json:"minBaths,omitempty"`
	MaxBaths  *float64 `json:"maxBaths,omitempty"`
	MinValue  *float64 `json:"minValue,omitempty"`
	MaxValue  *float64 `json:"maxValue,omitempty"`
	MinIncome *float64 `json:"minIncome,omitempty"`
	MaxIncome *float64 `json:"maxIncome,omitempty"`
	Location  string   `json:"location,omitempty"`
}

// Float returns a pointer to v, for building filter bounds inline.
func Float(v float64) *float64 {
	return &v
}

// Clone returns a deep copy so callers can't alias another set's bounds.
func (f FilterSet) Clone() FilterSet {
	out := f
	for _, b := range []struct {
		dst **float64
		src *float64
	}{
		{&out.MinPrice, f.MinPrice}, {&out.MaxPrice, f.MaxPrice},
		{&out.MinSize, f.MinSize}, {&out.MaxSize, f.MaxSize},
		{&out.MinBeds, f.MinBeds}, {&out.MaxBeds, f.MaxBeds},
		{&out.MinBaths, f.MinBaths}, {&out.MaxBaths, f.MaxBaths},
		{&out.MinValue, f.MinValue}, {&out.MaxValue, f.MaxValue},
		{&out.MinIncome, f.MinIncome}, {&out.MaxIncome, f.MaxIncome},
	} {
		if b.src != nil {
			v := *b.src
			*b.dst = &v
		}
	}
	return out
}

// IsEmpty reports whether no constraint is set.
func (f FilterSet) IsEmpty() bool {
	return f.MinPrice == nil && f.MaxPrice == nil &&
		f.MinSize == nil && f.MaxSize == nil &&
		f.MinBeds == nil && f.MaxBeds == nil &&
		f.MinBaths == nil && f.MaxBaths == nil &&
		f.MinValue == nil && f.MaxValue == nil &&
		f.MinIncome == nil && f.MaxIncome == nil &&
		f.Location == ""
}
