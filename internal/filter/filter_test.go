package filter

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/wealthmap/internal/models"
)

func sampleProperties() []models.Property {
	return []models.Property{
		{ID: "1", Address: "101 Lakeshore Dr", County: "Travis", Region: "Central Texas", Zip: "78703",
			Price: 1200000, LivingSpace: 2400, Beds: 3, Baths: 2.5, MedianIncome: 110000,
			Valuations: []models.Valuation{{Year: 2024, Value: 1250000}}},
		{ID: "2", Address: "22 Ridge Rd", County: "Travis", Region: "Central Texas", Zip: "78746",
			Price: 2500000, LivingSpace: 4100, Beds: 5, Baths: 4, MedianIncome: 180000,
			Valuations: []models.Valuation{{Year: 2024, Value: 2600000}}},
		{ID: "3", Address: "3 Elm St", County: "Williamson", Region: "Central Texas", Zip: "78626",
			Price: 950000, LivingSpace: 2100, Beds: 3, Baths: 2, MedianIncome: 95000},
		{ID: "4", Address: "44 Bluff View", County: "Harris", Region: "Gulf Coast", Zip: "77005",
			Price: 4500000, LivingSpace: 6200, Beds: 6, Baths: 6, MedianIncome: 250000},
		{ID: "5", Address: "500 Preston Rd", County: "Dallas", Region: "North Texas", Zip: "75205",
			Price: 3200000, LivingSpace: 5000, Beds: 5, Baths: 5, MedianIncome: 210000},
	}
}

func ids(props []models.Property) []string {
	out := make([]string, 0, len(props))
	for _, p := range props {
		out = append(out, p.ID)
	}
	return out
}

func TestMatches_EmptyFilterSetMatchesEverything(t *testing.T) {
	props := sampleProperties()
	props = append(props, models.Property{ID: "zero"})

	for i := range props {
		assert.True(t, Matches(&props[i], models.FilterSet{}), "property %s should match", props[i].ID)
	}
}

func TestFilter_PriceRangeScenario(t *testing.T) {
	fs := models.FilterSet{MinPrice: models.Float(1000000), MaxPrice: models.Float(2000000)}

	got := Filter(sampleProperties(), fs)

	require.Len(t, got, 1)
	assert.Equal(t, 1200000.0, got[0].Price)
}

func TestMatches_PriceBounds(t *testing.T) {
	p := models.Property{Price: 500000}

	tests := []struct {
		name string
		min  *float64
		max  *float64
		want bool
	}{
		{"min only, below", models.Float(600000), nil, false},
		{"min only, equal", models.Float(500000), nil, true},
		{"max only, above", nil, models.Float(400000), false},
		{"max only, equal", nil, models.Float(500000), true},
		{"both inclusive", models.Float(500000), models.Float(500000), true},
		{"both, inside", models.Float(100000), models.Float(900000), true},
		{"both, outside", models.Float(600000), models.Float(900000), false},
		{"inverted range matches nothing", models.Float(900000), models.Float(100000), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := models.FilterSet{MinPrice: tt.min, MaxPrice: tt.max}
			assert.Equal(t, tt.want, Matches(&p, fs))
		})
	}
}

func TestMatches_OtherNumericFields(t *testing.T) {
	props := sampleProperties()

	assert.Equal(t, []string{"2", "4", "5"}, ids(Filter(props, models.FilterSet{MinBeds: models.Float(5)})))
	assert.Equal(t, []string{"1", "3"}, ids(Filter(props, models.FilterSet{MaxSize: models.Float(2400)})))
	assert.Equal(t, []string{"4", "5"}, ids(Filter(props, models.FilterSet{MinBaths: models.Float(5)})))
	assert.Equal(t, []string{"2"}, ids(Filter(props, models.FilterSet{MinValue: models.Float(2000000)})))
	assert.Equal(t, []string{"1", "3"}, ids(Filter(props, models.FilterSet{MaxIncome: models.Float(120000)})))
}

func TestMatches_LocationIsCaseInsensitiveSubstring(t *testing.T) {
	props := sampleProperties()

	assert.Equal(t, []string{"1", "2"}, ids(Filter(props, models.FilterSet{Location: "TRAVIS"})))
	assert.Equal(t, []string{"4"}, ids(Filter(props, models.FilterSet{Location: "gulf"})))
	assert.Equal(t, []string{"5"}, ids(Filter(props, models.FilterSet{Location: "75205"})))
	assert.Equal(t, []string{"3"}, ids(Filter(props, models.FilterSet{Location: "elm st"})))
	assert.Empty(t, Filter(props, models.FilterSet{Location: "nowhere"}))
}

func TestMatches_CombinedConstraints(t *testing.T) {
	fs := models.FilterSet{
		Location: "central",
		MinBeds:  models.Float(3),
		MaxPrice: models.Float(1500000),
	}

	assert.Equal(t, []string{"1", "3"}, ids(Filter(sampleProperties(), fs)))
}

func TestFilter_NeverReturnsNil(t *testing.T) {
	got := Filter(nil, models.FilterSet{})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestValidate(t *testing.T) {
	t.Run("empty set is valid", func(t *testing.T) {
		assert.NoError(t, Validate(models.FilterSet{}))
	})

	t.Run("single bounds are valid", func(t *testing.T) {
		assert.NoError(t, Validate(models.FilterSet{MinPrice: models.Float(1)}))
		assert.NoError(t, Validate(models.FilterSet{MaxIncome: models.Float(1)}))
	})

	t.Run("equal bounds are valid", func(t *testing.T) {
		assert.NoError(t, Validate(models.FilterSet{MinBeds: models.Float(3), MaxBeds: models.Float(3)}))
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		err := Validate(models.FilterSet{MinSize: models.Float(3000), MaxSize: models.Float(1000)})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvertedRange))
		assert.Equal(t, "size", FieldOf(err))
		assert.Equal(t, "size", FieldOf(fmt.Errorf("apply filters: %w", err)), "field survives wrapping")
	})

	t.Run("NaN is rejected", func(t *testing.T) {
		err := Validate(models.FilterSet{MaxPrice: models.Float(math.NaN())})
		assert.ErrorIs(t, err, ErrNonFiniteBound)
		assert.Equal(t, "price", FieldOf(err))
	})

	t.Run("infinity is rejected", func(t *testing.T) {
		err := Validate(models.FilterSet{MinIncome: models.Float(math.Inf(1))})
		assert.ErrorIs(t, err, ErrNonFiniteBound)
	})
}

func TestModel_ApplyReplacesWholesale(t *testing.T) {
	m := NewModel()
	assert.True(t, m.Active().IsEmpty())

	m.Apply(models.FilterSet{MinPrice: models.Float(1), Location: "travis"})
	m.Apply(models.FilterSet{MaxBeds: models.Float(4)})

	active := m.Active()
	assert.Nil(t, active.MinPrice, "previous bounds must not survive Apply")
	assert.Empty(t, active.Location)
	require.NotNil(t, active.MaxBeds)
	assert.Equal(t, 4.0, *active.MaxBeds)
}

func TestModel_ActiveIsACopy(t *testing.T) {
	m := NewModel()
	fs := models.FilterSet{MinPrice: models.Float(10)}
	m.Apply(fs)

	*fs.MinPrice = 999
	got := m.Active()
	*got.MinPrice = 555

	assert.Equal(t, 10.0, *m.Active().MinPrice)
}

func TestModel_Matches(t *testing.T) {
	m := NewModel()
	m.Apply(models.FilterSet{MinPrice: models.Float(3000000)})

	props := sampleProperties()
	assert.False(t, m.Matches(&props[0]))
	assert.True(t, m.Matches(&props[3]))
}
