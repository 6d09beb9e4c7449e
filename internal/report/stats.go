// Package report turns a property selection into statistics, CSV and PDF.
package report

import (
	"math"
	"sort"

	"github.com/stwalsh4118/wealthmap/internal/models"
)

// Valuation trend range
const (
	TrendFromYear = 2018
	TrendToYear   = 2025
)

// Histogram bin limits
const (
	minBins = 1
	maxBins = 50
)

// TopCount is how many properties the top-price chart shows.
const TopCount = 5

// CountyStat aggregates one county of the selection.
type CountyStat struct {
	County    string  `json:"county"`
	Count     int     `json:"count"`
	MeanPrice float64 `json:"meanPrice"`
}

// Summary is the stats block of a report.
type Summary struct {
	Counties         []CountyStat `json:"counties"`
	Count            int          `json:"count"`
	MeanPrice        float64      `json:"meanPrice"`
	MeanBeds         float64      `json:"meanBeds"`
	MeanBaths        float64      `json:"meanBaths"`
	MeanLivingSpace  float64      `json:"meanLivingSpace"`
	MeanPricePerSqft float64      `json:"meanPricePerSqft"`
}

// Summarize computes the stats block. Price per square foot only averages
// properties with a positive living space.
func Summarize(props []models.Property) Summary {
	s := Summary{Count: len(props), Counties: []CountyStat{}}
	if len(props) == 0 {
		return s
	}

	var (
		price, beds, baths, space float64
		ppsf                      float64
		ppsfN                     int
	)
	type acc struct {
		count int
		total float64
	}
	counties := make(map[string]*acc)

	for i := range props {
		p := &props[i]
		price += p.Price
		beds += float64(p.Beds)
		baths += p.Baths
		space += p.LivingSpace
		if p.LivingSpace > 0 {
			ppsf += p.Price / p.LivingSpace
			ppsfN++
		}

		a, ok := counties[p.County]
		if !ok {
			a = &acc{}
			counties[p.County] = a
		}
		a.count++
		a.total += p.Price
	}

	n := float64(len(props))
	s.MeanPrice = price / n
	s.MeanBeds = beds / n
	s.MeanBaths = baths / n
	s.MeanLivingSpace = space / n
	if ppsfN > 0 {
		s.MeanPricePerSqft = ppsf / float64(ppsfN)
	}

	for name, a := range counties {
		s.Counties = append(s.Counties, CountyStat{
			County:    name,
			Count:     a.count,
			MeanPrice: a.total / float64(a.count),
		})
	}
	sort.Slice(s.Counties, func(i, j int) bool {
		if s.Counties[i].Count != s.Counties[j].Count {
			return s.Counties[i].Count > s.Counties[j].Count
		}
		return s.Counties[i].County < s.Counties[j].County
	})

	return s
}

// Bin is one histogram bucket covering [Lo, Hi); the last bin includes Hi.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// BinCount picks a bin count with the Freedman-Diaconis rule, falling back to
// Sturges when the interquartile range is zero. The result is clamped to 1..50.
func BinCount(values []float64) int {
	n := len(values)
	if n < 2 {
		return minBins
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	spread := sorted[n-1] - sorted[0]
	if spread == 0 {
		return minBins
	}

	bins := 0
	iqr := quantile(sorted, 0.75) - quantile(sorted, 0.25)
	if iqr > 0 {
		width := 2 * iqr / math.Cbrt(float64(n))
		bins = int(math.Ceil(spread / width))
	} else {
		bins = int(math.Ceil(math.Log2(float64(n)))) + 1
	}

	if bins < minBins {
		return minBins
	}
	if bins > maxBins {
		return maxBins
	}
	return bins
}

// quantile interpolates linearly between closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Histogram buckets values into BinCount equal-width bins.
func Histogram(values []float64) []Bin {
	if len(values) == 0 {
		return []Bin{}
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	n := BinCount(values)
	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lo = lo + float64(i)*width
		bins[i].Hi = lo + float64(i+1)*width
	}
	bins[n-1].Hi = hi

	for _, v := range values {
		i := n - 1
		if width > 0 {
			i = int((v - lo) / width)
			if i >= n {
				i = n - 1
			}
		}
		bins[i].Count++
	}
	return bins
}

// TrendPoint is the mean valuation of one year.
type TrendPoint struct {
	Year  int     `json:"year"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// ValuationTrend averages the available valuations per year over
// [TrendFromYear, TrendToYear]. Years without data are omitted.
func ValuationTrend(props []models.Property) []TrendPoint {
	points := []TrendPoint{}
	for year := TrendFromYear; year <= TrendToYear; year++ {
		var (
			total float64
			n     int
		)
		for i := range props {
			if v, ok := props[i].ValuationFor(year); ok {
				total += v
				n++
			}
		}
		if n > 0 {
			points = append(points, TrendPoint{Year: year, Mean: total / float64(n), Count: n})
		}
	}
	return points
}

// TopByPrice returns up to n properties, most expensive first. Ties keep input order.
func TopByPrice(props []models.Property, n int) []models.Property {
	sorted := append([]models.Property(nil), props...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price > sorted[j].Price
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func prices(props []models.Property) []float64 {
	out := make([]float64, 0, len(props))
	for i := range props {
		out = append(out, props[i].Price)
	}
	return out
}
