package timeseries

import (
	"math"
	"sort"

	"wallet-analytics/internal/domain"
)

// Normalize returns a sorted copy of the series with unusable points removed:
// non-positive or non-finite prices are dropped and, for duplicate
// timestamps, the last occurrence in input order wins.
func Normalize(series []domain.PricePoint) []domain.PricePoint {
	out := make([]domain.PricePoint, 0, len(series))
	for _, p := range series {
		if p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})

	deduped := out[:0]
	for i, p := range out {
		if i+1 < len(out) && out[i+1].Timestamp == p.Timestamp {
			continue
		}
		deduped = append(deduped, p)
	}
	return deduped
}

// Prices extracts the price column.
func Prices(series []domain.PricePoint) []float64 {
	out := make([]float64, len(series))
	for i, p := range series {
		out[i] = p.Price
	}
	return out
}

// Returns computes simple periodic returns r_i = (p_i - p_{i-1}) / p_{i-1}.
// Fewer than two prices yields an empty slice. A zero previous price yields a 0 return.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev == 0 {
			continue
		}
		out[i-1] = (prices[i] - prev) / prev
	}
	return out
}

// SeriesReturns is Returns over a point series.
func SeriesReturns(series []domain.PricePoint) []float64 {
	return Returns(Prices(series))
}

// NearestPrice finds the point with minimum absolute time distance to ts.
// The first minimum encountered wins. ok is false for an empty series.
func NearestPrice(series []domain.PricePoint, ts int64) (domain.PricePoint, bool) {
	if len(series) == 0 {
		return domain.PricePoint{}, false
	}
	best := series[0]
	bestDist := absDiff(series[0].Timestamp, ts)
	for _, p := range series[1:] {
		if d := absDiff(p.Timestamp, ts); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, true
}

// ChangePct returns the percentage change from the price nearest to ts to the
// latest price. 0 when the series is empty or the reference price is zero.
func ChangePct(series []domain.PricePoint, ts int64) float64 {
	if len(series) == 0 {
		return 0
	}
	ref, _ := NearestPrice(series, ts)
	if ref.Price == 0 {
		return 0
	}
	last := series[len(series)-1].Price
	return (last - ref.Price) / ref.Price * 100
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
