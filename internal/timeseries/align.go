package timeseries

import (
	"sort"

	"wallet-analytics/internal/domain"
)

// Aligned is a set of series sampled on one shared timestamp grid.
type Aligned struct {
	Grid   []int64                         // ascending timestamps (ms)
	Series map[string][]domain.PricePoint // same length as Grid for every key
}

// Len returns the grid length.
func (a Aligned) Len() int {
	return len(a.Grid)
}

// Keys returns the series keys in sorted order.
func (a Aligned) Keys() []string {
	keys := make([]string, 0, len(a.Series))
	for k := range a.Series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Align samples every non-empty series onto a grid of step ms spanning the
// overlap of all series, using NearestPrice. Series are normalized first.
// Empty series are omitted. If the overlap is empty the grid is empty.
func Align(series map[string][]domain.PricePoint, step int64) Aligned {
	if step <= 0 {
		step = domain.MillisPerDay
	}

	normalized := make(map[string][]domain.PricePoint, len(series))
	var start, end int64
	first := true
	for key, s := range series {
		n := Normalize(s)
		if len(n) == 0 {
			continue
		}
		normalized[key] = n
		lo, hi := n[0].Timestamp, n[len(n)-1].Timestamp
		if first {
			start, end = lo, hi
			first = false
			continue
		}
		if lo > start {
			start = lo
		}
		if hi < end {
			end = hi
		}
	}

	result := Aligned{Series: make(map[string][]domain.PricePoint, len(normalized))}
	if first || start > end {
		for key := range normalized {
			result.Series[key] = []domain.PricePoint{}
		}
		return result
	}

	for ts := start; ts <= end; ts += step {
		result.Grid = append(result.Grid, ts)
	}
	// always sample the overlap end so the latest prices are included
	if last := result.Grid[len(result.Grid)-1]; last != end {
		result.Grid = append(result.Grid, end)
	}

	for key, s := range normalized {
		sampled := make([]domain.PricePoint, len(result.Grid))
		for i, ts := range result.Grid {
			p, _ := NearestPrice(s, ts)
			sampled[i] = domain.PricePoint{Timestamp: ts, Price: p.Price}
		}
		result.Series[key] = sampled
	}
	return result
}
