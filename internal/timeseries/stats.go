// Package timeseries provides pure functions over price and return series.
// Nothing here performs I/O or returns errors: insufficient input yields a
// neutral value (empty slice or 0).
package timeseries

import "math"

// Mean returns the arithmetic mean, 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the population variance (divides by N).
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// Covariance returns the population covariance of two equal-length series.
// Mismatched or empty input yields 0.
func Covariance(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	meanA, meanB := Mean(a), Mean(b)
	var sum float64
	for i := range a {
		sum += (a[i] - meanA) * (b[i] - meanB)
	}
	return sum / float64(len(a))
}

// Correlation returns the Pearson correlation of two equal-length series.
// Returns 0 when either series is flat.
func Correlation(a, b []float64) float64 {
	sa, sb := StdDev(a), StdDev(b)
	if sa == 0 || sb == 0 {
		return 0
	}
	c := Covariance(a, b) / (sa * sb)
	// clamp float drift
	if c > 1 {
		return 1
	}
	if c < -1 {
		return -1
	}
	return c
}

// WeightedAverage divides the weighted sum by the weight sum.
// Weights need not sum to 1; a zero weight sum yields 0.
func WeightedAverage(values, weights []float64) float64 {
	n := len(values)
	if len(weights) < n {
		n = len(weights)
	}
	var num, den float64
	for i := 0; i < n; i++ {
		num += values[i] * weights[i]
		den += weights[i]
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// MaxDrawdown walks a value series tracking the running peak and returns the
// largest (peak-value)/peak observed, as a percentage.
func MaxDrawdown(values []float64) float64 {
	var peak, maxDD float64
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - v) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD * 100
}
