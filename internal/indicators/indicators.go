// Package indicators provides technical indicator calculations over an
// ascending price series (oldest first).
package indicators

import "wallet-analytics/internal/domain"

// Standard periods.
const (
	RSIPeriod        = 14
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
)

// SMA calculates the simple moving average of the last period prices.
// Returns 0 when fewer than period prices are available.
func SMA(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return 0
	}

	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period)
}

// EMASeries calculates the exponential moving average at every point,
// seeded with the first price.
func EMASeries(prices []float64, period int) []float64 {
	if len(prices) == 0 || period <= 0 {
		return nil
	}

	multiplier := 2.0 / float64(period+1)
	out := make([]float64, len(prices))
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = (prices[i]-out[i-1])*multiplier + out[i-1]
	}
	return out
}

// EMA returns the latest exponential moving average value.
func EMA(prices []float64, period int) float64 {
	series := EMASeries(prices, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// RSI calculates the Relative Strength Index from simple average gains and
// losses over the trailing period changes (fewer when the series is short).
func RSI(prices []float64, period int) float64 {
	if len(prices) < 2 || period <= 0 {
		return 50 // Neutral default
	}

	changes := len(prices) - 1
	if changes > period {
		changes = period
	}
	window := prices[len(prices)-changes-1:]

	var gains, losses float64
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(changes)
	avgLoss := losses / float64(changes)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACD calculates the MACD line, its signal line and histogram.
func MACD(prices []float64) domain.MACD {
	if len(prices) == 0 {
		return domain.MACD{Trend: domain.SignalHold}
	}

	fast := EMASeries(prices, MACDFastPeriod)
	slow := EMASeries(prices, MACDSlowPeriod)
	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = fast[i] - slow[i]
	}
	signal := EMASeries(line, MACDSignalPeriod)

	m := domain.MACD{
		Line:   line[len(line)-1],
		Signal: signal[len(signal)-1],
	}
	m.Histogram = m.Line - m.Signal

	switch {
	case m.Line > m.Signal && m.Histogram > 0:
		m.Trend = domain.SignalBuy
	case m.Line < m.Signal && m.Histogram < 0:
		m.Trend = domain.SignalSell
	default:
		m.Trend = domain.SignalHold
	}
	return m
}
