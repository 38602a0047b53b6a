package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-analytics/internal/domain"
)

func rising(n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	return prices
}

func falling(n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = 200 - float64(i)
	}
	return prices
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   float64
	}{
		{"strictly rising 14 points", rising(14), 100},
		{"single point", []float64{10}, 50},
		{"empty", nil, 50},
		{"alternating", []float64{10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10}, 50},
		{"strictly falling", falling(20), 0},
		{"short window clipped", []float64{10, 12, 11}, 100 - 100/(1+2.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RSI(tt.prices, RSIPeriod), 1e-9)
		})
	}
}

func TestSMA(t *testing.T) {
	assert.Equal(t, 0.0, SMA([]float64{1, 2}, 3), "insufficient data")
	assert.InDelta(t, 4.0, SMA([]float64{1, 2, 3, 4, 5}, 3), 1e-12)
	assert.Equal(t, 0.0, SMA([]float64{1, 2, 3}, 0))
}

func TestEMA_SeededWithFirstPrice(t *testing.T) {
	series := EMASeries([]float64{10, 20, 20}, 3)
	require.Len(t, series, 3)
	assert.Equal(t, 10.0, series[0])
	assert.InDelta(t, 15.0, series[1], 1e-12)
	assert.InDelta(t, 17.5, series[2], 1e-12)
	assert.InDelta(t, 17.5, EMA([]float64{10, 20, 20}, 3), 1e-12)
	assert.Equal(t, 0.0, EMA(nil, 3))
}

func TestMACD(t *testing.T) {
	t.Run("uptrend is buy", func(t *testing.T) {
		m := MACD(rising(40))
		assert.Greater(t, m.Line, m.Signal)
		assert.Greater(t, m.Histogram, 0.0)
		assert.Equal(t, domain.SignalBuy, m.Trend)
	})
	t.Run("downtrend is sell", func(t *testing.T) {
		m := MACD(falling(40))
		assert.Less(t, m.Histogram, 0.0)
		assert.Equal(t, domain.SignalSell, m.Trend)
	})
	t.Run("flat is hold", func(t *testing.T) {
		m := MACD([]float64{5, 5, 5, 5})
		assert.Equal(t, 0.0, m.Line)
		assert.Equal(t, domain.SignalHold, m.Trend)
	})
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, domain.SignalHold, MACD(nil).Trend)
	})
}

func series(prices []float64) []domain.PricePoint {
	out := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = domain.PricePoint{Timestamp: int64(i) * domain.MillisPerDay, Price: p}
	}
	return out
}

func TestCompute(t *testing.T) {
	points := series(rising(30))
	points[0], points[29] = points[29], points[0]

	ti := Compute("SOL", points)

	assert.Equal(t, "SOL", ti.Asset)
	assert.Equal(t, 129.0, ti.CurrentPrice)
	assert.Equal(t, 100.0, ti.RSI)
	assert.InDelta(t, 119.5, ti.SMA20, 1e-9)
	assert.Equal(t, 0.0, ti.SMA50)
	assert.InDelta(t, 29.0, ti.ChangePct, 1e-9)
}

func TestPredict_Uptrend(t *testing.T) {
	ti, p := Analyze("SOL", series(rising(30)))

	assert.Equal(t, ti.CurrentPrice, p.CurrentPrice)
	assert.Equal(t, domain.SignalBuy, p.Direction)
	assert.InDelta(t, ti.CurrentPrice*0.98*1.015*1.01, p.PredictedPrice, 1e-9)
	assert.InDelta(t, 0.8, p.Confidence, 1e-12)
	assert.ElementsMatch(t, []string{"rsi_overbought", "macd_bullish", "above_sma20"}, p.Signals)
}

func TestPredict_ConfidenceCapped(t *testing.T) {
	ti := domain.TechnicalIndicators{
		CurrentPrice: 90,
		RSI:          20,
		MACD:         domain.MACD{Trend: domain.SignalBuy},
		SMA20:        80,
	}
	p := Predict(ti, 50)
	assert.Equal(t, domain.SignalBuy, p.Direction)
	assert.LessOrEqual(t, p.Confidence, 0.95)
	assert.InDelta(t, 0.95, p.Confidence, 1e-12)
}

func TestPredict_InsufficientData(t *testing.T) {
	_, p := Analyze("BONK", series([]float64{0.00002}))
	assert.Equal(t, 0.0, p.Confidence)
	assert.Equal(t, p.CurrentPrice, p.PredictedPrice)
	assert.Equal(t, domain.SignalHold, p.Direction)

	_, p = Analyze("BONK", nil)
	assert.Equal(t, 0.0, p.CurrentPrice)
	assert.Empty(t, p.Signals)
}
