package indicators

import (
	"math"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/timeseries"
)

// Prediction nudges and confidence shaping. The projection is illustrative.
const (
	rsiOversold     = 30.0
	rsiOverbought   = 70.0
	rsiNudge        = 0.02
	macdNudge       = 0.015
	smaNudge        = 0.01
	baseConfidence  = 0.5
	confidenceStep  = 0.15
	maxConfidence   = 0.95
	minPredictInput = 2
)

// Compute derives the indicator set for one asset. The series may be unsorted.
func Compute(asset string, series []domain.PricePoint) domain.TechnicalIndicators {
	normalized := timeseries.Normalize(series)
	prices := timeseries.Prices(normalized)

	ti := domain.TechnicalIndicators{
		Asset: asset,
		RSI:   RSI(prices, RSIPeriod),
		MACD:  MACD(prices),
		SMA20: SMA(prices, 20),
		SMA50: SMA(prices, 50),
		EMA12: EMA(prices, MACDFastPeriod),
		EMA26: EMA(prices, MACDSlowPeriod),
	}
	if len(prices) > 0 {
		ti.CurrentPrice = prices[len(prices)-1]
		ti.ChangePct = timeseries.ChangePct(normalized, normalized[0].Timestamp)
	}
	return ti
}

// Predict projects the next price from RSI extremes, MACD trend and the
// price position relative to SMA20.
func Predict(ti domain.TechnicalIndicators, points int) domain.Prediction {
	p := domain.Prediction{
		Asset:          ti.Asset,
		CurrentPrice:   ti.CurrentPrice,
		PredictedPrice: ti.CurrentPrice,
		Direction:      domain.SignalHold,
		Signals:        []string{},
	}
	if points < minPredictInput || ti.CurrentPrice <= 0 {
		return p
	}

	multiplier := 1.0
	var bullish, bearish int

	switch {
	case ti.RSI < rsiOversold:
		multiplier *= 1 + rsiNudge
		bullish++
		p.Signals = append(p.Signals, "rsi_oversold")
	case ti.RSI > rsiOverbought:
		multiplier *= 1 - rsiNudge
		bearish++
		p.Signals = append(p.Signals, "rsi_overbought")
	}

	switch ti.MACD.Trend {
	case domain.SignalBuy:
		multiplier *= 1 + macdNudge
		bullish++
		p.Signals = append(p.Signals, "macd_bullish")
	case domain.SignalSell:
		multiplier *= 1 - macdNudge
		bearish++
		p.Signals = append(p.Signals, "macd_bearish")
	}

	if ti.SMA20 > 0 {
		switch {
		case ti.CurrentPrice > ti.SMA20:
			multiplier *= 1 + smaNudge
			bullish++
			p.Signals = append(p.Signals, "above_sma20")
		case ti.CurrentPrice < ti.SMA20:
			multiplier *= 1 - smaNudge
			bearish++
			p.Signals = append(p.Signals, "below_sma20")
		}
	}

	p.PredictedPrice = ti.CurrentPrice * multiplier

	agreeing := 0
	switch {
	case p.PredictedPrice > ti.CurrentPrice:
		p.Direction = domain.SignalBuy
		agreeing = bullish
	case p.PredictedPrice < ti.CurrentPrice:
		p.Direction = domain.SignalSell
		agreeing = bearish
	}
	p.Confidence = math.Min(maxConfidence, baseConfidence+confidenceStep*float64(agreeing))
	return p
}

// Analyze computes indicators and the prediction for one asset.
func Analyze(asset string, series []domain.PricePoint) (domain.TechnicalIndicators, domain.Prediction) {
	ti := Compute(asset, series)
	return ti, Predict(ti, len(timeseries.Normalize(series)))
}
