package orchestrator

import (
	"time"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/timeseries"
)

// Performance compares each holding's current price with the price nearest
// to one period before now. The current price is the holding's unit price,
// or the last series point when the holding is unpriced.
func Performance(holdings []domain.Holding, prices map[string][]domain.PricePoint, period domain.Period, now time.Time) domain.Performance {
	perf := domain.Performance{Period: period, Assets: []domain.AssetPerformance{}}
	target := now.Add(-period.Duration()).UnixMilli()

	for _, h := range holdings {
		series := timeseries.Normalize(prices[h.Key()])
		then, ok := timeseries.NearestPrice(series, target)
		if !ok || then.Price <= 0 {
			continue
		}
		current := h.UnitPrice
		if current <= 0 {
			current = series[len(series)-1].Price
		}

		perf.Assets = append(perf.Assets, domain.AssetPerformance{
			Asset:     h.Asset,
			Symbol:    h.Symbol,
			PriceThen: then.Price,
			PriceNow:  current,
			ChangePct: (current - then.Price) / then.Price * 100,
		})
		perf.ValueThen += h.Quantity * then.Price
		perf.ValueNow += h.Quantity * current
	}

	if perf.ValueThen > 0 {
		perf.ChangePct = (perf.ValueNow - perf.ValueThen) / perf.ValueThen * 100
	}
	return perf
}
