// Package advisor turns risk metrics into rule-based rebalancing suggestions.
// It evaluates fixed rules; it does not optimize.
package advisor

import (
	"fmt"
	"sort"

	"wallet-analytics/internal/domain"
)

// Options holds the rule thresholds.
type Options struct {
	ConcentrationThreshold float64 // percent of total value
	MinAssets              int     // below this the portfolio is under-diversified
	ThinPositionFloor      float64 // percent; thin positions are raised to it
	ConservativeVolatility float64 // annualized volatility ceiling for conservative profiles
	AggressiveVolatility   float64 // annualized volatility floor for aggressive profiles
	AllocationShift        float64 // fraction of total value moved by profile suggestions
	CostRate               float64 // flat cost per unit of traded volume
	StableAsset            string
	GrowthAsset            string
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		ConcentrationThreshold: 30,
		MinAssets:              5,
		ThinPositionFloor:      10,
		ConservativeVolatility: 0.5,
		AggressiveVolatility:   0.3,
		AllocationShift:        0.1,
		CostRate:               0.005,
		StableAsset:            "USDC",
		GrowthAsset:            domain.NativeAsset,
	}
}

// Advisor evaluates the rebalancing rules.
type Advisor struct {
	opts Options
}

// New creates an advisor.
func New(opts Options) *Advisor {
	return &Advisor{opts: opts}
}

type position struct {
	key   string
	value float64
}

// Plan evaluates all rules for the holdings and their risk metrics.
func (a *Advisor) Plan(holdings []domain.Holding, metrics *domain.RiskMetrics, tolerance domain.RiskTolerance) domain.RebalancePlan {
	plan := domain.RebalancePlan{Tolerance: tolerance, Recommendations: []domain.Recommendation{}}

	positions, total := aggregate(holdings)
	if total > 0 {
		plan.Recommendations = append(plan.Recommendations, a.concentration(positions, total)...)
		plan.Recommendations = append(plan.Recommendations, a.thinPositions(positions, total)...)
		if metrics != nil {
			if r, ok := a.profile(tolerance, metrics.Volatility, total); ok {
				plan.Recommendations = append(plan.Recommendations, r)
			}
		}
	}

	if len(plan.Recommendations) == 0 {
		plan.Recommendations = append(plan.Recommendations, domain.Recommendation{
			Action:    domain.ActionHold,
			Rationale: "Portfolio is within target allocation ranges",
			Priority:  domain.PriorityLow,
		})
	}

	sort.SliceStable(plan.Recommendations, func(i, j int) bool {
		return plan.Recommendations[i].Priority.Rank() < plan.Recommendations[j].Priority.Rank()
	})

	for _, r := range plan.Recommendations {
		plan.TotalVolumeUSD += r.AmountUSD
	}
	plan.EstimatedCostUSD = plan.TotalVolumeUSD * a.opts.CostRate
	return plan
}

func (a *Advisor) concentration(positions []position, total float64) []domain.Recommendation {
	var out []domain.Recommendation
	for _, p := range positions {
		weight := p.value / total * 100
		if weight <= a.opts.ConcentrationThreshold {
			continue
		}
		priority := domain.PriorityMedium
		if weight >= 2*a.opts.ConcentrationThreshold {
			priority = domain.PriorityHigh
		}
		out = append(out, domain.Recommendation{
			Action:    domain.ActionSell,
			Asset:     p.key,
			AmountUSD: p.value - a.opts.ConcentrationThreshold/100*total,
			Rationale: fmt.Sprintf("%s is %.1f%% of the portfolio, above the %.0f%% concentration limit",
				p.key, weight, a.opts.ConcentrationThreshold),
			Priority: priority,
		})
	}
	return out
}

func (a *Advisor) thinPositions(positions []position, total float64) []domain.Recommendation {
	if len(positions) >= a.opts.MinAssets {
		return nil
	}
	var out []domain.Recommendation
	for _, p := range positions {
		weight := p.value / total * 100
		if weight >= a.opts.ThinPositionFloor {
			continue
		}
		out = append(out, domain.Recommendation{
			Action:    domain.ActionBuy,
			Asset:     p.key,
			AmountUSD: a.opts.ThinPositionFloor/100*total - p.value,
			Rationale: fmt.Sprintf("Only %d assets held; raise %s from %.1f%% to %.0f%%",
				len(positions), p.key, weight, a.opts.ThinPositionFloor),
			Priority: domain.PriorityMedium,
		})
	}
	return out
}

func (a *Advisor) profile(tolerance domain.RiskTolerance, volatility, total float64) (domain.Recommendation, bool) {
	switch {
	case tolerance == domain.ToleranceConservative && volatility > a.opts.ConservativeVolatility:
		return domain.Recommendation{
			Action:    domain.ActionBuy,
			Asset:     a.opts.StableAsset,
			AmountUSD: total * a.opts.AllocationShift,
			Rationale: fmt.Sprintf("Volatility %.2f exceeds %.2f for a conservative profile; add %s",
				volatility, a.opts.ConservativeVolatility, a.opts.StableAsset),
			Priority: domain.PriorityHigh,
		}, true
	case tolerance == domain.ToleranceAggressive && volatility < a.opts.AggressiveVolatility:
		return domain.Recommendation{
			Action:    domain.ActionBuy,
			Asset:     a.opts.GrowthAsset,
			AmountUSD: total * a.opts.AllocationShift,
			Rationale: fmt.Sprintf("Volatility %.2f is below %.2f for an aggressive profile; add %s",
				volatility, a.opts.AggressiveVolatility, a.opts.GrowthAsset),
			Priority: domain.PriorityLow,
		}, true
	}
	return domain.Recommendation{}, false
}

// aggregate merges holdings by key, keeping first-seen order.
func aggregate(holdings []domain.Holding) ([]position, float64) {
	index := make(map[string]int)
	var out []position
	var total float64
	for _, h := range holdings {
		if h.ValueUSD <= 0 {
			continue
		}
		total += h.ValueUSD
		k := h.Key()
		if i, ok := index[k]; ok {
			out[i].value += h.ValueUSD
			continue
		}
		index[k] = len(out)
		out = append(out, position{key: k, value: h.ValueUSD})
	}
	return out, total
}
