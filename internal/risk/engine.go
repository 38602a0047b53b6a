// Package risk computes portfolio risk metrics from holdings and price history.
//
// Every metric degrades to a neutral default when it cannot be computed
// (0, or 1 for beta), so Compute always returns a complete result.
package risk

import (
	"math"
	"sort"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/timeseries"
)

// Default configuration values.
const (
	DefaultRiskFreeRate      = 0.02
	DefaultConfidence        = 0.95
	DefaultAnnualizationDays = 365
)

// zScores are one-sided normal quantiles for supported VaR confidences.
var zScores = map[float64]float64{
	0.90: 1.282,
	0.95: 1.645,
	0.99: 2.326,
}

// ZScore returns the normal quantile for a VaR confidence level.
func ZScore(confidence float64) (float64, bool) {
	z, ok := zScores[confidence]
	return z, ok
}

// Config configures the engine.
type Config struct {
	RiskFreeRate      float64 // annual, e.g. 0.02
	Confidence        float64 // VaR confidence, one of 0.90, 0.95, 0.99
	AnnualizationDays int     // periods per year of the aligned grid
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		RiskFreeRate:      DefaultRiskFreeRate,
		Confidence:        DefaultConfidence,
		AnnualizationDays: DefaultAnnualizationDays,
	}
}

// Input is one cycle's data. Prices and Reference may be gappy or unsorted.
type Input struct {
	Holdings  []domain.Holding
	Prices    map[string][]domain.PricePoint // keyed by Holding.Key()
	Reference []domain.PricePoint            // reference asset for beta
}

// Engine computes RiskMetrics.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine. Zero config fields fall back to defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.AnnualizationDays <= 0 {
		cfg.AnnualizationDays = DefaultAnnualizationDays
	}
	if _, ok := ZScore(cfg.Confidence); !ok {
		cfg.Confidence = DefaultConfidence
	}
	return &Engine{cfg: cfg}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute derives all risk metrics for the input.
func (e *Engine) Compute(in Input) *domain.RiskMetrics {
	positions := aggregate(in.Holdings)
	total := 0.0
	for _, p := range positions {
		total += p.value
	}

	m := &domain.RiskMetrics{
		TotalValueUSD:    total,
		VaRConfidence:    e.cfg.Confidence,
		Beta:             1,
		SectorAllocation: SectorAllocation(in.Holdings),
		Correlation:      domain.CorrelationMatrix{Assets: []string{}, Values: [][]float64{}},
		RiskScore:        domain.RiskLow,
	}
	if total <= 0 {
		return m
	}

	weights := make(map[string]float64, len(positions))
	for _, p := range positions {
		weights[p.key] = p.value / total
	}
	m.DiversificationScore = Diversification(weightList(positions, weights))
	m.ConcentrationRisk = Concentration(weightList(positions, weights))

	withData := make(map[string][]domain.PricePoint)
	for _, p := range positions {
		if s := in.Prices[p.key]; len(s) > 0 {
			withData[p.key] = s
		}
	}
	aligned := timeseries.Align(withData, domain.MillisPerDay)

	returns := make(map[string][]float64, len(aligned.Series))
	for key, s := range aligned.Series {
		returns[key] = timeseries.SeriesReturns(s)
	}

	m.Correlation = CorrelationMatrix(keys(positions), returns)

	dailyVar := PortfolioVariance(weights, returns)
	annFactor := math.Sqrt(float64(e.cfg.AnnualizationDays))
	m.Volatility = math.Sqrt(dailyVar) * annFactor

	z, _ := ZScore(e.cfg.Confidence)
	m.VaR = total * m.Volatility * z

	values := valueSeries(positions, aligned)
	m.MaxDrawdown = timeseries.MaxDrawdown(values)

	portReturns := timeseries.Returns(values)
	annReturn := timeseries.Mean(portReturns) * float64(e.cfg.AnnualizationDays)
	m.SharpeRatio = Sharpe(annReturn, e.cfg.RiskFreeRate, m.Volatility)

	refReturns := timeseries.SeriesReturns(sampleOnto(in.Reference, aligned.Grid))
	m.Beta = Beta(portReturns, refReturns)

	m.RiskScore = Score(m.Volatility, m.ConcentrationRisk, m.DiversificationScore)
	return m
}

// PortfolioVariance is the full double sum Σ_i Σ_j w_i w_j cov(i,j) over the
// assets that have return data. Assets without data contribute nothing.
func PortfolioVariance(weights map[string]float64, returns map[string][]float64) float64 {
	assets := make([]string, 0, len(returns))
	for k, r := range returns {
		if len(r) > 0 {
			assets = append(assets, k)
		}
	}
	sort.Strings(assets)

	var v float64
	for _, i := range assets {
		for _, j := range assets {
			v += weights[i] * weights[j] * timeseries.Covariance(returns[i], returns[j])
		}
	}
	if v < 0 {
		return 0
	}
	return v
}

// Sharpe returns (annualReturn - riskFree) / volatility, 0 when volatility is 0.
func Sharpe(annualReturn, riskFree, volatility float64) float64 {
	if volatility == 0 || math.IsNaN(volatility) {
		return 0
	}
	return (annualReturn - riskFree) / volatility
}

// Beta returns cov(portfolio, reference) / var(reference), or 1 when the
// reference is too short, mismatched, or flat.
func Beta(portfolio, reference []float64) float64 {
	if len(reference) < 2 || len(portfolio) != len(reference) {
		return 1
	}
	v := timeseries.Variance(reference)
	if v == 0 {
		return 1
	}
	return timeseries.Covariance(portfolio, reference) / v
}

// Diversification returns max(0, 100 - HHI*100) with HHI = Σ w².
func Diversification(weights []float64) float64 {
	if len(weights) == 0 {
		return 0
	}
	var hhi float64
	for _, w := range weights {
		hhi += w * w
	}
	return math.Max(0, 100-hhi*100)
}

// Concentration returns the largest weight as a percentage.
func Concentration(weights []float64) float64 {
	var largest float64
	for _, w := range weights {
		if w > largest {
			largest = w
		}
	}
	return largest * 100
}

// CorrelationMatrix builds a symmetric matrix over assets with a unit
// diagonal. Pairs lacking data correlate at 0.
func CorrelationMatrix(assets []string, returns map[string][]float64) domain.CorrelationMatrix {
	n := len(assets)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		values[i][i] = 1
		for j := i + 1; j < n; j++ {
			c := timeseries.Correlation(returns[assets[i]], returns[assets[j]])
			values[i][j] = c
			values[j][i] = c
		}
	}
	return domain.CorrelationMatrix{Assets: append([]string(nil), assets...), Values: values}
}

// Score applies the tiered risk rule.
func Score(volatility, concentration, diversification float64) domain.RiskLevel {
	switch {
	case volatility < 0.3 && concentration < 30 && diversification > 70:
		return domain.RiskLow
	case volatility >= 0.8 || concentration >= 60 || diversification < 30:
		return domain.RiskHigh
	default:
		return domain.RiskMedium
	}
}

type position struct {
	key      string
	quantity float64
	value    float64
}

// aggregate merges holdings sharing a key, keeping first-seen order.
func aggregate(holdings []domain.Holding) []position {
	index := make(map[string]int)
	var out []position
	for _, h := range holdings {
		if h.ValueUSD <= 0 {
			continue
		}
		k := h.Key()
		if i, ok := index[k]; ok {
			out[i].quantity += h.Quantity
			out[i].value += h.ValueUSD
			continue
		}
		index[k] = len(out)
		out = append(out, position{key: k, quantity: h.Quantity, value: h.ValueUSD})
	}
	return out
}

func keys(positions []position) []string {
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = p.key
	}
	return out
}

func weightList(positions []position, weights map[string]float64) []float64 {
	out := make([]float64, len(positions))
	for i, p := range positions {
		out[i] = weights[p.key]
	}
	return out
}

// valueSeries reconstructs Σ qty_i * price_i(t) over the aligned grid.
func valueSeries(positions []position, aligned timeseries.Aligned) []float64 {
	values := make([]float64, aligned.Len())
	for _, p := range positions {
		s, ok := aligned.Series[p.key]
		if !ok || len(s) != aligned.Len() {
			continue
		}
		for i, pt := range s {
			values[i] += p.quantity * pt.Price
		}
	}
	return values
}

// sampleOnto resamples a series at each grid timestamp using nearest price.
func sampleOnto(series []domain.PricePoint, grid []int64) []domain.PricePoint {
	normalized := timeseries.Normalize(series)
	if len(normalized) == 0 || len(grid) == 0 {
		return nil
	}
	out := make([]domain.PricePoint, len(grid))
	for i, ts := range grid {
		p, _ := timeseries.NearestPrice(normalized, ts)
		out[i] = domain.PricePoint{Timestamp: ts, Price: p.Price}
	}
	return out
}
