package reporting

import (
	"errors"
	"sort"
	"time"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/orchestrator"
)

// Generator builds reports from cycle results.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report for one cycle result.
func (g *Generator) Generate(res *orchestrator.Result) (*Report, error) {
	if res == nil {
		return nil, errors.New("reporting: nil result")
	}

	return &Report{
		GeneratedAt:   g.now(),
		CycleID:       res.CycleID,
		Address:       res.Input.Address,
		Network:       res.Input.Network,
		Period:        res.Input.Period,
		TotalValueUSD: domain.TotalValue(res.Holdings),
		Holdings:      holdingRows(res.Holdings),
		Risk:          res.Risk,
		Sectors:       sectorRows(res.Risk),
		Signals:       signalRows(res.Indicators, res.Predictions),
		Performance:   res.Performance,
		Plan:          res.Plan,
		Tax:           res.Tax,
		TaxError:      res.TaxError,
		Failures:      failureRows(res.Failures),
	}, nil
}

func holdingRows(holdings []domain.Holding) []HoldingRow {
	total := domain.TotalValue(holdings)
	rows := make([]HoldingRow, 0, len(holdings))
	for _, h := range holdings {
		row := HoldingRow{
			Symbol:    h.Key(),
			Asset:     h.Asset,
			Quantity:  h.Quantity,
			UnitPrice: h.UnitPrice,
			ValueUSD:  h.ValueUSD,
		}
		if total > 0 {
			row.WeightPct = h.ValueUSD / total * 100
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ValueUSD != rows[j].ValueUSD {
			return rows[i].ValueUSD > rows[j].ValueUSD
		}
		return rows[i].Symbol < rows[j].Symbol
	})
	return rows
}

func sectorRows(m *domain.RiskMetrics) []SectorRow {
	if m == nil {
		return nil
	}
	rows := make([]SectorRow, 0, len(m.SectorAllocation))
	for s, pct := range m.SectorAllocation {
		rows = append(rows, SectorRow{Sector: s, Pct: pct})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Pct != rows[j].Pct {
			return rows[i].Pct > rows[j].Pct
		}
		return rows[i].Sector < rows[j].Sector
	})
	return rows
}

func signalRows(ind map[string]domain.TechnicalIndicators, preds map[string]domain.Prediction) []SignalRow {
	rows := make([]SignalRow, 0, len(ind))
	for asset, ti := range ind {
		p := preds[asset]
		rows = append(rows, SignalRow{
			Asset:      asset,
			Price:      ti.CurrentPrice,
			RSI:        ti.RSI,
			SMA20:      ti.SMA20,
			Trend:      ti.MACD.Trend,
			Predicted:  p.PredictedPrice,
			Direction:  p.Direction,
			Confidence: p.Confidence,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Asset < rows[j].Asset })
	return rows
}

func failureRows(failures map[string]string) []FailureRow {
	rows := make([]FailureRow, 0, len(failures))
	for src, msg := range failures {
		rows = append(rows, FailureRow{Source: src, Error: msg})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Source < rows[j].Source })
	return rows
}
