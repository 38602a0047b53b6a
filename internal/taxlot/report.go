package taxlot

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"wallet-analytics/internal/domain"
)

// YearBounds returns the [start, end) Unix-millisecond range of a UTC calendar year.
func YearBounds(year int) (int64, int64) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start.UnixMilli(), start.AddDate(1, 0, 0).UnixMilli()
}

// YearReport aggregates the ledger's activity within year.
func (e *Engine) YearReport(ledger *Ledger, year int, generatedAt time.Time) (*domain.TaxReport, error) {
	if ledger == nil {
		return nil, fmt.Errorf("year report: nil ledger")
	}
	if year <= 0 {
		return nil, fmt.Errorf("%w: tax year %d", domain.ErrInvalidConfig, year)
	}
	start, end := YearBounds(year)

	report := &domain.TaxReport{
		Year:            year,
		Method:          ledger.Method,
		EffectiveMethod: ledger.EffectiveMethod,
		Disposals:       []domain.RealizedDisposal{},
		Rows:            e.rows(ledger, start, end),
		GeneratedAt:     generatedAt.UnixMilli(),
	}

	byAsset := make(map[string]decimal.Decimal)
	for _, d := range ledger.Disposals {
		if d.DisposedAt < start || d.DisposedAt >= end {
			continue
		}
		report.Disposals = append(report.Disposals, d)
		report.TotalProceeds = report.TotalProceeds.Add(d.Proceeds)
		report.TotalCostBasis = report.TotalCostBasis.Add(d.CostBasis)
		report.TotalGainLoss = report.TotalGainLoss.Add(d.GainLoss)
		if d.LongTerm {
			report.LongTermGain = report.LongTermGain.Add(d.GainLoss)
		} else {
			report.ShortTermGain = report.ShortTermGain.Add(d.GainLoss)
		}
		label := d.Symbol
		if label == "" {
			label = d.Asset
		}
		byAsset[label] = byAsset[label].Add(d.GainLoss)
	}

	report.Summary = e.summarize(ledger, start, end)
	report.Summary.BestAsset, report.Summary.BestAssetGain,
		report.Summary.WorstAsset, report.Summary.WorstAssetGain = extremes(byAsset)

	return report, nil
}

// Report replays txs and builds the report for year in one call.
func (e *Engine) Report(txs []domain.Transaction, year int, generatedAt time.Time) (*domain.TaxReport, error) {
	ledger, err := e.Process(txs)
	if err != nil {
		return nil, err
	}
	return e.YearReport(ledger, year, generatedAt)
}

func (e *Engine) summarize(ledger *Ledger, start, end int64) domain.TaxSummary {
	var s domain.TaxSummary
	var holdingDays float64

	for i, tx := range ledger.Transactions {
		if tx.Timestamp < start || tx.Timestamp >= end {
			continue
		}
		s.TransactionCount++
		s.TotalGasUSD = s.TotalGasUSD.Add(tx.GasUSD)

		flow, _ := tx.Kind.Flow()
		if flow == domain.FlowInflow {
			s.BuyCount++
			if tx.Kind.IsIncome() {
				if e.opts.IncludeRewards {
					s.RewardIncomeUSD = s.RewardIncomeUSD.Add(tx.ValueUSD)
				}
				continue
			}
			s.TotalBoughtUSD = s.TotalBoughtUSD.Add(tx.ValueUSD)
			continue
		}

		s.SellCount++
		if d, ok := ledger.disposalFor(i); ok {
			s.TotalSoldUSD = s.TotalSoldUSD.Add(d.Proceeds)
			holdingDays += d.HoldingDays()
		}
	}

	if s.TransactionCount > 0 {
		s.AverageHoldingPeriodDays = holdingDays / float64(s.TransactionCount)
	}
	return s
}

// rows flattens the ledger's transactions within [start, end) into export rows.
func (e *Engine) rows(ledger *Ledger, start, end int64) []domain.TaxRow {
	out := []domain.TaxRow{}
	for i, tx := range ledger.Transactions {
		if tx.Timestamp < start || tx.Timestamp >= end {
			continue
		}
		row := domain.TaxRow{
			Date:     tx.Timestamp,
			ID:       tx.ID,
			Type:     tx.Kind,
			Asset:    tx.AssetLabel(),
			Amount:   tx.Quantity,
			Price:    tx.UnitPrice(),
			ValueUSD: tx.ValueUSD,
			GasUSD:   tx.GasUSD,
		}
		if d, ok := ledger.disposalFor(i); ok {
			row.CostBasis = d.CostBasis
			row.Proceeds = d.Proceeds
			row.GainLoss = d.GainLoss
			row.GainLossPct = d.GainLossPct()
			row.HoldingPeriodDays = d.HoldingDays()
			row.LongTerm = d.LongTerm
		} else {
			row.CostBasis = e.openLot(tx, i).CostBasis
		}
		out = append(out, row)
	}
	return out
}

// extremes picks the best and worst asset by aggregate gain. Ties resolve to
// the alphabetically first label.
func extremes(gains map[string]decimal.Decimal) (string, decimal.Decimal, string, decimal.Decimal) {
	if len(gains) == 0 {
		return "", decimal.Zero, "", decimal.Zero
	}
	labels := make([]string, 0, len(gains))
	for l := range gains {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	best, worst := labels[0], labels[0]
	for _, l := range labels[1:] {
		if gains[l].GreaterThan(gains[best]) {
			best = l
		}
		if gains[l].LessThan(gains[worst]) {
			worst = l
		}
	}
	return best, gains[best], worst, gains[worst]
}
