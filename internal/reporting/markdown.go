package reporting

import (
	"fmt"
	"strings"
	"time"

	"wallet-analytics/internal/domain"
)

// RenderMarkdown renders an analytics report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Wallet Analytics\n\n")
	sb.WriteString(fmt.Sprintf("Wallet: `%s` (%s)\n\n", r.Address, r.Network))
	sb.WriteString(fmt.Sprintf("Generated: %s | Period: %s | Cycle: %s\n\n",
		r.GeneratedAt.Format(time.RFC3339), r.Period, r.CycleID))

	// Holdings
	sb.WriteString("## Holdings\n\n")
	if len(r.Holdings) > 0 {
		sb.WriteString("| Asset | Quantity | Price | Value (USD) | Weight % |\n")
		sb.WriteString("|-------|----------|-------|-------------|----------|\n")
		for _, h := range r.Holdings {
			sb.WriteString(fmt.Sprintf("| %s | %.6f | %.4f | %.2f | %.2f |\n",
				h.Symbol, h.Quantity, h.UnitPrice, h.ValueUSD, h.WeightPct))
		}
		sb.WriteString(fmt.Sprintf("\nTotal value: **%.2f USD**\n", r.TotalValueUSD))
	} else {
		sb.WriteString("No holdings.\n")
	}
	sb.WriteString("\n")

	// Risk
	sb.WriteString("## Risk\n\n")
	if r.Risk != nil {
		m := r.Risk
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Risk Level | %s |\n", m.RiskScore))
		sb.WriteString(fmt.Sprintf("| Volatility (annual) | %.4f |\n", m.Volatility))
		sb.WriteString(fmt.Sprintf("| VaR (%.0f%%) | %.2f USD |\n", m.VaRConfidence*100, m.VaR))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% |\n", m.MaxDrawdown))
		sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %.4f |\n", m.SharpeRatio))
		sb.WriteString(fmt.Sprintf("| Beta | %.4f |\n", m.Beta))
		sb.WriteString(fmt.Sprintf("| Diversification | %.2f |\n", m.DiversificationScore))
		sb.WriteString(fmt.Sprintf("| Concentration | %.2f%% |\n", m.ConcentrationRisk))
		sb.WriteString("\n")

		if len(r.Sectors) > 0 {
			sb.WriteString("### Sector Allocation\n\n")
			for _, s := range r.Sectors {
				sb.WriteString(fmt.Sprintf("- %s: %.2f%%\n", s.Sector, s.Pct))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No risk metrics available.\n\n")
	}

	// Performance
	sb.WriteString("## Performance\n\n")
	if len(r.Performance.Assets) > 0 {
		sb.WriteString(fmt.Sprintf("Portfolio: %.2f -> %.2f USD (%+.2f%%)\n\n",
			r.Performance.ValueThen, r.Performance.ValueNow, r.Performance.ChangePct))
		sb.WriteString("| Asset | Then | Now | Change % |\n")
		sb.WriteString("|-------|------|-----|----------|\n")
		for _, a := range r.Performance.Assets {
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %+.2f |\n",
				label(a.Symbol, a.Asset), a.PriceThen, a.PriceNow, a.ChangePct))
		}
	} else {
		sb.WriteString("No performance data available.\n")
	}
	sb.WriteString("\n")

	// Signals
	sb.WriteString("## Signals\n\n")
	if len(r.Signals) > 0 {
		sb.WriteString("| Asset | Price | RSI | SMA20 | MACD | Predicted | Direction | Confidence |\n")
		sb.WriteString("|-------|-------|-----|-------|------|-----------|-----------|------------|\n")
		for _, s := range r.Signals {
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %.2f | %.4f | %s | %.4f | %s | %.2f |\n",
				s.Asset, s.Price, s.RSI, s.SMA20, s.Trend, s.Predicted, s.Direction, s.Confidence))
		}
		sb.WriteString("\nPredictions are heuristic and illustrative only.\n")
	} else {
		sb.WriteString("No signals available.\n")
	}
	sb.WriteString("\n")

	// Rebalancing
	sb.WriteString(fmt.Sprintf("## Rebalancing (%s)\n\n", r.Plan.Tolerance))
	if len(r.Plan.Recommendations) > 0 {
		sb.WriteString("| Priority | Action | Asset | Amount (USD) | Rationale |\n")
		sb.WriteString("|----------|--------|-------|--------------|-----------|\n")
		for _, rec := range r.Plan.Recommendations {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.2f | %s |\n",
				rec.Priority, rec.Action, rec.Asset, rec.AmountUSD, rec.Rationale))
		}
		sb.WriteString(fmt.Sprintf("\nVolume: %.2f USD | Estimated cost: %.2f USD\n",
			r.Plan.TotalVolumeUSD, r.Plan.EstimatedCostUSD))
	} else {
		sb.WriteString("Portfolio is within tolerance.\n")
	}
	sb.WriteString("\n")

	// Tax
	sb.WriteString("## Tax\n\n")
	switch {
	case r.Tax != nil:
		writeTaxSummary(&sb, r.Tax)
	case r.TaxError != "":
		sb.WriteString(fmt.Sprintf("**Tax report unavailable:** %s\n", r.TaxError))
	default:
		sb.WriteString("No tax data available.\n")
	}
	sb.WriteString("\n")

	// Failures (only shown if present)
	if len(r.Failures) > 0 {
		sb.WriteString("## Degraded Inputs\n\n")
		for _, f := range r.Failures {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", f.Source, f.Error))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderTaxMarkdown renders a standalone tax report with its disposal table.
func RenderTaxMarkdown(t *domain.TaxReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Tax Report %d\n\n", t.Year))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.UnixMilli(t.GeneratedAt).UTC().Format(time.RFC3339)))
	writeTaxSummary(&sb, t)
	sb.WriteString("\n")

	sb.WriteString("## Disposals\n\n")
	if len(t.Disposals) > 0 {
		sb.WriteString("| Date | Asset | Quantity | Proceeds | Cost Basis | Gain/Loss | Days | Term |\n")
		sb.WriteString("|------|-------|----------|----------|------------|-----------|------|------|\n")
		for _, d := range t.Disposals {
			term := "short"
			if d.LongTerm {
				term = "long"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %.1f | %s |\n",
				time.UnixMilli(d.DisposedAt).UTC().Format("2006-01-02"),
				label(d.Symbol, d.Asset), d.Quantity.String(),
				d.Proceeds.StringFixed(2), d.CostBasis.StringFixed(2), d.GainLoss.StringFixed(2),
				d.HoldingDays(), term))
		}
	} else {
		sb.WriteString("No disposals in this year.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func writeTaxSummary(sb *strings.Builder, t *domain.TaxReport) {
	method := string(t.Method)
	if t.EffectiveMethod != t.Method {
		method = fmt.Sprintf("%s (applied as %s)", t.Method, t.EffectiveMethod)
	}

	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Year | %d |\n", t.Year))
	sb.WriteString(fmt.Sprintf("| Method | %s |\n", method))
	sb.WriteString(fmt.Sprintf("| Proceeds | %s |\n", t.TotalProceeds.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Cost Basis | %s |\n", t.TotalCostBasis.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Gain/Loss | %s |\n", t.TotalGainLoss.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Short-Term | %s |\n", t.ShortTermGain.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Long-Term | %s |\n", t.LongTermGain.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Transactions | %d (%d in, %d out) |\n",
		t.Summary.TransactionCount, t.Summary.BuyCount, t.Summary.SellCount))
	sb.WriteString(fmt.Sprintf("| Reward Income | %s |\n", t.Summary.RewardIncomeUSD.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Gas | %s |\n", t.Summary.TotalGasUSD.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Avg Holding (days) | %.1f |\n", t.Summary.AverageHoldingPeriodDays))
	if t.Summary.BestAsset != "" {
		sb.WriteString(fmt.Sprintf("| Best Asset | %s (%s) |\n", t.Summary.BestAsset, t.Summary.BestAssetGain.StringFixed(2)))
		sb.WriteString(fmt.Sprintf("| Worst Asset | %s (%s) |\n", t.Summary.WorstAsset, t.Summary.WorstAssetGain.StringFixed(2)))
	}
}

func label(symbol, asset string) string {
	if symbol != "" {
		return symbol
	}
	return asset
}
