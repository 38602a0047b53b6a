package reporting

import (
	"encoding/csv"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/orchestrator"
)

var fixedTime = time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleTax() *domain.TaxReport {
	disposedAt := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	return &domain.TaxReport{
		Year:            2024,
		Method:          domain.MethodSpecificID,
		EffectiveMethod: domain.MethodFIFO,
		TotalProceeds:   dec("600"),
		TotalCostBasis:  dec("101"),
		TotalGainLoss:   dec("499"),
		LongTermGain:    dec("499"),
		Disposals: []domain.RealizedDisposal{{
			ID: "d1", TxID: "s-sol", Asset: "SOL", Symbol: "SOL", Kind: domain.KindSell,
			Quantity: dec("5"), Proceeds: dec("600"), CostBasis: dec("101"), GainLoss: dec("499"),
			HoldingPeriodMs: 400 * domain.MillisPerDay, LongTerm: true, DisposedAt: disposedAt,
		}},
		Rows: []domain.TaxRow{
			{
				Date: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), ID: "b-sol",
				Type: domain.KindBuy, Asset: "SOL", Amount: dec("4"), Price: dec("25"),
				ValueUSD: dec("100"), CostBasis: dec("101"), GasUSD: dec("1"),
			},
			{
				Date: disposedAt, ID: "s-sol", Type: domain.KindSell, Asset: "WEIRD, TOKEN",
				Amount: dec("5"), Price: dec("120"), ValueUSD: dec("600"), CostBasis: dec("101"),
				Proceeds: dec("600"), GainLoss: dec("499"), GainLossPct: dec("494.0594059"),
				HoldingPeriodDays: 400, LongTerm: true,
			},
		},
		Summary: domain.TaxSummary{
			TransactionCount: 2, BuyCount: 1, SellCount: 1,
			BestAsset: "SOL", BestAssetGain: dec("499"),
			WorstAsset: "SOL", WorstAssetGain: dec("499"),
		},
		GeneratedAt: fixedTime.UnixMilli(),
	}
}

func sampleResult() *orchestrator.Result {
	return &orchestrator.Result{
		CycleID: "cycle-1",
		Input:   orchestrator.Input{Address: "wallet1", Network: "mainnet-beta", Period: domain.Period30D},
		Holdings: []domain.Holding{
			domain.NewHolding("usdc-mint", "USDC", 4000, 1),
			domain.NewHolding("eth-mint", "ETH", 2, 3000),
		},
		Risk: &domain.RiskMetrics{
			RiskScore:         domain.RiskHigh,
			VaRConfidence:     0.95,
			ConcentrationRisk: 60,
			SectorAllocation: map[domain.Sector]float64{
				domain.SectorStablecoin: 40,
				domain.SectorLayer1:     60,
			},
		},
		Indicators: map[string]domain.TechnicalIndicators{
			"USDC": {Asset: "USDC", CurrentPrice: 1, RSI: 50, MACD: domain.MACD{Trend: domain.SignalHold}},
			"ETH":  {Asset: "ETH", CurrentPrice: 3000, RSI: 72, MACD: domain.MACD{Trend: domain.SignalBuy}},
		},
		Predictions: map[string]domain.Prediction{
			"ETH": {Asset: "ETH", PredictedPrice: 3100, Direction: domain.SignalBuy, Confidence: 0.6},
		},
		Plan: domain.RebalancePlan{
			Tolerance: domain.ToleranceModerate,
			Recommendations: []domain.Recommendation{
				{Action: domain.ActionSell, Asset: "ETH", AmountUSD: 3000, Priority: domain.PriorityHigh, Rationale: "over threshold"},
			},
		},
		Tax:      sampleTax(),
		Failures: map[string]string{"transactions": "rpc down", "BONK": "upstream"},
	}
}

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator().WithClock(func() time.Time { return fixedTime })

	r, err := g.Generate(sampleResult())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !r.GeneratedAt.Equal(fixedTime) {
		t.Errorf("GeneratedAt = %v, want %v", r.GeneratedAt, fixedTime)
	}
	if r.TotalValueUSD != 10000 {
		t.Errorf("TotalValueUSD = %v, want 10000", r.TotalValueUSD)
	}

	if len(r.Holdings) != 2 || r.Holdings[0].Symbol != "ETH" {
		t.Fatalf("holdings not sorted by value: %+v", r.Holdings)
	}
	if math.Abs(r.Holdings[0].WeightPct-60) > 1e-9 {
		t.Errorf("ETH weight = %v, want 60", r.Holdings[0].WeightPct)
	}

	if len(r.Sectors) != 2 || r.Sectors[0].Sector != domain.SectorLayer1 {
		t.Errorf("sectors not sorted by share: %+v", r.Sectors)
	}

	if len(r.Signals) != 2 || r.Signals[0].Asset != "ETH" || r.Signals[1].Asset != "USDC" {
		t.Fatalf("signals not sorted by asset: %+v", r.Signals)
	}
	if r.Signals[0].Predicted != 3100 || r.Signals[0].Trend != domain.SignalBuy {
		t.Errorf("ETH signal = %+v", r.Signals[0])
	}
	if r.Signals[1].Predicted != 0 {
		t.Errorf("USDC has no prediction, got %v", r.Signals[1].Predicted)
	}

	if len(r.Failures) != 2 || r.Failures[0].Source != "BONK" {
		t.Errorf("failures not sorted: %+v", r.Failures)
	}
}

func TestGenerator_NilResult(t *testing.T) {
	if _, err := NewGenerator().Generate(nil); err == nil {
		t.Error("expected error for nil result")
	}
}

func TestRenderMarkdown(t *testing.T) {
	r, err := NewGenerator().WithClock(func() time.Time { return fixedTime }).Generate(sampleResult())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(r)

	sections := []string{
		"# Wallet Analytics",
		"Generated: 2025-01-15T12:00:00Z",
		"## Holdings",
		"| ETH | 2.000000 | 3000.0000 | 6000.00 | 60.00 |",
		"## Risk",
		"| Risk Level | high |",
		"| VaR (95%) |",
		"- layer1: 60.00%",
		"## Signals",
		"## Rebalancing (moderate)",
		"| high | sell | ETH | 3000.00 | over threshold |",
		"## Tax",
		"| Method | specific_id (applied as fifo) |",
		"## Degraded Inputs",
		"- transactions: rpc down",
	}
	for _, s := range sections {
		if !strings.Contains(md, s) {
			t.Errorf("markdown missing %q", s)
		}
	}
}

func TestRenderMarkdown_TaxError(t *testing.T) {
	res := sampleResult()
	res.Tax = nil
	res.TaxError = "insufficient lot balance"
	res.Failures = nil
	r, _ := NewGenerator().Generate(res)

	md := RenderMarkdown(r)

	if !strings.Contains(md, "**Tax report unavailable:** insufficient lot balance") {
		t.Error("tax error not surfaced")
	}
	if strings.Contains(md, "## Degraded Inputs") {
		t.Error("failures section shown without failures")
	}
}

func TestRenderTaxMarkdown(t *testing.T) {
	md := RenderTaxMarkdown(sampleTax())

	for _, s := range []string{
		"# Tax Report 2024",
		"| Gain/Loss | 499.00 |",
		"| 2024-06-01 | SOL | 5 | 600.00 | 101.00 | 499.00 | 400.0 | long |",
	} {
		if !strings.Contains(md, s) {
			t.Errorf("tax markdown missing %q", s)
		}
	}
}

func TestRenderTaxCSV(t *testing.T) {
	out, err := RenderTaxCSV(sampleTax())
	if err != nil {
		t.Fatalf("RenderTaxCSV failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}

	header := strings.Join(records[0], ",")
	want := "date,id,type,asset,amount,price,value_usd,cost_basis,proceeds,gain_loss,gain_loss_pct,holding_period_days,long_term,gas_usd"
	if header != want {
		t.Errorf("header = %q\nwant %q", header, want)
	}

	buy := records[1]
	if buy[0] != "2024-03-01T00:00:00Z" || buy[2] != "buy" || buy[7] != "101.00" || buy[8] != "0.00" || buy[12] != "false" {
		t.Errorf("buy row = %v", buy)
	}

	sell := records[2]
	if sell[3] != "WEIRD, TOKEN" {
		t.Errorf("asset with comma not round-tripped: %q", sell[3])
	}
	if sell[9] != "499.00" || sell[10] != "494.06" || sell[11] != "400.00" || sell[12] != "true" {
		t.Errorf("sell row = %v", sell)
	}
}

func TestRenderTaxCSV_NilReport(t *testing.T) {
	if _, err := RenderTaxCSV(nil); err == nil {
		t.Error("expected error for nil report")
	}
}
