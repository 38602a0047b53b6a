package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/indicators"
	"wallet-analytics/internal/pricefeed"
)

// signal is one symbol's indicators and prediction.
type signal struct {
	Indicators domain.TechnicalIndicators `json:"indicators"`
	Prediction domain.Prediction          `json:"prediction"`
}

func newIndicatorsCmd(e *env) *cobra.Command {
	var (
		period string
		format string
	)
	cmd := &cobra.Command{
		Use:   "indicators <symbol>...",
		Short: "Technical indicators and heuristic predictions",
		Long: `Fetches price history per symbol and prints RSI, MACD, SMA and the
heuristic prediction. Predictions are illustrative only.

Examples:
  walletctl indicators SOL JUP BONK --period 90d`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := domain.Period(strings.ToLower(period))
			if !p.IsValid() {
				return fmt.Errorf("unsupported period %q", period)
			}
			signals, err := analyzeSymbols(cmd, e.live().prices, args, p)
			if err != nil {
				return err
			}
			return writeSignals(cmd.OutOrStdout(), signals, format)
		},
	}
	cmd.Flags().StringVar(&period, "period", string(domain.Period90D), "1d, 7d, 30d, 90d or 1y")
	cmd.Flags().StringVar(&format, "format", "table", "table or json")
	return cmd
}

func analyzeSymbols(cmd *cobra.Command, prices pricefeed.Source, symbols []string, period domain.Period) ([]signal, error) {
	out := make([]signal, 0, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(sym)
		series, err := prices.History(cmd.Context(), sym, period)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sym, err)
		}
		ti, pred := indicators.Analyze(sym, series)
		out = append(out, signal{Indicators: ti, Prediction: pred})
	}
	return out, nil
}

func writeSignals(w io.Writer, signals []signal, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return writeJSON(w, signals)
	case "table":
		fmt.Fprintf(w, "%-8s %14s %7s %14s %6s %14s %6s %5s\n",
			"SYMBOL", "PRICE", "RSI", "SMA20", "MACD", "PREDICTED", "DIR", "CONF")
		for _, s := range signals {
			ti, p := s.Indicators, s.Prediction
			fmt.Fprintf(w, "%-8s %14.6f %7.2f %14.6f %6s %14.6f %6s %5.2f\n",
				ti.Asset, ti.CurrentPrice, ti.RSI, ti.SMA20, ti.MACD.Trend,
				p.PredictedPrice, p.Direction, p.Confidence)
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q", format)
}
