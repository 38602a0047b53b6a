package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/orchestrator"
	"wallet-analytics/internal/reporting"
	"wallet-analytics/internal/solana"
)

func newRiskCmd(e *env) *cobra.Command {
	var (
		period    string
		tolerance string
		format    string
		out       string
	)
	cmd := &cobra.Command{
		Use:   "risk <address>",
		Short: "Risk metrics, signals and rebalancing for a wallet",
		Long: `Runs one analytics cycle for a live wallet and prints the summary.

Examples:
  walletctl risk <wallet> --period 90d
  walletctl risk <wallet> --tolerance conservative --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := args[0]
			if err := solana.ValidateAddress(address); err != nil {
				return err
			}
			p := domain.Period(strings.ToLower(period))
			if !p.IsValid() {
				return fmt.Errorf("unsupported period %q", period)
			}
			if tolerance != "" {
				t, err := domain.ParseRiskTolerance(tolerance)
				if err != nil {
					return err
				}
				e.cfg.Risk.Tolerance = t
			}

			orch, err := e.orchestrator(e.live())
			if err != nil {
				return err
			}
			res, err := orch.Run(cmd.Context(), orchestrator.Input{
				Address: address,
				Network: e.cfg.Solana.Network,
				Period:  p,
			})
			if err != nil {
				return err
			}

			w, closeOut, err := output(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := writeResult(w, res, format); err != nil {
				closeOut()
				return err
			}
			return closeOut()
		},
	}
	cmd.Flags().StringVar(&period, "period", string(domain.Period30D), "1d, 7d, 30d, 90d or 1y")
	cmd.Flags().StringVar(&tolerance, "tolerance", "", "conservative, moderate or aggressive (default from RISK_TOLERANCE)")
	cmd.Flags().StringVar(&format, "format", "markdown", "markdown or json")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}

func writeResult(w io.Writer, res *orchestrator.Result, format string) error {
	switch strings.ToLower(format) {
	case "markdown", "md":
		report, err := reporting.NewGenerator().Generate(res)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, reporting.RenderMarkdown(report))
		return err
	case "json":
		return writeJSON(w, res)
	}
	return fmt.Errorf("unsupported format %q", format)
}
