package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/reporting"
	"wallet-analytics/internal/solana"
	"wallet-analytics/internal/taxlot"
)

type taxFlags struct {
	file    string
	address string
	staking string
	year    int
	method  string
	format  string
	out     string
}

func newTaxCmd(e *env) *cobra.Command {
	f := &taxFlags{}
	cmd := &cobra.Command{
		Use:   "tax",
		Short: "Tax lot report for one year",
		Long: `Replays a transaction history into tax lots and reports one year.

The history comes from a JSON file (--file) or a live wallet (--address).

Examples:
  walletctl tax --file txs.json --year 2024 --format csv --out tax-2024.csv
  walletctl tax --address <wallet> --method lifo --format markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTax(cmd, e, f)
		},
	}
	cmd.Flags().StringVar(&f.file, "file", "", "JSON transaction file")
	cmd.Flags().StringVar(&f.address, "address", "", "wallet address to read history from")
	cmd.Flags().StringVar(&f.staking, "staking", "", "JSON staking positions whose rewards count as income")
	cmd.Flags().IntVar(&f.year, "year", 0, "tax year (default from TAX_YEAR)")
	cmd.Flags().StringVar(&f.method, "method", "", "fifo, lifo or specific_id (default from TAX_METHOD)")
	cmd.Flags().StringVar(&f.format, "format", "csv", "csv, markdown or json")
	cmd.Flags().StringVarP(&f.out, "out", "o", "-", "output file, - for stdout")
	return cmd
}

func runTax(cmd *cobra.Command, e *env, f *taxFlags) error {
	if (f.file == "") == (f.address == "") {
		return errors.New("exactly one of --file or --address is required")
	}

	var (
		txs []domain.Transaction
		err error
	)
	if f.file != "" {
		txs, err = readTransactionFile(f.file)
	} else {
		if err := solana.ValidateAddress(f.address); err != nil {
			return err
		}
		txs, err = e.live().history.Transactions(cmd.Context(), f.address)
	}
	if err != nil {
		return err
	}
	if f.staking != "" {
		rewards, err := readStakingRewards(f.staking)
		if err != nil {
			return err
		}
		for i := range rewards {
			rewards[i].Seq = len(txs) + i
		}
		txs = append(txs, rewards...)
	}

	engine, err := e.taxEngine(f.method)
	if err != nil {
		return err
	}
	year := f.year
	if year == 0 {
		year = e.cfg.Tax.Year
	}
	report, err := engine.Report(txs, year, time.Now())
	if err != nil {
		return err
	}

	w, closeOut, err := output(f.out, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := writeTaxReport(w, report, f.format); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func writeTaxReport(w io.Writer, report *domain.TaxReport, format string) error {
	switch strings.ToLower(format) {
	case "csv":
		return reporting.WriteTaxCSV(w, report)
	case "markdown", "md":
		_, err := io.WriteString(w, reporting.RenderTaxMarkdown(report))
		return err
	case "json":
		return writeJSON(w, report)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// taxEngine builds the configured engine, with method overriding TAX_METHOD.
func (e *env) taxEngine(method string) (*taxlot.Engine, error) {
	opts := e.cfg.TaxOptions()
	if method != "" {
		opts.Method = domain.AccountingMethod(strings.ToLower(method))
	}
	return taxlot.NewEngine(opts)
}
