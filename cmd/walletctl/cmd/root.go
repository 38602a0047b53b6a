// Package cmd holds the walletctl commands.
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"wallet-analytics/internal/config"
	"wallet-analytics/internal/logging"
)

// env is shared by every subcommand after PersistentPreRunE.
type env struct {
	envFile string
	verbose bool

	cfg    *config.Config
	logger *logrus.Logger
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "walletctl",
		Short: "Wallet analytics from the command line",
		Long: `Wallet analytics from the command line.

Commands:
    tax          tax lot report from a transaction file or a live wallet
    risk         portfolio risk and rebalancing for a live wallet
    indicators   technical indicators and predictions for symbols
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init()
		},
	}
	root.PersistentFlags().StringVar(&e.envFile, "env-file", ".env", "environment file (missing file is ignored)")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "verbose logging to stderr")

	root.AddCommand(newTaxCmd(e))
	root.AddCommand(newRiskCmd(e))
	root.AddCommand(newIndicatorsCmd(e))
	return root
}

// init loads configuration. Logs stay quiet unless --verbose.
func (e *env) init() error {
	cfg, err := config.Load(e.envFile)
	if err != nil {
		return err
	}
	e.cfg = cfg

	opts := cfg.Logging
	opts.Output = "stderr"
	opts.Format = "text"
	if e.verbose {
		opts.Level = "debug"
	} else {
		opts.Level = "warn"
	}
	e.logger = logging.New(opts)
	return nil
}
