// Package main is the walletctl command line:
//
//	walletctl tax --file txs.json --year 2024 --format csv
//	walletctl tax --address <wallet> --method lifo --format markdown
//	walletctl risk <wallet> --period 30d
//	walletctl indicators SOL JUP --period 90d
package main

import (
	"os"

	"wallet-analytics/cmd/walletctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
