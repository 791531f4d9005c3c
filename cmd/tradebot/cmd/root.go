// Package cmd implements the tradebot command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var strategyFile string

var rootCmd = &cobra.Command{
	Use:   "tradebot",
	Short: "Single-instrument indicator trading bot",
	Long: `Tradebot polls a ticker feed for one instrument, computes EMA, MACD, RSI
and VWAP, enters LONG or SHORT when every enabled indicator agrees, and
manages the position with take-profit, stop-loss and a trailing stop.

Configuration comes from .env, environment variables and an optional YAML
strategy file. Closed trades are kept in SQLite and a spreadsheet; the live
state is published to a JSON file, Redis and a WebSocket dashboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if strategyFile != "" {
			return os.Setenv("STRATEGY_FILE", strategyFile)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&strategyFile, "strategy", "s", "", "YAML strategy file (overrides STRATEGY_FILE)")
}
