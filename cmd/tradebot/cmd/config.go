package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nsahay2509/crypto-trade-dashboard/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Load configuration exactly as "tradebot run" would and print it as YAML.
Secrets (Redis password, dashboard TOTP secret, Telegram token) are omitted.

Example:
  tradebot config --strategy strategies/aggressive.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	out, err := cfg.YAML()
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
