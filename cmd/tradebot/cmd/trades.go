package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nsahay2509/crypto-trade-dashboard/config"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/export"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/ledger"
	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
	sqlitestore "github.com/nsahay2509/crypto-trade-dashboard/internal/store/sqlite"
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "Show the trade ledger",
	Long: `Print the trade ledger stored in SQLite, oldest first.

Examples:
  tradebot trades
  tradebot trades --limit 20 --json
  tradebot trades --xlsx /tmp/trades.xlsx`,
	Args: cobra.NoArgs,
	RunE: runTrades,
}

var (
	tradesDBPath string
	tradesLimit  int
	tradesJSON   bool
	tradesXLSX   string
)

func init() {
	rootCmd.AddCommand(tradesCmd)

	tradesCmd.Flags().StringVarP(&tradesDBPath, "db", "d", "", "SQLite database (default: SQLITE_PATH)")
	tradesCmd.Flags().IntVarP(&tradesLimit, "limit", "n", 0, "show only the newest n trades (0 = all)")
	tradesCmd.Flags().BoolVar(&tradesJSON, "json", false, "print rows as JSON")
	tradesCmd.Flags().StringVar(&tradesXLSX, "xlsx", "", "also write the rows to this spreadsheet")
}

func runTrades(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	path := tradesDBPath
	if path == "" {
		path = cfg.SQLitePath
	}

	store, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: path})
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	rows, err := store.ReadTrades(cmd.Context(), tradesLimit)
	if err != nil {
		return err
	}

	if tradesXLSX != "" {
		if err := export.NewXLSXWriter(tradesXLSX, cfg.Location()).ExportLedger(cmd.Context(), rows); err != nil {
			return fmt.Errorf("write spreadsheet: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if tradesJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if rows == nil {
			rows = []model.TradeRow{}
		}
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "no trades recorded")
		return nil
	}

	loc := cfg.Location()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NO\tTYPE\tENTRY TIME\tENTRY\tEXIT TIME\tEXIT\tREASON\tFEE\tPROFIT\tTOTAL")
	for _, r := range rows {
		if !r.Closed {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t-\t-\tOPEN\t-\t-\t-\n",
				r.TradeNo, r.Direction.Title(), r.EntryTime.In(loc).Format("2006-01-02 15:04:05"), r.EntryPrice)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\t%.2f\t%s\t%.4f\t%.4f\t%.4f\n",
			r.TradeNo, r.Direction.Title(), r.EntryTime.In(loc).Format("2006-01-02 15:04:05"), r.EntryPrice,
			r.ExitTime.In(loc).Format("2006-01-02 15:04:05"), r.ExitPrice, r.ExitReason,
			r.Fee, r.NetProfit, r.CumulativeProfit)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	l := ledger.New()
	if err := l.Load(rows); err != nil {
		return err
	}
	sum := l.Summary()
	fmt.Fprintf(out, "\n%d closed (%d won, %d lost), %d open | Total Profit: $%.2f\n",
		sum.Closed, sum.Won, sum.Lost, sum.Open, sum.TotalProfit)
	return nil
}
