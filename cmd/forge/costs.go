package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/forge/pkg/forgetypes"
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Summarize recorded cost entries over a trailing window",
	RunE:  runCosts,
}

func init() {
	costsCmd.Flags().Int("days", 7, "Trailing window, in days, to aggregate over")
	costsCmd.Flags().String("group-by", "day", "Aggregation key: day, week, month, model, worker, or task")
	rootCmd.AddCommand(costsCmd)
}

func runCosts(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	costLedger, err := a.openCostLedger()
	if err != nil {
		return fmt.Errorf("open cost ledger: %w", err)
	}
	defer costLedger.Close()

	days, _ := cmd.Flags().GetInt("days")
	groupBy, _ := cmd.Flags().GetString("group-by")

	now := time.Now().UTC()
	rng := forgetypes.TimeRange{From: now.AddDate(0, 0, -days), To: now}

	buckets, err := costLedger.Query(rng, forgetypes.GroupBy(groupBy))
	if err != nil {
		return fmt.Errorf("query cost ledger: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tREQUESTS\tINPUT_TOKENS\tOUTPUT_TOKENS\tCOST_USD")
	var total float64
	for _, b := range buckets {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.4f\n", b.Key, b.Requests, b.InputTokens, b.OutputTokens, b.CostUSD)
		total += b.CostUSD
	}
	if err := w.Flush(); err != nil {
		return err
	}

	projected, err := costLedger.Forecast(days)
	if err != nil {
		return fmt.Errorf("forecast: %w", err)
	}
	fmt.Printf("\ntotal over last %d day(s): $%.4f\n", days, total)
	fmt.Printf("projected over next %d day(s): $%.4f\n", days, projected)
	return nil
}
