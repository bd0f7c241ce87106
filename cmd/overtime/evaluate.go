package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/violations"
)

var (
	evalFrom, evalTo string
	evalJSON         bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a date range and store the ledger",
	RunE:  evaluate,
}

var calendarCmd = &cobra.Command{
	Use:   "calendar FILE",
	Short: "Validate an exclusion calendar and print its periods",
	Args:  cobra.ExactArgs(1),
	RunE:  checkCalendar,
}

func init() {
	evaluateCmd.Flags().StringVar(&evalFrom, "from", "", "first date (YYYY-MM-DD)")
	evaluateCmd.Flags().StringVar(&evalTo, "to", "", "last date (YYYY-MM-DD)")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "print the full ledger as JSON")
	evaluateCmd.MarkFlagRequired("from")
	evaluateCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(evaluateCmd, calendarCmd)
}

func evaluate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	from, err := generic.ParseDate(evalFrom)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := generic.ParseDate(evalTo)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	rng, err := generic.NewPeriod(from, to)
	if err != nil {
		return err
	}

	rt, err := setup(ctx, nil)
	if err != nil {
		return err
	}
	defer rt.store.Close()

	res, err := rt.service.Evaluate(ctx, rng)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if evalJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Ledger)
	}
	printSummary(out, res)
	return nil
}

func printSummary(w io.Writer, res *violations.Result) {
	t := res.Ledger.Totals
	fmt.Fprintf(w, "run %s over %s\n", res.RunID, res.Ledger.Range)
	fmt.Fprintf(w, "records: %d  violations: %d  remedy hours: %s\n", t.Records, t.Violations, t.Remedy.StringFixed(2))
	for _, a := range generic.Articles {
		at, ok := t.ByArticle[a]
		if !ok || at.Violations == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-10s %4d  %8s\n", a.Label(), at.Violations, at.Remedy.StringFixed(2))
	}
	excluded := 0
	for _, is := range res.Issues {
		if is.Excluded {
			excluded++
		}
	}
	if len(res.Issues) > 0 {
		fmt.Fprintf(w, "integrity issues: %d (%d carrier-days excluded)\n", len(res.Issues), excluded)
	}
}

func checkCalendar(cmd *cobra.Command, args []string) error {
	cal, err := factory.LoadCalendarFile(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, p := range cal.Periods() {
		fmt.Fprintf(out, "%-28s %s  %v\n", p.Name, p.Range(), p.Articles)
	}
	fmt.Fprintf(out, "%d periods OK\n", cal.Len())
	return nil
}
