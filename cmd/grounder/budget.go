package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-grounder/internal/budget"
	"github.com/jonathan/resume-grounder/internal/observability"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show today's token usage against the daily limit",
	RunE:  runBudget,
}

func init() {
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	tracker, err := budget.Load(cmd.Context(), a.store, a.cfg.BudgetLimits(), time.Now(), a.logger)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintBudget(tracker.Total(), tracker.Limits())
	return nil
}
