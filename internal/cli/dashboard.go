package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"saldo/internal/catalog"
	"saldo/internal/core"
)

func init() {
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(categoriesCmd)

	dashboardCmd.Flags().StringP("range", "r", "", "Trends timeframe: weekly, monthly or yearly (default from config)")
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show balance, trends and category breakdown",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if err := requireAuth(cmd); err != nil {
		return err
	}

	raw, _ := cmd.Flags().GetString("range")
	if raw == "" {
		raw = a.cfg.DefaultTimeframe
	}
	timeframe, err := core.ParseTimeframe(raw)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	ok := a.dashboard.FetchCards(ctx)
	ok = a.dashboard.FetchTrends(ctx, timeframe) && ok
	ok = a.dashboard.FetchCategories(ctx) && ok
	if !ok {
		return storeErr(a.dashboard.Err())
	}

	stats := a.dashboard.Stats()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Balance:       %s\n", stats.Cards.Balance)
	fmt.Fprintf(out, "Total income:  %s\n", stats.Cards.TotalIncome)
	fmt.Fprintf(out, "Total expense: %s\n", stats.Cards.TotalExpense)

	if points := stats.Trends[timeframe]; len(points) > 0 {
		fmt.Fprintf(out, "\nTrends (%s)\n", timeframe)
		for _, p := range points {
			fmt.Fprintf(out, "  %s  income %-10s expense %s\n",
				p.Date.Format("2006-01-02"), p.Income, p.Expense)
		}
	}

	printBreakdown(out, "Expense categories", core.Expense, stats.Categories.Expense)
	printBreakdown(out, "Income categories", core.Income, stats.Categories.Income)
	return nil
}

func printBreakdown(out io.Writer, title string, typ core.TransactionType, shares []core.CategoryShare) {
	if len(shares) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s\n", title)
	for _, share := range shares {
		label := share.Category
		if cat, ok := catalog.Lookup(typ, share.Category); ok {
			label = cat.Label
		}
		fmt.Fprintf(out, "  %-16s %s%%\n", label, share.Percentage)
	}
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the built-in expense and income categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, typ := range []core.TransactionType{core.Expense, core.Income} {
			fmt.Fprintf(out, "%s\n", typ)
			for _, cat := range catalog.ForType(typ) {
				fmt.Fprintf(out, "  %-16s %-20s %s\n", cat.Value, cat.Label, cat.Color)
			}
		}
		return nil
	},
}
