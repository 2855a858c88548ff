package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"saldo/internal/catalog"
	"saldo/internal/core"
)

func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.AddCommand(txAddCmd)
	txCmd.AddCommand(txListCmd)
	txCmd.AddCommand(txEditCmd)
	txCmd.AddCommand(txRemoveCmd)

	txAddCmd.Flags().StringP("amount", "a", "", "Amount, e.g. 12.50 (required)")
	txAddCmd.Flags().StringP("type", "t", "expense", "Transaction type: income or expense")
	txAddCmd.Flags().StringP("category", "c", "", "Category value, see 'saldo categories' (required)")
	txAddCmd.Flags().StringP("description", "d", "", "Free-form description")
	txAddCmd.Flags().String("date", "", "Date as YYYY-MM-DD (default today)")
	txAddCmd.MarkFlagRequired("amount")
	txAddCmd.MarkFlagRequired("category")

	txListCmd.Flags().StringP("type", "t", "expense", "Transaction type to list: income or expense")

	txEditCmd.Flags().StringP("amount", "a", "", "New amount")
	txEditCmd.Flags().StringP("category", "c", "", "New category value")
	txEditCmd.Flags().StringP("description", "d", "", "New description")
	txEditCmd.Flags().String("date", "", "New date as YYYY-MM-DD")
}

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Manage transactions",
}

var txAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new transaction",
	RunE:  runTxAdd,
}

func runTxAdd(cmd *cobra.Command, args []string) error {
	if err := requireAuth(cmd); err != nil {
		return err
	}

	rawAmount, _ := cmd.Flags().GetString("amount")
	amount, err := parseAmountInput(rawAmount)
	if err != nil {
		return err
	}

	typ, err := parseType(cmd)
	if err != nil {
		return err
	}

	category, _ := cmd.Flags().GetString("category")
	if _, ok := catalog.Lookup(typ, category); !ok {
		return fmt.Errorf("unknown %s category %q, see 'saldo categories'", typ, category)
	}

	date, err := parseDateFlag(cmd, core.Date{Time: time.Now().UTC()})
	if err != nil {
		return err
	}

	description, _ := cmd.Flags().GetString("description")

	tx := core.Transaction{
		Amount:      amount,
		Type:        typ,
		Category:    category,
		Description: description,
		Date:        date,
	}
	if !a.transactions.Create(cmd.Context(), tx) {
		if msg := a.transactions.Err(); msg != "" {
			return storeErr(msg)
		}
		return fmt.Errorf("invalid transaction")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s)\n", typ, amount, category)
	return nil
}

var txListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions grouped by month",
	RunE:  runTxList,
}

func runTxList(cmd *cobra.Command, args []string) error {
	if err := requireAuth(cmd); err != nil {
		return err
	}

	typ, err := parseType(cmd)
	if err != nil {
		return err
	}

	if !a.transactions.Fetch(cmd.Context()) {
		return storeErr(a.transactions.Err())
	}

	groups := a.transactions.Grouped(typ)
	if len(groups) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No %s transactions.\n", typ)
		return nil
	}

	out := cmd.OutOrStdout()
	for _, group := range groups {
		fmt.Fprintf(out, "%s\n", group.Label)
		for _, tx := range group.Transactions {
			label := tx.Category
			if cat, ok := catalog.Lookup(tx.Type, tx.Category); ok {
				label = cat.Label
			}
			fmt.Fprintf(out, "  %s  %-10s %-16s %s  %s\n",
				tx.Date.Format("2006-01-02"), tx.Amount, label, tx.Description, tx.ID)
		}
	}
	fmt.Fprintf(out, "Total: %d transactions\n", a.transactions.Total())
	return nil
}

var txEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change amount, category, description or date of a transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runTxEdit,
}

func runTxEdit(cmd *cobra.Command, args []string) error {
	if err := requireAuth(cmd); err != nil {
		return err
	}

	if !a.transactions.Fetch(cmd.Context()) {
		return storeErr(a.transactions.Err())
	}

	var current *core.Transaction
	for _, tx := range a.transactions.Snapshot() {
		if tx.ID == args[0] {
			current = &tx
			break
		}
	}
	if current == nil {
		return fmt.Errorf("transaction %q not found", args[0])
	}

	updated := *current
	if raw, _ := cmd.Flags().GetString("amount"); raw != "" {
		amount, err := parseAmountInput(raw)
		if err != nil {
			return err
		}
		updated.Amount = amount
	}
	if category, _ := cmd.Flags().GetString("category"); category != "" {
		if _, ok := catalog.Lookup(updated.Type, category); !ok {
			return fmt.Errorf("unknown %s category %q, see 'saldo categories'", updated.Type, category)
		}
		updated.Category = category
	}
	if cmd.Flags().Changed("description") {
		updated.Description, _ = cmd.Flags().GetString("description")
	}
	date, err := parseDateFlag(cmd, updated.Date)
	if err != nil {
		return err
	}
	updated.Date = date

	if !a.transactions.Update(cmd.Context(), updated) {
		if msg := a.transactions.Err(); msg != "" {
			return storeErr(msg)
		}
		return fmt.Errorf("invalid update")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", updated.ID)
	return nil
}

var txRemoveCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(cmd); err != nil {
			return err
		}
		if !a.transactions.Delete(cmd.Context(), args[0]) {
			return storeErr(a.transactions.Err())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

// parseAmountInput runs the raw string through the same sanitizer the
// amount field uses, then parses it to cents.
func parseAmountInput(raw string) (core.Money, error) {
	sanitized := core.SanitizeAmount("", raw)
	amount, err := core.ParseAmount(sanitized)
	if err != nil {
		return core.Money{}, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return amount, nil
}

func parseType(cmd *cobra.Command) (core.TransactionType, error) {
	raw, _ := cmd.Flags().GetString("type")
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "income":
		return core.Income, nil
	case "expense":
		return core.Expense, nil
	default:
		return "", fmt.Errorf("invalid type %q: must be income or expense", raw)
	}
}

func parseDateFlag(cmd *cobra.Command, fallback core.Date) (core.Date, error) {
	raw, _ := cmd.Flags().GetString("date")
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", raw)
	}
	return core.Date{Time: t}, nil
}
