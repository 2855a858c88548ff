package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	applog "saldo/internal/log"
	"saldo/internal/sheets"
	gsheet "saldo/internal/sheets/google"
	mem "saldo/internal/sheets/memory"
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().Bool("dry-run", false, "Collect rows in memory instead of writing to Google Sheets")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all transactions to a Google Sheets spreadsheet",
	Long: `Export the transaction collection to a Google Sheets spreadsheet,
one row per transaction. Requires GOOGLE_SPREADSHEET_ID and service
account credentials; use --dry-run to verify the export without
credentials.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := requireAuth(cmd); err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	var writer sheets.TransactionWriter
	if dryRun {
		writer = mem.New()
	} else {
		cli, err := gsheet.NewFromEnv(cmd.Context())
		if err != nil {
			return fmt.Errorf("sheets export: %w", err)
		}
		writer = cli
	}

	if !a.transactions.Fetch(cmd.Context()) {
		return storeErr(a.transactions.Err())
	}

	items := a.transactions.Snapshot()
	for _, tx := range items {
		ref, err := writer.Append(cmd.Context(), tx)
		if err != nil {
			return fmt.Errorf("export transaction %s: %w", tx.ID, err)
		}
		slog.Debug("Exported transaction",
			applog.FieldComponent, applog.ComponentSheets,
			applog.FieldTransactionID, tx.ID,
			"row", ref)
	}

	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Dry run: %d transactions would be exported.\n", len(items))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions.\n", len(items))
	return nil
}
