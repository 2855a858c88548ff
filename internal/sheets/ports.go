package sheets

import (
	"context"

	"saldo/internal/core"
)

// TransactionWriter is the outbound port for exporting transactions to
// a spreadsheet.
type TransactionWriter interface {
	// Append writes one transaction row and returns a reference to it.
	Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}
