package sheets

import (
	"context"

	"cofre/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerMirror copies ledger transactions to an external spreadsheet.
	LedgerMirror interface {
		AppendTransaction(ctx context.Context, row LedgerRow) (rowRef string, err error)
	}

	// LedgerRow is a transaction with the display names a spreadsheet reader needs.
	LedgerRow struct {
		Transaction core.Transaction
		Account     string
		Category    string
	}
)
