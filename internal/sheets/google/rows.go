package google

import (
	"fmt"
	"strconv"
	"strings"

	"cofre/internal/core"
	ports "cofre/internal/sheets"
)

// Header is the column layout of a ledger tab.
var Header = []any{"Date", "ID", "Account", "Category", "Type", "Description", "Amount", "Recurrence"}

// transactionRow renders a row in Header order. The amount is signed so a
// SUM over the column is the net flow.
func transactionRow(row ports.LedgerRow) []any {
	tx := row.Transaction
	return []any{
		tx.Date.String(),
		tx.ID,
		row.Account,
		row.Category,
		string(tx.Type),
		tx.Description,
		core.FormatMajor(tx.Signed()),
		string(tx.Recurrence),
	}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// a1Range quotes the sheet name so names with spaces or quotes stay valid.
func a1Range(sheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cells)
}
