package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	ports "cofre/internal/sheets"
)

// DefaultLimit bounds how many rows a Mirror retains.
const DefaultLimit = 1000

// Mirror keeps the most recent mirrored rows in memory. The ledger worker
// uses it for dry runs when no spreadsheet is configured.
type Mirror struct {
	mu    sync.Mutex
	rows  []ports.LedgerRow
	limit int
	total int
}

var _ ports.LedgerMirror = (*Mirror)(nil)

func New() *Mirror {
	return NewWithLimit(DefaultLimit)
}

// NewWithLimit creates a mirror that drops the oldest rows beyond limit.
// A limit <= 0 keeps everything.
func NewWithLimit(limit int) *Mirror {
	return &Mirror{limit: limit}
}

// AppendTransaction stores the row and returns a synthetic row reference.
func (m *Mirror) AppendTransaction(ctx context.Context, row ports.LedgerRow) (string, error) {
	if err := row.Transaction.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.rows = append(m.rows, row)
	if m.limit > 0 && len(m.rows) > m.limit {
		m.rows = append(m.rows[:0:0], m.rows[len(m.rows)-m.limit:]...)
	}
	m.total++
	ref := fmt.Sprintf("mem:%d", m.total)
	m.mu.Unlock()

	slog.DebugContext(ctx, "Row kept in memory mirror",
		"ref", ref,
		"transaction_id", row.Transaction.ID,
		"account", row.Account)
	return ref, nil
}

// Rows returns a copy of the retained rows in append order.
func (m *Mirror) Rows() []ports.LedgerRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.LedgerRow(nil), m.rows...)
}
