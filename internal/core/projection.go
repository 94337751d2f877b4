package core

import "time"

// cutoffHour anchors "today" to 03:00 UTC, which is local midnight in Brasília.
const cutoffHour = 3

// FutureTotals aggregates transactions dated after the projection cutoff.
type FutureTotals struct {
	Income  Money
	Expense Money
}

// ProjectionCutoff returns the instant the live balance is evaluated at:
// 03:00 UTC of now's UTC calendar day.
func ProjectionCutoff(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), cutoffHour, 0, 0, 0, time.UTC)
}

// Settled reports whether t counts towards the live balance at cutoff.
func (t Transaction) Settled(cutoff time.Time) bool {
	return !t.Date.After(cutoff)
}

// ProjectBalance folds the ledger into a balance: income adds, expense subtracts,
// and only transactions dated on or before cutoff count.
func ProjectBalance(txs []Transaction, cutoff time.Time) Money {
	var sum int64
	for _, t := range txs {
		if !t.Settled(cutoff) {
			continue
		}
		sum += t.Signed()
	}
	return Money{Cents: sum}
}

// ProjectFuture sums the transactions dated after cutoff, split by type.
func ProjectFuture(txs []Transaction, cutoff time.Time) FutureTotals {
	var out FutureTotals
	for _, t := range txs {
		if t.Settled(cutoff) {
			continue
		}
		switch t.Type {
		case Income:
			out.Income.Cents += t.Amount.Cents
		case Expense:
			out.Expense.Cents += t.Amount.Cents
		}
	}
	return out
}
