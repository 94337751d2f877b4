package storage

import (
	"context"
	"database/sql"
)

const transactionColumns = `id, owner_id, account_id, category_id, amount_cents, type, date, description,
    is_recurring, recurrence, last_generated_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(s rowScanner) (Transaction, error) {
	var i Transaction
	err := s.Scan(
		&i.ID,
		&i.OwnerID,
		&i.AccountID,
		&i.CategoryID,
		&i.AmountCents,
		&i.Type,
		&i.Date,
		&i.Description,
		&i.IsRecurring,
		&i.Recurrence,
		&i.LastGeneratedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectTransactions(rows *sql.Rows) ([]Transaction, error) {
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createTransaction = `-- name: CreateTransaction :exec
INSERT INTO transactions (id, owner_id, account_id, category_id, amount_cents, type, date, description,
    is_recurring, recurrence, last_generated_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID,
		arg.OwnerID,
		arg.AccountID,
		arg.CategoryID,
		arg.AmountCents,
		arg.Type,
		arg.Date,
		arg.Description,
		arg.IsRecurring,
		arg.Recurrence,
		arg.LastGeneratedAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + ` FROM transactions
WHERE id = ? AND owner_id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id, ownerID string) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id, ownerID))
}

const getTransactionByID = `-- name: GetTransactionByID :one
SELECT ` + transactionColumns + ` FROM transactions
WHERE id = ?
`

func (q *Queries) GetTransactionByID(ctx context.Context, id string) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransactionByID, id))
}

const listTransactions = `-- name: ListTransactions :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE owner_id = ?
  AND (? = '' OR account_id = ?)
  AND (? = '' OR category_id = ?)
  AND (? = '' OR type = ?)
  AND (? = '' OR date >= ?)
  AND (? = '' OR date <= ?)
ORDER BY date DESC, created_at DESC
`

// ListTransactionsParams uses empty strings for "no filter".
type ListTransactionsParams struct {
	OwnerID    string
	AccountID  string
	CategoryID string
	Type       string
	FromDate   string
	ToDate     string
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions,
		arg.OwnerID,
		arg.AccountID, arg.AccountID,
		arg.CategoryID, arg.CategoryID,
		arg.Type, arg.Type,
		arg.FromDate, arg.FromDate,
		arg.ToDate, arg.ToDate,
	)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

const listAccountTransactions = `-- name: ListAccountTransactions :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE account_id = ? AND owner_id = ?
`

func (q *Queries) ListAccountTransactions(ctx context.Context, accountID, ownerID string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listAccountTransactions, accountID, ownerID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

const updateTransaction = `-- name: UpdateTransaction :execrows
UPDATE transactions
SET account_id = ?, category_id = ?, amount_cents = ?, type = ?, date = ?, description = ?,
    is_recurring = ?, recurrence = ?, updated_at = ?
WHERE id = ? AND owner_id = ?
`

func (q *Queries) UpdateTransaction(ctx context.Context, arg Transaction) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransaction,
		arg.AccountID,
		arg.CategoryID,
		arg.AmountCents,
		arg.Type,
		arg.Date,
		arg.Description,
		arg.IsRecurring,
		arg.Recurrence,
		arg.UpdatedAt,
		arg.ID,
		arg.OwnerID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `-- name: DeleteTransaction :execrows
DELETE FROM transactions WHERE id = ? AND owner_id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id, ownerID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listRecurringTemplates = `-- name: ListRecurringTemplates :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE is_recurring = 1
ORDER BY date
`

func (q *Queries) ListRecurringTemplates(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listRecurringTemplates)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

const markRecurringGenerated = `-- name: MarkRecurringGenerated :exec
UPDATE transactions SET last_generated_at = ?, updated_at = ?
WHERE id = ?
`

func (q *Queries) MarkRecurringGenerated(ctx context.Context, lastGeneratedAt, updatedAt, id string) error {
	_, err := q.db.ExecContext(ctx, markRecurringGenerated, lastGeneratedAt, updatedAt, id)
	return err
}

const monthTotals = `-- name: MonthTotals :one
SELECT
    COALESCE(SUM(CASE WHEN type = 'INCOME' THEN amount_cents END), 0) AS income_cents,
    COALESCE(SUM(CASE WHEN type = 'EXPENSE' THEN amount_cents END), 0) AS expense_cents
FROM transactions
WHERE owner_id = ? AND date >= ? AND date <= ?
`

type MonthTotalsRow struct {
	IncomeCents  int64
	ExpenseCents int64
}

func (q *Queries) MonthTotals(ctx context.Context, ownerID, fromDate, toDate string) (MonthTotalsRow, error) {
	row := q.db.QueryRowContext(ctx, monthTotals, ownerID, fromDate, toDate)
	var i MonthTotalsRow
	err := row.Scan(&i.IncomeCents, &i.ExpenseCents)
	return i, err
}

const expenseByCategory = `-- name: ExpenseByCategory :many
SELECT COALESCE(t.category_id, '') AS category_id,
       COALESCE(c.name, '') AS name,
       SUM(t.amount_cents) AS total_cents
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id
WHERE t.owner_id = ? AND t.type = 'EXPENSE' AND t.date >= ? AND t.date <= ?
GROUP BY t.category_id, c.name
ORDER BY total_cents DESC
`

type ExpenseByCategoryRow struct {
	CategoryID string
	Name       string
	TotalCents int64
}

func (q *Queries) ExpenseByCategory(ctx context.Context, ownerID, fromDate, toDate string) ([]ExpenseByCategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, expenseByCategory, ownerID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseByCategoryRow
	for rows.Next() {
		var i ExpenseByCategoryRow
		if err := rows.Scan(&i.CategoryID, &i.Name, &i.TotalCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
