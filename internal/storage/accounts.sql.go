package storage

import "context"

const accountColumns = `id, owner_id, name, type, balance_cents, currency, created_at, updated_at`

const createAccount = `-- name: CreateAccount :exec
INSERT INTO accounts (id, owner_id, name, type, balance_cents, currency, created_at, updated_at)
VALUES (?, ?, ?, ?, 0, ?, ?, ?)
`

type CreateAccountParams struct {
	ID        string
	OwnerID   string
	Name      string
	Type      string
	Currency  string
	CreatedAt string
	UpdatedAt string
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) error {
	_, err := q.db.ExecContext(ctx, createAccount,
		arg.ID,
		arg.OwnerID,
		arg.Name,
		arg.Type,
		arg.Currency,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getAccount = `-- name: GetAccount :one
SELECT ` + accountColumns + ` FROM accounts
WHERE id = ? AND owner_id = ?
`

func (q *Queries) GetAccount(ctx context.Context, id, ownerID string) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccount, id, ownerID)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Name,
		&i.Type,
		&i.BalanceCents,
		&i.Currency,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listAccounts = `-- name: ListAccounts :many
SELECT ` + accountColumns + ` FROM accounts
WHERE owner_id = ?
ORDER BY name, created_at
`

func (q *Queries) ListAccounts(ctx context.Context, ownerID string) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.Name,
			&i.Type,
			&i.BalanceCents,
			&i.Currency,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
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

const updateAccount = `-- name: UpdateAccount :execrows
UPDATE accounts SET name = ?, type = ?, currency = ?, updated_at = ?
WHERE id = ? AND owner_id = ?
`

type UpdateAccountParams struct {
	Name      string
	Type      string
	Currency  string
	UpdatedAt string
	ID        string
	OwnerID   string
}

func (q *Queries) UpdateAccount(ctx context.Context, arg UpdateAccountParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateAccount,
		arg.Name,
		arg.Type,
		arg.Currency,
		arg.UpdatedAt,
		arg.ID,
		arg.OwnerID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteAccount = `-- name: DeleteAccount :execrows
DELETE FROM accounts WHERE id = ? AND owner_id = ?
`

func (q *Queries) DeleteAccount(ctx context.Context, id, ownerID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAccount, id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setAccountBalance = `-- name: SetAccountBalance :execrows
UPDATE accounts SET balance_cents = ?, updated_at = ?
WHERE id = ? AND owner_id = ?
`

func (q *Queries) SetAccountBalance(ctx context.Context, balanceCents int64, updatedAt, id, ownerID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, setAccountBalance, balanceCents, updatedAt, id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listAccountRefs = `-- name: ListAccountRefs :many
SELECT id, owner_id FROM accounts ORDER BY owner_id, id
`

type ListAccountRefsRow struct {
	ID      string
	OwnerID string
}

func (q *Queries) ListAccountRefs(ctx context.Context) ([]ListAccountRefsRow, error) {
	rows, err := q.db.QueryContext(ctx, listAccountRefs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListAccountRefsRow
	for rows.Next() {
		var i ListAccountRefsRow
		if err := rows.Scan(&i.ID, &i.OwnerID); err != nil {
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
