package storage

import "context"

const savingsBoxColumns = `id, owner_id, name, current_cents, target_cents, color, icon, state, created_at, updated_at`

func scanSavingsBox(s rowScanner) (SavingsBox, error) {
	var i SavingsBox
	err := s.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Name,
		&i.CurrentCents,
		&i.TargetCents,
		&i.Color,
		&i.Icon,
		&i.State,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createSavingsBox = `-- name: CreateSavingsBox :exec
INSERT INTO savings_boxes (id, owner_id, name, current_cents, target_cents, color, icon, state, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateSavingsBox(ctx context.Context, arg SavingsBox) error {
	_, err := q.db.ExecContext(ctx, createSavingsBox,
		arg.ID,
		arg.OwnerID,
		arg.Name,
		arg.CurrentCents,
		arg.TargetCents,
		arg.Color,
		arg.Icon,
		arg.State,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getSavingsBox = `-- name: GetSavingsBox :one
SELECT ` + savingsBoxColumns + ` FROM savings_boxes
WHERE id = ? AND owner_id = ?
`

func (q *Queries) GetSavingsBox(ctx context.Context, id, ownerID string) (SavingsBox, error) {
	return scanSavingsBox(q.db.QueryRowContext(ctx, getSavingsBox, id, ownerID))
}

const listSavingsBoxes = `-- name: ListSavingsBoxes :many
SELECT ` + savingsBoxColumns + ` FROM savings_boxes
WHERE owner_id = ? AND (? = 1 OR state = 'active')
ORDER BY state, name
`

func (q *Queries) ListSavingsBoxes(ctx context.Context, ownerID string, includeInactive bool) ([]SavingsBox, error) {
	var all int64
	if includeInactive {
		all = 1
	}
	rows, err := q.db.QueryContext(ctx, listSavingsBoxes, ownerID, all)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SavingsBox
	for rows.Next() {
		i, err := scanSavingsBox(rows)
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

const updateSavingsBox = `-- name: UpdateSavingsBox :execrows
UPDATE savings_boxes
SET name = ?, current_cents = ?, target_cents = ?, color = ?, icon = ?, state = ?, updated_at = ?
WHERE id = ? AND owner_id = ?
`

// UpdateSavingsBox rewrites every mutable column. Deposits, withdrawals and
// soft deletes all go through it after the domain checks pass.
func (q *Queries) UpdateSavingsBox(ctx context.Context, arg SavingsBox) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateSavingsBox,
		arg.Name,
		arg.CurrentCents,
		arg.TargetCents,
		arg.Color,
		arg.Icon,
		arg.State,
		arg.UpdatedAt,
		arg.ID,
		arg.OwnerID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const withdrawFromSavingsBox = `-- name: WithdrawFromSavingsBox :execrows
UPDATE savings_boxes
SET current_cents = current_cents - ?, updated_at = ?
WHERE id = ? AND owner_id = ? AND state = 'active' AND current_cents >= ?
`

// WithdrawFromSavingsBox only affects the row when enough money is left, so a
// zero row count inside a transfer means the balance guard failed.
func (q *Queries) WithdrawFromSavingsBox(ctx context.Context, amountCents int64, updatedAt, id, ownerID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, withdrawFromSavingsBox, amountCents, updatedAt, id, ownerID, amountCents)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const depositToSavingsBox = `-- name: DepositToSavingsBox :execrows
UPDATE savings_boxes
SET current_cents = current_cents + ?, updated_at = ?
WHERE id = ? AND owner_id = ? AND state = 'active'
`

func (q *Queries) DepositToSavingsBox(ctx context.Context, amountCents int64, updatedAt, id, ownerID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, depositToSavingsBox, amountCents, updatedAt, id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
