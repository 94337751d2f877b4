package storage

import (
	"context"
	"database/sql"
)

const goalColumns = `id, owner_id, name, target_cents, current_cents, start_date, target_date,
    category_id, account_id, savings_box_id, completed, created_at, updated_at`

func scanGoal(s rowScanner) (Goal, error) {
	var i Goal
	err := s.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Name,
		&i.TargetCents,
		&i.CurrentCents,
		&i.StartDate,
		&i.TargetDate,
		&i.CategoryID,
		&i.AccountID,
		&i.SavingsBoxID,
		&i.Completed,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createGoal = `-- name: CreateGoal :exec
INSERT INTO goals (id, owner_id, name, target_cents, current_cents, start_date, target_date,
    category_id, account_id, savings_box_id, completed, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateGoal(ctx context.Context, arg Goal) error {
	_, err := q.db.ExecContext(ctx, createGoal,
		arg.ID,
		arg.OwnerID,
		arg.Name,
		arg.TargetCents,
		arg.CurrentCents,
		arg.StartDate,
		arg.TargetDate,
		arg.CategoryID,
		arg.AccountID,
		arg.SavingsBoxID,
		arg.Completed,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getGoal = `-- name: GetGoal :one
SELECT ` + goalColumns + ` FROM goals
WHERE id = ? AND owner_id = ?
`

func (q *Queries) GetGoal(ctx context.Context, id, ownerID string) (Goal, error) {
	return scanGoal(q.db.QueryRowContext(ctx, getGoal, id, ownerID))
}

const listGoals = `-- name: ListGoals :many
SELECT ` + goalColumns + ` FROM goals
WHERE owner_id = ?
ORDER BY completed, start_date, name
`

func (q *Queries) ListGoals(ctx context.Context, ownerID string) ([]Goal, error) {
	rows, err := q.db.QueryContext(ctx, listGoals, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Goal
	for rows.Next() {
		i, err := scanGoal(rows)
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

const updateGoal = `-- name: UpdateGoal :execrows
UPDATE goals
SET name = ?, target_cents = ?, current_cents = ?, start_date = ?, target_date = ?,
    category_id = ?, account_id = ?, savings_box_id = ?, completed = ?, updated_at = ?
WHERE id = ? AND owner_id = ?
`

func (q *Queries) UpdateGoal(ctx context.Context, arg Goal) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateGoal,
		arg.Name,
		arg.TargetCents,
		arg.CurrentCents,
		arg.StartDate,
		arg.TargetDate,
		arg.CategoryID,
		arg.AccountID,
		arg.SavingsBoxID,
		arg.Completed,
		arg.UpdatedAt,
		arg.ID,
		arg.OwnerID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const addGoalProgress = `-- name: AddGoalProgress :execrows
UPDATE goals
SET current_cents = current_cents + ?,
    completed = CASE WHEN current_cents + ? >= target_cents THEN 1 ELSE 0 END,
    updated_at = ?
WHERE id = ? AND owner_id = ?
`

// AddGoalProgress applies a contribution and recomputes completion in one
// statement.
func (q *Queries) AddGoalProgress(ctx context.Context, amountCents int64, updatedAt, id, ownerID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, addGoalProgress, amountCents, amountCents, updatedAt, id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteGoal = `-- name: DeleteGoal :execrows
DELETE FROM goals WHERE id = ? AND owner_id = ?
`

func (q *Queries) DeleteGoal(ctx context.Context, id, ownerID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteGoal, id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countGoalsLinkedToBox = `-- name: CountGoalsLinkedToBox :one
SELECT COUNT(*) FROM goals WHERE savings_box_id = ? AND owner_id = ?
`

func (q *Queries) CountGoalsLinkedToBox(ctx context.Context, boxID, ownerID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countGoalsLinkedToBox, boxID, ownerID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listLinkedBoxIDs = `-- name: ListLinkedBoxIDs :many
SELECT DISTINCT savings_box_id FROM goals
WHERE owner_id = ? AND savings_box_id IS NOT NULL
`

func (q *Queries) ListLinkedBoxIDs(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listLinkedBoxIDs, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id sql.NullString
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if id.Valid {
			items = append(items, id.String)
		}
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
