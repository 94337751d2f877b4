package storage

import "context"

const createCategory = `-- name: CreateCategory :exec
INSERT INTO categories (id, owner_id, name, kind, color, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

type CreateCategoryParams struct {
	ID        string
	OwnerID   string
	Name      string
	Kind      string
	Color     string
	CreatedAt string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) error {
	_, err := q.db.ExecContext(ctx, createCategory,
		arg.ID,
		arg.OwnerID,
		arg.Name,
		arg.Kind,
		arg.Color,
		arg.CreatedAt,
	)
	return err
}

const getCategory = `-- name: GetCategory :one
SELECT id, owner_id, name, kind, color, created_at FROM categories
WHERE id = ? AND owner_id = ?
`

func (q *Queries) GetCategory(ctx context.Context, id, ownerID string) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategory, id, ownerID)
	var i Category
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Name,
		&i.Kind,
		&i.Color,
		&i.CreatedAt,
	)
	return i, err
}

const listCategories = `-- name: ListCategories :many
SELECT id, owner_id, name, kind, color, created_at FROM categories
WHERE owner_id = ?
ORDER BY kind, name
`

func (q *Queries) ListCategories(ctx context.Context, ownerID string) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.Name,
			&i.Kind,
			&i.Color,
			&i.CreatedAt,
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

const updateCategory = `-- name: UpdateCategory :execrows
UPDATE categories SET name = ?, kind = ?, color = ?
WHERE id = ? AND owner_id = ?
`

type UpdateCategoryParams struct {
	Name    string
	Kind    string
	Color   string
	ID      string
	OwnerID string
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateCategory,
		arg.Name,
		arg.Kind,
		arg.Color,
		arg.ID,
		arg.OwnerID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteCategory = `-- name: DeleteCategory :execrows
DELETE FROM categories WHERE id = ? AND owner_id = ?
`

func (q *Queries) DeleteCategory(ctx context.Context, id, ownerID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCategory, id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
