package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cofre/internal/core"

	_ "modernc.org/sqlite"
)

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Migrations run on their own connection before the main pool is opened.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers anyway; a single connection keeps pragmas and
	// transactions on the same handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ---- users ----

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	err := r.queries.CreateUser(ctx, CreateUserParams{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    formatTime(u.CreatedAt),
	})
	if isUniqueViolation(err) {
		return core.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	row, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return core.User{}, notFound(err, "get user")
	}
	return toUser(row), nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, notFound(err, "get user by email")
	}
	return toUser(row), nil
}

func (r *SQLiteRepository) UpdateUserName(ctx context.Context, id, name string) error {
	n, err := r.queries.UpdateUserName(ctx, name, id)
	return affected(n, err, "update user name")
}

// ---- accounts ----

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) error {
	err := r.queries.CreateAccount(ctx, CreateAccountParams{
		ID:        a.ID,
		OwnerID:   a.OwnerID,
		Name:      a.Name,
		Type:      string(a.Type),
		Currency:  a.Currency,
		CreatedAt: formatTime(a.CreatedAt),
		UpdatedAt: formatTime(a.UpdatedAt),
	})
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	slog.DebugContext(ctx, "Account saved to SQLite", "id", a.ID, "owner_id", a.OwnerID)
	return nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, ownerID, id string) (core.Account, error) {
	row, err := r.queries.GetAccount(ctx, id, ownerID)
	if err != nil {
		return core.Account{}, notFound(err, "get account")
	}
	return toAccount(row), nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, ownerID string) ([]core.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]core.Account, len(rows))
	for i, row := range rows {
		out[i] = toAccount(row)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	n, err := r.queries.UpdateAccount(ctx, UpdateAccountParams{
		Name:      a.Name,
		Type:      string(a.Type),
		Currency:  a.Currency,
		UpdatedAt: formatTime(a.UpdatedAt),
		ID:        a.ID,
		OwnerID:   a.OwnerID,
	})
	return affected(n, err, "update account")
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, ownerID, id string) error {
	n, err := r.queries.DeleteAccount(ctx, id, ownerID)
	return affected(n, err, "delete account")
}

// SetAccountBalance is the only write path for the projected balance.
func (r *SQLiteRepository) SetAccountBalance(ctx context.Context, ownerID, id string, balance core.Money, at time.Time) error {
	n, err := r.queries.SetAccountBalance(ctx, balance.Cents, formatTime(at), id, ownerID)
	return affected(n, err, "set account balance")
}

func (r *SQLiteRepository) ListAccountRefs(ctx context.Context) ([]core.AccountRef, error) {
	rows, err := r.queries.ListAccountRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list account refs: %w", err)
	}
	out := make([]core.AccountRef, len(rows))
	for i, row := range rows {
		out[i] = core.AccountRef{ID: row.ID, OwnerID: row.OwnerID}
	}
	return out, nil
}

// ---- categories ----

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	err := r.queries.CreateCategory(ctx, CreateCategoryParams{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Name:      c.Name,
		Kind:      string(c.Kind),
		Color:     c.Color,
		CreatedAt: formatTime(time.Now()),
	})
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, ownerID, id string) (core.Category, error) {
	row, err := r.queries.GetCategory(ctx, id, ownerID)
	if err != nil {
		return core.Category{}, notFound(err, "get category")
	}
	return toCategory(row), nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i, row := range rows {
		out[i] = toCategory(row)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	n, err := r.queries.UpdateCategory(ctx, UpdateCategoryParams{
		Name:    c.Name,
		Kind:    string(c.Kind),
		Color:   c.Color,
		ID:      c.ID,
		OwnerID: c.OwnerID,
	})
	return affected(n, err, "update category")
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, ownerID, id string) error {
	n, err := r.queries.DeleteCategory(ctx, id, ownerID)
	return affected(n, err, "delete category")
}

// ---- transactions ----

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	if err := r.queries.CreateTransaction(ctx, fromTransaction(t)); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"account_id", t.AccountID,
		"amount_cents", t.Amount.Cents,
		"type", t.Type,
		"date", t.Date.String())
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id, ownerID)
	if err != nil {
		return core.Transaction{}, notFound(err, "get transaction")
	}
	return toTransaction(row)
}

// GetTransactionByID skips the owner filter. Only background workers that
// received the id from a trusted ledger event use it.
func (r *SQLiteRepository) GetTransactionByID(ctx context.Context, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		return core.Transaction{}, notFound(err, "get transaction by id")
	}
	return toTransaction(row)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string, f core.TransactionFilter) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, ListTransactionsParams{
		OwnerID:    ownerID,
		AccountID:  f.AccountID,
		CategoryID: f.CategoryID,
		Type:       string(f.Type),
		FromDate:   f.From.String(),
		ToDate:     f.To.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return toTransactions(rows)
}

func (r *SQLiteRepository) ListAccountTransactions(ctx context.Context, ownerID, accountID string) ([]core.Transaction, error) {
	rows, err := r.queries.ListAccountTransactions(ctx, accountID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list account transactions: %w", err)
	}
	return toTransactions(rows)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	n, err := r.queries.UpdateTransaction(ctx, fromTransaction(t))
	return affected(n, err, "update transaction")
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id, ownerID)
	return affected(n, err, "delete transaction")
}

func (r *SQLiteRepository) ListRecurringTemplates(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListRecurringTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	return toTransactions(rows)
}

func (r *SQLiteRepository) MarkRecurringGenerated(ctx context.Context, id string, at time.Time) error {
	ts := formatTime(at)
	if err := r.queries.MarkRecurringGenerated(ctx, ts, ts, id); err != nil {
		return fmt.Errorf("mark recurring generated: %w", err)
	}
	return nil
}

// ---- goals ----

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) error {
	if err := r.queries.CreateGoal(ctx, fromGoal(g)); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error) {
	row, err := r.queries.GetGoal(ctx, id, ownerID)
	if err != nil {
		return core.Goal{}, notFound(err, "get goal")
	}
	return toGoal(row)
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error) {
	rows, err := r.queries.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]core.Goal, 0, len(rows))
	for _, row := range rows {
		g, err := toGoal(row)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	n, err := r.queries.UpdateGoal(ctx, fromGoal(g))
	return affected(n, err, "update goal")
}

// AddGoalProgress adds amount to the goal and recomputes completion in a
// single UPDATE.
func (r *SQLiteRepository) AddGoalProgress(ctx context.Context, ownerID, id string, amount core.Money, at time.Time) error {
	n, err := r.queries.AddGoalProgress(ctx, amount.Cents, formatTime(at), id, ownerID)
	return affected(n, err, "add goal progress")
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, ownerID, id string) error {
	n, err := r.queries.DeleteGoal(ctx, id, ownerID)
	return affected(n, err, "delete goal")
}

func (r *SQLiteRepository) CountGoalsLinkedToBox(ctx context.Context, ownerID, boxID string) (int, error) {
	n, err := r.queries.CountGoalsLinkedToBox(ctx, boxID, ownerID)
	if err != nil {
		return 0, fmt.Errorf("count goals linked to box: %w", err)
	}
	return int(n), nil
}

func (r *SQLiteRepository) LinkedBoxIDs(ctx context.Context, ownerID string) (map[string]bool, error) {
	ids, err := r.queries.ListLinkedBoxIDs(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list linked box ids: %w", err)
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// ---- savings boxes ----

func (r *SQLiteRepository) CreateSavingsBox(ctx context.Context, b core.SavingsBox) error {
	if err := r.queries.CreateSavingsBox(ctx, fromSavingsBox(b)); err != nil {
		return fmt.Errorf("create savings box: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSavingsBox(ctx context.Context, ownerID, id string) (core.SavingsBox, error) {
	row, err := r.queries.GetSavingsBox(ctx, id, ownerID)
	if err != nil {
		return core.SavingsBox{}, notFound(err, "get savings box")
	}
	return toSavingsBox(row), nil
}

func (r *SQLiteRepository) ListSavingsBoxes(ctx context.Context, ownerID string, includeInactive bool) ([]core.SavingsBox, error) {
	rows, err := r.queries.ListSavingsBoxes(ctx, ownerID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list savings boxes: %w", err)
	}
	out := make([]core.SavingsBox, len(rows))
	for i, row := range rows {
		out[i] = toSavingsBox(row)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateSavingsBox(ctx context.Context, b core.SavingsBox) error {
	n, err := r.queries.UpdateSavingsBox(ctx, fromSavingsBox(b))
	return affected(n, err, "update savings box")
}

// DepositToBox adds amount to an active box in a single statement.
func (r *SQLiteRepository) DepositToBox(ctx context.Context, ownerID, id string, amount core.Money, at time.Time) error {
	n, err := r.queries.DepositToSavingsBox(ctx, amount.Cents, formatTime(at), id, ownerID)
	if err != nil {
		return fmt.Errorf("deposit to savings box: %w", err)
	}
	if n == 0 {
		return core.ErrBoxInactive
	}
	return nil
}

// WithdrawFromBox removes amount from an active box, guarded by the stored
// balance.
func (r *SQLiteRepository) WithdrawFromBox(ctx context.Context, ownerID, id string, amount core.Money, at time.Time) error {
	n, err := r.queries.WithdrawFromSavingsBox(ctx, amount.Cents, formatTime(at), id, ownerID)
	if err != nil {
		return fmt.Errorf("withdraw from savings box: %w", err)
	}
	if n == 0 {
		return core.ErrInsufficientFunds
	}
	return nil
}

// TransferBetweenBoxes moves amount from one box to another inside a single
// SQL transaction. The withdraw side is guarded by the stored balance so the
// source can never go negative.
func (r *SQLiteRepository) TransferBetweenBoxes(ctx context.Context, ownerID, fromID, toID string, amount core.Money, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	ts := formatTime(at)

	n, err := q.WithdrawFromSavingsBox(ctx, amount.Cents, ts, fromID, ownerID)
	if err != nil {
		return fmt.Errorf("transfer withdraw: %w", err)
	}
	if n == 0 {
		return core.ErrInsufficientFunds
	}
	n, err = q.DepositToSavingsBox(ctx, amount.Cents, ts, toID, ownerID)
	if err != nil {
		return fmt.Errorf("transfer deposit: %w", err)
	}
	if n == 0 {
		return core.ErrBoxInactive
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}
	slog.InfoContext(ctx, "Savings box transfer committed",
		"from_id", fromID,
		"to_id", toID,
		"amount_cents", amount.Cents)
	return nil
}

// ---- dashboard ----

func (r *SQLiteRepository) MonthTotals(ctx context.Context, ownerID string, from, to core.Date) (income, expense core.Money, err error) {
	row, err := r.queries.MonthTotals(ctx, ownerID, from.String(), to.String())
	if err != nil {
		return core.Money{}, core.Money{}, fmt.Errorf("month totals: %w", err)
	}
	return core.Money{Cents: row.IncomeCents}, core.Money{Cents: row.ExpenseCents}, nil
}

func (r *SQLiteRepository) ExpenseByCategory(ctx context.Context, ownerID string, from, to core.Date) ([]core.CategoryAmount, error) {
	rows, err := r.queries.ExpenseByCategory(ctx, ownerID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("expense by category: %w", err)
	}
	out := make([]core.CategoryAmount, len(rows))
	for i, row := range rows {
		out[i] = core.CategoryAmount{
			CategoryID: row.CategoryID,
			Name:       row.Name,
			Amount:     core.Money{Cents: row.TotalCents},
		}
	}
	return out, nil
}

// ---- helpers ----

func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func affected(n int64, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
