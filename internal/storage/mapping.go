package storage

import (
	"database/sql"
	"fmt"
	"time"

	"cofre/internal/core"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime tolerates empty and malformed values; timestamps are informative
// only and never drive ledger math.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(d core.Date) sql.NullString {
	return nullString(d.String())
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func toUser(row User) core.User {
	return core.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		CreatedAt:    parseTime(row.CreatedAt),
	}
}

func toAccount(row Account) core.Account {
	return core.Account{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Name:      row.Name,
		Type:      core.AccountType(row.Type),
		Balance:   core.Money{Cents: row.BalanceCents},
		Currency:  row.Currency,
		CreatedAt: parseTime(row.CreatedAt),
		UpdatedAt: parseTime(row.UpdatedAt),
	}
}

func toCategory(row Category) core.Category {
	return core.Category{
		ID:      row.ID,
		OwnerID: row.OwnerID,
		Name:    row.Name,
		Kind:    core.CategoryKind(row.Kind),
		Color:   row.Color,
	}
}

func toTransaction(row Transaction) (core.Transaction, error) {
	d, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s has bad date %q: %w", row.ID, row.Date, err)
	}
	t := core.Transaction{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		AccountID:   row.AccountID,
		CategoryID:  row.CategoryID.String,
		Amount:      core.Money{Cents: row.AmountCents},
		Type:        core.TransactionType(row.Type),
		Date:        d,
		Description: row.Description,
		IsRecurring: row.IsRecurring == 1,
		Recurrence:  core.RepetitionTypes(row.Recurrence.String),
		CreatedAt:   parseTime(row.CreatedAt),
		UpdatedAt:   parseTime(row.UpdatedAt),
	}
	if row.LastGeneratedAt.Valid {
		t.LastGeneratedAt = parseTime(row.LastGeneratedAt.String)
	}
	return t, nil
}

func toTransactions(rows []Transaction) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func fromTransaction(t core.Transaction) Transaction {
	row := Transaction{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		AccountID:   t.AccountID,
		CategoryID:  nullString(t.CategoryID),
		AmountCents: t.Amount.Cents,
		Type:        string(t.Type),
		Date:        t.Date.String(),
		Description: t.Description,
		IsRecurring: boolToInt(t.IsRecurring),
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
	if t.IsRecurring {
		row.Recurrence = nullString(string(t.Recurrence))
	}
	if !t.LastGeneratedAt.IsZero() {
		row.LastGeneratedAt = nullString(formatTime(t.LastGeneratedAt))
	}
	return row
}

func toGoal(row Goal) (core.Goal, error) {
	start, err := core.ParseDate(row.StartDate)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal %s has bad start date %q: %w", row.ID, row.StartDate, err)
	}
	g := core.Goal{
		ID:           row.ID,
		OwnerID:      row.OwnerID,
		Name:         row.Name,
		Target:       core.Money{Cents: row.TargetCents},
		Current:      core.Money{Cents: row.CurrentCents},
		StartDate:    start,
		CategoryID:   row.CategoryID.String,
		AccountID:    row.AccountID.String,
		SavingsBoxID: row.SavingsBoxID.String,
		Completed:    row.Completed == 1,
		CreatedAt:    parseTime(row.CreatedAt),
		UpdatedAt:    parseTime(row.UpdatedAt),
	}
	if row.TargetDate.Valid {
		if g.TargetDate, err = core.ParseDate(row.TargetDate.String); err != nil {
			return core.Goal{}, fmt.Errorf("goal %s has bad target date %q: %w", row.ID, row.TargetDate.String, err)
		}
	}
	return g, nil
}

func fromGoal(g core.Goal) Goal {
	return Goal{
		ID:           g.ID,
		OwnerID:      g.OwnerID,
		Name:         g.Name,
		TargetCents:  g.Target.Cents,
		CurrentCents: g.Current.Cents,
		StartDate:    g.StartDate.String(),
		TargetDate:   nullDate(g.TargetDate),
		CategoryID:   nullString(g.CategoryID),
		AccountID:    nullString(g.AccountID),
		SavingsBoxID: nullString(g.SavingsBoxID),
		Completed:    boolToInt(g.Completed),
		CreatedAt:    formatTime(g.CreatedAt),
		UpdatedAt:    formatTime(g.UpdatedAt),
	}
}

func toSavingsBox(row SavingsBox) core.SavingsBox {
	b := core.SavingsBox{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Name:      row.Name,
		Current:   core.Money{Cents: row.CurrentCents},
		Color:     row.Color,
		Icon:      row.Icon,
		State:     core.BoxState(row.State),
		CreatedAt: parseTime(row.CreatedAt),
		UpdatedAt: parseTime(row.UpdatedAt),
	}
	if row.TargetCents.Valid {
		b.Target = core.Money{Cents: row.TargetCents.Int64}
	}
	return b
}

func fromSavingsBox(b core.SavingsBox) SavingsBox {
	return SavingsBox{
		ID:           b.ID,
		OwnerID:      b.OwnerID,
		Name:         b.Name,
		CurrentCents: b.Current.Cents,
		TargetCents:  sql.NullInt64{Int64: b.Target.Cents, Valid: b.HasTarget()},
		Color:        b.Color,
		Icon:         b.Icon,
		State:        string(b.State),
		CreatedAt:    formatTime(b.CreatedAt),
		UpdatedAt:    formatTime(b.UpdatedAt),
	}
}
