package storage

import "database/sql"

// Row types mirror the tables one to one. Dates are TEXT (YYYY-MM-DD) and
// timestamps are RFC 3339 TEXT; conversion to domain types happens in the
// repository.

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    string
}

type Account struct {
	ID           string
	OwnerID      string
	Name         string
	Type         string
	BalanceCents int64
	Currency     string
	CreatedAt    string
	UpdatedAt    string
}

type Category struct {
	ID        string
	OwnerID   string
	Name      string
	Kind      string
	Color     string
	CreatedAt string
}

type Transaction struct {
	ID              string
	OwnerID         string
	AccountID       string
	CategoryID      sql.NullString
	AmountCents     int64
	Type            string
	Date            string
	Description     string
	IsRecurring     int64
	Recurrence      sql.NullString
	LastGeneratedAt sql.NullString
	CreatedAt       string
	UpdatedAt       string
}

type SavingsBox struct {
	ID           string
	OwnerID      string
	Name         string
	CurrentCents int64
	TargetCents  sql.NullInt64
	Color        string
	Icon         string
	State        string
	CreatedAt    string
	UpdatedAt    string
}

type Goal struct {
	ID           string
	OwnerID      string
	Name         string
	TargetCents  int64
	CurrentCents int64
	StartDate    string
	TargetDate   sql.NullString
	CategoryID   sql.NullString
	AccountID    sql.NullString
	SavingsBoxID sql.NullString
	Completed    int64
	CreatedAt    string
	UpdatedAt    string
}
