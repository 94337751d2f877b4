package core

import (
	"strings"
	"time"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	Monthly RepetitionTypes = "monthly"
	Yearly  RepetitionTypes = "yearly"
	Weekly  RepetitionTypes = "weekly"
	Daily   RepetitionTypes = "daily"
)

const (
	AccountBank       AccountType = "bank"
	AccountCreditCard AccountType = "credit_card"
	AccountCash       AccountType = "cash"
	AccountInvestment AccountType = "investment"
	AccountOther      AccountType = "other"
)

const (
	CategoryIncome  CategoryKind = "income"
	CategoryExpense CategoryKind = "expense"
)

// DefaultCurrency is used when an account is created without one.
const DefaultCurrency = "BRL"

type (
	TransactionType string
	RepetitionTypes string
	AccountType     string
	CategoryKind    string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID           string
		Email        string
		Name         string
		PasswordHash string
		CreatedAt    time.Time
	}

	Account struct {
		ID        string
		OwnerID   string
		Name      string
		Type      AccountType
		Balance   Money // projected, see ProjectBalance
		Currency  string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// AccountRef identifies an account across owners for background sweeps.
	AccountRef struct {
		ID      string
		OwnerID string
	}

	Category struct {
		ID      string
		OwnerID string
		Name    string
		Kind    CategoryKind
		Color   string
	}

	Transaction struct {
		ID          string
		OwnerID     string
		AccountID   string
		CategoryID  string // empty when untagged
		Amount      Money  // always a positive magnitude
		Type        TransactionType
		Date        Date
		Description string
		IsRecurring bool
		Recurrence  RepetitionTypes
		// LastGeneratedAt is set on recurring templates once an occurrence is materialized.
		LastGeneratedAt time.Time
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	// TransactionFilter narrows a transaction listing. Zero values mean "no filter".
	TransactionFilter struct {
		AccountID  string
		CategoryID string
		Type       TransactionType
		From       Date
		To         Date
	}

	CategoryAmount struct {
		CategoryID string
		Name       string
		Amount     Money
	}
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Signed returns the amount with the sign the ledger applies to it.
func (t Transaction) Signed() int64 {
	if t.Type == Income {
		return t.Amount.Cents
	}
	return -t.Amount.Cents
}

func (a AccountType) Valid() bool {
	switch a {
	case AccountBank, AccountCreditCard, AccountCash, AccountInvestment, AccountOther:
		return true
	}
	return false
}

func (k CategoryKind) Valid() bool {
	return k == CategoryIncome || k == CategoryExpense
}

func (r RepetitionTypes) Valid() bool {
	switch r {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateLayout is the wire and storage format of calendar days.
const DateLayout = "2006-01-02"

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (u User) Validate() error {
	if !strings.Contains(u.Email, "@") || len(u.Email) > 254 {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return ErrNameTooLong
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	if len(a.Currency) != 3 {
		return ErrInvalidCurrency
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return ErrNameTooLong
	}
	if !c.Kind.Valid() {
		return ErrInvalidCategoryKind
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrMissingAccount
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if t.IsRecurring && !t.Recurrence.Valid() {
		return ErrInvalidRecurrence
	}
	return nil
}
