package core

import "errors"

// ValidationError reports malformed or missing input. Its message is safe to show to users.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// DomainError reports an operation that is well-formed but breaks a ledger rule.
type DomainError struct {
	msg string
}

func (e *DomainError) Error() string { return e.msg }

func invalid(msg string) error { return &ValidationError{msg: msg} }

// NewValidationError builds a ValidationError for input problems detected
// outside the domain, such as a malformed request body.
func NewValidationError(msg string) error { return invalid(msg) }

func violation(msg string) error { return &DomainError{msg: msg} }

// ErrNotFound covers both missing rows and rows owned by someone else.
var ErrNotFound = errors.New("not found")

// ErrInvalidCredentials is returned by login for unknown emails and wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

var (
	ErrInvalidAmount          = invalid("amount must be greater than zero")
	ErrNegativeAmount         = invalid("amount cannot be negative")
	ErrAmountOverflow         = invalid("amount is too large")
	ErrInvalidDate            = invalid("invalid date, expected YYYY-MM-DD")
	ErrEmptyName              = invalid("name cannot be empty")
	ErrNameTooLong            = invalid("name too long (max 100 characters)")
	ErrDescriptionTooLong     = invalid("description too long (max 200 characters)")
	ErrInvalidAccountType     = invalid("invalid account type")
	ErrInvalidCurrency        = invalid("currency must be a 3-letter code")
	ErrInvalidCategoryKind    = invalid("category kind must be income or expense")
	ErrInvalidTransactionType = invalid("type must be INCOME or EXPENSE")
	ErrInvalidRecurrence      = invalid("invalid recurrence, expected daily, weekly, monthly or yearly")
	ErrMissingAccount         = invalid("account_id is required")
	ErrMissingID              = invalid("id is required")
	ErrInvalidTarget          = invalid("target amount must be greater than zero")
	ErrTargetBeforeStart      = invalid("target date must not be before start date")
	ErrInvalidEmail           = invalid("invalid email")
	ErrWeakPassword           = invalid("password must be at least 8 characters")
	ErrSameBox                = invalid("cannot transfer to the same savings box")
)

var (
	ErrInsufficientFunds = violation("insufficient funds in savings box")
	ErrBoxHasBalance     = violation("savings box still holds money; withdraw it before deleting")
	ErrBoxLinkedToGoal   = violation("savings box is linked to a goal; unlink it before deleting")
	ErrBoxInactive       = violation("savings box is inactive")
	ErrEmailTaken        = violation("email already registered")
)

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsDomain reports whether err is a DomainError.
func IsDomain(err error) bool {
	var d *DomainError
	return errors.As(err, &d)
}
