package core

import "errors"

const (
	Income   TransactionKind = "income"
	Expense  TransactionKind = "expense"
	Transfer TransactionKind = "transfer"
)

const (
	CategoryIncome  CategoryKind = "income"
	CategoryExpense CategoryKind = "expense"
)

type (
	TransactionKind string

	CategoryKind string

	Account struct {
		ID             int64
		Name           string
		InitialBalance Money
	}

	Category struct {
		ID   int64
		Name string
		Kind CategoryKind
	}

	// Transaction is a single recorded monetary event. The log is
	// append-only: rows are never updated or deleted.
	Transaction struct {
		ID                   int64
		Kind                 TransactionKind
		OccurredAt           string // sortable, YYYY-MM-DDTHH:MM:SS
		Amount               Money
		CategoryID           *int64 // required for income/expense, absent for transfer
		SourceAccountID      int64
		DestinationAccountID *int64 // required for transfer only
		Memo                 string
	}
)

var (
	ErrInvalidKind          = errors.New("invalid transaction kind")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrUnknownAccount       = errors.New("unknown account")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrMissingDestination   = errors.New("transfer requires a destination account")
	ErrMissingCategory      = errors.New("income and expense transactions require a category")
	ErrCategoryKindMismatch = errors.New("category kind does not match transaction kind")
	ErrDuplicateName        = errors.New("name already exists")
	ErrEmptyName            = errors.New("name cannot be empty")
	ErrAccountNotFound      = errors.New("account not found")
	ErrInvalidMonth         = errors.New("invalid month")
	ErrInvalidTimestamp     = errors.New("invalid timestamp")
)

func (k TransactionKind) Valid() bool {
	switch k {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

func (k CategoryKind) Valid() bool {
	switch k {
	case CategoryIncome, CategoryExpense:
		return true
	}
	return false
}

// Matches reports whether a category of kind k may label a transaction of
// kind tk. Only income and expense transactions carry categories.
func (k CategoryKind) Matches(tk TransactionKind) bool {
	return string(k) == string(tk)
}
