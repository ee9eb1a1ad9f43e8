package core

// AccountSummary pairs an account with its derived current balance.
type AccountSummary struct {
	ID             int64
	Name           string
	InitialBalance Money
	CurrentBalance Money
}

// MonthSummary aggregates one calendar month. Transfers move value between
// accounts without changing the household total, so they appear in neither
// column.
type MonthSummary struct {
	Year    int
	Month   int // 1-12
	Income  Money
	Expense Money
	Net     Money
}

// TransactionRow is a listing entry enriched with resolved names. A transfer
// has no category; the category fields stay empty rather than dropping the
// row.
type TransactionRow struct {
	ID                     int64
	Kind                   TransactionKind
	OccurredAt             string
	Amount                 Money
	SourceAccountID        int64
	SourceAccountName      string
	DestinationAccountID   *int64
	DestinationAccountName string
	CategoryID             *int64
	CategoryName           string
	Memo                   string
}

// TransactionFilter narrows a transaction listing. The zero value matches
// everything. Account matches source or destination. Year and Month come
// together or not at all.
type TransactionFilter struct {
	AccountID *int64
	Year      int
	Month     int
}

// HasMonth reports whether the filter carries a month window.
func (f TransactionFilter) HasMonth() bool {
	return f.Year != 0 || f.Month != 0
}
