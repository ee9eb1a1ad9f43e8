// Package storage persists the ledger in SQLite and is the single owner of
// every derived computation over the transaction log. Balances and summaries
// are recomputed from the full history on each call; nothing is cached.
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

	"financas/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// foreign_keys is per-connection in SQLite, so it goes in the DSN
	// rather than a one-off PRAGMA exec.
	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateAccount inserts a new account. Names are unique; a duplicate fails
// with core.ErrDuplicateName.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, name string, initialBalance core.Money) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, core.ErrEmptyName
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("begin create account", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE name = ?)`, name).Scan(&exists)
	if err != nil {
		return 0, storageErr("check account name", err)
	}
	if exists {
		return 0, core.ErrDuplicateName
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (name, initial_balance_cents) VALUES (?, ?)`,
		name, initialBalance.Cents)
	if err != nil {
		return 0, storageErr("insert account", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("account insert id", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, storageErr("commit create account", err)
	}

	slog.InfoContext(ctx, "Account created",
		"id", id,
		"name", name,
		"initial_balance_cents", initialBalance.Cents)
	return id, nil
}

// GetAccount loads a single account by id.
func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, initial_balance_cents FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.InitialBalance.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, storageErr("get account", err)
	}
	return a, nil
}

// CreateOrGetCategory inserts a category or, when the (name, kind) pair
// already exists, returns the existing id. Calling it twice with the same
// arguments yields the same id.
func (r *SQLiteRepository) CreateOrGetCategory(ctx context.Context, name string, kind core.CategoryKind) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, core.ErrEmptyName
	}
	if !kind.Valid() {
		return 0, core.ErrInvalidKind
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("begin create category", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (name, kind) VALUES (?, ?)`, name, string(kind))
	if err != nil {
		return 0, storageErr("insert category", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("category rows affected", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE name = ? AND kind = ?`, name, string(kind)).Scan(&id)
	if err != nil {
		return 0, storageErr("select category id", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, storageErr("commit create category", err)
	}

	if inserted > 0 {
		slog.InfoContext(ctx, "Category created", "id", id, "name", name, "kind", kind)
	}
	return id, nil
}

// ListCategories returns categories ordered by kind then name, optionally
// filtered to one kind.
func (r *SQLiteRepository) ListCategories(ctx context.Context, kind *core.CategoryKind) ([]core.Category, error) {
	query := `SELECT id, name, kind FROM categories`
	var args []any
	if kind != nil {
		if !kind.Valid() {
			return nil, core.ErrInvalidKind
		}
		query += ` WHERE kind = ?`
		args = append(args, string(*kind))
	}
	query += ` ORDER BY kind, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		var k string
		if err := rows.Scan(&c.ID, &c.Name, &k); err != nil {
			return nil, storageErr("scan category", err)
		}
		c.Kind = core.CategoryKind(k)
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate categories", err)
	}
	return cats, nil
}

// RecordTransaction validates and appends a transaction inside one SQL
// transaction, so the referential checks and the insert cannot be
// interleaved by another writer. The checks run in a fixed order; each rule
// fails with its own sentinel error:
//
//  1. kind must be income, expense or transfer
//  2. amount must not be negative
//  3. the source account must exist
//  4. the destination account, when given, must exist
//  5. a transfer requires a destination; any category id is ignored
//  6. income/expense require an existing category of the matching kind
func (r *SQLiteRepository) RecordTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if !t.Kind.Valid() {
		return 0, core.ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("begin record transaction", err)
	}
	defer tx.Rollback()

	if err := r.accountExists(ctx, tx, t.SourceAccountID); err != nil {
		return 0, err
	}
	if t.DestinationAccountID != nil {
		if err := r.accountExists(ctx, tx, *t.DestinationAccountID); err != nil {
			return 0, err
		}
	}

	switch t.Kind {
	case core.Transfer:
		if t.DestinationAccountID == nil {
			return 0, core.ErrMissingDestination
		}
		t.CategoryID = nil
	default: // income, expense
		if t.CategoryID == nil {
			return 0, core.ErrMissingCategory
		}
		var kind string
		err := tx.QueryRowContext(ctx,
			`SELECT kind FROM categories WHERE id = ?`, *t.CategoryID).Scan(&kind)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, core.ErrUnknownCategory
		}
		if err != nil {
			return 0, storageErr("check category", err)
		}
		if !core.CategoryKind(kind).Matches(t.Kind) {
			return 0, core.ErrCategoryKindMismatch
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions
		   (kind, occurred_at, amount_cents, category_id, source_account_id, destination_account_id, memo)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(t.Kind), t.OccurredAt, t.Amount.Cents,
		nullableID(t.CategoryID), t.SourceAccountID, nullableID(t.DestinationAccountID),
		nullableString(t.Memo))
	if err != nil {
		return 0, storageErr("insert transaction", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("transaction insert id", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, storageErr("commit record transaction", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", id,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"source_account_id", t.SourceAccountID,
		"occurred_at", t.OccurredAt)
	return id, nil
}

func (r *SQLiteRepository) accountExists(ctx context.Context, tx *sql.Tx, id int64) error {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return storageErr("check account", err)
	}
	if !exists {
		return core.ErrUnknownAccount
	}
	return nil
}

// AccountBalance derives the current balance from the full history:
// initial balance, plus income into the account, minus expenses and
// transfers out of it, plus transfers into it. A transfer is the one
// transaction with two ledger effects.
func (r *SQLiteRepository) AccountBalance(ctx context.Context, accountID int64) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT a.initial_balance_cents
		  + COALESCE((SELECT SUM(amount_cents) FROM transactions
		              WHERE source_account_id = a.id AND kind = 'income'), 0)
		  - COALESCE((SELECT SUM(amount_cents) FROM transactions
		              WHERE source_account_id = a.id AND kind = 'expense'), 0)
		  - COALESCE((SELECT SUM(amount_cents) FROM transactions
		              WHERE source_account_id = a.id AND kind = 'transfer'), 0)
		  + COALESCE((SELECT SUM(amount_cents) FROM transactions
		              WHERE destination_account_id = a.id AND kind = 'transfer'), 0)
		FROM accounts a WHERE a.id = ?`, accountID).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Money{}, storageErr("account balance", err)
	}
	return core.Money{Cents: cents}, nil
}

// ListAccountSummaries returns every account with its derived balance,
// ordered by name. Any balance failure fails the whole listing: a store
// that cannot produce one balance is inconsistent, not partially readable.
func (r *SQLiteRepository) ListAccountSummaries(ctx context.Context) ([]core.AccountSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, initial_balance_cents FROM accounts ORDER BY name`)
	if err != nil {
		return nil, storageErr("list accounts", err)
	}
	defer rows.Close()

	var summaries []core.AccountSummary
	for rows.Next() {
		var s core.AccountSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.InitialBalance.Cents); err != nil {
			return nil, storageErr("scan account", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate accounts", err)
	}

	for i := range summaries {
		balance, err := r.AccountBalance(ctx, summaries[i].ID)
		if err != nil {
			return nil, fmt.Errorf("balance for account %d: %w", summaries[i].ID, err)
		}
		summaries[i].CurrentBalance = balance
	}
	return summaries, nil
}

// MonthSummary totals income and expense over the half-open window
// [first of month, first of next month). Transfers shift value between
// accounts and count in neither total.
func (r *SQLiteRepository) MonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	start, end, err := core.MonthWindow(year, month)
	if err != nil {
		return core.MonthSummary{}, err
	}

	summary := core.MonthSummary{Year: year, Month: month}
	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_cents END), 0),
		       COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount_cents END), 0)
		FROM transactions
		WHERE occurred_at >= ? AND occurred_at < ?`, start, end).
		Scan(&summary.Income.Cents, &summary.Expense.Cents)
	if err != nil {
		return core.MonthSummary{}, storageErr("month summary", err)
	}
	summary.Net = summary.Income.Sub(summary.Expense)
	return summary, nil
}

const transactionRowSelect = `
	SELECT t.id, t.kind, t.occurred_at, t.amount_cents,
	       t.source_account_id, sa.name,
	       t.destination_account_id, da.name,
	       t.category_id, c.name,
	       t.memo
	FROM transactions t
	JOIN accounts sa ON sa.id = t.source_account_id
	LEFT JOIN accounts da ON da.id = t.destination_account_id
	LEFT JOIN categories c ON c.id = t.category_id`

// ListTransactions returns enriched rows newest first; rows sharing a
// timestamp come back in reverse insertion order. The account filter
// matches either side of a transfer.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.TransactionRow, error) {
	query := transactionRowSelect
	var conds []string
	var args []any

	if f.AccountID != nil {
		conds = append(conds, `(t.source_account_id = ? OR t.destination_account_id = ?)`)
		args = append(args, *f.AccountID, *f.AccountID)
	}
	if f.HasMonth() {
		start, end, err := core.MonthWindow(f.Year, f.Month)
		if err != nil {
			return nil, err
		}
		conds = append(conds, `t.occurred_at >= ? AND t.occurred_at < ?`)
		args = append(args, start, end)
	}
	if len(conds) > 0 {
		query += "\n\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\tORDER BY t.occurred_at DESC, t.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list transactions", err)
	}
	defer rows.Close()

	var result []core.TransactionRow
	for rows.Next() {
		row, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate transactions", err)
	}
	return result, nil
}

// GetTransactionRow loads one enriched row by id, used by the export worker.
func (r *SQLiteRepository) GetTransactionRow(ctx context.Context, id int64) (core.TransactionRow, error) {
	row := r.db.QueryRowContext(ctx, transactionRowSelect+"\n\tWHERE t.id = ?", id)
	tr, err := scanTransactionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TransactionRow{}, fmt.Errorf("transaction %d not found", id)
	}
	if err != nil {
		return core.TransactionRow{}, err
	}
	return tr, nil
}

// CountAccounts reports how many accounts exist, used by seeding.
func (r *SQLiteRepository) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM accounts`).Scan(&n); err != nil {
		return 0, storageErr("count accounts", err)
	}
	return n, nil
}

// CountCategories reports how many categories exist, used by seeding.
func (r *SQLiteRepository) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM categories`).Scan(&n); err != nil {
		return 0, storageErr("count categories", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransactionRow(s rowScanner) (core.TransactionRow, error) {
	var (
		row      core.TransactionRow
		kind     string
		destID   sql.NullInt64
		destName sql.NullString
		catID    sql.NullInt64
		catName  sql.NullString
		memo     sql.NullString
	)
	err := s.Scan(&row.ID, &kind, &row.OccurredAt, &row.Amount.Cents,
		&row.SourceAccountID, &row.SourceAccountName,
		&destID, &destName,
		&catID, &catName,
		&memo)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TransactionRow{}, err
	}
	if err != nil {
		return core.TransactionRow{}, storageErr("scan transaction", err)
	}
	row.Kind = core.TransactionKind(kind)
	if destID.Valid {
		id := destID.Int64
		row.DestinationAccountID = &id
		row.DestinationAccountName = destName.String
	}
	if catID.Valid {
		id := catID.Int64
		row.CategoryID = &id
		row.CategoryName = catName.String
	}
	row.Memo = memo.String
	return row, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
