package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"financas/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustAccount(t *testing.T, repo *SQLiteRepository, name string, cents int64) int64 {
	t.Helper()
	id, err := repo.CreateAccount(context.Background(), name, core.Money{Cents: cents})
	if err != nil {
		t.Fatalf("CreateAccount(%q) failed: %v", name, err)
	}
	return id
}

func mustCategory(t *testing.T, repo *SQLiteRepository, name string, kind core.CategoryKind) int64 {
	t.Helper()
	id, err := repo.CreateOrGetCategory(context.Background(), name, kind)
	if err != nil {
		t.Fatalf("CreateOrGetCategory(%q, %s) failed: %v", name, kind, err)
	}
	return id
}

func mustRecord(t *testing.T, repo *SQLiteRepository, tx core.Transaction) int64 {
	t.Helper()
	id, err := repo.RecordTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("RecordTransaction failed: %v", err)
	}
	return id
}

func TestCreateAccount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := mustAccount(t, repo, "Wallet", 10000)
	if id == 0 {
		t.Error("expected a non-zero account id")
	}

	t.Run("duplicate name rejected", func(t *testing.T) {
		_, err := repo.CreateAccount(ctx, "Wallet", core.Money{})
		if !errors.Is(err, core.ErrDuplicateName) {
			t.Errorf("expected ErrDuplicateName, got %v", err)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := repo.CreateAccount(ctx, "   ", core.Money{})
		if !errors.Is(err, core.ErrEmptyName) {
			t.Errorf("expected ErrEmptyName, got %v", err)
		}
	})

	t.Run("negative initial balance allowed", func(t *testing.T) {
		id := mustAccount(t, repo, "Overdrawn", -2550)
		balance, err := repo.AccountBalance(ctx, id)
		if err != nil {
			t.Fatalf("AccountBalance failed: %v", err)
		}
		if balance.Cents != -2550 {
			t.Errorf("expected balance -2550, got %d", balance.Cents)
		}
	})

	t.Run("get unknown account", func(t *testing.T) {
		_, err := repo.GetAccount(ctx, 9999)
		if !errors.Is(err, core.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestCreateOrGetCategoryIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := mustCategory(t, repo, "Food", core.CategoryExpense)
	second := mustCategory(t, repo, "Food", core.CategoryExpense)
	if first != second {
		t.Errorf("expected the same id for repeated create, got %d and %d", first, second)
	}

	// Same name with the other kind is a distinct category.
	other := mustCategory(t, repo, "Food", core.CategoryIncome)
	if other == first {
		t.Error("expected a different id for the income kind")
	}

	t.Run("invalid kind rejected", func(t *testing.T) {
		_, err := repo.CreateOrGetCategory(ctx, "Misc", core.CategoryKind("weird"))
		if !errors.Is(err, core.ErrInvalidKind) {
			t.Errorf("expected ErrInvalidKind, got %v", err)
		}
	})
}

func TestListCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCategory(t, repo, "Transport", core.CategoryExpense)
	mustCategory(t, repo, "Food", core.CategoryExpense)
	mustCategory(t, repo, "Salary", core.CategoryIncome)

	all, err := repo.ListCategories(ctx, nil)
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(all))
	}
	// Ordered by kind then name: expense before income alphabetically.
	if all[0].Name != "Food" || all[1].Name != "Transport" || all[2].Name != "Salary" {
		t.Errorf("unexpected ordering: %v, %v, %v", all[0].Name, all[1].Name, all[2].Name)
	}

	expense := core.CategoryExpense
	filtered, err := repo.ListCategories(ctx, &expense)
	if err != nil {
		t.Fatalf("ListCategories(expense) failed: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("expected 2 expense categories, got %d", len(filtered))
	}
}

func TestRecordTransactionValidation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	wallet := mustAccount(t, repo, "Wallet", 0)
	bank := mustAccount(t, repo, "Bank", 0)
	salary := mustCategory(t, repo, "Salary", core.CategoryIncome)
	food := mustCategory(t, repo, "Food", core.CategoryExpense)

	missing := int64(9999)

	tests := []struct {
		name string
		tx   core.Transaction
		want error
	}{
		{
			name: "invalid kind",
			tx:   core.Transaction{Kind: "loan", OccurredAt: "2025-01-01T00:00:00", Amount: core.Money{Cents: 100}, SourceAccountID: wallet},
			want: core.ErrInvalidKind,
		},
		{
			name: "negative amount",
			tx:   core.Transaction{Kind: core.Income, OccurredAt: "2025-01-01T00:00:00", Amount: core.Money{Cents: -1}, CategoryID: &salary, SourceAccountID: wallet},
			want: core.ErrInvalidAmount,
		},
		{
			name: "unknown source account",
			tx:   core.Transaction{Kind: core.Income, OccurredAt: "2025-01-01T00:00:00", Amount: core.Money{Cents: 100}, CategoryID: &salary, SourceAccountID: missing},
			want: core.ErrUnknownAccount,
		},
		{
			name: "unknown destination account",
			tx:   core.Transaction{Kind: core.Transfer, OccurredAt: "2025-01-01T00:00:00", Amount: core.Money{Cents: 100}, SourceAccountID: wallet, DestinationAccountID: &missing},
			want: core.ErrUnknownAccount,
		},
		{
			name: "transfer without destination",
			tx:   core.Transaction{Kind: core.Transfer, OccurredAt: "2025-01-01T00:00:00", Amount: core.Money{Cents: 100}, SourceAccountID: wallet},
			want: core.ErrMissingDestination,
		},
		{
			name: "income without category",
			tx:   core.Transaction{Kind: core.Income, OccurredAt: "2025-01-01T00:00:00", Amount: core.Money{Cents: 100}, SourceAccountID: wallet},
			want: core.ErrMissingCategory,
		},
		{
			name: "expense with unknown category",
			tx:   core.Transaction{Kind: core.Expense, OccurredAt: "2025-01-01T00:00:00", Amount: core.Money{Cents: 100}, CategoryID: &missing, SourceAccountID: wallet},
			want: core.ErrUnknownCategory,
		},
		{
			name: "income with expense category",
			tx:   core.Transaction{Kind: core.Income, OccurredAt: "2025-01-01T00:00:00", Amount: core.Money{Cents: 100}, CategoryID: &food, SourceAccountID: wallet},
			want: core.ErrCategoryKindMismatch,
		},
		{
			name: "expense with income category",
			tx:   core.Transaction{Kind: core.Expense, OccurredAt: "2025-01-01T00:00:00", Amount: core.Money{Cents: 100}, CategoryID: &salary, SourceAccountID: wallet},
			want: core.ErrCategoryKindMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.RecordTransaction(ctx, tt.tx)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	// Rejected writes must leave no trace.
	rows, err := repo.ListTransactions(ctx, core.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected an empty ledger after rejected writes, got %d rows", len(rows))
	}

	t.Run("zero amount accepted", func(t *testing.T) {
		mustRecord(t, repo, core.Transaction{
			Kind: core.Expense, OccurredAt: "2025-01-01T00:00:00",
			Amount: core.Money{}, CategoryID: &food, SourceAccountID: wallet,
		})
	})

	t.Run("transfer ignores category", func(t *testing.T) {
		id := mustRecord(t, repo, core.Transaction{
			Kind: core.Transfer, OccurredAt: "2025-01-02T00:00:00",
			Amount: core.Money{Cents: 500}, CategoryID: &food,
			SourceAccountID: wallet, DestinationAccountID: &bank,
		})
		row, err := repo.GetTransactionRow(ctx, id)
		if err != nil {
			t.Fatalf("GetTransactionRow failed: %v", err)
		}
		if row.CategoryID != nil {
			t.Errorf("expected nil category on a transfer, got %d", *row.CategoryID)
		}
	})
}

func TestAccountBalance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	wallet := mustAccount(t, repo, "Wallet", 10000)
	bank := mustAccount(t, repo, "Bank", 0)
	salary := mustCategory(t, repo, "Salary", core.CategoryIncome)
	food := mustCategory(t, repo, "Food", core.CategoryExpense)

	mustRecord(t, repo, core.Transaction{
		Kind: core.Income, OccurredAt: "2025-03-01T09:00:00",
		Amount: core.Money{Cents: 50000}, CategoryID: &salary, SourceAccountID: wallet,
	})
	mustRecord(t, repo, core.Transaction{
		Kind: core.Expense, OccurredAt: "2025-03-02T12:30:00",
		Amount: core.Money{Cents: 1250}, CategoryID: &food, SourceAccountID: wallet,
	})
	mustRecord(t, repo, core.Transaction{
		Kind: core.Transfer, OccurredAt: "2025-03-03T08:00:00",
		Amount: core.Money{Cents: 20000}, SourceAccountID: wallet, DestinationAccountID: &bank,
	})

	walletBalance, err := repo.AccountBalance(ctx, wallet)
	if err != nil {
		t.Fatalf("AccountBalance(wallet) failed: %v", err)
	}
	// 100.00 + 500.00 - 12.50 - 200.00
	if walletBalance.Cents != 38750 {
		t.Errorf("wallet balance = %d cents, want 38750", walletBalance.Cents)
	}

	bankBalance, err := repo.AccountBalance(ctx, bank)
	if err != nil {
		t.Fatalf("AccountBalance(bank) failed: %v", err)
	}
	if bankBalance.Cents != 20000 {
		t.Errorf("bank balance = %d cents, want 20000", bankBalance.Cents)
	}

	t.Run("unknown account", func(t *testing.T) {
		_, err := repo.AccountBalance(ctx, 9999)
		if !errors.Is(err, core.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("transfer to self nets to zero", func(t *testing.T) {
		mustRecord(t, repo, core.Transaction{
			Kind: core.Transfer, OccurredAt: "2025-03-04T00:00:00",
			Amount: core.Money{Cents: 7777}, SourceAccountID: bank, DestinationAccountID: &bank,
		})
		balance, err := repo.AccountBalance(ctx, bank)
		if err != nil {
			t.Fatalf("AccountBalance failed: %v", err)
		}
		if balance.Cents != 20000 {
			t.Errorf("self-transfer changed the balance: got %d, want 20000", balance.Cents)
		}
	})
}

func TestListAccountSummaries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustAccount(t, repo, "Wallet", 100)
	mustAccount(t, repo, "Bank", 200)

	summaries, err := repo.ListAccountSummaries(ctx)
	if err != nil {
		t.Fatalf("ListAccountSummaries failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].Name != "Bank" || summaries[1].Name != "Wallet" {
		t.Errorf("expected name ordering Bank, Wallet; got %s, %s",
			summaries[0].Name, summaries[1].Name)
	}
	if summaries[0].CurrentBalance.Cents != 200 {
		t.Errorf("Bank current balance = %d, want 200", summaries[0].CurrentBalance.Cents)
	}
}

func TestMonthSummary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	wallet := mustAccount(t, repo, "Wallet", 0)
	bank := mustAccount(t, repo, "Bank", 0)
	salary := mustCategory(t, repo, "Salary", core.CategoryIncome)
	food := mustCategory(t, repo, "Food", core.CategoryExpense)

	// Inside January 2025, including the last second.
	mustRecord(t, repo, core.Transaction{
		Kind: core.Income, OccurredAt: "2025-01-15T10:00:00",
		Amount: core.Money{Cents: 30000}, CategoryID: &salary, SourceAccountID: wallet,
	})
	mustRecord(t, repo, core.Transaction{
		Kind: core.Expense, OccurredAt: "2025-01-31T23:59:59",
		Amount: core.Money{Cents: 4500}, CategoryID: &food, SourceAccountID: wallet,
	})
	// Transfers never count toward the totals.
	mustRecord(t, repo, core.Transaction{
		Kind: core.Transfer, OccurredAt: "2025-01-20T00:00:00",
		Amount: core.Money{Cents: 99999}, SourceAccountID: wallet, DestinationAccountID: &bank,
	})
	// First instant of February belongs to February.
	mustRecord(t, repo, core.Transaction{
		Kind: core.Expense, OccurredAt: "2025-02-01T00:00:00",
		Amount: core.Money{Cents: 100}, CategoryID: &food, SourceAccountID: wallet,
	})

	summary, err := repo.MonthSummary(ctx, 2025, 1)
	if err != nil {
		t.Fatalf("MonthSummary failed: %v", err)
	}
	if summary.Income.Cents != 30000 {
		t.Errorf("income = %d, want 30000", summary.Income.Cents)
	}
	if summary.Expense.Cents != 4500 {
		t.Errorf("expense = %d, want 4500", summary.Expense.Cents)
	}
	if summary.Net.Cents != 25500 {
		t.Errorf("net = %d, want 25500", summary.Net.Cents)
	}

	t.Run("december rollover excludes january", func(t *testing.T) {
		mustRecord(t, repo, core.Transaction{
			Kind: core.Income, OccurredAt: "2025-12-31T23:59:59",
			Amount: core.Money{Cents: 1000}, CategoryID: &salary, SourceAccountID: wallet,
		})
		mustRecord(t, repo, core.Transaction{
			Kind: core.Income, OccurredAt: "2026-01-01T00:00:00",
			Amount: core.Money{Cents: 2000}, CategoryID: &salary, SourceAccountID: wallet,
		})
		dec, err := repo.MonthSummary(ctx, 2025, 12)
		if err != nil {
			t.Fatalf("MonthSummary failed: %v", err)
		}
		if dec.Income.Cents != 1000 {
			t.Errorf("december income = %d, want 1000", dec.Income.Cents)
		}
	})

	t.Run("empty month is all zeros", func(t *testing.T) {
		empty, err := repo.MonthSummary(ctx, 2024, 6)
		if err != nil {
			t.Fatalf("MonthSummary failed: %v", err)
		}
		if empty.Income.Cents != 0 || empty.Expense.Cents != 0 || empty.Net.Cents != 0 {
			t.Errorf("expected zero summary, got %+v", empty)
		}
	})

	t.Run("invalid month rejected", func(t *testing.T) {
		_, err := repo.MonthSummary(ctx, 2025, 13)
		if !errors.Is(err, core.ErrInvalidMonth) {
			t.Errorf("expected ErrInvalidMonth, got %v", err)
		}
	})
}

func TestListTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	wallet := mustAccount(t, repo, "Wallet", 0)
	bank := mustAccount(t, repo, "Bank", 0)
	savings := mustAccount(t, repo, "Savings", 0)
	salary := mustCategory(t, repo, "Salary", core.CategoryIncome)
	food := mustCategory(t, repo, "Food", core.CategoryExpense)

	first := mustRecord(t, repo, core.Transaction{
		Kind: core.Income, OccurredAt: "2025-05-01T09:00:00",
		Amount: core.Money{Cents: 100}, CategoryID: &salary, SourceAccountID: wallet,
	})
	second := mustRecord(t, repo, core.Transaction{
		Kind: core.Expense, OccurredAt: "2025-05-01T09:00:00",
		Amount: core.Money{Cents: 200}, CategoryID: &food, SourceAccountID: wallet, Memo: "groceries",
	})
	mustRecord(t, repo, core.Transaction{
		Kind: core.Transfer, OccurredAt: "2025-05-02T09:00:00",
		Amount: core.Money{Cents: 300}, SourceAccountID: bank, DestinationAccountID: &savings,
	})
	mustRecord(t, repo, core.Transaction{
		Kind: core.Expense, OccurredAt: "2025-06-10T09:00:00",
		Amount: core.Money{Cents: 400}, CategoryID: &food, SourceAccountID: bank,
	})

	t.Run("newest first, ties by insertion order", func(t *testing.T) {
		rows, err := repo.ListTransactions(ctx, core.TransactionFilter{})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(rows) != 4 {
			t.Fatalf("expected 4 rows, got %d", len(rows))
		}
		if rows[0].OccurredAt != "2025-06-10T09:00:00" {
			t.Errorf("expected the June expense first, got %s", rows[0].OccurredAt)
		}
		// The two 09:00:00 rows share a timestamp; the later insert wins.
		if rows[2].ID != second || rows[3].ID != first {
			t.Errorf("tie-break by id descending: got %d then %d", rows[2].ID, rows[3].ID)
		}
	})

	t.Run("account filter matches both sides of a transfer", func(t *testing.T) {
		rows, err := repo.ListTransactions(ctx, core.TransactionFilter{AccountID: &savings})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("expected 1 row for savings, got %d", len(rows))
		}
		if rows[0].Kind != core.Transfer {
			t.Errorf("expected the transfer, got %s", rows[0].Kind)
		}
		if rows[0].DestinationAccountName != "Savings" {
			t.Errorf("expected destination name Savings, got %q", rows[0].DestinationAccountName)
		}
		if rows[0].CategoryID != nil || rows[0].CategoryName != "" {
			t.Error("transfer rows must carry no category")
		}
	})

	t.Run("month filter", func(t *testing.T) {
		rows, err := repo.ListTransactions(ctx, core.TransactionFilter{Year: 2025, Month: 5})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(rows) != 3 {
			t.Errorf("expected 3 rows in May, got %d", len(rows))
		}
	})

	t.Run("combined filters", func(t *testing.T) {
		rows, err := repo.ListTransactions(ctx, core.TransactionFilter{AccountID: &bank, Year: 2025, Month: 5})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(rows) != 1 {
			t.Errorf("expected 1 row for bank in May, got %d", len(rows))
		}
	})

	t.Run("memo round-trips", func(t *testing.T) {
		row, err := repo.GetTransactionRow(ctx, second)
		if err != nil {
			t.Fatalf("GetTransactionRow failed: %v", err)
		}
		if row.Memo != "groceries" {
			t.Errorf("memo = %q, want %q", row.Memo, "groceries")
		}
	})
}

// TestLedgerScenario walks the account lifecycle end to end: seed, earn,
// get rejected, transfer, and check every derived number along the way.
func TestLedgerScenario(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	wallet := mustAccount(t, repo, "Wallet", 10000)
	salary := mustCategory(t, repo, "Salary", core.CategoryIncome)
	food := mustCategory(t, repo, "Food", core.CategoryExpense)

	mustRecord(t, repo, core.Transaction{
		Kind: core.Income, OccurredAt: "2025-04-01T08:00:00",
		Amount: core.Money{Cents: 50000}, CategoryID: &salary, SourceAccountID: wallet,
	})
	balance, err := repo.AccountBalance(ctx, wallet)
	if err != nil {
		t.Fatalf("AccountBalance failed: %v", err)
	}
	if balance.Cents != 60000 {
		t.Fatalf("after income: balance = %d, want 60000", balance.Cents)
	}

	// Mismatched category is rejected and leaves the balance untouched.
	_, err = repo.RecordTransaction(ctx, core.Transaction{
		Kind: core.Expense, OccurredAt: "2025-04-02T08:00:00",
		Amount: core.Money{Cents: 100}, CategoryID: &salary, SourceAccountID: wallet,
	})
	if !errors.Is(err, core.ErrCategoryKindMismatch) {
		t.Fatalf("expected ErrCategoryKindMismatch, got %v", err)
	}
	balance, err = repo.AccountBalance(ctx, wallet)
	if err != nil {
		t.Fatalf("AccountBalance failed: %v", err)
	}
	if balance.Cents != 60000 {
		t.Fatalf("rejected write changed the balance: %d", balance.Cents)
	}

	bank := mustAccount(t, repo, "Bank", 0)
	mustRecord(t, repo, core.Transaction{
		Kind: core.Transfer, OccurredAt: "2025-04-03T08:00:00",
		Amount: core.Money{Cents: 20000}, SourceAccountID: wallet, DestinationAccountID: &bank,
	})

	walletBalance, _ := repo.AccountBalance(ctx, wallet)
	bankBalance, _ := repo.AccountBalance(ctx, bank)
	if walletBalance.Cents != 40000 || bankBalance.Cents != 20000 {
		t.Errorf("after transfer: wallet = %d, bank = %d; want 40000 and 20000",
			walletBalance.Cents, bankBalance.Cents)
	}

	_ = mustRecord(t, repo, core.Transaction{
		Kind: core.Expense, OccurredAt: "2025-04-05T12:00:00",
		Amount: core.Money{Cents: 1500}, CategoryID: &food, SourceAccountID: wallet, Memo: "lunch",
	})

	summary, err := repo.MonthSummary(ctx, 2025, 4)
	if err != nil {
		t.Fatalf("MonthSummary failed: %v", err)
	}
	if summary.Income.Cents != 50000 || summary.Expense.Cents != 1500 || summary.Net.Cents != 48500 {
		t.Errorf("april summary = %+v, want income 50000, expense 1500, net 48500", summary)
	}
}

func TestCounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n, err := repo.CountAccounts(ctx)
	if err != nil || n != 0 {
		t.Fatalf("CountAccounts = %d, %v; want 0, nil", n, err)
	}

	mustAccount(t, repo, "Wallet", 0)
	mustCategory(t, repo, "Food", core.CategoryExpense)

	if n, _ := repo.CountAccounts(ctx); n != 1 {
		t.Errorf("CountAccounts = %d, want 1", n)
	}
	if n, _ := repo.CountCategories(ctx); n != 1 {
		t.Errorf("CountCategories = %d, want 1", n)
	}
}
