package core

import "testing"

func TestTransactionKindValid(t *testing.T) {
	for _, k := range []TransactionKind{Income, Expense, Transfer} {
		if !k.Valid() {
			t.Fatalf("%q should be valid", k)
		}
	}
	for _, k := range []TransactionKind{"", "receita", "INCOME", "deposit"} {
		if k.Valid() {
			t.Fatalf("%q should be invalid", k)
		}
	}
}

func TestCategoryKindValid(t *testing.T) {
	for _, k := range []CategoryKind{CategoryIncome, CategoryExpense} {
		if !k.Valid() {
			t.Fatalf("%q should be valid", k)
		}
	}
	for _, k := range []CategoryKind{"", "transfer", "Expense"} {
		if k.Valid() {
			t.Fatalf("%q should be invalid", k)
		}
	}
}

func TestCategoryKindMatches(t *testing.T) {
	if !CategoryIncome.Matches(Income) {
		t.Fatal("income category should match income transaction")
	}
	if !CategoryExpense.Matches(Expense) {
		t.Fatal("expense category should match expense transaction")
	}
	if CategoryExpense.Matches(Income) {
		t.Fatal("expense category must not match income transaction")
	}
	if CategoryIncome.Matches(Transfer) {
		t.Fatal("no category matches a transfer")
	}
}

func TestTransactionFilterHasMonth(t *testing.T) {
	if (TransactionFilter{}).HasMonth() {
		t.Fatal("zero filter has no month window")
	}
	if !(TransactionFilter{Year: 2025, Month: 3}).HasMonth() {
		t.Fatal("filter with year+month should report a window")
	}
}
