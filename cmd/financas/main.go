// Command financas is the terminal front-end of the personal finance
// ledger: create accounts and categories, record income, expenses and
// transfers, and inspect balances and monthly summaries.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"financas/internal/amqp"
	"financas/internal/cli"
	"financas/internal/core"
	"financas/internal/services"
)

const usage = `Usage: financas <command> [flags]

Commands:
  init             create the database and seed default account/categories
  create-account   register a new account
  create-category  register a category (idempotent per name+kind)
  record           record an income, expense or transfer
  balance          show the current balance of one account
  accounts         list accounts with balances
  categories       list categories
  transactions     list transactions, newest first
  month-summary    income/expense/net totals for one month

Run 'financas <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, transaction events disabled", "error", err)
			amqpClient = nil
		}
	}

	ledger := services.NewLedgerService(repo, amqpClient)
	defer ledger.Close()

	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(ctx, ledger, repo)
	case "create-account":
		err = runCreateAccount(ctx, ledger, os.Args[2:])
	case "create-category":
		err = runCreateCategory(ctx, ledger, os.Args[2:])
	case "record":
		err = runRecord(ctx, ledger, os.Args[2:])
	case "balance":
		err = runBalance(ctx, ledger, os.Args[2:])
	case "accounts":
		err = runAccounts(ctx, ledger)
	case "categories":
		err = runCategories(ctx, ledger, os.Args[2:])
	case "transactions":
		err = runTransactions(ctx, ledger, os.Args[2:])
	case "month-summary":
		err = runMonthSummary(ctx, ledger, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type counter interface {
	CountAccounts(ctx context.Context) (int64, error)
	CountCategories(ctx context.Context) (int64, error)
}

// runInit seeds a starter account and a handful of categories, but only
// into an empty database so re-running it stays harmless.
func runInit(ctx context.Context, ledger *services.LedgerService, counts counter) error {
	accounts, err := counts.CountAccounts(ctx)
	if err != nil {
		return err
	}
	if accounts == 0 {
		if _, err := ledger.CreateAccount(ctx, "Wallet", core.Money{}); err != nil {
			return err
		}
	}

	categories, err := counts.CountCategories(ctx)
	if err != nil {
		return err
	}
	if categories == 0 {
		seed := []struct {
			name string
			kind core.CategoryKind
		}{
			{"Salary", core.CategoryIncome},
			{"Food", core.CategoryExpense},
			{"Transport", core.CategoryExpense},
			{"Leisure", core.CategoryExpense},
		}
		for _, c := range seed {
			if _, err := ledger.CreateCategory(ctx, c.name, c.kind); err != nil {
				return err
			}
		}
	}

	fmt.Println("Database ready, defaults seeded.")
	return nil
}

func runCreateAccount(ctx context.Context, ledger *services.LedgerService, args []string) error {
	fs := flag.NewFlagSet("create-account", flag.ExitOnError)
	name := fs.String("name", "", "account name (required)")
	balance := fs.String("balance", "0", "opening balance, e.g. 100.00 or -25.50")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cents, err := core.ParseSignedDecimalToCents(*balance)
	if err != nil {
		return fmt.Errorf("invalid balance %q: %w", *balance, err)
	}

	id, err := ledger.CreateAccount(ctx, *name, core.Money{Cents: cents})
	if err != nil {
		return err
	}
	fmt.Printf("Account created with id %d.\n", id)
	return nil
}

func runCreateCategory(ctx context.Context, ledger *services.LedgerService, args []string) error {
	fs := flag.NewFlagSet("create-category", flag.ExitOnError)
	name := fs.String("name", "", "category name (required)")
	kind := fs.String("kind", "", "income or expense (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := ledger.CreateCategory(ctx, *name, core.CategoryKind(*kind))
	if err != nil {
		return err
	}
	fmt.Printf("Category ready with id %d.\n", id)
	return nil
}

func runRecord(ctx context.Context, ledger *services.LedgerService, args []string) error {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	kind := fs.String("kind", "", "income, expense or transfer (required)")
	amount := fs.String("amount", "", "amount, e.g. 12.50 (required)")
	from := fs.Int64("from", 0, "source account id (required)")
	category := fs.Int64("category", 0, "category id (income/expense)")
	to := fs.Int64("to", 0, "destination account id (transfer)")
	date := fs.String("date", "", "YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS, defaults to now")
	memo := fs.String("memo", "", "free-text memo")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cents, err := core.ParseDecimalToCents(*amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", *amount, err)
	}

	in := services.RecordTransactionInput{
		Kind:            core.TransactionKind(*kind),
		Amount:          core.Money{Cents: cents},
		SourceAccountID: *from,
		OccurredAt:      *date,
		Memo:            *memo,
	}
	if *category != 0 {
		in.CategoryID = category
	}
	if *to != 0 {
		in.DestinationAccountID = to
	}

	id, err := ledger.RecordTransaction(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("Transaction recorded with id %d.\n", id)
	return nil
}

func runBalance(ctx context.Context, ledger *services.LedgerService, args []string) error {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	account := fs.Int64("account", 0, "account id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	balance, err := ledger.GetBalance(ctx, *account)
	if err != nil {
		return err
	}
	fmt.Printf("Current balance of account %d: %s\n", *account, balance)
	return nil
}

func runAccounts(ctx context.Context, ledger *services.LedgerService) error {
	summaries, err := ledger.ListAccounts(ctx)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No accounts yet.")
		return nil
	}
	for _, a := range summaries {
		fmt.Printf("[%d] %s - initial: %s | current: %s\n",
			a.ID, a.Name, a.InitialBalance, a.CurrentBalance)
	}
	return nil
}

func runCategories(ctx context.Context, ledger *services.LedgerService, args []string) error {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	kindFlag := fs.String("kind", "", "filter by income or expense")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var kind *core.CategoryKind
	if *kindFlag != "" {
		k := core.CategoryKind(*kindFlag)
		kind = &k
	}

	categories, err := ledger.ListCategories(ctx, kind)
	if err != nil {
		return err
	}
	for _, c := range categories {
		fmt.Printf("[%d] %s (%s)\n", c.ID, c.Name, c.Kind)
	}
	return nil
}

func runTransactions(ctx context.Context, ledger *services.LedgerService, args []string) error {
	fs := flag.NewFlagSet("transactions", flag.ExitOnError)
	account := fs.Int64("account", 0, "filter by account (source or destination)")
	year := fs.Int("year", 0, "filter by month: year")
	month := fs.Int("month", 0, "filter by month: month (1-12)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var filter core.TransactionFilter
	if *account != 0 {
		filter.AccountID = account
	}
	filter.Year, filter.Month = *year, *month

	rows, err := ledger.ListTransactions(ctx, filter)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No transactions found.")
		return nil
	}
	for _, t := range rows {
		line := fmt.Sprintf("[%d] %s %s on %s from %s", t.ID, t.Kind, t.Amount, t.OccurredAt, t.SourceAccountName)
		if t.DestinationAccountID != nil {
			line += " -> " + t.DestinationAccountName
		}
		if t.CategoryName != "" {
			line += " (" + t.CategoryName + ")"
		}
		if t.Memo != "" {
			line += " - " + t.Memo
		}
		fmt.Println(line)
	}
	return nil
}

func runMonthSummary(ctx context.Context, ledger *services.LedgerService, args []string) error {
	fs := flag.NewFlagSet("month-summary", flag.ExitOnError)
	year := fs.Int("year", 0, "year, e.g. 2025 (required)")
	month := fs.Int("month", 0, "month 1-12 (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	summary, err := ledger.MonthSummary(ctx, *year, *month)
	if err != nil {
		return err
	}
	fmt.Printf("Income:  %s\n", summary.Income)
	fmt.Printf("Expense: %s\n", summary.Expense)
	fmt.Printf("Net:     %s\n", summary.Net)
	return nil
}
