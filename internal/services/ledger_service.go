// Package services wires the ledger engine together: storage-backed
// operations plus best-effort event publishing for the export pipeline.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/storage"
)

// LedgerService is the engine surface the CLI and HTTP shells consume.
// Every read recomputes from storage; the only state here is the two
// connections.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// RecordTransactionInput carries a proposed transaction. OccurredAt is
// optional; an empty value means "now". CategoryID is required for income
// and expense, DestinationAccountID for transfers.
type RecordTransactionInput struct {
	Kind                 core.TransactionKind
	Amount               core.Money
	SourceAccountID      int64
	CategoryID           *int64
	DestinationAccountID *int64
	OccurredAt           string
	Memo                 string
}

// CreateAccount registers a new account with its opening balance.
func (s *LedgerService) CreateAccount(ctx context.Context, name string, initialBalance core.Money) (int64, error) {
	return s.storage.CreateAccount(ctx, name, initialBalance)
}

// CreateCategory registers a category, returning the existing id when the
// (name, kind) pair is already present.
func (s *LedgerService) CreateCategory(ctx context.Context, name string, kind core.CategoryKind) (int64, error) {
	return s.storage.CreateOrGetCategory(ctx, name, kind)
}

// RecordTransaction validates and appends a transaction, then publishes a
// sync event for the export worker. The event is best-effort: the ledger
// write has already committed and a broker outage must not undo it.
func (s *LedgerService) RecordTransaction(ctx context.Context, in RecordTransactionInput) (int64, error) {
	occurredAt := in.OccurredAt
	if occurredAt == "" {
		occurredAt = core.FormatTimestamp(time.Now())
	} else {
		normalized, err := core.ParseTimestamp(occurredAt)
		if err != nil {
			return 0, err
		}
		occurredAt = normalized
	}

	id, err := s.storage.RecordTransaction(ctx, core.Transaction{
		Kind:                 in.Kind,
		OccurredAt:           occurredAt,
		Amount:               in.Amount,
		CategoryID:           in.CategoryID,
		SourceAccountID:      in.SourceAccountID,
		DestinationAccountID: in.DestinationAccountID,
		Memo:                 in.Memo,
	})
	if err != nil {
		return 0, err
	}

	if err := s.publishRecordedEvent(ctx, id, in.Kind, occurredAt); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", id, "error", err)
	}

	return id, nil
}

// GetBalance returns the account's current balance derived from the full
// transaction history.
func (s *LedgerService) GetBalance(ctx context.Context, accountID int64) (core.Money, error) {
	return s.storage.AccountBalance(ctx, accountID)
}

// ListAccounts returns all accounts with derived balances, ordered by name.
func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.AccountSummary, error) {
	return s.storage.ListAccountSummaries(ctx)
}

// ListCategories returns categories ordered by kind then name, optionally
// filtered to one kind.
func (s *LedgerService) ListCategories(ctx context.Context, kind *core.CategoryKind) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, kind)
}

// ListTransactions returns enriched transaction rows, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.TransactionRow, error) {
	return s.storage.ListTransactions(ctx, f)
}

// MonthSummary aggregates income, expense and net for one calendar month.
func (s *LedgerService) MonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	return s.storage.MonthSummary(ctx, year, month)
}

func (s *LedgerService) publishRecordedEvent(ctx context.Context, id int64, kind core.TransactionKind, occurredAt string) error {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping transaction event")
		return nil
	}
	return s.amqpClient.PublishTransactionRecorded(ctx, id, string(kind), occurredAt)
}

// Close releases storage and broker connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
