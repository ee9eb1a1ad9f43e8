// Package worker moves committed transactions from the ledger database to
// an export sink. Delivery is at-least-once; a duplicate row in an export
// sheet is harmless, a missing one is not.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"financas/internal/amqp"
	"financas/internal/sheets"
	"financas/internal/storage"
)

type SyncWorker struct {
	storage *storage.SQLiteRepository
	writer  sheets.TransactionWriter
}

func NewSyncWorker(storage *storage.SQLiteRepository, writer sheets.TransactionWriter) *SyncWorker {
	return &SyncWorker{
		storage: storage,
		writer:  writer,
	}
}

// HandleMessage exports one recorded transaction. The message only carries
// the id; the authoritative row comes from storage so the export can never
// diverge from what was committed.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	slog.InfoContext(ctx, "Processing transaction event", "id", msg.ID, "kind", msg.Kind)

	row, err := w.storage.GetTransactionRow(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("load transaction row: %w", err)
	}

	if w.writer == nil {
		slog.WarnContext(ctx, "No export writer configured, skipping", "id", msg.ID)
		return nil
	}

	ref, err := w.writer.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("export transaction %d: %w", msg.ID, err)
	}

	slog.InfoContext(ctx, "Transaction exported", "id", msg.ID, "ref", ref)
	return nil
}

// Run consumes events until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context, client *amqp.Client) error {
	err := client.Consume(ctx, w.HandleMessage)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
