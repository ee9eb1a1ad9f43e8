// Package sheets defines the outbound export ports. The ledger itself never
// depends on a spreadsheet; only the export worker speaks through these.
package sheets

import (
	"context"

	"financas/internal/core"
)

// TransactionWriter appends one enriched transaction row to an export sink
// and returns a sink-specific reference for the written row.
type TransactionWriter interface {
	Append(ctx context.Context, row core.TransactionRow) (rowRef string, err error)
}
