/*
Package reports derives financial reports from the ledger.

PURPOSE:
  Stateless folds over ledger entries. Each report filters the book by
  owner and inclusive date range, then aggregates into one of five shapes:
  profit & loss, VAT summary, VAT ledger, general ledger, cash flow.

NUMERIC RULES:
  - Accumulation is exact decimal arithmetic, never floats.
  - Rounding to 2 decimal places happens only when a total (or a
    client-facing running balance) is produced.
  - An empty range is not an error: reports return zeroed totals and
    empty lists.

CONCURRENCY:
  Every computation is read-only and runs freely in parallel with ledger
  mutations. Reports are not snapshot-consistent against concurrent
  writes; the storage layer's read guarantees are all that's promised.

SEE ALSO:
  - profitloss.go, vat.go, general.go, cashflow.go: the folds
  - ledger/store.go: the single read path (LoadRange)
*/
package reports

import (
	"context"

	"github.com/warp/ledger-engine/ledger"
)

// Engine computes reports against an entry store. It holds no state
// beyond the store handle.
type Engine struct {
	entries ledger.EntryStore
}

// NewEngine wires a report engine to entry storage.
func NewEngine(entries ledger.EntryStore) *Engine {
	return &Engine{entries: entries}
}

// ProfitLoss computes the P&L statement for one owner and range.
func (e *Engine) ProfitLoss(ctx context.Context, owner string, r ledger.DateRange) (*ProfitLoss, error) {
	entries, err := e.entries.LoadRange(ctx, owner, r)
	if err != nil {
		return nil, err
	}
	return BuildProfitLoss(entries), nil
}

// VATSummary computes input/output VAT totals for one owner and range.
func (e *Engine) VATSummary(ctx context.Context, owner string, r ledger.DateRange) (*VATSummary, error) {
	entries, err := e.entries.LoadRange(ctx, owner, r)
	if err != nil {
		return nil, err
	}
	return BuildVATSummary(entries), nil
}

// VATLedger computes the chronological VAT ledger with running balance.
func (e *Engine) VATLedger(ctx context.Context, owner string, r ledger.DateRange) (*VATLedger, error) {
	entries, err := e.entries.LoadRange(ctx, owner, r)
	if err != nil {
		return nil, err
	}
	return BuildVATLedger(entries), nil
}

// GeneralLedger computes the chronological general ledger with running
// balance over all entries, VAT-applicable or not.
func (e *Engine) GeneralLedger(ctx context.Context, owner string, r ledger.DateRange) (*GeneralLedger, error) {
	entries, err := e.entries.LoadRange(ctx, owner, r)
	if err != nil {
		return nil, err
	}
	return BuildGeneralLedger(entries), nil
}

// CashFlow partitions the range into inflows and outflows.
func (e *Engine) CashFlow(ctx context.Context, owner string, r ledger.DateRange) (*CashFlow, error) {
	entries, err := e.entries.LoadRange(ctx, owner, r)
	if err != nil {
		return nil, err
	}
	return BuildCashFlow(entries), nil
}
