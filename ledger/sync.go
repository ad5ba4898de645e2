/*
sync.go - Source-document to ledger synchronization

PURPOSE:
  Keeps the book consistent with the two independently edited source
  documents. Expenses mirror 1:1 on every create/update/delete. Invoices
  mirror only while Paid; the status transition to or away from Paid is
  the sole trigger.

CRITICAL INVARIANTS:
  1. At most one entry per (source type, source id). Enforced by the
     store's unique index and conditional upserts, never by reading first.
  2. The source document is authoritative. A failed mirrored write is
     logged and surfaced as a SyncError, never rolled back into the
     already-committed document.
  3. Idempotent against double delivery: replaying the same event is a
     no-op, not a duplicate.

DRIFT REPAIR:
  If an update finds no mirrored entry (a previous create failed), the
  upsert creates it. Drift heals on the next touch of the document and is
  logged so the original failure stays visible.

SEE ALSO:
  - store.go: UpsertMirror / InsertMirrorIfAbsent / DeleteMirror contracts
  - api/invoices.go, api/expenses.go: where the events originate
*/
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Synchronizer reacts to source-document lifecycle events. It never
// originates a source-document change.
type Synchronizer struct {
	entries EntryStore
	log     zerolog.Logger
}

// NewSynchronizer wires a synchronizer to entry storage.
func NewSynchronizer(entries EntryStore, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{entries: entries, log: log.With().Str("component", "sync").Logger()}
}

// =============================================================================
// EXPENSE EVENTS - 1:1 mirror, no status gate
// =============================================================================

// OnExpenseCreated mirrors a newly recorded expense into the book.
func (s *Synchronizer) OnExpenseCreated(ctx context.Context, exp Expense) error {
	_, err := s.entries.UpsertMirror(ctx, s.mirrorExpense(exp))
	if err != nil {
		return s.fail("create", SourceExpense, exp.ID, err)
	}
	return nil
}

// OnExpenseUpdated updates the mirrored entry's fields. A missing mirror
// (prior synchronization failure) is created here: the upsert converges
// the book back onto the document, and the drift is logged.
func (s *Synchronizer) OnExpenseUpdated(ctx context.Context, exp Expense) error {
	created, err := s.entries.UpsertMirror(ctx, s.mirrorExpense(exp))
	if err != nil {
		return s.fail("update", SourceExpense, exp.ID, err)
	}
	if created {
		s.log.Warn().
			Str("expense_id", exp.ID).
			Msg("mirrored entry was missing on update; recreated")
	}
	return nil
}

// OnExpenseDeleted removes the mirrored entry. Absence is not an error.
func (s *Synchronizer) OnExpenseDeleted(ctx context.Context, expenseID string) error {
	if err := s.entries.DeleteMirror(ctx, SourceExpense, expenseID); err != nil {
		return s.fail("delete", SourceExpense, expenseID, err)
	}
	return nil
}

// =============================================================================
// INVOICE EVENTS - mirrored only while Paid
// =============================================================================

// OnInvoiceStatusChange applies the mirroring rule for one invoice whose
// status moved from oldStatus to inv.Status. Returns whether a new ledger
// entry was created, which batch operations use to report their counts.
//
// Rules:
//   - not-Paid -> Paid:  create the INCOME mirror unless one already exists
//   - Paid -> not-Paid:  delete the mirror if present
//   - Paid -> Paid:      field edit; update the mirror in place
func (s *Synchronizer) OnInvoiceStatusChange(ctx context.Context, inv Invoice, oldStatus InvoiceStatus) (bool, error) {
	newStatus := inv.Status

	switch {
	case oldStatus != StatusPaid && newStatus == StatusPaid:
		created, err := s.entries.InsertMirrorIfAbsent(ctx, s.mirrorInvoice(inv))
		if err != nil {
			return false, s.fail("create", SourceInvoice, inv.ID, err)
		}
		return created, nil

	case oldStatus == StatusPaid && newStatus != StatusPaid:
		if err := s.entries.DeleteMirror(ctx, SourceInvoice, inv.ID); err != nil {
			return false, s.fail("delete", SourceInvoice, inv.ID, err)
		}
		return false, nil

	case oldStatus == StatusPaid && newStatus == StatusPaid:
		created, err := s.entries.UpsertMirror(ctx, s.mirrorInvoice(inv))
		if err != nil {
			return false, s.fail("update", SourceInvoice, inv.ID, err)
		}
		if created {
			s.log.Warn().
				Str("invoice_id", inv.ID).
				Msg("mirrored entry was missing on paid invoice edit; recreated")
		}
		return created, nil
	}

	// Pending <-> Sent and the like never touch the book.
	return false, nil
}

// OnInvoiceDeleted removes the mirror regardless of the invoice's status
// at deletion time.
func (s *Synchronizer) OnInvoiceDeleted(ctx context.Context, invoiceID string) error {
	if err := s.entries.DeleteMirror(ctx, SourceInvoice, invoiceID); err != nil {
		return s.fail("delete", SourceInvoice, invoiceID, err)
	}
	return nil
}

// =============================================================================
// BATCH MARK-AS-PAID
// =============================================================================

// MarkPaidResult reports the outcome of a batch mark-as-paid.
type MarkPaidResult struct {
	Processed int // invoices handled, including already-paid no-ops
	Created   int // new ledger entries actually written
	Failed    int // invoices whose mirror write failed
}

func (r MarkPaidResult) Message() string {
	return fmt.Sprintf("%d invoices marked as Paid, %d transactions created", r.Processed, r.Created)
}

// MarkPaid applies the per-invoice payment rule independently to each
// invoice. The batch is deliberately NOT atomic: a failure on one invoice
// is counted and logged but never blocks the others.
func (s *Synchronizer) MarkPaid(ctx context.Context, invoices []Invoice, oldStatuses []InvoiceStatus) MarkPaidResult {
	var res MarkPaidResult
	for i, inv := range invoices {
		res.Processed++
		created, err := s.OnInvoiceStatusChange(ctx, inv, oldStatuses[i])
		if err != nil {
			res.Failed++
			continue // already logged via fail()
		}
		if created {
			res.Created++
		}
	}
	return res
}

// =============================================================================
// MIRROR CONSTRUCTION
// =============================================================================

func (s *Synchronizer) mirrorExpense(exp Expense) Entry {
	method := exp.PaymentMethod
	if method == "" {
		method = PayCash
	}
	return Entry{
		ID:              uuid.NewString(),
		Type:            TypeExpense,
		Source:          SourceExpense,
		SourceRef:       exp.ID,
		SupplierName:    exp.VendorName,
		CategoryID:      exp.CategoryID,
		Amount:          exp.Amount,
		Tax:             exp.VATAmount,
		Total:           exp.TotalAmount,
		PaymentMethod:   method,
		IsVatApplicable: exp.IsVatApplicable,
		Date:            exp.Date,
		Owner:           exp.Owner,
		Description:     exp.Notes,
	}
}

func (s *Synchronizer) mirrorInvoice(inv Invoice) Entry {
	return Entry{
		ID:              uuid.NewString(),
		Type:            TypeIncome,
		Source:          SourceInvoice,
		SourceRef:       inv.ID,
		ClientID:        inv.ToClient,
		IncomeCategory:  inv.Category,
		Amount:          inv.SubTotal,
		Tax:             inv.Tax,
		Total:           inv.TotalAmount,
		PaymentMethod:   PayCash,
		IsVatApplicable: inv.IsVatApplicable,
		Date:            inv.Date,
		Owner:           inv.Owner,
		Description:     fmt.Sprintf("Payment received for invoice #%s", inv.InvoiceNumber),
	}
}

// fail logs the mirror failure and wraps it for the caller. The source
// document has already committed; visibility is the recovery.
func (s *Synchronizer) fail(op string, source SourceType, ref string, err error) error {
	s.log.Error().
		Err(err).
		Str("op", op).
		Str("source_type", string(source)).
		Str("source_ref", ref).
		Msg("mirrored ledger write failed; source document is committed")
	return &SyncError{Source: source, Ref: ref, Op: op, Err: err}
}
