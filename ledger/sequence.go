/*
sequence.go - Gapless sequential invoice numbering

PURPOSE:
  Issues unique, strictly increasing invoice numbers from a single named
  counter. The counter persists across restarts and is advanced by one
  atomic storage operation, so overlapping callers never receive the same
  value.

MANUAL NUMBERS:
  Historical or imported invoices may carry an externally assigned number.
  Those bypass the generator entirely and do not advance the counter;
  uniqueness across manual and generated numbers is enforced by the
  invoice table, not here.

FORMAT:
  The stored counter is a bare integer. Formatting is a pure function of
  that integer (INV-000042), so changing the format can never reset or
  collide with previously issued numbers.
*/
package ledger

import (
	"context"
	"fmt"
)

// InvoiceCounter is the name of the single invoice sequence.
const InvoiceCounter = "invoice"

// SequenceGenerator issues invoice numbers from an atomic counter.
type SequenceGenerator struct {
	Counters CounterStore
}

// NewSequenceGenerator wires a generator to its counter storage.
func NewSequenceGenerator(counters CounterStore) *SequenceGenerator {
	return &SequenceGenerator{Counters: counters}
}

// NextInvoiceNumber atomically reserves and formats the next number.
func (g *SequenceGenerator) NextInvoiceNumber(ctx context.Context) (string, error) {
	n, err := g.Counters.Next(ctx, InvoiceCounter)
	if err != nil {
		return "", fmt.Errorf("invoice counter: %w", err)
	}
	return FormatInvoiceNumber(n), nil
}

// FormatInvoiceNumber renders a counter value as an invoice number.
func FormatInvoiceNumber(n int64) string {
	return fmt.Sprintf("INV-%06d", n)
}
