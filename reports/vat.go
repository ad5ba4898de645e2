/*
vat.go - VAT summary and VAT ledger

Both reports consider only entries flagged VAT-applicable. Output VAT is
tax collected on income; input VAT is tax paid on expenses. The summary
is order-independent; the ledger is chronological and carries a running
balance (payable grows with output VAT, shrinks with claimable input VAT).
*/
package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// VAT SUMMARY
// =============================================================================

// VATSummary totals VAT by direction and returns the itemized entries
// behind each total.
type VATSummary struct {
	OutputVAT decimal.Decimal // collected on income
	InputVAT  decimal.Decimal // paid on expenses
	NetVAT    decimal.Decimal // output - input; positive = payable

	IncomeEntries  []ledger.Entry
	ExpenseEntries []ledger.Entry
}

// BuildVATSummary folds VAT-applicable entries into a summary.
// NetVAT does not depend on the order entries are supplied in.
func BuildVATSummary(entries []ledger.Entry) *VATSummary {
	s := &VATSummary{
		IncomeEntries:  []ledger.Entry{},
		ExpenseEntries: []ledger.Entry{},
	}

	var output, input decimal.Decimal
	for _, e := range entries {
		if !e.IsVatApplicable {
			continue
		}
		switch e.Type {
		case ledger.TypeIncome:
			output = output.Add(e.Tax)
			s.IncomeEntries = append(s.IncomeEntries, e)
		case ledger.TypeExpense:
			input = input.Add(e.Tax)
			s.ExpenseEntries = append(s.ExpenseEntries, e)
		}
	}

	s.OutputVAT = ledger.Round2(output)
	s.InputVAT = ledger.Round2(input)
	s.NetVAT = ledger.Round2(output.Sub(input))
	return s
}

// =============================================================================
// VAT LEDGER
// =============================================================================

// VATLedgerLine is one chronological line of the VAT ledger. Debit carries
// input (claimable) VAT, credit carries output (payable) VAT, and Balance
// is the running position after this line.
type VATLedgerLine struct {
	EntryID      string
	Date         time.Time
	Description  string
	Counterparty string
	Type         ledger.TransactionType
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	Balance      decimal.Decimal
}

// VATLedger is the chronological VAT ledger for a period.
type VATLedger struct {
	Lines          []VATLedgerLine
	TotalOutputVAT decimal.Decimal
	TotalInputVAT  decimal.Decimal
	NetVAT         decimal.Decimal
}

// BuildVATLedger folds VAT-applicable entries into a dated ledger.
// Lines are sorted ascending by date regardless of input order; only the
// per-line balances depend on that order, the totals never do.
func BuildVATLedger(entries []ledger.Entry) *VATLedger {
	applicable := make([]ledger.Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsVatApplicable {
			applicable = append(applicable, e)
		}
	}
	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].Date.Before(applicable[j].Date)
	})

	l := &VATLedger{Lines: make([]VATLedgerLine, 0, len(applicable))}

	var balance, output, input decimal.Decimal
	for _, e := range applicable {
		line := VATLedgerLine{
			EntryID:     e.ID,
			Date:        e.Date,
			Description: e.Description,
			Type:        e.Type,
		}
		switch e.Type {
		case ledger.TypeIncome:
			line.Counterparty = e.ClientName
			line.Credit = e.Tax
			balance = balance.Add(e.Tax)
			output = output.Add(e.Tax)
		case ledger.TypeExpense:
			line.Counterparty = e.SupplierName
			line.Debit = e.Tax
			balance = balance.Sub(e.Tax)
			input = input.Add(e.Tax)
		}
		line.Balance = ledger.Round2(balance)
		l.Lines = append(l.Lines, line)
	}

	l.TotalOutputVAT = ledger.Round2(output)
	l.TotalInputVAT = ledger.Round2(input)
	l.NetVAT = ledger.Round2(output.Sub(input))
	return l
}
