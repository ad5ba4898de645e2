/*
general.go - General ledger

All entries in the period, VAT-applicable or not, in chronological order
with a running balance over pre-tax amounts: income adds, expense
subtracts. Closing balance is the balance after the final line.
*/
package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/ledger-engine/ledger"
)

// GeneralLedgerLine is one chronological line of the book.
type GeneralLedgerLine struct {
	EntryID      string
	Date         time.Time
	Description  string
	Category     string
	Counterparty string
	Type         ledger.TransactionType
	Amount       decimal.Decimal
	Balance      decimal.Decimal // running balance after this line
}

// GeneralLedger is the full book for a period.
type GeneralLedger struct {
	Lines          []GeneralLedgerLine
	TotalIncome    decimal.Decimal
	TotalExpense   decimal.Decimal
	ClosingBalance decimal.Decimal // equals the last line's balance
}

// BuildGeneralLedger folds entries into the chronological book.
func BuildGeneralLedger(entries []ledger.Entry) *GeneralLedger {
	sorted := make([]ledger.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	g := &GeneralLedger{Lines: make([]GeneralLedgerLine, 0, len(sorted))}

	var balance, income, expense decimal.Decimal
	for _, e := range sorted {
		line := GeneralLedgerLine{
			EntryID:     e.ID,
			Date:        e.Date,
			Description: e.Description,
			Category:    lineCategory(e),
			Type:        e.Type,
			Amount:      e.Amount,
		}
		switch e.Type {
		case ledger.TypeIncome:
			line.Counterparty = e.ClientName
			balance = balance.Add(e.Amount)
			income = income.Add(e.Amount)
		case ledger.TypeExpense:
			line.Counterparty = e.SupplierName
			balance = balance.Sub(e.Amount)
			expense = expense.Add(e.Amount)
		}
		line.Balance = ledger.Round2(balance)
		g.Lines = append(g.Lines, line)
	}

	g.TotalIncome = ledger.Round2(income)
	g.TotalExpense = ledger.Round2(expense)
	g.ClosingBalance = ledger.Round2(balance)
	return g
}

func lineCategory(e ledger.Entry) string {
	if e.Type == ledger.TypeIncome {
		return string(e.IncomeCategory)
	}
	return e.CategoryName
}
