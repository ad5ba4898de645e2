/*
cashflow.go - Cash flow report

Partitions the period's entries into inflows (income) and outflows
(expenses) with gross totals. No ordering guarantee within a bucket.
*/
package reports

import (
	"github.com/shopspring/decimal"
	"github.com/warp/ledger-engine/ledger"
)

// CashFlow is the inflow/outflow partition for a period.
type CashFlow struct {
	Inflows  []ledger.Entry
	Outflows []ledger.Entry

	TotalInflow  decimal.Decimal
	TotalOutflow decimal.Decimal
	NetCashFlow  decimal.Decimal // inflow - outflow
}

// BuildCashFlow folds entries into the cash flow shape. Totals accumulate
// the gross (tax-inclusive) totals of each entry.
func BuildCashFlow(entries []ledger.Entry) *CashFlow {
	c := &CashFlow{
		Inflows:  []ledger.Entry{},
		Outflows: []ledger.Entry{},
	}

	var in, out decimal.Decimal
	for _, e := range entries {
		switch e.Type {
		case ledger.TypeIncome:
			in = in.Add(e.Total)
			c.Inflows = append(c.Inflows, e)
		case ledger.TypeExpense:
			out = out.Add(e.Total)
			c.Outflows = append(c.Outflows, e)
		}
	}

	c.TotalInflow = ledger.Round2(in)
	c.TotalOutflow = ledger.Round2(out)
	c.NetCashFlow = ledger.Round2(in.Sub(out))
	return c
}
