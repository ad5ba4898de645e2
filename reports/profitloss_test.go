package reports_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/reports"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func income(category ledger.IncomeCategory, amount, tax string, d int) ledger.Entry {
	a, t := dec(amount), dec(tax)
	return ledger.Entry{
		ID:              "in-" + amount,
		Type:            ledger.TypeIncome,
		Source:          ledger.SourceManual,
		IncomeCategory:  category,
		ClientName:      "Acme Retail",
		Amount:          a,
		Tax:             t,
		Total:           a.Add(t),
		IsVatApplicable: !t.IsZero(),
		Date:            day(d),
		Owner:           "user-1",
	}
}

func expense(categoryName, amount, tax string, d int) ledger.Entry {
	a, t := dec(amount), dec(tax)
	return ledger.Entry{
		ID:              "ex-" + amount,
		Type:            ledger.TypeExpense,
		Source:          ledger.SourceManual,
		CategoryName:    categoryName,
		SupplierName:    "Cape Fabrics",
		Amount:          a,
		Tax:             t,
		Total:           a.Add(t),
		IsVatApplicable: !t.IsZero(),
		Date:            day(d),
		Owner:           "user-1",
	}
}

func eq(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

// =============================================================================
// PROFIT & LOSS
// =============================================================================

func TestProfitLoss_FullStatement(t *testing.T) {
	// GIVEN: A month of activity across every section
	// WHEN: Folding the P&L
	// THEN: Buckets, subtotals and derived lines all agree

	entries := []ledger.Entry{
		income(ledger.IncomeFinishedGarments, "1000.00", "150.00", 1),
		income(ledger.IncomeCMTServices, "500.00", "75.00", 5),
		income(ledger.IncomeOther, "100.00", "0", 9),
		expense("Trims & Materials", "200.00", "30.00", 2),
		expense("Labor", "300.00", "0", 3),
		expense("Rent & Utilities", "100.00", "15.00", 4),
		expense("Interest Expense", "50.00", "0", 6),
		expense("Income Tax Expense", "80.00", "0", 28),
	}

	p := reports.BuildProfitLoss(entries)

	// Buckets accumulate the tax-inclusive total
	eq(t, "1150.00", p.Revenue.FinishedGarments)
	eq(t, "575.00", p.Revenue.CMTServices)
	eq(t, "100.00", p.Revenue.OtherIncome)
	eq(t, "1825.00", p.Revenue.Total)

	eq(t, "230.00", p.COGS.FabricTrims)
	eq(t, "300.00", p.COGS.Labor)
	eq(t, "530.00", p.COGS.Total)

	eq(t, "115.00", p.Operating.RentUtilities)
	eq(t, "115.00", p.Operating.Total)

	eq(t, "50.00", p.NonOperating.InterestExpense)
	eq(t, "-50.00", p.NonOperating.Total)

	eq(t, "1295.00", p.GrossProfit)     // 1825 - 530
	eq(t, "1180.00", p.OperatingProfit) // 1295 - 115
	eq(t, "1130.00", p.ProfitBeforeTax) // 1180 + (-50)
	eq(t, "80.00", p.TaxExpense)
	eq(t, "1050.00", p.NetProfit)
}

func TestProfitLoss_UnknownCategory_LandsInOperatingOther(t *testing.T) {
	// GIVEN: An expense in a custom category the taxonomy doesn't know
	// WHEN: Folding the P&L
	// THEN: It reports under operating "other", never disappears

	p := reports.BuildProfitLoss([]ledger.Entry{
		expense("Team Building", "120.00", "0", 10),
	})

	eq(t, "120.00", p.Operating.Other)
	eq(t, "120.00", p.Operating.Total)
	eq(t, "-120.00", p.NetProfit)
}

func TestProfitLoss_IncomeTaxExpense_NeverDoubleCounted(t *testing.T) {
	// GIVEN: Only an income tax payment
	// WHEN: Folding the P&L
	// THEN: It feeds taxExpense alone - no cost bucket sees it

	p := reports.BuildProfitLoss([]ledger.Entry{
		expense("Income Tax Expense", "80.00", "0", 15),
	})

	eq(t, "80.00", p.TaxExpense)
	eq(t, "0", p.COGS.Total)
	eq(t, "0", p.Operating.Total)
	eq(t, "0", p.NonOperating.Total)
	eq(t, "-80.00", p.NetProfit)
}

func TestProfitLoss_UnknownIncomeCategory_ReportsAsOtherIncome(t *testing.T) {
	p := reports.BuildProfitLoss([]ledger.Entry{
		income("Scrap Sales", "60.00", "0", 7),
	})

	eq(t, "60.00", p.Revenue.OtherIncome)
	eq(t, "60.00", p.Revenue.Total)
}

func TestProfitLoss_OrderIndependent(t *testing.T) {
	// GIVEN: The same entries in two different orders
	// WHEN: Folding both
	// THEN: Identical statements

	entries := []ledger.Entry{
		income(ledger.IncomeFinishedGarments, "1000.00", "150.00", 1),
		expense("Labor", "300.00", "0", 3),
		expense("Income Tax Expense", "80.00", "0", 28),
	}
	reversed := []ledger.Entry{entries[2], entries[1], entries[0]}

	a := reports.BuildProfitLoss(entries)
	b := reports.BuildProfitLoss(reversed)

	assert.True(t, a.NetProfit.Equal(b.NetProfit))
	assert.True(t, a.Revenue.Total.Equal(b.Revenue.Total))
	assert.True(t, a.COGS.Total.Equal(b.COGS.Total))
}

func TestProfitLoss_EmptyPeriod_AllZero(t *testing.T) {
	p := reports.BuildProfitLoss(nil)

	eq(t, "0", p.Revenue.Total)
	eq(t, "0", p.GrossProfit)
	eq(t, "0", p.NetProfit)
}
