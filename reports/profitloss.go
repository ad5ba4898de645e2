/*
profitloss.go - Profit & loss statement

BUCKETING:
  Income splits across the revenue taxonomy by the entry's income
  category. Expenses dispatch through a closed mapping table keyed on the
  expense category name; a category missing from the table lands in
  operating "other" rather than silently disappearing. "Income Tax
  Expense" is reserved: it feeds taxExpense only and never a cost bucket.

DERIVATIONS:
  grossProfit     = revenue.total - cogs.total
  operatingProfit = grossProfit - operating.total
  nonOperating.total = interestIncome - interestExpense + other
  profitBeforeTax = operatingProfit + nonOperating.total
  netProfit       = profitBeforeTax - taxExpense

Buckets accumulate the gross (tax-inclusive) total of each entry.
*/
package reports

import (
	"github.com/shopspring/decimal"
	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// REPORT SHAPE
// =============================================================================

// Revenue is the income side of the P&L.
type Revenue struct {
	FinishedGarments decimal.Decimal
	CMTServices      decimal.Decimal
	OtherIncome      decimal.Decimal
	Total            decimal.Decimal
}

// COGS is the cost-of-goods-sold section.
type COGS struct {
	FabricTrims decimal.Decimal
	Labor       decimal.Decimal
	Overheads   decimal.Decimal
	Packaging   decimal.Decimal
	Total       decimal.Decimal
}

// Operating is the operating-expense section.
type Operating struct {
	Admin          decimal.Decimal
	SalesMarketing decimal.Decimal
	RentUtilities  decimal.Decimal
	Depreciation   decimal.Decimal
	Other          decimal.Decimal
	Total          decimal.Decimal
}

// NonOperating is the non-operating section. Total is signed:
// interest income adds, interest expense subtracts.
type NonOperating struct {
	InterestIncome  decimal.Decimal
	InterestExpense decimal.Decimal
	Other           decimal.Decimal
	Total           decimal.Decimal
}

// ProfitLoss is the full statement for one period.
type ProfitLoss struct {
	Revenue      Revenue
	COGS         COGS
	Operating    Operating
	NonOperating NonOperating

	GrossProfit     decimal.Decimal
	OperatingProfit decimal.Decimal
	ProfitBeforeTax decimal.Decimal
	TaxExpense      decimal.Decimal
	NetProfit       decimal.Decimal
}

// =============================================================================
// BUCKET MAPPING - closed table, no string dispatch at fold time
// =============================================================================

type expenseBucket int

const (
	bucketFabricTrims expenseBucket = iota
	bucketLabor
	bucketOverheads
	bucketPackaging
	bucketAdmin
	bucketSalesMarketing
	bucketRentUtilities
	bucketDepreciation
	bucketOperatingOther
	bucketInterestExpense
	bucketNonOperatingOther
	bucketIncomeTax
)

// expenseBuckets maps expense category names onto P&L buckets. The names
// are the seeded default categories; anything unmapped reports as
// operating "other".
var expenseBuckets = map[string]expenseBucket{
	"Trims & Materials":                    bucketFabricTrims,
	"Labor":                                bucketLabor,
	"Factory Overheads":                    bucketOverheads,
	"Packaging & Shipping":                 bucketPackaging,
	"Administrative Expenses":              bucketAdmin,
	"Sales & Marketing":                    bucketSalesMarketing,
	"Rent & Utilities":                     bucketRentUtilities,
	"Depreciation & Machinery Maintenance": bucketDepreciation,
	"Other Expenses":                       bucketOperatingOther,
	"Interest Expense":                     bucketInterestExpense,
	"Other Non-Operational":                bucketNonOperatingOther,
	"Income Tax Expense":                   bucketIncomeTax,
}

func bucketFor(categoryName string) expenseBucket {
	if b, ok := expenseBuckets[categoryName]; ok {
		return b
	}
	return bucketOperatingOther
}

// =============================================================================
// FOLD
// =============================================================================

// BuildProfitLoss folds entries into a P&L statement. Entry order is
// irrelevant; only totals are produced.
func BuildProfitLoss(entries []ledger.Entry) *ProfitLoss {
	var p ProfitLoss

	for _, e := range entries {
		switch e.Type {
		case ledger.TypeIncome:
			switch e.IncomeCategory {
			case ledger.IncomeFinishedGarments:
				p.Revenue.FinishedGarments = p.Revenue.FinishedGarments.Add(e.Total)
			case ledger.IncomeCMTServices:
				p.Revenue.CMTServices = p.Revenue.CMTServices.Add(e.Total)
			default:
				p.Revenue.OtherIncome = p.Revenue.OtherIncome.Add(e.Total)
			}

		case ledger.TypeExpense:
			switch bucketFor(e.CategoryName) {
			case bucketFabricTrims:
				p.COGS.FabricTrims = p.COGS.FabricTrims.Add(e.Total)
			case bucketLabor:
				p.COGS.Labor = p.COGS.Labor.Add(e.Total)
			case bucketOverheads:
				p.COGS.Overheads = p.COGS.Overheads.Add(e.Total)
			case bucketPackaging:
				p.COGS.Packaging = p.COGS.Packaging.Add(e.Total)
			case bucketAdmin:
				p.Operating.Admin = p.Operating.Admin.Add(e.Total)
			case bucketSalesMarketing:
				p.Operating.SalesMarketing = p.Operating.SalesMarketing.Add(e.Total)
			case bucketRentUtilities:
				p.Operating.RentUtilities = p.Operating.RentUtilities.Add(e.Total)
			case bucketDepreciation:
				p.Operating.Depreciation = p.Operating.Depreciation.Add(e.Total)
			case bucketOperatingOther:
				p.Operating.Other = p.Operating.Other.Add(e.Total)
			case bucketInterestExpense:
				p.NonOperating.InterestExpense = p.NonOperating.InterestExpense.Add(e.Total)
			case bucketNonOperatingOther:
				p.NonOperating.Other = p.NonOperating.Other.Add(e.Total)
			case bucketIncomeTax:
				p.TaxExpense = p.TaxExpense.Add(e.Total)
			}
		}
	}

	p.Revenue.Total = p.Revenue.FinishedGarments.
		Add(p.Revenue.CMTServices).
		Add(p.Revenue.OtherIncome)

	p.COGS.Total = p.COGS.FabricTrims.
		Add(p.COGS.Labor).
		Add(p.COGS.Overheads).
		Add(p.COGS.Packaging)

	p.Operating.Total = p.Operating.Admin.
		Add(p.Operating.SalesMarketing).
		Add(p.Operating.RentUtilities).
		Add(p.Operating.Depreciation).
		Add(p.Operating.Other)

	p.NonOperating.Total = p.NonOperating.InterestIncome.
		Sub(p.NonOperating.InterestExpense).
		Add(p.NonOperating.Other)

	p.GrossProfit = p.Revenue.Total.Sub(p.COGS.Total)
	p.OperatingProfit = p.GrossProfit.Sub(p.Operating.Total)
	p.ProfitBeforeTax = p.OperatingProfit.Add(p.NonOperating.Total)
	p.NetProfit = p.ProfitBeforeTax.Sub(p.TaxExpense)

	p.round()
	return &p
}

// round applies 2dp rounding to every produced figure, after all
// accumulation is done.
func (p *ProfitLoss) round() {
	for _, d := range []*decimal.Decimal{
		&p.Revenue.FinishedGarments, &p.Revenue.CMTServices, &p.Revenue.OtherIncome, &p.Revenue.Total,
		&p.COGS.FabricTrims, &p.COGS.Labor, &p.COGS.Overheads, &p.COGS.Packaging, &p.COGS.Total,
		&p.Operating.Admin, &p.Operating.SalesMarketing, &p.Operating.RentUtilities,
		&p.Operating.Depreciation, &p.Operating.Other, &p.Operating.Total,
		&p.NonOperating.InterestIncome, &p.NonOperating.InterestExpense,
		&p.NonOperating.Other, &p.NonOperating.Total,
		&p.GrossProfit, &p.OperatingProfit, &p.ProfitBeforeTax, &p.TaxExpense, &p.NetProfit,
	} {
		*d = ledger.Round2(*d)
	}
}
