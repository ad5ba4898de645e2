/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  All JSON shapes crossing the HTTP boundary live here, together with the
  helpers that serialize them. Domain types never marshal directly: money
  is decimal inside the engine and a plain JSON number outside, dates are
  time.Time inside and "2006-01-02" strings outside.

RESPONSE ENVELOPE:
  Every response is {"success": bool, ...}. Successful responses carry
  their payload under "data" (plus siblings like pagination); failures
  carry "message".

ERROR MAPPING:
  writeDomainError translates engine errors to HTTP status codes with
  errors.Is/As:
    400  validation failures
    401  acting on another user's record
    404  missing records
    409  duplicate invoice number
    500  everything else, including synchronization failures

SEE ALSO:
  - handlers.go: ledger entry handlers and the Handler context
  - ledger/errors.go: the error taxonomy being mapped
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/reports"
)

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeData wraps a payload in the success envelope.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: message})
}

// writeDomainError maps an engine error to a status code and envelope.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotOwner):
		writeError(w, http.StatusUnauthorized, "not authorized for this record")
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, ledger.ErrDuplicateInvoiceNumber):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// money renders a decimal as a JSON number, rounded to the cent.
func money(d decimal.Decimal) float64 {
	return ledger.Round2(d).InexactFloat64()
}

// =============================================================================
// LEDGER ENTRY DTOs
// =============================================================================

// EntryRequest is the write shape for manual ledger entries.
type EntryRequest struct {
	Type            string          `json:"transactionType"`
	ClientID        string          `json:"client,omitempty"`
	ClientName      string          `json:"clientName,omitempty"`
	SupplierName    string          `json:"supplierName,omitempty"`
	CategoryID      string          `json:"expenseCategory,omitempty"`
	IncomeCategory  string          `json:"incomeCategory,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"totalAmount"`
	PaymentMethod   string          `json:"paymentMethod"`
	IsVatApplicable bool            `json:"isVatApplicable"`
	Date            string          `json:"date"`
	Description     string          `json:"description,omitempty"`
}

// EntryDTO is the read shape for ledger entries.
type EntryDTO struct {
	ID              string  `json:"_id"`
	Type            string  `json:"transactionType"`
	SourceType      string  `json:"sourceType"`
	SourceRef       string  `json:"sourceRef,omitempty"`
	ClientID        string  `json:"client,omitempty"`
	ClientName      string  `json:"clientName,omitempty"`
	SupplierName    string  `json:"supplierName,omitempty"`
	CategoryID      string  `json:"expenseCategory,omitempty"`
	CategoryName    string  `json:"expenseCategoryName,omitempty"`
	IncomeCategory  string  `json:"incomeCategory,omitempty"`
	Amount          float64 `json:"amount"`
	Tax             float64 `json:"tax"`
	Total           float64 `json:"totalAmount"`
	PaymentMethod   string  `json:"paymentMethod"`
	IsVatApplicable bool    `json:"isVatApplicable"`
	Date            string  `json:"date"`
	Description     string  `json:"description,omitempty"`
}

func toEntryDTO(e ledger.Entry) EntryDTO {
	return EntryDTO{
		ID:              e.ID,
		Type:            string(e.Type),
		SourceType:      string(e.Source),
		SourceRef:       e.SourceRef,
		ClientID:        e.ClientID,
		ClientName:      e.ClientName,
		SupplierName:    e.SupplierName,
		CategoryID:      e.CategoryID,
		CategoryName:    e.CategoryName,
		IncomeCategory:  string(e.IncomeCategory),
		Amount:          money(e.Amount),
		Tax:             money(e.Tax),
		Total:           money(e.Total),
		PaymentMethod:   string(e.PaymentMethod),
		IsVatApplicable: e.IsVatApplicable,
		Date:            e.Date.Format(ledger.DateFormat),
		Description:     e.Description,
	}
}

func toEntryDTOs(entries []ledger.Entry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

// Pagination describes a page of a larger listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func paginate(page, limit, total int) Pagination {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// =============================================================================
// INVOICE DTOs
// =============================================================================

// InvoiceItemDTO is one invoice line on the wire.
type InvoiceItemDTO struct {
	Quantity    decimal.Decimal `json:"quantity"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceRequest is the write shape for invoices. InvoiceNo, when set,
// bypasses the sequence generator; uniqueness is still enforced.
type InvoiceRequest struct {
	InvoiceNo       string           `json:"invoiceNo,omitempty"`
	PONumber        string           `json:"poNumber,omitempty"`
	Date            string           `json:"invoiceDate"`
	FromBusiness    string           `json:"from,omitempty"`
	ToClient        string           `json:"to"`
	Items           []InvoiceItemDTO `json:"items"`
	SubTotal        decimal.Decimal  `json:"subTotal"`
	Tax             decimal.Decimal  `json:"tax"`
	TotalAmount     decimal.Decimal  `json:"totalAmount"`
	Status          string           `json:"status,omitempty"`
	Category        string           `json:"category,omitempty"`
	IsVatApplicable bool             `json:"isVatApplicable"`
}

// InvoiceDTO is the read shape for invoices.
type InvoiceDTO struct {
	ID              string           `json:"_id"`
	InvoiceNumber   string           `json:"invoiceNo"`
	PONumber        string           `json:"poNumber,omitempty"`
	Date            string           `json:"invoiceDate"`
	FromBusiness    string           `json:"from,omitempty"`
	ToClient        string           `json:"to,omitempty"`
	ClientName      string           `json:"clientName,omitempty"`
	Items           []InvoiceItemDTO `json:"items"`
	SubTotal        float64          `json:"subTotal"`
	Tax             float64          `json:"tax"`
	TotalAmount     float64          `json:"totalAmount"`
	Status          string           `json:"status"`
	Category        string           `json:"category,omitempty"`
	IsVatApplicable bool             `json:"isVatApplicable"`
}

func toInvoiceDTO(inv ledger.Invoice) InvoiceDTO {
	items := make([]InvoiceItemDTO, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = InvoiceItemDTO(it)
	}
	return InvoiceDTO{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		PONumber:        inv.PONumber,
		Date:            inv.Date.Format(ledger.DateFormat),
		FromBusiness:    inv.FromBusiness,
		ToClient:        inv.ToClient,
		ClientName:      inv.ClientName,
		Items:           items,
		SubTotal:        money(inv.SubTotal),
		Tax:             money(inv.Tax),
		TotalAmount:     money(inv.TotalAmount),
		Status:          string(inv.Status),
		Category:        string(inv.Category),
		IsVatApplicable: inv.IsVatApplicable,
	}
}

// InvoiceStatsDTO summarizes the listed period's invoices.
type InvoiceStatsDTO struct {
	TotalRevenue       float64 `json:"totalRevenue"`
	PaidAmount         float64 `json:"paidAmount"`
	OutstandingRevenue float64 `json:"outstandingRevenue"`
	CollectedVAT       float64 `json:"collectedVAT"`
	NetRevenue         float64 `json:"netRevenue"`
	InvoiceCount       int     `json:"invoiceCount"`
}

// ClientStatementDTO groups one client's Sent invoices over a period,
// ready to be rendered as that client's statement.
type ClientStatementDTO struct {
	ClientName    string       `json:"clientName"`
	TotalInvoices int          `json:"totalInvoices"`
	TotalAmount   float64      `json:"totalAmount"`
	Invoices      []InvoiceDTO `json:"invoices"`
}

// ProductOrdersDTO aggregates open order quantities for one product line.
type ProductOrdersDTO struct {
	Product      string  `json:"product"`
	TotalOrders  float64 `json:"totalOrders"`
	InvoiceCount int     `json:"invoiceCount"`
}

// =============================================================================
// EXPENSE DTOs
// =============================================================================

// ExpenseRequest is the write shape for expenses.
type ExpenseRequest struct {
	Date            string          `json:"date"`
	VendorName      string          `json:"vendorName"`
	InvoiceNo       string          `json:"invoiceNo,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	VATAmount       decimal.Decimal `json:"vatAmount"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	IsVatApplicable *bool           `json:"isVatApplicable,omitempty"`
	CategoryID      string          `json:"category,omitempty"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// ExpenseDTO is the read shape for expenses.
type ExpenseDTO struct {
	ID              string  `json:"_id"`
	Date            string  `json:"date"`
	VendorName      string  `json:"vendorName"`
	InvoiceNo       string  `json:"invoiceNo,omitempty"`
	Amount          float64 `json:"amount"`
	VATAmount       float64 `json:"vatAmount"`
	TotalAmount     float64 `json:"totalAmount"`
	IsVatApplicable bool    `json:"isVatApplicable"`
	CategoryID      string  `json:"category,omitempty"`
	PaymentMethod   string  `json:"paymentMethod"`
	Notes           string  `json:"notes,omitempty"`
}

func toExpenseDTO(exp ledger.Expense) ExpenseDTO {
	return ExpenseDTO{
		ID:              exp.ID,
		Date:            exp.Date.Format(ledger.DateFormat),
		VendorName:      exp.VendorName,
		InvoiceNo:       exp.InvoiceNo,
		Amount:          money(exp.Amount),
		VATAmount:       money(exp.VATAmount),
		TotalAmount:     money(exp.TotalAmount),
		IsVatApplicable: exp.IsVatApplicable,
		CategoryID:      exp.CategoryID,
		PaymentMethod:   string(exp.PaymentMethod),
		Notes:           exp.Notes,
	}
}

// ExpenseStatsDTO summarizes the listed period's expenses.
type ExpenseStatsDTO struct {
	TotalExpense  float64 `json:"totalExpense"`
	VATExpense    float64 `json:"vatExpense"`
	NonVATExpense float64 `json:"nonVatExpense"`
	ExpenseCount  int     `json:"expenseCount"`
}

// =============================================================================
// MASTER DATA DTOs
// =============================================================================

// ClientRequest is the write shape for clients.
type ClientRequest struct {
	Name               string `json:"name"`
	VATNumber          string `json:"vatNumber,omitempty"`
	RegistrationNumber string `json:"registrationNumber,omitempty"`
	Address            string `json:"address,omitempty"`
	Phone              string `json:"phone,omitempty"`
	Fax                string `json:"fax,omitempty"`
	Email              string `json:"email,omitempty"`
	VATApplicable      bool   `json:"vatApplicable"`
}

// ClientDTO is the read shape for clients.
type ClientDTO struct {
	ID                 string `json:"_id"`
	Name               string `json:"name"`
	VATNumber          string `json:"vatNumber,omitempty"`
	RegistrationNumber string `json:"registrationNumber,omitempty"`
	Address            string `json:"address,omitempty"`
	Phone              string `json:"phone,omitempty"`
	Fax                string `json:"fax,omitempty"`
	Email              string `json:"email,omitempty"`
	VATApplicable      bool   `json:"vatApplicable"`
}

func toClientDTO(c ledger.Client) ClientDTO {
	return ClientDTO{
		ID:                 c.ID,
		Name:               c.Name,
		VATNumber:          c.VATNumber,
		RegistrationNumber: c.RegistrationNumber,
		Address:            c.Address,
		Phone:              c.Phone,
		Fax:                c.Fax,
		Email:              c.Email,
		VATApplicable:      c.VATApplicable,
	}
}

// CategoryDTO is both the read and write shape for expense categories.
type CategoryDTO struct {
	ID          string `json:"_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsDefault   bool   `json:"isDefault,omitempty"`
}

// BankAccountDTO is both the read and write shape for bank accounts.
type BankAccountDTO struct {
	ID            string `json:"_id,omitempty"`
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	BranchCode    string `json:"branchCode,omitempty"`
	AccountType   string `json:"accountType"`
}

func toBankAccountDTO(b ledger.BankAccount) BankAccountDTO {
	return BankAccountDTO{
		ID:            b.ID,
		BankName:      b.BankName,
		AccountName:   b.AccountName,
		AccountNumber: b.AccountNumber,
		BranchCode:    b.BranchCode,
		AccountType:   string(b.AccountType),
	}
}

// =============================================================================
// USER DTOs
// =============================================================================

// RegisterRequest creates a user account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest authenticates a user.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserDTO is the read shape for users. The password hash never leaves
// the server.
type UserDTO struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserDTO(u ledger.User) UserDTO {
	return UserDTO{ID: u.ID, Name: u.Name, Email: u.Email}
}

// =============================================================================
// REPORT DTOs
// =============================================================================

// ProfitLossDTO mirrors reports.ProfitLoss with JSON-number money.
type ProfitLossDTO struct {
	Revenue struct {
		FinishedGarments float64 `json:"finishedGarments"`
		CMTServices      float64 `json:"cmtServices"`
		OtherIncome      float64 `json:"otherIncome"`
		Total            float64 `json:"total"`
	} `json:"revenue"`
	COGS struct {
		FabricTrims float64 `json:"fabricTrims"`
		Labor       float64 `json:"labor"`
		Overheads   float64 `json:"overheads"`
		Packaging   float64 `json:"packaging"`
		Total       float64 `json:"total"`
	} `json:"cogs"`
	Operating struct {
		Admin          float64 `json:"admin"`
		SalesMarketing float64 `json:"salesMarketing"`
		RentUtilities  float64 `json:"rentUtilities"`
		Depreciation   float64 `json:"depreciation"`
		Other          float64 `json:"other"`
		Total          float64 `json:"total"`
	} `json:"operatingExpenses"`
	NonOperating struct {
		InterestIncome  float64 `json:"interestIncome"`
		InterestExpense float64 `json:"interestExpense"`
		Other           float64 `json:"other"`
		Total           float64 `json:"total"`
	} `json:"nonOperating"`
	GrossProfit     float64 `json:"grossProfit"`
	OperatingProfit float64 `json:"operatingProfit"`
	ProfitBeforeTax float64 `json:"profitBeforeTax"`
	TaxExpense      float64 `json:"taxExpense"`
	NetProfit       float64 `json:"netProfit"`
}

func toProfitLossDTO(p *reports.ProfitLoss) ProfitLossDTO {
	var dto ProfitLossDTO
	dto.Revenue.FinishedGarments = money(p.Revenue.FinishedGarments)
	dto.Revenue.CMTServices = money(p.Revenue.CMTServices)
	dto.Revenue.OtherIncome = money(p.Revenue.OtherIncome)
	dto.Revenue.Total = money(p.Revenue.Total)
	dto.COGS.FabricTrims = money(p.COGS.FabricTrims)
	dto.COGS.Labor = money(p.COGS.Labor)
	dto.COGS.Overheads = money(p.COGS.Overheads)
	dto.COGS.Packaging = money(p.COGS.Packaging)
	dto.COGS.Total = money(p.COGS.Total)
	dto.Operating.Admin = money(p.Operating.Admin)
	dto.Operating.SalesMarketing = money(p.Operating.SalesMarketing)
	dto.Operating.RentUtilities = money(p.Operating.RentUtilities)
	dto.Operating.Depreciation = money(p.Operating.Depreciation)
	dto.Operating.Other = money(p.Operating.Other)
	dto.Operating.Total = money(p.Operating.Total)
	dto.NonOperating.InterestIncome = money(p.NonOperating.InterestIncome)
	dto.NonOperating.InterestExpense = money(p.NonOperating.InterestExpense)
	dto.NonOperating.Other = money(p.NonOperating.Other)
	dto.NonOperating.Total = money(p.NonOperating.Total)
	dto.GrossProfit = money(p.GrossProfit)
	dto.OperatingProfit = money(p.OperatingProfit)
	dto.ProfitBeforeTax = money(p.ProfitBeforeTax)
	dto.TaxExpense = money(p.TaxExpense)
	dto.NetProfit = money(p.NetProfit)
	return dto
}

// VATSummaryDTO mirrors reports.VATSummary.
type VATSummaryDTO struct {
	OutputVAT      float64    `json:"outputVAT"`
	InputVAT       float64    `json:"inputVAT"`
	NetVAT         float64    `json:"netVAT"`
	IncomeEntries  []EntryDTO `json:"incomeEntries"`
	ExpenseEntries []EntryDTO `json:"expenseEntries"`
}

func toVATSummaryDTO(v *reports.VATSummary) VATSummaryDTO {
	return VATSummaryDTO{
		OutputVAT:      money(v.OutputVAT),
		InputVAT:       money(v.InputVAT),
		NetVAT:         money(v.NetVAT),
		IncomeEntries:  toEntryDTOs(v.IncomeEntries),
		ExpenseEntries: toEntryDTOs(v.ExpenseEntries),
	}
}

// VATLedgerLineDTO is one row of the VAT ledger.
type VATLedgerLineDTO struct {
	EntryID      string  `json:"entryId"`
	Date         string  `json:"date"`
	Description  string  `json:"description,omitempty"`
	Counterparty string  `json:"counterparty,omitempty"`
	Type         string  `json:"transactionType"`
	Debit        float64 `json:"debit"`
	Credit       float64 `json:"credit"`
	Balance      float64 `json:"balance"`
}

// VATLedgerDTO mirrors reports.VATLedger.
type VATLedgerDTO struct {
	Lines          []VATLedgerLineDTO `json:"lines"`
	TotalOutputVAT float64            `json:"totalOutputVAT"`
	TotalInputVAT  float64            `json:"totalInputVAT"`
	NetVAT         float64            `json:"netVAT"`
}

func toVATLedgerDTO(v *reports.VATLedger) VATLedgerDTO {
	lines := make([]VATLedgerLineDTO, len(v.Lines))
	for i, l := range v.Lines {
		lines[i] = VATLedgerLineDTO{
			EntryID:      l.EntryID,
			Date:         l.Date.Format(ledger.DateFormat),
			Description:  l.Description,
			Counterparty: l.Counterparty,
			Type:         string(l.Type),
			Debit:        money(l.Debit),
			Credit:       money(l.Credit),
			Balance:      money(l.Balance),
		}
	}
	return VATLedgerDTO{
		Lines:          lines,
		TotalOutputVAT: money(v.TotalOutputVAT),
		TotalInputVAT:  money(v.TotalInputVAT),
		NetVAT:         money(v.NetVAT),
	}
}

// GeneralLedgerLineDTO is one row of the general ledger.
type GeneralLedgerLineDTO struct {
	EntryID      string  `json:"entryId"`
	Date         string  `json:"date"`
	Description  string  `json:"description,omitempty"`
	Category     string  `json:"category,omitempty"`
	Counterparty string  `json:"counterparty,omitempty"`
	Type         string  `json:"transactionType"`
	Amount       float64 `json:"amount"`
	Balance      float64 `json:"balance"`
}

// GeneralLedgerDTO mirrors reports.GeneralLedger.
type GeneralLedgerDTO struct {
	Lines          []GeneralLedgerLineDTO `json:"lines"`
	TotalIncome    float64                `json:"totalIncome"`
	TotalExpense   float64                `json:"totalExpense"`
	ClosingBalance float64                `json:"closingBalance"`
}

func toGeneralLedgerDTO(g *reports.GeneralLedger) GeneralLedgerDTO {
	lines := make([]GeneralLedgerLineDTO, len(g.Lines))
	for i, l := range g.Lines {
		lines[i] = GeneralLedgerLineDTO{
			EntryID:      l.EntryID,
			Date:         l.Date.Format(ledger.DateFormat),
			Description:  l.Description,
			Category:     l.Category,
			Counterparty: l.Counterparty,
			Type:         string(l.Type),
			Amount:       money(l.Amount),
			Balance:      money(l.Balance),
		}
	}
	return GeneralLedgerDTO{
		Lines:          lines,
		TotalIncome:    money(g.TotalIncome),
		TotalExpense:   money(g.TotalExpense),
		ClosingBalance: money(g.ClosingBalance),
	}
}

// CashFlowDTO mirrors reports.CashFlow.
type CashFlowDTO struct {
	Inflows      []EntryDTO `json:"inflows"`
	Outflows     []EntryDTO `json:"outflows"`
	TotalInflow  float64    `json:"totalInflow"`
	TotalOutflow float64    `json:"totalOutflow"`
	NetCashFlow  float64    `json:"netCashFlow"`
}

func toCashFlowDTO(c *reports.CashFlow) CashFlowDTO {
	return CashFlowDTO{
		Inflows:      toEntryDTOs(c.Inflows),
		Outflows:     toEntryDTOs(c.Outflows),
		TotalInflow:  money(c.TotalInflow),
		TotalOutflow: money(c.TotalOutflow),
		NetCashFlow:  money(c.NetCashFlow),
	}
}
