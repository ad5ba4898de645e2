/*
Package ledger is the core of the bookkeeping engine.

PURPOSE:
  This package contains the canonical financial event model and the logic
  that keeps it consistent: every invoice payment and every recorded expense
  is mirrored into exactly one ledger Entry, and all reporting reads from
  those entries, never from the source documents directly.

KEY CONCEPTS IN THIS FILE (types.go):
  - Entry: a single financial event (income or expense) in the book
  - Invoice/Expense: the source documents that originate entries
  - TransactionType/SourceType: closed enumerations, never free text
  - All money is decimal.Decimal; floats never touch an amount

DESIGN PRINCIPLES:
  1. One entry per source document: Entry.SourceRef is the idempotency key
  2. Precision: decimal arithmetic, rounding only when a total is produced
  3. Ownership: every entry belongs to the user who recorded it

SEE ALSO:
  - sync.go: keeps entries in lock-step with invoices and expenses
  - store.go: persistence interfaces
  - reports/: folds entries into financial reports
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// SourceType identifies what kind of document originated an entry.
// MANUAL entries are typed by the user directly and carry no SourceRef.
type SourceType string

const (
	SourceInvoice SourceType = "INVOICE"
	SourceExpense SourceType = "EXPENSE"
	SourceManual  SourceType = "MANUAL"
)

// PaymentMethod enumerates how money changed hands.
type PaymentMethod string

const (
	PayCash         PaymentMethod = "Cash"
	PayBankTransfer PaymentMethod = "Bank Transfer"
	PayCard         PaymentMethod = "Card"
	PayCheque       PaymentMethod = "Cheque"
	PayOther        PaymentMethod = "Other"
)

// ValidPaymentMethod reports whether m is one of the known methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PayCash, PayBankTransfer, PayCard, PayCheque, PayOther:
		return true
	}
	return false
}

// IncomeCategory is the revenue taxonomy for INCOME entries.
// Anything outside the two named lines reports as other income.
type IncomeCategory string

const (
	IncomeFinishedGarments IncomeCategory = "Finished Garments"
	IncomeCMTServices      IncomeCategory = "CMT Services"
	IncomeOther            IncomeCategory = "Other Income"
)

// InvoiceStatus is the lifecycle state of an invoice.
// Only the transition to/from Paid affects the ledger.
type InvoiceStatus string

const (
	StatusPending InvoiceStatus = "Pending"
	StatusSent    InvoiceStatus = "Sent"
	StatusPaid    InvoiceStatus = "Paid"
)

// ValidInvoiceStatus reports whether s is a known status.
func ValidInvoiceStatus(s InvoiceStatus) bool {
	return s == StatusPending || s == StatusSent || s == StatusPaid
}

// =============================================================================
// ENTRY - The canonical financial event
// =============================================================================

// Entry is one row of the book. Reports only ever read entries; source
// documents never feed reports directly.
//
// INVARIANT: at most one entry exists per (Source, SourceRef) pair.
// The store enforces this with a unique index; the synchronizer relies
// on it for idempotent upserts. MANUAL entries have SourceRef == "" and
// are exempt.
type Entry struct {
	ID        string
	Type      TransactionType
	Source    SourceType
	SourceRef string // invoice or expense id; empty for MANUAL

	// Counterparty: by reference (ClientID) or free text.
	ClientID     string
	ClientName   string
	SupplierName string

	// Category: expense category by reference for EXPENSE entries,
	// revenue line for INCOME entries. CategoryName is filled from the
	// category table on load so reports can bucket without a lookup.
	CategoryID     string
	CategoryName   string
	IncomeCategory IncomeCategory

	Amount decimal.Decimal // pre-tax
	Tax    decimal.Decimal
	Total  decimal.Decimal // Amount + Tax by convention, validated on manual writes

	PaymentMethod   PaymentMethod
	IsVatApplicable bool
	Date            time.Time
	Owner           string // user who recorded the event
	Description     string

	CreatedAt time.Time
}

// IsMirrored reports whether the entry tracks a source document.
func (e Entry) IsMirrored() bool {
	return e.Source != SourceManual && e.SourceRef != ""
}

// =============================================================================
// SOURCE DOCUMENTS
// =============================================================================

// InvoiceItem is a single line on an invoice.
type InvoiceItem struct {
	Quantity    decimal.Decimal `json:"quantity"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

// Invoice is a sales document. Becoming Paid is what turns it into income
// in the book; until then it only exists for tracking and statements.
type Invoice struct {
	ID              string
	InvoiceNumber   string // unique; sequential unless manually assigned
	PONumber        string
	Date            time.Time
	FromBusiness    string
	ToClient        string
	ClientName      string // denormalized for display, filled on load
	Items           []InvoiceItem
	SubTotal        decimal.Decimal
	Tax             decimal.Decimal
	TotalAmount     decimal.Decimal
	Status          InvoiceStatus
	Category        IncomeCategory
	IsVatApplicable bool
	Owner           string
	CreatedAt       time.Time
}

// Expense is a purchase document. Unlike invoices there is no status gate:
// an expense is a ledger event from the moment it is recorded.
type Expense struct {
	ID              string
	Date            time.Time
	VendorName      string
	InvoiceNo       string // supplier's reference, not ours
	Amount          decimal.Decimal
	VATAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	IsVatApplicable bool
	CategoryID      string
	PaymentMethod   PaymentMethod
	Notes           string
	Owner           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// =============================================================================
// MASTER DATA
// =============================================================================

// Client is a customer record referenced by invoices and income entries.
type Client struct {
	ID                 string
	Name               string
	VATNumber          string
	RegistrationNumber string
	Address            string
	Phone              string
	Fax                string
	Email              string
	VATApplicable      bool
	CreatedAt          time.Time
}

// Category is an expense category. Default categories match the profit &
// loss taxonomy and are seeded on first run.
type Category struct {
	ID          string
	Name        string
	Description string
	IsDefault   bool
}

// BankAccountType selects which account appears on an invoice.
type BankAccountType string

const (
	AccountVAT    BankAccountType = "VAT"
	AccountNonVAT BankAccountType = "NON_VAT"
)

// BankAccount is the business's own account, printed on invoices.
type BankAccount struct {
	ID            string
	BankName      string
	AccountName   string
	AccountNumber string
	BranchCode    string
	AccountType   BankAccountType
}

// User is the owner context attached to every ledger-affecting call.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

// Round2 rounds a monetary value to 2 decimal places. Applied only at the
// point a total (or a client-facing balance) is produced; intermediate
// accumulation stays unrounded.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// AddsUp reports whether amount + tax equals total to the cent.
func AddsUp(amount, tax, total decimal.Decimal) bool {
	return amount.Add(tax).Sub(total).Abs().LessThan(decimal.NewFromFloat(0.005))
}
