/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.EntryStore and ledger.CounterStore plus persistence
  for source documents (invoices, expenses) and master data (users,
  clients, categories, bank accounts). In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

MIRROR INVARIANT:
  A partial unique index on (source_type, source_ref) guarantees at most
  one ledger entry per source document. Mirrored writes are single
  INSERT .. ON CONFLICT statements, so a retried event can never race
  itself into a duplicate.

COUNTER:
  The invoice counter is advanced with one INSERT .. ON CONFLICT ..
  RETURNING statement - an atomic fetch-and-increment at the storage
  layer, not a read-then-write pair.

MONEY AND DATES:
  Monetary values are stored as decimal TEXT, never floats. Ledger and
  document dates are stored as ISO dates (YYYY-MM-DD) so lexical range
  comparison matches chronological order.

WAL MODE:
  SQLite is opened with WAL for better concurrency: report reads never
  block behind the single writer.

USAGE:
  store, err := sqlite.New("./data/books.db")   // ":memory:" for tests
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection; pin the pool to one
	// so every caller sees the same schema.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema and seeds default categories.
func (s *Store) migrate() error {
	schema := `
	-- Users (owner context for every ledger-affecting call)
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Clients (invoice counterparties)
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		vat_number TEXT,
		registration_number TEXT,
		address TEXT,
		phone TEXT,
		fax TEXT,
		email TEXT,
		vat_applicable INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Expense categories (the P&L taxonomy lives here)
	CREATE TABLE IF NOT EXISTS expense_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT,
		is_default INTEGER NOT NULL DEFAULT 0
	);

	-- Bank accounts shown on invoices
	CREATE TABLE IF NOT EXISTS bank_accounts (
		id TEXT PRIMARY KEY,
		bank_name TEXT NOT NULL,
		account_name TEXT NOT NULL,
		account_number TEXT NOT NULL,
		branch_code TEXT,
		account_type TEXT NOT NULL
	);

	-- Invoices (source documents, income side)
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		invoice_number TEXT NOT NULL UNIQUE,
		po_number TEXT,
		invoice_date TEXT NOT NULL,
		from_business TEXT,
		to_client TEXT,
		items_json TEXT NOT NULL DEFAULT '[]',
		sub_total TEXT NOT NULL,
		tax TEXT NOT NULL DEFAULT '0',
		total_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		category TEXT,
		is_vat_applicable INTEGER NOT NULL DEFAULT 0,
		owner_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_owner_date
		ON invoices(owner_id, invoice_date);
	CREATE INDEX IF NOT EXISTS idx_invoices_status
		ON invoices(status);

	-- Expenses (source documents, cost side)
	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		expense_date TEXT NOT NULL,
		vendor_name TEXT NOT NULL,
		invoice_no TEXT,
		amount TEXT NOT NULL,
		vat_amount TEXT NOT NULL DEFAULT '0',
		total_amount TEXT NOT NULL,
		is_vat_applicable INTEGER NOT NULL DEFAULT 1,
		category_id TEXT,
		payment_method TEXT NOT NULL DEFAULT 'Cash',
		notes TEXT,
		owner_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_owner_date
		ON expenses(owner_id, expense_date);

	-- Ledger entries (the canonical book)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		transaction_type TEXT NOT NULL,
		source_type TEXT NOT NULL,
		source_ref TEXT NOT NULL DEFAULT '',
		client_id TEXT,
		client_name TEXT,
		supplier_name TEXT,
		category_id TEXT,
		income_category TEXT,
		amount TEXT NOT NULL,
		tax TEXT NOT NULL DEFAULT '0',
		total TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		is_vat_applicable INTEGER NOT NULL DEFAULT 0,
		entry_date TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: at most one mirrored entry per source document.
	-- MANUAL entries carry source_ref = '' and are exempt.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_source
		ON ledger_entries(source_type, source_ref)
		WHERE source_ref != '';

	-- Report hot path: owner + date range scans
	CREATE INDEX IF NOT EXISTS idx_ledger_owner_date
		ON ledger_entries(owner_id, entry_date);
	CREATE INDEX IF NOT EXISTS idx_ledger_type
		ON ledger_entries(transaction_type);

	-- Named counters (invoice sequence)
	CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.seedDefaultCategories()
}

// seedDefaultCategories inserts the default expense categories the P&L
// taxonomy expects. Existing categories are left untouched.
func (s *Store) seedDefaultCategories() error {
	defaults := []struct{ name, description string }{
		{"Trims & Materials", "Fabric, trims and raw materials (COGS)"},
		{"Labor", "Production wages and piece rates (COGS)"},
		{"Factory Overheads", "Factory running costs (COGS)"},
		{"Packaging & Shipping", "Packaging materials and outbound freight (COGS)"},
		{"Administrative Expenses", "Office, accounting and admin costs"},
		{"Sales & Marketing", "Advertising, samples, commissions"},
		{"Rent & Utilities", "Premises rent, electricity, water"},
		{"Depreciation & Machinery Maintenance", "Machine upkeep and depreciation"},
		{"Other Expenses", "Operating costs with no dedicated bucket"},
		{"Interest Expense", "Interest on loans and overdrafts"},
		{"Other Non-Operational", "Non-operating costs"},
		{"Income Tax Expense", "Income tax payments (reported separately)"},
	}
	for _, d := range defaults {
		_, err := s.db.Exec(
			`INSERT INTO expense_categories (id, name, description, is_default)
			 VALUES (?, ?, ?, 1)
			 ON CONFLICT(name) DO NOTHING`,
			uuid.NewString(), d.name, d.description,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

const dateFormat = ledger.DateFormat

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339Nano) }

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseDate(s string) time.Time {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type rowScanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// LEDGER ENTRIES (ledger.EntryStore)
// =============================================================================

// entryColumns resolves counterparty and category names at read time so
// reports can bucket without extra lookups.
const entryColumns = `
	le.id, le.transaction_type, le.source_type, le.source_ref,
	COALESCE(le.client_id, ''), COALESCE(NULLIF(le.client_name, ''), c.name, ''),
	COALESCE(le.supplier_name, ''),
	COALESCE(le.category_id, ''), COALESCE(ec.name, ''), COALESCE(le.income_category, ''),
	le.amount, le.tax, le.total, le.payment_method, le.is_vat_applicable,
	le.entry_date, le.owner_id, COALESCE(le.description, ''), le.created_at`

const entryFrom = `
	FROM ledger_entries le
	LEFT JOIN clients c ON c.id = le.client_id
	LEFT JOIN expense_categories ec ON ec.id = le.category_id`

func scanEntry(row rowScanner) (ledger.Entry, error) {
	var e ledger.Entry
	var amount, tax, total, date, created string
	var vat int
	err := row.Scan(
		&e.ID, &e.Type, &e.Source, &e.SourceRef,
		&e.ClientID, &e.ClientName, &e.SupplierName,
		&e.CategoryID, &e.CategoryName, &e.IncomeCategory,
		&amount, &tax, &total, &e.PaymentMethod, &vat,
		&date, &e.Owner, &e.Description, &created,
	)
	if err != nil {
		return ledger.Entry{}, err
	}
	e.Amount = parseDecimal(amount)
	e.Tax = parseDecimal(tax)
	e.Total = parseDecimal(total)
	e.IsVatApplicable = vat != 0
	e.Date = parseDate(date)
	e.CreatedAt = parseTimestamp(created)
	return e, nil
}

func entryArgs(e ledger.Entry) []any {
	return []any{
		e.ID, string(e.Type), string(e.Source), e.SourceRef,
		e.ClientID, e.ClientName, e.SupplierName,
		e.CategoryID, string(e.IncomeCategory),
		e.Amount.String(), e.Tax.String(), e.Total.String(),
		string(e.PaymentMethod), boolToInt(e.IsVatApplicable),
		e.Date.Format(dateFormat), e.Owner, e.Description, nowRFC3339(),
	}
}

const entryInsert = `
	INSERT INTO ledger_entries (
		id, transaction_type, source_type, source_ref,
		client_id, client_name, supplier_name,
		category_id, income_category,
		amount, tax, total, payment_method, is_vat_applicable,
		entry_date, owner_id, description, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Insert adds a new (typically MANUAL) entry.
func (s *Store) Insert(ctx context.Context, e ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, entryInsert, entryArgs(e)...)
	return err
}

// Update replaces all user-editable fields of an existing entry.
func (s *Store) Update(ctx context.Context, e ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE ledger_entries SET
			transaction_type = ?, client_id = ?, client_name = ?, supplier_name = ?,
			category_id = ?, income_category = ?,
			amount = ?, tax = ?, total = ?, payment_method = ?, is_vat_applicable = ?,
			entry_date = ?, description = ?
		WHERE id = ?`,
		string(e.Type), e.ClientID, e.ClientName, e.SupplierName,
		e.CategoryID, string(e.IncomeCategory),
		e.Amount.String(), e.Tax.String(), e.Total.String(),
		string(e.PaymentMethod), boolToInt(e.IsVatApplicable),
		e.Date.Format(dateFormat), e.Description,
		e.ID,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// Delete removes an entry by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// Get returns an entry by id.
func (s *Store) Get(ctx context.Context, id string) (*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT`+entryColumns+entryFrom+` WHERE le.id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns the owner's entries in range, newest first, paginated.
// Also returns the total count of matching entries.
func (s *Store) List(ctx context.Context, owner string, r ledger.DateRange, page, limit int) ([]ledger.Entry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 40
	}

	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ledger_entries
		WHERE owner_id = ? AND entry_date >= ? AND entry_date <= ?`,
		owner, r.Start.Format(dateFormat), r.End.Format(dateFormat),
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT`+entryColumns+entryFrom+`
		WHERE le.owner_id = ? AND le.entry_date >= ? AND le.entry_date <= ?
		ORDER BY le.entry_date DESC, le.created_at DESC
		LIMIT ? OFFSET ?`,
		owner, r.Start.Format(dateFormat), r.End.Format(dateFormat),
		limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries, err := collectEntries(rows)
	return entries, total, err
}

// LoadRange returns the owner's entries in range, ascending by date.
// This is the report engine's read path.
func (s *Store) LoadRange(ctx context.Context, owner string, r ledger.DateRange) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT`+entryColumns+entryFrom+`
		WHERE le.owner_id = ? AND le.entry_date >= ? AND le.entry_date <= ?
		ORDER BY le.entry_date ASC, le.created_at ASC`,
		owner, r.Start.Format(dateFormat), r.End.Format(dateFormat),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]ledger.Entry, error) {
	var entries []ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpsertMirror creates or replaces the mirrored entry for a source
// document in a single statement. The returned id tells us whether the
// row is the one we tried to insert (created) or a pre-existing one
// (updated in place).
func (s *Store) UpsertMirror(ctx context.Context, e ledger.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	err := s.db.QueryRowContext(ctx, entryInsert+`
		ON CONFLICT(source_type, source_ref) WHERE source_ref != ''
		DO UPDATE SET
			transaction_type = excluded.transaction_type,
			client_id = excluded.client_id,
			client_name = excluded.client_name,
			supplier_name = excluded.supplier_name,
			category_id = excluded.category_id,
			income_category = excluded.income_category,
			amount = excluded.amount,
			tax = excluded.tax,
			total = excluded.total,
			payment_method = excluded.payment_method,
			is_vat_applicable = excluded.is_vat_applicable,
			entry_date = excluded.entry_date,
			description = excluded.description
		RETURNING id`,
		entryArgs(e)...,
	).Scan(&id)
	if err != nil {
		return false, err
	}
	return id == e.ID, nil
}

// InsertMirrorIfAbsent creates the mirrored entry only when none exists.
// Returns false when the entry was already present (idempotent no-op).
func (s *Store) InsertMirrorIfAbsent(ctx context.Context, e ledger.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, entryInsert+`
		ON CONFLICT(source_type, source_ref) WHERE source_ref != ''
		DO NOTHING`,
		entryArgs(e)...,
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteMirror removes the mirrored entry for a source document.
// Absence of a match is not an error.
func (s *Store) DeleteMirror(ctx context.Context, source ledger.SourceType, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM ledger_entries WHERE source_type = ? AND source_ref = ? AND source_ref != ''`,
		string(source), ref,
	)
	return err
}

// FindBySource returns the mirrored entry for a source document.
func (s *Store) FindBySource(ctx context.Context, source ledger.SourceType, ref string) (*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT`+entryColumns+entryFrom+`
		WHERE le.source_type = ? AND le.source_ref = ? AND le.source_ref != ''`,
		string(source), ref,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// =============================================================================
// COUNTERS (ledger.CounterStore)
// =============================================================================

// Next atomically increments the named counter and returns the new value.
// A single statement: no read-then-write window for concurrent callers to
// race through.
func (s *Store) Next(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value`,
		name,
	).Scan(&value)
	if err != nil {
		return 0, err
	}
	return value, nil
}

// =============================================================================
// INVOICES
// =============================================================================

const invoiceColumns = `
	i.id, i.invoice_number, COALESCE(i.po_number, ''), i.invoice_date,
	COALESCE(i.from_business, ''), COALESCE(i.to_client, ''), COALESCE(c.name, ''),
	i.items_json, i.sub_total, i.tax, i.total_amount,
	i.status, COALESCE(i.category, ''), i.is_vat_applicable, i.owner_id, i.created_at`

const invoiceFrom = `
	FROM invoices i
	LEFT JOIN clients c ON c.id = i.to_client`

func scanInvoice(row rowScanner) (ledger.Invoice, error) {
	var inv ledger.Invoice
	var itemsJSON, subTotal, tax, total, date, created string
	var vat int
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.PONumber, &date,
		&inv.FromBusiness, &inv.ToClient, &inv.ClientName,
		&itemsJSON, &subTotal, &tax, &total,
		&inv.Status, &inv.Category, &vat, &inv.Owner, &created,
	)
	if err != nil {
		return ledger.Invoice{}, err
	}
	if err := json.Unmarshal([]byte(itemsJSON), &inv.Items); err != nil {
		inv.Items = nil
	}
	inv.SubTotal = parseDecimal(subTotal)
	inv.Tax = parseDecimal(tax)
	inv.TotalAmount = parseDecimal(total)
	inv.IsVatApplicable = vat != 0
	inv.Date = parseDate(date)
	inv.CreatedAt = parseTimestamp(created)
	return inv, nil
}

// SaveInvoice inserts a new invoice. A colliding invoice number (manual
// or otherwise) returns ErrDuplicateInvoiceNumber.
func (s *Store) SaveInvoice(ctx context.Context, inv ledger.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := json.Marshal(inv.Items)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (
			id, invoice_number, po_number, invoice_date, from_business, to_client,
			items_json, sub_total, tax, total_amount, status, category,
			is_vat_applicable, owner_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.InvoiceNumber, inv.PONumber, inv.Date.Format(dateFormat),
		inv.FromBusiness, inv.ToClient, string(items),
		inv.SubTotal.String(), inv.Tax.String(), inv.TotalAmount.String(),
		string(inv.Status), string(inv.Category),
		boolToInt(inv.IsVatApplicable), inv.Owner, nowRFC3339(),
	)
	if isUniqueViolation(err) {
		return ledger.ErrDuplicateInvoiceNumber
	}
	return err
}

// UpdateInvoice replaces all editable fields of an invoice.
func (s *Store) UpdateInvoice(ctx context.Context, inv ledger.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := json.Marshal(inv.Items)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE invoices SET
			invoice_number = ?, po_number = ?, invoice_date = ?, from_business = ?,
			to_client = ?, items_json = ?, sub_total = ?, tax = ?, total_amount = ?,
			status = ?, category = ?, is_vat_applicable = ?
		WHERE id = ?`,
		inv.InvoiceNumber, inv.PONumber, inv.Date.Format(dateFormat), inv.FromBusiness,
		inv.ToClient, string(items),
		inv.SubTotal.String(), inv.Tax.String(), inv.TotalAmount.String(),
		string(inv.Status), string(inv.Category), boolToInt(inv.IsVatApplicable),
		inv.ID,
	)
	if isUniqueViolation(err) {
		return ledger.ErrDuplicateInvoiceNumber
	}
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// UpdateInvoiceStatus flips just the status. Used by batch mark-as-paid.
func (s *Store) UpdateInvoiceStatus(ctx context.Context, id string, status ledger.InvoiceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// DeleteInvoice removes an invoice by id.
func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// GetInvoice returns an invoice by id.
func (s *Store) GetInvoice(ctx context.Context, id string) (*ledger.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT`+invoiceColumns+invoiceFrom+` WHERE i.id = ?`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// InvoiceFilter narrows ListInvoices. Zero values mean "no filter".
type InvoiceFilter struct {
	PONumber string
	ToClient string
}

// ListInvoices returns the owner's invoices, newest first, paginated.
func (s *Store) ListInvoices(ctx context.Context, owner string, f InvoiceFilter, page, limit int) ([]ledger.Invoice, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 40
	}

	where := []string{"i.owner_id = ?"}
	args := []any{owner}
	if f.PONumber != "" {
		where = append(where, "i.po_number = ?")
		args = append(args, f.PONumber)
	}
	if f.ToClient != "" {
		where = append(where, "i.to_client = ?")
		args = append(args, f.ToClient)
	}
	cond := strings.Join(where, " AND ")

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices i WHERE `+cond, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := s.db.QueryContext(ctx, `SELECT`+invoiceColumns+invoiceFrom+`
		WHERE `+cond+`
		ORDER BY i.created_at DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invoices, err := collectInvoices(rows)
	return invoices, total, err
}

// InvoicesInRange returns the owner's invoices dated within [r.Start, r.End].
// Feeds the monthly statistics attached to invoice listings.
func (s *Store) InvoicesInRange(ctx context.Context, owner string, r ledger.DateRange) ([]ledger.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT`+invoiceColumns+invoiceFrom+`
		WHERE i.owner_id = ? AND i.invoice_date >= ? AND i.invoice_date <= ?
		ORDER BY i.invoice_date ASC`,
		owner, r.Start.Format(dateFormat), r.End.Format(dateFormat),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInvoices(rows)
}

// InvoicesByStatus returns all of the owner's invoices in one status,
// oldest first. Feeds the open-orders aggregation, which has no default
// period.
func (s *Store) InvoicesByStatus(ctx context.Context, owner string, status ledger.InvoiceStatus) ([]ledger.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT`+invoiceColumns+invoiceFrom+`
		WHERE i.owner_id = ? AND i.status = ?
		ORDER BY i.invoice_date ASC`,
		owner, string(status),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInvoices(rows)
}

// GetInvoices returns the subset of ids that exist, in no particular order.
func (s *Store) GetInvoices(ctx context.Context, ids []string) ([]ledger.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT`+invoiceColumns+invoiceFrom+` WHERE i.id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInvoices(rows)
}

func collectInvoices(rows *sql.Rows) ([]ledger.Invoice, error) {
	var invoices []ledger.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// =============================================================================
// EXPENSES
// =============================================================================

const expenseColumns = `
	id, expense_date, vendor_name, COALESCE(invoice_no, ''),
	amount, vat_amount, total_amount, is_vat_applicable,
	COALESCE(category_id, ''), payment_method, COALESCE(notes, ''),
	owner_id, created_at, updated_at`

func scanExpense(row rowScanner) (ledger.Expense, error) {
	var exp ledger.Expense
	var date, amount, vatAmount, total, created, updated string
	var vat int
	err := row.Scan(
		&exp.ID, &date, &exp.VendorName, &exp.InvoiceNo,
		&amount, &vatAmount, &total, &vat,
		&exp.CategoryID, &exp.PaymentMethod, &exp.Notes,
		&exp.Owner, &created, &updated,
	)
	if err != nil {
		return ledger.Expense{}, err
	}
	exp.Date = parseDate(date)
	exp.Amount = parseDecimal(amount)
	exp.VATAmount = parseDecimal(vatAmount)
	exp.TotalAmount = parseDecimal(total)
	exp.IsVatApplicable = vat != 0
	exp.CreatedAt = parseTimestamp(created)
	exp.UpdatedAt = parseTimestamp(updated)
	return exp, nil
}

// SaveExpense inserts a new expense.
func (s *Store) SaveExpense(ctx context.Context, exp ledger.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowRFC3339()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (
			id, expense_date, vendor_name, invoice_no, amount, vat_amount,
			total_amount, is_vat_applicable, category_id, payment_method,
			notes, owner_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.ID, exp.Date.Format(dateFormat), exp.VendorName, exp.InvoiceNo,
		exp.Amount.String(), exp.VATAmount.String(), exp.TotalAmount.String(),
		boolToInt(exp.IsVatApplicable), exp.CategoryID, string(exp.PaymentMethod),
		exp.Notes, exp.Owner, now, now,
	)
	return err
}

// UpdateExpense replaces all editable fields of an expense.
func (s *Store) UpdateExpense(ctx context.Context, exp ledger.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses SET
			expense_date = ?, vendor_name = ?, invoice_no = ?, amount = ?,
			vat_amount = ?, total_amount = ?, is_vat_applicable = ?,
			category_id = ?, payment_method = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		exp.Date.Format(dateFormat), exp.VendorName, exp.InvoiceNo,
		exp.Amount.String(), exp.VATAmount.String(), exp.TotalAmount.String(),
		boolToInt(exp.IsVatApplicable), exp.CategoryID, string(exp.PaymentMethod),
		exp.Notes, nowRFC3339(),
		exp.ID,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// DeleteExpense removes an expense by id.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// GetExpense returns an expense by id.
func (s *Store) GetExpense(ctx context.Context, id string) (*ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT`+expenseColumns+` FROM expenses WHERE id = ?`, id)
	exp, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &exp, nil
}

// ExpensesInRange returns the owner's expenses in range, ascending by date.
func (s *Store) ExpensesInRange(ctx context.Context, owner string, r ledger.DateRange) ([]ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT`+expenseColumns+` FROM expenses
		WHERE owner_id = ? AND expense_date >= ? AND expense_date <= ?
		ORDER BY expense_date ASC`,
		owner, r.Start.Format(dateFormat), r.End.Format(dateFormat),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []ledger.Expense
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, exp)
	}
	return expenses, rows.Err()
}

// =============================================================================
// USERS
// =============================================================================

// SaveUser inserts a new user. Duplicate emails fail validation.
func (s *Store) SaveUser(ctx context.Context, u ledger.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, nowRFC3339(),
	)
	if isUniqueViolation(err) {
		return ledger.Invalid("email", "already registered")
	}
	return err
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*ledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByEmail returns a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*ledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUserWhere(ctx, "email = ?", email)
}

func (s *Store) getUserWhere(ctx context.Context, cond string, arg any) (*ledger.User, error) {
	var u ledger.User
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE `+cond, arg,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = parseTimestamp(created)
	return &u, nil
}

// =============================================================================
// CLIENTS
// =============================================================================

// SaveClient inserts a new client.
func (s *Store) SaveClient(ctx context.Context, c ledger.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (
			id, name, vat_number, registration_number, address,
			phone, fax, email, vat_applicable, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.VATNumber, c.RegistrationNumber, c.Address,
		c.Phone, c.Fax, c.Email, boolToInt(c.VATApplicable), nowRFC3339(),
	)
	return err
}

// UpdateClient replaces all editable fields of a client.
func (s *Store) UpdateClient(ctx context.Context, c ledger.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE clients SET
			name = ?, vat_number = ?, registration_number = ?, address = ?,
			phone = ?, fax = ?, email = ?, vat_applicable = ?
		WHERE id = ?`,
		c.Name, c.VATNumber, c.RegistrationNumber, c.Address,
		c.Phone, c.Fax, c.Email, boolToInt(c.VATApplicable),
		c.ID,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// DeleteClient removes a client by id.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// GetClient returns a client by id.
func (s *Store) GetClient(ctx context.Context, id string) (*ledger.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, clientSelect+` WHERE id = ?`, id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListClients returns all clients, alphabetical.
func (s *Store) ListClients(ctx context.Context) ([]ledger.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, clientSelect+` ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []ledger.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

const clientSelect = `
	SELECT id, name, COALESCE(vat_number,''), COALESCE(registration_number,''),
		COALESCE(address,''), COALESCE(phone,''), COALESCE(fax,''),
		COALESCE(email,''), vat_applicable, created_at
	FROM clients`

func scanClient(row rowScanner) (ledger.Client, error) {
	var c ledger.Client
	var vat int
	var created string
	err := row.Scan(
		&c.ID, &c.Name, &c.VATNumber, &c.RegistrationNumber,
		&c.Address, &c.Phone, &c.Fax, &c.Email, &vat, &created,
	)
	if err != nil {
		return ledger.Client{}, err
	}
	c.VATApplicable = vat != 0
	c.CreatedAt = parseTimestamp(created)
	return c, nil
}

// =============================================================================
// EXPENSE CATEGORIES
// =============================================================================

// SaveCategory inserts a new expense category.
func (s *Store) SaveCategory(ctx context.Context, c ledger.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expense_categories (id, name, description, is_default)
		VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, boolToInt(c.IsDefault),
	)
	if isUniqueViolation(err) {
		return ledger.Invalid("name", "category already exists")
	}
	return err
}

// DeleteCategory removes a category. Default categories stay.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM expense_categories WHERE id = ? AND is_default = 0`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// GetCategory returns a category by id.
func (s *Store) GetCategory(ctx context.Context, id string) (*ledger.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c ledger.Category
	var isDefault int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description,''), is_default
		FROM expense_categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &isDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.IsDefault = isDefault != 0
	return &c, nil
}

// ListCategories returns all categories, defaults first then alphabetical.
func (s *Store) ListCategories(ctx context.Context) ([]ledger.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description,''), is_default
		FROM expense_categories ORDER BY is_default DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []ledger.Category
	for rows.Next() {
		var c ledger.Category
		var isDefault int
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &isDefault); err != nil {
			return nil, err
		}
		c.IsDefault = isDefault != 0
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// =============================================================================
// BANK ACCOUNTS
// =============================================================================

// SaveBankAccount inserts a new bank account.
func (s *Store) SaveBankAccount(ctx context.Context, b ledger.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bank_accounts (id, bank_name, account_name, account_number, branch_code, account_type)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.BankName, b.AccountName, b.AccountNumber, b.BranchCode, string(b.AccountType),
	)
	return err
}

// DeleteBankAccount removes a bank account by id.
func (s *Store) DeleteBankAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM bank_accounts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// ListBankAccounts returns all bank accounts.
func (s *Store) ListBankAccounts(ctx context.Context) ([]ledger.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bank_name, account_name, account_number, COALESCE(branch_code,''), account_type
		FROM bank_accounts ORDER BY bank_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []ledger.BankAccount
	for rows.Next() {
		var b ledger.BankAccount
		if err := rows.Scan(&b.ID, &b.BankName, &b.AccountName, &b.AccountNumber, &b.BranchCode, &b.AccountType); err != nil {
			return nil, err
		}
		accounts = append(accounts, b)
	}
	return accounts, rows.Err()
}

// GetBankAccountByType returns the account to print on an invoice for a
// VAT or non-VAT client. ErrNotFound when none is configured.
func (s *Store) GetBankAccountByType(ctx context.Context, t ledger.BankAccountType) (*ledger.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b ledger.BankAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT id, bank_name, account_name, account_number, COALESCE(branch_code,''), account_type
		FROM bank_accounts WHERE account_type = ? LIMIT 1`, string(t),
	).Scan(&b.ID, &b.BankName, &b.AccountName, &b.AccountNumber, &b.BranchCode, &b.AccountType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
