/*
handlers.go - Handler context and ledger entry endpoints

PURPOSE:
  The Handler struct wires storage, the synchronizer, the sequence
  generator and the report engine into HTTP handlers. This file carries
  the manual ledger entry endpoints; invoices, expenses, reports and
  master data live in their own files.

ENDPOINTS (this file):
  POST   /api/ledger/add           Record a manual entry
  PUT    /api/ledger/update/{id}   Edit an entry (owner only)
  DELETE /api/ledger/delete/{id}   Remove an entry (owner only)
  GET    /api/ledger/list          Paginated listing, default prev month
  GET    /api/ledger/{id}          Entry detail (owner only)

OWNERSHIP:
  Every entry belongs to the user who recorded it. Reading or mutating
  another user's entry answers 401, not 404 - the record's existence is
  not hidden, acting on it is refused.

SEE ALSO:
  - dto.go: shapes and error mapping
  - server.go: route table
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/reports"
	"github.com/warp/ledger-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Sync      *ledger.Synchronizer
	Sequence  *ledger.SequenceGenerator
	Reports   *reports.Engine
	JWTSecret []byte
	Log       zerolog.Logger

	// now is swapped in tests to pin the default reporting period.
	now func() time.Time
}

// NewHandler wires a handler to its store and secret.
func NewHandler(store *sqlite.Store, secret []byte, log zerolog.Logger) *Handler {
	return &Handler{
		Store:     store,
		Sync:      ledger.NewSynchronizer(store, log),
		Sequence:  ledger.NewSequenceGenerator(store),
		Reports:   reports.NewEngine(store),
		JWTSecret: secret,
		Log:       log.With().Str("component", "api").Logger(),
		now:       time.Now,
	}
}

// =============================================================================
// QUERY PARSING
// =============================================================================

// rangeRequired parses startDate/endDate, rejecting the request when
// either is missing. Reports that aggregate over a period refuse to
// guess the period.
func rangeRequired(r *http.Request) (ledger.DateRange, error) {
	start := r.URL.Query().Get("startDate")
	end := r.URL.Query().Get("endDate")
	if start == "" || end == "" {
		return ledger.DateRange{}, ledger.Invalid("startDate", "startDate and endDate are required")
	}
	return parseRange(start, end)
}

// rangeOrPreviousMonth parses startDate/endDate, falling back to the
// previous calendar month when both are absent.
func (h *Handler) rangeOrPreviousMonth(r *http.Request) (ledger.DateRange, error) {
	start := r.URL.Query().Get("startDate")
	end := r.URL.Query().Get("endDate")
	if start == "" && end == "" {
		return ledger.PreviousMonth(h.now()), nil
	}
	if start == "" || end == "" {
		return ledger.DateRange{}, ledger.Invalid("startDate", "provide both startDate and endDate, or neither")
	}
	return parseRange(start, end)
}

func parseRange(start, end string) (ledger.DateRange, error) {
	s, err := time.Parse(ledger.DateFormat, start)
	if err != nil {
		return ledger.DateRange{}, ledger.Invalid("startDate", "expected YYYY-MM-DD")
	}
	e, err := time.Parse(ledger.DateFormat, end)
	if err != nil {
		return ledger.DateRange{}, ledger.Invalid("endDate", "expected YYYY-MM-DD")
	}
	return ledger.NewDateRange(s, e)
}

func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 40
	}
	return page, limit
}

// =============================================================================
// LEDGER ENTRY HANDLERS
// =============================================================================

// AddEntry records a manual ledger entry.
// POST /api/ledger/add
func (h *Handler) AddEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entry, err := h.entryFromRequest(req, ownerFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	entry.ID = uuid.NewString()

	if err := h.Store.Insert(r.Context(), entry); err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toEntryDTO(entry))
}

// UpdateEntry edits a manual ledger entry. Only the recording user may.
// PUT /api/ledger/update/{id}
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if existing.Owner != ownerFrom(r.Context()) {
		writeDomainError(w, ledger.ErrNotOwner)
		return
	}

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entry, err := h.entryFromRequest(req, existing.Owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	entry.ID = existing.ID
	entry.Source = existing.Source
	entry.SourceRef = existing.SourceRef

	if err := h.Store.Update(r.Context(), entry); err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, toEntryDTO(entry))
}

// DeleteEntry removes a ledger entry. Only the recording user may.
// DELETE /api/ledger/delete/{id}
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if existing.Owner != ownerFrom(r.Context()) {
		writeDomainError(w, ledger.ErrNotOwner)
		return
	}

	if err := h.Store.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"deleted": id})
}

// GetEntry returns one ledger entry.
// GET /api/ledger/{id}
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entry.Owner != ownerFrom(r.Context()) {
		writeDomainError(w, ledger.ErrNotOwner)
		return
	}
	writeData(w, http.StatusOK, toEntryDTO(*entry))
}

// ListEntries returns the caller's entries, newest first, paginated.
// Defaults to the previous calendar month when no range is given.
// GET /api/ledger/list?startDate&endDate&page&limit
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	rng, err := h.rangeOrPreviousMonth(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	page, limit := pageParams(r)

	entries, total, err := h.Store.List(r.Context(), ownerFrom(r.Context()), rng, page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       toEntryDTOs(entries),
		"pagination": paginate(page, limit, total),
		"startDate":  rng.Start.Format(ledger.DateFormat),
		"endDate":    rng.End.Format(ledger.DateFormat),
	})
}

// entryFromRequest validates and converts a write request. The owner
// always comes from the authenticated context, never the body.
func (h *Handler) entryFromRequest(req EntryRequest, owner string) (ledger.Entry, error) {
	txType := ledger.TransactionType(req.Type)
	if txType != ledger.TypeIncome && txType != ledger.TypeExpense {
		return ledger.Entry{}, ledger.Invalid("transactionType", "must be INCOME or EXPENSE")
	}

	// Mirrored entries get a Cash default from the synchronizer; a manual
	// entry has no source document to fall back on, so the caller must say
	// how it was paid and who the counterparty was.
	method := ledger.PaymentMethod(req.PaymentMethod)
	if method == "" {
		return ledger.Entry{}, ledger.Invalid("paymentMethod", "paymentMethod is required")
	}
	if !ledger.ValidPaymentMethod(method) {
		return ledger.Entry{}, ledger.Invalid("paymentMethod", "unknown payment method")
	}
	if req.ClientName == "" {
		return ledger.Entry{}, ledger.Invalid("clientName", "clientName is required")
	}

	date, err := time.Parse(ledger.DateFormat, req.Date)
	if err != nil {
		return ledger.Entry{}, ledger.Invalid("date", "expected YYYY-MM-DD")
	}

	if req.Total.Sign() <= 0 {
		return ledger.Entry{}, ledger.Invalid("totalAmount", "must be positive")
	}
	if !ledger.AddsUp(req.Amount, req.Tax, req.Total) {
		return ledger.Entry{}, ledger.Invalid("totalAmount", "amount + tax must equal totalAmount")
	}

	entry := ledger.Entry{
		Type:            txType,
		Source:          ledger.SourceManual,
		ClientID:        req.ClientID,
		ClientName:      req.ClientName,
		SupplierName:    req.SupplierName,
		Amount:          req.Amount,
		Tax:             req.Tax,
		Total:           req.Total,
		PaymentMethod:   method,
		IsVatApplicable: req.IsVatApplicable,
		Date:            date,
		Owner:           owner,
		Description:     req.Description,
	}
	if txType == ledger.TypeIncome {
		entry.IncomeCategory = ledger.IncomeCategory(req.IncomeCategory)
		if entry.IncomeCategory == "" {
			entry.IncomeCategory = ledger.IncomeOther
		}
	} else {
		entry.CategoryID = req.CategoryID
	}
	return entry, nil
}
