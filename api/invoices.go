/*
invoices.go - Invoice endpoints

PURPOSE:
  Invoice lifecycle management and the point where invoice events feed
  the ledger synchronizer. An invoice only becomes income in the book
  when its status is Paid; every status transition reported here goes
  through Synchronizer.OnInvoiceStatusChange.

NUMBERING:
  Omitting invoiceNo on create reserves the next sequential number. A
  supplied invoiceNo is taken as-is and does not advance the counter;
  collisions answer 409.

SYNCHRONIZATION FAILURES:
  The invoice write commits first. If the mirrored ledger write then
  fails, the response still reports the invoice but flags the failure -
  the document is authoritative and the book heals on the next touch.
*/
package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/store/sqlite"
)

// CreateInvoice records a new invoice. Created directly as Paid, it is
// mirrored into the ledger immediately.
// POST /api/invoices
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req InvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	inv, err := h.invoiceFromRequest(req, ownerFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	inv.ID = uuid.NewString()

	if req.InvoiceNo != "" {
		inv.InvoiceNumber = req.InvoiceNo
	} else {
		number, err := h.Sequence.NextInvoiceNumber(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		inv.InvoiceNumber = number
	}

	if err := h.Store.SaveInvoice(r.Context(), inv); err != nil {
		writeDomainError(w, err)
		return
	}

	// A brand-new invoice has no prior status; Pending stands in as the
	// non-Paid origin so a Paid create mirrors immediately.
	if _, err := h.Sync.OnInvoiceStatusChange(r.Context(), inv, ledger.StatusPending); err != nil {
		writeJSON(w, http.StatusCreated, map[string]any{
			"success":   true,
			"data":      toInvoiceDTO(inv),
			"syncError": err.Error(),
		})
		return
	}
	writeData(w, http.StatusCreated, toInvoiceDTO(inv))
}

// UpdateInvoice edits an invoice and reconciles the ledger with any
// status change.
// PUT /api/invoices/{id}
func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	existing, err := h.ownedInvoice(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req InvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	inv, err := h.invoiceFromRequest(req, existing.Owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	inv.ID = existing.ID
	inv.InvoiceNumber = existing.InvoiceNumber
	if req.InvoiceNo != "" {
		inv.InvoiceNumber = req.InvoiceNo
	}

	if err := h.Store.UpdateInvoice(r.Context(), inv); err != nil {
		writeDomainError(w, err)
		return
	}

	if _, err := h.Sync.OnInvoiceStatusChange(r.Context(), inv, existing.Status); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"data":      toInvoiceDTO(inv),
			"syncError": err.Error(),
		})
		return
	}
	writeData(w, http.StatusOK, toInvoiceDTO(inv))
}

// DeleteInvoice removes an invoice and its mirrored entry, whatever the
// status at deletion time.
// DELETE /api/invoices/{id}
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	existing, err := h.ownedInvoice(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.Store.DeleteInvoice(r.Context(), existing.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Sync.OnInvoiceDeleted(r.Context(), existing.ID); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"data":      map[string]string{"deleted": existing.ID},
			"syncError": err.Error(),
		})
		return
	}
	writeData(w, http.StatusOK, map[string]string{"deleted": existing.ID})
}

// GetInvoice returns one invoice plus the bank account matching the
// client's VAT status, for rendering.
// GET /api/invoices/{id}
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.ownedInvoice(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payload := map[string]any{"invoice": toInvoiceDTO(*inv)}

	accountType := ledger.AccountNonVAT
	if inv.ToClient != "" {
		if client, err := h.Store.GetClient(r.Context(), inv.ToClient); err == nil && client.VATApplicable {
			accountType = ledger.AccountVAT
		}
	}
	if account, err := h.Store.GetBankAccountByType(r.Context(), accountType); err == nil {
		payload["bankAccount"] = toBankAccountDTO(*account)
	}

	writeData(w, http.StatusOK, payload)
}

// ListInvoices returns the caller's invoices, paginated, with summary
// statistics over the requested period (previous month by default).
// GET /api/invoices?startDate&endDate&page&limit&poNumber&toClient
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r.Context())
	page, limit := pageParams(r)

	filter := invoiceFilterFrom(r)
	invoices, total, err := h.Store.ListInvoices(r.Context(), owner, filter, page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	rng, err := h.rangeOrPreviousMonth(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	inRange, err := h.Store.InvoicesInRange(r.Context(), owner, rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]InvoiceDTO, len(invoices))
	for i, inv := range invoices {
		dtos[i] = toInvoiceDTO(inv)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       dtos,
		"pagination": paginate(page, limit, total),
		"stats":      invoiceStats(inRange),
	})
}

// MarkPaidRequest is the batch payment body.
type MarkPaidRequest struct {
	InvoiceIDs []string `json:"invoiceIds"`
}

// MarkInvoicesPaid flips a batch of invoices to Paid and mirrors each
// newly paid one into the ledger. The batch is not atomic: one failing
// invoice never blocks the rest, and the response reports how many
// ledger entries were actually created.
// POST /api/invoices/mark-paid
func (h *Handler) MarkInvoicesPaid(w http.ResponseWriter, r *http.Request) {
	var req MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.InvoiceIDs) == 0 {
		writeError(w, http.StatusBadRequest, "invoiceIds is required")
		return
	}

	owner := ownerFrom(r.Context())
	found, err := h.Store.GetInvoices(r.Context(), req.InvoiceIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var invoices []ledger.Invoice
	var oldStatuses []ledger.InvoiceStatus
	for _, inv := range found {
		if inv.Owner != owner {
			continue
		}
		old := inv.Status
		if old != ledger.StatusPaid {
			if err := h.Store.UpdateInvoiceStatus(r.Context(), inv.ID, ledger.StatusPaid); err != nil {
				h.Log.Error().Err(err).Str("invoice_id", inv.ID).Msg("failed to mark invoice paid")
				continue
			}
		}
		inv.Status = ledger.StatusPaid
		invoices = append(invoices, inv)
		oldStatuses = append(oldStatuses, old)
	}

	res := h.Sync.MarkPaid(r.Context(), invoices, oldStatuses)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": res.Message(),
		"data": map[string]int{
			"processed": res.Processed,
			"created":   res.Created,
			"failed":    res.Failed,
		},
	})
}

// ClientStatements groups the period's Sent invoices into one statement
// per client, alphabetical by client name. Invoices whose client record
// is gone are left out - a statement has to be addressed to someone.
// GET /api/invoices/statements?startDate&endDate
func (h *Handler) ClientStatements(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeRequired(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	invoices, err := h.Store.InvoicesInRange(r.Context(), ownerFrom(r.Context()), rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	byClient := make(map[string]*ClientStatementDTO)
	totals := make(map[string]decimal.Decimal)
	for _, inv := range invoices {
		if inv.Status != ledger.StatusSent || inv.ClientName == "" {
			continue
		}
		st, ok := byClient[inv.ClientName]
		if !ok {
			st = &ClientStatementDTO{ClientName: inv.ClientName}
			byClient[inv.ClientName] = st
		}
		st.TotalInvoices++
		st.Invoices = append(st.Invoices, toInvoiceDTO(inv))
		totals[inv.ClientName] = totals[inv.ClientName].Add(inv.TotalAmount)
	}

	statements := make([]ClientStatementDTO, 0, len(byClient))
	for name, st := range byClient {
		st.TotalAmount = money(totals[name])
		statements = append(statements, *st)
	}
	sort.Slice(statements, func(i, j int) bool {
		return statements[i].ClientName < statements[j].ClientName
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"statements": statements,
	})
}

// OrdersPerProduct flattens Pending invoices into per-product order
// totals - how much of each line is still waiting to be produced. The
// period is optional; without one every open order counts, whatever its
// date. Answers 404 when nothing is on order.
// GET /api/invoices/orders-per-product?startDate&endDate
func (h *Handler) OrdersPerProduct(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Store.InvoicesByStatus(r.Context(), ownerFrom(r.Context()), ledger.StatusPending)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if r.URL.Query().Get("startDate") != "" || r.URL.Query().Get("endDate") != "" {
		rng, err := rangeRequired(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		kept := invoices[:0]
		for _, inv := range invoices {
			if rng.Contains(inv.Date) {
				kept = append(kept, inv)
			}
		}
		invoices = kept
	}

	quantities := make(map[string]decimal.Decimal)
	seen := make(map[string]map[string]struct{})
	for _, inv := range invoices {
		for _, item := range inv.Items {
			if item.Description == "" {
				continue
			}
			quantities[item.Description] = quantities[item.Description].Add(item.Quantity)
			if seen[item.Description] == nil {
				seen[item.Description] = make(map[string]struct{})
			}
			seen[item.Description][inv.ID] = struct{}{}
		}
	}
	if len(quantities) == 0 {
		writeDomainError(w, ledger.ErrNotFound)
		return
	}

	orders := make([]ProductOrdersDTO, 0, len(quantities))
	for product, qty := range quantities {
		orders = append(orders, ProductOrdersDTO{
			Product:      product,
			TotalOrders:  qty.InexactFloat64(),
			InvoiceCount: len(seen[product]),
		})
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].TotalOrders != orders[j].TotalOrders {
			return orders[i].TotalOrders > orders[j].TotalOrders
		}
		return orders[i].Product < orders[j].Product
	})

	writeData(w, http.StatusOK, orders)
}

// =============================================================================
// HELPERS
// =============================================================================

// ownedInvoice loads the path invoice and checks it belongs to the caller.
func (h *Handler) ownedInvoice(r *http.Request) (*ledger.Invoice, error) {
	inv, err := h.Store.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if inv.Owner != ownerFrom(r.Context()) {
		return nil, ledger.ErrNotOwner
	}
	return inv, nil
}

func invoiceFilterFrom(r *http.Request) sqlite.InvoiceFilter {
	return sqlite.InvoiceFilter{
		PONumber: r.URL.Query().Get("poNumber"),
		ToClient: r.URL.Query().Get("toClient"),
	}
}

func (h *Handler) invoiceFromRequest(req InvoiceRequest, owner string) (ledger.Invoice, error) {
	date, err := time.Parse(ledger.DateFormat, req.Date)
	if err != nil {
		return ledger.Invoice{}, ledger.Invalid("invoiceDate", "expected YYYY-MM-DD")
	}

	status := ledger.InvoiceStatus(req.Status)
	if status == "" {
		status = ledger.StatusPending
	}
	if !ledger.ValidInvoiceStatus(status) {
		return ledger.Invoice{}, ledger.Invalid("status", "must be Pending, Sent or Paid")
	}

	if len(req.Items) == 0 {
		return ledger.Invoice{}, ledger.Invalid("items", "at least one line item is required")
	}
	items := make([]ledger.InvoiceItem, len(req.Items))
	itemSum := decimal.Zero
	for i, it := range req.Items {
		items[i] = ledger.InvoiceItem(it)
		itemSum = itemSum.Add(it.Amount)
	}

	subTotal := req.SubTotal
	if subTotal.IsZero() {
		subTotal = itemSum
	}
	total := req.TotalAmount
	if total.IsZero() {
		total = subTotal.Add(req.Tax)
	}
	if !ledger.AddsUp(subTotal, req.Tax, total) {
		return ledger.Invoice{}, ledger.Invalid("totalAmount", "subTotal + tax must equal totalAmount")
	}

	category := ledger.IncomeCategory(req.Category)
	if category == "" {
		category = ledger.IncomeFinishedGarments
	}

	return ledger.Invoice{
		PONumber:        req.PONumber,
		Date:            date,
		FromBusiness:    req.FromBusiness,
		ToClient:        req.ToClient,
		Items:           items,
		SubTotal:        subTotal,
		Tax:             req.Tax,
		TotalAmount:     total,
		Status:          status,
		Category:        category,
		IsVatApplicable: req.IsVatApplicable,
		Owner:           owner,
	}, nil
}

// invoiceStats folds one period's invoices into the listing summary.
func invoiceStats(invoices []ledger.Invoice) InvoiceStatsDTO {
	var totalRevenue, paid, collectedVAT decimal.Decimal
	for _, inv := range invoices {
		totalRevenue = totalRevenue.Add(inv.TotalAmount)
		if inv.Status == ledger.StatusPaid {
			paid = paid.Add(inv.TotalAmount)
			collectedVAT = collectedVAT.Add(inv.Tax)
		}
	}
	return InvoiceStatsDTO{
		TotalRevenue:       money(totalRevenue),
		PaidAmount:         money(paid),
		OutstandingRevenue: money(totalRevenue.Sub(paid)),
		CollectedVAT:       money(collectedVAT),
		NetRevenue:         money(paid.Sub(collectedVAT)),
		InvoiceCount:       len(invoices),
	}
}
