/*
expenses.go - Expense endpoints

PURPOSE:
  Expense lifecycle management. Unlike invoices there is no status gate:
  every create, update and delete is mirrored into the ledger 1:1. An
  update whose mirror had gone missing recreates it - drift heals on the
  next touch of the document.
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
)

// CreateExpense records an expense and mirrors it into the ledger.
// POST /api/expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	exp, err := expenseFromRequest(req, ownerFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	exp.ID = uuid.NewString()

	if err := h.Store.SaveExpense(r.Context(), exp); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.Sync.OnExpenseCreated(r.Context(), exp); err != nil {
		writeJSON(w, http.StatusCreated, map[string]any{
			"success":   true,
			"data":      toExpenseDTO(exp),
			"syncError": err.Error(),
		})
		return
	}
	writeData(w, http.StatusCreated, toExpenseDTO(exp))
}

// UpdateExpense edits an expense and updates its mirrored entry.
// PUT /api/expenses/{id}
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	existing, err := h.ownedExpense(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	exp, err := expenseFromRequest(req, existing.Owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	exp.ID = existing.ID

	if err := h.Store.UpdateExpense(r.Context(), exp); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.Sync.OnExpenseUpdated(r.Context(), exp); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"data":      toExpenseDTO(exp),
			"syncError": err.Error(),
		})
		return
	}
	writeData(w, http.StatusOK, toExpenseDTO(exp))
}

// DeleteExpense removes an expense and its mirrored entry.
// DELETE /api/expenses/{id}
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	existing, err := h.ownedExpense(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.Store.DeleteExpense(r.Context(), existing.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Sync.OnExpenseDeleted(r.Context(), existing.ID); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"data":      map[string]string{"deleted": existing.ID},
			"syncError": err.Error(),
		})
		return
	}
	writeData(w, http.StatusOK, map[string]string{"deleted": existing.ID})
}

// GetExpense returns one expense.
// GET /api/expenses/{id}
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	exp, err := h.ownedExpense(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, toExpenseDTO(*exp))
}

// ListExpenses returns the caller's expenses for the period (previous
// month by default) with summary statistics.
// GET /api/expenses?startDate&endDate
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	rng, err := h.rangeOrPreviousMonth(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	expenses, err := h.Store.ExpensesInRange(r.Context(), ownerFrom(r.Context()), rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]ExpenseDTO, len(expenses))
	for i, exp := range expenses {
		dtos[i] = toExpenseDTO(exp)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"data":      dtos,
		"stats":     expenseStats(expenses),
		"startDate": rng.Start.Format(ledger.DateFormat),
		"endDate":   rng.End.Format(ledger.DateFormat),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) ownedExpense(r *http.Request) (*ledger.Expense, error) {
	exp, err := h.Store.GetExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if exp.Owner != ownerFrom(r.Context()) {
		return nil, ledger.ErrNotOwner
	}
	return exp, nil
}

func expenseFromRequest(req ExpenseRequest, owner string) (ledger.Expense, error) {
	date, err := time.Parse(ledger.DateFormat, req.Date)
	if err != nil {
		return ledger.Expense{}, ledger.Invalid("date", "expected YYYY-MM-DD")
	}
	if req.VendorName == "" {
		return ledger.Expense{}, ledger.Invalid("vendorName", "vendor name is required")
	}

	method := ledger.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = ledger.PayCash
	}
	if !ledger.ValidPaymentMethod(method) {
		return ledger.Expense{}, ledger.Invalid("paymentMethod", "unknown payment method")
	}

	total := req.TotalAmount
	if total.IsZero() {
		total = req.Amount.Add(req.VATAmount)
	}
	if total.Sign() <= 0 {
		return ledger.Expense{}, ledger.Invalid("totalAmount", "must be positive")
	}
	if !ledger.AddsUp(req.Amount, req.VATAmount, total) {
		return ledger.Expense{}, ledger.Invalid("totalAmount", "amount + vatAmount must equal totalAmount")
	}

	vatApplicable := true
	if req.IsVatApplicable != nil {
		vatApplicable = *req.IsVatApplicable
	}

	return ledger.Expense{
		Date:            date,
		VendorName:      req.VendorName,
		InvoiceNo:       req.InvoiceNo,
		Amount:          req.Amount,
		VATAmount:       req.VATAmount,
		TotalAmount:     total,
		IsVatApplicable: vatApplicable,
		CategoryID:      req.CategoryID,
		PaymentMethod:   method,
		Notes:           req.Notes,
		Owner:           owner,
	}, nil
}

// expenseStats folds one period's expenses into the listing summary.
func expenseStats(expenses []ledger.Expense) ExpenseStatsDTO {
	var total, vat, nonVat decimal.Decimal
	for _, exp := range expenses {
		total = total.Add(exp.TotalAmount)
		if exp.IsVatApplicable {
			vat = vat.Add(exp.TotalAmount)
		} else {
			nonVat = nonVat.Add(exp.TotalAmount)
		}
	}
	return ExpenseStatsDTO{
		TotalExpense:  money(total),
		VATExpense:    money(vat),
		NonVATExpense: money(nonVat),
		ExpenseCount:  len(expenses),
	}
}
