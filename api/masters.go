/*
masters.go - Master data endpoints: clients, expense categories, bank accounts

PURPOSE:
  Minimal CRUD for the records invoices and expenses refer to. The
  twelve default expense categories are seeded at startup and cannot be
  deleted: the profit & loss taxonomy is keyed by their names.
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// CLIENTS
// =============================================================================

// CreateClient adds a customer record.
// POST /api/clients
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	client := clientFromRequest(req)
	client.ID = uuid.NewString()
	if err := h.Store.SaveClient(r.Context(), client); err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toClientDTO(client))
}

// UpdateClient edits a customer record.
// PUT /api/clients/{id}
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	client := clientFromRequest(req)
	client.ID = chi.URLParam(r, "id")
	if err := h.Store.UpdateClient(r.Context(), client); err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, toClientDTO(client))
}

// DeleteClient removes a customer record.
// DELETE /api/clients/{id}
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteClient(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"deleted": id})
}

// ListClients returns all clients, alphabetical.
// GET /api/clients
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	writeData(w, http.StatusOK, dtos)
}

func clientFromRequest(req ClientRequest) ledger.Client {
	return ledger.Client{
		Name:               req.Name,
		VATNumber:          req.VATNumber,
		RegistrationNumber: req.RegistrationNumber,
		Address:            req.Address,
		Phone:              req.Phone,
		Fax:                req.Fax,
		Email:              req.Email,
		VATApplicable:      req.VATApplicable,
	}
}

// =============================================================================
// EXPENSE CATEGORIES
// =============================================================================

// CreateCategory adds a custom expense category. Entries in custom
// categories report under operating "other" on the P&L.
// POST /api/expense-categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	cat := ledger.Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.Store.SaveCategory(r.Context(), cat); err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, CategoryDTO{
		ID: cat.ID, Name: cat.Name, Description: cat.Description,
	})
}

// DeleteCategory removes a custom category. Default categories answer 404.
// DELETE /api/expense-categories/{id}
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteCategory(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"deleted": id})
}

// ListCategories returns all categories, defaults first.
// GET /api/expense-categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Store.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]CategoryDTO, len(cats))
	for i, c := range cats {
		dtos[i] = CategoryDTO{
			ID: c.ID, Name: c.Name, Description: c.Description, IsDefault: c.IsDefault,
		}
	}
	writeData(w, http.StatusOK, dtos)
}

// =============================================================================
// BANK ACCOUNTS
// =============================================================================

// CreateBankAccount adds a bank account for invoice rendering.
// POST /api/bank-accounts
func (h *Handler) CreateBankAccount(w http.ResponseWriter, r *http.Request) {
	var req BankAccountDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.BankName == "" || req.AccountNumber == "" {
		writeError(w, http.StatusBadRequest, "bankName and accountNumber are required")
		return
	}
	accountType := ledger.BankAccountType(req.AccountType)
	if accountType != ledger.AccountVAT && accountType != ledger.AccountNonVAT {
		writeError(w, http.StatusBadRequest, "accountType must be VAT or NON_VAT")
		return
	}

	account := ledger.BankAccount{
		ID:            uuid.NewString(),
		BankName:      req.BankName,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		BranchCode:    req.BranchCode,
		AccountType:   accountType,
	}
	if err := h.Store.SaveBankAccount(r.Context(), account); err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toBankAccountDTO(account))
}

// DeleteBankAccount removes a bank account.
// DELETE /api/bank-accounts/{id}
func (h *Handler) DeleteBankAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteBankAccount(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"deleted": id})
}

// ListBankAccounts returns all bank accounts.
// GET /api/bank-accounts
func (h *Handler) ListBankAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.ListBankAccounts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]BankAccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toBankAccountDTO(a)
	}
	writeData(w, http.StatusOK, dtos)
}
