/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. zerolog:    Structured request logging
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/users/*               Registration, login, profile
  /api/ledger/*              Manual entries and financial reports
  /api/invoices/*            Invoice lifecycle
  /api/expenses/*            Expense lifecycle
  /api/clients/*             Customer records
  /api/expense-categories/*  Expense taxonomy
  /api/bank-accounts/*       Accounts printed on invoices

  Everything except register/login sits behind the Authenticate
  middleware and answers 401 without a valid token.

SEE ALSO:
  - handlers.go: Handler context
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/users/register", h.Register)
		r.Post("/users/login", h.Login)

		// Everything else requires a token
		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Get("/users/me", h.Me)

			// Ledger entries and reports
			r.Route("/ledger", func(r chi.Router) {
				r.Post("/add", h.AddEntry)
				r.Put("/update/{id}", h.UpdateEntry)
				r.Delete("/delete/{id}", h.DeleteEntry)
				r.Get("/list", h.ListEntries)

				r.Route("/report", func(r chi.Router) {
					r.Get("/profit-loss", h.ProfitLossReport)
					r.Get("/vat-summary", h.VATSummaryReport)
					r.Get("/vat-ledger", h.VATLedgerReport)
					r.Get("/general-ledger", h.GeneralLedgerReport)
					r.Get("/general-ledger/export", h.ExportGeneralLedger)
					r.Get("/cash-flow", h.CashFlowReport)
				})

				r.Get("/{id}", h.GetEntry)
			})

			// Invoices
			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", h.ListInvoices)
				r.Post("/", h.CreateInvoice)
				r.Post("/mark-paid", h.MarkInvoicesPaid)
				r.Get("/statements", h.ClientStatements)
				r.Get("/orders-per-product", h.OrdersPerProduct)
				r.Get("/{id}", h.GetInvoice)
				r.Put("/{id}", h.UpdateInvoice)
				r.Delete("/{id}", h.DeleteInvoice)
			})

			// Expenses
			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", h.ListExpenses)
				r.Post("/", h.CreateExpense)
				r.Get("/{id}", h.GetExpense)
				r.Put("/{id}", h.UpdateExpense)
				r.Delete("/{id}", h.DeleteExpense)
			})

			// Master data
			r.Route("/clients", func(r chi.Router) {
				r.Get("/", h.ListClients)
				r.Post("/", h.CreateClient)
				r.Put("/{id}", h.UpdateClient)
				r.Delete("/{id}", h.DeleteClient)
			})
			r.Route("/expense-categories", func(r chi.Router) {
				r.Get("/", h.ListCategories)
				r.Post("/", h.CreateCategory)
				r.Delete("/{id}", h.DeleteCategory)
			})
			r.Route("/bank-accounts", func(r chi.Router) {
				r.Get("/", h.ListBankAccounts)
				r.Post("/", h.CreateBankAccount)
				r.Delete("/{id}", h.DeleteBankAccount)
			})
		})
	})

	return r
}

// requestLogger emits one structured line per request.
func requestLogger(h *Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			h.Log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
