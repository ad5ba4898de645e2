package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newTestAPI builds a full stack on an in-memory database with "now"
// pinned to 2025-04-15, so the default reporting period is March 2025.
func newTestAPI(t *testing.T) (*Handler, *chi.Mux) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, []byte("test-secret"), zerolog.Nop())
	h.now = func() time.Time {
		return time.Date(2025, time.April, 15, 12, 0, 0, 0, time.UTC)
	}
	return h, NewRouter(h)
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// registerUser creates an account and returns its token.
func registerUser(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/users/register", "", map[string]any{
		"name":     "Test User",
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token, _ := decode(t, rec)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

func TestAuth_ProtectedRoutesRejectAnonymous(t *testing.T) {
	_, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/ledger/list", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RegisterLoginMe(t *testing.T) {
	// GIVEN: A registered user
	// WHEN: Logging in and fetching the profile
	// THEN: The issued token identifies the same account

	_, router := newTestAPI(t)
	registerUser(t, router, "thandi@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/users/login", "", map[string]any{
		"email":    "thandi@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := decode(t, rec)["token"].(string)
	require.NotEmpty(t, token)

	rec = doJSON(t, router, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "thandi@example.com", data["email"])
}

func TestAuth_WrongPassword_SameAnswerAsUnknownEmail(t *testing.T) {
	_, router := newTestAPI(t)
	registerUser(t, router, "thandi@example.com")

	wrongPass := doJSON(t, router, http.MethodPost, "/api/users/login", "", map[string]any{
		"email": "thandi@example.com", "password": "nope",
	})
	unknown := doJSON(t, router, http.MethodPost, "/api/users/login", "", map[string]any{
		"email": "ghost@example.com", "password": "nope",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, wrongPass.Body.String(), unknown.Body.String())
}

// =============================================================================
// MANUAL LEDGER ENTRIES
// =============================================================================

func TestAddEntry_AmountsMustAddUp(t *testing.T) {
	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/ledger/add", token, map[string]any{
		"transactionType": "INCOME",
		"clientName":      "Mode Apparel",
		"amount":          100,
		"tax":             15,
		"totalAmount":     120, // 100 + 15 != 120
		"paymentMethod":   "Cash",
		"date":            "2025-03-10",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddEntry_MissingPaymentMethodOrCounterparty_Rejected(t *testing.T) {
	// GIVEN: Otherwise valid manual entries
	// WHEN: paymentMethod or clientName is omitted
	// THEN: 400, and nothing is written - only mirrored entries may fall
	//       back to a default payment method

	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	base := func() map[string]any {
		return map[string]any{
			"transactionType": "INCOME",
			"clientName":      "Mode Apparel",
			"incomeCategory":  "CMT Services",
			"amount":          100,
			"tax":             15,
			"totalAmount":     115,
			"paymentMethod":   "Cash",
			"date":            "2025-03-10",
		}
	}

	noMethod := base()
	delete(noMethod, "paymentMethod")
	rec := doJSON(t, router, http.MethodPost, "/api/ledger/add", token, noMethod)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	noClient := base()
	delete(noClient, "clientName")
	rec = doJSON(t, router, http.MethodPost, "/api/ledger/add", token, noClient)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/ledger/list", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["data"])
}

func TestAddEntry_ThenListDefaultsToPreviousMonth(t *testing.T) {
	// GIVEN: One entry in March, one in January ("now" is April 15)
	// WHEN: Listing without dates
	// THEN: Only the March entry appears - the default is the previous
	//       calendar month, applied explicitly

	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	for _, date := range []string{"2025-03-10", "2025-01-10"} {
		rec := doJSON(t, router, http.MethodPost, "/api/ledger/add", token, map[string]any{
			"transactionType": "INCOME",
			"clientName":      "Mode Apparel",
			"incomeCategory":  "CMT Services",
			"amount":          100,
			"tax":             15,
			"totalAmount":     115,
			"paymentMethod":   "Cash",
			"date":            date,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := doJSON(t, router, http.MethodGet, "/api/ledger/list", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "2025-03-01", out["startDate"])
	assert.Equal(t, "2025-03-31", out["endDate"])
	assert.Len(t, out["data"].([]any), 1)
}

func TestUpdateEntry_OtherUsersEntry_Unauthorized(t *testing.T) {
	_, router := newTestAPI(t)
	owner := registerUser(t, router, "owner@example.com")
	intruder := registerUser(t, router, "intruder@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/ledger/add", owner, map[string]any{
		"transactionType": "EXPENSE",
		"clientName":      "Cape Fabrics",
		"amount":          50,
		"tax":             0,
		"totalAmount":     50,
		"paymentMethod":   "Cash",
		"date":            "2025-03-05",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["data"].(map[string]any)["_id"].(string)

	rec = doJSON(t, router, http.MethodPut, "/api/ledger/update/"+id, intruder, map[string]any{
		"transactionType": "EXPENSE",
		"amount":          999,
		"tax":             0,
		"totalAmount":     999,
		"date":            "2025-03-05",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/ledger/delete/"+id, intruder, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// EXPENSE -> LEDGER MIRRORING THROUGH THE API
// =============================================================================

func TestCreateExpense_AppearsInLedger(t *testing.T) {
	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/expenses", token, map[string]any{
		"date":        "2025-03-08",
		"vendorName":  "Cape Fabrics",
		"amount":      200,
		"vatAmount":   30,
		"totalAmount": 230,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/ledger/list", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].([]any)
	require.Len(t, data, 1)
	entry := data[0].(map[string]any)
	assert.Equal(t, "EXPENSE", entry["sourceType"])
	assert.Equal(t, "Cape Fabrics", entry["supplierName"])
	assert.Equal(t, 230.0, entry["totalAmount"])
}

func TestDeleteExpense_RemovesLedgerEntry(t *testing.T) {
	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/expenses", token, map[string]any{
		"date": "2025-03-08", "vendorName": "Cape Fabrics",
		"amount": 200, "vatAmount": 30, "totalAmount": 230,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["data"].(map[string]any)["_id"].(string)

	rec = doJSON(t, router, http.MethodDelete, "/api/expenses/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/ledger/list", token, nil)
	assert.Empty(t, decode(t, rec)["data"])
}

// =============================================================================
// INVOICES THROUGH THE API
// =============================================================================

func postInvoice(t *testing.T, router http.Handler, token string, overrides map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body := map[string]any{
		"invoiceDate": "2025-03-12",
		"items": []map[string]any{
			{"quantity": 10, "description": "Golf shirts", "unitPrice": 20, "amount": 200},
		},
		"subTotal":    200,
		"tax":         30,
		"totalAmount": 230,
	}
	for k, v := range overrides {
		body[k] = v
	}
	return doJSON(t, router, http.MethodPost, "/api/invoices", token, body)
}

func TestCreateInvoice_SequentialNumbering(t *testing.T) {
	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	first := postInvoice(t, router, token, nil)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := postInvoice(t, router, token, nil)
	require.Equal(t, http.StatusCreated, second.Code)

	assert.Equal(t, "INV-000001", decode(t, first)["data"].(map[string]any)["invoiceNo"])
	assert.Equal(t, "INV-000002", decode(t, second)["data"].(map[string]any)["invoiceNo"])
}

func TestCreateInvoice_ManualNumberBypassesSequence(t *testing.T) {
	// GIVEN: An invoice with a manually assigned number
	// WHEN: The next invoice is auto-numbered
	// THEN: The counter never advanced for the manual one

	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	manual := postInvoice(t, router, token, map[string]any{"invoiceNo": "LEGACY-42"})
	require.Equal(t, http.StatusCreated, manual.Code)

	auto := postInvoice(t, router, token, nil)
	require.Equal(t, http.StatusCreated, auto.Code)
	assert.Equal(t, "INV-000001", decode(t, auto)["data"].(map[string]any)["invoiceNo"])

	dup := postInvoice(t, router, token, map[string]any{"invoiceNo": "LEGACY-42"})
	assert.Equal(t, http.StatusConflict, dup.Code)
}

func TestCreateInvoice_PendingStaysOutOfLedger(t *testing.T) {
	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	rec := postInvoice(t, router, token, nil) // default status Pending
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/ledger/list", token, nil)
	assert.Empty(t, decode(t, rec)["data"], "unpaid invoices are tracking documents, not income")
}

func TestCreateInvoice_PaidOnCreate_MirroredImmediately(t *testing.T) {
	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	rec := postInvoice(t, router, token, map[string]any{"status": "Paid"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/ledger/list", token, nil)
	data := decode(t, rec)["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "INVOICE", data[0].(map[string]any)["sourceType"])
	assert.Equal(t, "INCOME", data[0].(map[string]any)["transactionType"])
}

func TestMarkInvoicesPaid_BatchReportsCreatedCount(t *testing.T) {
	// GIVEN: Two pending invoices and one already paid
	// WHEN: Marking all three paid in one batch
	// THEN: The response reports 3 processed but only 2 entries created

	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	var ids []string
	for i := 0; i < 2; i++ {
		rec := postInvoice(t, router, token, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		ids = append(ids, decode(t, rec)["data"].(map[string]any)["_id"].(string))
	}
	paid := postInvoice(t, router, token, map[string]any{"status": "Paid"})
	require.Equal(t, http.StatusCreated, paid.Code)
	ids = append(ids, decode(t, paid)["data"].(map[string]any)["_id"].(string))

	rec := doJSON(t, router, http.MethodPost, "/api/invoices/mark-paid", token, map[string]any{
		"invoiceIds": ids,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "3 invoices marked as Paid, 2 transactions created", out["message"])

	rec = doJSON(t, router, http.MethodGet, "/api/ledger/list", token, nil)
	assert.Len(t, decode(t, rec)["data"].([]any), 3)
}

// =============================================================================
// REPORTS THROUGH THE API
// =============================================================================

func TestProfitLossReport_RequiresDates(t *testing.T) {
	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	rec := doJSON(t, router, http.MethodGet, "/api/ledger/report/profit-loss", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfitLossReport_ComputesOverExplicitRange(t *testing.T) {
	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/expenses", token, map[string]any{
		"date": "2025-03-08", "vendorName": "Cape Fabrics",
		"amount": 200, "vatAmount": 30, "totalAmount": 230,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet,
		"/api/ledger/report/profit-loss?startDate=2025-03-01&endDate=2025-03-31", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	// No category on the expense: it reports under operating "other".
	operating := data["operatingExpenses"].(map[string]any)
	assert.Equal(t, 230.0, operating["other"])
	assert.Equal(t, -230.0, data["netProfit"])
}

func TestGeneralLedgerReport_DefaultsToPreviousMonth(t *testing.T) {
	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	rec := doJSON(t, router, http.MethodGet, "/api/ledger/report/general-ledger", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, 0.0, data["closingBalance"])
}

func TestGeneralLedgerExport_StreamsWorkbook(t *testing.T) {
	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	rec := doJSON(t, router, http.MethodGet, "/api/ledger/report/general-ledger/export", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())
}

func TestVATSummaryReport_EndToEnd(t *testing.T) {
	// GIVEN: A paid VAT invoice and a VAT expense recorded via the API
	// WHEN: Asking for the VAT summary
	// THEN: Output, input and net VAT line up with the documents

	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	rec := postInvoice(t, router, token, map[string]any{"status": "Paid", "isVatApplicable": true})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/expenses", token, map[string]any{
		"date": "2025-03-08", "vendorName": "Cape Fabrics",
		"amount": 100, "vatAmount": 15, "totalAmount": 115,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet,
		"/api/ledger/report/vat-summary?startDate=2025-03-01&endDate=2025-03-31", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, 30.0, data["outputVAT"])
	assert.Equal(t, 15.0, data["inputVAT"])
	assert.Equal(t, 15.0, data["netVAT"])
}

// =============================================================================
// MASTER DATA THROUGH THE API
// =============================================================================

func TestCategories_SeededAndCustom(t *testing.T) {
	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	rec := doJSON(t, router, http.MethodGet, "/api/expense-categories", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"].([]any), 12)

	rec = doJSON(t, router, http.MethodPost, "/api/expense-categories", token, map[string]any{
		"name": "Team Building",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/expense-categories", token, nil)
	assert.Len(t, decode(t, rec)["data"].([]any), 13)
}

func TestInvoiceDetail_ReturnsBankAccountForClientVATStatus(t *testing.T) {
	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/clients", token, map[string]any{
		"name": "Acme Retail", "vatApplicable": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	clientID := decode(t, rec)["data"].(map[string]any)["_id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/api/bank-accounts", token, map[string]any{
		"bankName": "FNB", "accountName": "Main", "accountNumber": "123", "accountType": "VAT",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postInvoice(t, router, token, map[string]any{"to": clientID})
	require.Equal(t, http.StatusCreated, rec.Code)
	invoiceID := decode(t, rec)["data"].(map[string]any)["_id"].(string)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/invoices/%s", invoiceID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	account := data["bankAccount"].(map[string]any)
	assert.Equal(t, "VAT", account["accountType"])
}

// =============================================================================
// INVOICE ANALYTICS
// =============================================================================

func TestClientStatements_GroupsSentInvoicesByClient(t *testing.T) {
	// GIVEN: Sent invoices for two clients, one Paid invoice, and one
	//        Sent invoice with no client on record
	// WHEN: Requesting statements for the period
	// THEN: One statement per client, alphabetical; only Sent invoices
	//       count, and the client-less invoice is left out

	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	newClient := func(name string) string {
		rec := doJSON(t, router, http.MethodPost, "/api/clients", token, map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, rec.Code)
		return decode(t, rec)["data"].(map[string]any)["_id"].(string)
	}
	mode := newClient("Mode Apparel")
	zinhle := newClient("Zinhle Traders")

	for _, body := range []map[string]any{
		{"to": mode, "status": "Sent"},
		{"to": mode, "status": "Sent"},
		{"to": zinhle, "status": "Sent"},
		{"to": mode, "status": "Paid"},
		{"status": "Sent"},
	} {
		rec := postInvoice(t, router, token, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := doJSON(t, router, http.MethodGet, "/api/invoices/statements", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "period is required")

	rec = doJSON(t, router, http.MethodGet,
		"/api/invoices/statements?startDate=2025-03-01&endDate=2025-03-31", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	statements := decode(t, rec)["statements"].([]any)
	require.Len(t, statements, 2)

	first := statements[0].(map[string]any)
	assert.Equal(t, "Mode Apparel", first["clientName"])
	assert.Equal(t, 2.0, first["totalInvoices"])
	assert.Equal(t, 460.0, first["totalAmount"])
	assert.Len(t, first["invoices"], 2)

	second := statements[1].(map[string]any)
	assert.Equal(t, "Zinhle Traders", second["clientName"])
	assert.Equal(t, 230.0, second["totalAmount"])
}

func TestOrdersPerProduct_AggregatesPendingItems(t *testing.T) {
	// GIVEN: Two Pending invoices sharing a product line, plus a Paid one
	// WHEN: Aggregating orders per product
	// THEN: Quantities sum per product, sorted by volume; Paid invoices
	//       never count as open orders

	_, router := newTestAPI(t)
	token := registerUser(t, router, "a@example.com")

	rec := postInvoice(t, router, token, nil) // Golf shirts x10, 2025-03-12
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postInvoice(t, router, token, map[string]any{
		"invoiceDate": "2025-03-20",
		"items": []map[string]any{
			{"quantity": 5, "description": "Golf shirts", "unitPrice": 20, "amount": 100},
			{"quantity": 8, "description": "Hoodies", "unitPrice": 10, "amount": 80},
		},
		"subTotal":    180,
		"tax":         0,
		"totalAmount": 180,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = postInvoice(t, router, token, map[string]any{"status": "Paid"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/invoices/orders-per-product", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	orders := decode(t, rec)["data"].([]any)
	require.Len(t, orders, 2)

	top := orders[0].(map[string]any)
	assert.Equal(t, "Golf shirts", top["product"])
	assert.Equal(t, 15.0, top["totalOrders"])
	assert.Equal(t, 2.0, top["invoiceCount"])

	next := orders[1].(map[string]any)
	assert.Equal(t, "Hoodies", next["product"])
	assert.Equal(t, 8.0, next["totalOrders"])

	// Optional period narrows the aggregation to invoices dated inside it.
	rec = doJSON(t, router, http.MethodGet,
		"/api/invoices/orders-per-product?startDate=2025-03-15&endDate=2025-03-31", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	orders = decode(t, rec)["data"].([]any)
	require.Len(t, orders, 2)
	assert.Equal(t, 8.0, orders[0].(map[string]any)["totalOrders"])
	assert.Equal(t, 5.0, orders[1].(map[string]any)["totalOrders"])

	// Nothing on order answers 404, not an empty list.
	other := registerUser(t, router, "b@example.com")
	rec = doJSON(t, router, http.MethodGet, "/api/invoices/orders-per-product", other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
