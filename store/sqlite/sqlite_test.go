package sqlite_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func marchRange(t *testing.T) ledger.DateRange {
	t.Helper()
	r, err := ledger.NewDateRange(day(1), day(31))
	require.NoError(t, err)
	return r
}

func mirrorEntry(id, sourceRef string) ledger.Entry {
	return ledger.Entry{
		ID:            id,
		Type:          ledger.TypeExpense,
		Source:        ledger.SourceExpense,
		SourceRef:     sourceRef,
		SupplierName:  "Cape Fabrics",
		Amount:        dec("100.00"),
		Tax:           dec("15.00"),
		Total:         dec("115.00"),
		PaymentMethod: ledger.PayCash,
		Date:          day(10),
		Owner:         "user-1",
	}
}

func manualEntry(id string, owner string, d int) ledger.Entry {
	return ledger.Entry{
		ID:            id,
		Type:          ledger.TypeIncome,
		Source:        ledger.SourceManual,
		ClientName:    "Acme Retail",
		Amount:        dec("500.00"),
		Tax:           dec("0"),
		Total:         dec("500.00"),
		PaymentMethod: ledger.PayBankTransfer,
		Date:          day(d),
		Owner:         owner,
	}
}

// =============================================================================
// MIRROR UPSERTS
// =============================================================================

func TestUpsertMirror_CreatesThenUpdatesInPlace(t *testing.T) {
	// GIVEN: No mirror for the source document
	// WHEN: Upserting twice with different amounts
	// THEN: First call creates, second updates the same row

	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.UpsertMirror(ctx, mirrorEntry("e-1", "exp-1"))
	require.NoError(t, err)
	assert.True(t, created)

	second := mirrorEntry("e-2", "exp-1")
	second.Total = dec("230.00")
	created, err = store.UpsertMirror(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)

	entry, err := store.FindBySource(ctx, ledger.SourceExpense, "exp-1")
	require.NoError(t, err)
	assert.Equal(t, "e-1", entry.ID, "the original row survives, only fields change")
	assert.True(t, entry.Total.Equal(dec("230.00")))
}

func TestInsertMirrorIfAbsent_SecondInsertIsNoOp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.InsertMirrorIfAbsent(ctx, mirrorEntry("e-1", "exp-1"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.InsertMirrorIfAbsent(ctx, mirrorEntry("e-2", "exp-1"))
	require.NoError(t, err)
	assert.False(t, created)

	entries, err := store.LoadRange(ctx, "user-1", marchRange(t))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMirrorIndex_ManualEntriesExempt(t *testing.T) {
	// GIVEN: Two MANUAL entries, both with empty sourceRef
	// WHEN: Inserting both
	// THEN: No conflict - the partial index only guards real references

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, manualEntry("m-1", "user-1", 5)))
	require.NoError(t, store.Insert(ctx, manualEntry("m-2", "user-1", 6)))

	entries, err := store.LoadRange(ctx, "user-1", marchRange(t))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestDeleteMirror_AbsentIsNotAnError(t *testing.T) {
	store := newTestStore(t)

	assert.NoError(t, store.DeleteMirror(context.Background(), ledger.SourceInvoice, "ghost"))
}

// =============================================================================
// ENTRY QUERIES
// =============================================================================

func TestList_OwnerScopedAndPaginated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Insert(ctx, manualEntry(fmt.Sprintf("mine-%d", i), "user-1", i)))
	}
	require.NoError(t, store.Insert(ctx, manualEntry("theirs", "user-2", 3)))

	entries, total, err := store.List(ctx, "user-1", marchRange(t), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total, "count ignores pagination but respects owner")
	assert.Len(t, entries, 2)
	assert.Equal(t, day(5), entries[0].Date, "newest first")

	entries, _, err = store.List(ctx, "user-1", marchRange(t), 3, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "last page is partial")
}

func TestLoadRange_InclusiveBounds_Ascending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, manualEntry("m-1", "user-1", 1)))
	require.NoError(t, store.Insert(ctx, manualEntry("m-2", "user-1", 31)))
	require.NoError(t, store.Insert(ctx, manualEntry("m-3", "user-1", 15)))

	entries, err := store.LoadRange(ctx, "user-1", marchRange(t))
	require.NoError(t, err)
	require.Len(t, entries, 3, "both boundary days are inside the range")
	assert.Equal(t, day(1), entries[0].Date)
	assert.Equal(t, day(15), entries[1].Date)
	assert.Equal(t, day(31), entries[2].Date)
}

func TestUpdate_MissingEntry_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(context.Background(), manualEntry("ghost", "user-1", 1))
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// =============================================================================
// COUNTERS
// =============================================================================

func TestCounter_InitializesAndIncrements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.Next(ctx, "invoice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Next(ctx, "invoice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCounter_IndependentPerName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Next(ctx, "invoice")
	require.NoError(t, err)

	n, err := store.Next(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "each counter starts from its own 1")
}

// =============================================================================
// INVOICES
// =============================================================================

func testInvoice(id, number string) ledger.Invoice {
	return ledger.Invoice{
		ID:            id,
		InvoiceNumber: number,
		Date:          day(12),
		ToClient:      "client-1",
		Items: []ledger.InvoiceItem{
			{Quantity: dec("10"), Description: "Golf shirts", UnitPrice: dec("20.00"), Amount: dec("200.00")},
		},
		SubTotal:    dec("200.00"),
		Tax:         dec("30.00"),
		TotalAmount: dec("230.00"),
		Status:      ledger.StatusPending,
		Category:    ledger.IncomeFinishedGarments,
		Owner:       "user-1",
	}
}

func TestSaveInvoice_DuplicateNumberRejected(t *testing.T) {
	// GIVEN: An invoice with a manually assigned number
	// WHEN: Saving another invoice carrying the same number
	// THEN: ErrDuplicateInvoiceNumber - generated and manual numbers share
	//       one uniqueness domain

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveInvoice(ctx, testInvoice("inv-1", "INV-000007")))

	err := store.SaveInvoice(ctx, testInvoice("inv-2", "INV-000007"))
	assert.ErrorIs(t, err, ledger.ErrDuplicateInvoiceNumber)
}

func TestInvoice_RoundTripWithItems(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveInvoice(ctx, testInvoice("inv-1", "INV-000001")))

	got, err := store.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Golf shirts", got.Items[0].Description)
	assert.True(t, got.SubTotal.Equal(dec("200.00")))
	assert.Equal(t, ledger.StatusPending, got.Status)
}

func TestListInvoices_FilterByPONumber(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testInvoice("inv-1", "INV-000001")
	a.PONumber = "PO-9"
	b := testInvoice("inv-2", "INV-000002")
	require.NoError(t, store.SaveInvoice(ctx, a))
	require.NoError(t, store.SaveInvoice(ctx, b))

	invoices, total, err := store.ListInvoices(ctx, "user-1", sqlite.InvoiceFilter{PONumber: "PO-9"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, invoices, 1)
	assert.Equal(t, "inv-1", invoices[0].ID)
}

func TestUpdateInvoiceStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveInvoice(ctx, testInvoice("inv-1", "INV-000001")))
	require.NoError(t, store.UpdateInvoiceStatus(ctx, "inv-1", ledger.StatusPaid))

	got, err := store.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPaid, got.Status)
}

// =============================================================================
// MASTER DATA
// =============================================================================

func TestDefaultCategories_SeededOnce(t *testing.T) {
	store := newTestStore(t)

	cats, err := store.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 12, "the P&L taxonomy is seeded at migration time")

	names := make(map[string]bool)
	for _, c := range cats {
		assert.True(t, c.IsDefault)
		names[c.Name] = true
	}
	assert.True(t, names["Trims & Materials"])
	assert.True(t, names["Income Tax Expense"])
}

func TestDeleteCategory_DefaultsProtected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cats, err := store.ListCategories(ctx)
	require.NoError(t, err)

	err = store.DeleteCategory(ctx, cats[0].ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound, "default categories cannot be deleted")

	custom := ledger.Category{ID: "cat-x", Name: "Team Building"}
	require.NoError(t, store.SaveCategory(ctx, custom))
	assert.NoError(t, store.DeleteCategory(ctx, "cat-x"))
}

func TestSaveUser_DuplicateEmailRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u := ledger.User{ID: "u-1", Name: "Thandi", Email: "thandi@example.com", PasswordHash: "x"}
	require.NoError(t, store.SaveUser(ctx, u))

	u2 := ledger.User{ID: "u-2", Name: "Other", Email: "thandi@example.com", PasswordHash: "y"}
	err := store.SaveUser(ctx, u2)
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestBankAccountByType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBankAccount(ctx, ledger.BankAccount{
		ID: "b-1", BankName: "FNB", AccountName: "Main", AccountNumber: "123",
		AccountType: ledger.AccountVAT,
	}))

	got, err := store.GetBankAccountByType(ctx, ledger.AccountVAT)
	require.NoError(t, err)
	assert.Equal(t, "b-1", got.ID)

	_, err = store.GetBankAccountByType(ctx, ledger.AccountNonVAT)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestEntry_ClientNameResolvedFromClientsTable(t *testing.T) {
	// GIVEN: An entry referencing a client by id, with no denormalized name
	// WHEN: Reading it back
	// THEN: The client's name is resolved by the join

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveClient(ctx, ledger.Client{ID: "client-1", Name: "Acme Retail"}))

	e := manualEntry("m-1", "user-1", 5)
	e.ClientName = ""
	e.ClientID = "client-1"
	require.NoError(t, store.Insert(ctx, e))

	got, err := store.Get(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Retail", got.ClientName)
}
