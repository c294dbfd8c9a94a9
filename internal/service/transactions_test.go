package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
	"github.com/taufikraden29/moneymoo-api/internal/infra/cache"
	"github.com/taufikraden29/moneymoo-api/internal/infra/observability"
)

const testOwner = "owner-1"

func newTransactionsFixture(accounts *fakeAccountStore, store *fakeTransactionStore) (*TransactionsService, *observability.Metrics) {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	reconciler := NewReconciler(accounts, metrics, logger)
	listCache := cache.New[*domain.TransactionList](time.Minute)
	summaryCache := cache.New[*domain.FinancialSummary](time.Minute)
	svc := NewTransactionsService(store, accounts, reconciler, listCache, summaryCache,
		30*time.Second, time.Minute, metrics, logger)
	return svc, metrics
}

func testAccount(id string, balance string) *domain.Account {
	return &domain.Account{
		ID:      id,
		OwnerID: testOwner,
		Name:    "Main",
		Type:    domain.AccountBank,
		Balance: decimal.RequireFromString(balance),
	}
}

func TestCreateTransaction_ExpenseDebitsAccount(t *testing.T) {
	accounts := newFakeAccountStore(testAccount("acc-1", "100000"))
	store := newFakeTransactionStore()
	svc, _ := newTransactionsFixture(accounts, store)

	created, err := svc.Create(context.Background(), testOwner, &domain.CreateTransactionRequest{
		Date:        "2026-08-01",
		Type:        "expense",
		Category:    "food",
		Description: "lunch",
		Amount:      "50.000",
		AccountID:   "acc-1",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !created.Amount.Equal(decimal.RequireFromString("50000")) {
		t.Errorf("amount = %s, want 50000", created.Amount)
	}
	if got := accounts.balance("acc-1"); !got.Equal(decimal.RequireFromString("50000")) {
		t.Errorf("balance = %s, want 50000", got)
	}
}

func TestCreateTransaction_IncomeCreditsAccount(t *testing.T) {
	accounts := newFakeAccountStore(testAccount("acc-1", "0"))
	store := newFakeTransactionStore()
	svc, _ := newTransactionsFixture(accounts, store)

	_, err := svc.Create(context.Background(), testOwner, &domain.CreateTransactionRequest{
		Date:      "2026-08-01",
		Type:      "income",
		Category:  "salary",
		Amount:    "2.500.000",
		AccountID: "acc-1",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got := accounts.balance("acc-1"); !got.Equal(decimal.RequireFromString("2500000")) {
		t.Errorf("balance = %s, want 2500000", got)
	}
}

func TestCreateTransaction_NoAccountSkipsBalance(t *testing.T) {
	accounts := newFakeAccountStore(testAccount("acc-1", "100"))
	store := newFakeTransactionStore()
	svc, _ := newTransactionsFixture(accounts, store)

	_, err := svc.Create(context.Background(), testOwner, &domain.CreateTransactionRequest{
		Date:     "2026-08-01",
		Type:     "expense",
		Category: "misc",
		Amount:   "10",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(accounts.adjustments) != 0 {
		t.Errorf("expected no balance adjustments, got %v", accounts.adjustments)
	}
}

func TestCreateTransaction_ValidationAccumulates(t *testing.T) {
	svc, _ := newTransactionsFixture(newFakeAccountStore(), newFakeTransactionStore())

	_, err := svc.Create(context.Background(), testOwner, &domain.CreateTransactionRequest{
		Date:   "not-a-date",
		Type:   "refund",
		Amount: "",
	})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	// date, type, category and amount are all wrong at once.
	if len(verr.Fields) != 4 {
		t.Errorf("expected 4 field errors, got %d: %v", len(verr.Fields), verr.Fields)
	}
}

func TestCreateTransaction_UnknownAccount(t *testing.T) {
	svc, _ := newTransactionsFixture(newFakeAccountStore(), newFakeTransactionStore())

	_, err := svc.Create(context.Background(), testOwner, &domain.CreateTransactionRequest{
		Date:      "2026-08-01",
		Type:      "expense",
		Category:  "food",
		Amount:    "10",
		AccountID: "missing",
	})
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCreateTransaction_RejectsDuplicate(t *testing.T) {
	accounts := newFakeAccountStore(testAccount("acc-1", "100000"))
	store := newFakeTransactionStore()
	svc, _ := newTransactionsFixture(accounts, store)

	req := &domain.CreateTransactionRequest{
		Date:        "2026-08-01",
		Type:        "expense",
		Category:    "food",
		Description: "lunch",
		Amount:      "50.000",
		AccountID:   "acc-1",
	}
	if _, err := svc.Create(context.Background(), testOwner, req); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := svc.Create(context.Background(), testOwner, req)
	var dup *domain.ErrDuplicate
	if !errors.As(err, &dup) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	// The account must not be debited twice.
	if got := accounts.balance("acc-1"); !got.Equal(decimal.RequireFromString("50000")) {
		t.Errorf("balance = %s, want 50000", got)
	}
}

func TestCreateTransaction_CompensatesFailedAdjustment(t *testing.T) {
	accounts := newFakeAccountStore(testAccount("acc-1", "1000"))
	accounts.failAdjustFor = "acc-1"
	store := newFakeTransactionStore()
	svc, metrics := newTransactionsFixture(accounts, store)

	_, err := svc.Create(context.Background(), testOwner, &domain.CreateTransactionRequest{
		Date:      "2026-08-01",
		Type:      "expense",
		Category:  "food",
		Amount:    "100",
		AccountID: "acc-1",
	})
	if err == nil {
		t.Fatal("expected error when balance adjustment fails")
	}
	var drift *domain.ErrReconciliationDrift
	if errors.As(err, &drift) {
		t.Fatalf("compensation succeeded, error must not be drift: %v", err)
	}
	// The inserted row was rolled back.
	if len(store.rows) != 0 {
		t.Errorf("expected transaction to be removed, %d rows remain", len(store.rows))
	}
	if got := metrics.GetEngineSnapshot().DriftTotal; got != 0 {
		t.Errorf("drift total = %d, want 0", got)
	}
}

func TestCreateTransaction_DriftWhenCompensationFails(t *testing.T) {
	accounts := newFakeAccountStore(testAccount("acc-1", "1000"))
	accounts.failAdjustFor = "acc-1"
	store := newFakeTransactionStore()
	store.deleteErr = errors.New("storage down")
	svc, metrics := newTransactionsFixture(accounts, store)

	_, err := svc.Create(context.Background(), testOwner, &domain.CreateTransactionRequest{
		Date:      "2026-08-01",
		Type:      "expense",
		Category:  "food",
		Amount:    "100",
		AccountID: "acc-1",
	})
	var drift *domain.ErrReconciliationDrift
	if !errors.As(err, &drift) {
		t.Fatalf("expected drift error, got %v", err)
	}
	if got := metrics.GetEngineSnapshot().DriftTotal; got != 1 {
		t.Errorf("drift total = %d, want 1", got)
	}
}

func TestUpdateTransaction_SameAccountAppliesNetDelta(t *testing.T) {
	accounts := newFakeAccountStore(testAccount("acc-1", "900"))
	// Existing expense of 100 already reflected in the balance.
	old := &domain.Transaction{
		ID: "tx-1", OwnerID: testOwner, AccountID: "acc-1",
		Type: domain.TransactionExpense, Category: "food",
		Amount: decimal.RequireFromString("100"), Date: "2026-08-01",
	}
	store := newFakeTransactionStore(old)
	svc, _ := newTransactionsFixture(accounts, store)

	newAmount := "150"
	_, err := svc.Update(context.Background(), testOwner, "tx-1", &domain.UpdateTransactionRequest{Amount: &newAmount})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := accounts.balance("acc-1"); !got.Equal(decimal.RequireFromString("850")) {
		t.Errorf("balance = %s, want 850", got)
	}
	if len(accounts.adjustments) != 1 {
		t.Errorf("expected a single net adjustment, got %d", len(accounts.adjustments))
	}
}

func TestUpdateTransaction_EmptyPatchIsANoOp(t *testing.T) {
	accounts := newFakeAccountStore(testAccount("acc-1", "900"))
	old := &domain.Transaction{
		ID: "tx-1", OwnerID: testOwner, AccountID: "acc-1",
		Type: domain.TransactionExpense, Category: "food",
		Amount: decimal.RequireFromString("100"), Date: "2026-08-01",
	}
	store := newFakeTransactionStore(old)
	svc, _ := newTransactionsFixture(accounts, store)

	got, err := svc.Update(context.Background(), testOwner, "tx-1", &domain.UpdateTransactionRequest{})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.ID != "tx-1" || !got.Amount.Equal(old.Amount) {
		t.Errorf("expected the unchanged transaction back, got %+v", got)
	}
	if b := accounts.balance("acc-1"); !b.Equal(decimal.RequireFromString("900")) {
		t.Errorf("balance = %s, want 900", b)
	}
	if len(accounts.adjustments) != 0 {
		t.Errorf("expected no balance adjustments, got %d", len(accounts.adjustments))
	}
}

func TestUpdateTransaction_SameValuesLeaveBalanceUntouched(t *testing.T) {
	accounts := newFakeAccountStore(testAccount("acc-1", "900"))
	old := &domain.Transaction{
		ID: "tx-1", OwnerID: testOwner, AccountID: "acc-1",
		Type: domain.TransactionExpense, Category: "food",
		Amount: decimal.RequireFromString("100"), Date: "2026-08-01",
	}
	store := newFakeTransactionStore(old)
	svc, _ := newTransactionsFixture(accounts, store)

	// Patching the amount to its current value writes the row but must
	// not move the balance.
	sameAmount := "100"
	got, err := svc.Update(context.Background(), testOwner, "tx-1", &domain.UpdateTransactionRequest{Amount: &sameAmount})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !got.Amount.Equal(old.Amount) {
		t.Errorf("amount = %s, want %s", got.Amount, old.Amount)
	}
	if b := accounts.balance("acc-1"); !b.Equal(decimal.RequireFromString("900")) {
		t.Errorf("balance = %s, want 900", b)
	}
	if len(accounts.adjustments) != 0 {
		t.Errorf("expected no balance adjustments, got %d", len(accounts.adjustments))
	}
}

func TestUpdateTransaction_MovesBetweenAccounts(t *testing.T) {
	accounts := newFakeAccountStore(testAccount("acc-1", "900"), testAccount("acc-2", "500"))
	old := &domain.Transaction{
		ID: "tx-1", OwnerID: testOwner, AccountID: "acc-1",
		Type: domain.TransactionExpense, Category: "food",
		Amount: decimal.RequireFromString("100"), Date: "2026-08-01",
	}
	store := newFakeTransactionStore(old)
	svc, _ := newTransactionsFixture(accounts, store)

	newAccount := "acc-2"
	_, err := svc.Update(context.Background(), testOwner, "tx-1", &domain.UpdateTransactionRequest{AccountID: &newAccount})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := accounts.balance("acc-1"); !got.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("old account balance = %s, want 1000", got)
	}
	if got := accounts.balance("acc-2"); !got.Equal(decimal.RequireFromString("400")) {
		t.Errorf("new account balance = %s, want 400", got)
	}
}

func TestDeleteTransaction_ReversesBalanceEffect(t *testing.T) {
	accounts := newFakeAccountStore(testAccount("acc-1", "900"))
	old := &domain.Transaction{
		ID: "tx-1", OwnerID: testOwner, AccountID: "acc-1",
		Type: domain.TransactionExpense, Category: "food",
		Amount: decimal.RequireFromString("100"), Date: "2026-08-01",
	}
	store := newFakeTransactionStore(old)
	svc, _ := newTransactionsFixture(accounts, store)

	if err := svc.Delete(context.Background(), testOwner, "tx-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got := accounts.balance("acc-1"); !got.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("balance = %s, want 1000", got)
	}
	if len(store.rows) != 0 {
		t.Errorf("expected row to be deleted")
	}
}

func TestList_CachesAndInvalidatesOnWrite(t *testing.T) {
	accounts := newFakeAccountStore(testAccount("acc-1", "1000"))
	store := newFakeTransactionStore(&domain.Transaction{
		ID: "tx-1", OwnerID: testOwner,
		Type: domain.TransactionExpense, Category: "food",
		Amount: decimal.RequireFromString("10"), Date: "2026-08-01",
	})
	svc, _ := newTransactionsFixture(accounts, store)

	filter := domain.TransactionFilter{Page: 1, PageSize: 20}
	if _, err := svc.List(context.Background(), testOwner, filter); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if _, err := svc.List(context.Background(), testOwner, filter); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if store.listCalls != 1 {
		t.Errorf("expected second list to hit the cache, store saw %d calls", store.listCalls)
	}

	_, err := svc.Create(context.Background(), testOwner, &domain.CreateTransactionRequest{
		Date: "2026-08-02", Type: "income", Category: "salary", Amount: "500",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := svc.List(context.Background(), testOwner, filter)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if store.listCalls != 2 {
		t.Errorf("expected write to invalidate the cache, store saw %d calls", store.listCalls)
	}
	if list.Total != 2 {
		t.Errorf("total = %d, want 2", list.Total)
	}
}

func TestSummary_AggregatesWithDecimals(t *testing.T) {
	accounts := newFakeAccountStore()
	store := newFakeTransactionStore(
		&domain.Transaction{ID: "t1", OwnerID: testOwner, Type: domain.TransactionIncome, Category: "salary",
			Amount: decimal.RequireFromString("2500000"), Date: "2026-08-01"},
		&domain.Transaction{ID: "t2", OwnerID: testOwner, Type: domain.TransactionExpense, Category: "food",
			Amount: decimal.RequireFromString("50000.50"), Date: "2026-08-02"},
		&domain.Transaction{ID: "t3", OwnerID: testOwner, Type: domain.TransactionExpense, Category: "transport",
			Amount: decimal.RequireFromString("0.10"), Date: "2026-08-03"},
		// Outside the requested range.
		&domain.Transaction{ID: "t4", OwnerID: testOwner, Type: domain.TransactionExpense, Category: "rent",
			Amount: decimal.RequireFromString("999"), Date: "2026-07-01"},
	)
	svc, _ := newTransactionsFixture(accounts, store)

	summary, err := svc.Summary(context.Background(), testOwner, "2026-08-01", "2026-08-31")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if !summary.TotalIncome.Equal(decimal.RequireFromString("2500000")) {
		t.Errorf("income = %s, want 2500000", summary.TotalIncome)
	}
	if !summary.TotalExpense.Equal(decimal.RequireFromString("50000.60")) {
		t.Errorf("expense = %s, want 50000.60", summary.TotalExpense)
	}
	if !summary.Balance.Equal(decimal.RequireFromString("2449999.40")) {
		t.Errorf("balance = %s, want 2449999.40", summary.Balance)
	}
	if summary.Count != 3 {
		t.Errorf("count = %d, want 3", summary.Count)
	}
}

func TestCreateTransaction_SanitizesFreeText(t *testing.T) {
	store := newFakeTransactionStore()
	svc, _ := newTransactionsFixture(newFakeAccountStore(), store)

	created, err := svc.Create(context.Background(), testOwner, &domain.CreateTransactionRequest{
		Date:        "2026-08-01",
		Type:        "expense",
		Category:    "food",
		Description: `<script>alert("x")</script>`,
		Amount:      "10",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Description != `&lt;script&gt;alert(&quot;x&quot;)&lt;&#x2F;script&gt;` {
		t.Errorf("description not sanitized: %q", created.Description)
	}
}
