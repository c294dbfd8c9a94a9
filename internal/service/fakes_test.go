package service

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
)

// ============================================================
// Hand-rolled fakes for the store ports
// ============================================================

type balanceAdjustment struct {
	accountID string
	delta     decimal.Decimal
}

type fakeAccountStore struct {
	mu          sync.Mutex
	accounts    map[string]*domain.Account
	adjustments []balanceAdjustment
	// failAdjustFor makes AdjustAccountBalance fail for one account id.
	failAdjustFor string
}

func newFakeAccountStore(accounts ...*domain.Account) *fakeAccountStore {
	m := make(map[string]*domain.Account)
	for _, a := range accounts {
		m[a.ID] = a
	}
	return &fakeAccountStore{accounts: m}
}

func (f *fakeAccountStore) ListAccounts(ctx context.Context, ownerID string) ([]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Account
	for _, a := range f.accounts {
		if a.OwnerID == ownerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAccountStore) GetAccount(ctx context.Context, ownerID, accountID string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[accountID]
	if !ok || a.OwnerID != ownerID {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccountStore) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *account
	f.accounts[account.ID] = &cp
	return account, nil
}

func (f *fakeAccountStore) DeleteAccount(ctx context.Context, ownerID, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.accounts, accountID)
	return nil
}

func (f *fakeAccountStore) AdjustAccountBalance(ctx context.Context, ownerID, accountID string, delta decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdjustFor == accountID {
		return &domain.ErrStorage{Op: "accounts.adjust_balance", Err: context.DeadlineExceeded}
	}
	a, ok := f.accounts[accountID]
	if !ok {
		return &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	a.Balance = a.Balance.Add(delta)
	f.adjustments = append(f.adjustments, balanceAdjustment{accountID: accountID, delta: delta})
	return nil
}

func (f *fakeAccountStore) balance(accountID string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[accountID].Balance
}

type fakeTransactionStore struct {
	mu   sync.Mutex
	rows map[string]*domain.Transaction

	listCalls int
	insertErr error
	updateErr error
	deleteErr error
}

func newFakeTransactionStore(rows ...*domain.Transaction) *fakeTransactionStore {
	m := make(map[string]*domain.Transaction)
	for _, r := range rows {
		m[r.ID] = r
	}
	return &fakeTransactionStore{rows: m}
}

func (f *fakeTransactionStore) ListTransactions(ctx context.Context, ownerID string, filter domain.TransactionFilter) (*domain.TransactionList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	var items []domain.Transaction
	for _, r := range f.rows {
		if r.OwnerID != ownerID {
			continue
		}
		if filter.From != "" && r.Date < filter.From {
			continue
		}
		if filter.To != "" && r.Date > filter.To {
			continue
		}
		if filter.Type != "" && string(r.Type) != filter.Type {
			continue
		}
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		if filter.Text != "" && !strings.Contains(strings.ToLower(r.Description), strings.ToLower(filter.Text)) {
			continue
		}
		items = append(items, *r)
	}
	return &domain.TransactionList{Items: items, Total: len(items)}, nil
}

func (f *fakeTransactionStore) GetTransaction(ctx context.Context, ownerID, txID string) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[txID]
	if !ok || r.OwnerID != ownerID {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	cp := *r
	return &cp, nil
}

func (f *fakeTransactionStore) FindDuplicateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.OwnerID == tx.OwnerID &&
			r.Amount.Equal(tx.Amount) &&
			r.Description == tx.Description &&
			r.Category == tx.Category &&
			r.Date == tx.Date {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTransactionStore) InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	cp := *tx
	f.rows[tx.ID] = &cp
	return tx, nil
}

func (f *fakeTransactionStore) UpdateTransaction(ctx context.Context, ownerID, txID string, updates map[string]any) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	r, ok := f.rows[txID]
	if !ok || r.OwnerID != ownerID {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	for k, v := range updates {
		switch k {
		case "date":
			r.Date = v.(string)
		case "type":
			r.Type = domain.TransactionType(v.(string))
		case "category":
			r.Category = v.(string)
		case "description":
			r.Description = v.(string)
		case "amount":
			r.Amount = decimal.RequireFromString(v.(string))
		case "account_id":
			if v == nil {
				r.AccountID = ""
			} else {
				r.AccountID = v.(string)
			}
		}
	}
	cp := *r
	return &cp, nil
}

func (f *fakeTransactionStore) DeleteTransaction(ctx context.Context, ownerID, txID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, txID)
	return nil
}

type fakeDebtStore struct {
	mu       sync.Mutex
	debts    map[string]*domain.Debt
	payments map[string]*domain.DebtPayment

	settlementErr    error
	insertPaymentErr error
	deletePaymentErr error
}

func newFakeDebtStore(debts ...*domain.Debt) *fakeDebtStore {
	m := make(map[string]*domain.Debt)
	for _, d := range debts {
		m[d.ID] = d
	}
	return &fakeDebtStore{debts: m, payments: make(map[string]*domain.DebtPayment)}
}

func (f *fakeDebtStore) ListDebts(ctx context.Context, ownerID string) ([]domain.Debt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Debt
	for _, d := range f.debts {
		if d.OwnerID == ownerID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDebtStore) GetDebt(ctx context.Context, ownerID, debtID string) (*domain.Debt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.debts[debtID]
	if !ok || d.OwnerID != ownerID {
		return nil, &domain.ErrNotFound{Resource: "debt", ID: debtID}
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDebtStore) CreateDebt(ctx context.Context, debt *domain.Debt) (*domain.Debt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *debt
	f.debts[debt.ID] = &cp
	return debt, nil
}

func (f *fakeDebtStore) DeleteDebt(ctx context.Context, ownerID, debtID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.debts, debtID)
	for id, p := range f.payments {
		if p.DebtID == debtID {
			delete(f.payments, id)
		}
	}
	return nil
}

func (f *fakeDebtStore) UpdateDebtSettlement(ctx context.Context, ownerID, debtID string, remaining decimal.Decimal, status domain.DebtStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settlementErr != nil {
		return f.settlementErr
	}
	d, ok := f.debts[debtID]
	if !ok {
		return &domain.ErrNotFound{Resource: "debt", ID: debtID}
	}
	d.RemainingAmount = remaining
	d.Status = status
	return nil
}

func (f *fakeDebtStore) ListDebtPayments(ctx context.Context, ownerID, debtID string) ([]domain.DebtPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DebtPayment
	for _, p := range f.payments {
		if p.DebtID == debtID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeDebtStore) GetDebtPayment(ctx context.Context, ownerID, debtID, paymentID string) (*domain.DebtPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[paymentID]
	if !ok || p.DebtID != debtID {
		return nil, &domain.ErrNotFound{Resource: "debt payment", ID: paymentID}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeDebtStore) InsertDebtPayment(ctx context.Context, ownerID string, payment *domain.DebtPayment) (*domain.DebtPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertPaymentErr != nil {
		return nil, f.insertPaymentErr
	}
	cp := *payment
	f.payments[payment.ID] = &cp
	return payment, nil
}

func (f *fakeDebtStore) DeleteDebtPayment(ctx context.Context, ownerID, debtID, paymentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deletePaymentErr != nil {
		return f.deletePaymentErr
	}
	delete(f.payments, paymentID)
	return nil
}
