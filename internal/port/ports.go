// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
)

// Cache provides generic caching with per-entry TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T, ttl time.Duration)
	Delete(key string)
	Keys() []string
	InvalidatePrefix(prefix string)
}

// AccountStore defines data operations for accounts.
type AccountStore interface {
	ListAccounts(ctx context.Context, ownerID string) ([]domain.Account, error)
	GetAccount(ctx context.Context, ownerID, accountID string) (*domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error)
	DeleteAccount(ctx context.Context, ownerID, accountID string) error

	// AdjustAccountBalance applies a signed delta to the stored balance.
	// A positive delta credits the account, a negative delta debits it.
	AdjustAccountBalance(ctx context.Context, ownerID, accountID string, delta decimal.Decimal) error
}

// TransactionStore defines data operations for ledger transactions.
type TransactionStore interface {
	ListTransactions(ctx context.Context, ownerID string, filter domain.TransactionFilter) (*domain.TransactionList, error)
	GetTransaction(ctx context.Context, ownerID, txID string) (*domain.Transaction, error)
	// FindDuplicateTransaction looks up an existing row with the same
	// owner, amount, description, category and date. Returns nil when
	// no duplicate exists.
	FindDuplicateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, ownerID, txID string, updates map[string]any) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, ownerID, txID string) error
}

// CategoryStore defines data operations for spending categories.
type CategoryStore interface {
	ListCategories(ctx context.Context, ownerID string) ([]domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, ownerID, categoryID string) error
}

// DebtStore defines data operations for debts and their payments.
type DebtStore interface {
	ListDebts(ctx context.Context, ownerID string) ([]domain.Debt, error)
	GetDebt(ctx context.Context, ownerID, debtID string) (*domain.Debt, error)
	CreateDebt(ctx context.Context, debt *domain.Debt) (*domain.Debt, error)
	DeleteDebt(ctx context.Context, ownerID, debtID string) error

	// UpdateDebtSettlement persists the recomputed remaining amount and
	// the derived status after a payment is applied or reversed.
	UpdateDebtSettlement(ctx context.Context, ownerID, debtID string, remaining decimal.Decimal, status domain.DebtStatus) error

	ListDebtPayments(ctx context.Context, ownerID, debtID string) ([]domain.DebtPayment, error)
	GetDebtPayment(ctx context.Context, ownerID, debtID, paymentID string) (*domain.DebtPayment, error)
	InsertDebtPayment(ctx context.Context, ownerID string, payment *domain.DebtPayment) (*domain.DebtPayment, error)
	DeleteDebtPayment(ctx context.Context, ownerID, debtID, paymentID string) error
}

// LedgerStore is the full persistence surface. Implemented by the
// Supabase adapter (or any other persistence layer).
type LedgerStore interface {
	AccountStore
	TransactionStore
	CategoryStore
	DebtStore
}
