// Package domain defines the core business entities for moneymoo.
// These models are independent of external services and represent the
// canonical data structures used throughout the API.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Accounts
// ============================================================

// AccountType enumerates the supported kinds of money accounts.
type AccountType string

const (
	AccountCash       AccountType = "cash"
	AccountBank       AccountType = "bank"
	AccountEWallet    AccountType = "e-wallet"
	AccountInvestment AccountType = "investment"
	AccountOther      AccountType = "other"
)

// ValidAccountType reports whether t is one of the known account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountCash, AccountBank, AccountEWallet, AccountInvestment, AccountOther:
		return true
	}
	return false
}

// Account represents a user's money account. Balance is derived from the
// transactions and debt payments applied against it, but stored for reads;
// keeping it equal to the recomputed value is the reconciler's job.
type Account struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// ============================================================
// Transactions
// ============================================================

// TransactionType is income or expense.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Transaction is a single income or expense record. AccountID is a weak
// reference: deleting an account leaves its transactions unassigned.
// Date is the user-editable calendar date (YYYY-MM-DD), distinct from
// CreatedAt.
type Transaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	AccountID   string          `json:"account_id,omitempty"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TransactionFilter narrows a transaction listing. Zero values mean
// "no constraint". Text matches against description, case-insensitive.
type TransactionFilter struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Type     string `json:"type,omitempty"`
	Category string `json:"category,omitempty"`
	Text     string `json:"q,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// TransactionList wraps a page of transactions with the unpaged total.
type TransactionList struct {
	Items []Transaction `json:"items"`
	Total int           `json:"total"`
}

// CreateTransactionRequest is the payload for creating a transaction.
// Amount arrives as a locale-formatted string from the presentation layer
// (e.g. "50.000" or "1,234.56") and is parsed at the service boundary.
type CreateTransactionRequest struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
	AccountID   string `json:"account_id,omitempty"`
}

// UpdateTransactionRequest patches a transaction. Nil fields are untouched;
// a non-nil empty AccountID unassigns the account.
type UpdateTransactionRequest struct {
	Date        *string `json:"date,omitempty"`
	Type        *string `json:"type,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	AccountID   *string `json:"account_id,omitempty"`
}

// FinancialSummary aggregates income and expenses over a period.
type FinancialSummary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
	Count        int             `json:"count"`
	From         string          `json:"from,omitempty"`
	To           string          `json:"to,omitempty"`
}

// ============================================================
// Categories
// ============================================================

// Category labels transactions. Transactions keep the label as free text,
// so deleting a category never cascades; orphaned labels are expected.
type Category struct {
	ID      string          `json:"id"`
	OwnerID string          `json:"owner_id"`
	Name    string          `json:"name"`
	Type    TransactionType `json:"type"`
}

// CreateCategoryRequest is the payload for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ============================================================
// Debts
// ============================================================

// DebtType distinguishes money owed by the user (debt) from money owed to
// the user (receivable).
type DebtType string

const (
	DebtOwed       DebtType = "debt"
	DebtReceivable DebtType = "receivable"
)

// DebtStatus is the settlement state machine: active until the remaining
// amount reaches zero, then paid.
type DebtStatus string

const (
	DebtActive DebtStatus = "active"
	DebtPaid   DebtStatus = "paid"
)

// Debt tracks a single debt or receivable. TotalAmount is fixed at
// creation; RemainingAmount and Status are derived from payments and
// recomputed from scratch on every settlement change.
type Debt struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"owner_id"`
	Type            DebtType        `json:"type"`
	ContactName     string          `json:"contact_name"`
	ContactPhone    string          `json:"contact_phone,omitempty"`
	Description     string          `json:"description,omitempty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	DueDate         string          `json:"due_date,omitempty"`
	Status          DebtStatus      `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DebtPayment records one installment against a debt. AccountID is a weak
// reference to the paying account.
type DebtPayment struct {
	ID          string          `json:"id"`
	DebtID      string          `json:"debt_id"`
	PaymentDate string          `json:"payment_date"`
	Amount      decimal.Decimal `json:"amount"`
	AccountID   string          `json:"account_id,omitempty"`
	Method      string          `json:"payment_method"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateDebtRequest is the payload for creating a debt or receivable.
type CreateDebtRequest struct {
	Type         string `json:"type"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Description  string `json:"description,omitempty"`
	TotalAmount  string `json:"total_amount"`
	DueDate      string `json:"due_date,omitempty"`
}

// CreateDebtPaymentRequest is the payload for paying down a debt.
type CreateDebtPaymentRequest struct {
	Amount      string `json:"amount"`
	AccountID   string `json:"account_id,omitempty"`
	PaymentDate string `json:"payment_date"`
	Method      string `json:"payment_method,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateAccountRequest is the payload for creating an account. Balance is
// the opening balance, locale-formatted like every inbound amount.
type CreateAccountRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Balance string `json:"balance,omitempty"`
}

// ============================================================
// Generic API wrappers
// ============================================================

// ListResponse wraps paginated list results.
type ListResponse[T any] struct {
	Data     []T  `json:"data"`
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasMore  bool `json:"has_more"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// ============================================================
// Health & metrics API responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// EngineMetrics is returned by GET /v1/metrics/engine.
type EngineMetrics struct {
	TotalRequests int64   `json:"totalRequests"`
	ErrorRate     float64 `json:"errorRate"`
	CacheHitRate  float64 `json:"cacheHitRate"`
	DriftTotal    int64   `json:"reconciliationDriftTotal"`
	Period        string  `json:"period"`
}
