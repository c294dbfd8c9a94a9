// Package service provides the business logic layer (use cases):
// transaction bookkeeping, account balance reconciliation and debt
// settlement.
package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
	"github.com/taufikraden29/moneymoo-api/internal/infra/observability"
	"github.com/taufikraden29/moneymoo-api/internal/port"
)

var reconcilerTracer = otel.Tracer("service/reconciler")

// Reconciler keeps stored account balances equal to the sum of the
// ledger entries applied against them. Every transaction or debt
// payment write goes through exactly one of its Apply methods.
type Reconciler struct {
	accounts port.AccountStore
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewReconciler creates a balance reconciler.
func NewReconciler(accounts port.AccountStore, metrics *observability.Metrics, logger *zap.Logger) *Reconciler {
	return &Reconciler{accounts: accounts, metrics: metrics, logger: logger}
}

// signedAmount is the balance effect of a transaction on its account:
// income credits, expense debits.
func signedAmount(tx *domain.Transaction) decimal.Decimal {
	if tx.Type == domain.TransactionIncome {
		return tx.Amount
	}
	return tx.Amount.Neg()
}

// paymentDelta is the balance effect of a debt payment on the paying
// account. Paying always debits the account, for receivables too: the
// ledger treats an incoming installment as money the user moves through
// the chosen account, so collection is recorded as a separate income
// transaction if wanted. Reversal is the negation.
func paymentDelta(amount decimal.Decimal) decimal.Decimal {
	return amount.Neg()
}

// ApplyCreate credits or debits the account for a newly inserted
// transaction. Transactions without an account touch no balance.
func (r *Reconciler) ApplyCreate(ctx context.Context, ownerID string, tx *domain.Transaction) error {
	if tx.AccountID == "" {
		return nil
	}
	ctx, span := reconcilerTracer.Start(ctx, "Reconciler.ApplyCreate")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", tx.AccountID))

	return r.accounts.AdjustAccountBalance(ctx, ownerID, tx.AccountID, signedAmount(tx))
}

// ApplyDelete reverses the balance effect of a removed transaction.
func (r *Reconciler) ApplyDelete(ctx context.Context, ownerID string, tx *domain.Transaction) error {
	if tx.AccountID == "" {
		return nil
	}
	ctx, span := reconcilerTracer.Start(ctx, "Reconciler.ApplyDelete")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", tx.AccountID))

	return r.accounts.AdjustAccountBalance(ctx, ownerID, tx.AccountID, signedAmount(tx).Neg())
}

// ApplyUpdate moves the balance effect from the old version of a
// transaction to the new one. Same account gets a single net adjustment;
// a changed account gets a reversal on the old and an application on the
// new, with the reversal undone if the application fails.
func (r *Reconciler) ApplyUpdate(ctx context.Context, ownerID string, oldTx, newTx *domain.Transaction) error {
	ctx, span := reconcilerTracer.Start(ctx, "Reconciler.ApplyUpdate")
	defer span.End()

	if oldTx.AccountID == newTx.AccountID {
		if newTx.AccountID == "" {
			return nil
		}
		delta := signedAmount(newTx).Sub(signedAmount(oldTx))
		if delta.IsZero() {
			return nil
		}
		return r.accounts.AdjustAccountBalance(ctx, ownerID, newTx.AccountID, delta)
	}

	if oldTx.AccountID != "" {
		if err := r.accounts.AdjustAccountBalance(ctx, ownerID, oldTx.AccountID, signedAmount(oldTx).Neg()); err != nil {
			return err
		}
	}
	if newTx.AccountID != "" {
		if err := r.accounts.AdjustAccountBalance(ctx, ownerID, newTx.AccountID, signedAmount(newTx)); err != nil {
			if oldTx.AccountID != "" {
				if compErr := r.accounts.AdjustAccountBalance(ctx, ownerID, oldTx.AccountID, signedAmount(oldTx)); compErr != nil {
					r.logger.Error("reconciler: compensation failed after account move",
						zap.String("old_account_id", oldTx.AccountID),
						zap.String("new_account_id", newTx.AccountID),
						zap.Error(compErr),
					)
					r.metrics.IncrDrift("update")
					return &domain.ErrReconciliationDrift{Op: "update", EntityID: newTx.ID, Err: compErr}
				}
			}
			return err
		}
	}
	return nil
}

// ApplyPayment debits the paying account for a debt installment.
func (r *Reconciler) ApplyPayment(ctx context.Context, ownerID, accountID string, amount decimal.Decimal) error {
	if accountID == "" {
		return nil
	}
	ctx, span := reconcilerTracer.Start(ctx, "Reconciler.ApplyPayment")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	return r.accounts.AdjustAccountBalance(ctx, ownerID, accountID, paymentDelta(amount))
}

// ReversePayment credits the paying account back when an installment is
// removed.
func (r *Reconciler) ReversePayment(ctx context.Context, ownerID, accountID string, amount decimal.Decimal) error {
	if accountID == "" {
		return nil
	}
	ctx, span := reconcilerTracer.Start(ctx, "Reconciler.ReversePayment")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	return r.accounts.AdjustAccountBalance(ctx, ownerID, accountID, paymentDelta(amount).Neg())
}
