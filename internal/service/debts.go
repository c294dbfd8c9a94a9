package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
	"github.com/taufikraden29/moneymoo-api/internal/infra/observability"
	"github.com/taufikraden29/moneymoo-api/internal/money"
	"github.com/taufikraden29/moneymoo-api/internal/port"
	"github.com/taufikraden29/moneymoo-api/internal/validate"
)

var debtTracer = otel.Tracer("service/debts")

// DebtsService manages debts, receivables and their settlement state.
// RemainingAmount and Status are never incrementally patched: every
// payment change recomputes them from the full payment history.
type DebtsService struct {
	store      port.DebtStore
	accounts   port.AccountStore
	reconciler *Reconciler
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewDebtsService creates the debt settlement service.
func NewDebtsService(store port.DebtStore, accounts port.AccountStore, reconciler *Reconciler, metrics *observability.Metrics, logger *zap.Logger) *DebtsService {
	return &DebtsService{store: store, accounts: accounts, reconciler: reconciler, metrics: metrics, logger: logger}
}

// settle derives the settlement state from the debt total and its
// payment history. Remaining never goes below zero; status is paid
// exactly when nothing remains.
func settle(total decimal.Decimal, payments []domain.DebtPayment) (decimal.Decimal, domain.DebtStatus) {
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	remaining := total.Sub(paid)
	if remaining.Sign() < 0 {
		remaining = decimal.Zero
	}
	if remaining.IsZero() {
		return remaining, domain.DebtPaid
	}
	return remaining, domain.DebtActive
}

// CreateDebt registers a new debt or receivable with the full amount
// outstanding.
func (s *DebtsService) CreateDebt(ctx context.Context, ownerID string, req *domain.CreateDebtRequest) (*domain.Debt, error) {
	ctx, span := debtTracer.Start(ctx, "DebtsService.CreateDebt")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("debt_create", time.Since(start)) }()

	if errs := validate.Fields([]validate.Field{
		{Name: "type", Value: req.Type, Required: true, Kind: validate.OneOf, Allowed: []string{"debt", "receivable"}},
		{Name: "contact_name", Value: req.ContactName, Required: true, MaxLength: 100},
		{Name: "contact_phone", Value: req.ContactPhone, MaxLength: 30},
		{Name: "description", Value: req.Description, MaxLength: 500},
		{Name: "total_amount", Value: req.TotalAmount, Required: true, Kind: validate.Amount, Check: positiveAmount},
		{Name: "due_date", Value: req.DueDate, Kind: validate.Date},
	}); len(errs) > 0 {
		return nil, &domain.ErrValidation{Fields: errs}
	}

	total, err := money.Parse(req.TotalAmount)
	if err != nil {
		return nil, domain.NewValidation("total_amount", "must be a valid amount")
	}

	debt := &domain.Debt{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Type:            domain.DebtType(req.Type),
		ContactName:     validate.Sanitize(req.ContactName),
		ContactPhone:    validate.Sanitize(req.ContactPhone),
		Description:     validate.Sanitize(req.Description),
		TotalAmount:     total,
		RemainingAmount: total,
		DueDate:         req.DueDate,
		Status:          domain.DebtActive,
	}

	created, err := s.store.CreateDebt(ctx, debt)
	if err != nil {
		s.logger.Error("failed to create debt", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("debt created",
		zap.String("owner_id", ownerID),
		zap.String("debt_id", created.ID),
		zap.String("type", string(created.Type)),
		zap.String("total_amount", created.TotalAmount.String()),
	)
	return created, nil
}

// ListDebts returns all debts and receivables for the owner.
func (s *DebtsService) ListDebts(ctx context.Context, ownerID string) ([]domain.Debt, error) {
	ctx, span := debtTracer.Start(ctx, "DebtsService.ListDebts")
	defer span.End()

	return s.store.ListDebts(ctx, ownerID)
}

// GetDebt returns a single debt.
func (s *DebtsService) GetDebt(ctx context.Context, ownerID, debtID string) (*domain.Debt, error) {
	ctx, span := debtTracer.Start(ctx, "DebtsService.GetDebt")
	defer span.End()

	return s.store.GetDebt(ctx, ownerID, debtID)
}

// DeleteDebt removes a debt together with its payment history. Account
// balances are untouched: recorded payments stay part of the account's
// past.
func (s *DebtsService) DeleteDebt(ctx context.Context, ownerID, debtID string) error {
	ctx, span := debtTracer.Start(ctx, "DebtsService.DeleteDebt")
	defer span.End()
	span.SetAttributes(attribute.String("debt.id", debtID))

	if _, err := s.store.GetDebt(ctx, ownerID, debtID); err != nil {
		return err
	}
	return s.store.DeleteDebt(ctx, ownerID, debtID)
}

// ListPayments returns all installments recorded against a debt.
func (s *DebtsService) ListPayments(ctx context.Context, ownerID, debtID string) ([]domain.DebtPayment, error) {
	ctx, span := debtTracer.Start(ctx, "DebtsService.ListPayments")
	defer span.End()

	if _, err := s.store.GetDebt(ctx, ownerID, debtID); err != nil {
		return nil, err
	}
	return s.store.ListDebtPayments(ctx, ownerID, debtID)
}

// CreatePayment applies an installment against a debt: validate, insert
// the payment, recompute the settlement state from the full history, and
// debit the paying account. Each downstream failure unwinds the steps
// before it; a failed unwind is recorded as drift.
func (s *DebtsService) CreatePayment(ctx context.Context, ownerID, debtID string, req *domain.CreateDebtPaymentRequest) (*domain.DebtPayment, error) {
	ctx, span := debtTracer.Start(ctx, "DebtsService.CreatePayment")
	defer span.End()
	span.SetAttributes(attribute.String("debt.id", debtID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("debt_payment_create", time.Since(start)) }()

	debt, err := s.store.GetDebt(ctx, ownerID, debtID)
	if err != nil {
		return nil, err
	}

	if errs := validate.Fields([]validate.Field{
		{Name: "amount", Value: req.Amount, Required: true, Kind: validate.Amount, Check: positiveAmount},
		{Name: "payment_date", Value: req.PaymentDate, Required: true, Kind: validate.Date},
		{Name: "payment_method", Value: req.Method, MaxLength: 50},
		{Name: "description", Value: req.Description, MaxLength: 500},
	}); len(errs) > 0 {
		return nil, &domain.ErrValidation{Fields: errs}
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		return nil, domain.NewValidation("amount", "must be a valid amount")
	}

	// Overpaying is rejected outright rather than clamped.
	if amount.GreaterThan(debt.RemainingAmount) {
		return nil, &domain.ErrInsufficientDebtBalance{
			DebtID:    debtID,
			Remaining: debt.RemainingAmount,
			Requested: amount,
		}
	}

	if req.AccountID != "" {
		if _, err := s.accounts.GetAccount(ctx, ownerID, req.AccountID); err != nil {
			return nil, err
		}
	}

	payment := &domain.DebtPayment{
		ID:          uuid.NewString(),
		DebtID:      debtID,
		PaymentDate: req.PaymentDate,
		Amount:      amount,
		AccountID:   req.AccountID,
		Method:      validate.Sanitize(req.Method),
		Description: validate.Sanitize(req.Description),
	}

	created, err := s.store.InsertDebtPayment(ctx, ownerID, payment)
	if err != nil {
		s.logger.Error("failed to insert debt payment", zap.String("debt_id", debtID), zap.Error(err))
		return nil, err
	}

	if err := s.resettle(ctx, ownerID, debt); err != nil {
		s.logger.Error("settlement update failed, removing payment",
			zap.String("payment_id", created.ID),
			zap.Error(err),
		)
		if delErr := s.store.DeleteDebtPayment(ctx, ownerID, debtID, created.ID); delErr != nil {
			s.metrics.IncrDrift("payment")
			s.logger.Error("compensation failed, debt has drifted",
				zap.String("payment_id", created.ID),
				zap.Error(delErr),
			)
			return nil, &domain.ErrReconciliationDrift{Op: "payment", EntityID: created.ID, Err: delErr}
		}
		return nil, err
	}

	if err := s.reconciler.ApplyPayment(ctx, ownerID, created.AccountID, created.Amount); err != nil {
		s.logger.Error("account debit failed, unwinding payment",
			zap.String("payment_id", created.ID),
			zap.Error(err),
		)
		if compErr := s.unwindPayment(ctx, ownerID, debt, created.ID); compErr != nil {
			s.metrics.IncrDrift("payment")
			s.logger.Error("compensation failed, debt has drifted",
				zap.String("payment_id", created.ID),
				zap.Error(compErr),
			)
			return nil, &domain.ErrReconciliationDrift{Op: "payment", EntityID: created.ID, Err: compErr}
		}
		return nil, err
	}

	s.logger.Info("debt payment applied",
		zap.String("owner_id", ownerID),
		zap.String("debt_id", debtID),
		zap.String("payment_id", created.ID),
		zap.String("amount", created.Amount.String()),
	)
	return created, nil
}

// DeletePayment reverses an installment completely: the payment row is
// removed, the settlement state is recomputed (a paid debt may reopen),
// and the paying account is credited back.
func (s *DebtsService) DeletePayment(ctx context.Context, ownerID, debtID, paymentID string) error {
	ctx, span := debtTracer.Start(ctx, "DebtsService.DeletePayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("debt_payment_delete", time.Since(start)) }()

	debt, err := s.store.GetDebt(ctx, ownerID, debtID)
	if err != nil {
		return err
	}
	payment, err := s.store.GetDebtPayment(ctx, ownerID, debtID, paymentID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteDebtPayment(ctx, ownerID, debtID, paymentID); err != nil {
		s.logger.Error("failed to delete debt payment", zap.String("payment_id", paymentID), zap.Error(err))
		return err
	}

	if err := s.resettle(ctx, ownerID, debt); err != nil {
		s.logger.Error("settlement update failed, re-inserting payment",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		if _, insErr := s.store.InsertDebtPayment(ctx, ownerID, payment); insErr != nil {
			s.metrics.IncrDrift("payment")
			return &domain.ErrReconciliationDrift{Op: "payment", EntityID: paymentID, Err: insErr}
		}
		return err
	}

	if err := s.reconciler.ReversePayment(ctx, ownerID, payment.AccountID, payment.Amount); err != nil {
		s.logger.Error("account credit failed, re-applying payment",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		if _, insErr := s.store.InsertDebtPayment(ctx, ownerID, payment); insErr != nil {
			s.metrics.IncrDrift("payment")
			return &domain.ErrReconciliationDrift{Op: "payment", EntityID: paymentID, Err: insErr}
		}
		if settleErr := s.resettle(ctx, ownerID, debt); settleErr != nil {
			s.metrics.IncrDrift("payment")
			return &domain.ErrReconciliationDrift{Op: "payment", EntityID: paymentID, Err: settleErr}
		}
		return err
	}

	s.logger.Info("debt payment reversed",
		zap.String("owner_id", ownerID),
		zap.String("debt_id", debtID),
		zap.String("payment_id", paymentID),
	)
	return nil
}

// resettle recomputes and persists the settlement state from the current
// payment history.
func (s *DebtsService) resettle(ctx context.Context, ownerID string, debt *domain.Debt) error {
	payments, err := s.store.ListDebtPayments(ctx, ownerID, debt.ID)
	if err != nil {
		return err
	}
	remaining, status := settle(debt.TotalAmount, payments)
	return s.store.UpdateDebtSettlement(ctx, ownerID, debt.ID, remaining, status)
}

// unwindPayment removes a just-inserted payment and restores the
// settlement state that held without it.
func (s *DebtsService) unwindPayment(ctx context.Context, ownerID string, debt *domain.Debt, paymentID string) error {
	if err := s.store.DeleteDebtPayment(ctx, ownerID, debt.ID, paymentID); err != nil {
		return err
	}
	return s.resettle(ctx, ownerID, debt)
}
