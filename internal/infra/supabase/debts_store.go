package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
)

// ============================================================
// Debts & debt payments CRUD via PostgREST
// ============================================================

// debtRow maps the debts table columns.
type debtRow struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"owner_id"`
	Type            string          `json:"type"`
	ContactName     string          `json:"contact_name"`
	ContactPhone    string          `json:"contact_phone"`
	Description     string          `json:"description"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	DueDate         string          `json:"due_date"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (r debtRow) toDomain() domain.Debt {
	return domain.Debt{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		Type:            domain.DebtType(r.Type),
		ContactName:     r.ContactName,
		ContactPhone:    r.ContactPhone,
		Description:     r.Description,
		TotalAmount:     r.TotalAmount,
		RemainingAmount: r.RemainingAmount,
		DueDate:         r.DueDate,
		Status:          domain.DebtStatus(r.Status),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// debtPaymentRow maps the debt_payments table columns.
type debtPaymentRow struct {
	ID          string          `json:"id"`
	DebtID      string          `json:"debt_id"`
	OwnerID     string          `json:"owner_id"`
	PaymentDate string          `json:"payment_date"`
	Amount      decimal.Decimal `json:"amount"`
	AccountID   string          `json:"account_id"`
	Method      string          `json:"payment_method"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (r debtPaymentRow) toDomain() domain.DebtPayment {
	return domain.DebtPayment{
		ID:          r.ID,
		DebtID:      r.DebtID,
		PaymentDate: r.PaymentDate,
		Amount:      r.Amount,
		AccountID:   r.AccountID,
		Method:      r.Method,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

func (c *Client) ListDebts(ctx context.Context, ownerID string) ([]domain.Debt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDebts")
	defer span.End()

	var debts []domain.Debt
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("debts?owner_id=eq.%s&order=created_at.desc", ownerID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}

		var rows []debtRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode debts: %w", err)
		}
		debts = make([]domain.Debt, 0, len(rows))
		for _, r := range rows {
			debts = append(debts, r.toDomain())
		}
		return nil
	})
	return debts, c.storeErr("debts.list", err)
}

func (c *Client) GetDebt(ctx context.Context, ownerID, debtID string) (*domain.Debt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetDebt")
	defer span.End()
	span.SetAttributes(attribute.String("debt.id", debtID))

	var debt *domain.Debt
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("debts?owner_id=eq.%s&id=eq.%s&limit=1", ownerID, debtID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}

		var rows []debtRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode debt: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "debt", ID: debtID}
		}
		d := rows[0].toDomain()
		debt = &d
		return nil
	})
	return debt, c.storeErr("debts.get", err)
}

func (c *Client) CreateDebt(ctx context.Context, debt *domain.Debt) (*domain.Debt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateDebt")
	defer span.End()

	var created *domain.Debt
	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "debts", map[string]any{
			"id":               debt.ID,
			"owner_id":         debt.OwnerID,
			"type":             string(debt.Type),
			"contact_name":     debt.ContactName,
			"contact_phone":    debt.ContactPhone,
			"description":      debt.Description,
			"total_amount":     debt.TotalAmount.String(),
			"remaining_amount": debt.RemainingAmount.String(),
			"due_date":         nullable(debt.DueDate),
			"status":           string(debt.Status),
		})
		if err != nil {
			return err
		}

		var rows []debtRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode created debt: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no rows")
		}
		d := rows[0].toDomain()
		created = &d
		return nil
	})
	return created, c.storeErr("debts.create", err)
}

func (c *Client) DeleteDebt(ctx context.Context, ownerID, debtID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteDebt")
	defer span.End()

	err := c.execute(ctx, func() error {
		return c.doDelete(ctx, fmt.Sprintf("debts?owner_id=eq.%s&id=eq.%s", ownerID, debtID))
	})
	return c.storeErr("debts.delete", err)
}

// UpdateDebtSettlement persists a recomputed remaining amount and status.
func (c *Client) UpdateDebtSettlement(ctx context.Context, ownerID, debtID string, remaining decimal.Decimal, status domain.DebtStatus) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateDebtSettlement")
	defer span.End()
	span.SetAttributes(attribute.String("debt.id", debtID))

	err := c.execute(ctx, func() error {
		return c.doPatch(ctx, fmt.Sprintf("debts?owner_id=eq.%s&id=eq.%s", ownerID, debtID), map[string]any{
			"remaining_amount": remaining.String(),
			"status":           string(status),
			"updated_at":       time.Now().UTC().Format(time.RFC3339),
		})
	})
	return c.storeErr("debts.update_settlement", err)
}

func (c *Client) ListDebtPayments(ctx context.Context, ownerID, debtID string) ([]domain.DebtPayment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDebtPayments")
	defer span.End()

	var payments []domain.DebtPayment
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("debt_payments?owner_id=eq.%s&debt_id=eq.%s&order=payment_date.desc,created_at.desc", ownerID, debtID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}

		var rows []debtPaymentRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode debt payments: %w", err)
		}
		payments = make([]domain.DebtPayment, 0, len(rows))
		for _, r := range rows {
			payments = append(payments, r.toDomain())
		}
		return nil
	})
	return payments, c.storeErr("debt_payments.list", err)
}

func (c *Client) GetDebtPayment(ctx context.Context, ownerID, debtID, paymentID string) (*domain.DebtPayment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetDebtPayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	var payment *domain.DebtPayment
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("debt_payments?owner_id=eq.%s&debt_id=eq.%s&id=eq.%s&limit=1", ownerID, debtID, paymentID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}

		var rows []debtPaymentRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode debt payment: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "debt payment", ID: paymentID}
		}
		p := rows[0].toDomain()
		payment = &p
		return nil
	})
	return payment, c.storeErr("debt_payments.get", err)
}

func (c *Client) InsertDebtPayment(ctx context.Context, ownerID string, payment *domain.DebtPayment) (*domain.DebtPayment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertDebtPayment")
	defer span.End()
	span.SetAttributes(attribute.String("debt.id", payment.DebtID))

	var created *domain.DebtPayment
	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "debt_payments", map[string]any{
			"id":             payment.ID,
			"debt_id":        payment.DebtID,
			"owner_id":       ownerID,
			"payment_date":   payment.PaymentDate,
			"amount":         payment.Amount.String(),
			"account_id":     nullable(payment.AccountID),
			"payment_method": payment.Method,
			"description":    payment.Description,
		})
		if err != nil {
			return err
		}

		var rows []debtPaymentRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode created debt payment: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no rows")
		}
		p := rows[0].toDomain()
		created = &p
		return nil
	})
	return created, c.storeErr("debt_payments.insert", err)
}

func (c *Client) DeleteDebtPayment(ctx context.Context, ownerID, debtID, paymentID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteDebtPayment")
	defer span.End()

	err := c.execute(ctx, func() error {
		return c.doDelete(ctx, fmt.Sprintf("debt_payments?owner_id=eq.%s&debt_id=eq.%s&id=eq.%s", ownerID, debtID, paymentID))
	})
	return c.storeErr("debt_payments.delete", err)
}
