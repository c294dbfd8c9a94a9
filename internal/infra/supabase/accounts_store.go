package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
)

// ============================================================
// Accounts CRUD + balance adjustment via PostgREST
// ============================================================

// accountRow maps the accounts table columns.
type accountRow struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

func (r accountRow) toDomain() domain.Account {
	return domain.Account{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Type:      domain.AccountType(r.Type),
		Balance:   r.Balance,
		CreatedAt: r.CreatedAt,
	}
}

func (c *Client) ListAccounts(ctx context.Context, ownerID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAccounts")
	defer span.End()

	var accounts []domain.Account
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("accounts?owner_id=eq.%s&order=created_at.asc", ownerID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}

		var rows []accountRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode accounts: %w", err)
		}
		accounts = make([]domain.Account, 0, len(rows))
		for _, r := range rows {
			accounts = append(accounts, r.toDomain())
		}
		return nil
	})
	return accounts, c.storeErr("accounts.list", err)
}

func (c *Client) GetAccount(ctx context.Context, ownerID, accountID string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	var account *domain.Account
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("accounts?owner_id=eq.%s&id=eq.%s&limit=1", ownerID, accountID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}

		var rows []accountRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode account: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "account", ID: accountID}
		}
		a := rows[0].toDomain()
		account = &a
		return nil
	})
	return account, c.storeErr("accounts.get", err)
}

func (c *Client) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateAccount")
	defer span.End()

	var created *domain.Account
	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "accounts", map[string]any{
			"id":       account.ID,
			"owner_id": account.OwnerID,
			"name":     account.Name,
			"type":     string(account.Type),
			"balance":  account.Balance.String(),
		})
		if err != nil {
			return err
		}

		var rows []accountRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode created account: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no rows")
		}
		a := rows[0].toDomain()
		created = &a
		return nil
	})
	return created, c.storeErr("accounts.create", err)
}

func (c *Client) DeleteAccount(ctx context.Context, ownerID, accountID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteAccount")
	defer span.End()

	err := c.execute(ctx, func() error {
		return c.doDelete(ctx, fmt.Sprintf("accounts?owner_id=eq.%s&id=eq.%s", ownerID, accountID))
	})
	return c.storeErr("accounts.delete", err)
}

// AdjustAccountBalance applies a signed delta to the stored balance.
// Read-modify-write: PostgREST has no atomic increment, so two
// concurrent adjustments to the same account can lose one delta. A
// single owner drives writes through the API, which keeps the window
// acceptably small; a stored procedure would close it.
func (c *Client) AdjustAccountBalance(ctx context.Context, ownerID, accountID string, delta decimal.Decimal) error {
	ctx, span := tracer.Start(ctx, "Supabase.AdjustAccountBalance")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	acct, err := c.GetAccount(ctx, ownerID, accountID)
	if err != nil {
		return err
	}

	newBalance := acct.Balance.Add(delta)
	err = c.execute(ctx, func() error {
		return c.doPatch(ctx, fmt.Sprintf("accounts?owner_id=eq.%s&id=eq.%s", ownerID, accountID), map[string]any{
			"balance": newBalance.String(),
		})
	})
	if err != nil {
		return c.storeErr("accounts.adjust_balance", err)
	}

	c.logger.Info("supabase: balance adjusted",
		zap.String("account_id", accountID),
		zap.String("delta", delta.String()),
		zap.String("new_balance", newBalance.String()),
	)
	return nil
}
