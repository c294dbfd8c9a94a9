package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
)

// ============================================================
// Transactions CRUD + duplicate lookup via PostgREST
// ============================================================

// transactionRow maps the transactions table columns.
type transactionRow struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	AccountID   string          `json:"account_id"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (r transactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		AccountID:   r.AccountID,
		Type:        domain.TransactionType(r.Type),
		Category:    r.Category,
		Description: r.Description,
		Amount:      r.Amount,
		Date:        r.Date,
		CreatedAt:   r.CreatedAt,
	}
}

// buildTransactionQuery translates a filter into PostgREST query params.
func buildTransactionQuery(ownerID string, f domain.TransactionFilter) string {
	var sb strings.Builder
	sb.WriteString("transactions?owner_id=eq.")
	sb.WriteString(ownerID)
	if f.From != "" {
		sb.WriteString("&date=gte.")
		sb.WriteString(f.From)
	}
	if f.To != "" {
		sb.WriteString("&date=lte.")
		sb.WriteString(f.To)
	}
	if f.Type != "" {
		sb.WriteString("&type=eq.")
		sb.WriteString(f.Type)
	}
	if f.Category != "" {
		sb.WriteString("&category=eq.")
		sb.WriteString(url.QueryEscape(f.Category))
	}
	if f.Text != "" {
		sb.WriteString("&description=ilike.")
		sb.WriteString(url.QueryEscape("*" + f.Text + "*"))
	}
	sb.WriteString("&order=date.desc,created_at.desc")
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		fmt.Fprintf(&sb, "&limit=%d&offset=%d", f.PageSize, (page-1)*f.PageSize)
	}
	return sb.String()
}

func (c *Client) ListTransactions(ctx context.Context, ownerID string, filter domain.TransactionFilter) (*domain.TransactionList, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()

	var list *domain.TransactionList
	err := c.execute(ctx, func() error {
		body, total, err := c.doList(ctx, buildTransactionQuery(ownerID, filter))
		if err != nil {
			return err
		}

		var rows []transactionRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode transactions: %w", err)
		}
		items := make([]domain.Transaction, 0, len(rows))
		for _, r := range rows {
			items = append(items, r.toDomain())
		}
		if total < 0 {
			total = len(items)
		}
		list = &domain.TransactionList{Items: items, Total: total}
		return nil
	})
	return list, c.storeErr("transactions.list", err)
}

func (c *Client) GetTransaction(ctx context.Context, ownerID, txID string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	var tx *domain.Transaction
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("transactions?owner_id=eq.%s&id=eq.%s&limit=1", ownerID, txID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}

		var rows []transactionRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode transaction: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "transaction", ID: txID}
		}
		t := rows[0].toDomain()
		tx = &t
		return nil
	})
	return tx, c.storeErr("transactions.get", err)
}

// FindDuplicateTransaction looks for an existing row with the same owner,
// amount, description, category and date. This is the fast-path check;
// the unique index on those columns is the authority under races.
func (c *Client) FindDuplicateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindDuplicateTransaction")
	defer span.End()

	var found *domain.Transaction
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("transactions?owner_id=eq.%s&amount=eq.%s&description=eq.%s&category=eq.%s&date=eq.%s&limit=1",
			tx.OwnerID,
			tx.Amount.String(),
			url.QueryEscape(tx.Description),
			url.QueryEscape(tx.Category),
			tx.Date,
		)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}

		var rows []transactionRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode duplicate lookup: %w", err)
		}
		if len(rows) > 0 {
			t := rows[0].toDomain()
			found = &t
		}
		return nil
	})
	return found, c.storeErr("transactions.find_duplicate", err)
}

func (c *Client) InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertTransaction")
	defer span.End()

	var created *domain.Transaction
	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "transactions", map[string]any{
			"id":          tx.ID,
			"owner_id":    tx.OwnerID,
			"account_id":  nullable(tx.AccountID),
			"type":        string(tx.Type),
			"category":    tx.Category,
			"description": tx.Description,
			"amount":      tx.Amount.String(),
			"date":        tx.Date,
		})
		if err != nil {
			if isUniqueViolation(err) {
				return &domain.ErrDuplicate{Resource: "transaction", Key: tx.Description}
			}
			return err
		}

		var rows []transactionRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode created transaction: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no rows")
		}
		t := rows[0].toDomain()
		created = &t
		return nil
	})
	return created, c.storeErr("transactions.insert", err)
}

func (c *Client) UpdateTransaction(ctx context.Context, ownerID, txID string, updates map[string]any) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	err := c.execute(ctx, func() error {
		return c.doPatch(ctx, fmt.Sprintf("transactions?owner_id=eq.%s&id=eq.%s", ownerID, txID), updates)
	})
	if err != nil {
		return nil, c.storeErr("transactions.update", err)
	}
	return c.GetTransaction(ctx, ownerID, txID)
}

func (c *Client) DeleteTransaction(ctx context.Context, ownerID, txID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransaction")
	defer span.End()

	err := c.execute(ctx, func() error {
		return c.doDelete(ctx, fmt.Sprintf("transactions?owner_id=eq.%s&id=eq.%s", ownerID, txID))
	})
	return c.storeErr("transactions.delete", err)
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
