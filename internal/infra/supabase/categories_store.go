package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
)

// ============================================================
// Categories CRUD via PostgREST
// ============================================================

// categoryRow maps the categories table columns.
type categoryRow struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
}

func (r categoryRow) toDomain() domain.Category {
	return domain.Category{
		ID:      r.ID,
		OwnerID: r.OwnerID,
		Name:    r.Name,
		Type:    domain.TransactionType(r.Type),
	}
}

func (c *Client) ListCategories(ctx context.Context, ownerID string) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCategories")
	defer span.End()

	var categories []domain.Category
	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("categories?owner_id=eq.%s&order=name.asc", ownerID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}

		var rows []categoryRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode categories: %w", err)
		}
		categories = make([]domain.Category, 0, len(rows))
		for _, r := range rows {
			categories = append(categories, r.toDomain())
		}
		return nil
	})
	return categories, c.storeErr("categories.list", err)
}

func (c *Client) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCategory")
	defer span.End()

	var created *domain.Category
	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "categories", map[string]any{
			"id":       category.ID,
			"owner_id": category.OwnerID,
			"name":     category.Name,
			"type":     string(category.Type),
		})
		if err != nil {
			if isUniqueViolation(err) {
				return &domain.ErrDuplicate{Resource: "category", Key: category.Name}
			}
			return err
		}

		var rows []categoryRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("decode created category: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no rows")
		}
		cat := rows[0].toDomain()
		created = &cat
		return nil
	})
	return created, c.storeErr("categories.create", err)
}

func (c *Client) DeleteCategory(ctx context.Context, ownerID, categoryID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCategory")
	defer span.End()

	err := c.execute(ctx, func() error {
		return c.doDelete(ctx, fmt.Sprintf("categories?owner_id=eq.%s&id=eq.%s", ownerID, categoryID))
	})
	return c.storeErr("categories.delete", err)
}
