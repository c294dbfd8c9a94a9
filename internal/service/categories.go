package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
	"github.com/taufikraden29/moneymoo-api/internal/port"
	"github.com/taufikraden29/moneymoo-api/internal/validate"
)

var categoryTracer = otel.Tracer("service/categories")

// CategoriesService manages spending categories. Transactions keep the
// category as free text, so deletions never cascade.
type CategoriesService struct {
	store  port.CategoryStore
	logger *zap.Logger
}

// NewCategoriesService creates the categories service.
func NewCategoriesService(store port.CategoryStore, logger *zap.Logger) *CategoriesService {
	return &CategoriesService{store: store, logger: logger}
}

// List returns all categories for the owner.
func (s *CategoriesService) List(ctx context.Context, ownerID string) ([]domain.Category, error) {
	ctx, span := categoryTracer.Start(ctx, "CategoriesService.List")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	return s.store.ListCategories(ctx, ownerID)
}

// Create registers a new category.
func (s *CategoriesService) Create(ctx context.Context, ownerID string, req *domain.CreateCategoryRequest) (*domain.Category, error) {
	ctx, span := categoryTracer.Start(ctx, "CategoriesService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	if errs := validate.Fields([]validate.Field{
		{Name: "name", Value: req.Name, Required: true, MaxLength: 100},
		{Name: "type", Value: req.Type, Required: true, Kind: validate.OneOf, Allowed: []string{"income", "expense"}},
	}); len(errs) > 0 {
		return nil, &domain.ErrValidation{Fields: errs}
	}

	category := &domain.Category{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    validate.Sanitize(req.Name),
		Type:    domain.TransactionType(req.Type),
	}

	created, err := s.store.CreateCategory(ctx, category)
	if err != nil {
		s.logger.Error("failed to create category", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	return created, nil
}

// Delete removes a category. Existing transactions keep their label.
func (s *CategoriesService) Delete(ctx context.Context, ownerID, categoryID string) error {
	ctx, span := categoryTracer.Start(ctx, "CategoriesService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("category.id", categoryID))

	return s.store.DeleteCategory(ctx, ownerID, categoryID)
}
