package handler

import (
	"encoding/json"
	"net/http"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
	"github.com/taufikraden29/moneymoo-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Categories Handlers
// ============================================================

func listCategoriesHandler(svc *service.CategoriesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/categories")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		categories, err := svc.List(ctx, ownerID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, categories)
	}
}

func createCategoryHandler(svc *service.CategoriesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/categories")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		var req domain.CreateCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		category, err := svc.Create(ctx, ownerID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, category)
	}
}

func deleteCategoryHandler(svc *service.CategoriesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/categories/{categoryID}")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		categoryID := chi.URLParam(r, "categoryID")
		if err := svc.Delete(ctx, ownerID, categoryID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "category deleted", ID: categoryID})
	}
}
