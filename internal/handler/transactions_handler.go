package handler

import (
	"encoding/json"
	"net/http"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
	"github.com/taufikraden29/moneymoo-api/internal/money"
	"github.com/taufikraden29/moneymoo-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Transactions Handlers
// ============================================================

func listTransactionsHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		page, pageSize := parsePagination(r)
		q := r.URL.Query()
		filter := domain.TransactionFilter{
			From:     q.Get("from"),
			To:       q.Get("to"),
			Type:     q.Get("type"),
			Category: q.Get("category"),
			Text:     q.Get("q"),
			Page:     page,
			PageSize: pageSize,
		}
		list, err := svc.List(ctx, ownerID, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Transaction]{
			Data:     list.Items,
			Total:    list.Total,
			Page:     page,
			PageSize: pageSize,
			HasMore:  page*pageSize < list.Total,
		})
	}
}

func getTransactionHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/{txID}")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		txID := chi.URLParam(r, "txID")
		tx, err := svc.Get(ctx, ownerID, txID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func createTransactionHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		var req domain.CreateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tx, err := svc.Create(ctx, ownerID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func updateTransactionHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/transactions/{txID}")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		txID := chi.URLParam(r, "txID")
		var req domain.UpdateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tx, err := svc.Update(ctx, ownerID, txID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func deleteTransactionHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transactions/{txID}")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		txID := chi.URLParam(r, "txID")
		if err := svc.Delete(ctx, ownerID, txID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// summaryDisplay adds formatted totals for the frontend.
type summaryDisplay struct {
	domain.FinancialSummary
	FormattedIncome  string `json:"total_income_display"`
	FormattedExpense string `json:"total_expense_display"`
	FormattedBalance string `json:"balance_display"`
}

func transactionSummaryHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/summary")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		q := r.URL.Query()
		summary, err := svc.Summary(ctx, ownerID, q.Get("from"), q.Get("to"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summaryDisplay{
			FinancialSummary: *summary,
			FormattedIncome:  money.FormatDefault(summary.TotalIncome),
			FormattedExpense: money.FormatDefault(summary.TotalExpense),
			FormattedBalance: money.FormatDefault(summary.Balance),
		})
	}
}
