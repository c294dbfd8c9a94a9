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
// Debts Handlers
// ============================================================

func listDebtsHandler(svc *service.DebtsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/debts")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		debts, err := svc.ListDebts(ctx, ownerID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, debts)
	}
}

func getDebtHandler(svc *service.DebtsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/debts/{debtID}")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		debtID := chi.URLParam(r, "debtID")
		debt, err := svc.GetDebt(ctx, ownerID, debtID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, debt)
	}
}

func createDebtHandler(svc *service.DebtsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/debts")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		var req domain.CreateDebtRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		debt, err := svc.CreateDebt(ctx, ownerID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, debt)
	}
}

func deleteDebtHandler(svc *service.DebtsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/debts/{debtID}")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		debtID := chi.URLParam(r, "debtID")
		if err := svc.DeleteDebt(ctx, ownerID, debtID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "debt deleted", ID: debtID})
	}
}

func listDebtPaymentsHandler(svc *service.DebtsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/debts/{debtID}/payments")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		debtID := chi.URLParam(r, "debtID")
		payments, err := svc.ListPayments(ctx, ownerID, debtID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, payments)
	}
}

func createDebtPaymentHandler(svc *service.DebtsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/debts/{debtID}/payments")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		debtID := chi.URLParam(r, "debtID")
		var req domain.CreateDebtPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		payment, err := svc.CreatePayment(ctx, ownerID, debtID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, payment)
	}
}

func deleteDebtPaymentHandler(svc *service.DebtsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/debts/{debtID}/payments/{paymentID}")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		debtID := chi.URLParam(r, "debtID")
		paymentID := chi.URLParam(r, "paymentID")
		if err := svc.DeletePayment(ctx, ownerID, debtID, paymentID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "payment deleted", ID: paymentID})
	}
}
