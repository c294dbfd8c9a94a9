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
// Accounts Handlers
// ============================================================

// accountDisplay adds a formatted balance for the frontend.
type accountDisplay struct {
	domain.Account
	FormattedBalance string `json:"balance_display"`
}

func displayAccount(a domain.Account) accountDisplay {
	return accountDisplay{
		Account:          a,
		FormattedBalance: money.FormatDefault(a.Balance),
	}
}

func listAccountsHandler(svc *service.AccountsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		accounts, err := svc.List(ctx, ownerID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		result := make([]accountDisplay, len(accounts))
		for i, a := range accounts {
			result[i] = displayAccount(a)
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func getAccountHandler(svc *service.AccountsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{accountID}")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		accountID := chi.URLParam(r, "accountID")
		account, err := svc.Get(ctx, ownerID, accountID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, displayAccount(*account))
	}
}

func createAccountHandler(svc *service.AccountsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		var req domain.CreateAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		account, err := svc.Create(ctx, ownerID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, account)
	}
}

func deleteAccountHandler(svc *service.AccountsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/accounts/{accountID}")
		defer span.End()
		ownerID, _ := OwnerIDFromContext(ctx)
		accountID := chi.URLParam(r, "accountID")
		if err := svc.Delete(ctx, ownerID, accountID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "account deleted", ID: accountID})
	}
}
