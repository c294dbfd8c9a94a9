package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
	"github.com/taufikraden29/moneymoo-api/internal/money"
	"github.com/taufikraden29/moneymoo-api/internal/port"
	"github.com/taufikraden29/moneymoo-api/internal/validate"
)

var accountTracer = otel.Tracer("service/accounts")

// AccountsService manages money accounts.
type AccountsService struct {
	store  port.AccountStore
	logger *zap.Logger
}

// NewAccountsService creates the accounts service.
func NewAccountsService(store port.AccountStore, logger *zap.Logger) *AccountsService {
	return &AccountsService{store: store, logger: logger}
}

// List returns all accounts for the owner.
func (s *AccountsService) List(ctx context.Context, ownerID string) ([]domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "AccountsService.List")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	return s.store.ListAccounts(ctx, ownerID)
}

// Get returns a single account.
func (s *AccountsService) Get(ctx context.Context, ownerID, accountID string) (*domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "AccountsService.Get")
	defer span.End()

	return s.store.GetAccount(ctx, ownerID, accountID)
}

// Create registers a new account with an optional opening balance.
func (s *AccountsService) Create(ctx context.Context, ownerID string, req *domain.CreateAccountRequest) (*domain.Account, error) {
	ctx, span := accountTracer.Start(ctx, "AccountsService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	if errs := validate.Fields([]validate.Field{
		{Name: "name", Value: req.Name, Required: true, MaxLength: 100},
		{Name: "type", Value: req.Type, Required: true, Kind: validate.OneOf, Allowed: []string{"cash", "bank", "e-wallet", "investment", "other"}},
		{Name: "balance", Value: req.Balance, Kind: validate.Amount},
	}); len(errs) > 0 {
		return nil, &domain.ErrValidation{Fields: errs}
	}

	balance := decimal.Zero
	if req.Balance != "" {
		var err error
		balance, err = money.Parse(req.Balance)
		if err != nil {
			return nil, domain.NewValidation("balance", "must be a valid amount")
		}
	}

	account := &domain.Account{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    validate.Sanitize(req.Name),
		Type:    domain.AccountType(req.Type),
		Balance: balance,
	}

	created, err := s.store.CreateAccount(ctx, account)
	if err != nil {
		s.logger.Error("failed to create account", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("owner_id", ownerID),
		zap.String("account_id", created.ID),
		zap.String("type", string(created.Type)),
	)
	return created, nil
}

// Delete removes an account. Transactions referencing it keep their
// weak reference and become unassigned on the storage side.
func (s *AccountsService) Delete(ctx context.Context, ownerID, accountID string) error {
	ctx, span := accountTracer.Start(ctx, "AccountsService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	if _, err := s.store.GetAccount(ctx, ownerID, accountID); err != nil {
		return err
	}
	return s.store.DeleteAccount(ctx, ownerID, accountID)
}
