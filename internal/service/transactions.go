package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
	"github.com/taufikraden29/moneymoo-api/internal/infra/observability"
	"github.com/taufikraden29/moneymoo-api/internal/money"
	"github.com/taufikraden29/moneymoo-api/internal/port"
	"github.com/taufikraden29/moneymoo-api/internal/validate"
)

var txTracer = otel.Tracer("service/transactions")

// TransactionsService handles the transaction ledger: validated writes,
// balance reconciliation, cached reads and the financial summary.
type TransactionsService struct {
	store      port.TransactionStore
	accounts   port.AccountStore
	reconciler *Reconciler

	listCache    port.Cache[*domain.TransactionList]
	summaryCache port.Cache[*domain.FinancialSummary]
	listTTL      time.Duration
	summaryTTL   time.Duration
	group        singleflight.Group

	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewTransactionsService creates the transaction service.
func NewTransactionsService(
	store port.TransactionStore,
	accounts port.AccountStore,
	reconciler *Reconciler,
	listCache port.Cache[*domain.TransactionList],
	summaryCache port.Cache[*domain.FinancialSummary],
	listTTL, summaryTTL time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *TransactionsService {
	return &TransactionsService{
		store:        store,
		accounts:     accounts,
		reconciler:   reconciler,
		listCache:    listCache,
		summaryCache: summaryCache,
		listTTL:      listTTL,
		summaryTTL:   summaryTTL,
		metrics:      metrics,
		logger:       logger,
	}
}

func listCacheKey(ownerID string, f domain.TransactionFilter) string {
	return fmt.Sprintf("transactions:%s:%d:%d:%s:%s:%s:%s:%s",
		ownerID, f.Page, f.PageSize, f.From, f.To, f.Type, f.Category, f.Text)
}

func summaryCacheKey(ownerID, from, to string) string {
	return fmt.Sprintf("summary:%s:%s:%s", ownerID, from, to)
}

// invalidateOwner drops every cached list and summary for the owner.
// Coarse by design: one write invalidates all cached variants at once.
func (s *TransactionsService) invalidateOwner(ownerID string) {
	s.listCache.InvalidatePrefix("transactions:" + ownerID)
	s.summaryCache.InvalidatePrefix("summary:" + ownerID)
}

func positiveAmount(v string) string {
	d, err := money.Parse(v)
	if err != nil || !d.IsPositive() {
		return "must be a positive amount"
	}
	return ""
}

// Create validates, deduplicates and inserts a transaction, then brings
// the account balance in line. The inserted row is removed again if the
// balance adjustment fails; a failed removal is recorded as drift.
func (s *TransactionsService) Create(ctx context.Context, ownerID string, req *domain.CreateTransactionRequest) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("transaction_create", time.Since(start)) }()

	if errs := validate.Fields([]validate.Field{
		{Name: "date", Value: req.Date, Required: true, Kind: validate.Date},
		{Name: "type", Value: req.Type, Required: true, Kind: validate.OneOf, Allowed: []string{"income", "expense"}},
		{Name: "category", Value: req.Category, Required: true, MaxLength: 100},
		{Name: "description", Value: req.Description, MaxLength: 500},
		{Name: "amount", Value: req.Amount, Required: true, Kind: validate.Amount, Check: positiveAmount},
	}); len(errs) > 0 {
		return nil, &domain.ErrValidation{Fields: errs}
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		return nil, domain.NewValidation("amount", "must be a valid amount")
	}

	if req.AccountID != "" {
		if _, err := s.accounts.GetAccount(ctx, ownerID, req.AccountID); err != nil {
			return nil, err
		}
	}

	tx := &domain.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		AccountID:   req.AccountID,
		Type:        domain.TransactionType(req.Type),
		Category:    validate.Sanitize(req.Category),
		Description: validate.Sanitize(req.Description),
		Amount:      amount,
		Date:        req.Date,
	}

	// Fast-path duplicate check; the storage unique index is the
	// authority when two identical creates race past it.
	if dup, err := s.store.FindDuplicateTransaction(ctx, tx); err != nil {
		return nil, err
	} else if dup != nil {
		return nil, &domain.ErrDuplicate{Resource: "transaction", Key: tx.Description}
	}

	created, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		s.logger.Error("failed to insert transaction", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	if err := s.reconciler.ApplyCreate(ctx, ownerID, created); err != nil {
		s.logger.Error("balance adjustment failed, removing inserted transaction",
			zap.String("transaction_id", created.ID),
			zap.Error(err),
		)
		if delErr := s.store.DeleteTransaction(ctx, ownerID, created.ID); delErr != nil {
			s.metrics.IncrDrift("create")
			s.logger.Error("compensation failed, ledger has drifted",
				zap.String("transaction_id", created.ID),
				zap.Error(delErr),
			)
			return nil, &domain.ErrReconciliationDrift{Op: "create", EntityID: created.ID, Err: delErr}
		}
		return nil, err
	}

	s.invalidateOwner(ownerID)
	s.logger.Info("transaction created",
		zap.String("owner_id", ownerID),
		zap.String("transaction_id", created.ID),
		zap.String("type", string(created.Type)),
		zap.String("amount", created.Amount.String()),
	)
	return created, nil
}

// Update patches a transaction and re-reconciles affected balances. The
// old row is restored if reconciliation fails.
func (s *TransactionsService) Update(ctx context.Context, ownerID, txID string, req *domain.UpdateTransactionRequest) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("transaction_update", time.Since(start)) }()

	oldTx, err := s.store.GetTransaction(ctx, ownerID, txID)
	if err != nil {
		return nil, err
	}

	var fields []validate.Field
	if req.Date != nil {
		fields = append(fields, validate.Field{Name: "date", Value: *req.Date, Required: true, Kind: validate.Date})
	}
	if req.Type != nil {
		fields = append(fields, validate.Field{Name: "type", Value: *req.Type, Required: true, Kind: validate.OneOf, Allowed: []string{"income", "expense"}})
	}
	if req.Category != nil {
		fields = append(fields, validate.Field{Name: "category", Value: *req.Category, Required: true, MaxLength: 100})
	}
	if req.Description != nil {
		fields = append(fields, validate.Field{Name: "description", Value: *req.Description, MaxLength: 500})
	}
	if req.Amount != nil {
		fields = append(fields, validate.Field{Name: "amount", Value: *req.Amount, Required: true, Kind: validate.Amount, Check: positiveAmount})
	}
	if errs := validate.Fields(fields); len(errs) > 0 {
		return nil, &domain.ErrValidation{Fields: errs}
	}

	updates := map[string]any{}
	if req.Date != nil {
		updates["date"] = *req.Date
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.Category != nil {
		updates["category"] = validate.Sanitize(*req.Category)
	}
	if req.Description != nil {
		updates["description"] = validate.Sanitize(*req.Description)
	}
	if req.Amount != nil {
		amount, err := money.Parse(*req.Amount)
		if err != nil {
			return nil, domain.NewValidation("amount", "must be a valid amount")
		}
		updates["amount"] = amount.String()
	}
	if req.AccountID != nil {
		if *req.AccountID != "" {
			if _, err := s.accounts.GetAccount(ctx, ownerID, *req.AccountID); err != nil {
				return nil, err
			}
			updates["account_id"] = *req.AccountID
		} else {
			updates["account_id"] = nil
		}
	}
	if len(updates) == 0 {
		return oldTx, nil
	}

	newTx, err := s.store.UpdateTransaction(ctx, ownerID, txID, updates)
	if err != nil {
		s.logger.Error("failed to update transaction", zap.String("transaction_id", txID), zap.Error(err))
		return nil, err
	}

	if err := s.reconciler.ApplyUpdate(ctx, ownerID, oldTx, newTx); err != nil {
		var drift *domain.ErrReconciliationDrift
		if errors.As(err, &drift) {
			return nil, err
		}
		s.logger.Error("balance adjustment failed, restoring previous transaction",
			zap.String("transaction_id", txID),
			zap.Error(err),
		)
		restore := map[string]any{
			"date":        oldTx.Date,
			"type":        string(oldTx.Type),
			"category":    oldTx.Category,
			"description": oldTx.Description,
			"amount":      oldTx.Amount.String(),
			"account_id":  nullableID(oldTx.AccountID),
		}
		if _, restErr := s.store.UpdateTransaction(ctx, ownerID, txID, restore); restErr != nil {
			s.metrics.IncrDrift("update")
			s.logger.Error("compensation failed, ledger has drifted",
				zap.String("transaction_id", txID),
				zap.Error(restErr),
			)
			return nil, &domain.ErrReconciliationDrift{Op: "update", EntityID: txID, Err: restErr}
		}
		return nil, err
	}

	s.invalidateOwner(ownerID)
	return newTx, nil
}

// Delete removes a transaction and reverses its balance effect. The row
// is re-inserted if the reversal fails.
func (s *TransactionsService) Delete(ctx context.Context, ownerID, txID string) error {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("transaction_delete", time.Since(start)) }()

	tx, err := s.store.GetTransaction(ctx, ownerID, txID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, ownerID, txID); err != nil {
		s.logger.Error("failed to delete transaction", zap.String("transaction_id", txID), zap.Error(err))
		return err
	}

	if err := s.reconciler.ApplyDelete(ctx, ownerID, tx); err != nil {
		s.logger.Error("balance reversal failed, re-inserting transaction",
			zap.String("transaction_id", txID),
			zap.Error(err),
		)
		if _, insErr := s.store.InsertTransaction(ctx, tx); insErr != nil {
			s.metrics.IncrDrift("delete")
			s.logger.Error("compensation failed, ledger has drifted",
				zap.String("transaction_id", txID),
				zap.Error(insErr),
			)
			return &domain.ErrReconciliationDrift{Op: "delete", EntityID: txID, Err: insErr}
		}
		return err
	}

	s.invalidateOwner(ownerID)
	s.logger.Info("transaction deleted",
		zap.String("owner_id", ownerID),
		zap.String("transaction_id", txID),
	)
	return nil
}

// Get returns a single transaction.
func (s *TransactionsService) Get(ctx context.Context, ownerID, txID string) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Get")
	defer span.End()

	return s.store.GetTransaction(ctx, ownerID, txID)
}

// List returns a filtered, paginated page of transactions. Results are
// cached briefly per filter combination; concurrent misses for the same
// key are collapsed into a single storage read.
func (s *TransactionsService) List(ctx context.Context, ownerID string, filter domain.TransactionFilter) (*domain.TransactionList, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.List")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	key := listCacheKey(ownerID, filter)
	if cached, ok := s.listCache.Get(key); ok {
		s.metrics.IncrCacheHit("transactions")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("transactions")

	v, err, _ := s.group.Do(key, func() (any, error) {
		list, err := s.store.ListTransactions(ctx, ownerID, filter)
		if err != nil {
			return nil, err
		}
		s.listCache.Set(key, list, s.listTTL)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.TransactionList), nil
}

// Summary aggregates income and expenses over an optional date range.
func (s *TransactionsService) Summary(ctx context.Context, ownerID, from, to string) (*domain.FinancialSummary, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Summary")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	key := summaryCacheKey(ownerID, from, to)
	if cached, ok := s.summaryCache.Get(key); ok {
		s.metrics.IncrCacheHit("summary")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("summary")

	v, err, _ := s.group.Do(key, func() (any, error) {
		list, err := s.store.ListTransactions(ctx, ownerID, domain.TransactionFilter{From: from, To: to})
		if err != nil {
			return nil, err
		}

		summary := &domain.FinancialSummary{
			TotalIncome:  decimal.Zero,
			TotalExpense: decimal.Zero,
			Count:        len(list.Items),
			From:         from,
			To:           to,
		}
		for _, tx := range list.Items {
			if tx.Type == domain.TransactionIncome {
				summary.TotalIncome = summary.TotalIncome.Add(tx.Amount)
			} else {
				summary.TotalExpense = summary.TotalExpense.Add(tx.Amount)
			}
		}
		summary.Balance = summary.TotalIncome.Sub(summary.TotalExpense)

		s.summaryCache.Set(key, summary, s.summaryTTL)
		return summary, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.FinancialSummary), nil
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
