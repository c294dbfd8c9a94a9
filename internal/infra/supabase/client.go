// Package supabase provides a client for Supabase PostgREST.
// It is the persistence backend for accounts, transactions, categories
// and debts.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
	"github.com/taufikraden29/moneymoo-api/internal/infra/observability"
	"github.com/taufikraden29/moneymoo-api/internal/infra/resilience"
)

var tracer = otel.Tracer("supabase")

// apiError is a non-2xx PostgREST response. The status code decides
// retryability and the body carries the Postgres error code for
// constraint violations.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("supabase returned status %d: %s", e.Status, e.Body)
}

// isRetryable treats transport failures and 5xx as transient. Client
// errors, constraint violations included, must surface immediately.
func isRetryable(err error) bool {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.Status >= 500
	}
	var domErr *domain.ErrNotFound
	if errors.As(err, &domErr) {
		return false
	}
	var dup *domain.ErrDuplicate
	return !errors.As(err, &dup)
}

// isUniqueViolation reports whether err is the unique index rejecting an
// insert (PostgREST 409, Postgres error 23505).
func isUniqueViolation(err error) bool {
	var ae *apiError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Status == http.StatusConflict || strings.Contains(ae.Body, "23505")
}

// Client wraps HTTP calls to the Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	cfg.Retryable = isRetryable
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		metrics:        metrics,
		logger:         logger,
	}
}

// execute runs fn behind the circuit breaker with retries.
func (c *Client) execute(ctx context.Context, fn func() error) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
	})
	return err
}

func (c *Client) setHeaders(req *http.Request, prefer string) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
}

// doRequest executes an authenticated request to Supabase PostgREST.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	c.setHeaders(req, "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, &apiError{Status: resp.StatusCode, Body: string(body)}
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

// doList executes a GET with exact row counting and returns the page
// body plus the unpaged total parsed from Content-Range ("0-19/42").
func (c *Client) doList(ctx context.Context, path string) ([]byte, int, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	c.setHeaders(req, "count=exact")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: list request failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: list non-2xx",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, 0, &apiError{Status: resp.StatusCode, Body: string(body)}
	}

	total := -1
	if cr := resp.Header.Get("Content-Range"); cr != "" {
		if idx := strings.LastIndex(cr, "/"); idx >= 0 && cr[idx+1:] != "*" {
			if n, err := strconv.Atoi(cr[idx+1:]); err == nil {
				total = n
			}
		}
	}
	return body, total, nil
}

// Ping checks connectivity to PostgREST. Used by readiness and health
// endpoints.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "accounts?limit=1")
	return err
}

// storeErr normalizes an adapter failure: domain errors pass through,
// anything else is counted and wrapped as a storage error for the given
// operation.
func (c *Client) storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		notFound *domain.ErrNotFound
		dup      *domain.ErrDuplicate
	)
	if errors.As(err, &notFound) || errors.As(err, &dup) {
		return err
	}
	c.metrics.IncrStorageError(op)
	return &domain.ErrStorage{Op: op, Err: err}
}
