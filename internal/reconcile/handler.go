package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	DefaultMaxAttempts     = 5
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 30 * time.Second
)

// Canceler cancels orders on the backend with a service token.
type Canceler interface {
	CancelOrder(ctx context.Context, orderID int64) (api.CancelResult, error)
}

// Handler retries the cancel of orders whose checkout could not roll back.
type Handler struct {
	orders          Canceler
	maxAttempts     int
	initialInterval time.Duration
	logger          *slog.Logger
	outcomes        metric.Int64Counter
}

type Option func(*Handler)

func WithMaxAttempts(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxAttempts = n
		}
	}
}

func WithInitialInterval(d time.Duration) Option {
	return func(h *Handler) {
		h.initialInterval = d
	}
}

func NewHandler(orders Canceler, logger *slog.Logger, opts ...Option) (*Handler, error) {
	outcomes, err := otel.Meter("storefront/reconcile").Int64Counter("storefront.reconcile.cancels",
		metric.WithDescription("Reconciled compensation failures by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reconcile counter: %w", err)
	}

	h := &Handler{
		orders:          orders,
		maxAttempts:     DefaultMaxAttempts,
		initialInterval: defaultInitialInterval,
		logger:          logger,
		outcomes:        outcomes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle processes one compensation-failed event. It returns an error only
// when the cancel could not be settled, which leaves the message uncommitted.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.CheckoutEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("skipping undecodable checkout event", "error", err)
		h.record(ctx, "skipped")
		return nil
	}

	if event.Type != domain.CheckoutEventCompensationFailed || event.OrderID == 0 {
		h.logger.Warn("skipping unexpected checkout event", "type", event.Type, "order_id", event.OrderID)
		h.record(ctx, "skipped")
		return nil
	}

	h.logger.Info("reconciling order", "order_id", event.OrderID, "attempt_id", event.AttemptID, "reason", event.Reason)

	outcome, err := h.cancel(ctx, event.OrderID)
	h.record(ctx, outcome)
	if err != nil {
		h.logger.Error("failed to reconcile order", "order_id", event.OrderID, "error", err)
		return fmt.Errorf("reconcile order %d: %w", event.OrderID, err)
	}

	h.logger.Info("order reconciled", "order_id", event.OrderID, "outcome", outcome)
	return nil
}

func (h *Handler) cancel(ctx context.Context, orderID int64) (string, error) {
	outcome := "canceled"

	op := func() error {
		res, err := h.orders.CancelOrder(ctx, orderID)
		switch {
		case err == nil:
			h.logger.Info("order canceled", "order_id", orderID, "stock_restored", res.StockRestored)
			return nil
		case errors.Is(err, api.ErrValidation):
			// Already delivered or canceled; nothing left to undo.
			outcome = "already_settled"
			return nil
		case errors.Is(err, api.ErrNotFound):
			outcome = "not_found"
			return nil
		case errors.Is(err, api.ErrUnauthorized), errors.Is(err, api.ErrForbidden):
			return backoff.Permanent(err)
		default:
			return err
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = h.initialInterval
	b.MaxInterval = defaultMaxInterval
	b.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		h.logger.Warn("cancel failed, retrying", "order_id", orderID, "wait", wait, "error", err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(h.maxAttempts-1)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return "failed", err
	}
	return outcome, nil
}

func (h *Handler) record(ctx context.Context, outcome string) {
	h.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
