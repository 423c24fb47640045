package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type fakeCanceler struct {
	errs  []error
	calls []int64
}

func (f *fakeCanceler) CancelOrder(_ context.Context, orderID int64) (api.CancelResult, error) {
	f.calls = append(f.calls, orderID)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return api.CancelResult{}, err
		}
	}
	return api.CancelResult{OrderID: orderID, StockRestored: 1}, nil
}

func newHandler(t *testing.T, c Canceler, maxAttempts int) *Handler {
	t.Helper()
	h, err := NewHandler(c, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithMaxAttempts(maxAttempts),
		WithInitialInterval(time.Millisecond),
	)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h
}

func payload(t *testing.T, event domain.CheckoutEvent) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return data
}

func compensationFailed(orderID int64) domain.CheckoutEvent {
	return domain.CheckoutEvent{
		Type:           domain.CheckoutEventCompensationFailed,
		AttemptID:      "attempt-1",
		OrderID:        orderID,
		ActorID:        42,
		DeliveryMethod: domain.DeliveryOnHand,
	}
}

func TestHandler_Handle(t *testing.T) {
	ctx := context.Background()
	transient := fmt.Errorf("PUT /orders/555/cancel: %w", api.ErrTransport)

	t.Run("cancels on first try", func(t *testing.T) {
		c := &fakeCanceler{}
		if err := newHandler(t, c, 3).Handle(ctx, payload(t, compensationFailed(555))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(c.calls) != 1 || c.calls[0] != 555 {
			t.Errorf("unexpected calls: %v", c.calls)
		}
	})

	t.Run("retries transient failures", func(t *testing.T) {
		c := &fakeCanceler{errs: []error{transient, transient}}
		if err := newHandler(t, c, 3).Handle(ctx, payload(t, compensationFailed(555))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(c.calls) != 3 {
			t.Errorf("expected 3 calls, got %d", len(c.calls))
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		c := &fakeCanceler{errs: []error{transient, transient, transient, transient}}
		err := newHandler(t, c, 3).Handle(ctx, payload(t, compensationFailed(555)))
		if !errors.Is(err, api.ErrTransport) {
			t.Fatalf("expected transport error, got %v", err)
		}
		if len(c.calls) != 3 {
			t.Errorf("expected 3 calls, got %d", len(c.calls))
		}
	})

	t.Run("not cancelable counts as settled", func(t *testing.T) {
		c := &fakeCanceler{errs: []error{fmt.Errorf("PUT: %w", api.ErrValidation)}}
		if err := newHandler(t, c, 3).Handle(ctx, payload(t, compensationFailed(555))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(c.calls) != 1 {
			t.Errorf("expected 1 call, got %d", len(c.calls))
		}
	})

	t.Run("unauthorized is not retried", func(t *testing.T) {
		c := &fakeCanceler{errs: []error{fmt.Errorf("PUT: %w", api.ErrUnauthorized)}}
		err := newHandler(t, c, 5).Handle(ctx, payload(t, compensationFailed(555)))
		if !errors.Is(err, api.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if len(c.calls) != 1 {
			t.Errorf("expected 1 call, got %d", len(c.calls))
		}
	})

	t.Run("skips other events", func(t *testing.T) {
		c := &fakeCanceler{}
		event := compensationFailed(555)
		event.Type = domain.CheckoutEventCompleted
		if err := newHandler(t, c, 3).Handle(ctx, payload(t, event)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(c.calls) != 0 {
			t.Errorf("expected no calls, got %d", len(c.calls))
		}
	})

	t.Run("skips undecodable payload", func(t *testing.T) {
		c := &fakeCanceler{}
		if err := newHandler(t, c, 3).Handle(ctx, []byte("{oops")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(c.calls) != 0 {
			t.Errorf("expected no calls, got %d", len(c.calls))
		}
	})
}
