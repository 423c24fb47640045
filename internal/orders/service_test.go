package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type fakeSessions struct {
	actor       *domain.Actor
	invalidated bool
}

func (f *fakeSessions) RequireActor(context.Context) (domain.Actor, error) {
	if f.actor == nil {
		return domain.Actor{}, domain.ErrNotAuthenticated
	}
	return *f.actor, nil
}

func (f *fakeSessions) Invalidate(context.Context) {
	f.invalidated = true
}

type fakeBackend struct {
	orders  []domain.Order
	lines   []domain.OrderLine
	bill    *domain.Bill
	err     error
	billErr error
	calls   []string
}

func (f *fakeBackend) OrdersByClient(_ context.Context, clientID int64) ([]domain.Order, error) {
	f.calls = append(f.calls, fmt.Sprintf("by_client:%d", clientID))
	return f.orders, f.err
}

func (f *fakeBackend) AllOrders(context.Context) ([]domain.Order, error) {
	f.calls = append(f.calls, "all")
	return f.orders, f.err
}

func (f *fakeBackend) OrderDetails(_ context.Context, orderID int64) ([]domain.OrderLine, error) {
	f.calls = append(f.calls, fmt.Sprintf("details:%d", orderID))
	return f.lines, f.err
}

func (f *fakeBackend) CancelOrder(_ context.Context, orderID int64) (api.CancelResult, error) {
	f.calls = append(f.calls, fmt.Sprintf("cancel:%d", orderID))
	if f.err != nil {
		return api.CancelResult{}, f.err
	}
	return api.CancelResult{OrderID: orderID, StockRestored: 2}, nil
}

func (f *fakeBackend) MarkDelivered(_ context.Context, orderID int64) (domain.Order, error) {
	f.calls = append(f.calls, fmt.Sprintf("deliver:%d", orderID))
	if f.err != nil {
		return domain.Order{}, f.err
	}
	return domain.Order{ID: orderID, Status: domain.OrderStatusDelivered}, nil
}

func (f *fakeBackend) BillForOrder(_ context.Context, orderID int64) (domain.Bill, error) {
	f.calls = append(f.calls, fmt.Sprintf("bill:%d", orderID))
	if f.billErr != nil {
		return domain.Bill{}, f.billErr
	}
	return *f.bill, nil
}

func newService(backend *fakeBackend, sessions *fakeSessions) *Service {
	return NewService(backend, sessions, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestService_MyOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("lists client orders newest first", func(t *testing.T) {
		backend := &fakeBackend{orders: []domain.Order{{ID: 1}, {ID: 3}, {ID: 2}}}
		svc := newService(backend, &fakeSessions{actor: &domain.Actor{ID: 42}})

		orders, err := svc.MyOrders(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(orders) != 3 || orders[0].ID != 3 || orders[2].ID != 1 {
			t.Errorf("unexpected order: %+v", orders)
		}
		if len(backend.calls) != 1 || backend.calls[0] != "by_client:42" {
			t.Errorf("unexpected calls: %v", backend.calls)
		}
	})

	t.Run("admin has no personal history", func(t *testing.T) {
		backend := &fakeBackend{orders: []domain.Order{{ID: 1}}}
		svc := newService(backend, &fakeSessions{actor: &domain.Actor{ID: 0}})

		orders, err := svc.MyOrders(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if orders == nil || len(orders) != 0 {
			t.Errorf("expected empty non-nil list, got %v", orders)
		}
		if len(backend.calls) != 0 {
			t.Errorf("expected no backend calls, got %v", backend.calls)
		}
	})

	t.Run("requires a session", func(t *testing.T) {
		_, err := newService(&fakeBackend{}, &fakeSessions{}).MyOrders(ctx)
		if !errors.Is(err, domain.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("unauthorized drops the session", func(t *testing.T) {
		sessions := &fakeSessions{actor: &domain.Actor{ID: 42}}
		svc := newService(&fakeBackend{err: fmt.Errorf("GET: %w", api.ErrUnauthorized)}, sessions)

		_, err := svc.MyOrders(ctx)
		if !errors.Is(err, api.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
		if !sessions.invalidated {
			t.Error("expected session invalidated")
		}
	})
}

func TestService_AllOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("forbidden surfaces without dropping the session", func(t *testing.T) {
		sessions := &fakeSessions{actor: &domain.Actor{ID: 42}}
		svc := newService(&fakeBackend{err: fmt.Errorf("GET /orders: %w", api.ErrForbidden)}, sessions)

		_, err := svc.AllOrders(ctx)
		if !errors.Is(err, api.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
		if sessions.invalidated {
			t.Error("expected session kept")
		}
	})

	t.Run("admin lists everything", func(t *testing.T) {
		svc := newService(&fakeBackend{orders: []domain.Order{{ID: 1}, {ID: 2}}}, &fakeSessions{actor: &domain.Actor{ID: 0}})

		orders, err := svc.AllOrders(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(orders) != 2 {
			t.Errorf("expected 2 orders, got %d", len(orders))
		}
	})
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels", func(t *testing.T) {
		backend := &fakeBackend{}
		res, err := newService(backend, &fakeSessions{actor: &domain.Actor{ID: 42}}).Cancel(ctx, 555)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.OrderID != 555 || res.StockRestored != 2 {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("not cancelable", func(t *testing.T) {
		backend := &fakeBackend{err: fmt.Errorf("PUT: %w", api.ErrValidation)}
		_, err := newService(backend, &fakeSessions{actor: &domain.Actor{ID: 42}}).Cancel(ctx, 555)
		if !errors.Is(err, domain.ErrOrderNotCancelable) {
			t.Errorf("expected ErrOrderNotCancelable, got %v", err)
		}
		if !errors.Is(err, api.ErrValidation) {
			t.Errorf("expected wrapped ErrValidation, got %v", err)
		}
	})
}

func TestService_Deliver(t *testing.T) {
	backend := &fakeBackend{}
	order, err := newService(backend, &fakeSessions{actor: &domain.Actor{ID: 0}}).Deliver(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.OrderStatusDelivered {
		t.Errorf("expected DELIVERED, got %s", order.Status)
	}
}

func TestService_Receipt(t *testing.T) {
	ctx := context.Background()
	lines := []domain.OrderLine{{ProductID: 7, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")}}

	t.Run("with bill", func(t *testing.T) {
		backend := &fakeBackend{lines: lines, bill: &domain.Bill{BillNumber: "B-555"}}
		receipt, err := newService(backend, &fakeSessions{actor: &domain.Actor{ID: 42}}).Receipt(ctx, 555)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if receipt.Bill == nil || receipt.Bill.BillNumber != "B-555" {
			t.Errorf("unexpected bill: %+v", receipt.Bill)
		}
		if len(receipt.Lines) != 1 {
			t.Errorf("expected 1 line, got %d", len(receipt.Lines))
		}
	})

	t.Run("bill not issued yet", func(t *testing.T) {
		backend := &fakeBackend{lines: lines, billErr: fmt.Errorf("GET: %w", api.ErrNotFound)}
		receipt, err := newService(backend, &fakeSessions{actor: &domain.Actor{ID: 42}}).Receipt(ctx, 555)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if receipt.Bill != nil {
			t.Errorf("expected no bill, got %+v", receipt.Bill)
		}
	})
}
