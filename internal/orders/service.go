package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/domain"
)

// Backend is the order history part of the REST backend.
type Backend interface {
	OrdersByClient(ctx context.Context, clientID int64) ([]domain.Order, error)
	AllOrders(ctx context.Context) ([]domain.Order, error)
	OrderDetails(ctx context.Context, orderID int64) ([]domain.OrderLine, error)
	CancelOrder(ctx context.Context, orderID int64) (api.CancelResult, error)
	MarkDelivered(ctx context.Context, orderID int64) (domain.Order, error)
	BillForOrder(ctx context.Context, orderID int64) (domain.Bill, error)
}

type Sessions interface {
	RequireActor(ctx context.Context) (domain.Actor, error)
	Invalidate(ctx context.Context)
}

// Receipt is what the confirmation view shows for a placed order.
type Receipt struct {
	OrderID int64
	Lines   []domain.OrderLine
	// Bill is nil until the backend has issued one.
	Bill *domain.Bill
}

type Service struct {
	backend  Backend
	sessions Sessions
	logger   *slog.Logger
}

func NewService(backend Backend, sessions Sessions, logger *slog.Logger) *Service {
	return &Service{
		backend:  backend,
		sessions: sessions,
		logger:   logger,
	}
}

// MyOrders lists the current actor's orders, newest first. The
// administrator has no personal history and gets an empty list without a
// backend call.
func (s *Service) MyOrders(ctx context.Context) ([]domain.Order, error) {
	actor, err := s.sessions.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return []domain.Order{}, nil
	}

	orders, err := s.backend.OrdersByClient(ctx, actor.ID)
	if err != nil {
		return nil, s.fail(ctx, "list my orders", err)
	}
	sortNewestFirst(orders)
	return orders, nil
}

// AllOrders lists every order in the store. The backend answers 403 for
// anyone but the administrator.
func (s *Service) AllOrders(ctx context.Context) ([]domain.Order, error) {
	if _, err := s.sessions.RequireActor(ctx); err != nil {
		return nil, err
	}

	orders, err := s.backend.AllOrders(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list all orders", err)
	}
	sortNewestFirst(orders)
	return orders, nil
}

func (s *Service) Details(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	if _, err := s.sessions.RequireActor(ctx); err != nil {
		return nil, err
	}
	lines, err := s.backend.OrderDetails(ctx, orderID)
	if err != nil {
		return nil, s.fail(ctx, "order details", err)
	}
	return lines, nil
}

// Cancel asks the backend to cancel the order. A 400 from the backend means
// the order is already delivered or canceled and is reported as
// domain.ErrOrderNotCancelable.
func (s *Service) Cancel(ctx context.Context, orderID int64) (api.CancelResult, error) {
	if _, err := s.sessions.RequireActor(ctx); err != nil {
		return api.CancelResult{}, err
	}

	res, err := s.backend.CancelOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, api.ErrValidation) {
			return api.CancelResult{}, fmt.Errorf("cancel order %d: %w: %w", orderID, domain.ErrOrderNotCancelable, err)
		}
		return api.CancelResult{}, s.fail(ctx, fmt.Sprintf("cancel order %d", orderID), err)
	}

	s.logger.Info("order canceled", "order_id", orderID, "stock_restored", res.StockRestored)
	return res, nil
}

// Deliver marks an order delivered. Administrator only, enforced by the
// backend.
func (s *Service) Deliver(ctx context.Context, orderID int64) (domain.Order, error) {
	if _, err := s.sessions.RequireActor(ctx); err != nil {
		return domain.Order{}, err
	}

	order, err := s.backend.MarkDelivered(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.fail(ctx, fmt.Sprintf("deliver order %d", orderID), err)
	}

	s.logger.Info("order delivered", "order_id", orderID)
	return order, nil
}

// Receipt gathers the lines and bill of an order.
func (s *Service) Receipt(ctx context.Context, orderID int64) (Receipt, error) {
	lines, err := s.Details(ctx, orderID)
	if err != nil {
		return Receipt{}, err
	}

	receipt := Receipt{OrderID: orderID, Lines: lines}

	bill, err := s.backend.BillForOrder(ctx, orderID)
	switch {
	case err == nil:
		receipt.Bill = &bill
	case errors.Is(err, api.ErrNotFound):
		s.logger.Debug("no bill issued yet", "order_id", orderID)
	default:
		return Receipt{}, s.fail(ctx, fmt.Sprintf("bill for order %d", orderID), err)
	}
	return receipt, nil
}

// fail wraps err and drops the session when the backend rejected the token.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		s.sessions.Invalidate(ctx)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func sortNewestFirst(orders []domain.Order) {
	slices.SortFunc(orders, func(a, b domain.Order) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		default:
			return 0
		}
	})
}
