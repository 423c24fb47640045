package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/clock"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/stock"
)

// ErrSubmissionInFlight is returned when Submit is called while another
// attempt is still running.
var ErrSubmissionInFlight = errors.New("checkout already in progress")

// Backend is the subset of the REST backend used to place an order.
type Backend interface {
	CreateOrder(ctx context.Context, in api.OrderRequest) (domain.Order, error)
	AdjustStock(ctx context.Context, deltas []domain.StockDelta) ([]domain.StockAdjustment, error)
	CancelOrder(ctx context.Context, orderID int64) (api.CancelResult, error)
}

type StockVerifier interface {
	Verify(ctx context.Context, items []domain.StockRequest) (stock.Outcome, error)
}

// Sessions resolves the actor placing the order and drops credentials the
// backend rejected.
type Sessions interface {
	CurrentActor(ctx context.Context) (domain.Actor, bool)
	Invalidate(ctx context.Context)
}

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Request carries the user's choices for one checkout.
type Request struct {
	DeliveryMethod domain.DeliveryMethod
	Address        string
	// ConfirmAdmin must be set for the administrator to place an order.
	ConfirmAdmin bool
}

// Orchestrator runs the checkout workflow: verify stock, create the order,
// decrement stock, clear the cart. A failed decrement is compensated by
// canceling the created order.
type Orchestrator struct {
	cart     *cart.Cart
	sessions Sessions
	verifier StockVerifier
	backend  Backend
	journal  *Journal
	clock    clock.Clock
	logger   *slog.Logger

	events             Publisher
	compensationFailed Publisher

	metrics    *instruments
	submitting atomic.Bool
}

type Option func(*Orchestrator)

// WithEvents publishes settled attempts to events and failed compensations
// to compensationFailed. Either may be nil.
func WithEvents(events, compensationFailed Publisher) Option {
	return func(o *Orchestrator) {
		o.events = events
		o.compensationFailed = compensationFailed
	}
}

func WithClock(clk clock.Clock) Option {
	return func(o *Orchestrator) {
		o.clock = clk
	}
}

func New(c *cart.Cart, sessions Sessions, verifier StockVerifier, backend Backend, journal *Journal, logger *slog.Logger, opts ...Option) (*Orchestrator, error) {
	metrics, err := newInstruments()
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cart:     c,
		sessions: sessions,
		verifier: verifier,
		backend:  backend,
		journal:  journal,
		clock:    clock.NewSystem(),
		logger:   logger,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Submitting reports whether an attempt is in flight.
func (o *Orchestrator) Submitting() bool {
	return o.submitting.Load()
}

// PendingAttempt returns an attempt left behind by an interrupted run or a
// failed compensation.
func (o *Orchestrator) PendingAttempt(ctx context.Context) (Attempt, bool) {
	return o.journal.Pending(ctx)
}

func (o *Orchestrator) DismissAttempt(ctx context.Context) error {
	return o.journal.Dismiss(ctx)
}

// Submit runs one checkout attempt over the current cart. Every failure is
// reported through the Result; the error is only ErrSubmissionInFlight.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (Result, error) {
	if !o.submitting.CompareAndSwap(false, true) {
		return Result{}, ErrSubmissionInFlight
	}
	defer o.submitting.Store(false)

	start := time.Now()
	result := o.submit(ctx, req)
	o.metrics.record(ctx, result, time.Since(start))

	if result.Err != nil {
		o.logger.Warn("checkout failed",
			"state", result.State.String(),
			"category", result.Category.String(),
			"attempt_id", result.AttemptID,
			"error", result.Err,
		)
	}
	return result, nil
}

func (o *Orchestrator) submit(ctx context.Context, req Request) Result {
	actor, ok := o.sessions.CurrentActor(ctx)
	if !ok {
		return Result{State: StateIdle, Category: CategoryAuth, Err: domain.ErrNotAuthenticated}
	}

	lines := o.cart.Lines()
	address, err := validate(actor, lines, req)
	if err != nil {
		return Result{State: StateIdle, Category: CategoryValidation, Err: err}
	}
	if actor.IsAdmin() {
		o.logger.Warn("administrator is placing an order")
	}

	attempt, err := o.journal.Begin(ctx, actor.ID)
	if err != nil {
		return Result{State: StateIdle, Category: CategoryValidation, Err: err}
	}
	result := Result{AttemptID: attempt.ID}

	// VERIFYING
	result.State = StateVerifying
	outcome, err := o.verify(ctx, attempt, lines)
	if err != nil {
		o.journal.Settle(ctx, attempt)
		result.State = StateVerifyFailed
		result.Category = o.classify(ctx, err, CategoryTransport)
		result.Err = err
		return result
	}
	if !outcome.Success {
		o.journal.Settle(ctx, attempt)
		result.State = StateVerifyFailed
		result.Category = CategoryStock
		result.Failures = outcome.Failures
		result.Err = fmt.Errorf("verify stock: %d item(s) unavailable", len(outcome.Failures))
		return result
	}

	// CREATING_ORDER
	result.State = StateCreatingOrder
	order, err := o.createOrder(ctx, attempt, actor, lines, req.DeliveryMethod, address)
	if err != nil {
		result.State = StateCreateFailed
		result.Category = o.classify(ctx, err, CategoryCreate)
		result.Err = err
		if orderOutcomeUnknown(result.Category, err) {
			result.OrderOutcomeUnknown = true
			o.journal.MarkOrderOutcomeUnknown(ctx, attempt)
			o.logger.Warn("order creation unconfirmed, keeping checkout attempt",
				"attempt_id", attempt.ID,
				"error", err,
			)
		} else {
			o.journal.Settle(ctx, attempt)
		}
		return result
	}
	result.Order = &order
	o.journal.Advance(ctx, attempt, StepOrderCreated, order.ID)

	// UPDATING_STOCK
	result.State = StateUpdatingStock
	if err := o.updateStock(ctx, attempt, lines); err != nil {
		result.State = StateStockFailedRolledBack
		result.Category = CategoryRolledBack
		result.Err = err

		if cancelErr := o.compensate(ctx, attempt, order.ID); cancelErr != nil {
			result.CompensationFailed = true
			o.journal.MarkCompensationFailed(ctx, attempt)
			o.logger.Error("compensating cancel failed, order left inconsistent with stock",
				"order_id", order.ID,
				"attempt_id", attempt.ID,
				"error", cancelErr,
			)
			result.Err = errors.Join(err, fmt.Errorf("compensate: %w", cancelErr))
			o.publish(ctx, o.compensationFailed, domain.CheckoutEventCompensationFailed, attempt, order, cancelErr.Error())
		} else {
			o.journal.Settle(ctx, attempt)
		}

		if isAuthError(err) {
			o.sessions.Invalidate(ctx)
		}
		o.publish(ctx, o.events, domain.CheckoutEventRolledBack, attempt, order, err.Error())
		return result
	}
	o.journal.Advance(ctx, attempt, StepStockUpdated, 0)

	// COMPLETED
	result.State = StateCompleted
	if err := o.cart.Clear(ctx); err != nil {
		o.logger.Error("order placed but cart could not be cleared", "order_id", order.ID, "error", err)
	}
	o.journal.Settle(ctx, attempt)
	o.publish(ctx, o.events, domain.CheckoutEventCompleted, attempt, order, "")

	o.logger.Info("order placed",
		"order_id", order.ID,
		"attempt_id", attempt.ID,
		"total", order.Total.StringFixed(2),
		"lines", len(order.Lines),
	)
	return result
}

func validate(actor domain.Actor, lines []domain.CartLine, req Request) (string, error) {
	if len(lines) == 0 {
		return "", domain.ErrEmptyCart
	}
	if !req.DeliveryMethod.Valid() {
		return "", domain.ErrInvalidDeliveryMethod
	}

	address := req.DeliveryMethod.PickupAddress()
	if req.DeliveryMethod == domain.DeliveryHomeDelivery {
		address = strings.TrimSpace(req.Address)
		if address == "" {
			return "", domain.ErrAddressRequired
		}
	}

	if actor.IsAdmin() && !req.ConfirmAdmin {
		return "", domain.ErrAdminConfirmationRequired
	}
	return address, nil
}

func (o *Orchestrator) verify(ctx context.Context, attempt *Attempt, lines []domain.CartLine) (stock.Outcome, error) {
	ctx, span := startStep(ctx, "checkout.verify", attempt.ID)

	items := make([]domain.StockRequest, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.StockRequest{ProductID: l.ProductID, Name: l.Name, Quantity: l.Quantity})
	}

	outcome, err := o.verifier.Verify(ctx, items)
	if err != nil {
		endStep(span, err)
		return stock.Outcome{}, fmt.Errorf("verify stock: %w", err)
	}
	span.SetAttributes(attribute.Int("checkout.stock_failures", len(outcome.Failures)))
	endStep(span, nil)
	return outcome, nil
}

func (o *Orchestrator) createOrder(ctx context.Context, attempt *Attempt, actor domain.Actor, lines []domain.CartLine, method domain.DeliveryMethod, address string) (domain.Order, error) {
	ctx, span := startStep(ctx, "checkout.create_order", attempt.ID)

	in := api.OrderRequest{
		ActorID:        actor.ID,
		Total:          cart.Total(lines).Round(2),
		DeliveryMethod: method,
		Address:        address,
		Lines:          make([]domain.OrderLine, 0, len(lines)),
	}
	for _, l := range lines {
		in.Lines = append(in.Lines, domain.OrderLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.Round(2),
		})
	}

	order, err := o.backend.CreateOrder(ctx, in)
	if err != nil {
		endStep(span, err)
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	endStep(span, nil)

	// The backend echo may omit the lines; keep the snapshot that was sent.
	if len(order.Lines) == 0 {
		order.Lines = in.Lines
	}
	if order.Total.IsZero() {
		order.Total = in.Total
	}
	if !order.DeliveryMethod.Valid() {
		order.DeliveryMethod = method
	}
	return order, nil
}

func (o *Orchestrator) updateStock(ctx context.Context, attempt *Attempt, lines []domain.CartLine) error {
	ctx, span := startStep(ctx, "checkout.update_stock", attempt.ID)

	deltas := make([]domain.StockDelta, 0, len(lines))
	for _, l := range lines {
		deltas = append(deltas, domain.StockDelta{ProductID: l.ProductID, Delta: -l.Quantity})
	}

	if _, err := o.backend.AdjustStock(ctx, deltas); err != nil {
		endStep(span, err)
		return fmt.Errorf("update stock: %w", err)
	}
	endStep(span, nil)
	return nil
}

// compensate issues exactly one cancel for the order. It is not retried.
func (o *Orchestrator) compensate(ctx context.Context, attempt *Attempt, orderID int64) error {
	ctx, span := startStep(ctx, "checkout.compensate", attempt.ID)
	span.SetAttributes(attribute.Int64("order.id", orderID))

	res, err := o.backend.CancelOrder(ctx, orderID)
	if err != nil {
		endStep(span, err)
		return fmt.Errorf("cancel order %d: %w", orderID, err)
	}
	endStep(span, nil)

	o.logger.Info("order rolled back after stock update failure",
		"order_id", orderID,
		"attempt_id", attempt.ID,
		"stock_restored", res.StockRestored,
	)
	return nil
}

// classify maps a step error to a category and clears rejected credentials.
func (o *Orchestrator) classify(ctx context.Context, err error, fallback Category) Category {
	switch {
	case isAuthError(err):
		o.sessions.Invalidate(ctx)
		return CategoryAuth
	case errors.Is(err, api.ErrTransport), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return CategoryTransport
	default:
		return fallback
	}
}

// orderOutcomeUnknown reports whether a failed create may still have placed
// the order: the request got no answer, or the answer could not be read.
func orderOutcomeUnknown(category Category, err error) bool {
	return category == CategoryTransport || errors.Is(err, api.ErrMalformedResponse)
}

func isAuthError(err error) bool {
	return errors.Is(err, api.ErrUnauthorized) || errors.Is(err, api.ErrForbidden)
}

func (o *Orchestrator) publish(ctx context.Context, p Publisher, eventType string, attempt *Attempt, order domain.Order, reason string) {
	if p == nil {
		return
	}

	event := domain.CheckoutEvent{
		Type:           eventType,
		AttemptID:      attempt.ID,
		OrderID:        order.ID,
		ActorID:        attempt.ActorID,
		Total:          order.Total.StringFixed(2),
		DeliveryMethod: order.DeliveryMethod,
		Lines:          order.Lines,
		Reason:         reason,
		Timestamp:      o.clock.Now(),
	}

	if err := p.Publish(ctx, strconv.FormatInt(order.ID, 10), event); err != nil {
		o.logger.Error("failed to publish checkout event", "type", eventType, "order_id", order.ID, "error", err)
	}
}
