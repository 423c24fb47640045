package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront/internal/clock"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/storage"
)

type Step string

const (
	StepStarted      Step = "started"
	StepOrderCreated Step = "order_created"
	StepStockUpdated Step = "stock_updated"
)

// Attempt is the durable marker of an in-flight checkout. A leftover record
// after restart means a remote order may exist that the client never settled.
type Attempt struct {
	ID                 string    `json:"id"`
	ActorID            int64     `json:"actor_id"`
	StartedAt          time.Time `json:"started_at"`
	Step               Step      `json:"step"`
	OrderID            int64     `json:"order_id,omitempty"`
	CompensationFailed bool      `json:"compensation_failed,omitempty"`
	// OrderOutcomeUnknown is set when the create call failed without an
	// answer, so the order may exist although no id was returned.
	OrderOutcomeUnknown bool `json:"order_outcome_unknown,omitempty"`
}

// NeedsAttention reports whether the attempt may have left an order on the
// store that nobody settled. Such a record blocks new checkouts until it is
// dismissed.
func (a Attempt) NeedsAttention() bool {
	return a.CompensationFailed || a.OrderOutcomeUnknown
}

// Journal persists the current Attempt under the checkout_attempt key.
// Write failures are logged and never abort a checkout.
type Journal struct {
	kv     storage.Store
	clock  clock.Clock
	logger *slog.Logger
}

func NewJournal(kv storage.Store, clk clock.Clock, logger *slog.Logger) *Journal {
	return &Journal{kv: kv, clock: clk, logger: logger}
}

// Begin records a new attempt. It fails with domain.ErrUnsettledCheckout
// while a previous attempt needs attention; any other leftover record is
// replaced.
func (j *Journal) Begin(ctx context.Context, actorID int64) (*Attempt, error) {
	if prev, ok := j.Pending(ctx); ok {
		if prev.NeedsAttention() {
			return nil, fmt.Errorf("attempt %s: %w", prev.ID, domain.ErrUnsettledCheckout)
		}
		j.logger.Warn("overwriting unsettled checkout attempt",
			"attempt_id", prev.ID, "step", prev.Step, "order_id", prev.OrderID)
	}

	a := &Attempt{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		StartedAt: j.clock.Now(),
		Step:      StepStarted,
	}
	j.write(ctx, a)
	return a, nil
}

func (j *Journal) Advance(ctx context.Context, a *Attempt, step Step, orderID int64) {
	a.Step = step
	if orderID != 0 {
		a.OrderID = orderID
	}
	j.write(ctx, a)
}

func (j *Journal) MarkCompensationFailed(ctx context.Context, a *Attempt) {
	a.CompensationFailed = true
	j.write(ctx, a)
}

func (j *Journal) MarkOrderOutcomeUnknown(ctx context.Context, a *Attempt) {
	a.OrderOutcomeUnknown = true
	j.write(ctx, a)
}

// Settle removes the record once the attempt's remote effects are known.
func (j *Journal) Settle(ctx context.Context, a *Attempt) {
	if err := j.kv.Delete(ctx, storage.KeyCheckoutAttempt); err != nil {
		j.logger.Warn("failed to settle checkout attempt", "attempt_id", a.ID, "error", err)
	}
}

// Pending returns the leftover attempt, if any.
func (j *Journal) Pending(ctx context.Context) (Attempt, bool) {
	data, err := j.kv.Get(ctx, storage.KeyCheckoutAttempt)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			j.logger.Warn("failed to read checkout attempt", "error", err)
		}
		return Attempt{}, false
	}

	var a Attempt
	if err := json.Unmarshal(data, &a); err != nil {
		j.logger.Warn("discarding corrupt checkout attempt", "error", err)
		return Attempt{}, false
	}
	return a, true
}

func (j *Journal) Dismiss(ctx context.Context) error {
	if err := j.kv.Delete(ctx, storage.KeyCheckoutAttempt); err != nil {
		return fmt.Errorf("dismiss checkout attempt: %w", err)
	}
	return nil
}

func (j *Journal) write(ctx context.Context, a *Attempt) {
	data, err := json.Marshal(a)
	if err != nil {
		j.logger.Warn("failed to marshal checkout attempt", "attempt_id", a.ID, "error", err)
		return
	}
	if err := j.kv.Put(ctx, storage.KeyCheckoutAttempt, data); err != nil {
		j.logger.Warn("failed to record checkout attempt", "attempt_id", a.ID, "step", a.Step, "error", err)
	}
}
