package domain

import "time"

const (
	CheckoutEventCompleted          = "checkout.completed"
	CheckoutEventRolledBack         = "checkout.rolled_back"
	CheckoutEventCompensationFailed = "checkout.compensation_failed"
)

// CheckoutEvent is published after a checkout attempt settles.
type CheckoutEvent struct {
	Type           string         `json:"type"`
	AttemptID      string         `json:"attempt_id"`
	OrderID        int64          `json:"order_id"`
	ActorID        int64          `json:"actor_id"`
	Total          string         `json:"total"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	Lines          []OrderLine    `json:"lines"`
	Reason         string         `json:"reason,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}
