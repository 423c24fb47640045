package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type DeliveryMethod int

const (
	DeliveryDriveThru DeliveryMethod = iota + 1
	DeliveryOnHand
	DeliveryHomeDelivery
)

var deliveryMethodNames = map[DeliveryMethod]string{
	DeliveryDriveThru:    "DRIVE_THRU",
	DeliveryOnHand:       "ON_HAND",
	DeliveryHomeDelivery: "HOME_DELIVERY",
}

func (m DeliveryMethod) Valid() bool {
	_, ok := deliveryMethodNames[m]
	return ok
}

func (m DeliveryMethod) String() string {
	if name, ok := deliveryMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("DeliveryMethod(%d)", int(m))
}

// ParseDeliveryMethod accepts the canonical name in any case, with either
// dashes or underscores ("home-delivery", "HOME_DELIVERY").
func ParseDeliveryMethod(s string) (DeliveryMethod, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for m, name := range deliveryMethodNames {
		if name == normalized {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown delivery method %q", s)
}

// PickupAddress is the address recorded for delivery methods where the
// customer collects the order.
func (m DeliveryMethod) PickupAddress() string {
	switch m {
	case DeliveryDriveThru:
		return "Drive-thru: side parking lot"
	case DeliveryOnHand:
		return "In-store pickup: main counter"
	default:
		return ""
	}
}

func (m DeliveryMethod) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("marshal delivery method: invalid value %d", int(m))
	}
	return json.Marshal(int(m))
}

func (m *DeliveryMethod) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal delivery method: %w", err)
	}
	dm := DeliveryMethod(v)
	if !dm.Valid() {
		return fmt.Errorf("unmarshal delivery method: unknown value %d", v)
	}
	*m = dm
	return nil
}

type OrderStatus int

const (
	OrderStatusPending OrderStatus = iota + 1
	OrderStatusInProgress
	OrderStatusDelivered
	OrderStatusCanceled
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusPending:    "PENDING",
	OrderStatusInProgress: "IN_PROGRESS",
	OrderStatusDelivered:  "DELIVERED",
	OrderStatusCanceled:   "CANCELED",
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusNames[s]
	return ok
}

func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("OrderStatus(%d)", int(s))
}

// Cancelable reports whether the backend accepts a cancel request for an
// order in this status.
func (s OrderStatus) Cancelable() bool {
	return s == OrderStatusPending || s == OrderStatusInProgress
}

// CanTransition reports whether the backend enacts the move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	switch next {
	case OrderStatusInProgress:
		return s == OrderStatusPending
	case OrderStatusDelivered:
		return s == OrderStatusInProgress
	case OrderStatusCanceled:
		return s.Cancelable()
	default:
		return false
	}
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("marshal order status: invalid value %d", int(s))
	}
	return json.Marshal(int(s))
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal order status: %w", err)
	}
	st := OrderStatus(v)
	if !st.Valid() {
		return fmt.Errorf("unmarshal order status: unknown value %d", v)
	}
	*s = st
	return nil
}

type OrderLine struct {
	ProductID ProductID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

// Order is the client-side projection of a backend order. The backend owns
// the identity and the status transitions.
type Order struct {
	ID             int64           `json:"id"`
	ClientID       int64           `json:"client_id"`
	Total          decimal.Decimal `json:"total"`
	DeliveryMethod DeliveryMethod  `json:"delivery_method"`
	Status         OrderStatus     `json:"status"`
	Address        string          `json:"address"`
	Lines          []OrderLine     `json:"lines,omitempty"`
}
