package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/domain"
)

// Result is the typed outcome of one Submit call. Err holds the underlying
// cause for logging; Message is what the user sees.
type Result struct {
	State              State
	Category           Category
	AttemptID          string
	Order              *domain.Order
	Failures           []domain.StockCheckResult
	CompensationFailed bool
	// OrderOutcomeUnknown is set when the order may have been created even
	// though the create call failed.
	OrderOutcomeUnknown bool
	Err                 error
}

func (r Result) Succeeded() bool {
	return r.State == StateCompleted
}

// Message renders a human readable description of the outcome.
func (r Result) Message() string {
	if r.OrderOutcomeUnknown {
		return "The store did not confirm the order, it may have been placed anyway. Your cart was kept. " +
			"Check 'storefront orders' before trying again, then run 'storefront checkout dismiss'."
	}

	switch r.Category {
	case CategoryNone:
		if r.Order != nil {
			return fmt.Sprintf("Order #%d placed. Total: %s (%s).",
				r.Order.ID, r.Order.Total.StringFixed(2), r.Order.DeliveryMethod)
		}
		return r.State.String()
	case CategoryValidation:
		return "Cannot submit order: " + validationReason(r.Err)
	case CategoryAuth:
		return "Your session is missing or has expired. Please log in again."
	case CategoryStock:
		var b strings.Builder
		b.WriteString("Some items are not available:")
		for _, f := range r.Failures {
			name := f.Name
			if name == "" {
				name = fmt.Sprintf("product %d", f.ProductID)
			}
			fmt.Fprintf(&b, "\n  - %s: %s", name, f.Message)
		}
		return b.String()
	case CategoryCreate:
		msg := "The order could not be created. Your cart was kept, please try again."
		if d := reason(r.Err); d != "" {
			msg += " (" + d + ")"
		}
		return msg
	case CategoryRolledBack:
		orderID := int64(0)
		if r.Order != nil {
			orderID = r.Order.ID
		}
		if r.CompensationFailed {
			return fmt.Sprintf("Stock could not be updated and order #%d could not be canceled automatically. "+
				"Please contact support and check your order history.", orderID)
		}
		return fmt.Sprintf("Stock could not be updated. Order #%d was canceled and rolled back; your cart was kept.", orderID)
	case CategoryTransport:
		return "The store is not reachable right now. Your cart was kept, please try again."
	default:
		return "Unexpected checkout failure."
	}
}

func validationReason(err error) string {
	switch {
	case err == nil:
		return "invalid request"
	case errors.Is(err, domain.ErrEmptyCart):
		return "your cart is empty."
	case errors.Is(err, domain.ErrAddressRequired):
		return "a delivery address is required for home delivery."
	case errors.Is(err, domain.ErrAdminConfirmationRequired):
		return "the administrator account must confirm before placing an order."
	case errors.Is(err, domain.ErrUnsettledCheckout):
		return "a previous checkout needs attention. Run 'storefront checkout status' and check 'storefront orders', " +
			"then run 'storefront checkout dismiss'."
	default:
		return err.Error() + "."
	}
}

func reason(err error) string {
	if err == nil {
		return ""
	}
	if wait, ok := api.RetryAfter(err); ok {
		return fmt.Sprintf("too many requests, retry in %s", wait.Round(time.Second))
	}
	if d := api.Detail(err); d != "" {
		return d
	}
	return ""
}
