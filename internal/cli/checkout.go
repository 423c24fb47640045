package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/domain"
)

// errCheckoutFailed marks a checkout whose Result was already rendered.
var errCheckoutFailed = errors.New("checkout failed")

func (a *App) runCheckout(ctx context.Context, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "status":
			return a.checkoutStatus(ctx)
		case "dismiss":
			return a.checkoutDismiss(ctx)
		}
	}

	fs := a.flagSet("checkout")
	delivery := fs.String("delivery", "", "delivery method: on-hand, drive-thru or home-delivery")
	address := fs.String("address", "", "delivery address, required for home delivery")
	confirmAdmin := fs.Bool("confirm-admin", false, "confirm placing an order with the administrator account")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return usagef("unexpected argument %q", rest[0])
	}
	if *delivery == "" {
		return usagef("a delivery method is required")
	}
	method, err := domain.ParseDeliveryMethod(*delivery)
	if err != nil {
		return usagef("%v", err)
	}

	result, err := a.checkout.Submit(ctx, checkout.Request{
		DeliveryMethod: method,
		Address:        *address,
		ConfirmAdmin:   *confirmAdmin,
	})
	if err != nil {
		return err
	}

	if !result.Succeeded() {
		fmt.Fprintln(a.stderr, result.Message())
		return errCheckoutFailed
	}

	fmt.Fprintln(a.stdout, result.Message())
	printOrderLines(a.stdout, result.Order.Lines)
	if result.Order.Address != "" {
		fmt.Fprintf(a.stdout, "Address: %s\n", result.Order.Address)
	}
	return nil
}

func (a *App) checkoutStatus(ctx context.Context) error {
	attempt, ok := a.checkout.PendingAttempt(ctx)
	if !ok {
		fmt.Fprintln(a.stdout, "No unfinished checkout.")
		return nil
	}

	fmt.Fprintf(a.stdout, "Attempt:    %s\n", attempt.ID)
	fmt.Fprintf(a.stdout, "Started:    %s\n", attempt.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(a.stdout, "Last step:  %s\n", attempt.Step)
	if attempt.OrderID > 0 {
		fmt.Fprintf(a.stdout, "Order:      #%d\n", attempt.OrderID)
	}
	if attempt.CompensationFailed {
		fmt.Fprintln(a.stdout, "The automatic cancel of this order failed.")
	}
	if attempt.OrderOutcomeUnknown {
		fmt.Fprintln(a.stdout, "Order creation may have reached the store; check 'storefront orders'.")
	}
	if attempt.NeedsAttention() {
		fmt.Fprintln(a.stdout, "New checkouts are blocked until this attempt is dismissed.")
	}
	return nil
}

func (a *App) checkoutDismiss(ctx context.Context) error {
	if _, ok := a.checkout.PendingAttempt(ctx); !ok {
		fmt.Fprintln(a.stdout, "No unfinished checkout.")
		return nil
	}
	if err := a.checkout.DismissAttempt(ctx); err != nil {
		return fmt.Errorf("dismiss checkout attempt: %w", err)
	}
	fmt.Fprintln(a.stdout, "Unfinished checkout dismissed.")
	return nil
}
