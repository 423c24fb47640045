package cli

import (
	"context"
	"fmt"

	"github.com/joao-fontenele/storefront/internal/api"
)

func (a *App) runOrders(ctx context.Context, args []string) error {
	fs := a.flagSet("orders")
	all := fs.Bool("all", false, "list every order in the store (administrator only)")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	if *all {
		list, err := a.orders.AllOrders(ctx)
		if err != nil {
			return err
		}
		printOrders(a.stdout, list, true)
		return nil
	}

	actor, err := a.session.RequireActor(ctx)
	if err != nil {
		return err
	}
	if actor.IsAdmin() {
		fmt.Fprintln(a.stdout, "The administrator has no personal orders. Use 'storefront orders --all'.")
		return nil
	}

	list, err := a.orders.MyOrders(ctx)
	if err != nil {
		return err
	}
	printOrders(a.stdout, list, false)
	return nil
}

func (a *App) runOrder(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usagef("")
	}
	id, err := parseOrderID(args[1])
	if err != nil {
		return err
	}

	switch args[0] {
	case "details":
		lines, err := a.orders.Details(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Order #%d\n", id)
		printOrderLines(a.stdout, lines)
		return nil

	case "cancel":
		res, err := a.orders.Cancel(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Order #%d canceled. Stock restored for %d line(s).\n", res.OrderID, res.StockRestored)
		return nil

	case "deliver":
		order, err := a.orders.Deliver(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Order #%d is now %s.\n", order.ID, order.Status)
		return nil

	case "receipt":
		receipt, err := a.orders.Receipt(ctx, id)
		if err != nil {
			return err
		}
		printReceipt(a.stdout, receipt)
		return nil

	default:
		return usagef("unknown order action %q", args[0])
	}
}

func (a *App) runReviews(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usagef("")
	}
	action, args := args[0], args[1:]

	switch action {
	case "product":
		if len(args) != 1 {
			return usagef("reviews product takes a product id")
		}
		id, err := parseProductID(args[0])
		if err != nil {
			return err
		}
		listing, err := a.reviews.ForProduct(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Rating: %s\n", describeRating(listing.Summary))
		printReviews(a.stdout, listing.Reviews)
		return nil

	case "rating":
		if len(args) != 1 {
			return usagef("reviews rating takes a product id")
		}
		id, err := parseProductID(args[0])
		if err != nil {
			return err
		}
		summary, err := a.reviews.Rating(ctx, id)
		if err != nil {
			return err
		}
		printRating(a.stdout, summary)
		return nil

	case "mine":
		list, err := a.reviews.Mine(ctx)
		if err != nil {
			return err
		}
		printReviews(a.stdout, list)
		return nil

	case "order":
		if len(args) != 1 {
			return usagef("reviews order takes an order id")
		}
		id, err := parseOrderID(args[0])
		if err != nil {
			return err
		}
		list, err := a.reviews.ForOrder(ctx, id)
		if err != nil {
			return err
		}
		printReviews(a.stdout, list)
		return nil

	case "create":
		fs := a.flagSet("reviews create")
		var in api.ReviewInput
		product := fs.Int64("product", 0, "product id")
		fs.Int64Var(&in.OrderID, "order", 0, "order id the product was bought in")
		fs.IntVar(&in.Rating, "rating", 0, "rating from 1 to 5")
		fs.StringVar(&in.Comment, "comment", "", "optional comment")
		if _, err := parseArgs(fs, args); err != nil {
			return err
		}
		in.ProductID = productIDOf(*product)

		review, err := a.reviews.Create(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Review #%d saved: %s\n", review.ID, stars(review.Rating))
		return nil

	case "can-review":
		fs := a.flagSet("reviews can-review")
		product := fs.Int64("product", 0, "product id")
		order := fs.Int64("order", 0, "order id")
		if _, err := parseArgs(fs, args); err != nil {
			return err
		}
		if *product <= 0 || *order <= 0 {
			return usagef("product and order are required")
		}
		ok, err := a.reviews.CanReview(ctx, productIDOf(*product), *order)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintln(a.stdout, "You can review this product.")
		} else {
			fmt.Fprintln(a.stdout, "This product cannot be reviewed for this order.")
		}
		return nil

	case "update":
		fs := a.flagSet("reviews update")
		var in api.ReviewUpdate
		fs.IntVar(&in.Rating, "rating", 0, "rating from 1 to 5")
		fs.StringVar(&in.Comment, "comment", "", "optional comment")
		rest, err := parseArgs(fs, args)
		if err != nil {
			return err
		}
		if len(rest) != 1 {
			return usagef("reviews update takes a review id")
		}
		id, err := parseOrderID(rest[0])
		if err != nil {
			return usagef("invalid review id %q", rest[0])
		}
		review, err := a.reviews.Update(ctx, id, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Review #%d updated: %s\n", review.ID, stars(review.Rating))
		return nil

	case "delete":
		if len(args) != 1 {
			return usagef("reviews delete takes a review id")
		}
		id, err := parseOrderID(args[0])
		if err != nil {
			return usagef("invalid review id %q", args[0])
		}
		if err := a.reviews.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Review #%d deleted.\n", id)
		return nil

	default:
		return usagef("unknown reviews action %q", action)
	}
}
