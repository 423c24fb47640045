package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/orders"
)

// userErrors are domain errors whose message is shown as is.
var userErrors = []error{
	domain.ErrAdminCannotReview,
	domain.ErrReviewTargetRequired,
	domain.ErrInvalidRating,
	domain.ErrInvalidQuantity,
	domain.ErrIncompleteAddress,
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return capitalize(target.Error()) + "."
		}
	}

	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "You are not logged in. Run 'storefront login' first."
	case errors.Is(err, domain.ErrOrderNotCancelable):
		return "This order can no longer be canceled."
	case errors.Is(err, domain.ErrAlreadyReviewed):
		return "You already reviewed this product for this order."
	case errors.Is(err, domain.ErrAdminAccountProtected):
		return "The administrator account cannot be deleted."
	case errors.Is(err, domain.ErrEmptyProfileUpdate):
		return "Nothing to update. Pass at least one of --name, --lastname, --email or --telephone."
	case errors.Is(err, api.ErrUnauthorized):
		return "Your session has expired. Please log in again."
	case errors.Is(err, api.ErrForbidden):
		if d := api.Detail(err); d != "" {
			return "Not allowed: " + d
		}
		return "Not allowed: this action requires the administrator account."
	case errors.Is(err, api.ErrConflict):
		if d := api.Detail(err); d != "" {
			return "Conflict: " + d
		}
		return "The store rejected the change as conflicting."
	case errors.Is(err, api.ErrRateLimited):
		wait, _ := api.RetryAfter(err)
		return fmt.Sprintf("Too many requests. Try again in %s.", wait.Round(time.Second))
	case errors.Is(err, api.ErrTransport):
		return "The store is not reachable right now. Please try again."
	case errors.Is(err, api.ErrMalformedResponse):
		return "The store sent a response this client does not understand."
	}
	if d := api.Detail(err); d != "" {
		return d
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func describeActor(a domain.Actor) string {
	if a.IsAdmin() {
		return fmt.Sprintf("%s <%s> (administrator)", a.Name, a.Email)
	}
	return fmt.Sprintf("%s <%s> (client #%d)", a.Name, a.Email, a.ID)
}

func describeRating(s domain.RatingSummary) string {
	if s.AverageRating == nil || s.ReviewCount == 0 {
		return "no reviews yet"
	}
	return fmt.Sprintf("%.1f / 5 from %d review(s)", *s.AverageRating, s.ReviewCount)
}

func stars(rating int) string {
	rating = min(max(rating, 0), domain.MaxRating)
	return strings.Repeat("*", rating) + strings.Repeat(".", domain.MaxRating-rating)
}

func productIDOf(id int64) domain.ProductID {
	return domain.ProductID(id)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printProducts(w io.Writer, products []domain.Product, category func(id int64) string) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		name := category(p.CategoryID)
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", p.ID, p.Name, name, p.Price.StringFixed(2), p.Stock)
	}
	_ = tw.Flush()
}

func printProfile(w io.Writer, p domain.ClientProfile) {
	fmt.Fprintf(w, "#%d %s\n", p.ID, p.FullName())
	fmt.Fprintf(w, "Email: %s\n", p.Email)
	if p.Telephone != "" {
		fmt.Fprintf(w, "Telephone: %s\n", p.Telephone)
	}
}

func printClients(w io.Writer, page domain.ClientPage) {
	if len(page.Items) == 0 {
		fmt.Fprintln(w, "No clients found.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tTELEPHONE")
	for _, c := range page.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.FullName(), c.Email, c.Telephone)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Page %d of %d, %d client(s)\n", page.Page, page.Pages, page.Total)
}

func printAddresses(w io.Writer, list []domain.Address) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No saved addresses.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTYPE\tADDRESS")
	for _, a := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", a.ID, a.Type, a.String())
	}
	_ = tw.Flush()
}

func printCart(w io.Writer, lines []domain.CartLine, count int, total decimal.Decimal) {
	if len(lines) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tUNIT\tSUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", l.ProductID, l.Name, l.Quantity, l.UnitPrice.StringFixed(2), l.Subtotal().StringFixed(2))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d item(s), total %s\n", count, total.StringFixed(2))
}

func printOrders(w io.Writer, list []domain.Order, withClient bool) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No orders yet.")
		return
	}
	tw := newTable(w)
	if withClient {
		fmt.Fprintln(tw, "ORDER\tCLIENT\tSTATUS\tDELIVERY\tTOTAL")
	} else {
		fmt.Fprintln(tw, "ORDER\tSTATUS\tDELIVERY\tTOTAL")
	}
	for _, o := range list {
		if withClient {
			fmt.Fprintf(tw, "#%d\t%d\t%s\t%s\t%s\n", o.ID, o.ClientID, o.Status, o.DeliveryMethod, o.Total.StringFixed(2))
		} else {
			fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\n", o.ID, o.Status, o.DeliveryMethod, o.Total.StringFixed(2))
		}
	}
	_ = tw.Flush()
}

func printOrderLines(w io.Writer, lines []domain.OrderLine) {
	if len(lines) == 0 {
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "PRODUCT\tQTY\tPRICE")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%d\t%s\n", l.ProductID, l.Quantity, l.UnitPrice.StringFixed(2))
	}
	_ = tw.Flush()
}

func printReceipt(w io.Writer, r orders.Receipt) {
	fmt.Fprintf(w, "Receipt for order #%d\n", r.OrderID)
	printOrderLines(w, r.Lines)
	if r.Bill == nil {
		fmt.Fprintln(w, "No bill has been issued yet.")
		return
	}
	fmt.Fprintf(w, "Bill %s dated %s\n", r.Bill.BillNumber, r.Bill.Date)
	if !r.Bill.Discount.IsZero() {
		fmt.Fprintf(w, "Discount: %s\n", r.Bill.Discount.StringFixed(2))
	}
	fmt.Fprintf(w, "Total: %s paid by %s\n", r.Bill.Total.StringFixed(2), r.Bill.PaymentType)
}

func printReviews(w io.Writer, list []domain.Review) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No reviews.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "REVIEW\tPRODUCT\tORDER\tRATING\tCOMMENT")
	for _, r := range list {
		fmt.Fprintf(tw, "#%d\t%d\t%d\t%s\t%s\n", r.ID, r.ProductID, r.OrderID, stars(r.Rating), r.Comment)
	}
	_ = tw.Flush()
}

func printRating(w io.Writer, s domain.RatingSummary) {
	fmt.Fprintf(w, "Rating: %s\n", describeRating(s))
	if s.ReviewCount == 0 {
		return
	}
	for rating := domain.MaxRating; rating >= domain.MinRating; rating-- {
		fmt.Fprintf(w, "  %s  %d\n", stars(rating), s.RatingDistribution[rating])
	}
}
