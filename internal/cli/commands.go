package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func (a *App) runHealth(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return usagef("health takes no arguments")
	}
	h, err := a.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	fmt.Fprintf(a.stdout, "Backend status: %s\n", h.Status)
	return nil
}

func (a *App) runLogin(ctx context.Context, args []string) error {
	fs := a.flagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return usagef("email and password are required")
	}

	actor, err := a.session.Login(ctx, domain.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Logged in as %s.\n", describeActor(actor))
	return nil
}

func (a *App) runRegister(ctx context.Context, args []string) error {
	fs := a.flagSet("register")
	var reg domain.Registration
	fs.StringVar(&reg.Name, "name", "", "first name")
	fs.StringVar(&reg.LastName, "lastname", "", "last name")
	fs.StringVar(&reg.Email, "email", "", "account email")
	fs.StringVar(&reg.Password, "password", "", "account password")
	fs.StringVar(&reg.Telephone, "telephone", "", "phone number")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(reg.Name) == "" || reg.Email == "" || reg.Password == "" {
		return usagef("name, email and password are required")
	}

	actor, err := a.session.Register(ctx, reg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Welcome, %s. You are now logged in.\n", describeActor(actor))
	return nil
}

func (a *App) runLogout(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return usagef("logout takes no arguments")
	}
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Logged out. Your cart was kept.")
	return nil
}

func (a *App) runWhoami(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return usagef("whoami takes no arguments")
	}
	actor, ok := a.session.CurrentActor(ctx)
	if !ok {
		fmt.Fprintln(a.stdout, "Not logged in.")
		return nil
	}
	fmt.Fprintln(a.stdout, describeActor(actor))
	return nil
}

func (a *App) runProducts(ctx context.Context, args []string) error {
	fs := a.flagSet("products")
	skip := fs.Int("skip", 0, "products to skip")
	limit := fs.Int("limit", 50, "maximum products to list")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	products, err := a.client.ListProducts(ctx, *skip, *limit)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		fmt.Fprintln(a.stdout, "No products found.")
		return nil
	}
	printProducts(a.stdout, products, func(id int64) string { return a.categories.Name(ctx, id) })
	return nil
}

func (a *App) runProduct(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usagef("product takes exactly one product id")
	}
	id, err := parseProductID(args[0])
	if err != nil {
		return err
	}

	p, err := a.client.GetProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("get product %d: %w", id, err)
	}
	summary, err := a.reviews.Rating(ctx, id)
	if err != nil {
		a.logger.Debug("rating unavailable", "product_id", id, "error", err)
	}

	fmt.Fprintf(a.stdout, "#%d %s\n", p.ID, p.Name)
	if name := a.categories.Name(ctx, p.CategoryID); name != "" {
		fmt.Fprintf(a.stdout, "Category: %s\n", name)
	}
	fmt.Fprintf(a.stdout, "Price: %s\n", p.Price.StringFixed(2))
	fmt.Fprintf(a.stdout, "In stock: %d\n", p.Stock)
	fmt.Fprintf(a.stdout, "Rating: %s\n", describeRating(summary))
	return nil
}

func (a *App) runCart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}

	switch args[0] {
	case "show":
		printCart(a.stdout, a.cart.Lines(), a.cart.TotalItemCount(), a.cart.TotalPrice())
		return nil

	case "add":
		if len(args) < 2 || len(args) > 3 {
			return usagef("cart add takes a product id and an optional quantity")
		}
		id, err := parseProductID(args[1])
		if err != nil {
			return err
		}
		qty := 1
		if len(args) == 3 {
			if qty, err = parseQuantity(args[2]); err != nil {
				return err
			}
		}

		p, err := a.client.GetProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("get product %d: %w", id, err)
		}
		if err := a.cart.AddItem(ctx, p, qty); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		fmt.Fprintf(a.stdout, "Added %d x %s. Cart: %d item(s), total %s.\n",
			qty, p.Name, a.cart.TotalItemCount(), a.cart.TotalPrice().StringFixed(2))
		if p.Stock < qty {
			fmt.Fprintf(a.stdout, "Note: only %d in stock right now.\n", p.Stock)
		}
		return nil

	case "remove":
		if len(args) != 2 {
			return usagef("cart remove takes a product id")
		}
		id, err := parseProductID(args[1])
		if err != nil {
			return err
		}
		if err := a.cart.RemoveItem(ctx, id); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		fmt.Fprintf(a.stdout, "Removed product %d. Cart: %d item(s).\n", id, a.cart.TotalItemCount())
		return nil

	case "set":
		if len(args) != 3 {
			return usagef("cart set takes a product id and a quantity")
		}
		id, err := parseProductID(args[1])
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return usagef("invalid quantity %q", args[2])
		}
		if err := a.cart.SetQuantity(ctx, id, qty); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		fmt.Fprintf(a.stdout, "Cart: %d item(s), total %s.\n", a.cart.TotalItemCount(), a.cart.TotalPrice().StringFixed(2))
		return nil

	case "clear":
		if err := a.cart.Clear(ctx); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		fmt.Fprintln(a.stdout, "Cart cleared.")
		return nil

	default:
		return usagef("unknown cart action %q", args[0])
	}
}

func (a *App) runStock(ctx context.Context, args []string) error {
	if len(args) != 3 || args[0] != "set" {
		return usagef("")
	}
	id, err := parseProductID(args[1])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[2])
	if err != nil || n < 0 {
		return usagef("invalid stock %q", args[2])
	}
	if _, err := a.session.RequireActor(ctx); err != nil {
		return err
	}

	p, err := a.client.SetProductStock(ctx, id, n)
	if err != nil {
		return fmt.Errorf("set stock of product %d: %w", id, err)
	}
	fmt.Fprintf(a.stdout, "%s now has %d in stock.\n", p.Name, p.Stock)
	return nil
}

func parseProductID(s string) (domain.ProductID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid product id %q", s)
	}
	return domain.ProductID(id), nil
}

func parseOrderID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid order id %q", s)
	}
	return id, nil
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, usagef("invalid quantity %q", s)
	}
	return n, nil
}
