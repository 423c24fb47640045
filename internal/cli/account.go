package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func (a *App) runProfile(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}

	switch args[0] {
	case "show":
		if len(args) != 1 {
			return usagef("profile show takes no arguments")
		}
		p, err := a.accounts.Profile(ctx)
		if err != nil {
			return err
		}
		printProfile(a.stdout, p)
		return nil

	case "update":
		fs := a.flagSet("profile update")
		var u domain.ProfileUpdate
		fs.StringVar(&u.Name, "name", "", "first name")
		fs.StringVar(&u.LastName, "lastname", "", "last name")
		fs.StringVar(&u.Email, "email", "", "account email")
		fs.StringVar(&u.Telephone, "telephone", "", "phone number")
		rest, err := parseArgs(fs, args[1:])
		if err != nil {
			return err
		}
		if len(rest) > 0 {
			return usagef("unexpected argument %q", rest[0])
		}
		p, err := a.accounts.UpdateProfile(ctx, u)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "Profile updated.")
		printProfile(a.stdout, p)
		return nil

	case "delete":
		fs := a.flagSet("profile delete")
		confirm := fs.Bool("confirm", false, "confirm the account deletion")
		if _, err := parseArgs(fs, args[1:]); err != nil {
			return err
		}
		if !*confirm {
			return usagef("deleting your account cannot be undone; pass --confirm")
		}
		if err := a.accounts.DeleteAccount(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "Account deleted. You are now logged out.")
		return nil

	case "addresses":
		list, err := a.accounts.Addresses(ctx)
		if err != nil {
			return err
		}
		printAddresses(a.stdout, list)
		return nil

	case "address":
		if len(args) < 2 || args[1] != "add" {
			return usagef("")
		}
		fs := a.flagSet("profile address add")
		var addr domain.Address
		fs.StringVar(&addr.Street, "street", "", "street and number")
		fs.StringVar(&addr.City, "city", "", "city")
		fs.StringVar(&addr.State, "state", "", "state or province")
		fs.StringVar(&addr.ZipCode, "zip", "", "postal code")
		if _, err := parseArgs(fs, args[2:]); err != nil {
			return err
		}
		created, err := a.accounts.AddAddress(ctx, addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Address #%d saved: %s\n", created.ID, created)
		return nil

	case "store-address":
		addr := a.accounts.StoreAddress(ctx)
		fmt.Fprintf(a.stdout, "Store: %s\n", addr)
		return nil

	default:
		return usagef("unknown profile action %q", args[0])
	}
}

func (a *App) runClients(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list", "search":
		fs := a.flagSet("clients " + args[0])
		page := fs.Int("page", 1, "page number, starting at 1")
		limit := fs.Int("limit", 10, "clients per page")
		rest, err := parseArgs(fs, args[1:])
		if err != nil {
			return err
		}

		var res domain.ClientPage
		if args[0] == "list" {
			if len(rest) > 0 {
				return usagef("unexpected argument %q", rest[0])
			}
			res, err = a.accounts.Clients(ctx, *page, *limit)
		} else {
			query := strings.TrimSpace(strings.Join(rest, " "))
			if query == "" {
				return usagef("clients search takes a query")
			}
			res, err = a.accounts.SearchClients(ctx, query, *page, *limit)
		}
		if err != nil {
			return err
		}
		printClients(a.stdout, res)
		return nil

	case "show":
		if len(args) != 2 {
			return usagef("clients show takes a client id")
		}
		id, err := parseClientID(args[1])
		if err != nil {
			return err
		}
		p, err := a.accounts.Client(ctx, id)
		if err != nil {
			return err
		}
		printProfile(a.stdout, p)
		return nil

	case "delete":
		if len(args) != 2 {
			return usagef("clients delete takes a client id")
		}
		id, err := parseClientID(args[1])
		if err != nil {
			return err
		}
		if err := a.accounts.DeleteClient(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Client #%d deleted.\n", id)
		return nil

	default:
		return usagef("unknown clients action %q", args[0])
	}
}

func parseClientID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, usagef("invalid client id %q", s)
	}
	return id, nil
}
