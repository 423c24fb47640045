package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/joao-fontenele/storefront/internal/account"
	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/clock"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/reviews"
	"github.com/joao-fontenele/storefront/internal/session"
	"github.com/joao-fontenele/storefront/internal/stock"
	"github.com/joao-fontenele/storefront/internal/storage"
)

const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Options carries the dependencies the CLI does not build itself.
type Options struct {
	Store      storage.Store
	HTTPClient *http.Client
	Clock      clock.Clock

	// Events and CompensationFailed receive checkout events. Leave them nil
	// when no broker is configured.
	Events             checkout.Publisher
	CompensationFailed checkout.Publisher
}

// App wires the storefront components for one profile and dispatches
// sub-commands to them.
type App struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger

	client   *api.Client
	session  *session.Session
	cart     *cart.Cart
	checkout *checkout.Orchestrator
	orders   *orders.Service
	reviews  *reviews.Service
	accounts *account.Service

	categories *catalog.Categories

	commands map[string]command
}

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
	// quiet commands skip the unsettled checkout warning.
	quiet bool
}

func New(ctx context.Context, cfg config.Config, opts Options, stdout, stderr io.Writer, logger *slog.Logger) (*App, error) {
	if opts.Store == nil {
		return nil, errors.New("cli: storage is required")
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = api.NewHTTPClient(cfg.HTTPTimeout)
	}

	var apiOpts []api.Option
	if cfg.HealthURL != "" {
		apiOpts = append(apiOpts, api.WithHealthURL(cfg.HealthURL))
	}

	tokens := session.NewTokens(opts.Store, clk, logger)
	client := api.NewClient(cfg.APIURL, httpClient, tokens, logger, apiOpts...)
	sess := session.New(opts.Store, tokens, client, logger)
	c := cart.New(ctx, cart.NewStore(opts.Store, logger))

	orch, err := checkout.New(c, sess, stock.NewVerifier(client, logger), client,
		checkout.NewJournal(opts.Store, clk, logger), logger,
		checkout.WithClock(clk),
		checkout.WithEvents(opts.Events, opts.CompensationFailed),
	)
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}

	a := &App{
		stdout:   stdout,
		stderr:   stderr,
		logger:   logger,
		client:   client,
		session:  sess,
		cart:     c,
		checkout: orch,
		orders:   orders.NewService(client, sess, logger),
		reviews:  reviews.NewService(client, sess, logger),
		accounts: account.NewService(client, sess, logger),

		categories: catalog.NewCategories(client, logger),
	}
	a.commands = map[string]command{
		"health":   {usage: "health", run: a.runHealth, quiet: true},
		"login":    {usage: "login --email EMAIL --password PASSWORD", run: a.runLogin},
		"register": {usage: "register --name NAME [--lastname NAME] --email EMAIL --password PASSWORD [--telephone PHONE]", run: a.runRegister},
		"logout":   {usage: "logout", run: a.runLogout, quiet: true},
		"whoami":   {usage: "whoami", run: a.runWhoami},
		"products": {usage: "products [--skip N] [--limit N]", run: a.runProducts},
		"product":  {usage: "product <id>", run: a.runProduct},
		"cart":     {usage: "cart [show | add <id> [qty] | remove <id> | set <id> <qty> | clear]", run: a.runCart},
		"checkout": {usage: "checkout --delivery on-hand|drive-thru|home-delivery [--address ADDRESS] [--confirm-admin] | checkout status | checkout dismiss", run: a.runCheckout},
		"orders":   {usage: "orders [--all]", run: a.runOrders},
		"order":    {usage: "order details|cancel|deliver|receipt <id>", run: a.runOrder},
		"reviews":  {usage: "reviews product|rating|order <id> | reviews mine | reviews create|update|delete|can-review ...", run: a.runReviews},
		"stock":    {usage: "stock set <product-id> <stock>", run: a.runStock},
		"profile":  {usage: "profile [show | update [--name NAME] [--lastname NAME] [--email EMAIL] [--telephone PHONE] | delete --confirm | addresses | address add --street STREET --city CITY [--state STATE] [--zip ZIP] | store-address]", run: a.runProfile},
		"clients":  {usage: "clients [list [--page N] [--limit N] | search <query> [--page N] [--limit N] | show <id> | delete <id>]", run: a.runClients},
	}
	return a, nil
}

// Run executes one sub-command and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage()
		if len(args) == 0 {
			return ExitUsage
		}
		return ExitOK
	}

	cmd, ok := a.commands[args[0]]
	if !ok {
		fmt.Fprintf(a.stderr, "unknown command %q\n\n", args[0])
		a.usage()
		return ExitUsage
	}

	if !cmd.quiet && !isCheckoutMaintenance(args) {
		a.warnPendingAttempt(ctx)
	}

	err := cmd.run(ctx, args[1:])
	if err == nil {
		return ExitOK
	}

	var ue usageError
	if errors.As(err, &ue) {
		if ue.msg != "" {
			fmt.Fprintln(a.stderr, ue.msg)
		}
		fmt.Fprintf(a.stderr, "usage: storefront %s\n", cmd.usage)
		return ExitUsage
	}
	if errors.Is(err, flag.ErrHelp) {
		return ExitOK
	}
	if errors.Is(err, errCheckoutFailed) {
		return ExitFailure
	}

	a.logger.Debug("command failed", "command", args[0], "error", err)
	fmt.Fprintln(a.stderr, describe(err))
	return ExitFailure
}

func (a *App) usage() {
	names := make([]string, 0, len(a.commands))
	for name := range a.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.stderr, "usage: storefront <command> [arguments]")
	fmt.Fprintln(a.stderr)
	fmt.Fprintln(a.stderr, "commands:")
	for _, name := range names {
		fmt.Fprintf(a.stderr, "  %s\n", a.commands[name].usage)
	}
}

func (a *App) warnPendingAttempt(ctx context.Context) {
	attempt, ok := a.checkout.PendingAttempt(ctx)
	if !ok {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Warning: checkout attempt %s started %s did not finish (last step: %s).",
		attempt.ID, attempt.StartedAt.Format("2006-01-02 15:04"), attempt.Step)
	if attempt.OrderID > 0 {
		fmt.Fprintf(&b, " Order #%d may exist on the store", attempt.OrderID)
		if attempt.CompensationFailed {
			b.WriteString(" and could not be canceled automatically")
		}
		b.WriteString(".")
	}
	if attempt.OrderOutcomeUnknown {
		b.WriteString(" The store did not confirm whether the order was created.")
	}
	b.WriteString(" Check 'storefront orders', then run 'storefront checkout dismiss'.")
	if attempt.NeedsAttention() {
		b.WriteString(" New checkouts are blocked until then.")
	}
	fmt.Fprintln(a.stderr, b.String())
}

func isCheckoutMaintenance(args []string) bool {
	return len(args) > 1 && args[0] == "checkout" && (args[1] == "status" || args[1] == "dismiss")
}

type usageError struct {
	msg string
}

func (e usageError) Error() string {
	if e.msg == "" {
		return "invalid usage"
	}
	return e.msg
}

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parseArgs parses flags that may appear before, between or after the
// positional arguments and returns the positionals.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, usageError{}
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}
