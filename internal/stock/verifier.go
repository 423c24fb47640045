package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/domain"
)

const defaultConcurrency = 4

// ProductLookup fetches the current remote state of a product.
type ProductLookup interface {
	GetProduct(ctx context.Context, id domain.ProductID) (domain.Product, error)
}

// Outcome is the result of one verification. Results holds one entry per
// requested item in request order; Failures is the subset that failed.
type Outcome struct {
	Success  bool
	Results  []domain.StockCheckResult
	Failures []domain.StockCheckResult
}

// Verifier confirms requested quantities are available. The check is
// advisory: nothing is reserved, the backend re-checks on decrement.
type Verifier struct {
	products    ProductLookup
	concurrency int
	logger      *slog.Logger
}

type Option func(*Verifier)

func WithConcurrency(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

func NewVerifier(products ProductLookup, logger *slog.Logger, opts ...Option) *Verifier {
	v := &Verifier{
		products:    products,
		concurrency: defaultConcurrency,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify looks up every item and compares its stock with the requested
// quantity. Per-item lookup failures become failed results. Only errors
// that invalidate the whole attempt are returned: rejected credentials
// and context cancellation.
func (v *Verifier) Verify(ctx context.Context, items []domain.StockRequest) (Outcome, error) {
	results := make([]domain.StockCheckResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)

	for i, item := range items {
		g.Go(func() error {
			result, err := v.check(gctx, item)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Success: true, Results: results}
	for _, r := range results {
		if !r.Success {
			out.Success = false
			out.Failures = append(out.Failures, r)
		}
	}

	if !out.Success {
		v.logger.Info("stock verification failed", "items", len(items), "failures", len(out.Failures))
	}
	return out, nil
}

func (v *Verifier) check(ctx context.Context, item domain.StockRequest) (domain.StockCheckResult, error) {
	result := domain.StockCheckResult{
		ProductID:         item.ProductID,
		Name:              item.Name,
		RequestedQuantity: item.Quantity,
	}

	if item.Quantity <= 0 {
		result.Message = fmt.Sprintf("invalid quantity %d", item.Quantity)
		return result, nil
	}

	product, err := v.products.GetProduct(ctx, item.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrUnauthorized), errors.Is(err, api.ErrForbidden):
			return result, fmt.Errorf("check stock for product %d: %w", item.ProductID, err)
		case errors.Is(err, context.Canceled):
			return result, err
		case errors.Is(err, api.ErrNotFound):
			result.Message = "product not found"
		default:
			v.logger.Warn("stock lookup failed", "product_id", item.ProductID, "error", err)
			result.Message = "stock lookup failed: " + lookupReason(err)
		}
		return result, nil
	}

	if result.Name == "" {
		result.Name = product.Name
	}
	available := product.Stock
	result.AvailableStock = &available

	if item.Quantity > available {
		result.Message = fmt.Sprintf("insufficient stock: %d available, %d requested", available, item.Quantity)
		return result, nil
	}

	result.Success = true
	return result, nil
}

func lookupReason(err error) string {
	if detail := api.Detail(err); detail != "" {
		return detail
	}
	if errors.Is(err, api.ErrTransport) {
		return "backend unreachable"
	}
	return err.Error()
}
