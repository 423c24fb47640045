package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type productWire struct {
	ID         *int64           `json:"id_key"`
	Name       string           `json:"name"`
	Price      *decimal.Decimal `json:"price"`
	Stock      *int             `json:"stock"`
	CategoryID int64            `json:"category_id"`
}

func productFromWire(endpoint string, w productWire) (domain.Product, error) {
	if w.ID == nil {
		return domain.Product{}, malformed(endpoint, "product without id_key")
	}
	if w.Stock == nil {
		return domain.Product{}, malformed(endpoint, fmt.Sprintf("product %d without stock", *w.ID))
	}
	p := domain.Product{
		ID:         domain.ProductID(*w.ID),
		Name:       w.Name,
		Stock:      *w.Stock,
		CategoryID: w.CategoryID,
	}
	if w.Price != nil {
		p.Price = *w.Price
	}
	return p, nil
}

func (c *Client) ListProducts(ctx context.Context, skip, limit int) ([]domain.Product, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	var resp []productWire
	if err := c.do(ctx, http.MethodGet, "/products?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(resp))
	for _, w := range resp {
		p, err := productFromWire("list products", w)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// GetProduct returns the product including its current stock.
func (c *Client) GetProduct(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	var resp productWire
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &resp); err != nil {
		return domain.Product{}, err
	}
	return productFromWire("get product", resp)
}

type setStockRequest struct {
	Stock int `json:"stock"`
}

// SetProductStock overwrites the absolute stock of a product. Admin only.
func (c *Client) SetProductStock(ctx context.Context, id domain.ProductID, stock int) (domain.Product, error) {
	var resp productWire
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/products/%d", id), setStockRequest{Stock: stock}, &resp); err != nil {
		return domain.Product{}, err
	}
	return productFromWire("set product stock", resp)
}

type adjustStockRequest struct {
	Items []domain.StockDelta `json:"items"`
}

type adjustStockResponse struct {
	Results []domain.StockAdjustment `json:"results"`
}

// PartialFailureError reports the items a batch stock adjustment could not
// apply. The other items were applied.
type PartialFailureError struct {
	Failed []domain.StockAdjustment
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("stock adjustment failed for %d item(s)", len(e.Failed))
}

func (e *PartialFailureError) Unwrap() error {
	return ErrPartialFailure
}

// AdjustStock applies signed deltas to product stock in one batch.
func (c *Client) AdjustStock(ctx context.Context, deltas []domain.StockDelta) ([]domain.StockAdjustment, error) {
	var resp adjustStockResponse
	if err := c.do(ctx, http.MethodPost, "/products/stock/batch", adjustStockRequest{Items: deltas}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) != len(deltas) {
		return nil, malformed("adjust stock", fmt.Sprintf("expected %d results, got %d", len(deltas), len(resp.Results)))
	}

	var failed []domain.StockAdjustment
	for _, r := range resp.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		return resp.Results, &PartialFailureError{Failed: failed}
	}
	return resp.Results, nil
}
