package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// OrderRequest is the full cart snapshot sent when creating an order. The
// total is computed by the client and is authoritative.
type OrderRequest struct {
	ActorID        int64
	Total          decimal.Decimal
	DeliveryMethod domain.DeliveryMethod
	Address        string
	Lines          []domain.OrderLine
}

type orderDetailWire struct {
	ProductID domain.ProductID `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     json.Number      `json:"price"`
}

type createOrderRequest struct {
	ClientID       int64                 `json:"client_id_key"`
	Total          json.Number           `json:"total"`
	DeliveryMethod domain.DeliveryMethod `json:"delivery_method"`
	Status         domain.OrderStatus    `json:"status"`
	Address        string                `json:"address"`
	OrderDetails   []orderDetailWire     `json:"order_details"`
}

type orderLineWire struct {
	ProductID domain.ProductID `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
}

type orderWire struct {
	ID             *int64                `json:"id_key"`
	ClientID       int64                 `json:"client_id_key"`
	Total          decimal.Decimal       `json:"total"`
	DeliveryMethod domain.DeliveryMethod `json:"delivery_method"`
	Status         domain.OrderStatus    `json:"status"`
	Address        string                `json:"address"`
	OrderDetails   []orderLineWire       `json:"order_details"`
}

// Money renders a monetary value the way the backend expects it: a JSON
// number rounded to two decimals.
func Money(d decimal.Decimal) json.Number {
	return json.Number(d.Round(2).StringFixed(2))
}

func orderFromWire(endpoint string, w orderWire) (domain.Order, error) {
	if w.ID == nil {
		return domain.Order{}, malformed(endpoint, "order without id_key")
	}
	o := domain.Order{
		ID:             *w.ID,
		ClientID:       w.ClientID,
		Total:          w.Total,
		DeliveryMethod: w.DeliveryMethod,
		Status:         w.Status,
		Address:        w.Address,
	}
	for _, d := range w.OrderDetails {
		o.Lines = append(o.Lines, domain.OrderLine{ProductID: d.ProductID, Quantity: d.Quantity, UnitPrice: d.Price})
	}
	return o, nil
}

func (c *Client) CreateOrder(ctx context.Context, in OrderRequest) (domain.Order, error) {
	req := createOrderRequest{
		ClientID:       in.ActorID,
		Total:          Money(in.Total),
		DeliveryMethod: in.DeliveryMethod,
		Status:         domain.OrderStatusPending,
		Address:        in.Address,
		OrderDetails:   make([]orderDetailWire, 0, len(in.Lines)),
	}
	for _, l := range in.Lines {
		req.OrderDetails = append(req.OrderDetails, orderDetailWire{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     Money(l.UnitPrice),
		})
	}

	var resp orderWire
	if err := c.do(ctx, http.MethodPost, "/orders", req, &resp); err != nil {
		return domain.Order{}, err
	}
	return orderFromWire("create order", resp)
}

func (c *Client) listOrders(ctx context.Context, endpoint, path string) ([]domain.Order, error) {
	var resp []orderWire
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(resp))
	for _, w := range resp {
		o, err := orderFromWire(endpoint, w)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (c *Client) OrdersByClient(ctx context.Context, clientID int64) ([]domain.Order, error) {
	return c.listOrders(ctx, "orders by client", fmt.Sprintf("/orders/client/%d", clientID))
}

// AllOrders lists every order. The backend answers 403 for non-admin actors.
func (c *Client) AllOrders(ctx context.Context) ([]domain.Order, error) {
	return c.listOrders(ctx, "all orders", "/orders")
}

func (c *Client) OrderDetails(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	var resp []orderLineWire
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%d/details", orderID), nil, &resp); err != nil {
		return nil, err
	}
	lines := make([]domain.OrderLine, 0, len(resp))
	for _, d := range resp {
		lines = append(lines, domain.OrderLine{ProductID: d.ProductID, Quantity: d.Quantity, UnitPrice: d.Price})
	}
	return lines, nil
}

type CancelResult struct {
	OrderID       int64
	StockRestored int
}

type cancelResponse struct {
	Success       bool  `json:"success"`
	OrderID       int64 `json:"order_id"`
	StockRestored int   `json:"stock_restored"`
}

// CancelOrder asks the backend to cancel an order and restore its stock. The
// backend answers 400 when the order is already delivered or canceled.
func (c *Client) CancelOrder(ctx context.Context, orderID int64) (CancelResult, error) {
	var resp cancelResponse
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/cancel", orderID), nil, &resp); err != nil {
		return CancelResult{}, err
	}
	if !resp.Success {
		return CancelResult{}, malformed("cancel order", "backend did not confirm the cancellation")
	}
	return CancelResult{OrderID: orderID, StockRestored: resp.StockRestored}, nil
}

func (c *Client) MarkDelivered(ctx context.Context, orderID int64) (domain.Order, error) {
	var resp orderWire
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/deliver", orderID), nil, &resp); err != nil {
		return domain.Order{}, err
	}
	return orderFromWire("mark delivered", resp)
}
