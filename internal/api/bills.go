package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// BillForOrder fetches the receipt the backend issued for an order.
func (c *Client) BillForOrder(ctx context.Context, orderID int64) (domain.Bill, error) {
	var resp domain.Bill
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/bills/order/%d", orderID), nil, &resp); err != nil {
		return domain.Bill{}, err
	}
	if resp.BillNumber == "" {
		return domain.Bill{}, malformed("bill for order", "bill without bill_number")
	}
	return resp, nil
}
