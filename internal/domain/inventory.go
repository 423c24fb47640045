package domain

// StockRequest asks whether Quantity units of a product can be sold.
type StockRequest struct {
	ProductID ProductID
	Name      string
	Quantity  int
}

// StockCheckResult is the per-line outcome of a stock verification. It only
// lives for the duration of one checkout attempt.
type StockCheckResult struct {
	ProductID         ProductID `json:"product_id"`
	Name              string    `json:"name,omitempty"`
	Success           bool      `json:"success"`
	AvailableStock    *int      `json:"available_stock,omitempty"`
	RequestedQuantity int       `json:"requested_quantity"`
	Message           string    `json:"message,omitempty"`
}

type StockDelta struct {
	ProductID ProductID `json:"product_id"`
	Delta     int       `json:"delta"`
}

type StockAdjustment struct {
	ProductID ProductID `json:"product_id"`
	Success   bool      `json:"success"`
	Stock     int       `json:"stock"`
	Error     string    `json:"error,omitempty"`
}
