package api

import (
	"context"
	"net/http"
)

type Health struct {
	Status string `json:"status"`
}

// Health checks the backend root health endpoint.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var resp Health
	if err := c.doURL(ctx, http.MethodGet, c.healthURL+"/health", "/health", nil, &resp); err != nil {
		return Health{}, err
	}
	if resp.Status == "" {
		resp.Status = "unknown"
	}
	return resp, nil
}
