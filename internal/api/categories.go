package api

import (
	"context"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type categoryWire struct {
	ID          *int64 `json:"id_key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func categoryFromWire(endpoint string, w categoryWire) (domain.Category, error) {
	if w.ID == nil {
		return domain.Category{}, malformed(endpoint, "category without id_key")
	}
	return domain.Category{ID: *w.ID, Name: w.Name, Description: w.Description}, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var resp []categoryWire
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &resp); err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(resp))
	for _, w := range resp {
		cat, err := categoryFromWire("list categories", w)
		if err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, nil
}
