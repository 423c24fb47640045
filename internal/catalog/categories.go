package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type CategorySource interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// Categories resolves category ids to names. The list is fetched once per
// process; when the backend fails the built-in list is used instead.
type Categories struct {
	source CategorySource
	logger *slog.Logger

	mu    sync.Mutex
	names map[int64]string
}

func NewCategories(source CategorySource, logger *slog.Logger) *Categories {
	return &Categories{source: source, logger: logger}
}

// Name returns the category name, "Category N" for an id the list does not
// know, and "" for an uncategorized product.
func (c *Categories) Name(ctx context.Context, id int64) string {
	if id <= 0 {
		return ""
	}
	if name, ok := c.load(ctx)[id]; ok {
		return name
	}
	return fmt.Sprintf("Category %d", id)
}

func (c *Categories) load(ctx context.Context) map[int64]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.names != nil {
		return c.names
	}

	categories, err := c.source.ListCategories(ctx)
	if err != nil || len(categories) == 0 {
		c.logger.Debug("using built-in categories", "error", err)
		categories = domain.DefaultCategories()
	}

	c.names = make(map[int64]string, len(categories))
	for _, cat := range categories {
		c.names[cat.ID] = cat.Name
	}
	return c.names
}
