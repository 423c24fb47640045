package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type stubSource struct {
	categories []domain.Category
	err        error
	calls      int
}

func (s *stubSource) ListCategories(context.Context) ([]domain.Category, error) {
	s.calls++
	return s.categories, s.err
}

func TestCategories_Name(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("fetches once", func(t *testing.T) {
		src := &stubSource{categories: []domain.Category{{ID: 3, Name: "Kitchen"}}}
		c := NewCategories(src, logger)

		if got := c.Name(ctx, 3); got != "Kitchen" {
			t.Errorf("expected Kitchen, got %q", got)
		}
		if got := c.Name(ctx, 4); got != "Category 4" {
			t.Errorf("expected Category 4, got %q", got)
		}
		if src.calls != 1 {
			t.Errorf("expected 1 fetch, got %d", src.calls)
		}
	})

	t.Run("falls back to built-in list", func(t *testing.T) {
		src := &stubSource{err: errors.New("boom")}
		c := NewCategories(src, logger)

		if got := c.Name(ctx, 1); got != "Electronics" {
			t.Errorf("expected Electronics, got %q", got)
		}
	})

	t.Run("uncategorized", func(t *testing.T) {
		src := &stubSource{}
		c := NewCategories(src, logger)

		if got := c.Name(ctx, 0); got != "" {
			t.Errorf("expected empty name, got %q", got)
		}
		if src.calls != 0 {
			t.Errorf("expected no fetch, got %d", src.calls)
		}
	})
}
