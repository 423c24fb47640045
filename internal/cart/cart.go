package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// Cart is the in-memory cart of the current profile. Every mutation is
// written through to the Store; the in-memory state is updated even when the
// write fails, and the write error is returned.
type Cart struct {
	mu    sync.Mutex
	store *Store
	lines []domain.CartLine
}

// New re-hydrates the cart from the store.
func New(ctx context.Context, store *Store) *Cart {
	return &Cart{
		store: store,
		lines: store.Load(ctx),
	}
}

// AddItem adds quantity units of product, merging into the existing line for
// the same product id.
func (c *Cart) AddItem(ctx context.Context, product domain.Product, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(product.ID); i >= 0 {
		c.lines[i].Quantity += quantity
	} else {
		c.lines = append(c.lines, domain.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  quantity,
		})
	}
	return c.persist(ctx)
}

// RemoveItem is a no-op when the product is not in the cart.
func (c *Cart) RemoveItem(ctx context.Context, productID domain.ProductID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = slices.DeleteFunc(c.lines, func(l domain.CartLine) bool {
		return l.ProductID == productID
	})
	return c.persist(ctx)
}

// SetQuantity overwrites the quantity of a line; quantity <= 0 removes it.
func (c *Cart) SetQuantity(ctx context.Context, productID domain.ProductID, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(ctx, productID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(productID); i >= 0 {
		c.lines[i].Quantity = quantity
	}
	return c.persist(ctx)
}

func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = []domain.CartLine{}
	return c.persist(ctx)
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.lines)
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.lines) == 0
}

func (c *Cart) TotalItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Total(c.lines)
}

// Total sums unit price times quantity over lines.
func Total(lines []domain.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) indexOf(id domain.ProductID) int {
	return slices.IndexFunc(c.lines, func(l domain.CartLine) bool {
		return l.ProductID == id
	})
}

func (c *Cart) persist(ctx context.Context) error {
	return c.store.Save(ctx, c.lines)
}
