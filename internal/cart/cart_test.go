package cart

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/logging"
	"github.com/joao-fontenele/storefront/internal/storage"
)

var (
	widget = domain.Product{ID: 7, Name: "Widget", Price: decimal.RequireFromString("10.00"), Stock: 25}
	mug    = domain.Product{ID: 3, Name: "Ceramic mug", Price: decimal.RequireFromString("8.50"), Stock: 100}
)

type failingStore struct {
	storage.Store
	err error
}

func (f failingStore) Put(context.Context, string, []byte) error {
	return f.err
}

func newCart(t *testing.T, kv storage.Store) *Cart {
	t.Helper()
	return New(context.Background(), NewStore(kv, logging.Discard()))
}

func TestCart_AddItem(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, storage.NewMemoryStore())

	if err := c.AddItem(ctx, widget, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.AddItem(ctx, mug, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.AddItem(ctx, widget, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	lines := c.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].ProductID != widget.ID || lines[0].Quantity != 5 {
		t.Errorf("expected widget merged to 5, got %+v", lines[0])
	}
	if lines[1].ProductID != mug.ID {
		t.Errorf("expected insertion order to be kept, got %+v", lines[1])
	}
	if c.TotalItemCount() != 6 {
		t.Errorf("expected 6 items, got %d", c.TotalItemCount())
	}
	if got := c.TotalPrice().StringFixed(2); got != "58.50" {
		t.Errorf("expected total 58.50, got %s", got)
	}

	for _, qty := range []int{0, -1} {
		if err := c.AddItem(ctx, widget, qty); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Errorf("expected ErrInvalidQuantity for %d, got %v", qty, err)
		}
	}
}

func TestCart_SetQuantityAndRemove(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, storage.NewMemoryStore())
	_ = c.AddItem(ctx, widget, 2)
	_ = c.AddItem(ctx, mug, 1)

	if err := c.SetQuantity(ctx, widget.ID, 4); err != nil {
		t.Fatalf("set: %v", err)
	}
	if c.Lines()[0].Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", c.Lines()[0].Quantity)
	}

	if err := c.SetQuantity(ctx, 999, 3); err != nil {
		t.Fatalf("set unknown: %v", err)
	}
	if len(c.Lines()) != 2 {
		t.Errorf("expected setting an unknown product to add nothing")
	}

	if err := c.SetQuantity(ctx, widget.ID, 0); err != nil {
		t.Fatalf("set zero: %v", err)
	}
	if len(c.Lines()) != 1 || c.Lines()[0].ProductID != mug.ID {
		t.Errorf("expected zero quantity to remove the line, got %+v", c.Lines())
	}

	if err := c.RemoveItem(ctx, 999); err != nil {
		t.Fatalf("remove unknown: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !c.IsEmpty() || !c.TotalPrice().IsZero() {
		t.Error("expected empty cart after clear")
	}
}

func TestCart_RepeatedRemovalIsIdempotent(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		remove func(c *Cart) error
	}{
		{"set quantity zero", func(c *Cart) error { return c.SetQuantity(ctx, widget.ID, 0) }},
		{"remove item", func(c *Cart) error { return c.RemoveItem(ctx, widget.ID) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemoryStore()
			c := newCart(t, kv)
			_ = c.AddItem(ctx, widget, 2)
			_ = c.AddItem(ctx, mug, 3)

			if err := tt.remove(c); err != nil {
				t.Fatalf("first call: %v", err)
			}
			first := c.Lines()
			snapshot, _ := kv.Get(ctx, storage.KeyCart)

			if err := tt.remove(c); err != nil {
				t.Fatalf("second call: %v", err)
			}
			second := c.Lines()
			again, _ := kv.Get(ctx, storage.KeyCart)

			if len(first) != 1 || first[0].ProductID != mug.ID || first[0].Quantity != 3 {
				t.Fatalf("expected only the mug line after the first call, got %+v", first)
			}
			if len(second) != 1 || second[0].ProductID != mug.ID || second[0].Quantity != 3 || !second[0].UnitPrice.Equal(mug.Price) {
				t.Errorf("second call changed the lines: %+v -> %+v", first, second)
			}
			if string(again) != string(snapshot) {
				t.Errorf("second call changed the snapshot: %s -> %s", snapshot, again)
			}
			if c.TotalItemCount() != 3 {
				t.Errorf("expected 3 items, got %d", c.TotalItemCount())
			}
		})
	}
}

// TestCart_RandomOperations drives a cart through a fixed pseudo-random
// sequence and checks the cart invariants after every step.
func TestCart_RandomOperations(t *testing.T) {
	ctx := context.Background()
	products := []domain.Product{
		widget,
		mug,
		{ID: 11, Name: "Filter papers", Price: decimal.RequireFromString("0.10"), Stock: 500},
		{ID: 12, Name: "Grinder", Price: decimal.RequireFromString("129.99"), Stock: 2},
	}

	kv := storage.NewMemoryStore()
	c := newCart(t, kv)
	rng := rand.New(rand.NewPCG(2026, 10))

	for step := range 500 {
		p := products[rng.IntN(len(products))]
		var op string
		switch rng.IntN(3) {
		case 0:
			qty := rng.IntN(5) + 1
			op = "add"
			if err := c.AddItem(ctx, p, qty); err != nil {
				t.Fatalf("step %d: add %d x %d: %v", step, qty, p.ID, err)
			}
		case 1:
			op = "remove"
			if err := c.RemoveItem(ctx, p.ID); err != nil {
				t.Fatalf("step %d: remove %d: %v", step, p.ID, err)
			}
		default:
			qty := rng.IntN(6) - 1
			op = "set"
			if err := c.SetQuantity(ctx, p.ID, qty); err != nil {
				t.Fatalf("step %d: set %d to %d: %v", step, p.ID, qty, err)
			}
		}

		lines := c.Lines()
		seen := make(map[domain.ProductID]bool, len(lines))
		sum := 0
		for _, l := range lines {
			if l.Quantity < 1 {
				t.Fatalf("step %d (%s): line %d has quantity %d", step, op, l.ProductID, l.Quantity)
			}
			if seen[l.ProductID] {
				t.Fatalf("step %d (%s): product %d has more than one line", step, op, l.ProductID)
			}
			seen[l.ProductID] = true
			sum += l.Quantity
		}
		if got := c.TotalItemCount(); got != sum {
			t.Fatalf("step %d (%s): TotalItemCount %d, sum of quantities %d", step, op, got, sum)
		}

		reloaded := newCart(t, kv).Lines()
		if len(reloaded) != len(lines) {
			t.Fatalf("step %d (%s): reload has %d lines, cart has %d", step, op, len(reloaded), len(lines))
		}
		for i := range lines {
			want, got := lines[i], reloaded[i]
			if got.ProductID != want.ProductID || got.Name != want.Name || got.Quantity != want.Quantity || !got.UnitPrice.Equal(want.UnitPrice) {
				t.Fatalf("step %d (%s): reloaded line %d is %+v, want %+v", step, op, i, got, want)
			}
		}
	}
}

func TestCart_Persistence(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()

	c := newCart(t, kv)
	_ = c.AddItem(ctx, widget, 2)

	reloaded := newCart(t, kv)
	lines := reloaded.Lines()
	if len(lines) != 1 || lines[0].Quantity != 2 || !lines[0].UnitPrice.Equal(widget.Price) {
		t.Fatalf("expected cart to survive reload, got %+v", lines)
	}

	_ = reloaded.Clear(ctx)
	data, err := kv.Get(ctx, storage.KeyCart)
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("expected cleared snapshot to be an empty list, got %s", data)
	}
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		snapshot string
		want     []domain.CartLine
	}{
		{name: "corrupt", snapshot: "{not json", want: []domain.CartLine{}},
		{name: "wrong shape", snapshot: `{"id":7}`, want: []domain.CartLine{}},
		{
			name:     "duplicates and empty lines",
			snapshot: `[{"product_id":7,"name":"Widget","unit_price":"10","quantity":1},{"product_id":3,"quantity":0},{"product_id":7,"name":"Widget","unit_price":"10","quantity":2}]`,
			want:     []domain.CartLine{{ProductID: 7, Name: "Widget", UnitPrice: decimal.RequireFromString("10"), Quantity: 3}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemoryStore()
			_ = kv.Put(ctx, storage.KeyCart, []byte(tt.snapshot))

			got := NewStore(kv, logging.Discard()).Load(ctx)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d lines, got %+v", len(tt.want), got)
			}
			for i := range got {
				if got[i].ProductID != tt.want[i].ProductID || got[i].Quantity != tt.want[i].Quantity {
					t.Errorf("line %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}

	t.Run("missing", func(t *testing.T) {
		got := NewStore(storage.NewMemoryStore(), logging.Discard()).Load(ctx)
		if got == nil || len(got) != 0 {
			t.Errorf("expected an empty non-nil cart, got %#v", got)
		}
	})
}

func TestCart_WriteFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	c := newCart(t, failingStore{Store: storage.NewMemoryStore(), err: boom})

	err := c.AddItem(ctx, widget, 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
	if c.TotalItemCount() != 1 {
		t.Errorf("expected in-memory state to keep the change, got %d items", c.TotalItemCount())
	}
}

func TestCart_SnapshotFormat(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	c := newCart(t, kv)
	_ = c.AddItem(ctx, mug, 2)

	data, _ := kv.Get(ctx, storage.KeyCart)
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(raw) != 1 || raw[0]["product_id"] != float64(3) || raw[0]["quantity"] != float64(2) {
		t.Errorf("unexpected snapshot %s", data)
	}
}
