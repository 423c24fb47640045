//go:build integration

package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joao-fontenele/storefront/internal/storage"
	"github.com/joao-fontenele/storefront/internal/telemetry"
	"github.com/joao-fontenele/storefront/internal/testutil"
)

func TestPostgresStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	connStr := testutil.SetupPostgres(ctx, t)
	db, err := telemetry.OpenDB(connStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	alice := storage.NewPostgresStore(db, "alice")
	bob := storage.NewPostgresStore(db, "bob")

	t.Run("missing key", func(t *testing.T) {
		if _, err := alice.Get(ctx, storage.KeyCart); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("put overwrites", func(t *testing.T) {
		if err := alice.Put(ctx, storage.KeyCart, []byte(`[{"id":7}]`)); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := alice.Put(ctx, storage.KeyCart, []byte(`[{"id":8}]`)); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := alice.Get(ctx, storage.KeyCart)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if string(got) != `[{"id":8}]` {
			t.Errorf("expected last write, got %s", got)
		}
	})

	t.Run("profiles are isolated", func(t *testing.T) {
		if _, err := bob.Get(ctx, storage.KeyCart); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected bob to see no cart, got %v", err)
		}
	})

	t.Run("delete several keys", func(t *testing.T) {
		if err := alice.Put(ctx, storage.KeyToken, []byte("tok")); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := alice.Put(ctx, storage.KeyClient, []byte(`{"id":1}`)); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := alice.Delete(ctx, storage.KeyToken, storage.KeyClient, "absent"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		for _, key := range []string{storage.KeyToken, storage.KeyClient} {
			if _, err := alice.Get(ctx, key); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("expected %s to be deleted, got %v", key, err)
			}
		}
		if _, err := alice.Get(ctx, storage.KeyCart); err != nil {
			t.Errorf("expected cart to survive, got %v", err)
		}
	})
}
