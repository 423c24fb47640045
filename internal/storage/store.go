package storage

import (
	"context"
	"errors"
)

// Keys owned by the storefront. They mirror the browser storage keys of the
// web storefront so a profile can be inspected by hand.
const (
	KeyToken           = "token"
	KeyClient          = "client"
	KeyCart            = "cart"
	KeyCheckoutAttempt = "checkout_attempt"
)

var ErrNotFound = errors.New("key not found")

// Store is the durable key-value storage of one storefront profile. It is
// single-writer: concurrent processes sharing a profile race with
// last-write-wins semantics.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
