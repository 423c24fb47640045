package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joao-fontenele/storefront/internal/clock"
	"github.com/joao-fontenele/storefront/internal/storage"
)

// Tokens reads the persisted bearer token. It implements api.TokenSource.
type Tokens struct {
	kv     storage.Store
	clock  clock.Clock
	logger *slog.Logger
}

func NewTokens(kv storage.Store, clk clock.Clock, logger *slog.Logger) *Tokens {
	return &Tokens{kv: kv, clock: clk, logger: logger}
}

// Token returns the stored token, or "" when there is none. A JWT whose exp
// claim is in the past is dropped together with the stored profile.
func (t *Tokens) Token(ctx context.Context) string {
	data, err := t.kv.Get(ctx, storage.KeyToken)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			t.logger.Warn("failed to read token", "error", err)
		}
		return ""
	}

	token := string(data)
	if token == "" || token == "undefined" || token == "null" {
		return ""
	}

	if t.expired(token) {
		t.logger.Info("stored token expired, clearing session")
		if err := t.kv.Delete(ctx, storage.KeyToken, storage.KeyClient); err != nil {
			t.logger.Warn("failed to clear expired session", "error", err)
		}
		return ""
	}

	return token
}

// expired only inspects the claims; signature verification is the
// backend's job. Tokens that are not JWTs are treated as opaque and valid.
func (t *Tokens) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(t.clock.Now())
}
