package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/storage"
)

// Authenticator is the backend side of login and registration.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.Actor, error)
	Register(ctx context.Context, reg domain.Registration) (domain.Actor, error)
}

// Session resolves the current actor from persisted storage and owns the
// "token" and "client" keys.
type Session struct {
	kv     storage.Store
	tokens *Tokens
	auth   Authenticator
	logger *slog.Logger
}

func New(kv storage.Store, tokens *Tokens, auth Authenticator, logger *slog.Logger) *Session {
	return &Session{
		kv:     kv,
		tokens: tokens,
		auth:   auth,
		logger: logger,
	}
}

// CurrentActor reads the actor from storage without any network call. It
// reports false when there is no usable token or profile.
func (s *Session) CurrentActor(ctx context.Context) (domain.Actor, bool) {
	token := s.tokens.Token(ctx)
	if token == "" {
		return domain.Actor{}, false
	}

	data, err := s.kv.Get(ctx, storage.KeyClient)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("failed to read client profile", "error", err)
		}
		return domain.Actor{}, false
	}

	var actor domain.Actor
	if err := json.Unmarshal(data, &actor); err != nil {
		s.logger.Warn("discarding corrupt client profile", "error", err)
		return domain.Actor{}, false
	}
	actor.AuthToken = token
	return actor, true
}

// RequireActor is CurrentActor for callers that gate on authentication.
func (s *Session) RequireActor(ctx context.Context) (domain.Actor, error) {
	actor, ok := s.CurrentActor(ctx)
	if !ok {
		return domain.Actor{}, domain.ErrNotAuthenticated
	}
	return actor, nil
}

func (s *Session) Login(ctx context.Context, creds domain.Credentials) (domain.Actor, error) {
	actor, err := s.auth.Login(ctx, creds)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("login: %w", err)
	}
	if err := s.persist(ctx, actor); err != nil {
		return domain.Actor{}, err
	}
	s.logger.Info("logged in", "client_id", actor.ID, "admin", actor.IsAdmin())
	return actor, nil
}

func (s *Session) Register(ctx context.Context, reg domain.Registration) (domain.Actor, error) {
	actor, err := s.auth.Register(ctx, reg)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("register: %w", err)
	}
	if err := s.persist(ctx, actor); err != nil {
		return domain.Actor{}, err
	}
	s.logger.Info("registered", "client_id", actor.ID)
	return actor, nil
}

// Logout clears the persisted token and profile.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, storage.KeyToken, storage.KeyClient); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

func (s *Session) persist(ctx context.Context, actor domain.Actor) error {
	profile, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("marshal client profile: %w", err)
	}
	if err := s.kv.Put(ctx, storage.KeyToken, []byte(actor.AuthToken)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := s.kv.Put(ctx, storage.KeyClient, profile); err != nil {
		return fmt.Errorf("save client profile: %w", err)
	}
	return nil
}

// UpdateActor rewrites the persisted profile after an account change. The
// token is kept.
func (s *Session) UpdateActor(ctx context.Context, actor domain.Actor) error {
	current, err := s.RequireActor(ctx)
	if err != nil {
		return err
	}
	if current.ID != actor.ID {
		return fmt.Errorf("update profile of client %d: session belongs to client %d", actor.ID, current.ID)
	}
	profile, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("marshal client profile: %w", err)
	}
	if err := s.kv.Put(ctx, storage.KeyClient, profile); err != nil {
		return fmt.Errorf("save client profile: %w", err)
	}
	return nil
}

// Invalidate drops credentials the backend rejected. Unlike Logout it is
// triggered by a 401/403 response.
func (s *Session) Invalidate(ctx context.Context) {
	if err := s.kv.Delete(ctx, storage.KeyToken, storage.KeyClient); err != nil {
		s.logger.Warn("failed to clear rejected credentials", "error", err)
		return
	}
	s.logger.Info("credentials rejected by backend, session cleared")
}
