package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// searchFallbackLimit bounds the listing filtered locally when the
	// search endpoint fails.
	searchFallbackLimit = 1000
)

// Backend is the account part of the REST backend.
type Backend interface {
	MyProfile(ctx context.Context) (domain.ClientProfile, error)
	GetClient(ctx context.Context, id int64) (domain.ClientProfile, error)
	UpdateClient(ctx context.Context, id int64, u domain.ProfileUpdate) (domain.ClientProfile, error)
	DeleteClient(ctx context.Context, id int64) error
	ListClients(ctx context.Context, page, limit int) (domain.ClientPage, error)
	SearchClients(ctx context.Context, query string, page, limit int) (domain.ClientPage, error)
	ClientAddresses(ctx context.Context, clientID int64) ([]domain.Address, error)
	StoreAddress(ctx context.Context) (domain.Address, error)
	CreateAddress(ctx context.Context, a domain.Address) (domain.Address, error)
}

type Sessions interface {
	RequireActor(ctx context.Context) (domain.Actor, error)
	UpdateActor(ctx context.Context, actor domain.Actor) error
	Logout(ctx context.Context) error
	Invalidate(ctx context.Context)
}

// Service covers the profile screen of a client and the client
// administration screen of the administrator.
type Service struct {
	backend  Backend
	sessions Sessions
	logger   *slog.Logger
}

func NewService(backend Backend, sessions Sessions, logger *slog.Logger) *Service {
	return &Service{
		backend:  backend,
		sessions: sessions,
		logger:   logger,
	}
}

func (s *Service) Profile(ctx context.Context) (domain.ClientProfile, error) {
	if _, err := s.sessions.RequireActor(ctx); err != nil {
		return domain.ClientProfile{}, err
	}
	p, err := s.backend.MyProfile(ctx)
	if err != nil {
		return domain.ClientProfile{}, s.fail(ctx, "load profile", err)
	}
	return p, nil
}

// UpdateProfile changes the current actor's account and refreshes the
// persisted session profile so the new name shows up at once.
func (s *Service) UpdateProfile(ctx context.Context, u domain.ProfileUpdate) (domain.ClientProfile, error) {
	actor, err := s.sessions.RequireActor(ctx)
	if err != nil {
		return domain.ClientProfile{}, err
	}
	if u.IsEmpty() {
		return domain.ClientProfile{}, domain.ErrEmptyProfileUpdate
	}

	p, err := s.backend.UpdateClient(ctx, actor.ID, u)
	if err != nil {
		return domain.ClientProfile{}, s.fail(ctx, "update profile", err)
	}
	if err := s.sessions.UpdateActor(ctx, p.Actor()); err != nil {
		return domain.ClientProfile{}, fmt.Errorf("update profile: %w", err)
	}

	s.logger.Info("profile updated", "client_id", p.ID)
	return p, nil
}

// DeleteAccount removes the current actor's account and ends the session.
// The administrator account cannot be deleted.
func (s *Service) DeleteAccount(ctx context.Context) error {
	actor, err := s.sessions.RequireActor(ctx)
	if err != nil {
		return err
	}
	if actor.IsAdmin() {
		return domain.ErrAdminAccountProtected
	}

	if err := s.backend.DeleteClient(ctx, actor.ID); err != nil {
		return s.fail(ctx, "delete account", err)
	}
	s.logger.Info("account deleted", "client_id", actor.ID)
	return s.sessions.Logout(ctx)
}

func (s *Service) Addresses(ctx context.Context) ([]domain.Address, error) {
	actor, err := s.sessions.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	addresses, err := s.backend.ClientAddresses(ctx, actor.ID)
	if err != nil {
		return nil, s.fail(ctx, "list addresses", err)
	}
	return addresses, nil
}

func (s *Service) AddAddress(ctx context.Context, a domain.Address) (domain.Address, error) {
	actor, err := s.sessions.RequireActor(ctx)
	if err != nil {
		return domain.Address{}, err
	}
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	if a.Street == "" || a.City == "" {
		return domain.Address{}, domain.ErrIncompleteAddress
	}
	a.ClientID = actor.ID
	if a.Type == "" {
		a.Type = domain.AddressTypeHome
	}

	created, err := s.backend.CreateAddress(ctx, a)
	if err != nil {
		return domain.Address{}, s.fail(ctx, "add address", err)
	}
	s.logger.Info("address added", "address_id", created.ID, "client_id", actor.ID)
	return created, nil
}

// StoreAddress returns the pickup address of the store, or
// domain.DefaultStoreAddress when the backend cannot provide it.
func (s *Service) StoreAddress(ctx context.Context) domain.Address {
	a, err := s.backend.StoreAddress(ctx)
	if err != nil {
		s.logger.Warn("using default store address", "error", err)
		return domain.DefaultStoreAddress
	}
	return a
}

// Clients lists client accounts for the administrator.
func (s *Service) Clients(ctx context.Context, page, limit int) (domain.ClientPage, error) {
	if _, err := s.sessions.RequireActor(ctx); err != nil {
		return domain.ClientPage{}, err
	}
	page, limit = normalizePage(page, limit)

	res, err := s.backend.ListClients(ctx, page, limit)
	if err != nil {
		return domain.ClientPage{}, s.fail(ctx, "list clients", err)
	}
	return res, nil
}

// SearchClients matches query against name, last name, email and telephone.
// When the search endpoint fails for a reason other than authorization, the
// full listing is filtered locally instead.
func (s *Service) SearchClients(ctx context.Context, query string, page, limit int) (domain.ClientPage, error) {
	if _, err := s.sessions.RequireActor(ctx); err != nil {
		return domain.ClientPage{}, err
	}
	page, limit = normalizePage(page, limit)

	res, err := s.backend.SearchClients(ctx, query, page, limit)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, api.ErrForbidden) {
		return domain.ClientPage{}, s.fail(ctx, "search clients", err)
	}

	s.logger.Warn("client search failed, filtering locally", "error", err)
	all, listErr := s.backend.ListClients(ctx, 1, searchFallbackLimit)
	if listErr != nil {
		return domain.ClientPage{}, s.fail(ctx, "search clients", errors.Join(err, listErr))
	}
	return filterPage(all.Items, query, page, limit), nil
}

func (s *Service) Client(ctx context.Context, id int64) (domain.ClientProfile, error) {
	if _, err := s.sessions.RequireActor(ctx); err != nil {
		return domain.ClientProfile{}, err
	}
	p, err := s.backend.GetClient(ctx, id)
	if err != nil {
		return domain.ClientProfile{}, s.fail(ctx, fmt.Sprintf("get client %d", id), err)
	}
	return p, nil
}

// DeleteClient removes another client's account. The administrator account
// is refused without a backend call.
func (s *Service) DeleteClient(ctx context.Context, id int64) error {
	actor, err := s.sessions.RequireActor(ctx)
	if err != nil {
		return err
	}
	if id == domain.AdminActorID {
		return domain.ErrAdminAccountProtected
	}

	if err := s.backend.DeleteClient(ctx, id); err != nil {
		return s.fail(ctx, fmt.Sprintf("delete client %d", id), err)
	}
	s.logger.Info("client deleted", "client_id", id, "by", actor.ID)
	return nil
}

func (s *Service) fail(ctx context.Context, op string, err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		s.sessions.Invalidate(ctx)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return page, min(limit, MaxPageSize)
}

func filterPage(clients []domain.ClientProfile, query string, page, limit int) domain.ClientPage {
	var matched []domain.ClientProfile
	for _, c := range clients {
		if c.Matches(query) {
			matched = append(matched, c)
		}
	}

	start := min((page-1)*limit, len(matched))
	end := min(start+limit, len(matched))
	return domain.ClientPage{
		Items: append([]domain.ClientProfile{}, matched[start:end]...),
		Total: len(matched),
		Page:  page,
		Size:  limit,
		Pages: max(1, (len(matched)+limit-1)/limit),
	}
}
