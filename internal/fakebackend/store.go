package fakebackend

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotCancelable     = errors.New("order cannot be canceled")
	ErrNotDeliverable    = errors.New("order cannot be delivered")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInvalidLogin      = errors.New("invalid credentials")
	ErrAlreadyReviewed   = errors.New("product already reviewed for this order")
	ErrNotOwner          = errors.New("not the owner")
	ErrProtectedAccount  = errors.New("administrator account cannot be deleted")
)

const (
	AdminEmail    = "admin@storefront.local"
	AdminPassword = "admin"
)

type account struct {
	profile  domain.ClientProfile
	password string
}

type order struct {
	domain.Order
	CreatedAt time.Time
}

// Store is the in-memory state of the fake backend. All methods are safe
// for concurrent use.
type Store struct {
	mu sync.Mutex

	accounts map[string]*account
	products map[domain.ProductID]*domain.Product
	orders   map[int64]*order
	bills    map[int64]domain.Bill
	reviews  map[int64]domain.Review

	addresses  map[int64]domain.Address
	categories []domain.Category

	nextClientID int64
	nextOrderID  int64
	nextBillID   int64
	nextReviewID int64
	nextAddrID   int64

	now func() time.Time
}

func NewStore() *Store {
	s := &Store{
		accounts:     make(map[string]*account),
		products:     make(map[domain.ProductID]*domain.Product),
		orders:       make(map[int64]*order),
		bills:        make(map[int64]domain.Bill),
		reviews:      make(map[int64]domain.Review),
		addresses:    make(map[int64]domain.Address),
		categories:   DefaultCategories(),
		nextClientID: 1,
		nextOrderID:  1,
		nextBillID:   1,
		nextReviewID: 1,
		nextAddrID:   1,
		now:          func() time.Time { return time.Now().UTC() },
	}
	s.accounts[AdminEmail] = &account{
		profile:  domain.ClientProfile{ID: domain.AdminActorID, Name: "Administrator", Email: AdminEmail},
		password: AdminPassword,
	}
	return s
}

// SeedProducts adds or replaces catalog entries.
func (s *Store) SeedProducts(products ...domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		s.products[p.ID] = &p
	}
}

// DefaultCatalog is the catalog the sandbox starts with.
func DefaultCatalog() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Espresso beans 1kg", Price: decimal.RequireFromString("24.90"), Stock: 40, CategoryID: 1},
		{ID: 2, Name: "Pour-over kettle", Price: decimal.RequireFromString("39.00"), Stock: 12, CategoryID: 2},
		{ID: 3, Name: "Ceramic mug", Price: decimal.RequireFromString("8.50"), Stock: 100, CategoryID: 2},
		{ID: 7, Name: "Widget", Price: decimal.RequireFromString("10.00"), Stock: 25, CategoryID: 3},
		{ID: 8, Name: "Gadget", Price: decimal.RequireFromString("3.50"), Stock: 1, CategoryID: 3},
	}
}

func (s *Store) Register(reg domain.Registration) (domain.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if _, ok := s.accounts[email]; ok {
		return domain.Actor{}, ErrEmailTaken
	}

	profile := domain.ClientProfile{
		ID:        s.nextClientID,
		Name:      strings.TrimSpace(reg.Name),
		LastName:  strings.TrimSpace(reg.LastName),
		Email:     email,
		Telephone: strings.TrimSpace(reg.Telephone),
	}
	s.nextClientID++
	s.accounts[email] = &account{profile: profile, password: reg.Password}
	return profile.Actor(), nil
}

func (s *Store) Login(creds domain.Credentials) (domain.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[strings.ToLower(strings.TrimSpace(creds.Email))]
	if !ok || acc.password != creds.Password {
		return domain.Actor{}, ErrInvalidLogin
	}
	return acc.profile.Actor(), nil
}

func (s *Store) Actor(id int64) (domain.Actor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accountByID(id)
	if acc == nil {
		return domain.Actor{}, false
	}
	return acc.profile.Actor(), true
}

func (s *Store) accountByID(id int64) *account {
	for _, acc := range s.accounts {
		if acc.profile.ID == id {
			return acc
		}
	}
	return nil
}

func (s *Store) Profile(id int64) (domain.ClientProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accountByID(id)
	if acc == nil {
		return domain.ClientProfile{}, ErrNotFound
	}
	return acc.profile, nil
}

// UpdateProfile applies the non-empty fields of u. Changing the email
// re-keys the account, so later logins use the new address.
func (s *Store) UpdateProfile(id int64, u domain.ProfileUpdate) (domain.ClientProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accountByID(id)
	if acc == nil {
		return domain.ClientProfile{}, ErrNotFound
	}
	updated := u.Apply(acc.profile)
	if updated.Email != acc.profile.Email {
		if _, taken := s.accounts[updated.Email]; taken {
			return domain.ClientProfile{}, ErrEmailTaken
		}
		delete(s.accounts, acc.profile.Email)
		s.accounts[updated.Email] = acc
	}
	acc.profile = updated
	return updated, nil
}

// DeleteClient removes the account and its addresses. Orders are kept.
func (s *Store) DeleteClient(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == domain.AdminActorID {
		return ErrProtectedAccount
	}
	acc := s.accountByID(id)
	if acc == nil {
		return ErrNotFound
	}
	delete(s.accounts, acc.profile.Email)
	for addrID, a := range s.addresses {
		if a.ClientID == id {
			delete(s.addresses, addrID)
		}
	}
	return nil
}

// Clients returns the client accounts matching query ordered by id. The
// administrator is not listed.
func (s *Store) Clients(query string) []domain.ClientProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ClientProfile, 0, len(s.accounts))
	for _, acc := range s.accounts {
		if acc.profile.ID == domain.AdminActorID || !acc.profile.Matches(query) {
			continue
		}
		out = append(out, acc.profile)
	}
	slices.SortFunc(out, func(a, b domain.ClientProfile) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) AddAddress(a domain.Address) (domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accountByID(a.ClientID) == nil {
		return domain.Address{}, ErrNotFound
	}
	a.ID = s.nextAddrID
	s.nextAddrID++
	if a.Type == "" {
		a.Type = domain.AddressTypeHome
	}
	s.addresses[a.ID] = a
	return a, nil
}

func (s *Store) Addresses(clientID int64) []domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Address
	for _, a := range s.addresses {
		if a.ClientID == clientID {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b domain.Address) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) Categories() []domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.categories)
}

// DefaultCategories are the categories referenced by DefaultCatalog.
func DefaultCategories() []domain.Category {
	return domain.DefaultCategories()
}

func (s *Store) ListProducts(skip, limit int) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b domain.Product) int { return cmp.Compare(a.ID, b.ID) })

	if skip >= len(out) {
		return []domain.Product{}
	}
	out = out[skip:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func (s *Store) Product(id domain.ProductID) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return *p, nil
}

func (s *Store) SetStock(id domain.ProductID, stock int) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	if stock < 0 {
		return domain.Product{}, ErrInsufficientStock
	}
	p.Stock = stock
	return *p, nil
}

// AdjustStock applies each delta independently, the way the real backend's
// batch endpoint does. A delta that would make stock negative is rejected.
func (s *Store) AdjustStock(deltas []domain.StockDelta) []domain.StockAdjustment {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]domain.StockAdjustment, 0, len(deltas))
	for _, d := range deltas {
		res := domain.StockAdjustment{ProductID: d.ProductID}
		p, ok := s.products[d.ProductID]
		switch {
		case !ok:
			res.Error = "product not found"
		case p.Stock+d.Delta < 0:
			res.Stock = p.Stock
			res.Error = fmt.Sprintf("insufficient stock: %d available", p.Stock)
		default:
			p.Stock += d.Delta
			res.Stock = p.Stock
			res.Success = true
		}
		results = append(results, res)
	}
	return results
}

// CreateOrder stores the order as sent; the client computed total is kept.
// A bill is issued with the order.
func (s *Store) CreateOrder(o domain.Order) domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	o.ID = s.nextOrderID
	s.nextOrderID++
	o.Status = domain.OrderStatusPending
	now := s.now()
	s.orders[o.ID] = &order{Order: o, CreatedAt: now}

	s.bills[o.ID] = domain.Bill{
		ID:          s.nextBillID,
		BillNumber:  fmt.Sprintf("B-%06d", o.ID),
		Date:        now.Format(time.DateOnly),
		Total:       o.Total,
		Discount:    decimal.Zero,
		PaymentType: domain.PaymentCard,
		ClientID:    o.ClientID,
		OrderID:     o.ID,
	}
	s.nextBillID++
	return o
}

func (s *Store) Order(id int64) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, ErrNotFound
	}
	return o.Order, nil
}

// Orders returns the orders of clientID, or every order when all is set.
func (s *Store) Orders(clientID int64, all bool) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Order, 0)
	for _, o := range s.orders {
		if all || o.ClientID == clientID {
			out = append(out, o.Order)
		}
	}
	slices.SortFunc(out, func(a, b domain.Order) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// CancelOrder cancels a pending or in-progress order and restores the
// stock of its lines. It returns the number of lines restored.
func (s *Store) CancelOrder(id int64, actor domain.Actor) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return 0, ErrNotFound
	}
	if !actor.IsAdmin() && o.ClientID != actor.ID {
		return 0, ErrNotOwner
	}
	if !o.Status.CanTransition(domain.OrderStatusCanceled) {
		return 0, ErrNotCancelable
	}

	restored := 0
	for _, l := range o.Lines {
		if p, ok := s.products[l.ProductID]; ok {
			p.Stock += l.Quantity
			restored++
		}
	}
	o.Status = domain.OrderStatusCanceled
	return restored, nil
}

// DeliverOrder moves an order to DELIVERED, passing through IN_PROGRESS
// when it is still pending.
func (s *Store) DeliverOrder(id int64) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, ErrNotFound
	}
	if o.Status.CanTransition(domain.OrderStatusInProgress) {
		o.Status = domain.OrderStatusInProgress
	}
	if !o.Status.CanTransition(domain.OrderStatusDelivered) {
		return domain.Order{}, ErrNotDeliverable
	}
	o.Status = domain.OrderStatusDelivered
	return o.Order, nil
}

func (s *Store) Bill(orderID int64) (domain.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bills[orderID]
	if !ok {
		return domain.Bill{}, ErrNotFound
	}
	return b, nil
}

func (s *Store) CreateReview(r domain.Review) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[r.OrderID]
	if !ok || !slices.ContainsFunc(o.Lines, func(l domain.OrderLine) bool { return l.ProductID == r.ProductID }) {
		return domain.Review{}, ErrNotFound
	}
	if o.ClientID != r.ClientID {
		return domain.Review{}, ErrNotOwner
	}
	for _, existing := range s.reviews {
		if existing.OrderID == r.OrderID && existing.ProductID == r.ProductID {
			return domain.Review{}, ErrAlreadyReviewed
		}
	}

	r.ID = s.nextReviewID
	s.nextReviewID++
	r.CreatedAt = s.now()
	s.reviews[r.ID] = r
	return r, nil
}

// Reviews returns the reviews matching keep, oldest first.
func (s *Store) Reviews(keep func(domain.Review) bool) []domain.Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Review, 0)
	for _, r := range s.reviews {
		if keep(r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.Review) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) UpdateReview(id, clientID int64, rating int, comment string) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[id]
	if !ok {
		return domain.Review{}, ErrNotFound
	}
	if r.ClientID != clientID {
		return domain.Review{}, ErrNotOwner
	}
	r.Rating = rating
	r.Comment = comment
	s.reviews[id] = r
	return r, nil
}

func (s *Store) DeleteReview(id, clientID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[id]
	if !ok {
		return ErrNotFound
	}
	if r.ClientID != clientID {
		return ErrNotOwner
	}
	delete(s.reviews, id)
	return nil
}

// Summarize computes the rating summary of reviews.
func Summarize(reviews []domain.Review) domain.RatingSummary {
	summary := domain.RatingSummary{
		ReviewCount:        len(reviews),
		RatingDistribution: map[int]int{},
	}
	if len(reviews) == 0 {
		return summary
	}

	sum := 0
	for _, r := range reviews {
		sum += r.Rating
		summary.RatingDistribution[r.Rating]++
	}
	avg := float64(sum) / float64(len(reviews))
	summary.AverageRating = &avg
	return summary
}
