package reviews

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type fakeSessions struct {
	actor       *domain.Actor
	invalidated bool
}

func (f *fakeSessions) RequireActor(context.Context) (domain.Actor, error) {
	if f.actor == nil {
		return domain.Actor{}, domain.ErrNotAuthenticated
	}
	return *f.actor, nil
}

func (f *fakeSessions) Invalidate(context.Context) {
	f.invalidated = true
}

type fakeBackend struct {
	created      []api.ReviewInput
	orderReviews []domain.Review
	rating       domain.RatingSummary
	err          error
	calls        int
}

func (f *fakeBackend) CreateReview(_ context.Context, in api.ReviewInput) (domain.Review, error) {
	f.calls++
	if f.err != nil {
		return domain.Review{}, f.err
	}
	f.created = append(f.created, in)
	return domain.Review{ID: 1, ProductID: in.ProductID, OrderID: in.OrderID, Rating: in.Rating, Comment: in.Comment}, nil
}

func (f *fakeBackend) ProductReviews(_ context.Context, productID domain.ProductID) (domain.ProductReviews, error) {
	f.calls++
	return domain.ProductReviews{ProductID: productID}, f.err
}

func (f *fakeBackend) ProductRating(context.Context, domain.ProductID) (domain.RatingSummary, error) {
	f.calls++
	return f.rating, f.err
}

func (f *fakeBackend) MyReviews(context.Context) ([]domain.Review, error) {
	f.calls++
	return []domain.Review{{ID: 1}}, f.err
}

func (f *fakeBackend) OrderReviews(context.Context, int64) ([]domain.Review, error) {
	f.calls++
	return f.orderReviews, f.err
}

func (f *fakeBackend) UpdateReview(_ context.Context, id int64, in api.ReviewUpdate) (domain.Review, error) {
	f.calls++
	return domain.Review{ID: id, Rating: in.Rating, Comment: in.Comment}, f.err
}

func (f *fakeBackend) DeleteReview(context.Context, int64) error {
	f.calls++
	return f.err
}

func newService(backend *fakeBackend, sessions *fakeSessions) *Service {
	return NewService(backend, sessions, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var customer = &domain.Actor{ID: 42, Name: "Ana"}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   *domain.Actor
		in      api.ReviewInput
		wantErr error
	}{
		{name: "valid", actor: customer, in: api.ReviewInput{ProductID: 7, OrderID: 555, Rating: 5, Comment: "  great  "}},
		{name: "admin cannot review", actor: &domain.Actor{ID: 0}, in: api.ReviewInput{ProductID: 7, OrderID: 555, Rating: 5}, wantErr: domain.ErrAdminCannotReview},
		{name: "rating too low", actor: customer, in: api.ReviewInput{ProductID: 7, OrderID: 555, Rating: 0}, wantErr: domain.ErrInvalidRating},
		{name: "rating too high", actor: customer, in: api.ReviewInput{ProductID: 7, OrderID: 555, Rating: 6}, wantErr: domain.ErrInvalidRating},
		{name: "missing order", actor: customer, in: api.ReviewInput{ProductID: 7, Rating: 3}, wantErr: domain.ErrReviewTargetRequired},
		{name: "no session", in: api.ReviewInput{ProductID: 7, OrderID: 555, Rating: 3}, wantErr: domain.ErrNotAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			review, err := newService(backend, &fakeSessions{actor: tt.actor}).Create(ctx, tt.in)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if backend.calls != 0 {
					t.Errorf("expected no backend calls, got %d", backend.calls)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if review.Comment != "great" {
				t.Errorf("expected trimmed comment, got %q", review.Comment)
			}
		})
	}

	t.Run("duplicate review", func(t *testing.T) {
		backend := &fakeBackend{err: fmt.Errorf("POST /reviews: %w", api.ErrConflict)}
		_, err := newService(backend, &fakeSessions{actor: customer}).Create(ctx, api.ReviewInput{ProductID: 7, OrderID: 555, Rating: 4})
		if !errors.Is(err, domain.ErrAlreadyReviewed) {
			t.Errorf("expected ErrAlreadyReviewed, got %v", err)
		}
	})
}

func TestService_CanReview(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		actor    *domain.Actor
		existing []domain.Review
		err      error
		want     bool
	}{
		{name: "no reviews yet", actor: customer, want: true},
		{name: "order not found counts as none", actor: customer, err: fmt.Errorf("GET: %w", api.ErrNotFound), want: true},
		{name: "other product reviewed", actor: customer, existing: []domain.Review{{ProductID: 8}}, want: true},
		{name: "already reviewed", actor: customer, existing: []domain.Review{{ProductID: 7}}, want: false},
		{name: "admin", actor: &domain.Actor{ID: 0}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(&fakeBackend{orderReviews: tt.existing, err: tt.err}, &fakeSessions{actor: tt.actor})
			got, err := svc.CanReview(ctx, 7, 555)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestService_Rating(t *testing.T) {
	ctx := context.Background()

	t.Run("not found yields empty summary", func(t *testing.T) {
		svc := newService(&fakeBackend{err: fmt.Errorf("GET: %w", api.ErrNotFound)}, &fakeSessions{})
		summary, err := svc.Rating(ctx, 7)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.AverageRating != nil || summary.ReviewCount != 0 || summary.RatingDistribution == nil {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})

	t.Run("summary", func(t *testing.T) {
		avg := 4.5
		backend := &fakeBackend{rating: domain.RatingSummary{AverageRating: &avg, ReviewCount: 2, RatingDistribution: map[int]int{4: 1, 5: 1}}}
		summary, err := newService(backend, &fakeSessions{}).Rating(ctx, 7)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *summary.AverageRating != 4.5 || summary.ReviewCount != 2 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})
}

func TestService_Mine(t *testing.T) {
	backend := &fakeBackend{}
	reviews, err := newService(backend, &fakeSessions{actor: &domain.Actor{ID: 0}}).Mine(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reviews) != 0 || backend.calls != 0 {
		t.Errorf("expected empty list without calls, got %v (%d calls)", reviews, backend.calls)
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid rating", func(t *testing.T) {
		_, err := newService(&fakeBackend{}, &fakeSessions{actor: customer}).Update(ctx, 1, api.ReviewUpdate{Rating: 9})
		if !errors.Is(err, domain.ErrInvalidRating) {
			t.Errorf("expected ErrInvalidRating, got %v", err)
		}
	})

	t.Run("unauthorized drops session", func(t *testing.T) {
		sessions := &fakeSessions{actor: customer}
		backend := &fakeBackend{err: fmt.Errorf("PUT: %w", api.ErrUnauthorized)}
		_, err := newService(backend, sessions).Update(ctx, 1, api.ReviewUpdate{Rating: 3})
		if !errors.Is(err, api.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
		if !sessions.invalidated {
			t.Error("expected session invalidated")
		}
	})
}
