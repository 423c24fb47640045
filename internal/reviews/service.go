package reviews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type Backend interface {
	CreateReview(ctx context.Context, in api.ReviewInput) (domain.Review, error)
	ProductReviews(ctx context.Context, productID domain.ProductID) (domain.ProductReviews, error)
	ProductRating(ctx context.Context, productID domain.ProductID) (domain.RatingSummary, error)
	MyReviews(ctx context.Context) ([]domain.Review, error)
	OrderReviews(ctx context.Context, orderID int64) ([]domain.Review, error)
	UpdateReview(ctx context.Context, reviewID int64, in api.ReviewUpdate) (domain.Review, error)
	DeleteReview(ctx context.Context, reviewID int64) error
}

type Sessions interface {
	RequireActor(ctx context.Context) (domain.Actor, error)
	Invalidate(ctx context.Context)
}

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

// Create submits a review of a product bought in an order. The
// administrator cannot review.
func (s *Service) Create(ctx context.Context, in api.ReviewInput) (domain.Review, error) {
	actor, err := s.sessions.RequireActor(ctx)
	if err != nil {
		return domain.Review{}, err
	}
	if actor.IsAdmin() {
		return domain.Review{}, domain.ErrAdminCannotReview
	}
	if in.ProductID <= 0 || in.OrderID <= 0 {
		return domain.Review{}, domain.ErrReviewTargetRequired
	}
	if err := validRating(in.Rating); err != nil {
		return domain.Review{}, err
	}
	in.Comment = strings.TrimSpace(in.Comment)

	review, err := s.backend.CreateReview(ctx, in)
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			return domain.Review{}, fmt.Errorf("create review: %w: %w", domain.ErrAlreadyReviewed, err)
		}
		return domain.Review{}, s.fail(ctx, "create review", err)
	}

	s.logger.Info("review created", "review_id", review.ID, "product_id", in.ProductID, "order_id", in.OrderID)
	return review, nil
}

// CanReview reports whether the current actor may still review productID
// for orderID.
func (s *Service) CanReview(ctx context.Context, productID domain.ProductID, orderID int64) (bool, error) {
	actor, err := s.sessions.RequireActor(ctx)
	if err != nil {
		return false, err
	}
	if actor.IsAdmin() {
		return false, nil
	}

	existing, err := s.backend.OrderReviews(ctx, orderID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return true, nil
		}
		return false, s.fail(ctx, "order reviews", err)
	}
	for _, r := range existing {
		if r.ProductID == productID {
			return false, nil
		}
	}
	return true, nil
}

// ForProduct lists a product's reviews. It needs no session.
func (s *Service) ForProduct(ctx context.Context, productID domain.ProductID) (domain.ProductReviews, error) {
	reviews, err := s.backend.ProductReviews(ctx, productID)
	if err != nil {
		return domain.ProductReviews{}, fmt.Errorf("product reviews: %w", err)
	}
	return reviews, nil
}

// Rating returns the rating summary of a product; a product without
// reviews has a nil average.
func (s *Service) Rating(ctx context.Context, productID domain.ProductID) (domain.RatingSummary, error) {
	summary, err := s.backend.ProductRating(ctx, productID)
	if errors.Is(err, api.ErrNotFound) {
		return domain.RatingSummary{RatingDistribution: map[int]int{}}, nil
	}
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("product rating: %w", err)
	}
	if summary.RatingDistribution == nil {
		summary.RatingDistribution = map[int]int{}
	}
	return summary, nil
}

func (s *Service) Mine(ctx context.Context) ([]domain.Review, error) {
	actor, err := s.sessions.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return []domain.Review{}, nil
	}

	reviews, err := s.backend.MyReviews(ctx)
	if err != nil {
		return nil, s.fail(ctx, "my reviews", err)
	}
	return reviews, nil
}

func (s *Service) ForOrder(ctx context.Context, orderID int64) ([]domain.Review, error) {
	if _, err := s.sessions.RequireActor(ctx); err != nil {
		return nil, err
	}
	reviews, err := s.backend.OrderReviews(ctx, orderID)
	if errors.Is(err, api.ErrNotFound) {
		return []domain.Review{}, nil
	}
	if err != nil {
		return nil, s.fail(ctx, "order reviews", err)
	}
	return reviews, nil
}

func (s *Service) Update(ctx context.Context, reviewID int64, in api.ReviewUpdate) (domain.Review, error) {
	if _, err := s.sessions.RequireActor(ctx); err != nil {
		return domain.Review{}, err
	}
	if err := validRating(in.Rating); err != nil {
		return domain.Review{}, err
	}
	in.Comment = strings.TrimSpace(in.Comment)

	review, err := s.backend.UpdateReview(ctx, reviewID, in)
	if err != nil {
		return domain.Review{}, s.fail(ctx, fmt.Sprintf("update review %d", reviewID), err)
	}
	return review, nil
}

func (s *Service) Delete(ctx context.Context, reviewID int64) error {
	if _, err := s.sessions.RequireActor(ctx); err != nil {
		return err
	}
	if err := s.backend.DeleteReview(ctx, reviewID); err != nil {
		return s.fail(ctx, fmt.Sprintf("delete review %d", reviewID), err)
	}
	s.logger.Info("review deleted", "review_id", reviewID)
	return nil
}

func validRating(rating int) error {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return domain.ErrInvalidRating
	}
	return nil
}

func (s *Service) fail(ctx context.Context, op string, err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		s.sessions.Invalidate(ctx)
	}
	return fmt.Errorf("%s: %w", op, err)
}
