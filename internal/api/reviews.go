package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type ReviewInput struct {
	ProductID domain.ProductID `json:"product_id"`
	OrderID   int64            `json:"order_id"`
	Rating    int              `json:"rating"`
	Comment   string           `json:"comment,omitempty"`
}

type ReviewUpdate struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

type reviewWire struct {
	ID        *int64           `json:"id_key"`
	ProductID domain.ProductID `json:"product_id"`
	OrderID   int64            `json:"order_id"`
	ClientID  int64            `json:"client_id"`
	Rating    int              `json:"rating"`
	Comment   string           `json:"comment"`
	CreatedAt time.Time        `json:"created_at"`
}

func reviewFromWire(endpoint string, w reviewWire) (domain.Review, error) {
	if w.ID == nil {
		return domain.Review{}, malformed(endpoint, "review without id_key")
	}
	return domain.Review{
		ID:        *w.ID,
		ProductID: w.ProductID,
		OrderID:   w.OrderID,
		ClientID:  w.ClientID,
		Rating:    w.Rating,
		Comment:   w.Comment,
		CreatedAt: w.CreatedAt,
	}, nil
}

func reviewsFromWire(endpoint string, ws []reviewWire) ([]domain.Review, error) {
	reviews := make([]domain.Review, 0, len(ws))
	for _, w := range ws {
		r, err := reviewFromWire(endpoint, w)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, nil
}

func (c *Client) CreateReview(ctx context.Context, in ReviewInput) (domain.Review, error) {
	var resp reviewWire
	if err := c.do(ctx, http.MethodPost, "/reviews", in, &resp); err != nil {
		return domain.Review{}, err
	}
	return reviewFromWire("create review", resp)
}

type productReviewsWire struct {
	Reviews []reviewWire         `json:"reviews"`
	Summary domain.RatingSummary `json:"summary"`
}

// ProductReviews lists the reviews of a product. A product nobody reviewed
// yet (404) yields an empty listing.
func (c *Client) ProductReviews(ctx context.Context, productID domain.ProductID) (domain.ProductReviews, error) {
	var resp productReviewsWire
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/reviews/product/%d", productID), nil, &resp)
	if errors.Is(err, ErrNotFound) {
		return domain.ProductReviews{
			ProductID: productID,
			Reviews:   []domain.Review{},
			Summary:   domain.RatingSummary{RatingDistribution: map[int]int{}},
		}, nil
	}
	if err != nil {
		return domain.ProductReviews{}, err
	}

	reviews, err := reviewsFromWire("product reviews", resp.Reviews)
	if err != nil {
		return domain.ProductReviews{}, err
	}
	if resp.Summary.RatingDistribution == nil {
		resp.Summary.RatingDistribution = map[int]int{}
	}
	return domain.ProductReviews{ProductID: productID, Reviews: reviews, Summary: resp.Summary}, nil
}

func (c *Client) ProductRating(ctx context.Context, productID domain.ProductID) (domain.RatingSummary, error) {
	var resp domain.RatingSummary
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/reviews/product/%d/rating", productID), nil, &resp); err != nil {
		return domain.RatingSummary{}, err
	}
	return resp, nil
}

func (c *Client) MyReviews(ctx context.Context) ([]domain.Review, error) {
	var resp []reviewWire
	if err := c.do(ctx, http.MethodGet, "/reviews/me", nil, &resp); err != nil {
		return nil, err
	}
	return reviewsFromWire("my reviews", resp)
}

func (c *Client) OrderReviews(ctx context.Context, orderID int64) ([]domain.Review, error) {
	var resp []reviewWire
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/reviews/order/%d", orderID), nil, &resp); err != nil {
		return nil, err
	}
	return reviewsFromWire("order reviews", resp)
}

func (c *Client) UpdateReview(ctx context.Context, reviewID int64, in ReviewUpdate) (domain.Review, error) {
	var resp reviewWire
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/reviews/%d", reviewID), in, &resp); err != nil {
		return domain.Review{}, err
	}
	return reviewFromWire("update review", resp)
}

func (c *Client) DeleteReview(ctx context.Context, reviewID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/reviews/%d", reviewID), nil, nil)
}
