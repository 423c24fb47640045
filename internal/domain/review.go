package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        int64     `json:"id"`
	ProductID ProductID `json:"product_id"`
	OrderID   int64     `json:"order_id"`
	ClientID  int64     `json:"client_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type RatingSummary struct {
	AverageRating      *float64    `json:"average_rating"`
	ReviewCount        int         `json:"review_count"`
	RatingDistribution map[int]int `json:"rating_distribution"`
}

type ProductReviews struct {
	ProductID ProductID     `json:"product_id"`
	Reviews   []Review      `json:"reviews"`
	Summary   RatingSummary `json:"summary"`
}
