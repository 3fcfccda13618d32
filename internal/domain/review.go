package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a rating and comment left by a user on a product.
// Reviews are immutable once created and unique per (product, user).
type Review struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"productId"`
	UserID         uuid.UUID `json:"userId"`
	AuthorName     string    `json:"authorName"`
	AuthorUsername string    `json:"authorUsername"`
	Rating         int       `json:"rating"`
	Title          string    `json:"title"`
	Comment        string    `json:"comment"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ValidRating reports whether rating is within the accepted range
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// RatingSummary is the derived rating state written back onto a product
type RatingSummary struct {
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
}

// NewRatingSummary folds the sum and count of review ratings into the mean
// rounded half away from zero to one decimal place.
func NewRatingSummary(sum, count int) RatingSummary {
	if count <= 0 {
		return RatingSummary{}
	}

	mean := decimal.NewFromInt(int64(sum)).
		DivRound(decimal.NewFromInt(int64(count)), 8).
		Round(1)

	return RatingSummary{
		Rating:      mean.InexactFloat64(),
		ReviewCount: count,
	}
}
