package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinRating = 1
	MaxRating = 5
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// Review is unique per (ListingID, CustomerID).
type Review struct {
	ID         uuid.UUID
	ListingID  string
	CustomerID string
	Rating     int
	Feedback   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// AverageRating rounds to one decimal place; zero when there are no reviews.
func AverageRating(reviews []*Review) decimal.Decimal {
	if len(reviews) == 0 {
		return decimal.Zero
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return decimal.NewFromInt(int64(sum)).
		Div(decimal.NewFromInt(int64(len(reviews)))).
		Round(1)
}
