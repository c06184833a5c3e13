package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/handcraftedhaven/storefront/internal/domain"
	"github.com/handcraftedhaven/storefront/internal/repository"
	"github.com/shopspring/decimal"
)

// Listing and customer ids are stored as VARCHAR(64).
const maxReviewKeyLength = 64

type ReviewSummary struct {
	ListingID string
	Reviews   []*domain.Review
	Average   decimal.Decimal
}

type ReviewService struct {
	repo repository.ReviewRepository
}

func NewReviewService(repo repository.ReviewRepository) *ReviewService {
	return &ReviewService{repo: repo}
}

// Submit stores the customer's review of a listing, replacing any earlier one.
func (s *ReviewService) Submit(ctx context.Context, listingID, customerID string, rating int, feedback string) (*domain.Review, error) {
	listingID = strings.TrimSpace(listingID)
	customerID = strings.TrimSpace(customerID)
	if listingID == "" || customerID == "" {
		return nil, fmt.Errorf("%w: listing and customer are required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(listingID) > maxReviewKeyLength || utf8.RuneCountInString(customerID) > maxReviewKeyLength {
		return nil, fmt.Errorf("%w: listing and customer ids are limited to %d characters", ErrInvalidInput, maxReviewKeyLength)
	}
	if err := domain.ValidateRating(rating); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.repo.AddReview(ctx, listingID, customerID, rating, strings.TrimSpace(feedback))
}

func (s *ReviewService) ForListing(ctx context.Context, listingID string) (*ReviewSummary, error) {
	reviews, err := s.repo.ListReviewsByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return &ReviewSummary{
		ListingID: listingID,
		Reviews:   reviews,
		Average:   domain.AverageRating(reviews),
	}, nil
}
