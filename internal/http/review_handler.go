package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/handcraftedhaven/storefront/internal/domain"
	"github.com/handcraftedhaven/storefront/internal/service"
)

type ReviewManager interface {
	Submit(ctx context.Context, listingID, customerID string, rating int, feedback string) (*domain.Review, error)
	ForListing(ctx context.Context, listingID string) (*service.ReviewSummary, error)
}

type ReviewHandler struct {
	reviews ReviewManager
	timeout time.Duration
}

func NewReviewHandler(reviews ReviewManager, timeout time.Duration) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		timeout: timeout,
	}
}

type ReviewRequestDTO struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

type ReviewDTO struct {
	ID         string `json:"id"`
	ListingID  string `json:"listing_id"`
	CustomerID string `json:"customer_id"`
	Rating     int    `json:"rating"`
	Feedback   string `json:"feedback"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type ReviewsResponseDTO struct {
	ListingID     string      `json:"listing_id"`
	AverageRating string      `json:"average_rating"`
	Reviews       []ReviewDTO `json:"reviews"`
}

func convertReview(rv *domain.Review) ReviewDTO {
	return ReviewDTO{
		ID:         rv.ID.String(),
		ListingID:  rv.ListingID,
		CustomerID: rv.CustomerID,
		Rating:     rv.Rating,
		Feedback:   rv.Feedback,
		CreatedAt:  rv.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  rv.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// PUT /api/v1/listings/{listing_id}/reviews
func (h *ReviewHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	buyerID := getBuyerIDFromContext(r.Context())
	if buyerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing buyer authentication")
		return
	}

	listingID := chi.URLParam(r, "listing_id")
	if listingID == "" {
		respondError(w, http.StatusBadRequest, "missing_listing_id", "listing_id is required")
		return
	}

	var req ReviewRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	review, err := h.reviews.Submit(ctx, listingID, buyerID.String(), req.Rating, req.Feedback)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertReview(review))
}

// GET /api/v1/listings/{listing_id}/reviews
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	listingID := chi.URLParam(r, "listing_id")
	if listingID == "" {
		respondError(w, http.StatusBadRequest, "missing_listing_id", "listing_id is required")
		return
	}

	summary, err := h.reviews.ForListing(ctx, listingID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	dtos := make([]ReviewDTO, 0, len(summary.Reviews))
	for _, rv := range summary.Reviews {
		dtos = append(dtos, convertReview(rv))
	}

	respondJSON(w, http.StatusOK, ReviewsResponseDTO{
		ListingID:     listingID,
		AverageRating: summary.Average.StringFixed(1),
		Reviews:       dtos,
	})
}
