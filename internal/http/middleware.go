package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type contextKey string

const (
	buyerIDKey contextKey = "buyer_id"

	BuyerIDHeader   = "X-Buyer-ID"
	RequestIDHeader = "X-Request-ID"
)

// MockAuthMiddleware trusts the X-Buyer-ID header as the caller's identity.
// Requests without a valid id continue anonymously.
func MockAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(BuyerIDHeader)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		buyerID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthenticated", "X-Buyer-ID must be a UUID")
			return
		}

		next.ServeHTTP(w, r.WithContext(withBuyerID(r.Context(), buyerID)))
	})
}

// RequestIDMiddleware adds a unique request ID to each request. The id is
// stored under chi's request id key so middleware.Logger reports the same one.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, requestID)
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func withBuyerID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, buyerIDKey, id)
}

func getBuyerIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(buyerIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

func getRequestID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}
