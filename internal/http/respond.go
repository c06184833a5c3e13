package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/handcraftedhaven/storefront/internal/catalog"
	"github.com/handcraftedhaven/storefront/internal/dashboard"
	"github.com/handcraftedhaven/storefront/internal/domain"
	"github.com/handcraftedhaven/storefront/internal/repository"
	"github.com/handcraftedhaven/storefront/internal/service"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// errorStatus maps a domain or store error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrUnknownAction),
		errors.Is(err, domain.ErrUnknownStatus),
		errors.Is(err, repository.ErrInvalidValue):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, catalog.ErrProductNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrConstraintViolation):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, repository.ErrStatusConflict),
		errors.Is(err, dashboard.ErrUpdateInProgress):
		return http.StatusConflict, "illegal_transition"
	case errors.Is(err, repository.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, repository.ErrConnectionFailure):
		return http.StatusServiceUnavailable, "service_unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", getRequestID(r.Context())),
			zap.Error(err))
		message = "internal server error"
	}
	respondError(w, status, code, message)
}
