package transport

import (
	"context"
	"errors"
	"net/http"

	"handcrafted-haven/internal/domain"
	"handcrafted-haven/internal/middleware"
	"handcrafted-haven/internal/repository"
	"handcrafted-haven/internal/service"

	"go.uber.org/zap"
)

type errorMapping struct {
	target  error
	status  int
	message string // empty means the error text is safe to show
}

var errorMappings = []errorMapping{
	{service.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
	{service.ErrTokenExpired, http.StatusUnauthorized, "token expired"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "invalid token"},
	{service.ErrForbidden, http.StatusForbidden, "insufficient permissions"},
	{service.ErrInvalidArgument, http.StatusBadRequest, ""},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, ""},
	{service.ErrOutOfStock, http.StatusBadRequest, ""},
	{service.ErrDuplicateReview, http.StatusBadRequest, ""},
	{repository.ErrProductNotFound, http.StatusNotFound, "product not found"},
	{repository.ErrCartNotFound, http.StatusNotFound, "cart not found"},
	{domain.ErrItemNotFound, http.StatusNotFound, "item not found in cart"},
	{repository.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{service.ErrCartBusy, http.StatusConflict, "cart is busy, please retry"},
	{repository.ErrUserAlreadyExists, http.StatusConflict, "user with this email already exists"},
	{repository.ErrUsernameAlreadyTaken, http.StatusConflict, "username is already taken"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "request timed out"},
}

// statusFor resolves err to a status code and a client-safe message.
// Unknown errors are internal and never leak their text.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.message == "" {
				return m.status, err.Error()
			}
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// respondWithServiceError writes the error answer for err. Server-side
// failures are logged with the operation that failed.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, operation string, err error) {
	status, message := statusFor(err)

	if status >= http.StatusInternalServerError {
		logger.Error(operation+" failed", zap.Error(err))
	} else {
		logger.Debug(operation+" rejected", zap.Error(err), zap.Int("status", status))
	}

	middleware.RespondWithError(w, status, message)
}

// respondWithDecodeError answers a body that failed to decode or validate
func respondWithDecodeError(w http.ResponseWriter, err error) {
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}
