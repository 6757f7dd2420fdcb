package httpx

import (
	"errors"
	"net/http"

	"github.com/civiceye/civiceye/internal/shared"
)

// RespondError maps domain errors to the HTTP error envelope. Upstream faults
// deliberately fall through to a generic 500 message; callers are expected to
// log the detail before handing the error here.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrMissingCredential):
		Message(w, http.StatusUnauthorized, "Token is missing")
	case errors.Is(err, shared.ErrMalformedCredential):
		Message(w, http.StatusUnauthorized, "Authorization header must use the Bearer scheme")
	case errors.Is(err, shared.ErrInvalidCredential):
		Message(w, http.StatusUnauthorized, "Token is invalid")
	case errors.Is(err, shared.ErrProfileNotFound):
		Message(w, http.StatusUnauthorized, "No profile found for this account")
	case errors.Is(err, shared.ErrForbidden):
		Message(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, shared.ErrNotFound):
		Message(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, shared.ErrNoFieldsToUpdate):
		Message(w, http.StatusBadRequest, "No valid fields to update")
	case errors.Is(err, shared.ErrValidation):
		MessageWithDetail(w, http.StatusBadRequest, "Validation failed", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Message(w, http.StatusConflict, "An account with this email already exists")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Message(w, http.StatusConflict, "Request already processed")
	default:
		Message(w, http.StatusInternalServerError, "Internal server error")
	}
}
