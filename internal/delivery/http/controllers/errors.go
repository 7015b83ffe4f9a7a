package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"invitease/internal/delivery/http/helpers"
	"invitease/internal/domain"
)

// respondError maps domain sentinel errors to API error responses. Anything
// unmapped is logged and reported as a generic internal error so storage
// detail never leaks to clients.
func respondError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrSenderNotFound),
		errors.Is(err, domain.ErrReceiverNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrDuplicateEmail):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "email already registered")
	case errors.Is(err, domain.ErrDuplicateContact):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "contact already registered")
	case errors.Is(err, domain.ErrConflict):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "please retry")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
	}
}
