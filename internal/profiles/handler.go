package profiles

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/civiceye/civiceye/internal/identity"
	"github.com/civiceye/civiceye/internal/platform/httpx"
	"github.com/civiceye/civiceye/internal/shared"
)

// Handler manages profile endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers profile routes. Callers mount these behind the auth
// middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/profile", h.getProfile)
	r.Put("/profile", h.updateProfile)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrMissingCredential)
		return
	}
	profile, err := h.service.Get(r.Context(), principal)
	if err != nil {
		h.logger.Error("get profile", slog.String("user_id", principal.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": profile})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrMissingCredential)
		return
	}
	var req UpdateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.MessageWithDetail(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	profile, err := h.service.Update(r.Context(), principal, req)
	if err != nil {
		if !errors.Is(err, shared.ErrNoFieldsToUpdate) {
			h.logger.Error("update profile", slog.String("user_id", principal.UserID), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Profile updated", "user": profile})
}
