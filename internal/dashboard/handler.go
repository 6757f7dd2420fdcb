package dashboard

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/civiceye/civiceye/internal/identity"
	"github.com/civiceye/civiceye/internal/platform/httpx"
	"github.com/civiceye/civiceye/internal/shared"
)

// Handler manages dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dashboard routes. Callers mount these behind the
// auth middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/citizen", h.citizen)
	r.Get("/government", h.government)
}

func (h *Handler) citizen(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrMissingCredential)
		return
	}
	view, err := h.service.Citizen(r.Context(), principal)
	if err != nil {
		h.logger.Error("citizen dashboard", slog.String("user_id", principal.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) government(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrMissingCredential)
		return
	}
	view, err := h.service.Government(r.Context(), principal)
	if err != nil {
		if !errors.Is(err, shared.ErrForbidden) {
			h.logger.Error("government dashboard", slog.String("user_id", principal.UserID), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}
