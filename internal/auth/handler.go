package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/civiceye/civiceye/internal/platform/httpx"
	"github.com/civiceye/civiceye/internal/shared"
)

// Handler manages authentication endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the public auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.MessageWithDetail(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	session, err := h.service.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			httpx.Message(w, http.StatusConflict, "Email already registered")
			return
		}
		h.logger.Error("register", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message":      "Registration successful",
		"access_token": session.AccessToken,
		"expires_at":   session.ExpiresAt,
		"user":         session.User,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.MessageWithDetail(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	session, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredential) {
			httpx.Message(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":      "Login successful",
		"access_token": session.AccessToken,
		"expires_at":   session.ExpiresAt,
		"user":         session.User,
	})
}

// logout always reports success to the client: an absent or already expired
// token leaves nothing to revoke.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	if err := h.service.Logout(r.Context(), token); err != nil {
		h.logger.Error("logout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Logged out successfully")
}
