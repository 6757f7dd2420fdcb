package issues

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/civiceye/civiceye/internal/identity"
	"github.com/civiceye/civiceye/internal/platform/httpx"
	"github.com/civiceye/civiceye/internal/shared"
)

// Handler manages issue endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers issue routes. Callers mount these behind the auth
// middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Post("/{id}/comments", h.addComment)
	r.Get("/{id}/comments", h.listComments)
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (identity.Principal, bool) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrMissingCredential)
	}
	return principal, ok
}

func issueID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Message(w, http.StatusBadRequest, "Invalid issue id")
		return 0, false
	}
	return id, true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req CreateIssueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.MessageWithDetail(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	issue, err := h.service.Create(r.Context(), principal, req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			httpx.Message(w, http.StatusConflict, "Duplicate submission")
			return
		}
		h.logger.Error("create issue", slog.String("user_id", principal.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"message": "Issue reported successfully", "issue": issue})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	filters := ListFilters{
		Category: r.URL.Query().Get("category"),
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
	}
	items, err := h.service.List(r.Context(), principal, filters)
	if err != nil {
		h.logger.Error("list issues", slog.String("user_id", principal.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"issues": items, "count": len(items)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := issueID(w, r)
	if !ok {
		return
	}
	issue, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("get issue", slog.Int64("issue_id", id), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"issue": issue})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := issueID(w, r)
	if !ok {
		return
	}
	var req UpdateIssueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.MessageWithDetail(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	issue, err := h.service.Update(r.Context(), principal, id, req)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrForbidden), errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrNoFieldsToUpdate):
		default:
			h.logger.Error("update issue", slog.Int64("issue_id", id), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Issue updated successfully", "issue": issue})
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := issueID(w, r)
	if !ok {
		return
	}
	var req AddCommentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.MessageWithDetail(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	comment, err := h.service.AddComment(r.Context(), principal, id, req)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("add comment", slog.Int64("issue_id", id), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"message": "Comment added", "comment": comment})
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := issueID(w, r)
	if !ok {
		return
	}
	comments, err := h.service.ListComments(r.Context(), principal, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("list comments", slog.Int64("issue_id", id), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"comments": comments, "count": len(comments)})
}
