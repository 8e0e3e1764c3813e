package readinglist

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookworld/internal/httpx"
)

type HTTPHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewHTTPHandler(service *Service, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger}
}

// List handles GET /api/lists
// @Summary Reader's book list
// @Description Entries keyed by work id
// @Tags lists
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /api/lists [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	entries, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.internalError(w, r, "list entries failed", err)
		return
	}
	httpx.JSONSuccess(w, r, entries, map[string]any{"total": len(entries)})
}

// Upsert handles POST /api/lists
// @Summary Add or update a book in the list
// @Tags lists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpsertRequest true "Full entry document"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /api/lists [post]
func (h *HTTPHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	var req UpsertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	req.WorkID = NormalizeWorkID(req.WorkID)
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	entry, err := h.service.Upsert(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) || errors.Is(err, ErrInvalidRating) {
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		h.internalError(w, r, "upsert entry failed", err)
		return
	}
	httpx.JSONSuccess(w, r, entry, nil)
}

// Remove handles DELETE /api/lists/{workId}
// @Summary Remove a book from the list
// @Tags lists
// @Security BearerAuth
// @Param workId path string true "Open Library work id"
// @Success 204
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/lists/{workId} [delete]
func (h *HTTPHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	workID := chi.URLParam(r, "workId")
	if workID == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "workId is required", nil)
		return
	}

	if err := h.service.Remove(r.Context(), userID, workID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found in list", nil)
			return
		}
		h.internalError(w, r, "remove entry failed", err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

func (h *HTTPHandler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		"request_id", httpx.RequestIDFrom(r),
		"user_id", httpx.UserIDFrom(r),
		"error", err,
	)
	httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}
