package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bookworld/internal/httpx"
)

const (
	defaultPageSize = 40
	maxPageSize     = 100
	homeLimit       = 20
)

type HTTPHandler struct {
	svc     *Service
	sampler *Sampler
}

func NewHTTPHandler(svc *Service, sampler *Sampler) *HTTPHandler {
	return &HTTPHandler{svc: svc, sampler: sampler}
}

// Search handles GET /api/catalog/search
// @Summary Search the book catalog
// @Description Proxy to Open Library search with last-good-result fallback
// @Tags catalog
// @Produce json
// @Param q query string false "Free-text query"
// @Param genre query []string false "Genre filters"
// @Param sort query string false "relevance, new, old or title"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(40)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /api/catalog/search [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	sort, err := ParseSort(query.Get("sort"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	q := BrowseQuery{
		Text:   query.Get("q"),
		Genres: query["genre"],
		Sort:   sort,
		Page:   page,
		Limit:  pageSize,
	}

	result, err := h.svc.Search(r.Context(), q)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, result.Books, map[string]any{
		"page":      page,
		"page_size": pageSize,
		"total":     result.Total,
		"has_more":  page*pageSize < min(result.Total, MaxResults),
	})
}

// GetWork handles GET /api/catalog/works/{workId}
// @Summary Get book details
// @Description Work detail enriched with first edition and first author
// @Tags catalog
// @Produce json
// @Param workId path string true "Open Library work id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /api/catalog/works/{workId} [get]
func (h *HTTPHandler) GetWork(w http.ResponseWriter, r *http.Request) {
	workID := chi.URLParam(r, "workId")
	if workID == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "workId is required", nil)
		return
	}

	book, err := h.svc.BookDetails(r.Context(), workID)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, book, nil)
}

// Home handles GET /api/catalog/home
// @Summary Curated home sections
// @Tags catalog
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /api/catalog/home [get]
func (h *HTTPHandler) Home(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > maxPageSize {
		limit = homeLimit
	}

	sections, err := h.sampler.Home(r.Context(), limit)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, sections, nil)
}

func writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuery):
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrBookNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrCatalogUnavailable):
		httpx.JSONError(w, r, http.StatusBadGateway, "CATALOG_UNAVAILABLE", "Book catalog is unavailable, try again later", nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
