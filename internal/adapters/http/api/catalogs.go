package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/royalty/internal/domain/model"
)

// CatalogDependencies reads stored appraisal reports.
type CatalogDependencies interface {
	Report(ctx context.Context, catalogID string) (model.Report, error)
	Rank(ctx context.Context, catalogID string) (model.RankedEntry, error)
	TopN(ctx context.Context, n int) ([]model.RankedEntry, error)
}

// CatalogsHandler serves stored reports and the valuation ranking.
type CatalogsHandler struct {
	deps     CatalogDependencies
	maxLimit int
}

// NewCatalogsHandler creates a new catalogs handler.
func NewCatalogsHandler(deps CatalogDependencies, maxLimit int) *CatalogsHandler {
	return &CatalogsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleTopN handles GET /catalogs?limit=N requests.
func (h *CatalogsHandler) HandleTopN(w http.ResponseWriter, r *http.Request) {
	const op = "api.top_catalogs"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, errors.New("limit must be a positive integer")))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", wrapKind(op, ErrBadRequest, errors.New("limit exceeds maximum of "+strconv.Itoa(h.maxLimit))))
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetCatalog handles GET /catalogs/{catalog_id} and
// GET /catalogs/{catalog_id}/rank requests.
func (h *CatalogsHandler) HandleGetCatalog(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_catalog"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/catalogs/")
	id, rest, _ := strings.Cut(path, "/")
	if id == "" || (rest != "" && rest != "rank") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	if rest == "rank" {
		entry, err := h.deps.Rank(r.Context(), id)
		if err != nil {
			writeUpstreamError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
		return
	}

	report, err := h.deps.Report(r.Context(), id)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
