package api

import (
	"context"
	"net/http"

	"github.com/okian/royalty/internal/domain/model"
)

// AppraisalDependencies values whole catalogs.
type AppraisalDependencies interface {
	Appraise(ctx context.Context, c model.Catalog) (model.Report, error)
}

// AppraisalHandler handles synchronous catalog appraisals.
type AppraisalHandler struct {
	deps AppraisalDependencies
}

// NewAppraisalHandler creates a new appraisal handler.
func NewAppraisalHandler(deps AppraisalDependencies) *AppraisalHandler {
	return &AppraisalHandler{deps: deps}
}

// HandleAppraise handles POST /appraisals requests.
func (h *AppraisalHandler) HandleAppraise(w http.ResponseWriter, r *http.Request) {
	const op = "api.appraise"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var raw model.RawCatalog
	if err := decodeJSON(w, r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	c, err := raw.Parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	report, err := h.deps.Appraise(r.Context(), c)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
