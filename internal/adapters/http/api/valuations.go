package api

import (
	"context"
	"net/http"

	"github.com/okian/royalty/internal/domain/pipeline"
	"github.com/okian/royalty/internal/domain/revenue"
	"github.com/okian/royalty/internal/domain/risk"
	"github.com/okian/royalty/internal/domain/valuation"
)

// ValuationDependencies exposes the stateless valuation computations.
type ValuationDependencies interface {
	ValuateRevenue(ctx context.Context, sources []revenue.Source) valuation.Result
	AssessRisk(ctx context.Context, sources []revenue.Source) risk.Assessment
	EstimatePipeline(ctx context.Context, songs []pipeline.Song) pipeline.Result
}

// sourcesRequest mirrors the OpenAPI schema for POST /valuations/revenue
// and POST /valuations/risk.
type sourcesRequest struct {
	Sources []revenue.RawSource `json:"sources"`
}

// songsRequest mirrors the OpenAPI schema for POST /valuations/pipeline.
type songsRequest struct {
	Songs []pipeline.RawSong `json:"songs"`
}

type pipelineResponse struct {
	pipeline.Result
	ConfidenceTier revenue.Level `json:"confidence_tier"`
}

// ValuationHandler handles single-component valuation requests.
type ValuationHandler struct {
	deps ValuationDependencies
}

// NewValuationHandler creates a new valuation handler.
func NewValuationHandler(deps ValuationDependencies) *ValuationHandler {
	return &ValuationHandler{deps: deps}
}

// HandleRevenue handles POST /valuations/revenue requests.
func (h *ValuationHandler) HandleRevenue(w http.ResponseWriter, r *http.Request) {
	const op = "api.valuate_revenue"
	sources, ok := h.readSources(w, r, op)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.ValuateRevenue(r.Context(), sources))
}

// HandleRisk handles POST /valuations/risk requests.
func (h *ValuationHandler) HandleRisk(w http.ResponseWriter, r *http.Request) {
	const op = "api.assess_risk"
	sources, ok := h.readSources(w, r, op)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.AssessRisk(r.Context(), sources))
}

// HandlePipeline handles POST /valuations/pipeline requests.
func (h *ValuationHandler) HandlePipeline(w http.ResponseWriter, r *http.Request) {
	const op = "api.estimate_pipeline"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req songsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	songs, err := pipeline.ParseSongs(req.Songs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	res := h.deps.EstimatePipeline(r.Context(), songs)
	writeJSON(w, http.StatusOK, pipelineResponse{
		Result:         res,
		ConfidenceTier: pipeline.ConfidenceTier(res.ConfidenceScore),
	})
}

func (h *ValuationHandler) readSources(w http.ResponseWriter, r *http.Request, op string) ([]revenue.Source, bool) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return nil, false
	}
	var req sourcesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return nil, false
	}
	sources, err := revenue.ParseSources(req.Sources)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return nil, false
	}
	return sources, true
}
