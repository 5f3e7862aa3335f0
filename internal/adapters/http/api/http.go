// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/royalty/internal/domain/model"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RevenueTypesDependencies
	ValuationDependencies
	AppraisalDependencies
	JobDependencies
	CatalogDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	revenueTypesHandler *RevenueTypesHandler
	valuationHandler    *ValuationHandler
	appraisalHandler    *AppraisalHandler
	jobsHandler         *JobsHandler
	catalogsHandler     *CatalogsHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps
// GET /catalogs?limit.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(deps),
		revenueTypesHandler: NewRevenueTypesHandler(deps),
		valuationHandler:    NewValuationHandler(deps),
		appraisalHandler:    NewAppraisalHandler(deps),
		jobsHandler:         NewJobsHandler(deps),
		catalogsHandler:     NewCatalogsHandler(deps, maxLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/revenue-types", MetricsMiddleware(s.revenueTypesHandler.HandleList, "revenue_types"))
	mux.HandleFunc("/valuations/revenue", MetricsMiddleware(s.valuationHandler.HandleRevenue, "valuations_revenue"))
	mux.HandleFunc("/valuations/risk", MetricsMiddleware(s.valuationHandler.HandleRisk, "valuations_risk"))
	mux.HandleFunc("/valuations/pipeline", MetricsMiddleware(s.valuationHandler.HandlePipeline, "valuations_pipeline"))
	mux.HandleFunc("/appraisals", MetricsMiddleware(s.appraisalHandler.HandleAppraise, "appraisals"))
	mux.HandleFunc("/jobs", MetricsMiddleware(s.jobsHandler.HandleSubmit, "jobs"))
	mux.HandleFunc("/jobs/", MetricsMiddleware(s.jobsHandler.HandleGetJob, "job"))
	mux.HandleFunc("/catalogs", MetricsMiddleware(s.catalogsHandler.HandleTopN, "catalogs"))
	mux.HandleFunc("/catalogs/", MetricsMiddleware(s.catalogsHandler.HandleGetCatalog, "catalog"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a single JSON document from r into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return errors.New("decode body: trailing data")
	}
	return nil
}

// writeUpstreamError maps a dependency error onto a status code.
func writeUpstreamError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, model.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", wrapKind(op, ErrBackpressure, err))
	case errors.Is(err, model.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "unavailable", wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
	}
}
