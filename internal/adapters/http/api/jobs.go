package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/royalty/internal/domain/model"
)

// JobDependencies queues asynchronous appraisals and reports their status.
type JobDependencies interface {
	// Submit queues a catalog. Repeated request ids return the original
	// job with Duplicate set. A full queue returns model.ErrBackpressure.
	Submit(ctx context.Context, requestID string, c model.Catalog) (model.Submission, error)
	Job(ctx context.Context, jobID string) (model.Job, error)
}

// jobRequest mirrors the OpenAPI schema for POST /jobs.
type jobRequest struct {
	RequestID string           `json:"request_id"`
	Catalog   model.RawCatalog `json:"catalog"`
}

type jobResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate"`
}

// JobsHandler handles asynchronous appraisal jobs.
type JobsHandler struct {
	deps JobDependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

// HandleSubmit handles POST /jobs requests.
func (h *JobsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_job"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req jobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	c, err := req.Catalog.Parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	sub, err := h.deps.Submit(r.Context(), req.RequestID, c)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	if sub.Duplicate {
		writeJSON(w, http.StatusOK, jobResponse{Status: "duplicate", JobID: sub.JobID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, jobResponse{Status: "accepted", JobID: sub.JobID})
}

// HandleGetJob handles GET /jobs/{job_id} requests.
func (h *JobsHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	job, err := h.deps.Job(r.Context(), id)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
