package model

import "time"

// JobStatus is the lifecycle state of an asynchronous appraisal.
type JobStatus string

// Job states.
const (
	JobPending JobStatus = "pending"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job tracks one asynchronous appraisal request.
type Job struct {
	ID          string    `json:"job_id"`
	RequestID   string    `json:"request_id"`
	CatalogID   string    `json:"catalog_id"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	Report      *Report   `json:"report,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// Terminal reports whether the job will not change again.
func (j Job) Terminal() bool {
	return j.Status == JobDone || j.Status == JobFailed
}

// Submission is the receipt for a queued appraisal job.
type Submission struct {
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate"`
}
