package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/royalty/internal/domain/model"
)

// ErrJobFailed is returned by WaitJob when the job ends in failure.
var ErrJobFailed = errors.New("appraisal job failed")

// APIError is a non-2xx response decoded from the service error body.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("royalty api: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Is maps status codes onto the shared model error kinds.
func (e *APIError) Is(target error) bool {
	switch target {
	case model.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case model.ErrBackpressure:
		return e.StatusCode == http.StatusTooManyRequests
	case model.ErrInvalidLimit:
		return e.StatusCode == http.StatusBadRequest && e.Code == "limit_exceeded"
	}
	return false
}
