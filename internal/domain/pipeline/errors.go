package pipeline

import "errors"

// Sentinel kinds for pipeline errors.
var (
	ErrInvalidConfig = errors.New("invalid pipeline config")
	ErrMissingID     = errors.New("song id is required")
	ErrInvalidScore  = errors.New("completeness score must be between 0 and 1")
	ErrInvalidShare  = errors.New("share must be between 0 and 100")
)
