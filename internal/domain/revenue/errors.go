package revenue

import "errors"

// Sentinel kinds for boundary validation errors.
var (
	ErrInvalidEnum   = errors.New("invalid enumerated value")
	ErrInvalidAmount = errors.New("invalid revenue amount")
)
