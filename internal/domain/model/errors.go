package model

import "errors"

// Error kinds shared across layers. Adapters wrap these so callers can
// classify failures with errors.Is without importing each other.
var (
	ErrNotFound     = errors.New("not found")
	ErrBackpressure = errors.New("backpressure")
	ErrInvalidLimit = errors.New("invalid limit")
)
