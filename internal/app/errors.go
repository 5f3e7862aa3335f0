package service

import (
	"errors"
	"fmt"

	"github.com/okian/royalty/internal/domain/model"
)

// Sentinel error kinds returned by Service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = fmt.Errorf("job queue full: %w", model.ErrBackpressure)
	ErrJobNotFound  = fmt.Errorf("job %w", model.ErrNotFound)
	ErrInvalidLimit = fmt.Errorf("catalog %w", model.ErrInvalidLimit)
)
