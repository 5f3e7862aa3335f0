package repository

import (
	"errors"
	"fmt"

	"github.com/okian/royalty/internal/domain/model"
)

// Sentinel kinds for report store errors.
var (
	ErrNotFound     = fmt.Errorf("catalog report %w", model.ErrNotFound)
	ErrInvalidLimit = fmt.Errorf("ranking %w", model.ErrInvalidLimit)
	ErrMissingID    = errors.New("report has no catalog id")
)
