// Package repository persists catalog reports and ranks catalogs by gross
// valuation.
package repository

import (
	"context"

	"github.com/okian/royalty/internal/domain/model"
)

// Store provides read/write access to appraisal reports.
//
// Ordering for rankings: gross valuation desc, then catalog id asc. Ranks
// are 1-based positions in that order.
type Store interface {
	// Save inserts or replaces the report of report.CatalogID.
	Save(ctx context.Context, report model.Report) error

	// Get returns the stored report of a catalog.
	// Returns ErrNotFound if the catalog is unknown.
	Get(ctx context.Context, catalogID string) (model.Report, error)

	// Rank returns the ranking row of a catalog.
	// Returns ErrNotFound if the catalog is unknown.
	Rank(ctx context.Context, catalogID string) (model.RankedEntry, error)

	// TopN returns the top-N catalogs.
	TopN(ctx context.Context, n int) ([]model.RankedEntry, error)

	// Count returns the number of stored reports.
	Count(ctx context.Context) (int, error)

	Close() error
}
