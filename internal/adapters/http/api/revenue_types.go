package api

import (
	"net/http"

	"github.com/okian/royalty/internal/domain/revenue"
)

// RevenueTypesDependencies exposes the revenue type catalog.
type RevenueTypesDependencies interface {
	RevenueTypes() []revenue.Info
}

// RevenueTypesHandler serves the revenue type catalog.
type RevenueTypesHandler struct {
	deps RevenueTypesDependencies
}

// NewRevenueTypesHandler creates a new revenue types handler.
func NewRevenueTypesHandler(deps RevenueTypesDependencies) *RevenueTypesHandler {
	return &RevenueTypesHandler{deps: deps}
}

// HandleList handles GET /revenue-types requests.
func (h *RevenueTypesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.RevenueTypes())
}
