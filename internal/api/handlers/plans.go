// Package handlers contains the HTTP handler implementations for the
// FocusFlow entitlement API. Each handler declares the service contracts it
// needs as local interfaces and receives implementations via its
// constructor, which keeps handlers mockable and decoupled from concrete
// service types.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"focusflow/internal/core"
	"focusflow/internal/plan"
)

// PlansHandler serves the public plan catalog for the pricing page.
type PlansHandler struct {
	catalog plan.Catalog
}

// NewPlansHandler creates a PlansHandler.
func NewPlansHandler(catalog plan.Catalog) *PlansHandler {
	return &PlansHandler{catalog: catalog}
}

// RegisterRoutes mounts the catalog endpoint. The route is public; auth
// middleware exempts it.
func (h *PlansHandler) RegisterRoutes(r chi.Router) {
	r.Get("/plans", h.ListPlans)
}

// ListPlans handles GET /v1/plans. It returns every catalog entry in
// ascending entitlement order.
func (h *PlansHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: h.catalog.Entries()})
}
