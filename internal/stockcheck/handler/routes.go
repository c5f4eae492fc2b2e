package handler

import "github.com/go-chi/chi/v5"

// BasePath is where the stock check API is mounted
const BasePath = "/api/v1/stock-check"

// Handlers groups the stock check handlers for routing
type Handlers struct {
	CheckOrders *CheckOrderHandler
	Inspections *InspectionHandler
	Locations   *LocationHandler
}

// Routes registers the API routes on r. Mount it under BasePath.
func (h Handlers) Routes(r chi.Router) {
	r.Route("/check-orders", func(r chi.Router) {
		r.Get("/", h.CheckOrders.List)
		r.Post("/", h.CheckOrders.Create)
		r.Get("/{id}", h.CheckOrders.Get)
		r.Patch("/{id}", h.CheckOrders.SetStatus)
		r.Patch("/{id}/clear", h.CheckOrders.Clear)
		r.Get("/{id}/inspections", h.CheckOrders.ListInspections)
		r.Get("/{id}/change-log", h.CheckOrders.ChangeLog)
	})

	r.Route("/inspections/{id}", func(r chi.Router) {
		r.Get("/", h.Inspections.Get)
		r.Patch("/checker", h.Inspections.AssignChecker)
		r.Post("/check-items", h.Inspections.InitializeCheckItems)
		r.Get("/check-items", h.Inspections.ListCheckItems)
		r.Put("/check-items", h.Inspections.UpsertCheckItem)
		r.Delete("/check-items/{packageId}", h.Inspections.DeleteCheckItem)
	})

	r.Route("/locations", func(r chi.Router) {
		r.Get("/", h.Locations.List)
		r.Get("/{id}", h.Locations.Get)
		r.Get("/{id}/packages", h.Locations.ListPackages)
	})
}
