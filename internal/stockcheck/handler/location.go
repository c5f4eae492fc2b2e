package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/service"
	"github.com/medflow/stockcheck-backend/pkg/httputil"
	"github.com/medflow/stockcheck-backend/pkg/logger"
)

// LocationHandler exposes read-only ledger views
type LocationHandler struct {
	svc    *service.LedgerService
	logger *logger.Logger
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(svc *service.LedgerService, log *logger.Logger) *LocationHandler {
	return &LocationHandler{
		svc:    svc,
		logger: log,
	}
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := httputil.Pagination(r)

	locations, total, err := h.svc.ListLocations(r.Context(), page, perPage)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, locations, httputil.NewMeta(page, perPage, total))
}

func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	loc, err := h.svc.GetLocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, loc)
}

// ListPackages returns the ledger packages stored at a location
func (h *LocationHandler) ListPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.svc.ListPackagesAtLocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, packages)
}
