package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/service"
	"github.com/medflow/stockcheck-backend/pkg/httputil"
	"github.com/medflow/stockcheck-backend/pkg/logger"
)

// InspectionHandler handles inspection and check item endpoints
type InspectionHandler struct {
	svc    *service.InspectionService
	logger *logger.Logger
}

// NewInspectionHandler creates a new inspection handler
func NewInspectionHandler(svc *service.InspectionService, log *logger.Logger) *InspectionHandler {
	return &InspectionHandler{
		svc:    svc,
		logger: log,
	}
}

func (h *InspectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	insp, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, insp)
}

// AssignChecker sets the user who counts this inspection
func (h *InspectionHandler) AssignChecker(w http.ResponseWriter, r *http.Request) {
	var req service.AssignCheckerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	insp, err := h.svc.AssignChecker(r.Context(), chi.URLParam(r, "id"), req.CheckerID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, insp)
}

// InitializeCheckItems snapshots the ledger packages at the inspection's location
func (h *InspectionHandler) InitializeCheckItems(w http.ResponseWriter, r *http.Request) {
	insp, err := h.svc.InitializeCheckItems(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, insp)
}

func (h *InspectionHandler) ListCheckItems(w http.ResponseWriter, r *http.Request) {
	page, perPage := httputil.Pagination(r)

	items, total, err := h.svc.ListCheckItems(r.Context(), chi.URLParam(r, "id"), page, perPage)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, items, httputil.NewMeta(page, perPage, total))
}

// UpsertCheckItem records one counted quantity
func (h *InspectionHandler) UpsertCheckItem(w http.ResponseWriter, r *http.Request) {
	var req service.UpsertCheckItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	item, err := h.svc.UpsertCheckItem(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, item)
}

func (h *InspectionHandler) DeleteCheckItem(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteCheckItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "packageId"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.NoContent(w)
}
