package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/service"
	"github.com/medflow/stockcheck-backend/pkg/errors"
	"github.com/medflow/stockcheck-backend/pkg/httputil"
	"github.com/medflow/stockcheck-backend/pkg/logger"
)

// CheckOrderHandler handles check order endpoints
type CheckOrderHandler struct {
	orders      *service.CheckOrderService
	inspections *service.InspectionService
	logger      *logger.Logger
}

// NewCheckOrderHandler creates a new check order handler
func NewCheckOrderHandler(orders *service.CheckOrderService, inspections *service.InspectionService, log *logger.Logger) *CheckOrderHandler {
	return &CheckOrderHandler{
		orders:      orders,
		inspections: inspections,
		logger:      log,
	}
}

// Create creates a check order with one inspection per scoped location
func (h *CheckOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCheckOrderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	order, err := h.orders.Create(r.Context(), req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, order)
}

// List lists check orders, optionally filtered by status and owner
func (h *CheckOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := httputil.Pagination(r)
	filter := domain.CheckOrderFilter{Page: page, PerPage: perPage}

	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			httputil.ErrorLocalized(w, r, errors.Validation(map[string]string{
				"status": "must be one of: draft, processing, completed, cancelled",
			}))
			return
		}
		filter.Status = &status
	}
	if owner := strings.TrimSpace(q.Get("owner_id")); owner != "" {
		filter.OwnerID = &owner
	}

	orders, total, err := h.orders.List(r.Context(), filter)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, orders, httputil.NewMeta(page, perPage, total))
}

func (h *CheckOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, order)
}

// SetStatus changes the order status. Moving to completed reconciles the ledger.
func (h *CheckOrderHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req service.SetStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	// Unknown values fall through to SetStatus, which rejects them
	status, _ := domain.ParseStatus(req.Status)

	change, err := h.orders.SetStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, change)
}

// Clear resets the order and its inspections to draft
func (h *CheckOrderHandler) Clear(w http.ResponseWriter, r *http.Request) {
	inspections, err := h.orders.Clear(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, inspections)
}

func (h *CheckOrderHandler) ListInspections(w http.ResponseWriter, r *http.Request) {
	page, perPage := httputil.Pagination(r)
	inspections, total, err := h.inspections.ListForOrder(r.Context(), chi.URLParam(r, "id"), page, perPage)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, inspections, httputil.NewMeta(page, perPage, total))
}

// ChangeLog returns the ledger changes made when the order was reconciled
func (h *CheckOrderHandler) ChangeLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.orders.ChangeLog(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entries)
}
