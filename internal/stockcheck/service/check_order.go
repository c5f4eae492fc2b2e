package service

import (
	"context"
	"time"

	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/actor"
	"github.com/medflow/stockcheck-backend/pkg/errors"
	"github.com/medflow/stockcheck-backend/pkg/logger"
)

// CheckOrderService handles the check order lifecycle
type CheckOrderService struct {
	stores     Stores
	reconciler *Reconciler
	notify     *notifier
	logger     *logger.Logger
}

// NewCheckOrderService creates a new check order service.
// sink may be nil, in which case no events are emitted.
func NewCheckOrderService(stores Stores, reconciler *Reconciler, sink EventSink, notifyTimeout time.Duration, log *logger.Logger) *CheckOrderService {
	log = log.WithComponent("check_orders")
	return &CheckOrderService{
		stores:     stores,
		reconciler: reconciler,
		notify:     newNotifier(sink, notifyTimeout, log),
		logger:     log,
	}
}

// CheckOrderWithInspections is a check order together with its inspections
type CheckOrderWithInspections struct {
	*domain.CheckOrder
	Inspections []*domain.Inspection `json:"inspections"`
}

// StatusChange is the outcome of SetStatus
type StatusChange struct {
	Order     *domain.CheckOrder       `json:"order"`
	OldStatus domain.Status            `json:"old_status"`
	Summary   *domain.ReconcileSummary `json:"reconciliation,omitempty"`
}

// Create creates a draft check order and one draft inspection per scoped location
func (s *CheckOrderService) Create(ctx context.Context, req CreateCheckOrderRequest) (*CheckOrderWithInspections, error) {
	scope := domain.NormalizeScope(req.Scope)
	if len(scope) == 0 {
		return nil, errors.InvalidScope()
	}

	who := actor.FromContext(ctx)
	ownerID := req.OwnerID
	if ownerID == "" && !who.IsSystem() {
		ownerID = who.ID
	}
	if ownerID == "" {
		return nil, errors.MissingField("owner_id")
	}

	order := &domain.CheckOrder{
		Scope:         scope,
		OwnerID:       ownerID,
		CreatedBy:     who.IDPtr(),
		CreatedByName: who.NamePtr(),
		Status:        domain.StatusDraft,
		Notes:         req.Notes,
	}
	result := &CheckOrderWithInspections{CheckOrder: order}

	err := s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		for _, locID := range scope {
			if _, err := s.stores.Ledger.GetLocation(ctx, locID); err != nil {
				return err
			}
		}

		if err := s.stores.Orders.Create(ctx, order); err != nil {
			return err
		}

		result.Inspections = make([]*domain.Inspection, 0, len(scope))
		for _, locID := range scope {
			insp := &domain.Inspection{
				CheckOrderID: order.ID,
				LocationID:   locID,
				Status:       domain.StatusDraft,
				CheckItems:   domain.CheckItems{},
			}
			if err := s.stores.Inspections.Create(ctx, insp); err != nil {
				return err
			}
			result.Inspections = append(result.Inspections, insp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("order_id", order.ID).Int("locations", len(scope)).Msg("check order created")
	return result, nil
}

// Get gets a check order by ID
func (s *CheckOrderService) Get(ctx context.Context, id string) (*domain.CheckOrder, error) {
	return s.stores.Orders.Get(ctx, id)
}

// List lists check orders, newest first
func (s *CheckOrderService) List(ctx context.Context, filter domain.CheckOrderFilter) ([]*domain.CheckOrder, int64, error) {
	return s.stores.Orders.List(ctx, filter)
}

// SetStatus moves an order along the state machine.
// Completing an order reconciles it in the same transaction, so a failed
// reconciliation leaves the order in its previous status.
func (s *CheckOrderService) SetStatus(ctx context.Context, id string, next domain.Status) (*StatusChange, error) {
	if !next.Valid() {
		return nil, errors.Validation(map[string]string{
			"status": "must be one of: draft, processing, completed, cancelled",
		})
	}

	order, err := s.stores.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := order.Status

	if err := domain.ValidateTransition(order.ID, prev, next); err != nil {
		return nil, err
	}

	change := &StatusChange{OldStatus: prev}
	err = s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		// The conditional write goes first so a losing racer stops before reconciling.
		ok, err := s.stores.Orders.UpdateStatus(ctx, order.ID, prev, next)
		if err != nil {
			return err
		}
		if !ok {
			return errors.ConcurrentModification("check order")
		}

		if next == domain.StatusCompleted {
			summary, err := s.reconciler.Reconcile(ctx, order)
			if err != nil {
				return err
			}
			change.Summary = summary
		}

		if err := s.stores.Inspections.SetStatusForOrder(ctx, order.ID, next); err != nil {
			return err
		}

		change.Order, err = s.stores.Orders.Get(ctx, order.ID)
		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID).
			Str("from", prev.String()).Str("to", next.String()).
			Msg("status change rejected")
		return nil, err
	}

	s.logger.Info().Str("order_id", order.ID).
		Str("from", prev.String()).Str("to", next.String()).
		Msg("check order status changed")

	s.notify.send(ctx, "order_status_changed", func(ctx context.Context, sink EventSink) error {
		return sink.OrderStatusChanged(ctx, order.ID, prev, next)
	})
	if change.Summary != nil {
		summary := change.Summary
		s.notify.send(ctx, "order_reconciled", func(ctx context.Context, sink EventSink) error {
			return sink.OrderReconciled(ctx, summary)
		})
	}

	return change, nil
}

// Clear resets an order and all its inspections to draft and zeroes every actual quantity.
// The reconciled marker survives, so a cleared order cannot be reconciled a second time.
func (s *CheckOrderService) Clear(ctx context.Context, id string) ([]*domain.Inspection, error) {
	order, err := s.stores.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.StatusCancelled {
		return nil, errors.OrderCancelled(order.ID)
	}
	prev := order.Status

	var inspections []*domain.Inspection
	err = s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.stores.Orders.UpdateStatus(ctx, order.ID, prev, domain.StatusDraft)
		if err != nil {
			return err
		}
		if !ok {
			return errors.ConcurrentModification("check order")
		}

		inspections, _, err = s.stores.Inspections.ListByOrder(ctx, order.ID, 0, 0)
		if err != nil {
			return err
		}

		for _, insp := range inspections {
			insp.Status = domain.StatusDraft
			insp.CheckItems.ResetActuals()
			if err := s.stores.Inspections.Update(ctx, insp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("order_id", order.ID).Str("from", prev.String()).Msg("check order cleared")

	if prev != domain.StatusDraft {
		s.notify.send(ctx, "order_status_changed", func(ctx context.Context, sink EventSink) error {
			return sink.OrderStatusChanged(ctx, order.ID, prev, domain.StatusDraft)
		})
	}

	return inspections, nil
}

// ChangeLog returns the ledger changes reconciliation made for an order
func (s *CheckOrderService) ChangeLog(ctx context.Context, id string) ([]*domain.ChangeLogEntry, error) {
	if _, err := s.stores.Orders.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.stores.ChangeLog.ListForOrder(ctx, id)
}

// Wait blocks until pending event deliveries are done. Call it on shutdown.
func (s *CheckOrderService) Wait() {
	s.notify.wait()
}
