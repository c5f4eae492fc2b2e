package service

import (
	"context"
	"time"

	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/actor"
	"github.com/medflow/stockcheck-backend/pkg/errors"
	"github.com/medflow/stockcheck-backend/pkg/logger"
)

// Reconciler writes the counted quantities of a completed check order into the ledger.
// Reconcile must run inside the transaction that completes the order.
type Reconciler struct {
	orders      OrderStore
	inspections InspectionStore
	ledger      LedgerStore
	changeLog   ChangeLogStore
	logger      *logger.Logger
	now         func() time.Time
}

// NewReconciler creates a new reconciliation engine
func NewReconciler(stores Stores, log *logger.Logger) *Reconciler {
	return &Reconciler{
		orders:      stores.Orders,
		inspections: stores.Inspections,
		ledger:      stores.Ledger,
		changeLog:   stores.ChangeLog,
		logger:      log.WithComponent("reconciler"),
		now:         time.Now,
	}
}

// Reconcile applies every discrepancy of order to the ledger and logs each change.
// Any failure aborts the run; the caller's transaction discards the partial writes.
func (r *Reconciler) Reconcile(ctx context.Context, order *domain.CheckOrder) (*domain.ReconcileSummary, error) {
	if order.IsReconciled() {
		return nil, errors.AlreadyReconciled(order.ID)
	}

	log := r.logger.WithOrder(order.ID)
	who := actor.FromContextOrSystem(ctx)

	inspections, _, err := r.inspections.ListByOrder(ctx, order.ID, 0, 0)
	if err != nil {
		return nil, err
	}

	summary := &domain.ReconcileSummary{
		OrderID:          order.ID,
		LocationsChanged: []string{},
		LocationsFreed:   []string{},
	}
	touched := map[string]bool{}

	for _, insp := range inspections {
		for _, item := range insp.CheckItems {
			summary.ItemsChecked++
			if item.Delta() == 0 {
				continue
			}

			pkg, err := r.ledger.GetPackageForUpdate(ctx, item.PackageID)
			if errors.Is(err, errors.ErrNotFound) {
				log.Warn().Str("inspection_id", insp.ID).Str("package_id", item.PackageID).
					Msg("reconciliation aborted: package no longer exists")
				return nil, errors.ReconciliationFailed(insp.ID, item.PackageID, "package not found")
			}
			if err != nil {
				return nil, err
			}

			if err := r.ledger.SetPackageQuantity(ctx, pkg.ID, item.ActualQuantity); err != nil {
				return nil, err
			}

			entry := &domain.ChangeLogEntry{
				CheckOrderID:   order.ID,
				InspectionID:   insp.ID,
				LocationID:     insp.LocationID,
				PackageID:      pkg.ID,
				BeforeQuantity: pkg.Quantity,
				AfterQuantity:  item.ActualQuantity,
				ActorID:        who.IDPtr(),
				ActorName:      who.NamePtr(),
			}
			if err := r.changeLog.Append(ctx, entry); err != nil {
				return nil, err
			}

			summary.PackagesChanged++
			for _, locID := range []string{insp.LocationID, pkg.LocationID} {
				if !touched[locID] {
					touched[locID] = true
					summary.LocationsChanged = append(summary.LocationsChanged, locID)
				}
			}

			log.Debug().Str("package_id", pkg.ID).Int("before", pkg.Quantity).Int("after", item.ActualQuantity).
				Msg("package quantity corrected")
		}
	}

	for _, locID := range summary.LocationsChanged {
		freed, err := r.refreshAvailability(ctx, locID)
		if err != nil {
			return nil, err
		}
		if freed {
			summary.LocationsFreed = append(summary.LocationsFreed, locID)
		}
	}

	summary.ReconciledAt = r.now().UTC()
	ok, err := r.orders.MarkReconciled(ctx, order.ID, summary.ReconciledAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.AlreadyReconciled(order.ID)
	}

	log.Info().
		Int("items_checked", summary.ItemsChecked).
		Int("packages_changed", summary.PackagesChanged).
		Int("locations_freed", len(summary.LocationsFreed)).
		Msg("check order reconciled")

	return summary, nil
}

// refreshAvailability marks a location available iff every package in it is empty.
// It reports whether the location became available.
func (r *Reconciler) refreshAvailability(ctx context.Context, locationID string) (bool, error) {
	loc, err := r.ledger.GetLocation(ctx, locationID)
	if err != nil {
		return false, err
	}

	packages, err := r.ledger.ListPackagesAtLocation(ctx, locationID)
	if err != nil {
		return false, err
	}

	empty := true
	for _, p := range packages {
		if p.Quantity > 0 {
			empty = false
			break
		}
	}

	if loc.Available == empty {
		return false, nil
	}
	if err := r.ledger.SetLocationAvailable(ctx, locationID, empty); err != nil {
		return false, err
	}
	return empty, nil
}
