package service

import (
	"context"
	"time"

	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/actor"
)

// TxRunner runs fn in one transaction carried on the context.
// Stores called with that context join it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderStore persists check orders
type OrderStore interface {
	Create(ctx context.Context, order *domain.CheckOrder) error
	Get(ctx context.Context, id string) (*domain.CheckOrder, error)
	// GetForShare reads the order and blocks status writes until the transaction ends
	GetForShare(ctx context.Context, id string) (*domain.CheckOrder, error)
	List(ctx context.Context, filter domain.CheckOrderFilter) ([]*domain.CheckOrder, int64, error)
	// UpdateStatus writes next only if the stored status is still expected
	UpdateStatus(ctx context.Context, id string, expected, next domain.Status) (bool, error)
	// MarkReconciled stamps reconciled_at only if it is not set yet
	MarkReconciled(ctx context.Context, id string, at time.Time) (bool, error)
}

// InspectionStore persists inspections and their embedded check items
type InspectionStore interface {
	Create(ctx context.Context, inspection *domain.Inspection) error
	Get(ctx context.Context, id string) (*domain.Inspection, error)
	// ListByOrder pages through an order's inspections; limit <= 0 returns all
	ListByOrder(ctx context.Context, orderID string, limit, offset int) ([]*domain.Inspection, int64, error)
	// Update writes checker, status and items if Version still matches, then bumps Version
	Update(ctx context.Context, inspection *domain.Inspection) error
	// SetStatusForOrder moves every inspection of the order to status
	SetStatusForOrder(ctx context.Context, orderID string, status domain.Status) error
}

// LedgerStore reads packages and locations; only reconciliation writes them
type LedgerStore interface {
	GetLocation(ctx context.Context, id string) (*domain.Location, error)
	ListLocations(ctx context.Context, limit, offset int) ([]*domain.Location, int64, error)
	ListPackagesAtLocation(ctx context.Context, locationID string) ([]*domain.Package, error)
	// GetPackageForUpdate locks the package row for the rest of the transaction
	GetPackageForUpdate(ctx context.Context, id string) (*domain.Package, error)
	SetPackageQuantity(ctx context.Context, id string, quantity int) error
	SetLocationAvailable(ctx context.Context, id string, available bool) error
}

// ChangeLogStore is the append-only audit trail of reconciliation
type ChangeLogStore interface {
	Append(ctx context.Context, entry *domain.ChangeLogEntry) error
	ListForOrder(ctx context.Context, orderID string) ([]*domain.ChangeLogEntry, error)
}

// UserCacheStore holds user names synced from user service events
type UserCacheStore interface {
	Get(ctx context.Context, userID string) (*actor.UserCache, error)
	Upsert(ctx context.Context, user *actor.UserCache) error
	Delete(ctx context.Context, userID string) error
}

// EventSink receives best-effort notifications after commit
type EventSink interface {
	OrderStatusChanged(ctx context.Context, orderID string, oldStatus, newStatus domain.Status) error
	OrderReconciled(ctx context.Context, summary *domain.ReconcileSummary) error
}

// Stores bundles the persistence dependencies of the service
type Stores struct {
	Tx          TxRunner
	Orders      OrderStore
	Inspections InspectionStore
	Ledger      LedgerStore
	ChangeLog   ChangeLogStore
	Users       UserCacheStore
}
