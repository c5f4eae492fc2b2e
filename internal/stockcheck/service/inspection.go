package service

import (
	"context"

	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/errors"
	"github.com/medflow/stockcheck-backend/pkg/lock"
	"github.com/medflow/stockcheck-backend/pkg/logger"
)

// InspectionService manages inspections and their check items.
// Edits of one inspection are serialized by a keyed lock and guarded by its version.
type InspectionService struct {
	stores Stores
	locker lock.Locker
	logger *logger.Logger
}

// NewInspectionService creates a new inspection service
func NewInspectionService(stores Stores, locker lock.Locker, log *logger.Logger) *InspectionService {
	return &InspectionService{
		stores: stores,
		locker: locker,
		logger: log.WithComponent("inspections"),
	}
}

func lockKey(inspectionID string) string {
	return "inspection:" + inspectionID
}

// Get gets an inspection by ID
func (s *InspectionService) Get(ctx context.Context, id string) (*domain.Inspection, error) {
	return s.stores.Inspections.Get(ctx, id)
}

// ListForOrder pages through the inspections of an order
func (s *InspectionService) ListForOrder(ctx context.Context, orderID string, page, perPage int) ([]*domain.Inspection, int64, error) {
	if _, err := s.stores.Orders.Get(ctx, orderID); err != nil {
		return nil, 0, err
	}
	return s.stores.Inspections.ListByOrder(ctx, orderID, perPage, offset(page, perPage))
}

// AssignChecker records who counts the inspection's location
func (s *InspectionService) AssignChecker(ctx context.Context, id, userID string) (*domain.Inspection, error) {
	if userID == "" {
		return nil, errors.MissingField("checker_id")
	}
	return s.mutate(ctx, id, func(ctx context.Context, insp *domain.Inspection) error {
		var name *string
		cached, err := s.stores.Users.Get(ctx, userID)
		if err != nil {
			return err
		}
		if cached != nil {
			if n := cached.FullName(); n != "" {
				name = &n
			}
		}

		insp.CheckerID = &userID
		insp.CheckerName = name
		return nil
	})
}

// InitializeCheckItems replaces the items with a snapshot of the ledger at the inspection's location.
// Actual quantities start at 0.
func (s *InspectionService) InitializeCheckItems(ctx context.Context, id string) (*domain.Inspection, error) {
	return s.mutate(ctx, id, func(ctx context.Context, insp *domain.Inspection) error {
		packages, err := s.stores.Ledger.ListPackagesAtLocation(ctx, insp.LocationID)
		if err != nil {
			return err
		}

		items := make(domain.CheckItems, 0, len(packages))
		for _, p := range packages {
			items = append(items, domain.NewCheckItem(p.ID, p.Quantity, 0))
		}
		insp.CheckItems = items
		return nil
	})
}

// UpsertCheckItem inserts or replaces the item for the request's package
func (s *InspectionService) UpsertCheckItem(ctx context.Context, id string, req UpsertCheckItemRequest) (*domain.CheckItem, error) {
	item, err := req.CheckItem()
	if err != nil {
		return nil, err
	}

	insp, err := s.mutate(ctx, id, func(ctx context.Context, insp *domain.Inspection) error {
		insp.CheckItems.Upsert(item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	saved := insp.CheckItems[insp.CheckItems.Index(item.PackageID)]
	return &saved, nil
}

// DeleteCheckItem removes the item for packageID
func (s *InspectionService) DeleteCheckItem(ctx context.Context, id, packageID string) error {
	_, err := s.mutate(ctx, id, func(ctx context.Context, insp *domain.Inspection) error {
		if !insp.CheckItems.Remove(packageID) {
			return errors.NotFound("check item")
		}
		return nil
	})
	return err
}

// ListCheckItems pages through an inspection's items in insertion order
func (s *InspectionService) ListCheckItems(ctx context.Context, id string, page, perPage int) ([]domain.CheckItem, int64, error) {
	insp, err := s.stores.Inspections.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	total := int64(len(insp.CheckItems))
	start := offset(page, perPage)
	if start >= len(insp.CheckItems) {
		return []domain.CheckItem{}, total, nil
	}
	end := len(insp.CheckItems)
	if perPage > 0 && start+perPage < end {
		end = start + perPage
	}
	return insp.CheckItems[start:end], total, nil
}

// mutate loads the inspection under its lock, checks the parent order allows edits,
// applies fn and writes the result in one transaction.
func (s *InspectionService) mutate(ctx context.Context, id string, fn func(ctx context.Context, insp *domain.Inspection) error) (*domain.Inspection, error) {
	var result *domain.Inspection

	err := lock.With(ctx, s.locker, lockKey(id), func(ctx context.Context) error {
		return s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
			insp, err := s.stores.Inspections.Get(ctx, id)
			if err != nil {
				return err
			}

			// A completion waiting on this lock reconciles the items written here
			order, err := s.stores.Orders.GetForShare(ctx, insp.CheckOrderID)
			if err != nil {
				return err
			}
			if err := domain.EnsureMutable(order.ID, order.Status); err != nil {
				return err
			}

			if err := fn(ctx, insp); err != nil {
				return err
			}
			if err := s.stores.Inspections.Update(ctx, insp); err != nil {
				return err
			}
			result = insp
			return nil
		})
	})
	if errors.Is(err, lock.ErrNotObtained) {
		s.logger.Warn().Str("inspection_id", id).Msg("inspection is locked by another edit")
		return nil, errors.ConcurrentModification("inspection")
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func offset(page, perPage int) int {
	if page < 1 || perPage < 1 {
		return 0
	}
	return (page - 1) * perPage
}
