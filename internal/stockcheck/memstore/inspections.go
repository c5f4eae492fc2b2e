package memstore

import (
	"context"
	"time"

	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/errors"
)

// Inspections stores inspections
type Inspections struct {
	s *Store
}

func (r *Inspections) Create(ctx context.Context, inspection *domain.Inspection) error {
	return r.s.do(ctx, func(st *memoryState, now time.Time) error {
		order, ok := st.orders[inspection.CheckOrderID]
		if !ok {
			return errors.BadRequest("referenced record does not exist")
		}
		if !order.InScope(inspection.LocationID) {
			return errors.InvalidScope()
		}
		for _, id := range st.inspectionIDs {
			existing := st.inspections[id]
			if existing.CheckOrderID == inspection.CheckOrderID && existing.LocationID == inspection.LocationID {
				return errors.Conflict("this location already has an inspection in the check order")
			}
		}

		if inspection.ID == "" {
			inspection.ID = newID()
		}
		if inspection.Status == "" {
			inspection.Status = domain.StatusDraft
		}
		if inspection.CheckItems == nil {
			inspection.CheckItems = domain.CheckItems{}
		}
		inspection.Version = 1
		inspection.CreatedAt = now
		inspection.UpdatedAt = now

		st.inspections[inspection.ID] = inspection.Clone()
		st.inspectionIDs = append(st.inspectionIDs, inspection.ID)
		return nil
	})
}

func (r *Inspections) Get(ctx context.Context, id string) (*domain.Inspection, error) {
	var out *domain.Inspection
	err := r.s.do(ctx, func(st *memoryState, _ time.Time) error {
		insp, ok := st.inspections[id]
		if !ok {
			return errors.NotFound("inspection")
		}
		out = insp.Clone()
		return nil
	})
	return out, err
}

func (r *Inspections) ListByOrder(ctx context.Context, orderID string, limit, offset int) ([]*domain.Inspection, int64, error) {
	var matched []*domain.Inspection
	err := r.s.do(ctx, func(st *memoryState, _ time.Time) error {
		for _, id := range st.inspectionIDs {
			if insp := st.inspections[id]; insp.CheckOrderID == orderID {
				matched = append(matched, insp.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page(matched, limit, offset), int64(len(matched)), nil
}

func (r *Inspections) Update(ctx context.Context, inspection *domain.Inspection) error {
	return r.s.do(ctx, func(st *memoryState, now time.Time) error {
		stored, ok := st.inspections[inspection.ID]
		if !ok {
			return errors.NotFound("inspection")
		}
		if stored.Version != inspection.Version {
			return errors.ConcurrentModification("inspection")
		}

		inspection.Version++
		inspection.UpdatedAt = now
		if inspection.CheckItems == nil {
			inspection.CheckItems = domain.CheckItems{}
		}

		next := inspection.Clone()
		next.CheckOrderID = stored.CheckOrderID
		next.LocationID = stored.LocationID
		next.CreatedAt = stored.CreatedAt
		st.inspections[inspection.ID] = next
		return nil
	})
}

func (r *Inspections) SetStatusForOrder(ctx context.Context, orderID string, status domain.Status) error {
	return r.s.do(ctx, func(st *memoryState, now time.Time) error {
		for _, insp := range st.inspections {
			if insp.CheckOrderID != orderID {
				continue
			}
			insp.Status = status
			insp.Version++
			insp.UpdatedAt = now
		}
		return nil
	})
}
