package memstore

import (
	"context"
	"time"

	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/errors"
)

// Orders stores check orders
type Orders struct {
	s *Store
}

func (r *Orders) Create(ctx context.Context, order *domain.CheckOrder) error {
	return r.s.do(ctx, func(st *memoryState, now time.Time) error {
		if order.ID == "" {
			order.ID = newID()
		}
		if _, exists := st.orders[order.ID]; exists {
			return errors.Conflict("check order already exists")
		}
		if len(order.Scope) == 0 {
			return errors.InvalidScope()
		}
		if order.Status == "" {
			order.Status = domain.StatusDraft
		}
		order.CreatedAt = now
		order.UpdatedAt = now

		st.orders[order.ID] = cloneOrder(*order)
		st.orderIDs = append(st.orderIDs, order.ID)
		return nil
	})
}

func (r *Orders) Get(ctx context.Context, id string) (*domain.CheckOrder, error) {
	var out domain.CheckOrder
	err := r.s.do(ctx, func(st *memoryState, _ time.Time) error {
		o, ok := st.orders[id]
		if !ok {
			return errors.NotFound("check order")
		}
		out = cloneOrder(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForShare is Get; the store already runs one transaction at a time
func (r *Orders) GetForShare(ctx context.Context, id string) (*domain.CheckOrder, error) {
	return r.Get(ctx, id)
}

func (r *Orders) List(ctx context.Context, filter domain.CheckOrderFilter) ([]*domain.CheckOrder, int64, error) {
	var matched []*domain.CheckOrder
	err := r.s.do(ctx, func(st *memoryState, _ time.Time) error {
		for _, id := range st.orderIDs {
			o := st.orders[id]
			if filter.Status != nil && o.Status != *filter.Status {
				continue
			}
			if filter.OwnerID != nil && o.OwnerID != *filter.OwnerID {
				continue
			}
			c := cloneOrder(o)
			matched = append(matched, &c)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sortedByCreated(matched, func(o *domain.CheckOrder) time.Time { return o.CreatedAt }, true)
	return page(matched, filter.PerPage, filter.Offset()), int64(len(matched)), nil
}

func (r *Orders) UpdateStatus(ctx context.Context, id string, expected, next domain.Status) (bool, error) {
	var updated bool
	err := r.s.do(ctx, func(st *memoryState, now time.Time) error {
		o, ok := st.orders[id]
		if !ok || o.Status != expected {
			return nil
		}
		o.Status = next
		o.UpdatedAt = now
		st.orders[id] = o
		updated = true
		return nil
	})
	return updated, err
}

func (r *Orders) MarkReconciled(ctx context.Context, id string, at time.Time) (bool, error) {
	var updated bool
	err := r.s.do(ctx, func(st *memoryState, now time.Time) error {
		o, ok := st.orders[id]
		if !ok || o.ReconciledAt != nil {
			return nil
		}
		o.ReconciledAt = &at
		o.UpdatedAt = now
		st.orders[id] = o
		updated = true
		return nil
	})
	return updated, err
}
