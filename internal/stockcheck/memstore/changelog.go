package memstore

import (
	"context"
	"time"

	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/actor"
	"github.com/medflow/stockcheck-backend/pkg/errors"
)

// ChangeLog is the append-only reconciliation trail
type ChangeLog struct {
	s *Store
}

func (r *ChangeLog) Append(ctx context.Context, entry *domain.ChangeLogEntry) error {
	return r.s.do(ctx, func(st *memoryState, now time.Time) error {
		if _, ok := st.orders[entry.CheckOrderID]; !ok {
			return errors.BadRequest("referenced record does not exist")
		}
		if entry.ID == "" {
			entry.ID = newID()
		}
		entry.CreatedAt = now
		st.changeLog = append(st.changeLog, *entry)
		return nil
	})
}

// ListForOrder returns entries in the order they were appended
func (r *ChangeLog) ListForOrder(ctx context.Context, orderID string) ([]*domain.ChangeLogEntry, error) {
	out := []*domain.ChangeLogEntry{}
	err := r.s.do(ctx, func(st *memoryState, _ time.Time) error {
		for _, e := range st.changeLog {
			if e.CheckOrderID == orderID {
				out = append(out, &e)
			}
		}
		return nil
	})
	return out, err
}

// Users caches user names from user service events
type Users struct {
	s *Store
}

// Get returns nil without error for unknown users
func (r *Users) Get(ctx context.Context, userID string) (*actor.UserCache, error) {
	var out *actor.UserCache
	err := r.s.do(ctx, func(st *memoryState, _ time.Time) error {
		if u, ok := st.users[userID]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *Users) Upsert(ctx context.Context, user *actor.UserCache) error {
	return r.s.do(ctx, func(st *memoryState, now time.Time) error {
		user.UpdatedAt = now
		st.users[user.UserID] = *user
		return nil
	})
}

func (r *Users) Delete(ctx context.Context, userID string) error {
	return r.s.do(ctx, func(st *memoryState, _ time.Time) error {
		delete(st.users, userID)
		return nil
	})
}
