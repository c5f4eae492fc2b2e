// Package memstore is an in-memory, transactional implementation of the stock
// check stores. It backs the "memory" storage driver and the service tests.
//
// A transaction clones the whole state and holds the store mutex until it
// commits, so transactions are fully serialized. Commit swaps the clone in;
// a failing transaction simply drops it.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/actor"
)

type memoryState struct {
	orders      map[string]domain.CheckOrder
	inspections map[string]*domain.Inspection
	locations   map[string]domain.Location
	packages    map[string]domain.Package
	changeLog   []domain.ChangeLogEntry
	users       map[string]actor.UserCache

	// insertion order for stable listings
	orderIDs      []string
	inspectionIDs []string
	locationIDs   []string
	packageIDs    []string
}

func newMemoryState() memoryState {
	return memoryState{
		orders:      map[string]domain.CheckOrder{},
		inspections: map[string]*domain.Inspection{},
		locations:   map[string]domain.Location{},
		packages:    map[string]domain.Package{},
		users:       map[string]actor.UserCache{},
	}
}

func (s memoryState) clone() memoryState {
	c := memoryState{
		orders:        make(map[string]domain.CheckOrder, len(s.orders)),
		inspections:   make(map[string]*domain.Inspection, len(s.inspections)),
		locations:     make(map[string]domain.Location, len(s.locations)),
		packages:      make(map[string]domain.Package, len(s.packages)),
		changeLog:     append([]domain.ChangeLogEntry(nil), s.changeLog...),
		users:         make(map[string]actor.UserCache, len(s.users)),
		orderIDs:      append([]string(nil), s.orderIDs...),
		inspectionIDs: append([]string(nil), s.inspectionIDs...),
		locationIDs:   append([]string(nil), s.locationIDs...),
		packageIDs:    append([]string(nil), s.packageIDs...),
	}
	for k, v := range s.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range s.inspections {
		c.inspections[k] = v.Clone()
	}
	for k, v := range s.locations {
		c.locations[k] = v
	}
	for k, v := range s.packages {
		c.packages[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

func cloneOrder(o domain.CheckOrder) domain.CheckOrder {
	o.Scope = append([]string(nil), o.Scope...)
	if o.ReconciledAt != nil {
		t := *o.ReconciledAt
		o.ReconciledAt = &t
	}
	return o
}

type txKey struct{}

type transaction struct {
	state memoryState
}

// Store is the in-memory database
type Store struct {
	mu    sync.Mutex
	state memoryState
	nowFn func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		state: newMemoryState(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// SetNow replaces the clock, for tests
func (s *Store) SetNow(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// WithTx runs fn against a private copy of the state and commits it if fn succeeds.
// A nested call joins the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*transaction); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.clone()}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// do runs fn against the transaction state on ctx, or against the committed state under the mutex
func (s *Store) do(ctx context.Context, fn func(st *memoryState, now time.Time) error) error {
	if tx, ok := ctx.Value(txKey{}).(*transaction); ok {
		return fn(&tx.state, s.nowFn())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state, s.nowFn())
}

func newID() string {
	return uuid.New().String()
}

// Orders returns the check order store
func (s *Store) Orders() *Orders { return &Orders{s: s} }

// Inspections returns the inspection store
func (s *Store) Inspections() *Inspections { return &Inspections{s: s} }

// Ledger returns the package and location store
func (s *Store) Ledger() *Ledger { return &Ledger{s: s} }

// ChangeLog returns the change log store
func (s *Store) ChangeLog() *ChangeLog { return &ChangeLog{s: s} }

// Users returns the user cache store
func (s *Store) Users() *Users { return &Users{s: s} }

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortedByCreated[T any](items []T, created func(T) time.Time, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return created(items[i]).After(created(items[j]))
		}
		return created(items[i]).Before(created(items[j]))
	})
}
