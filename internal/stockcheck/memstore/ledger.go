package memstore

import (
	"context"
	"time"

	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/errors"
)

// Ledger stores locations and packages
type Ledger struct {
	s *Store
}

// AddLocation seeds a location
func (r *Ledger) AddLocation(ctx context.Context, loc *domain.Location) error {
	return r.s.do(ctx, func(st *memoryState, now time.Time) error {
		if loc.ID == "" {
			loc.ID = newID()
		}
		if _, exists := st.locations[loc.ID]; !exists {
			st.locationIDs = append(st.locationIDs, loc.ID)
		}
		loc.CreatedAt = now
		loc.UpdatedAt = now
		st.locations[loc.ID] = *loc
		return nil
	})
}

// AddPackage seeds a package at an existing location
func (r *Ledger) AddPackage(ctx context.Context, pkg *domain.Package) error {
	return r.s.do(ctx, func(st *memoryState, now time.Time) error {
		if _, ok := st.locations[pkg.LocationID]; !ok {
			return errors.BadRequest("referenced record does not exist")
		}
		if pkg.Quantity < 0 {
			return errors.Validation(map[string]string{"quantity": "must be greater than or equal to 0"})
		}
		if pkg.ID == "" {
			pkg.ID = newID()
		}
		if _, exists := st.packages[pkg.ID]; !exists {
			st.packageIDs = append(st.packageIDs, pkg.ID)
		}
		pkg.CreatedAt = now
		pkg.UpdatedAt = now
		st.packages[pkg.ID] = *pkg
		return nil
	})
}

// RemovePackage drops a package, as when stock leaves the warehouse
func (r *Ledger) RemovePackage(ctx context.Context, id string) error {
	return r.s.do(ctx, func(st *memoryState, _ time.Time) error {
		if _, ok := st.packages[id]; !ok {
			return errors.NotFound("package")
		}
		delete(st.packages, id)
		for i, pid := range st.packageIDs {
			if pid == id {
				st.packageIDs = append(st.packageIDs[:i], st.packageIDs[i+1:]...)
				break
			}
		}
		return nil
	})
}

// GetPackage reads a package without locking
func (r *Ledger) GetPackage(ctx context.Context, id string) (*domain.Package, error) {
	var out domain.Package
	err := r.s.do(ctx, func(st *memoryState, _ time.Time) error {
		p, ok := st.packages[id]
		if !ok {
			return errors.NotFound("package")
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Ledger) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	var out domain.Location
	err := r.s.do(ctx, func(st *memoryState, _ time.Time) error {
		loc, ok := st.locations[id]
		if !ok {
			return errors.NotFound("location")
		}
		out = loc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Ledger) ListLocations(ctx context.Context, limit, offset int) ([]*domain.Location, int64, error) {
	var all []*domain.Location
	err := r.s.do(ctx, func(st *memoryState, _ time.Time) error {
		for _, id := range st.locationIDs {
			loc := st.locations[id]
			all = append(all, &loc)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page(all, limit, offset), int64(len(all)), nil
}

func (r *Ledger) ListPackagesAtLocation(ctx context.Context, locationID string) ([]*domain.Package, error) {
	var out []*domain.Package
	err := r.s.do(ctx, func(st *memoryState, _ time.Time) error {
		for _, id := range st.packageIDs {
			if p := st.packages[id]; p.LocationID == locationID {
				out = append(out, &p)
			}
		}
		return nil
	})
	return out, err
}

// GetPackageForUpdate needs no row lock here: transactions are already serialized
func (r *Ledger) GetPackageForUpdate(ctx context.Context, id string) (*domain.Package, error) {
	return r.GetPackage(ctx, id)
}

func (r *Ledger) SetPackageQuantity(ctx context.Context, id string, quantity int) error {
	return r.s.do(ctx, func(st *memoryState, now time.Time) error {
		p, ok := st.packages[id]
		if !ok {
			return errors.NotFound("package")
		}
		if quantity < 0 {
			return errors.Validation(map[string]string{"quantity": "must be greater than or equal to 0"})
		}
		p.Quantity = quantity
		p.UpdatedAt = now
		st.packages[id] = p
		return nil
	})
}

func (r *Ledger) SetLocationAvailable(ctx context.Context, id string, available bool) error {
	return r.s.do(ctx, func(st *memoryState, now time.Time) error {
		loc, ok := st.locations[id]
		if !ok {
			return errors.NotFound("location")
		}
		loc.Available = available
		loc.UpdatedAt = now
		st.locations[id] = loc
		return nil
	})
}
