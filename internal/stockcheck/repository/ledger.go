package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/database"
	"github.com/medflow/stockcheck-backend/pkg/errors"
)

const (
	locationColumns = `id, area, bay, row_no, column_no, available, created_at, updated_at`
	packageColumns  = `id, batch_id, batch_number, location_id, quantity, created_at, updated_at`
)

// LedgerRepository reads and corrects packages and locations
type LedgerRepository struct {
	db *database.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CreateLocation inserts a location. Locations are normally owned by warehouse setup.
func (r *LedgerRepository) CreateLocation(ctx context.Context, loc *domain.Location) error {
	if loc.ID == "" {
		loc.ID = uuid.New().String()
	}

	query := `
		INSERT INTO locations (id, area, bay, row_no, column_no, available)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		loc.ID, loc.Area, loc.Bay, loc.RowNo, loc.ColumnNo, loc.Available,
	).Scan(&loc.CreatedAt, &loc.UpdatedAt)
	return mapErr(err)
}

// CreatePackage inserts a package. Packages are normally owned by goods receipt.
func (r *LedgerRepository) CreatePackage(ctx context.Context, pkg *domain.Package) error {
	if pkg.ID == "" {
		pkg.ID = uuid.New().String()
	}

	query := `
		INSERT INTO packages (id, batch_id, batch_number, location_id, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		pkg.ID, pkg.BatchID, pkg.BatchNumber, pkg.LocationID, pkg.Quantity,
	).Scan(&pkg.CreatedAt, &pkg.UpdatedAt)
	return mapErr(err)
}

// GetLocation gets a location by ID
func (r *LedgerRepository) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	if !validID(id) {
		return nil, errors.NotFound("location")
	}

	var loc domain.Location
	err := sqlx.GetContext(ctx, r.db.Conn(ctx), &loc, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("location")
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// ListLocations lists locations in warehouse order
func (r *LedgerRepository) ListLocations(ctx context.Context, limit, offset int) ([]*domain.Location, int64, error) {
	var total int64
	if err := sqlx.GetContext(ctx, r.db.Conn(ctx), &total, `SELECT COUNT(*) FROM locations`); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + locationColumns + ` FROM locations ORDER BY area, bay, row_no, column_no`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	locations := []*domain.Location{}
	if err := sqlx.SelectContext(ctx, r.db.Conn(ctx), &locations, query, args...); err != nil {
		return nil, 0, err
	}
	return locations, total, nil
}

// ListPackagesAtLocation lists the packages currently stored at a location
func (r *LedgerRepository) ListPackagesAtLocation(ctx context.Context, locationID string) ([]*domain.Package, error) {
	packages := []*domain.Package{}
	if !validID(locationID) {
		return packages, nil
	}

	query := `SELECT ` + packageColumns + ` FROM packages WHERE location_id = $1 ORDER BY created_at, id`
	if err := sqlx.SelectContext(ctx, r.db.Conn(ctx), &packages, query, locationID); err != nil {
		return nil, err
	}
	return packages, nil
}

// GetPackageForUpdate reads a package and row-locks it until the transaction ends
func (r *LedgerRepository) GetPackageForUpdate(ctx context.Context, id string) (*domain.Package, error) {
	if !validID(id) {
		return nil, errors.NotFound("package")
	}

	var pkg domain.Package
	query := `SELECT ` + packageColumns + ` FROM packages WHERE id = $1 FOR UPDATE`
	err := sqlx.GetContext(ctx, r.db.Conn(ctx), &pkg, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("package")
	}
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// SetPackageQuantity overwrites the on-hand quantity
func (r *LedgerRepository) SetPackageQuantity(ctx context.Context, id string, quantity int) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE packages SET quantity = $2, updated_at = NOW() WHERE id = $1`, id, quantity)
	if err != nil {
		return mapErr(err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("package")
	}
	return nil
}

// SetLocationAvailable sets the availability flag
func (r *LedgerRepository) SetLocationAvailable(ctx context.Context, id string, available bool) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE locations SET available = $2, updated_at = NOW() WHERE id = $1`, id, available)
	if err != nil {
		return mapErr(err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("location")
	}
	return nil
}
