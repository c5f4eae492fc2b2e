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

const inspectionColumns = `id, check_order_id, location_id, checker_id, checker_name, status, check_items, version, created_at, updated_at`

// InspectionRepository handles inspection persistence.
// Check items live in the check_items JSONB column.
type InspectionRepository struct {
	db *database.DB
}

// NewInspectionRepository creates a new inspection repository
func NewInspectionRepository(db *database.DB) *InspectionRepository {
	return &InspectionRepository{db: db}
}

// Create inserts a new inspection
func (r *InspectionRepository) Create(ctx context.Context, insp *domain.Inspection) error {
	if insp.ID == "" {
		insp.ID = uuid.New().String()
	}
	if insp.Status == "" {
		insp.Status = domain.StatusDraft
	}
	if insp.CheckItems == nil {
		insp.CheckItems = domain.CheckItems{}
	}

	query := `
		INSERT INTO inspections (id, check_order_id, location_id, checker_id, checker_name, status, check_items)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING version, created_at, updated_at
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		insp.ID, insp.CheckOrderID, insp.LocationID, insp.CheckerID, insp.CheckerName, insp.Status, insp.CheckItems,
	).Scan(&insp.Version, &insp.CreatedAt, &insp.UpdatedAt)

	return mapErr(err)
}

// Get gets an inspection by ID
func (r *InspectionRepository) Get(ctx context.Context, id string) (*domain.Inspection, error) {
	if !validID(id) {
		return nil, errors.NotFound("inspection")
	}

	var insp domain.Inspection
	query := `SELECT ` + inspectionColumns + ` FROM inspections WHERE id = $1`
	err := sqlx.GetContext(ctx, r.db.Conn(ctx), &insp, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("inspection")
	}
	if err != nil {
		return nil, err
	}
	return &insp, nil
}

// ListByOrder lists an order's inspections in creation order
func (r *InspectionRepository) ListByOrder(ctx context.Context, orderID string, limit, offset int) ([]*domain.Inspection, int64, error) {
	list := []*domain.Inspection{}
	if !validID(orderID) {
		return list, 0, nil
	}

	var total int64
	if err := sqlx.GetContext(ctx, r.db.Conn(ctx), &total,
		`SELECT COUNT(*) FROM inspections WHERE check_order_id = $1`, orderID); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + inspectionColumns + ` FROM inspections WHERE check_order_id = $1 ORDER BY seq`
	args := []interface{}{orderID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	if err := sqlx.SelectContext(ctx, r.db.Conn(ctx), &list, query, args...); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update writes the mutable fields if the version still matches and bumps it
func (r *InspectionRepository) Update(ctx context.Context, insp *domain.Inspection) error {
	if insp.CheckItems == nil {
		insp.CheckItems = domain.CheckItems{}
	}

	query := `
		UPDATE inspections
		SET checker_id = $2, checker_name = $3, status = $4, check_items = $5,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $6
		RETURNING version, updated_at
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		insp.ID, insp.CheckerID, insp.CheckerName, insp.Status, insp.CheckItems, insp.Version,
	).Scan(&insp.Version, &insp.UpdatedAt)

	if err == sql.ErrNoRows {
		var exists bool
		if err := sqlx.GetContext(ctx, r.db.Conn(ctx), &exists,
			`SELECT EXISTS(SELECT 1 FROM inspections WHERE id = $1)`, insp.ID); err != nil {
			return err
		}
		if !exists {
			return errors.NotFound("inspection")
		}
		return errors.ConcurrentModification("inspection")
	}
	return mapErr(err)
}

// SetStatusForOrder moves all inspections of an order to status
func (r *InspectionRepository) SetStatusForOrder(ctx context.Context, orderID string, status domain.Status) error {
	query := `UPDATE inspections SET status = $2, version = version + 1, updated_at = NOW() WHERE check_order_id = $1`
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, orderID, status)
	return mapErr(err)
}
