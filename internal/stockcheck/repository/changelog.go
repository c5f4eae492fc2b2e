package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/database"
)

// ChangeLogRepository appends to and reads the reconciliation change log.
// The table rejects UPDATE and DELETE through a trigger.
type ChangeLogRepository struct {
	db *database.DB
}

// NewChangeLogRepository creates a new change log repository
func NewChangeLogRepository(db *database.DB) *ChangeLogRepository {
	return &ChangeLogRepository{db: db}
}

// Append inserts one entry
func (r *ChangeLogRepository) Append(ctx context.Context, entry *domain.ChangeLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO stock_check_change_log
			(id, check_order_id, inspection_id, location_id, package_id, before_quantity, after_quantity, actor_id, actor_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		entry.ID, entry.CheckOrderID, entry.InspectionID, entry.LocationID, entry.PackageID,
		entry.BeforeQuantity, entry.AfterQuantity, entry.ActorID, entry.ActorName,
	).Scan(&entry.CreatedAt)
	return mapErr(err)
}

// ListForOrder returns an order's entries in chronological order
func (r *ChangeLogRepository) ListForOrder(ctx context.Context, orderID string) ([]*domain.ChangeLogEntry, error) {
	entries := []*domain.ChangeLogEntry{}
	if !validID(orderID) {
		return entries, nil
	}

	query := `
		SELECT id, check_order_id, inspection_id, location_id, package_id,
		       before_quantity, after_quantity, actor_id, actor_name, created_at
		FROM stock_check_change_log
		WHERE check_order_id = $1
		ORDER BY created_at, id
	`
	if err := sqlx.SelectContext(ctx, r.db.Conn(ctx), &entries, query, orderID); err != nil {
		return nil, err
	}
	return entries, nil
}
