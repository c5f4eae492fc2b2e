package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/database"
	"github.com/medflow/stockcheck-backend/pkg/errors"
)

const checkOrderColumns = `id, scope, owner_id, created_by, created_by_name, status, notes, reconciled_at, created_at, updated_at`

// CheckOrderRepository handles check order persistence
type CheckOrderRepository struct {
	db *database.DB
}

// NewCheckOrderRepository creates a new check order repository
func NewCheckOrderRepository(db *database.DB) *CheckOrderRepository {
	return &CheckOrderRepository{db: db}
}

// Create inserts a new check order
func (r *CheckOrderRepository) Create(ctx context.Context, order *domain.CheckOrder) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Status == "" {
		order.Status = domain.StatusDraft
	}

	query := `
		INSERT INTO check_orders (id, scope, owner_id, created_by, created_by_name, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		order.ID, order.Scope, order.OwnerID, order.CreatedBy, order.CreatedByName, order.Status, order.Notes,
	).Scan(&order.CreatedAt, &order.UpdatedAt)

	return mapErr(err)
}

// Get gets a check order by ID
func (r *CheckOrderRepository) Get(ctx context.Context, id string) (*domain.CheckOrder, error) {
	return r.get(ctx, id, "")
}

// GetForShare gets a check order and holds a share lock on its row.
// Status writes from other transactions wait until the caller commits.
func (r *CheckOrderRepository) GetForShare(ctx context.Context, id string) (*domain.CheckOrder, error) {
	return r.get(ctx, id, " FOR SHARE")
}

func (r *CheckOrderRepository) get(ctx context.Context, id, lockClause string) (*domain.CheckOrder, error) {
	if !validID(id) {
		return nil, errors.NotFound("check order")
	}

	var order domain.CheckOrder
	query := `SELECT ` + checkOrderColumns + ` FROM check_orders WHERE id = $1` + lockClause
	err := sqlx.GetContext(ctx, r.db.Conn(ctx), &order, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("check order")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List lists check orders, newest first
func (r *CheckOrderRepository) List(ctx context.Context, filter domain.CheckOrderFilter) ([]*domain.CheckOrder, int64, error) {
	var conds []string
	var args []interface{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.OwnerID != nil {
		if !validID(*filter.OwnerID) {
			return []*domain.CheckOrder{}, 0, nil
		}
		args = append(args, *filter.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := sqlx.GetContext(ctx, r.db.Conn(ctx), &total, `SELECT COUNT(*) FROM check_orders`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.PerPage, filter.Offset())
	query := fmt.Sprintf(`SELECT %s FROM check_orders%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		checkOrderColumns, where, len(args)-1, len(args))

	orders := []*domain.CheckOrder{}
	if err := sqlx.SelectContext(ctx, r.db.Conn(ctx), &orders, query, args...); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus is a compare-and-set on the status column
func (r *CheckOrderRepository) UpdateStatus(ctx context.Context, id string, expected, next domain.Status) (bool, error) {
	query := `UPDATE check_orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, id, expected, next)
	if err != nil {
		return false, mapErr(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// MarkReconciled sets reconciled_at once
func (r *CheckOrderRepository) MarkReconciled(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE check_orders SET reconciled_at = $2, updated_at = NOW() WHERE id = $1 AND reconciled_at IS NULL`
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, id, at)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
