package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/medflow/stockcheck-backend/pkg/actor"
	"github.com/medflow/stockcheck-backend/pkg/database"
)

// UserCacheRepository handles user cache persistence
type UserCacheRepository struct {
	db *database.DB
}

// NewUserCacheRepository creates a new user cache repository
func NewUserCacheRepository(db *database.DB) *UserCacheRepository {
	return &UserCacheRepository{db: db}
}

// Upsert creates or updates a cached user
func (r *UserCacheRepository) Upsert(ctx context.Context, user *actor.UserCache) error {
	query := `
		INSERT INTO user_cache (user_id, first_name, last_name, email, role_name, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET first_name = $2, last_name = $3, email = $4, role_name = $5, updated_at = NOW()
		RETURNING updated_at
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		user.UserID, user.FirstName, user.LastName, user.Email, user.RoleName,
	).Scan(&user.UpdatedAt)
	return mapErr(err)
}

// Get gets a cached user by ID. Unknown users yield nil, nil.
func (r *UserCacheRepository) Get(ctx context.Context, userID string) (*actor.UserCache, error) {
	if !validID(userID) {
		return nil, nil
	}

	var user actor.UserCache
	query := `SELECT user_id, first_name, last_name, email, role_name, updated_at FROM user_cache WHERE user_id = $1`
	err := sqlx.GetContext(ctx, r.db.Conn(ctx), &user, query, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a cached user
func (r *UserCacheRepository) Delete(ctx context.Context, userID string) error {
	if !validID(userID) {
		return nil
	}
	_, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM user_cache WHERE user_id = $1`, userID)
	return err
}
