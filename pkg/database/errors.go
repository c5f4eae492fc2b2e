package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/medflow/stockcheck-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Invalid text representation (22P02), e.g. a malformed UUID
	case "22P02":
		return errors.BadRequest("malformed identifier")

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			return errors.MissingField("unknown")
		}
		return errors.MissingField(col)

	// Raised by the change log trigger
	case "P0001":
		return errors.Conflict(pqErr.Message)

	default:
		return nil
	}
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "scope_not_empty"):
		return errors.InvalidScope()

	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: draft, processing, completed, cancelled",
		})

	case strings.Contains(constraint, "quantity_non_negative"):
		return errors.Validation(map[string]string{
			"quantity": "must be greater than or equal to 0",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "inspections_order_location"):
		return "this location already has an inspection in the check order"
	case strings.Contains(constraint, "locations_position"):
		return "a location already exists at this position"
	default:
		return "a record with these values already exists"
	}
}
