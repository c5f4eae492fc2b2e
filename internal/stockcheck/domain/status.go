package domain

import (
	"strings"

	"github.com/medflow/stockcheck-backend/pkg/errors"
)

// Status is the lifecycle state shared by check orders and their inspections
type Status string

const (
	StatusDraft      Status = "draft"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus normalizes s and reports whether it names a known status
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Valid()
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status change is allowed without a clear
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}

// transitions lists every allowed status change. Clear is handled separately.
var transitions = map[Status][]Status{
	StatusDraft:      {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from -> to is in the transition table
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns the business error for a status change of orderID, or nil
func ValidateTransition(orderID string, from, to Status) error {
	switch {
	case from == StatusCancelled:
		return errors.OrderCancelled(orderID)
	case from == StatusCompleted && to == StatusCompleted:
		return errors.AlreadyReconciled(orderID)
	case CanTransition(from, to):
		return nil
	default:
		return errors.InvalidTransition(from.String(), to.String())
	}
}

// EnsureMutable rejects edits below an order that is cancelled or already reconciled
func EnsureMutable(orderID string, status Status) error {
	if !status.Terminal() {
		return nil
	}
	if status == StatusCancelled {
		return errors.OrderCancelled(orderID)
	}
	return errors.AlreadyReconciled(orderID)
}
