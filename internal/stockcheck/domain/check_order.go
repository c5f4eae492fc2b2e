package domain

import (
	"time"

	"github.com/lib/pq"
)

// CheckOrder is one inventory count campaign over a set of locations
type CheckOrder struct {
	ID            string         `json:"id" db:"id"`
	Scope         pq.StringArray `json:"scope" db:"scope"`
	OwnerID       string         `json:"owner_id" db:"owner_id"`
	CreatedBy     *string        `json:"created_by,omitempty" db:"created_by"`
	CreatedByName *string        `json:"created_by_name,omitempty" db:"created_by_name"`
	Status        Status         `json:"status" db:"status"`
	Notes         *string        `json:"notes,omitempty" db:"notes"`
	ReconciledAt  *time.Time     `json:"reconciled_at,omitempty" db:"reconciled_at"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// IsReconciled reports whether the ledger has already absorbed this order
func (o *CheckOrder) IsReconciled() bool {
	return o.ReconciledAt != nil
}

// InScope reports whether locationID belongs to the order
func (o *CheckOrder) InScope(locationID string) bool {
	for _, id := range o.Scope {
		if id == locationID {
			return true
		}
	}
	return false
}

// NormalizeScope drops blanks and duplicates, keeping first-seen order
func NormalizeScope(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CheckOrderFilter narrows ListCheckOrders
type CheckOrderFilter struct {
	Status  *Status
	OwnerID *string
	Page    int
	PerPage int
}

// Offset returns the row offset for the page
func (f CheckOrderFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PerPage
}
