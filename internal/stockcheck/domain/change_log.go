package domain

import "time"

// ChangeLogEntry records one ledger quantity change made by reconciliation.
// Entries are append-only.
type ChangeLogEntry struct {
	ID             string    `json:"id" db:"id"`
	CheckOrderID   string    `json:"check_order_id" db:"check_order_id"`
	InspectionID   string    `json:"inspection_id" db:"inspection_id"`
	LocationID     string    `json:"location_id" db:"location_id"`
	PackageID      string    `json:"package_id" db:"package_id"`
	BeforeQuantity int       `json:"before_quantity" db:"before_quantity"`
	AfterQuantity  int       `json:"after_quantity" db:"after_quantity"`
	ActorID        *string   `json:"actor_id,omitempty" db:"actor_id"`
	ActorName      *string   `json:"actor_name,omitempty" db:"actor_name"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ReconcileSummary describes what one reconciliation run did to the ledger
type ReconcileSummary struct {
	OrderID          string    `json:"order_id"`
	ItemsChecked     int       `json:"items_checked"`
	PackagesChanged  int       `json:"packages_changed"`
	LocationsChanged []string  `json:"locations_changed"`
	LocationsFreed   []string  `json:"locations_freed"`
	ReconciledAt     time.Time `json:"reconciled_at"`
}
