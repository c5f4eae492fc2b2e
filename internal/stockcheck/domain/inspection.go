package domain

import "time"

// Inspection is the count record of one location within a check order
type Inspection struct {
	ID           string     `json:"id" db:"id"`
	CheckOrderID string     `json:"check_order_id" db:"check_order_id"`
	LocationID   string     `json:"location_id" db:"location_id"`
	CheckerID    *string    `json:"checker_id,omitempty" db:"checker_id"`
	CheckerName  *string    `json:"checker_name,omitempty" db:"checker_name"`
	Status       Status     `json:"status" db:"status"`
	CheckItems   CheckItems `json:"check_items" db:"check_items"`
	Version      int        `json:"version" db:"version"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Clone returns a copy that shares no mutable state with i
func (i *Inspection) Clone() *Inspection {
	c := *i
	c.CheckItems = i.CheckItems.Clone()
	if i.CheckerID != nil {
		id := *i.CheckerID
		c.CheckerID = &id
	}
	if i.CheckerName != nil {
		name := *i.CheckerName
		c.CheckerName = &name
	}
	return &c
}
