package domain

import (
	"time"
)

// Location is a storage slot in the warehouse
type Location struct {
	ID        string    `json:"id" db:"id"`
	Area      string    `json:"area" db:"area"`
	Bay       string    `json:"bay" db:"bay"`
	RowNo     int       `json:"row_no" db:"row_no"`
	ColumnNo  int       `json:"column_no" db:"column_no"`
	Available bool      `json:"available" db:"available"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Package is a quantity of one batch stored at one location
type Package struct {
	ID          string    `json:"id" db:"id"`
	BatchID     string    `json:"batch_id" db:"batch_id"`
	BatchNumber string    `json:"batch_number" db:"batch_number"`
	LocationID  string    `json:"location_id" db:"location_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
