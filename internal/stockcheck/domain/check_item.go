package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ItemType classifies a counted quantity against the expected one
type ItemType string

const (
	ItemTypeUnderExpected ItemType = "under_expected"
	ItemTypeOverExpected  ItemType = "over_expected"
	ItemTypeValid         ItemType = "valid"
)

// Classify derives the item type from the two quantities
func Classify(expected, actual int) ItemType {
	switch {
	case actual < expected:
		return ItemTypeUnderExpected
	case actual > expected:
		return ItemTypeOverExpected
	default:
		return ItemTypeValid
	}
}

// CheckItem is one counted package inside an inspection
type CheckItem struct {
	PackageID        string   `json:"package_id"`
	ExpectedQuantity int      `json:"expected_quantity"`
	ActualQuantity   int      `json:"actual_quantity"`
	Type             ItemType `json:"type"`
}

// NewCheckItem builds an item with its type already derived
func NewCheckItem(packageID string, expected, actual int) CheckItem {
	return CheckItem{
		PackageID:        packageID,
		ExpectedQuantity: expected,
		ActualQuantity:   actual,
		Type:             Classify(expected, actual),
	}
}

// Delta is the correction reconciliation applies to the ledger
func (c CheckItem) Delta() int {
	return c.ActualQuantity - c.ExpectedQuantity
}

// CheckItems is the ordered item list stored as JSONB on an inspection.
// Package ids are unique within one list.
type CheckItems []CheckItem

// Index returns the position of packageID, or -1
func (items CheckItems) Index(packageID string) int {
	for i, item := range items {
		if item.PackageID == packageID {
			return i
		}
	}
	return -1
}

// Upsert replaces the item for the same package in place or appends it.
// The type is always re-derived. Reports whether the item was new.
func (items *CheckItems) Upsert(item CheckItem) bool {
	item.Type = Classify(item.ExpectedQuantity, item.ActualQuantity)
	if i := items.Index(item.PackageID); i >= 0 {
		(*items)[i] = item
		return false
	}
	*items = append(*items, item)
	return true
}

// Remove deletes the item for packageID and reports whether it existed
func (items *CheckItems) Remove(packageID string) bool {
	i := items.Index(packageID)
	if i < 0 {
		return false
	}
	*items = append((*items)[:i], (*items)[i+1:]...)
	return true
}

// ResetActuals zeroes every counted quantity
func (items CheckItems) ResetActuals() {
	for i := range items {
		items[i].ActualQuantity = 0
		items[i].Type = Classify(items[i].ExpectedQuantity, 0)
	}
}

// Clone returns an independent copy
func (items CheckItems) Clone() CheckItems {
	if items == nil {
		return nil
	}
	out := make(CheckItems, len(items))
	copy(out, items)
	return out
}

// Value implements driver.Valuer
func (items CheckItems) Value() (driver.Value, error) {
	if items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(items)
}

// Scan implements sql.Scanner
func (items *CheckItems) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*items = CheckItems{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CheckItems", src)
	}
	return json.Unmarshal(raw, items)
}
