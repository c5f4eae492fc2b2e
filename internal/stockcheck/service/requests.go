package service

import (
	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/errors"
)

// CreateCheckOrderRequest is the input of CheckOrderService.Create.
// An empty OwnerID assigns the order to the calling actor.
type CreateCheckOrderRequest struct {
	Scope   []string `json:"scope" validate:"omitempty,dive,uuid"`
	OwnerID string   `json:"owner_id" validate:"omitempty,uuid"`
	Notes   *string  `json:"notes" validate:"omitempty,max=2000"`
}

// SetStatusRequest is the body of PATCH /check-orders/{id}
type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AssignCheckerRequest is the body of PATCH /inspections/{id}/checker
type AssignCheckerRequest struct {
	CheckerID string `json:"checker_id" validate:"required,uuid"`
}

// UpsertCheckItemRequest is one counted line.
// Fields are pointers so a missing quantity is distinguishable from 0.
type UpsertCheckItemRequest struct {
	PackageID        *string `json:"package_id"`
	ExpectedQuantity *int    `json:"expected_quantity" validate:"omitempty,gte=0"`
	ActualQuantity   *int    `json:"actual_quantity" validate:"omitempty,gte=0"`
}

// CheckItem validates the request and builds the item with its derived type
func (r UpsertCheckItemRequest) CheckItem() (domain.CheckItem, error) {
	var missing []string
	if r.PackageID == nil || *r.PackageID == "" {
		missing = append(missing, "package_id")
	}
	if r.ExpectedQuantity == nil {
		missing = append(missing, "expected_quantity")
	}
	if r.ActualQuantity == nil {
		missing = append(missing, "actual_quantity")
	}
	if len(missing) > 0 {
		return domain.CheckItem{}, errors.MissingField(missing...)
	}

	details := map[string]string{}
	if *r.ExpectedQuantity < 0 {
		details["expected_quantity"] = "must be greater than or equal to 0"
	}
	if *r.ActualQuantity < 0 {
		details["actual_quantity"] = "must be greater than or equal to 0"
	}
	if len(details) > 0 {
		return domain.CheckItem{}, errors.Validation(details)
	}

	return domain.NewCheckItem(*r.PackageID, *r.ExpectedQuantity, *r.ActualQuantity), nil
}
