package service

import (
	"context"

	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
)

// LedgerService exposes read access to locations and packages
type LedgerService struct {
	ledger LedgerStore
}

// NewLedgerService creates a new ledger service
func NewLedgerService(ledger LedgerStore) *LedgerService {
	return &LedgerService{ledger: ledger}
}

// ListLocations lists locations in warehouse order
func (s *LedgerService) ListLocations(ctx context.Context, page, perPage int) ([]*domain.Location, int64, error) {
	return s.ledger.ListLocations(ctx, perPage, offset(page, perPage))
}

// GetLocation gets a location by ID
func (s *LedgerService) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	return s.ledger.GetLocation(ctx, id)
}

// ListPackagesAtLocation lists the packages stored at a location
func (s *LedgerService) ListPackagesAtLocation(ctx context.Context, locationID string) ([]*domain.Package, error) {
	if _, err := s.ledger.GetLocation(ctx, locationID); err != nil {
		return nil, err
	}
	return s.ledger.ListPackagesAtLocation(ctx, locationID)
}
