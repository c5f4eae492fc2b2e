package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/actor"
)

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Location creates a location fixture with a unique position
func (f *FixtureFactory) Location(opts ...func(*domain.Location)) *domain.Location {
	seq := f.nextSeq()

	loc := &domain.Location{
		ID:        uuid.New().String(),
		Area:      "A",
		Bay:       fmt.Sprintf("%02d", seq),
		RowNo:     1,
		ColumnNo:  1,
		Available: false,
	}

	for _, opt := range opts {
		opt(loc)
	}

	return loc
}

// Available marks the location as empty
func Available() func(*domain.Location) {
	return func(l *domain.Location) {
		l.Available = true
	}
}

// Package creates a package fixture stored at locationID
func (f *FixtureFactory) Package(locationID string, quantity int) *domain.Package {
	seq := f.nextSeq()

	return &domain.Package{
		ID:          uuid.New().String(),
		BatchID:     uuid.New().String(),
		BatchNumber: fmt.Sprintf("LOT-%04d", seq),
		LocationID:  locationID,
		Quantity:    quantity,
	}
}

// CheckOrder creates a draft check order fixture
func (f *FixtureFactory) CheckOrder(ownerID string, scope ...string) *domain.CheckOrder {
	return &domain.CheckOrder{
		ID:      uuid.New().String(),
		Scope:   scope,
		OwnerID: ownerID,
		Status:  domain.StatusDraft,
	}
}

// User creates a cached user fixture
func (f *FixtureFactory) User(opts ...func(*actor.UserCache)) *actor.UserCache {
	seq := f.nextSeq()

	user := &actor.UserCache{
		UserID:    uuid.New().String(),
		FirstName: fmt.Sprintf("Checker%d", seq),
		LastName:  "Test",
		Email:     fmt.Sprintf("checker%d@test.medflow.de", seq),
		RoleName:  "warehouse_staff",
		UpdatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(user)
	}

	return user
}

// WithName sets the user's first and last name
func WithName(first, last string) func(*actor.UserCache) {
	return func(u *actor.UserCache) {
		u.FirstName = first
		u.LastName = last
	}
}
