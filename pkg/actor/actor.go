// Package actor identifies the user or system performing an action.
//
// The gateway authenticates requests and forwards the user as X-User-* headers.
// Services turn those into an Actor on the request context and stamp it onto
// audit records such as the stock check change log.
package actor

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SystemID is the actor ID used for unauthenticated or background work
const SystemID = "00000000-0000-0000-0000-000000000000"

// Actor represents the entity performing an action in the system.
type Actor struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	// RoleName is informational only; authorization happens at the gateway
	RoleName string `json:"role_name,omitempty"`
}

// FullName returns first and last name, falling back to the email
func (a *Actor) FullName() string {
	if a == nil {
		return ""
	}
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.Email
	}
	return name
}

// String returns a string representation of the actor for logging
func (a *Actor) String() string {
	if a == nil {
		return "system"
	}
	return fmt.Sprintf("%s (%s)", a.FullName(), a.ID)
}

// IsSystem returns true if the actor represents the system.
func (a *Actor) IsSystem() bool {
	return a == nil || a.ID == SystemID
}

// IDPtr returns the actor ID for nullable columns, nil for the system
func (a *Actor) IDPtr() *string {
	if a.IsSystem() {
		return nil
	}
	id := a.ID
	return &id
}

// NamePtr returns the display name for nullable columns
func (a *Actor) NamePtr() *string {
	if a == nil {
		return nil
	}
	name := a.FullName()
	if name == "" {
		return nil
	}
	return &name
}

type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context.
// Returns nil if no actor is present (e.g., system operations).
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, _ := ctx.Value(actorContextKey).(*Actor)
	return a
}

// FromContextOrSystem never returns nil
func FromContextOrSystem(ctx context.Context) *Actor {
	if a := FromContext(ctx); a != nil {
		return a
	}
	return SystemActor()
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}

// SystemActor returns an Actor representing the system itself.
func SystemActor() *Actor {
	return &Actor{
		ID:        SystemID,
		FirstName: "System",
		Email:     "system@medflow.local",
	}
}

// UserCache is the locally cached copy of a user, kept in sync by user.* events.
type UserCache struct {
	UserID    string    `json:"user_id" db:"user_id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	RoleName  string    `json:"role_name" db:"role_name"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ToActor converts a UserCache entry to an Actor.
func (uc *UserCache) ToActor() *Actor {
	if uc == nil {
		return nil
	}
	return &Actor{
		ID:        uc.UserID,
		FirstName: uc.FirstName,
		LastName:  uc.LastName,
		Email:     uc.Email,
		RoleName:  uc.RoleName,
	}
}

// FullName returns the cached user's full name.
func (uc *UserCache) FullName() string {
	return uc.ToActor().FullName()
}
