package domain

import (
	"context"

	"github.com/google/uuid"
)

// User is the minimal bidder identity the engine needs. Profiles and
// verification live elsewhere.
type User struct {
	ID uuid.UUID
}

type Repository interface {
	// GetByID returns nil, nil when the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}
