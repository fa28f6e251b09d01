package domain

import (
	"context"

	"github.com/google/uuid"
)

// Product carries only the fields the auction engine touches: the
// "in auction" flag and the available stock. Catalog data lives elsewhere.
type Product struct {
	ID        uuid.UUID
	InAuction bool
	Stock     int
}

type Repository interface {
	// GetByID returns nil, nil when the product does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
}
