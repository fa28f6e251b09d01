package domain

import (
	"time"

	"github.com/google/uuid"
)

// Bid represents an individual bid in an auction. Bids are created once and
// immutable thereafter, the auction's bid history is append-only.
type Bid struct {
	ID          uuid.UUID
	AuctionID   uuid.UUID
	UserID      uuid.UUID
	AmountMinor int64
	BidAt       time.Time
}

// NewBid creates a new Bid instance.
func NewBid(id, auctionID, userID uuid.UUID, amountMinor int64, bidAt time.Time) *Bid {
	return &Bid{
		ID:          id,
		AuctionID:   auctionID,
		UserID:      userID,
		AmountMinor: amountMinor,
		BidAt:       bidAt,
	}
}
