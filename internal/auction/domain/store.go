package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuctionStore is the persistence abstraction of the engine. Reads outside
// a transaction go through the store directly; every mutation runs inside
// an AuctionTx whose LoadForUpdate serializes on the auction row.
type AuctionStore interface {
	Begin(ctx context.Context) (AuctionTx, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Auction, error)
	// ListBids returns a page of the auction's bids, newest first, plus
	// the total number of bids.
	ListBids(ctx context.Context, auctionID uuid.UUID, limit, offset int) ([]*Bid, int, error)
	// ExpiredActiveIDs lists auctions the closing sweep should visit.
	ExpiredActiveIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// AuctionTx is one atomic unit of validate-then-write. LoadForUpdate takes
// the per-auction lock; a bounded lock wait that elapses surfaces
// ErrContention. Rollback after a successful Commit is a no-op.
type AuctionTx interface {
	LoadForUpdate(ctx context.Context, id uuid.UUID) (*Auction, error)
	SaveAuction(ctx context.Context, a *Auction) error
	InsertBid(ctx context.Context, b *Bid) error
	CountBids(ctx context.Context, auctionID uuid.UUID) (int, error)
	// HighestBid returns the winning candidate: highest amount, earliest
	// bid_at on ties. Nil when the auction has no bids.
	HighestBid(ctx context.Context, auctionID uuid.UUID) (*Bid, error)
	SetProductInAuction(ctx context.Context, productID uuid.UUID, inAuction bool) error
	// DecrementProductStock takes one unit off the product's stock,
	// best-effort: products already at zero are skipped silently.
	DecrementProductStock(ctx context.Context, productID uuid.UUID) error
	DeleteAuction(ctx context.Context, id uuid.UUID) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// SettlementBridge is the escrow/smart-contract collaborator. The engine
// only logs its results, settlement failures never roll back a close.
type SettlementBridge interface {
	CreateAuction(ctx context.Context, a *Auction) error
	SyncAuction(ctx context.Context, a *Auction) error
	BeginSettlement(ctx context.Context, auctionID, winnerID uuid.UUID, amountMinor int64) error
	ReportNoWinner(ctx context.Context, auctionID uuid.UUID) error
}

// EventPublisher fans events out to the real-time layer. Fire-and-forget:
// implementations log their own failures.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event)
}
