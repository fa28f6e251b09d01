package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketbay/bidengine/internal/shared/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionStatus represents the current state of an auction.
type AuctionStatus string

const (
	StatusPending   AuctionStatus = "pending"
	StatusActive    AuctionStatus = "active"
	StatusPaused    AuctionStatus = "paused"
	StatusFinished  AuctionStatus = "finished"
	StatusCancelled AuctionStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s AuctionStatus) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// Auction is the aggregate root of the bidding engine. All amounts are in
// minor currency units. CurrentBidMinor and WinnerID stay nil until the
// first accepted bid; the authoritative history is the bids table.
type Auction struct {
	ID                uuid.UUID
	ProductID         uuid.UUID
	StartAt           time.Time
	EndAt             time.Time
	StartingBidMinor  int64
	ReservePriceMinor *int64
	CurrentBidMinor   *int64
	WinnerID          *uuid.UUID
	Status            AuctionStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewAuction(id, productID uuid.UUID, startAt, endAt time.Time, startingBidMinor int64, reservePriceMinor *int64) (*Auction, error) {
	if !endAt.After(startAt) {
		return nil, ErrInvalidWindow
	}
	if startingBidMinor <= 0 {
		return nil, ErrInvalidAmount
	}
	return &Auction{
		ID:                id,
		ProductID:         productID,
		StartAt:           startAt,
		EndAt:             endAt,
		StartingBidMinor:  startingBidMinor,
		ReservePriceMinor: reservePriceMinor,
		Status:            StatusPending,
	}, nil
}

// ApplyBid validates and applies a bid against the snapshot the caller
// holds under the auction's lock. On acceptance it bumps CurrentBidMinor
// and WinnerID, applies the anti-sniping extension when the bid lands
// inside the window and returns the new Bid plus whether an extension
// occurred. The snapshot is left untouched on rejection.
func (a *Auction) ApplyBid(userID uuid.UUID, amountMinor int64, now time.Time) (*Bid, bool, error) {
	if err := ValidateBid(a, amountMinor, now); err != nil {
		log.Warn("Bid rejected",
			zap.String("auctionID", a.ID.String()),
			zap.String("userID", userID.String()),
			zap.Int64("amountMinor", amountMinor),
			zap.String("status", string(a.Status)),
			zap.Error(err),
		)
		return nil, false, err
	}

	originalEnd := a.EndAt
	newEnd, extended := ExtendForBid(a.EndAt, now)
	if extended {
		a.EndAt = newEnd
		log.Info("Auction time extended",
			zap.String("auctionID", a.ID.String()),
			zap.Time("originalEndAt", originalEnd),
			zap.Time("newEndAt", a.EndAt),
			zap.String("userID", userID.String()),
		)
	}

	a.CurrentBidMinor = &amountMinor
	a.WinnerID = &userID

	newBid := NewBid(uuid.New(), a.ID, userID, amountMinor, now)

	log.Info("Bid placed",
		zap.String("auctionID", a.ID.String()),
		zap.String("bidID", newBid.ID.String()),
		zap.String("userID", userID.String()),
		zap.Int64("amountMinor", amountMinor),
		zap.Time("endAt", a.EndAt),
	)

	return newBid, extended, nil
}

// Activate starts a pending auction.
func (a *Auction) Activate() error {
	if a.Status != StatusPending {
		return ErrInvalidTransition
	}
	a.Status = StatusActive
	log.Info("Auction activated",
		zap.String("auctionID", a.ID.String()),
		zap.Time("endAt", a.EndAt),
	)
	return nil
}

// Pause suspends an active auction; no bids are accepted while paused.
func (a *Auction) Pause() error {
	if a.Status != StatusActive {
		return ErrInvalidTransition
	}
	a.Status = StatusPaused
	log.Info("Auction paused", zap.String("auctionID", a.ID.String()))
	return nil
}

// Resume reactivates a paused auction.
func (a *Auction) Resume() error {
	if a.Status != StatusPaused {
		return ErrInvalidTransition
	}
	a.Status = StatusActive
	log.Info("Auction resumed", zap.String("auctionID", a.ID.String()))
	return nil
}

// Cancel terminates any non-terminal auction. Bid history is kept.
func (a *Auction) Cancel() error {
	if a.Status.Terminal() {
		return ErrInvalidTransition
	}
	a.Status = StatusCancelled
	log.Info("Auction cancelled", zap.String("auctionID", a.ID.String()))
	return nil
}

// Finish closes an active auction, recording the winner when one exists.
// Only the closing sweep calls this.
func (a *Auction) Finish(winnerID *uuid.UUID, finalBidMinor *int64) error {
	if a.Status != StatusActive {
		return ErrInvalidTransition
	}
	a.Status = StatusFinished
	a.WinnerID = winnerID
	if finalBidMinor != nil {
		a.CurrentBidMinor = finalBidMinor
	}
	log.Info("Auction finished",
		zap.String("auctionID", a.ID.String()),
		zap.Bool("hasWinner", winnerID != nil),
	)
	return nil
}
