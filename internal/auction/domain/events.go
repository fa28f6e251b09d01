package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventBidPlaced     = "bid_placed"
	EventTimeExtended  = "time_extended"
	EventAuctionClosed = "auction_closed"
)

// Event is an effect produced inside the transactional core and dispatched
// by the caller strictly after commit, so listeners never learn about state
// that could still roll back.
type Event struct {
	Name       string    `json:"name"`
	AuctionID  uuid.UUID `json:"auction_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

type BidPlacedData struct {
	BidID           uuid.UUID `json:"bid_id"`
	UserID          uuid.UUID `json:"user_id"`
	AmountMinor     int64     `json:"amount_minor"`
	CurrentBidMinor int64     `json:"current_bid_minor"`
	BidCount        int       `json:"bid_count"`
	EndAt           time.Time `json:"end_at"`
}

type TimeExtendedData struct {
	PreviousEndAt time.Time `json:"previous_end_at"`
	NewEndAt      time.Time `json:"new_end_at"`
}

type AuctionClosedData struct {
	WinnerID      *uuid.UUID `json:"winner_id"`
	FinalBidMinor *int64     `json:"final_bid_minor"`
}

func NewBidPlacedEvent(auctionID uuid.UUID, now time.Time, data BidPlacedData) Event {
	return Event{Name: EventBidPlaced, AuctionID: auctionID, OccurredAt: now, Data: data}
}

func NewTimeExtendedEvent(auctionID uuid.UUID, now time.Time, data TimeExtendedData) Event {
	return Event{Name: EventTimeExtended, AuctionID: auctionID, OccurredAt: now, Data: data}
}

func NewAuctionClosedEvent(auctionID uuid.UUID, now time.Time, data AuctionClosedData) Event {
	return Event{Name: EventAuctionClosed, AuctionID: auctionID, OccurredAt: now, Data: data}
}
