package websocket

import (
	"time"

	"github.com/google/uuid"
)

// MessageType discriminates ws frames.
type MessageType string

const (
	MessageTypeClientBid          MessageType = "client_bid"
	MessageTypeServerUpdate       MessageType = "server_auction_update"
	MessageTypeServerError        MessageType = "server_error"
	MessageTypeServerInitialState MessageType = "server_initial_state"
)

// BaseMessage is the envelope every ws message shares.
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// ClientBidMessage is a bid submitted over the socket.
type ClientBidMessage struct {
	BaseMessage
	Payload struct {
		AuctionID   uuid.UUID `json:"auction_id"`
		UserID      uuid.UUID `json:"user_id"`
		AmountMinor int64     `json:"amount_minor"`
	} `json:"payload"`
}

// ServerUpdateMessage pushes the auction state after an accepted bid.
type ServerUpdateMessage struct {
	BaseMessage
	Payload struct {
		AuctionID       uuid.UUID `json:"auction_id"`
		CurrentBidMinor int64     `json:"current_bid_minor"`
		EndAt           time.Time `json:"end_at"`
		Extended        bool      `json:"extended"`
		BidCount        int       `json:"bid_count"`
	} `json:"payload"`
}

type ServerErrorMessage struct {
	BaseMessage
	Payload struct {
		Error string `json:"error"`
	} `json:"payload"`
}

// ServerInitialStateMessage is the auction snapshot sent on connect.
type ServerInitialStateMessage struct {
	BaseMessage
	Payload struct {
		AuctionID        uuid.UUID `json:"auction_id"`
		StartAt          time.Time `json:"start_at"`
		EndAt            time.Time `json:"end_at"`
		StartingBidMinor int64     `json:"starting_bid_minor"`
		CurrentBidMinor  *int64    `json:"current_bid_minor"`
		MinBidMinor      int64     `json:"min_bid_minor"`
		Status           string    `json:"status"`
	} `json:"payload"`
}
