package domain

import "time"

const (
	// MinIncrementPercent is the minimum percentage a new bid must exceed
	// the current bid by.
	MinIncrementPercent = 5

	// AntiSnipingWindow is the trailing interval before end_at during which
	// an accepted bid extends the auction.
	AntiSnipingWindow = 300 * time.Second

	// AntiSnipingExtension is how far past "now" the end is pushed when a
	// bid lands inside the window.
	AntiSnipingExtension = 300 * time.Second
)

// MinNextBid computes the minimum acceptable bid for the auction's current
// state: the starting bid while no bid exists, otherwise the current bid
// plus ceil(current * MinIncrementPercent / 100).
func MinNextBid(a *Auction) int64 {
	if a.CurrentBidMinor == nil {
		return a.StartingBidMinor
	}
	cur := *a.CurrentBidMinor
	increment := (cur*MinIncrementPercent + 99) / 100
	return cur + increment
}

// ValidateBid checks a proposed amount against the auction snapshot. Pure
// computation, used both for placing bids and for the min-bid query.
func ValidateBid(a *Auction, amountMinor int64, now time.Time) error {
	if amountMinor <= 0 {
		return ErrInvalidAmount
	}
	// status flag and time window are checked jointly, a bid is only
	// acceptable when both hold
	if a.Status != StatusActive {
		return ErrAuctionNotActive
	}
	if now.Before(a.StartAt) {
		return ErrAuctionNotActive
	}
	if !now.Before(a.EndAt) {
		return ErrAuctionNotActive
	}
	if amountMinor < MinNextBid(a) {
		return ErrBidTooLow
	}
	return nil
}

// ExtendForBid decides whether a bid accepted at "now" triggers the
// anti-sniping extension and returns the new end time. Repeated extensions
// are allowed without cap.
func ExtendForBid(endAt, now time.Time) (time.Time, bool) {
	if endAt.Sub(now) <= AntiSnipingWindow {
		return now.Add(AntiSnipingExtension), true
	}
	return endAt, false
}
