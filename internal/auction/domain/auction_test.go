package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewAuction(t *testing.T) {
	now := time.Now()

	_, err := NewAuction(uuid.New(), uuid.New(), now, now.Add(-time.Hour), 10000, nil)
	require.ErrorIs(t, err, ErrInvalidWindow)

	_, err = NewAuction(uuid.New(), uuid.New(), now, now, 10000, nil)
	require.ErrorIs(t, err, ErrInvalidWindow)

	_, err = NewAuction(uuid.New(), uuid.New(), now, now.Add(time.Hour), 0, nil)
	require.ErrorIs(t, err, ErrInvalidAmount)

	a, err := NewAuction(uuid.New(), uuid.New(), now, now.Add(time.Hour), 10000, nil)
	require.NoError(t, err)
	require.Equal(t, StatusPending, a.Status)
	require.Nil(t, a.CurrentBidMinor)
	require.Nil(t, a.WinnerID)
}

func TestAuctionStateMachine(t *testing.T) {
	tests := []struct {
		name       string
		from       AuctionStatus
		transition func(*Auction) error
		wantStatus AuctionStatus
		wantErr    error
	}{
		{name: "pending_activate", from: StatusPending, transition: (*Auction).Activate, wantStatus: StatusActive},
		{name: "active_activate", from: StatusActive, transition: (*Auction).Activate, wantErr: ErrInvalidTransition},
		{name: "active_pause", from: StatusActive, transition: (*Auction).Pause, wantStatus: StatusPaused},
		{name: "pending_pause", from: StatusPending, transition: (*Auction).Pause, wantErr: ErrInvalidTransition},
		{name: "paused_resume", from: StatusPaused, transition: (*Auction).Resume, wantStatus: StatusActive},
		{name: "active_resume", from: StatusActive, transition: (*Auction).Resume, wantErr: ErrInvalidTransition},
		{name: "pending_cancel", from: StatusPending, transition: (*Auction).Cancel, wantStatus: StatusCancelled},
		{name: "active_cancel", from: StatusActive, transition: (*Auction).Cancel, wantStatus: StatusCancelled},
		{name: "paused_cancel", from: StatusPaused, transition: (*Auction).Cancel, wantStatus: StatusCancelled},
		{name: "finished_cancel", from: StatusFinished, transition: (*Auction).Cancel, wantErr: ErrInvalidTransition},
		{name: "cancelled_cancel", from: StatusCancelled, transition: (*Auction).Cancel, wantErr: ErrInvalidTransition},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			now := time.Now()
			a := testAuction(tc.from, now.Add(-time.Hour), now.Add(time.Hour), 10000, nil)
			err := tc.transition(a)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Equal(t, tc.from, a.Status)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, a.Status)
		})
	}
}

func TestAuctionFinish(t *testing.T) {
	now := time.Now()

	t.Run("with_winner", func(t *testing.T) {
		a := testAuction(StatusActive, now.Add(-2*time.Hour), now.Add(-time.Hour), 10000, int64p(12000))
		winner := uuid.New()
		amount := int64(12000)
		require.NoError(t, a.Finish(&winner, &amount))
		require.Equal(t, StatusFinished, a.Status)
		require.Equal(t, winner, *a.WinnerID)
		require.Equal(t, amount, *a.CurrentBidMinor)
	})

	t.Run("without_winner", func(t *testing.T) {
		a := testAuction(StatusActive, now.Add(-2*time.Hour), now.Add(-time.Hour), 10000, nil)
		require.NoError(t, a.Finish(nil, nil))
		require.Equal(t, StatusFinished, a.Status)
		require.Nil(t, a.WinnerID)
	})

	t.Run("only_from_active", func(t *testing.T) {
		for _, status := range []AuctionStatus{StatusPending, StatusPaused, StatusFinished, StatusCancelled} {
			a := testAuction(status, now.Add(-2*time.Hour), now.Add(-time.Hour), 10000, nil)
			require.ErrorIs(t, a.Finish(nil, nil), ErrInvalidTransition)
		}
	})
}

func TestApplyBid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("accepted_updates_snapshot", func(t *testing.T) {
		a := testAuction(StatusActive, now.Add(-time.Hour), now.Add(time.Hour), 10000, nil)
		bidder := uuid.New()

		bid, extended, err := a.ApplyBid(bidder, 10000, now)
		require.NoError(t, err)
		require.False(t, extended)
		require.Equal(t, int64(10000), bid.AmountMinor)
		require.Equal(t, now, bid.BidAt)
		require.Equal(t, int64(10000), *a.CurrentBidMinor)
		require.Equal(t, bidder, *a.WinnerID)
	})

	t.Run("rejected_leaves_snapshot_untouched", func(t *testing.T) {
		a := testAuction(StatusActive, now.Add(-time.Hour), now.Add(time.Hour), 10000, int64p(10000))
		endBefore := a.EndAt

		bid, extended, err := a.ApplyBid(uuid.New(), 10499, now)
		require.ErrorIs(t, err, ErrBidTooLow)
		require.Nil(t, bid)
		require.False(t, extended)
		require.Equal(t, int64(10000), *a.CurrentBidMinor)
		require.Equal(t, endBefore, a.EndAt)
	})

	t.Run("extends_inside_window", func(t *testing.T) {
		a := testAuction(StatusActive, now.Add(-time.Hour), now.Add(200*time.Second), 10000, nil)

		_, extended, err := a.ApplyBid(uuid.New(), 10000, now)
		require.NoError(t, err)
		require.True(t, extended)
		require.Equal(t, now.Add(AntiSnipingExtension), a.EndAt)
	})

	t.Run("current_bid_never_decreases", func(t *testing.T) {
		a := testAuction(StatusActive, now.Add(-time.Hour), now.Add(time.Hour), 10000, nil)

		var last int64
		amount := int64(10000)
		for i := 0; i < 6; i++ {
			_, _, err := a.ApplyBid(uuid.New(), amount, now)
			require.NoError(t, err)
			require.GreaterOrEqual(t, *a.CurrentBidMinor, last)
			last = *a.CurrentBidMinor
			amount = MinNextBid(a)
		}
	})
}
