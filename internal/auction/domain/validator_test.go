package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testAuction(status AuctionStatus, startAt, endAt time.Time, startingMinor int64, currentMinor *int64) *Auction {
	return &Auction{
		ID:               uuid.New(),
		ProductID:        uuid.New(),
		StartAt:          startAt,
		EndAt:            endAt,
		StartingBidMinor: startingMinor,
		CurrentBidMinor:  currentMinor,
		Status:           status,
	}
}

func int64p(v int64) *int64 { return &v }

func TestMinNextBid(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		current *int64
		want    int64
	}{
		{name: "no_bid_yet_uses_starting_bid", current: nil, want: 10000},
		{name: "five_percent_exact", current: int64p(10000), want: 10500},
		// fractional increments round up: ceil(49.95)=50, ceil(0.5)=1,
		// ceil(0.05)=1
		{name: "ceil_rounds_up", current: int64p(999), want: 1049},
		{name: "small_amount_rounds_to_one", current: int64p(10), want: 11},
		{name: "minimum_increment_is_one", current: int64p(1), want: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := testAuction(StatusActive, now.Add(-time.Hour), now.Add(time.Hour), 10000, tc.current)
			require.Equal(t, tc.want, MinNextBid(a))
		})
	}
}

func TestValidateBid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		auction *Auction
		amount  int64
		wantErr error
	}{
		{
			name:    "accepted_first_bid",
			auction: testAuction(StatusActive, now.Add(-time.Hour), now.Add(time.Hour), 10000, nil),
			amount:  10000,
			wantErr: nil,
		},
		{
			name:    "zero_amount",
			auction: testAuction(StatusActive, now.Add(-time.Hour), now.Add(time.Hour), 10000, nil),
			amount:  0,
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative_amount",
			auction: testAuction(StatusActive, now.Add(-time.Hour), now.Add(time.Hour), 10000, nil),
			amount:  -500,
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "pending_status",
			auction: testAuction(StatusPending, now.Add(-time.Hour), now.Add(time.Hour), 10000, nil),
			amount:  10000,
			wantErr: ErrAuctionNotActive,
		},
		{
			name:    "paused_status",
			auction: testAuction(StatusPaused, now.Add(-time.Hour), now.Add(time.Hour), 10000, nil),
			amount:  10000,
			wantErr: ErrAuctionNotActive,
		},
		{
			name:    "before_start_despite_active_flag",
			auction: testAuction(StatusActive, now.Add(time.Minute), now.Add(time.Hour), 10000, nil),
			amount:  10000,
			wantErr: ErrAuctionNotActive,
		},
		{
			name:    "exactly_at_end",
			auction: testAuction(StatusActive, now.Add(-time.Hour), now, 10000, nil),
			amount:  99999,
			wantErr: ErrAuctionNotActive,
		},
		{
			name:    "after_end_regardless_of_amount",
			auction: testAuction(StatusActive, now.Add(-2*time.Hour), now.Add(-time.Hour), 10000, nil),
			amount:  1000000,
			wantErr: ErrAuctionNotActive,
		},
		{
			name:    "below_starting_bid",
			auction: testAuction(StatusActive, now.Add(-time.Hour), now.Add(time.Hour), 10000, nil),
			amount:  9999,
			wantErr: ErrBidTooLow,
		},
		{
			name:    "below_increment_minimum",
			auction: testAuction(StatusActive, now.Add(-time.Hour), now.Add(time.Hour), 10000, int64p(10000)),
			amount:  10499,
			wantErr: ErrBidTooLow,
		},
		{
			name:    "exactly_at_increment_minimum",
			auction: testAuction(StatusActive, now.Add(-time.Hour), now.Add(time.Hour), 10000, int64p(10000)),
			amount:  10500,
			wantErr: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateBid(tc.auction, tc.amount, now)
			if tc.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestExtendForBid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		endIn        time.Duration
		wantExtended bool
	}{
		{name: "outside_window", endIn: 301 * time.Second, wantExtended: false},
		{name: "exactly_at_window", endIn: 300 * time.Second, wantExtended: true},
		{name: "inside_window", endIn: 200 * time.Second, wantExtended: true},
		{name: "last_second", endIn: time.Second, wantExtended: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			newEnd, extended := ExtendForBid(now.Add(tc.endIn), now)
			require.Equal(t, tc.wantExtended, extended)
			if extended {
				require.Equal(t, now.Add(AntiSnipingExtension), newEnd)
			} else {
				require.Equal(t, now.Add(tc.endIn), newEnd)
			}
		})
	}
}
