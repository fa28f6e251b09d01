package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketbay/bidengine/internal/auction/domain"
	"github.com/marketbay/bidengine/internal/shared/clock"
	"github.com/marketbay/bidengine/internal/shared/logger"
	userdomain "github.com/marketbay/bidengine/internal/user/domain"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// PlaceBidDTO is the input for the PlaceBid use case.
type PlaceBidDTO struct {
	AuctionID   uuid.UUID
	UserID      uuid.UUID
	AmountMinor int64
}

// PlaceBidResult carries the committed bid and the auction fields a client
// needs to keep its view current.
type PlaceBidResult struct {
	Bid             *domain.Bid
	CurrentBidMinor int64
	EndAt           time.Time
	Extended        bool
	BidCount        int
}

// PlaceBidUseCase accepts a bid request and either commits it or rejects
// it. Validation and the current-bid/end-at update happen as one unit under
// the auction's row lock; events are dispatched only after commit.
type PlaceBidUseCase struct {
	store     domain.AuctionStore
	users     userdomain.Repository
	clock     clock.Clock
	publisher domain.EventPublisher
}

func NewPlaceBidUseCase(store domain.AuctionStore, users userdomain.Repository,
	clk clock.Clock, publisher domain.EventPublisher) *PlaceBidUseCase {

	return &PlaceBidUseCase{
		store:     store,
		users:     users,
		clock:     clk,
		publisher: publisher,
	}
}

func (uc *PlaceBidUseCase) Execute(ctx context.Context, cmd PlaceBidDTO) (*PlaceBidResult, error) {
	log.Info("Executing PlaceBid",
		zap.String("auctionID", cmd.AuctionID.String()),
		zap.String("userID", cmd.UserID.String()),
		zap.Int64("amountMinor", cmd.AmountMinor),
	)

	// input-level checks before touching any lock
	if cmd.AmountMinor <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if cmd.AuctionID == uuid.Nil || cmd.UserID == uuid.Nil {
		return nil, domain.ErrInvalidAmount
	}

	user, err := uc.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("place bid: failed to look up user %s: %w", cmd.UserID, err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	tx, err := uc.store.Begin(ctx)
	if err != nil {
		log.Error("PlaceBid: failed to begin transaction",
			zap.String("auctionID", cmd.AuctionID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("place bid: failed to begin transaction: %w", err)
	}
	// no-op once committed
	defer tx.Rollback(ctx)

	// LoadForUpdate takes the per-auction lock, so the snapshot we
	// validate against is the post-commit state of any racing bid
	auction, err := tx.LoadForUpdate(ctx, cmd.AuctionID)
	if err != nil {
		if !errors.Is(err, domain.ErrAuctionNotFound) && !errors.Is(err, domain.ErrContention) {
			log.Error("PlaceBid: failed to load auction",
				zap.String("auctionID", cmd.AuctionID.String()),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("place bid: failed to load auction %s: %w", cmd.AuctionID, err)
	}

	prevEndAt := auction.EndAt
	newBid, extended, err := auction.ApplyBid(cmd.UserID, cmd.AmountMinor, uc.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("place bid: bid rejected for auction %s: %w", cmd.AuctionID, err)
	}

	if err = tx.InsertBid(ctx, newBid); err != nil {
		log.Error("PlaceBid: failed to save new bid",
			zap.String("auctionID", cmd.AuctionID.String()),
			zap.String("bidID", newBid.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("place bid: failed to save bid for auction %s: %w", cmd.AuctionID, err)
	}
	if err = tx.SaveAuction(ctx, auction); err != nil {
		log.Error("PlaceBid: failed to save updated auction",
			zap.String("auctionID", cmd.AuctionID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("place bid: failed to save auction %s: %w", cmd.AuctionID, err)
	}

	bidCount, err := tx.CountBids(ctx, cmd.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("place bid: failed to count bids for auction %s: %w", cmd.AuctionID, err)
	}

	if err = tx.Commit(ctx); err != nil {
		log.Error("PlaceBid: failed to commit transaction",
			zap.String("auctionID", cmd.AuctionID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("place bid: failed to commit transaction: %w", err)
	}

	// post-commit effects only, a listener must never see state that
	// could still roll back
	now := uc.clock.Now()
	uc.publisher.Publish(ctx, domain.NewBidPlacedEvent(auction.ID, now, domain.BidPlacedData{
		BidID:           newBid.ID,
		UserID:          newBid.UserID,
		AmountMinor:     newBid.AmountMinor,
		CurrentBidMinor: *auction.CurrentBidMinor,
		BidCount:        bidCount,
		EndAt:           auction.EndAt,
	}))
	if extended {
		uc.publisher.Publish(ctx, domain.NewTimeExtendedEvent(auction.ID, now, domain.TimeExtendedData{
			PreviousEndAt: prevEndAt,
			NewEndAt:      auction.EndAt,
		}))
	}

	return &PlaceBidResult{
		Bid:             newBid,
		CurrentBidMinor: *auction.CurrentBidMinor,
		EndAt:           auction.EndAt,
		Extended:        extended,
		BidCount:        bidCount,
	}, nil
}
