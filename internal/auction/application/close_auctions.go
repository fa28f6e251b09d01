package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketbay/bidengine/internal/auction/domain"
	"github.com/marketbay/bidengine/internal/shared/clock"
	"go.uber.org/zap"
)

// CloseExpiredUseCase is the closing sweep: it finds active auctions past
// their end time, assigns the winner and transitions them to finished.
// Safe to invoke concurrently with bid placement and with itself, each
// auction is re-checked under the same row lock the bid path uses.
type CloseExpiredUseCase struct {
	store     domain.AuctionStore
	clock     clock.Clock
	publisher domain.EventPublisher
	bridge    domain.SettlementBridge
}

func NewCloseExpiredUseCase(store domain.AuctionStore, clk clock.Clock,
	publisher domain.EventPublisher, bridge domain.SettlementBridge) *CloseExpiredUseCase {

	return &CloseExpiredUseCase{
		store:     store,
		clock:     clk,
		publisher: publisher,
		bridge:    bridge,
	}
}

// Execute runs one sweep and returns the number of auctions it closed.
// A failure on one auction is logged and does not abort the rest of the
// batch.
func (uc *CloseExpiredUseCase) Execute(ctx context.Context) (int, error) {
	now := uc.clock.Now()
	ids, err := uc.store.ExpiredActiveIDs(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("close expired: failed to list expired auctions: %w", err)
	}

	processed := 0
	for _, id := range ids {
		closed, err := uc.closeOne(ctx, id)
		if err != nil {
			log.Error("CloseExpired: failed to close auction, continuing sweep",
				zap.String("auctionID", id.String()),
				zap.Error(err),
			)
			continue
		}
		if closed {
			processed++
		}
	}

	log.Info("CloseExpired sweep completed",
		zap.Int("candidates", len(ids)),
		zap.Int("processed", processed),
	)
	return processed, nil
}

// closeOne settles a single auction inside its own transaction. Returns
// false without error when the auction was already handled by a concurrent
// sweep or is no longer eligible.
func (uc *CloseExpiredUseCase) closeOne(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := uc.store.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	auction, err := tx.LoadForUpdate(ctx, id)
	if err != nil {
		// a concurrent sweep or a last-instant bid holds the lock,
		// the next tick will pick the auction up again
		if errors.Is(err, domain.ErrContention) {
			log.Debug("CloseExpired: auction locked elsewhere, skipping",
				zap.String("auctionID", id.String()))
			return false, nil
		}
		return false, fmt.Errorf("failed to load auction: %w", err)
	}

	// re-check under the lock: a racing sweep may have finished it, or a
	// last-instant bid may have extended it past now
	now := uc.clock.Now()
	if auction.Status != domain.StatusActive || auction.EndAt.After(now) {
		return false, nil
	}

	highest, err := tx.HighestBid(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to determine highest bid: %w", err)
	}

	// a highest bid below the reserve price finishes with no winner
	if highest != nil && auction.ReservePriceMinor != nil && highest.AmountMinor < *auction.ReservePriceMinor {
		log.Info("CloseExpired: highest bid below reserve, no winner",
			zap.String("auctionID", id.String()),
			zap.Int64("highestMinor", highest.AmountMinor),
			zap.Int64("reserveMinor", *auction.ReservePriceMinor),
		)
		highest = nil
	}

	if err = tx.SetProductInAuction(ctx, auction.ProductID, false); err != nil {
		return false, fmt.Errorf("failed to clear product flag: %w", err)
	}

	var winnerID *uuid.UUID
	var finalBid *int64
	if highest != nil {
		winnerID = &highest.UserID
		finalBid = &highest.AmountMinor
		if err = tx.DecrementProductStock(ctx, auction.ProductID); err != nil {
			return false, fmt.Errorf("failed to decrement product stock: %w", err)
		}
	}

	if err = auction.Finish(winnerID, finalBid); err != nil {
		return false, fmt.Errorf("failed to finish auction: %w", err)
	}
	if err = tx.SaveAuction(ctx, auction); err != nil {
		return false, fmt.Errorf("failed to save auction: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// settlement and events are post-commit, their failures never undo
	// the close
	if winnerID != nil {
		if err := uc.bridge.BeginSettlement(ctx, auction.ID, *winnerID, *finalBid); err != nil {
			log.Error("CloseExpired: settlement bridge failed",
				zap.String("auctionID", auction.ID.String()),
				zap.String("winnerID", winnerID.String()),
				zap.Error(err),
			)
		}
	} else {
		if err := uc.bridge.ReportNoWinner(ctx, auction.ID); err != nil {
			log.Error("CloseExpired: settlement bridge no-winner report failed",
				zap.String("auctionID", auction.ID.String()),
				zap.Error(err),
			)
		}
	}

	uc.publisher.Publish(ctx, domain.NewAuctionClosedEvent(auction.ID, now, domain.AuctionClosedData{
		WinnerID:      winnerID,
		FinalBidMinor: finalBid,
	}))

	return true, nil
}
