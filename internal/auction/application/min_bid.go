package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketbay/bidengine/internal/auction/domain"
)

// MinBidDTO is the read-only "what is the minimum bid right now" answer.
type MinBidDTO struct {
	CurrentBidMinor  *int64 `json:"current_bid"`
	MinBidMinor      int64  `json:"min_bid"`
	IncrementPercent int    `json:"increment_percent"`
}

// GetMinBidUseCase exposes the validator's minimum-bid rule as a query.
type GetMinBidUseCase struct {
	store domain.AuctionStore
}

func NewGetMinBidUseCase(store domain.AuctionStore) *GetMinBidUseCase {
	return &GetMinBidUseCase{store: store}
}

func (uc *GetMinBidUseCase) Execute(ctx context.Context, auctionID uuid.UUID) (*MinBidDTO, error) {
	auction, err := uc.store.GetByID(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get min bid: failed to load auction %s: %w", auctionID, err)
	}

	return &MinBidDTO{
		CurrentBidMinor:  auction.CurrentBidMinor,
		MinBidMinor:      domain.MinNextBid(auction),
		IncrementPercent: domain.MinIncrementPercent,
	}, nil
}
