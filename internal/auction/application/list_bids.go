package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketbay/bidengine/internal/auction/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// BidPageDTO is one page of an auction's bid history, newest first.
type BidPageDTO struct {
	Bids    []*domain.Bid
	Page    int
	PerPage int
	Total   int
}

type ListBidsUseCase struct {
	store domain.AuctionStore
}

func NewListBidsUseCase(store domain.AuctionStore) *ListBidsUseCase {
	return &ListBidsUseCase{store: store}
}

func (uc *ListBidsUseCase) Execute(ctx context.Context, auctionID uuid.UUID, page, perPage int) (*BidPageDTO, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}

	// the auction must exist, a paginated empty history is fine
	if _, err := uc.store.GetByID(ctx, auctionID); err != nil {
		return nil, fmt.Errorf("list bids: failed to load auction %s: %w", auctionID, err)
	}

	bids, total, err := uc.store.ListBids(ctx, auctionID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("list bids: failed to list bids for auction %s: %w", auctionID, err)
	}

	return &BidPageDTO{
		Bids:    bids,
		Page:    page,
		PerPage: perPage,
		Total:   total,
	}, nil
}
