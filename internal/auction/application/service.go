package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketbay/bidengine/internal/auction/domain"
)

// AuctionService is the application-layer interface of the auction module,
// it exposes the use cases to the outer layers (HTTP, websocket, sweeper).
type AuctionService interface {
	PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*PlaceBidResult, error)
	GetMinBid(ctx context.Context, auctionID uuid.UUID) (*MinBidDTO, error)
	ListBids(ctx context.Context, auctionID uuid.UUID, page, perPage int) (*BidPageDTO, error)
	CloseExpired(ctx context.Context) (int, error)

	CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error)
	GetAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error)
	UpdateAuction(ctx context.Context, id uuid.UUID, cmd UpdateAuctionDTO) (*domain.Auction, error)
	ActivateAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error)
	PauseAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error)
	ResumeAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error)
	CancelAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error)
	DeleteAuction(ctx context.Context, id uuid.UUID) error
}

type auctionService struct {
	placeBidUC *PlaceBidUseCase
	minBidUC   *GetMinBidUseCase
	listBidsUC *ListBidsUseCase
	closeUC    *CloseExpiredUseCase
	manageUC   *ManageAuctionUseCase
}

func NewAuctionService(placeBidUC *PlaceBidUseCase, minBidUC *GetMinBidUseCase,
	listBidsUC *ListBidsUseCase, closeUC *CloseExpiredUseCase,
	manageUC *ManageAuctionUseCase) AuctionService {

	return &auctionService{
		placeBidUC: placeBidUC,
		minBidUC:   minBidUC,
		listBidsUC: listBidsUC,
		closeUC:    closeUC,
		manageUC:   manageUC,
	}
}

func (as *auctionService) PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*PlaceBidResult, error) {
	return as.placeBidUC.Execute(ctx, cmd)
}

func (as *auctionService) GetMinBid(ctx context.Context, auctionID uuid.UUID) (*MinBidDTO, error) {
	return as.minBidUC.Execute(ctx, auctionID)
}

func (as *auctionService) ListBids(ctx context.Context, auctionID uuid.UUID, page, perPage int) (*BidPageDTO, error) {
	return as.listBidsUC.Execute(ctx, auctionID, page, perPage)
}

func (as *auctionService) CloseExpired(ctx context.Context) (int, error) {
	return as.closeUC.Execute(ctx)
}

func (as *auctionService) CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error) {
	return as.manageUC.Create(ctx, cmd)
}

func (as *auctionService) GetAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return as.manageUC.Get(ctx, id)
}

func (as *auctionService) UpdateAuction(ctx context.Context, id uuid.UUID, cmd UpdateAuctionDTO) (*domain.Auction, error) {
	return as.manageUC.Update(ctx, id, cmd)
}

func (as *auctionService) ActivateAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return as.manageUC.Activate(ctx, id)
}

func (as *auctionService) PauseAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return as.manageUC.Pause(ctx, id)
}

func (as *auctionService) ResumeAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return as.manageUC.Resume(ctx, id)
}

func (as *auctionService) CancelAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return as.manageUC.Cancel(ctx, id)
}

func (as *auctionService) DeleteAuction(ctx context.Context, id uuid.UUID) error {
	return as.manageUC.Delete(ctx, id)
}
