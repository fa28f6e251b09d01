package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketbay/bidengine/internal/auction/domain"
	productdomain "github.com/marketbay/bidengine/internal/product/domain"
	"github.com/marketbay/bidengine/internal/shared/clock"
	"go.uber.org/zap"
)

// CreateAuctionDTO is the input for creating an auction.
type CreateAuctionDTO struct {
	ProductID         uuid.UUID
	StartAt           time.Time
	EndAt             time.Time
	StartingBidMinor  int64
	ReservePriceMinor *int64
	// ActivateNow creates the auction directly in active state.
	ActivateNow bool
}

// UpdateAuctionDTO carries the mutable schedule/price fields.
type UpdateAuctionDTO struct {
	StartAt           *time.Time
	EndAt             *time.Time
	StartingBidMinor  *int64
	ReservePriceMinor *int64
}

// ManageAuctionUseCase covers the administrative lifecycle: create, update,
// activate, pause, resume, cancel, delete. Every transition respects the
// state machine and keeps the product's in-auction flag in step.
type ManageAuctionUseCase struct {
	store    domain.AuctionStore
	products productdomain.Repository
	clock    clock.Clock
	bridge   domain.SettlementBridge
}

func NewManageAuctionUseCase(store domain.AuctionStore, products productdomain.Repository,
	clk clock.Clock, bridge domain.SettlementBridge) *ManageAuctionUseCase {

	return &ManageAuctionUseCase{
		store:    store,
		products: products,
		clock:    clk,
		bridge:   bridge,
	}
}

func (uc *ManageAuctionUseCase) Create(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error) {
	product, err := uc.products.GetByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, fmt.Errorf("create auction: failed to look up product %s: %w", cmd.ProductID, err)
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	if product.InAuction {
		return nil, domain.ErrProductInAuction
	}

	auction, err := domain.NewAuction(uuid.New(), cmd.ProductID, cmd.StartAt, cmd.EndAt,
		cmd.StartingBidMinor, cmd.ReservePriceMinor)
	if err != nil {
		return nil, fmt.Errorf("create auction: %w", err)
	}
	if cmd.ActivateNow {
		if err := auction.Activate(); err != nil {
			return nil, fmt.Errorf("create auction: %w", err)
		}
	}

	tx, err := uc.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create auction: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err = tx.SaveAuction(ctx, auction); err != nil {
		return nil, fmt.Errorf("create auction: failed to save auction: %w", err)
	}
	if err = tx.SetProductInAuction(ctx, cmd.ProductID, true); err != nil {
		return nil, fmt.Errorf("create auction: failed to flag product: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create auction: failed to commit transaction: %w", err)
	}

	// bridge call is post-commit, the engine only logs its outcome
	if err := uc.bridge.CreateAuction(ctx, auction); err != nil {
		log.Error("CreateAuction: settlement bridge createAuction failed",
			zap.String("auctionID", auction.ID.String()),
			zap.Error(err),
		)
	}

	return auction, nil
}

func (uc *ManageAuctionUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return uc.store.GetByID(ctx, id)
}

func (uc *ManageAuctionUseCase) Update(ctx context.Context, id uuid.UUID, cmd UpdateAuctionDTO) (*domain.Auction, error) {
	auction, err := uc.mutate(ctx, id, func(a *domain.Auction) error {
		if a.Status.Terminal() {
			return domain.ErrInvalidTransition
		}
		if cmd.StartAt != nil {
			a.StartAt = *cmd.StartAt
		}
		if cmd.EndAt != nil {
			a.EndAt = *cmd.EndAt
		}
		if !a.EndAt.After(a.StartAt) {
			return domain.ErrInvalidWindow
		}
		if cmd.StartingBidMinor != nil {
			if *cmd.StartingBidMinor <= 0 {
				return domain.ErrInvalidAmount
			}
			a.StartingBidMinor = *cmd.StartingBidMinor
		}
		if cmd.ReservePriceMinor != nil {
			a.ReservePriceMinor = cmd.ReservePriceMinor
		}
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}

	if err := uc.bridge.SyncAuction(ctx, auction); err != nil {
		log.Error("UpdateAuction: settlement bridge syncAuction failed",
			zap.String("auctionID", auction.ID.String()),
			zap.Error(err),
		)
	}
	return auction, nil
}

func (uc *ManageAuctionUseCase) Activate(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return uc.mutate(ctx, id, func(a *domain.Auction) error {
		return a.Activate()
	}, nil)
}

// Pause suspends bidding and clears the product's in-auction flag.
func (uc *ManageAuctionUseCase) Pause(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	inAuction := false
	return uc.mutate(ctx, id, func(a *domain.Auction) error {
		return a.Pause()
	}, &inAuction)
}

// Resume reactivates bidding and restores the product's in-auction flag.
func (uc *ManageAuctionUseCase) Resume(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	inAuction := true
	return uc.mutate(ctx, id, func(a *domain.Auction) error {
		return a.Resume()
	}, &inAuction)
}

// Cancel terminates the auction, clears the product flag and keeps the bid
// history.
func (uc *ManageAuctionUseCase) Cancel(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	inAuction := false
	return uc.mutate(ctx, id, func(a *domain.Auction) error {
		return a.Cancel()
	}, &inAuction)
}

// Delete removes the auction and its bid history and frees the product.
func (uc *ManageAuctionUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := uc.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete auction: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	auction, err := tx.LoadForUpdate(ctx, id)
	if err != nil {
		return fmt.Errorf("delete auction: failed to load auction %s: %w", id, err)
	}
	if err = tx.SetProductInAuction(ctx, auction.ProductID, false); err != nil {
		return fmt.Errorf("delete auction: failed to clear product flag: %w", err)
	}
	if err = tx.DeleteAuction(ctx, id); err != nil {
		return fmt.Errorf("delete auction: failed to delete auction %s: %w", id, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("delete auction: failed to commit transaction: %w", err)
	}
	return nil
}

// mutate runs fn on the auction under its row lock, optionally updating the
// product's in-auction flag in the same transaction.
func (uc *ManageAuctionUseCase) mutate(ctx context.Context, id uuid.UUID,
	fn func(*domain.Auction) error, productFlag *bool) (*domain.Auction, error) {

	tx, err := uc.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("manage auction: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	auction, err := tx.LoadForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("manage auction: failed to load auction %s: %w", id, err)
	}
	if err = fn(auction); err != nil {
		return nil, fmt.Errorf("manage auction: transition rejected for %s: %w", id, err)
	}
	if productFlag != nil {
		if err = tx.SetProductInAuction(ctx, auction.ProductID, *productFlag); err != nil {
			return nil, fmt.Errorf("manage auction: failed to update product flag: %w", err)
		}
	}
	if err = tx.SaveAuction(ctx, auction); err != nil {
		return nil, fmt.Errorf("manage auction: failed to save auction %s: %w", id, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("manage auction: failed to commit transaction: %w", err)
	}
	return auction, nil
}
