package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marketbay/bidengine/internal/auction/domain"
)

// pgLockNotAvailable is the SQLSTATE postgres raises when lock_timeout
// elapses while waiting on the FOR UPDATE row lock.
const pgLockNotAvailable = "55P03"

const auctionColumns = `id, product_id, start_at, end_at, starting_bid_minor,
	reserve_price_minor, current_bid_minor, winner_id, status, created_at, updated_at`

// Store implements domain.AuctionStore on top of pgx. The auction row is
// the single serialization point: every transaction sets a bounded
// lock_timeout and locks the row with FOR UPDATE before mutating anything.
type Store struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

func NewStore(pool *pgxpool.Pool, lockTimeout time.Duration) *Store {
	return &Store{pool: pool, lockTimeout: lockTimeout}
}

func (s *Store) Begin(ctx context.Context) (domain.AuctionTx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	// lock_timeout cannot be bound as a parameter, the value comes from
	// config, never from a request
	_, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds()))
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	return &auctionTx{tx: tx}, nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`
	return scanAuction(s.pool.QueryRow(ctx, query, id))
}

func (s *Store) ListBids(ctx context.Context, auctionID uuid.UUID, limit, offset int) ([]*domain.Bid, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bids WHERE auction_id = $1`, auctionID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
        SELECT id, auction_id, user_id, amount_minor, bid_at
        FROM bids
        WHERE auction_id = $1
        ORDER BY bid_at DESC, id DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := s.pool.Query(ctx, query, auctionID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid := &domain.Bid{}
		if err := rows.Scan(&bid.ID, &bid.AuctionID, &bid.UserID, &bid.AmountMinor, &bid.BidAt); err != nil {
			return nil, 0, err
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return bids, total, nil
}

func (s *Store) ExpiredActiveIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `SELECT id FROM auctions WHERE status = $1 AND end_at <= $2`
	rows, err := s.pool.Query(ctx, query, domain.StatusActive, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// auctionTx implements domain.AuctionTx over a single pgx transaction.
type auctionTx struct {
	tx pgx.Tx
}

func (t *auctionTx) LoadForUpdate(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1 FOR UPDATE`
	auction, err := scanAuction(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
			return nil, domain.ErrContention
		}
		return nil, err
	}
	return auction, nil
}

// SaveAuction upserts the auction, INSERT ON CONFLICT covers both creation
// and the read-modify-write update path.
func (t *auctionTx) SaveAuction(ctx context.Context, a *domain.Auction) error {
	query := `
        INSERT INTO auctions (id, product_id, start_at, end_at, starting_bid_minor,
            reserve_price_minor, current_bid_minor, winner_id, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (id) DO UPDATE
        SET
            start_at = EXCLUDED.start_at,
            end_at = EXCLUDED.end_at,
            starting_bid_minor = EXCLUDED.starting_bid_minor,
            reserve_price_minor = EXCLUDED.reserve_price_minor,
            current_bid_minor = EXCLUDED.current_bid_minor,
            winner_id = EXCLUDED.winner_id,
            status = EXCLUDED.status,
            updated_at = NOW();
    `
	_, err := t.tx.Exec(ctx, query,
		a.ID,
		a.ProductID,
		a.StartAt,
		a.EndAt,
		a.StartingBidMinor,
		a.ReservePriceMinor,
		a.CurrentBidMinor,
		a.WinnerID,
		a.Status,
	)
	return err
}

func (t *auctionTx) InsertBid(ctx context.Context, b *domain.Bid) error {
	query := `
        INSERT INTO bids (id, auction_id, user_id, amount_minor, bid_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := t.tx.Exec(ctx, query,
		b.ID,
		b.AuctionID,
		b.UserID,
		b.AmountMinor,
		b.BidAt,
	)
	return err
}

func (t *auctionTx) CountBids(ctx context.Context, auctionID uuid.UUID) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM bids WHERE auction_id = $1`, auctionID).Scan(&count)
	return count, err
}

func (t *auctionTx) HighestBid(ctx context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	query := `
        SELECT id, auction_id, user_id, amount_minor, bid_at
        FROM bids
        WHERE auction_id = $1
        ORDER BY amount_minor DESC, bid_at ASC
        LIMIT 1
    `
	bid := &domain.Bid{}
	err := t.tx.QueryRow(ctx, query, auctionID).Scan(
		&bid.ID,
		&bid.AuctionID,
		&bid.UserID,
		&bid.AmountMinor,
		&bid.BidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return bid, nil
}

func (t *auctionTx) SetProductInAuction(ctx context.Context, productID uuid.UUID, inAuction bool) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE products SET in_auction = $2, updated_at = NOW() WHERE id = $1`,
		productID, inAuction)
	return err
}

// DecrementProductStock skips products already at zero, the close is
// best-effort about stock.
func (t *auctionTx) DecrementProductStock(ctx context.Context, productID uuid.UUID) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE products SET stock = stock - 1, updated_at = NOW() WHERE id = $1 AND stock > 0`,
		productID)
	return err
}

func (t *auctionTx) DeleteAuction(ctx context.Context, id uuid.UUID) error {
	// bids cascade via FK
	_, err := t.tx.Exec(ctx, `DELETE FROM auctions WHERE id = $1`, id)
	return err
}

func (t *auctionTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *auctionTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func scanAuction(row pgx.Row) (*domain.Auction, error) {
	a := &domain.Auction{}
	var reserve, current *int64
	var winner *uuid.UUID

	err := row.Scan(
		&a.ID,
		&a.ProductID,
		&a.StartAt,
		&a.EndAt,
		&a.StartingBidMinor,
		&reserve,
		&current,
		&winner,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}

	a.ReservePriceMinor = reserve
	a.CurrentBidMinor = current
	a.WinnerID = winner

	return a, nil
}
