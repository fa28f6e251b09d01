package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/marketbay/bidengine/internal/auction/domain"
	"github.com/marketbay/bidengine/internal/shared/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// WebhookBridge implements domain.SettlementBridge against the external
// escrow/settlement service. The engine treats the collaborator as opaque:
// it posts, checks the status, logs, and moves on.
type WebhookBridge struct {
	baseURL string
	client  *http.Client
}

func NewWebhookBridge(baseURL string) *WebhookBridge {
	return &WebhookBridge{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *WebhookBridge) CreateAuction(ctx context.Context, a *domain.Auction) error {
	return b.post(ctx, "/auctions", map[string]any{
		"auction_id":         a.ID,
		"product_id":         a.ProductID,
		"start_at":           a.StartAt,
		"end_at":             a.EndAt,
		"starting_bid_minor": a.StartingBidMinor,
	})
}

func (b *WebhookBridge) SyncAuction(ctx context.Context, a *domain.Auction) error {
	return b.post(ctx, "/auctions/sync", map[string]any{
		"auction_id":        a.ID,
		"start_at":          a.StartAt,
		"end_at":            a.EndAt,
		"current_bid_minor": a.CurrentBidMinor,
		"status":            a.Status,
	})
}

func (b *WebhookBridge) BeginSettlement(ctx context.Context, auctionID, winnerID uuid.UUID, amountMinor int64) error {
	return b.post(ctx, "/settlements", map[string]any{
		"auction_id":   auctionID,
		"winner_id":    winnerID,
		"amount_minor": amountMinor,
	})
}

func (b *WebhookBridge) ReportNoWinner(ctx context.Context, auctionID uuid.UUID) error {
	return b.post(ctx, "/settlements", map[string]any{
		"auction_id": auctionID,
		"winner_id":  nil,
	})
}

func (b *WebhookBridge) post(ctx context.Context, path string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("settlement bridge: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("settlement bridge: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("settlement bridge: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("settlement bridge: %s returned status %d", path, resp.StatusCode)
	}
	return nil
}

// LogBridge is the no-op SettlementBridge used when no settlement service
// is configured, it only records the calls.
type LogBridge struct{}

func NewLogBridge() *LogBridge { return &LogBridge{} }

func (LogBridge) CreateAuction(_ context.Context, a *domain.Auction) error {
	log.Info("Settlement (log only): createAuction", zap.String("auctionID", a.ID.String()))
	return nil
}

func (LogBridge) SyncAuction(_ context.Context, a *domain.Auction) error {
	log.Info("Settlement (log only): syncAuction", zap.String("auctionID", a.ID.String()))
	return nil
}

func (LogBridge) BeginSettlement(_ context.Context, auctionID, winnerID uuid.UUID, amountMinor int64) error {
	log.Info("Settlement (log only): beginSettlement",
		zap.String("auctionID", auctionID.String()),
		zap.String("winnerID", winnerID.String()),
		zap.Int64("amountMinor", amountMinor),
	)
	return nil
}

func (LogBridge) ReportNoWinner(_ context.Context, auctionID uuid.UUID) error {
	log.Info("Settlement (log only): no winner", zap.String("auctionID", auctionID.String()))
	return nil
}
