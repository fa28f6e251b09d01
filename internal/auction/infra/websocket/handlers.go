package websocket

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/marketbay/bidengine/internal/auction/application"
	"github.com/marketbay/bidengine/internal/auction/domain"
	"github.com/marketbay/bidengine/internal/shared/logger"
	"github.com/marketbay/bidengine/internal/shared/websocket"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionWSHandler processes inbound ws messages for the auction module and
// owns the /ws/auctions/:id route.
type AuctionWSHandler struct {
	service application.AuctionService
	hub     *websocket.Hub
}

func NewAuctionWSHandler(service application.AuctionService, hub *websocket.Hub) *AuctionWSHandler {
	return &AuctionWSHandler{service: service, hub: hub}
}

// Register mounts the websocket upgrade route.
func (h *AuctionWSHandler) Register(ctx context.Context, app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/auctions/:id", fiberws.New(func(conn *fiberws.Conn) {
		auctionID := conn.Params("id")
		if _, err := uuid.Parse(auctionID); err != nil {
			_ = conn.Close()
			return
		}

		client := &websocket.Client{
			Hub:       h.hub,
			Conn:      conn,
			Send:      make(chan []byte, 16),
			AuctionID: auctionID,
			ID:        uuid.NewString(),
		}
		h.hub.RegisterClient(client)
		h.sendInitialState(ctx, client)

		go client.WritePump(ctx)
		// ReadPump blocks until the connection drops, keeping the
		// fiber ws handler alive
		client.ReadPump(ctx)
	}))
}

// ListenForMessages consumes the hub's inbound channel. Runs until ctx is
// cancelled.
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("AuctionWSHandler started listening for inbound messages")
	for {
		select {
		case <-ctx.Done():
			log.Info("AuctionWSHandler stopped listening for inbound messages")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

func (h *AuctionWSHandler) processMessage(ctx context.Context, client *websocket.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendErrorToClient(client, "invalid message format")
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientBid:
		h.handleClientBid(ctx, client, data)
	default:
		h.sendErrorToClient(client, "unknown message type")
	}
}

func (h *AuctionWSHandler) handleClientBid(ctx context.Context, client *websocket.Client, data []byte) {
	var bidMsg ClientBidMessage
	if err := json.Unmarshal(data, &bidMsg); err != nil {
		h.sendErrorToClient(client, "invalid bid message format")
		return
	}

	if bidMsg.Payload.AuctionID.String() != client.AuctionID {
		h.sendErrorToClient(client, "auction ID mismatch")
		return
	}

	result, err := h.service.PlaceBid(ctx, application.PlaceBidDTO{
		AuctionID:   bidMsg.Payload.AuctionID,
		UserID:      bidMsg.Payload.UserID,
		AmountMinor: bidMsg.Payload.AmountMinor,
	})
	if err != nil {
		h.sendErrorToClient(client, rejectionMessage(err))
		return
	}

	updateMsg := ServerUpdateMessage{BaseMessage: BaseMessage{Type: MessageTypeServerUpdate}}
	updateMsg.Payload.AuctionID = result.Bid.AuctionID
	updateMsg.Payload.CurrentBidMinor = result.CurrentBidMinor
	updateMsg.Payload.EndAt = result.EndAt
	updateMsg.Payload.Extended = result.Extended
	updateMsg.Payload.BidCount = result.BidCount

	updateData, err := json.Marshal(updateMsg)
	if err != nil {
		h.sendErrorToClient(client, "failed to serialize auction update")
		return
	}
	h.hub.BroadcastToAuction(client.AuctionID, updateData)
}

func (h *AuctionWSHandler) sendInitialState(ctx context.Context, client *websocket.Client) {
	auctionID, err := uuid.Parse(client.AuctionID)
	if err != nil {
		return
	}
	auction, err := h.service.GetAuction(ctx, auctionID)
	if err != nil {
		h.sendErrorToClient(client, rejectionMessage(err))
		return
	}

	msg := ServerInitialStateMessage{BaseMessage: BaseMessage{Type: MessageTypeServerInitialState}}
	msg.Payload.AuctionID = auction.ID
	msg.Payload.StartAt = auction.StartAt
	msg.Payload.EndAt = auction.EndAt
	msg.Payload.StartingBidMinor = auction.StartingBidMinor
	msg.Payload.CurrentBidMinor = auction.CurrentBidMinor
	msg.Payload.MinBidMinor = domain.MinNextBid(auction)
	msg.Payload.Status = string(auction.Status)

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal initial state message", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Warn("client send channel full, dropping initial state",
			zap.String("clientID", client.ID))
	}
}

func (h *AuctionWSHandler) sendErrorToClient(client *websocket.Client, errorMessage string) {
	errMsg := ServerErrorMessage{BaseMessage: BaseMessage{Type: MessageTypeServerError}}
	errMsg.Payload.Error = errorMessage
	data, err := json.Marshal(errMsg)
	if err != nil {
		log.Error("failed to marshal ServerErrorMessage", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Warn("client send channel full or closed, could not send error msg",
			zap.String("clientID", client.ID))
	}
}

// rejectionMessage keeps internal details out of frames sent to clients.
func rejectionMessage(err error) string {
	for _, known := range []error{
		domain.ErrAuctionNotFound,
		domain.ErrAuctionNotActive,
		domain.ErrBidTooLow,
		domain.ErrInvalidAmount,
		domain.ErrContention,
		domain.ErrUserNotFound,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}
