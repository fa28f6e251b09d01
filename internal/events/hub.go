package events

import (
	"context"
	"encoding/json"

	"github.com/marketbay/bidengine/internal/auction/domain"
	"github.com/marketbay/bidengine/internal/shared/websocket"
	"go.uber.org/zap"
)

// HubPublisher pushes events to the websocket clients watching the
// auction's room.
type HubPublisher struct {
	hub *websocket.Hub
}

func NewHubPublisher(hub *websocket.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(_ context.Context, evt domain.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Error("HubPublisher: failed to marshal event",
			zap.String("event", evt.Name),
			zap.String("auctionID", evt.AuctionID.String()),
			zap.Error(err),
		)
		return
	}
	p.hub.BroadcastToAuction(evt.AuctionID.String(), data)
}
