package events

import (
	"context"
	"encoding/json"

	"github.com/marketbay/bidengine/internal/auction/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "auction:events:"

// RedisPublisher pushes events to per-auction redis pub/sub channels so
// external fan-out layers (notification workers, other gateway nodes) can
// subscribe without touching the engine.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt domain.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Error("RedisPublisher: failed to marshal event",
			zap.String("event", evt.Name),
			zap.String("auctionID", evt.AuctionID.String()),
			zap.Error(err),
		)
		return
	}

	channel := channelPrefix + evt.AuctionID.String()
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		log.Error("RedisPublisher: failed to publish event",
			zap.String("event", evt.Name),
			zap.String("channel", channel),
			zap.Error(err),
		)
	}
}
