package events

import (
	"context"

	"github.com/marketbay/bidengine/internal/auction/domain"
	"github.com/marketbay/bidengine/internal/shared/logger"
)

var log = logger.GetLogger()

// Fanout composes publishers; each event goes to every sink. Sinks log
// their own failures, a slow or broken sink never fails the caller.
type Fanout struct {
	sinks []domain.EventPublisher
}

func NewFanout(sinks ...domain.EventPublisher) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Publish(ctx context.Context, evt domain.Event) {
	for _, sink := range f.sinks {
		sink.Publish(ctx, evt)
	}
}

// Noop discards events, used when no fan-out layer is configured.
type Noop struct{}

func (Noop) Publish(context.Context, domain.Event) {}
