package publisher

import (
	"context"

	"github.com/yndd/ndd-runtime/pkg/logging"

	"github.com/yndd/dinesync"
	"github.com/yndd/dinesync/broadcast"
)

type busPublisher struct {
	bus     *broadcast.Bus
	channel string
	logger  logging.Logger
}

// NewBusPublisher publishes on an in-process bus.
func NewBusPublisher(b *broadcast.Bus, channel string, l logging.Logger) Publisher {
	if l == nil {
		l = logging.NewNopLogger()
	}
	if channel == "" {
		channel = dinesync.DefaultChannel
	}
	return &busPublisher{bus: b, channel: channel, logger: l}
}

func (p *busPublisher) Publish(ctx context.Context, m *dinesync.Msg) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.Debug("publish", "key", m.Key, "timestamp", m.Timestamp)
	p.bus.Publish(dinesync.Subject(p.channel, m.Key), m)
	return nil
}

func (p *busPublisher) PublishFromCh(ctx context.Context, ch chan *dinesync.Msg) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			if err := p.Publish(ctx, m); err != nil {
				return
			}
		}
	}
}
