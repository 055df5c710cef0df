package publisher

import (
	"context"

	"github.com/yndd/dinesync"
)

// Publisher puts collection change messages on the broadcast channel.
type Publisher interface {
	Publish(ctx context.Context, m *dinesync.Msg) error
	PublishFromCh(ctx context.Context, ch chan *dinesync.Msg)
}
