package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/yndd/ndd-runtime/pkg/logging"

	"github.com/yndd/dinesync/collection"
	"github.com/yndd/dinesync/config"
	"github.com/yndd/dinesync/manager"
	"github.com/yndd/dinesync/publisher"
	"github.com/yndd/dinesync/store"
	"github.com/yndd/dinesync/subscriber"
	"github.com/yndd/dinesync/transport"
)

func storeBackend(s string) store.Backend { return store.Backend(s) }

// app is one sync context: a store, a transport and the manager on top.
type app struct {
	store     store.Store
	transport *transport.Transport
	manager   *manager.Manager
}

// newApp wires the components described by c. With broadcast false the
// transport only uses the store, which is enough for one-shot commands.
func newApp(ctx context.Context, c *config.Config, broadcast bool, l logging.Logger) (*app, error) {
	s, err := store.New(ctx, c.Store, l.WithValues("component", "store"))
	if err != nil {
		return nil, errors.Wrap(err, "cannot open store")
	}

	var (
		pub publisher.Publisher
		sub subscriber.Subscriber
		tr  *transport.Transport
	)
	if broadcast && c.Broadcast.Kind == config.BroadcastNATS {
		bl := l.WithValues("component", "broadcast")
		pub = publisher.NewNATSPublisher(publisher.Config{
			Address: c.Broadcast.Address,
			Channel: c.Sync.Channel,
			MaxAge:  c.Broadcast.MaxAge,
			TLS:     c.Broadcast.TLS,
		}, bl)
		sub = subscriber.NewNATSSubscriber(subscriber.Config{
			Address: c.Broadcast.Address,
			TLS:     c.Broadcast.TLS,
			// the connection came back, catch up on what was missed
			ReconnectHandler: func() {
				if tr != nil {
					tr.Focus()
				}
			},
		}, bl)
	}

	a := collection.NewAdapter(s, l.WithValues("component", "collection"))
	tr = transport.New(c.Sync, a, pub, sub, nil, l.WithValues("component", "transport"))
	m := manager.New(a, tr, l.WithValues("component", "manager"))
	return &app{store: s, transport: tr, manager: m}, nil
}

func (a *app) Close() error {
	a.manager.Close()
	if err := a.transport.Close(); err != nil {
		return err
	}
	return a.store.Close()
}
