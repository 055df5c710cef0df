package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yndd/dinesync/restaurant"
	"github.com/yndd/dinesync/server"
)

func newServeCmd(load loader) *cobra.Command {
	var (
		addr string
		seed bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync context with its HTTP and websocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, l, err := load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				c.HTTP.Addr = addr
			}
			if cmd.Flags().Changed("seed") {
				c.Seed = seed
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, c, true, l)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.transport.Start(ctx); err != nil {
				return err
			}

			svc := restaurant.NewService(a.manager, restaurant.Config{Seed: c.Seed}, l.WithValues("component", "restaurant"))
			svc.Start()
			defer svc.Stop()
			l.Info("collections ready", "stats", svc.Stats())

			srv := server.New(a.manager, c.HTTP, l.WithValues("component", "http"))
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(gctx) })
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (host:port)")
	cmd.Flags().BoolVar(&seed, "seed", false, "seed absent collections with the restaurant fixtures")
	return cmd
}
