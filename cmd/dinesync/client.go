package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/yndd/dinesync/collection"
	"github.com/yndd/dinesync/restaurant"
)

func newGetCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, l, err := load(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), c, false, l)
			if err != nil {
				return err
			}
			defer a.Close()

			data, ok := a.manager.GetData(args[0])
			if !ok {
				return errors.Errorf("collection %s not found", args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}
}

func newSetCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY FILE",
		Short: "Replace a collection with the JSON array in FILE (- for stdin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				b   []byte
				err error
			)
			if args[1] == "-" {
				b, err = io.ReadAll(cmd.InOrStdin())
			} else {
				b, err = os.ReadFile(args[1])
			}
			if err != nil {
				return errors.Wrap(err, "cannot read input")
			}
			data, err := collection.Parse(b)
			if err != nil {
				return err
			}

			c, l, err := load(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), c, false, l)
			if err != nil {
				return err
			}
			defer a.Close()

			a.manager.SetData(args[0], data)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records\n", args[0], len(data))
			return nil
		},
	}
}

func newSeedCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the restaurant fixtures into absent collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, l, err := load(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), c, false, l)
			if err != nil {
				return err
			}
			defer a.Close()

			svc := restaurant.NewService(a.manager, restaurant.Config{Seed: true}, l)
			svc.Start()
			svc.Stop()
			for _, k := range restaurant.Keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records\n", k, svc.Stats()[k])
			}
			return nil
		},
	}
}

// newResyncCmd rewrites every known collection and its trigger entry, so
// that every process watching the store redelivers it.
func newResyncCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Make every process sharing the store redeliver its collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, l, err := load(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), c, false, l)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, k := range a.transport.KnownKeys() {
				data, ok := a.manager.GetData(k)
				if !ok {
					continue
				}
				a.transport.Broadcast(k, data)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: resynced\n", k)
			}
			return nil
		},
	}
}
