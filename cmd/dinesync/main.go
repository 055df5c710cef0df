// Command dinesync runs and operates the restaurant collection sync service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yndd/ndd-runtime/pkg/logging"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/yndd/dinesync/config"
)

var version = "dev"

func main() {
	var (
		cfgFile string
		debug   bool
		backend string
		dir     string
	)

	// load applies the persistent flags over the file and the environment.
	load := func(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
		c, err := config.Load(cfgFile)
		if err != nil {
			return nil, nil, err
		}
		if cmd.Flags().Changed("store") {
			c.Store.Backend = storeBackend(backend)
		}
		if cmd.Flags().Changed("dir") {
			c.Store.Dir = dir
		}
		if debug {
			c.Debug = true
		}
		if err := c.Validate(); err != nil {
			return nil, nil, err
		}
		zlog := zap.New(zap.UseDevMode(c.Debug))
		return c, logging.NewLogrLogger(zlog.WithName("dinesync")), nil
	}

	rootCmd := &cobra.Command{
		Use:           "dinesync",
		Short:         "Real-time collection sync for the restaurant application",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&backend, "store", "", "store backend: memory, json, sqlite, bolt or nats")
	rootCmd.PersistentFlags().StringVar(&dir, "dir", "", "data directory of the json, sqlite and bolt backends")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(
		newServeCmd(load),
		newGetCmd(load),
		newSetCmd(load),
		newSeedCmd(load),
		newResyncCmd(load),
		versionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type loader func(cmd *cobra.Command) (*config.Config, logging.Logger, error)
