// Package cli implements the bshipctl command line client: protocol
// requests over the message bus, event streaming and server discovery.
package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
	out    *Output
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "bshipctl",
		Short: "CLI client for the battleship game server",
		Long: `bshipctl talks the battleship wire protocol over the message bus.

It supports connecting, lobby operations, in-game actions, event
streaming and server discovery.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			out = NewOutput(cfg.Output)
			if cmd.Name() == "discover" {
				// Discovery listens on the shared advert subject and
				// needs no server name
				cfg.Server = "-"
			}
			if cfg.Server == "" {
				return errors.New("server name required (--server or BSHIP_SERVER)")
			}
			var err error
			client, err = NewClient(cfg.NATSURL, cfg.Server, cfg.Timeout)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if client != nil {
				client.Close()
			}
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.NATSURL, "nats", cfg.NATSURL, "Bus URL (env: BSHIP_NATS_URL)")
	rootCmd.PersistentFlags().StringVar(&cfg.Server, "server", cfg.Server, "Server name (env: BSHIP_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Username, "user", "u", cfg.Username, "Username (env: BSHIP_USER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Reply timeout")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newConnectCmd())
	rootCmd.AddCommand(newDisconnectCmd())
	rootCmd.AddCommand(newGamesCmd())
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newDiscoverCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// requireUser returns the configured username or an error
func requireUser() (string, error) {
	if cfg.Username == "" {
		return "", errors.New("username required (--user or BSHIP_USER)")
	}
	return cfg.Username, nil
}
