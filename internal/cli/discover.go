package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkrato/battleship-server/internal/protocol"
)

func newDiscoverCmd() *cobra.Command {
	discoverCmd := &cobra.Command{
		Use:   "discover",
		Short: "Listen for server presence announcements",
		RunE: func(cmd *cobra.Command, args []string) error {
			wait, _ := cmd.Flags().GetDuration("wait")

			advertSub, err := client.SubscribeRaw(protocol.SubjectAdvert, func(data []byte) {
				out.PrintMessage("server up: " + string(data))
			})
			if err != nil {
				return err
			}
			defer func() { _ = advertSub.Unsubscribe() }()

			stopSub, err := client.SubscribeRaw(protocol.SubjectStop, func(data []byte) {
				out.PrintMessage("server stopping: " + string(data))
			})
			if err != nil {
				return err
			}
			defer func() { _ = stopSub.Unsubscribe() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sigCh:
			case <-time.After(wait):
			}
			return nil
		},
	}
	discoverCmd.Flags().Duration("wait", 15*time.Second, "How long to listen before exiting")
	return discoverCmd
}
