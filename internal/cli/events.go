package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mkrato/battleship-server/internal/protocol"
)

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events [game]",
		Short: "Stream broadcast events until interrupted",
		Long: `events streams broadcasts as they arrive.

With a game argument it follows that game's event subject; without one
it follows the lobby subject, where game-opened and game-closed
announcements appear.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := client.GamesSubject()
			if len(args) == 1 {
				subject = client.GameEventsSubject(args[0])
			}

			sub, err := client.Subscribe(subject, func(event protocol.Message) {
				out.PrintEvent(event)
			})
			if err != nil {
				return err
			}
			defer func() { _ = sub.Unsubscribe() }()

			out.PrintMessage("Streaming events from " + subject + " (Ctrl-C to stop)")
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			return nil
		},
	}
}
