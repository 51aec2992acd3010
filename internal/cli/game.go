package cli

import (
	"github.com/spf13/cobra"

	"github.com/mkrato/battleship-server/internal/protocol"
)

func newGameCmd() *cobra.Command {
	gameCmd := &cobra.Command{
		Use:   "game <name>",
		Short: "In-game actions and queries",
	}

	infoCmd := &cobra.Command{
		Use:   "info <name>",
		Short: "Show dimensions, players, readiness, owner and turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := client.GameSubject(args[0])
			for _, tag := range []protocol.Tag{
				protocol.ReqGetDimensions,
				protocol.ReqGetPlayers,
				protocol.ReqGetReady,
				protocol.ReqGetOwner,
				protocol.ReqGetTurn,
			} {
				reply, err := client.Request(subject, tag)
				if err != nil {
					return err
				}
				out.PrintReply(reply)
			}
			return nil
		},
	}

	fieldsCmd := &cobra.Command{
		Use:   "fields <name>",
		Short: "Show the cell listing you are allowed to see",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			reply, err := client.Request(client.GameSubject(args[0]), protocol.ReqGetFields, user)
			if err != nil {
				return err
			}
			out.PrintReply(reply)
			return nil
		},
	}

	readyCmd := &cobra.Command{
		Use:   "ready <name> <row,col> [row,col ...]",
		Short: "Place your ships and confirm readiness",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			fields := append([]string{user}, args[1:]...)
			reply, err := client.Request(client.GameSubject(args[0]), protocol.ReqSetReady, fields...)
			if err != nil {
				return err
			}
			out.PrintReply(reply)
			return nil
		},
	}

	startCmd := &cobra.Command{
		Use:   "start <name>",
		Short: "Start the game (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			reply, err := client.Request(client.GameSubject(args[0]), protocol.ReqStartGame, user)
			if err != nil {
				return err
			}
			out.PrintReply(reply)
			return nil
		},
	}

	shootCmd := &cobra.Command{
		Use:   "shoot <name> <target> <row> <col>",
		Short: "Shoot a cell on a target player's board",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			reply, err := client.Request(client.GameSubject(args[0]), protocol.ReqShoot,
				user, args[1], args[2], args[3])
			if err != nil {
				return err
			}
			out.PrintReply(reply)
			return nil
		},
	}

	leaveCmd := &cobra.Command{
		Use:   "leave <name>",
		Short: "Leave the game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			reply, err := client.Request(client.GameSubject(args[0]), protocol.ReqLeaveGame, user)
			if err != nil {
				return err
			}
			out.PrintReply(reply)
			return nil
		},
	}

	gameCmd.AddCommand(infoCmd)
	gameCmd.AddCommand(fieldsCmd)
	gameCmd.AddCommand(readyCmd)
	gameCmd.AddCommand(startCmd)
	gameCmd.AddCommand(shootCmd)
	gameCmd.AddCommand(leaveCmd)

	return gameCmd
}
