package cli

import (
	"github.com/spf13/cobra"

	"github.com/mkrato/battleship-server/internal/protocol"
)

func newGamesCmd() *cobra.Command {
	gamesCmd := &cobra.Command{
		Use:   "games",
		Short: "Lobby operations: list, create, join, spectate",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List open games",
		RunE: func(cmd *cobra.Command, args []string) error {
			closed, _ := cmd.Flags().GetBool("closed")
			tag := protocol.ReqGetListOpened
			if closed {
				tag = protocol.ReqGetListClosed
			}
			reply, err := client.Request(client.GamesSubject(), tag)
			if err != nil {
				return err
			}
			out.PrintReply(reply)
			return nil
		},
	}
	listCmd.Flags().Bool("closed", false, "List finished games instead")

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a game and become its owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			width, _ := cmd.Flags().GetString("width")
			height, _ := cmd.Flags().GetString("height")
			reply, err := client.Request(client.GamesSubject(), protocol.ReqCreateGame,
				args[0], user, width, height)
			if err != nil {
				return err
			}
			out.PrintReply(reply)
			return nil
		},
	}
	createCmd.Flags().String("width", "10", "Board width")
	createCmd.Flags().String("height", "10", "Board height")

	joinCmd := &cobra.Command{
		Use:   "join <name>",
		Short: "Join an open game as a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			reply, err := client.Request(client.GamesSubject(), protocol.ReqJoinGame, args[0], user)
			if err != nil {
				return err
			}
			out.PrintReply(reply)
			return nil
		},
	}

	spectateCmd := &cobra.Command{
		Use:   "spectate <name>",
		Short: "Observe a game's events without playing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			reply, err := client.Request(client.GamesSubject(), protocol.ReqSpectateGame, args[0], user)
			if err != nil {
				return err
			}
			out.PrintReply(reply)
			return nil
		},
	}

	gamesCmd.AddCommand(listCmd)
	gamesCmd.AddCommand(createCmd)
	gamesCmd.AddCommand(joinCmd)
	gamesCmd.AddCommand(spectateCmd)

	return gamesCmd
}
