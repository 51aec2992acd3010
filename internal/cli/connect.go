package cli

import (
	"github.com/spf13/cobra"

	"github.com/mkrato/battleship-server/internal/protocol"
)

func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Register your username with the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			reply, err := client.Request(client.ClientSubject(), protocol.ReqConnect, user)
			if err != nil {
				return err
			}
			out.PrintReply(reply)
			return nil
		},
	}
}

func newDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Release your username",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			reply, err := client.Request(client.ClientSubject(), protocol.ReqDisconnect, user)
			if err != nil {
				return err
			}
			out.PrintReply(reply)
			return nil
		},
	}
}
