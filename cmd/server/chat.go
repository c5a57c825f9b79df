package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/sessionchat/internal/chatclient"
)

func newChatCmd() *cobra.Command {
	opts := chatclient.Options{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive WebSocket client",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return chatclient.Run(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.URL, "addr", "ws://localhost:8080/ws", "WebSocket address")
	flags.StringVar(&opts.UserID, "user", "cli-user", "user id sent with every request")
	flags.StringVar(&opts.SessionID, "session", "", "session to join (empty creates one)")
	flags.StringVar(&opts.Token, "token", "", "bearer token when the server requires one")
	return cmd
}
