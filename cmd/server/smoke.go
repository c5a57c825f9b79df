package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/sessionchat/internal/chatclient"
)

func newSmokeCmd() *cobra.Command {
	opts := chatclient.Options{}
	var (
		text    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Send one message to a running server and wait for the reply",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			seen, err := chatclient.Smoke(ctx, opts, text)
			for _, line := range seen {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.URL, "addr", "ws://localhost:8080/ws", "WebSocket address")
	flags.StringVar(&opts.UserID, "user", "tester", "user id")
	flags.StringVar(&opts.SessionID, "session", "", "session to use (empty creates one)")
	flags.StringVar(&opts.Token, "token", "", "bearer token when the server requires one")
	flags.StringVar(&text, "text", "hello from smoke test", "message text to send")
	flags.DurationVar(&timeout, "timeout", 5*time.Second, "total timeout for the run")
	return cmd
}
