package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func newChatCmd(opts *Options) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the agent interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts, sessionID)
			if err != nil {
				return err
			}
			defer a.close()

			rl, err := readline.New(colorCyan + "You: " + colorReset)
			if err != nil {
				return fmt.Errorf("failed to create readline: %w", err)
			}
			defer rl.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%sSession %s. Type 'exit' or press Ctrl+C to quit.%s\n\n",
				colorYellow, a.state.SessionID, colorReset)

			return chatLoop(cmd.Context(), rl, out, a)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session id to resume (default: new session)")
	return cmd
}

func chatLoop(ctx context.Context, rl *readline.Instance, out io.Writer, a *app) error {
	for {
		input, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Fprintf(out, "\n%sGoodbye!%s\n", colorGreen, colorReset)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		switch input {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintf(out, "%sGoodbye!%s\n", colorGreen, colorReset)
			return nil
		}

		// Ctrl+C while the agent is working cancels the message, not the chat.
		msgCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		answer, err := a.send(msgCtx, input)
		stop()
		if err != nil {
			fmt.Fprintf(out, "%sError: %v%s\n\n", colorRed, err, colorReset)
			continue
		}
		fmt.Fprintf(out, "%sAgent:%s %s\n\n", colorGreen, colorReset, answer)
	}
}
