package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCmd(opts *Options) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "run \"<message>\" [\"<message>\"...]",
		Short: "Send messages to the agent, one after another, and print each answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, msg := range args {
				if strings.TrimSpace(msg) == "" {
					return fmt.Errorf("message cannot be empty")
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts, sessionID)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			for _, msg := range args {
				fmt.Fprintf(out, "User: %s\n", msg)
				answer, err := a.send(ctx, msg)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Agent: %s\n", answer)
			}
			fmt.Fprintf(out, "Trace: %s\n", a.sink.Path(a.state.SessionID))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session id to resume (default: new session)")
	return cmd
}
