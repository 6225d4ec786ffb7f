package cli

import (
	"fmt"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/KulikovMichael/sgr-base-agent/agents/base"
	"github.com/KulikovMichael/sgr-base-agent/sessionstore"
	"github.com/KulikovMichael/sgr-base-agent/tracelog"
	"github.com/spf13/cobra"
)

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect execution trace files",
	}

	var format string
	show := &cobra.Command{
		Use:   "show FILE",
		Short: "Print the records of a trace file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := tracelog.ReadFile(args[0])
			if err != nil {
				return err
			}
			switch format {
			case "yaml":
				return tracelog.WriteYAML(cmd.OutOrStdout(), records)
			case "json":
				return tracelog.WriteJSON(cmd.OutOrStdout(), records)
			default:
				return fmt.Errorf("unknown format %q (want yaml or json)", format)
			}
		},
	}
	show.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")

	cmd.AddCommand(show)
	return cmd
}

func newStateCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect stored sessions",
	}

	show := &cobra.Command{
		Use:   "show SESSION",
		Short: "Print a stored session state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			store, closer, err := sessionstore.Open(cmd.Context(), cfg.Session.StoreURL, cfg.Session.TTL)
			if err != nil {
				return err
			}
			defer closer.Close()

			state := base.NewBusinessState(args[0])
			if err := store.Load(cmd.Context(), args[0], state); err != nil {
				return fmt.Errorf("session %s: %w", args[0], err)
			}
			data, err := sgr.EncodeState(state)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.AddCommand(show)
	return cmd
}
