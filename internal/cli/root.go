// Package cli implements the sgr command line: an interactive chat with the reference
// agent, one-shot runs, and inspection of execution traces and stored sessions.
package cli

import (
	"fmt"
	"os"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/KulikovMichael/sgr-base-agent/config"
	"github.com/spf13/cobra"
)

// Options holds global CLI options.
type Options struct {
	ConfigPath  string
	EnvFile     string
	MetricsAddr string
	Verbose     bool

	// backend replaces the model backend built from config. Tests only.
	backend sgr.Backend
}

// NewRootCmd constructs the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&Options{})
}

func newRootCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sgr",
		Short:         "Schema-guided reasoning agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to config file (default: sgr.yaml if present)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "Path to .env file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Print every step event as YAML to stderr")
	cmd.PersistentFlags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics.addr)")

	cmd.AddCommand(newChatCmd(opts))
	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newTraceCmd())
	cmd.AddCommand(newStateCmd(opts))

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%sError: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
}

// loadConfig wraps config loading with shared options.
func loadConfig(opts *Options) (*config.Config, error) {
	if err := config.LoadDotEnv(opts.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.MetricsAddr != "" {
		cfg.Metrics.Addr = opts.MetricsAddr
	}
	return cfg, nil
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)
