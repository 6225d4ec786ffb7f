package base

import (
	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/KulikovMichael/sgr-base-agent/executor"
	"github.com/KulikovMichael/sgr-base-agent/orchestrator"
	"github.com/KulikovMichael/sgr-base-agent/sessionstore"
	"github.com/KulikovMichael/sgr-base-agent/tracelog"
	"go.uber.org/zap"
)

// Options configures New. The zero value is valid.
type Options struct {
	Executor executor.Config
	Logger   *zap.Logger
	Hooks    sgr.HookFirer
	Store    sessionstore.Store
}

// New wires the reference agent around state.
func New(state *BusinessState, gen sgr.Generator, sink tracelog.Sink, opts Options) *executor.Executor {
	orch := orchestrator.New(state, Registry(), gen, sink).
		WithLogger(opts.Logger).
		WithHooks(opts.Hooks)

	exec := executor.New(orch, Planner, Actions(), opts.Executor).WithLogger(opts.Logger)
	if opts.Store != nil {
		exec.WithStore(opts.Store)
	}
	return exec
}
