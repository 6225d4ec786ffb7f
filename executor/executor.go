// Package executor drives a session: it records user messages and runs orchestrator steps
// until the planner produces a terminal answer or the step limit is reached.
package executor

import (
	"context"
	"errors"
	"fmt"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/KulikovMichael/sgr-base-agent/sessionstore"
	"go.uber.org/zap"
)

// ErrMaxStepsExceeded is returned by Send when no terminal answer was produced within
// Config.MaxSteps steps. The session remains usable.
var ErrMaxStepsExceeded = errors.New("max steps exceeded")

// DefaultMaxSteps is the step limit per user message.
const DefaultMaxSteps = 8

// Config holds configuration options for the Executor.
type Config struct {
	// MaxSteps bounds the steps run for one user message. 1 runs a single step per
	// message and leaves it to the caller to continue.
	MaxSteps int
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{MaxSteps: DefaultMaxSteps}
}

// StepRunner runs steps over a state. *orchestrator.Orchestrator implements it.
type StepRunner interface {
	RunStep(ctx context.Context, planning sgr.Schema, actions map[sgr.ActionName]sgr.Schema) (*sgr.StepResult, error)
	State() sgr.State
}

// Reply is the outcome of Send.
type Reply struct {
	// Answer is the terminal answer. Empty when Terminated is false.
	Answer string

	// Terminated reports whether the planner chose the terminal action.
	Terminated bool

	// Steps is the number of steps run, including a failed one.
	Steps int
}

// Executor runs steps for one session.
//
// The Executor is responsible for:
//   - Appending the user message before the first step
//   - Running steps until a terminal answer, an error, or the step limit
//   - Saving the state to the session store after the message and after every step
//
// Example:
//
//	orch := orchestrator.New(state, registry, gw, sink)
//	exec := executor.New(orch, planner, actions, executor.DefaultConfig()).
//	    WithStore(store)
//	reply, err := exec.Send(ctx, "check order 42")
type Executor struct {
	runner   StepRunner
	planning sgr.Schema
	actions  map[sgr.ActionName]sgr.Schema
	config   Config
	store    sessionstore.Store
	logger   *zap.Logger
}

// New creates a new Executor with the given runner, schemas and configuration.
func New(
	runner StepRunner,
	planning sgr.Schema,
	actions map[sgr.ActionName]sgr.Schema,
	config Config,
) *Executor {
	if config.MaxSteps < 1 {
		config.MaxSteps = DefaultMaxSteps
	}
	return &Executor{
		runner:   runner,
		planning: planning,
		actions:  actions,
		config:   config,
		logger:   zap.NewNop(),
	}
}

// WithStore persists the state after every step. Returns the executor for chaining.
func (e *Executor) WithStore(store sessionstore.Store) *Executor {
	e.store = store
	return e
}

// WithLogger sets the logger. Returns the executor for chaining.
func (e *Executor) WithLogger(logger *zap.Logger) *Executor {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// State returns the session state.
func (e *Executor) State() sgr.State {
	return e.runner.State()
}

// Send records message as a user turn and runs steps until termination.
//
// Step errors are returned as is; the state keeps everything recorded before the failing
// step. When the limit is reached without an answer, the reply is returned together with
// an error wrapping ErrMaxStepsExceeded.
func (e *Executor) Send(ctx context.Context, message string) (*Reply, error) {
	base := e.runner.State().Base()
	base.AddUserMessage(message)
	if err := e.save(ctx); err != nil {
		return nil, err
	}
	return e.Resume(ctx)
}

// Resume runs steps without adding a user message, e.g. after ErrMaxStepsExceeded.
func (e *Executor) Resume(ctx context.Context) (*Reply, error) {
	base := e.runner.State().Base()
	reply := &Reply{}

	for reply.Steps < e.config.MaxSteps {
		if err := ctx.Err(); err != nil {
			return reply, err
		}

		reply.Steps++
		result, err := e.runner.RunStep(ctx, e.planning, e.actions)
		if err != nil {
			e.logger.Error("StepFailed",
				zap.String("component", "Executor"),
				zap.String("session_id", base.SessionID),
				zap.Int("step", reply.Steps),
				zap.Error(err),
			)
			return reply, err
		}
		if err := e.save(ctx); err != nil {
			return reply, err
		}

		if result.Terminated() {
			reply.Answer = result.Answer
			reply.Terminated = true
			e.logger.Info("AnswerReady",
				zap.String("component", "Executor"),
				zap.String("session_id", base.SessionID),
				zap.Int("steps", reply.Steps),
			)
			return reply, nil
		}
	}

	return reply, fmt.Errorf("%w: %d steps for session %s", ErrMaxStepsExceeded, reply.Steps, base.SessionID)
}

func (e *Executor) save(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Save(ctx, e.runner.State()); err != nil {
		return fmt.Errorf("executor: save session: %w", err)
	}
	return nil
}
