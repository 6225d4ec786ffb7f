package executor

import (
	"context"
	"errors"
	"testing"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/KulikovMichael/sgr-base-agent/gateway"
	"github.com/KulikovMichael/sgr-base-agent/internal/tt"
	"github.com/KulikovMichael/sgr-base-agent/orchestrator"
	"github.com/KulikovMichael/sgr-base-agent/schema"
	"github.com/KulikovMichael/sgr-base-agent/sessionstore"
	"github.com/KulikovMichael/sgr-base-agent/toolchain"
	"github.com/KulikovMichael/sgr-base-agent/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupArgs struct {
	ContextKey string `json:"context_key"`
}

var (
	planner = sgr.NewPlannerSchema("LookupInfo")
	actions = map[sgr.ActionName]sgr.Schema{
		"LookupInfo": sgr.NewActionSchema[lookupArgs]("LookupInfo", "Lookup arguments.",
			schema.Object(map[string]*schema.Property{
				"context_key": schema.String("Key to look up."),
			}, "context_key")),
	}
)

func newExecutor(backend *tt.MockBackend, config Config) (*Executor, *sgr.AgentState) {
	state := sgr.NewAgentState("session-1")
	registry := toolchain.NewRegistry(tt.NewMockService("LookupInfo", "found"))
	gw := gateway.New(backend, "test-model").WithRetry(1, 0)
	orch := orchestrator.New(state, registry, gw, tracelog.NewMemorySink())
	return New(orch, planner, actions, config), state
}

func lookupThenAnswer(backend *tt.MockBackend, answer string) *tt.MockBackend {
	return backend.
		AddJSON(tt.PlanFor("LookupInfo", "look it up")).
		AddJSON(tt.ActionFor("lookup", lookupArgs{ContextKey: "order-42"})).
		AddJSON(tt.FinalPlan(answer))
}

func TestExecutor_Send(t *testing.T) {
	type input struct {
		maxSteps int
	}

	type expected struct {
		reply  Reply
		errIs  error
		roles  []sgr.Role
		called int
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:  "loops until answer",
			input: input{maxSteps: 8},
			expected: expected{
				reply: Reply{Answer: "Order 42 shipped.", Terminated: true, Steps: 2},
				roles: []sgr.Role{
					sgr.RoleUser, sgr.RoleAssistant, sgr.RoleTool, sgr.RoleAssistant,
				},
				called: 3,
			},
		},
		{
			name:  "single step per message",
			input: input{maxSteps: 1},
			expected: expected{
				reply:  Reply{Steps: 1},
				errIs:  ErrMaxStepsExceeded,
				roles:  []sgr.Role{sgr.RoleUser, sgr.RoleAssistant, sgr.RoleTool},
				called: 2,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := lookupThenAnswer(tt.NewMockBackend(), "Order 42 shipped.")
			exec, state := newExecutor(backend, Config{MaxSteps: tc.input.maxSteps})

			reply, err := exec.Send(context.Background(), "check order 42")

			if tc.expected.errIs != nil {
				assert.ErrorIs(t, err, tc.expected.errIs)
			} else {
				require.NoError(t, err)
			}
			require.NotNil(t, reply)
			assert.Equal(t, tc.expected.reply, *reply)
			tt.AssertRoles(t, state, tc.expected.roles...)
			assert.Equal(t, tc.expected.called, backend.CallCount())
			assert.False(t, state.IsTaskCompleted)
		})
	}
}

func TestExecutor_ResumeAfterLimit(t *testing.T) {
	backend := lookupThenAnswer(tt.NewMockBackend(), "done")
	exec, _ := newExecutor(backend, Config{MaxSteps: 1})
	ctx := context.Background()

	_, err := exec.Send(ctx, "hi")
	require.ErrorIs(t, err, ErrMaxStepsExceeded)

	reply, err := exec.Resume(ctx)
	require.NoError(t, err)
	assert.True(t, reply.Terminated)
	assert.Equal(t, "done", reply.Answer)
}

func TestExecutor_StepErrorStops(t *testing.T) {
	backend := tt.NewMockBackend().AddError(errors.New("upstream down"))
	exec, state := newExecutor(backend, DefaultConfig())

	reply, err := exec.Send(context.Background(), "hi")

	assert.ErrorIs(t, err, sgr.ErrTransientBackend)
	assert.Equal(t, 1, reply.Steps)
	assert.False(t, reply.Terminated)
	tt.AssertRoles(t, state, sgr.RoleUser)
}

func TestExecutor_SavesToStore(t *testing.T) {
	backend := lookupThenAnswer(tt.NewMockBackend(), "saved")
	exec, state := newExecutor(backend, DefaultConfig())
	store := sessionstore.NewMemory()
	exec.WithStore(store)

	_, err := exec.Send(context.Background(), "persist me")
	require.NoError(t, err)

	restored := &sgr.AgentState{}
	require.NoError(t, store.Load(context.Background(), "session-1", restored))
	assert.Equal(t, state.ChatHistory, restored.ChatHistory)
	assert.Equal(t, state.LastToolResult, restored.LastToolResult)
}

func TestExecutor_CancelledContext(t *testing.T) {
	backend := lookupThenAnswer(tt.NewMockBackend(), "x")
	exec, _ := newExecutor(backend, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply, err := exec.Send(ctx, "hi")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, reply.Steps)
	assert.Equal(t, 0, backend.CallCount())
}

func TestDefaultConfig(t *testing.T) {
	assert.Equal(t, DefaultMaxSteps, DefaultConfig().MaxSteps)

	exec, _ := newExecutor(tt.NewMockBackend(), Config{})
	assert.Equal(t, DefaultMaxSteps, exec.config.MaxSteps)
}
