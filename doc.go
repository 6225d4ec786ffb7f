// Package sgr implements a schema-guided reasoning agent loop.
//
// Every model response is a JSON object that must validate against a schema the caller
// chose. A session alternates two schemas per step: a planner that picks exactly one action
// (or [FinalAnswer]), then the schema of that action whose arguments are passed to a
// service. Each payload carries a [Reasoning] block that is written to an execution trace.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//
//	    sgr "github.com/KulikovMichael/sgr-base-agent"
//	    "github.com/KulikovMichael/sgr-base-agent/gateway"
//	    "github.com/KulikovMichael/sgr-base-agent/models"
//	    "github.com/KulikovMichael/sgr-base-agent/orchestrator"
//	    "github.com/KulikovMichael/sgr-base-agent/schema"
//	    "github.com/KulikovMichael/sgr-base-agent/toolchain"
//	    "github.com/KulikovMichael/sgr-base-agent/tracelog"
//	)
//
//	type LookupArgs struct {
//	    ContextKey string `json:"context_key"`
//	}
//
//	func main() {
//	    // 1. Schemas: the planner and one schema per action
//	    planner := sgr.NewPlannerSchema("LookupInfo")
//	    actions := map[sgr.ActionName]sgr.Schema{
//	        "LookupInfo": sgr.NewActionSchema[LookupArgs]("LookupInfo",
//	            "Lookup parameters.",
//	            schema.Object(map[string]*schema.Property{
//	                "context_key": schema.String("Key to look up."),
//	            }, "context_key")),
//	    }
//
//	    // 2. Services, resolved by action name
//	    registry := toolchain.NewRegistry(
//	        toolchain.NewServiceFunc("LookupInfo",
//	            func(ctx context.Context, in LookupArgs) (string, error) {
//	                return "found " + in.ContextKey, nil
//	            }),
//	    )
//
//	    // 3. Gateway over a model backend
//	    gw := gateway.New(models.NewOpenAIBackend(apiKey), "gpt-4o-mini")
//
//	    // 4. One state per session, one orchestrator per state
//	    state := sgr.NewAgentState("demo-session")
//	    state.AddUserMessage("What do you know about order 42?")
//	    orch := orchestrator.New(state, registry, gw, tracelog.NewFileSink("executions"))
//
//	    // 5. Run a step
//	    result, err := orch.RunStep(context.Background(), planner, actions)
//	    if err != nil {
//	        panic(err)
//	    }
//	    if result.Terminated() {
//	        fmt.Println("Agent:", result.Answer)
//	    }
//	}
//
// The executor package runs steps until a terminal answer, and agents/base is a complete
// reference agent.
//
// # Errors
//
// Failures the caller may want to branch on are typed: [SchemaValidationError] after the
// gateway gave up on invalid output, [TransientBackendError] when the backend kept failing,
// and [UnknownToolRequestedError] when the planner named an action outside the step's
// action set. Service failures are not errors; they are recorded into the state as
// "Error: <message>" tool results.
package sgr
