// Package base is the reference customer-conversation agent.
//
// # Overview
//
// The agent keeps a [BusinessState] (client name, intent, open questions) on top of the
// core agent state and can choose among three actions:
//
//   - LookupInfo: fetch data from an external source by key
//   - UpdateRecord: change a confirmed field of the client record
//   - FinalizeConversation: close the scenario with a CRM summary
//
// or finish with sgr.FinalAnswer. The services are mocks with deterministic failure rules,
// which makes the package useful for demos and end-to-end tests:
//
//   - LookupInfo fails on an empty context_key
//   - UpdateRecord fails on an empty field
//   - FinalizeConversation fails when the summary mentions "error"
//
// # Wiring
//
//	state := base.NewBusinessState("")
//	exec := base.New(state, gw, tracelog.NewFileSink(dir), base.Options{})
//	reply, err := exec.Send(ctx, "What do you know about Horns & Hooves Ltd?")
package base
