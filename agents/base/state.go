package base

import (
	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/google/uuid"
)

// BusinessState is the agent state extended with what is known about the client.
type BusinessState struct {
	sgr.AgentState

	// ClientName is set once the client introduced themselves.
	ClientName *string `json:"client_name"`

	// Intent is the current goal of the user, e.g. "book" or "order status".
	Intent *string `json:"intent"`

	// PendingQuestions lists open questions to ask the client.
	PendingQuestions []string `json:"pending_questions"`
}

// NewBusinessState creates an empty state. An empty sessionID gets a random one.
func NewBusinessState(sessionID string) *BusinessState {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	return &BusinessState{
		AgentState:       *sgr.NewAgentState(sessionID),
		PendingQuestions: []string{},
	}
}

// NewSessionID returns a random session id.
func NewSessionID() string {
	return uuid.NewString()
}

var _ sgr.State = (*BusinessState)(nil)
