package sgr

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Role is the author of a chat history entry.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single conversation turn.
//
// User entries carry Content only. Assistant entries carry the rationale in Content and the
// chosen call in ToolCall. Tool entries carry the tool Name and its textual result.
type Message struct {
	Role     Role      `json:"role" yaml:"role"`
	Content  string    `json:"content" yaml:"content"`
	Name     string    `json:"name,omitempty" yaml:"name,omitempty"`
	ToolCall *ToolCall `json:"tool_call,omitempty" yaml:"tool_call,omitempty"`
}

// ToolCall records a call made by the assistant.
type ToolCall struct {
	Name      string         `json:"name" yaml:"name"`
	Arguments map[string]any `json:"arguments" yaml:"arguments"`
}

// State is the base contract the orchestrator uses. Domain states embed [AgentState] and
// get the implementation for free.
type State interface {
	Base() *AgentState
}

// AgentState is the conversation record of one session.
//
// ChatHistory is append-only and only grows through the Add* methods. AgentState is not
// safe for concurrent use; one session is processed by one goroutine at a time.
type AgentState struct {
	// SessionID must not change after creation.
	SessionID string `json:"session_id"`

	ChatHistory []Message `json:"chat_history"`

	// IsTaskCompleted is a caller-facing signal. The step loop never reads or sets it.
	IsTaskCompleted bool `json:"is_task_completed"`

	// LastToolResult is overwritten by every AddToolResult call; nil until the first one.
	LastToolResult *string `json:"last_tool_result"`
}

// NewAgentState creates an empty state for the session.
func NewAgentState(sessionID string) *AgentState {
	return &AgentState{
		SessionID:   sessionID,
		ChatHistory: []Message{},
	}
}

// Base implements State.
func (s *AgentState) Base() *AgentState {
	return s
}

// AddUserMessage appends a user turn.
func (s *AgentState) AddUserMessage(content string) {
	s.ChatHistory = append(s.ChatHistory, Message{Role: RoleUser, Content: content})
}

// AddAssistantToolCall appends the assistant's chosen call with its rationale.
//
// args is normalized through JSON so that the stored value is exactly what a
// serialize/deserialize round trip yields.
func (s *AgentState) AddAssistantToolCall(toolName string, args any, rationale string) error {
	normalized, err := ToArguments(args)
	if err != nil {
		return fmt.Errorf("normalize %s arguments: %w", toolName, err)
	}
	s.ChatHistory = append(s.ChatHistory, Message{
		Role:    RoleAssistant,
		Content: rationale,
		ToolCall: &ToolCall{
			Name:      toolName,
			Arguments: normalized,
		},
	})
	return nil
}

// AddToolResult appends a tool turn and updates LastToolResult.
func (s *AgentState) AddToolResult(toolName, result string) {
	s.ChatHistory = append(s.ChatHistory, Message{Role: RoleTool, Name: toolName, Content: result})
	s.LastToolResult = &result
}

// History returns a copy of the chat history.
func (s *AgentState) History() []Message {
	out := make([]Message, len(s.ChatHistory))
	copy(out, s.ChatHistory)
	return out
}

// ToArguments converts v into a JSON object map.
func ToArguments(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// EncodeState serializes a state, including any domain fields, into its canonical text
// form: JSON indented with two spaces, HTML characters left unescaped.
func EncodeState(s State) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeState restores a state produced by EncodeState into into.
func DecodeState(data []byte, into State) error {
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if into.Base().ChatHistory == nil {
		into.Base().ChatHistory = []Message{}
	}
	return nil
}
