// Package models adapts langchaingo chat models to the sgr.Backend boundary.
package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/KulikovMichael/sgr-base-agent/metrics"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// ErrEmptyResponse is returned when the provider answers without any choice.
var ErrEmptyResponse = errors.New("model returned no choices")

// ClientFactory creates a client for a base URL. An empty URL means the provider default.
type ClientFactory func(baseURL string) (llms.Model, error)

// LCGBackend implements sgr.Backend on top of langchaingo models.
//
// Requests run in JSON mode and carry the response schema as a trailing system message.
// Clients are created on first use per base URL and reused afterwards.
//
// Example usage:
//
//	backend := models.NewOpenAIBackend(apiKey).WithTimeout(time.Minute)
//	gw := gateway.New(backend, "gpt-4o-mini").WithBaseURL("http://localhost:4000")
type LCGBackend struct {
	factory ClientFactory
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	clients map[string]llms.Model
}

// NewLCGBackend wraps a single llms.Model. Request base URLs are ignored.
func NewLCGBackend(model llms.Model) *LCGBackend {
	return NewLCGBackendWithFactory(func(string) (llms.Model, error) {
		return model, nil
	})
}

// NewLCGBackendWithFactory creates a backend that builds clients with factory.
func NewLCGBackendWithFactory(factory ClientFactory) *LCGBackend {
	return &LCGBackend{
		factory: factory,
		logger:  zap.NewNop(),
		clients: make(map[string]llms.Model),
	}
}

// NewOpenAIBackend creates a backend for OpenAI-compatible endpoints, LiteLLM proxies
// included.
func NewOpenAIBackend(apiKey string) *LCGBackend {
	return NewLCGBackendWithFactory(func(baseURL string) (llms.Model, error) {
		opts := []openai.Option{openai.WithToken(apiKey)}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		return openai.New(opts...)
	})
}

// WithTimeout bounds every request. Zero means no bound. Returns the backend for chaining.
func (b *LCGBackend) WithTimeout(timeout time.Duration) *LCGBackend {
	b.timeout = timeout
	return b
}

// WithLogger sets the logger. Returns the backend for chaining.
func (b *LCGBackend) WithLogger(logger *zap.Logger) *LCGBackend {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Complete implements sgr.Backend.
func (b *LCGBackend) Complete(ctx context.Context, req sgr.CompletionRequest) (string, error) {
	client, err := b.client(req.BaseURL)
	if err != nil {
		return "", err
	}

	messages, err := ConvertMessages(req.Messages, req.ResponseSchema)
	if err != nil {
		return "", err
	}

	opts := []llms.CallOption{llms.WithJSONMode()}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := client.GenerateContent(ctx, messages, opts...)
	duration := time.Since(start)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	choice := resp.Choices[0]
	input, output := 0, 0
	if choice.GenerationInfo != nil {
		input = extractInputTokens(choice.GenerationInfo)
		output = extractOutputTokens(choice.GenerationInfo)
	}
	metrics.LLMTokensTotal.WithLabelValues("input").Add(float64(input))
	metrics.LLMTokensTotal.WithLabelValues("output").Add(float64(output))

	b.logger.Debug("ModelCall",
		zap.String("component", "LCGBackend"),
		zap.String("model", req.Model),
		zap.Duration("duration", duration),
		zap.Int("input_tokens", input),
		zap.Int("output_tokens", output),
	)
	return choice.Content, nil
}

func (b *LCGBackend) client(baseURL string) (llms.Model, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.clients[baseURL]; ok {
		return c, nil
	}
	c, err := b.factory(baseURL)
	if err != nil {
		return nil, fmt.Errorf("create model client: %w", err)
	}
	b.clients[baseURL] = c
	return c, nil
}

// ConvertMessages maps the conversation to langchaingo messages and appends the schema
// instruction when s is not nil.
//
// Assistant tool calls are rendered as text followed by the call, and tool results as
// labelled human turns: the provider tool role requires call ids the history does not
// keep.
func ConvertMessages(messages []sgr.Message, s sgr.Schema) ([]llms.MessageContent, error) {
	out := make([]llms.MessageContent, 0, len(messages)+1)
	for _, m := range messages {
		switch m.Role {
		case sgr.RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))
		case sgr.RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case sgr.RoleAssistant:
			text := m.Content
			if m.ToolCall != nil {
				args, err := json.Marshal(m.ToolCall.Arguments)
				if err != nil {
					return nil, fmt.Errorf("encode %s call: %w", m.ToolCall.Name, err)
				}
				text = strings.TrimSpace(text + "\n\nCalled " + m.ToolCall.Name + " with: " + string(args))
			}
			out = append(out, llms.TextParts(llms.ChatMessageTypeAI, text))
		case sgr.RoleTool:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, "Result of "+m.Name+": "+m.Content))
		default:
			return nil, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}

	if s != nil {
		instruction, err := SchemaInstruction(s)
		if err != nil {
			return nil, err
		}
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, instruction))
	}
	return out, nil
}

// SchemaInstruction is the system text asking for a response that follows s.
func SchemaInstruction(s sgr.Schema) (string, error) {
	def, err := json.Marshal(s.Definition())
	if err != nil {
		return "", fmt.Errorf("encode schema %s: %w", s.Name(), err)
	}
	return fmt.Sprintf(
		"Respond with a single JSON object of type %s that validates against this JSON Schema. "+
			"Do not add any text outside the JSON object.\n%s",
		s.Name(), def,
	), nil
}

// extractInputTokens extracts input/prompt token count from GenerationInfo.
// Handles different key names used by different providers.
func extractInputTokens(info map[string]any) int {
	// OpenAI / Ollama / Google (compat)
	if v := getIntFromMap(info, "PromptTokens"); v > 0 {
		return v
	}
	// Anthropic
	if v := getIntFromMap(info, "InputTokens"); v > 0 {
		return v
	}
	// Google / Bedrock
	return getIntFromMap(info, "input_tokens")
}

// extractOutputTokens extracts output/completion token count from GenerationInfo.
func extractOutputTokens(info map[string]any) int {
	if v := getIntFromMap(info, "CompletionTokens"); v > 0 {
		return v
	}
	if v := getIntFromMap(info, "OutputTokens"); v > 0 {
		return v
	}
	return getIntFromMap(info, "output_tokens")
}

// getIntFromMap extracts an int value from a map, handling various numeric types.
func getIntFromMap(m map[string]any, key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return 0
	}
}

var _ sgr.Backend = (*LCGBackend)(nil)
