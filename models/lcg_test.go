package models

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel implements llms.Model and records every call.
type fakeModel struct {
	response *llms.ContentResponse
	err      error

	messages [][]llms.MessageContent
	options  []llms.CallOptions
}

func (f *fakeModel) GenerateContent(
	_ context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	f.messages = append(f.messages, messages)
	f.options = append(f.options, opts)
	return f.response, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func textOf(t *testing.T, m llms.MessageContent) string {
	t.Helper()
	require.Len(t, m.Parts, 1)
	part, ok := m.Parts[0].(llms.TextContent)
	require.True(t, ok)
	return part.Text
}

var testSchema = sgr.NewPlannerSchema("LookupInfo")

func TestLCGBackend_Complete(t *testing.T) {
	model := &fakeModel{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:        `{"ok":true}`,
			GenerationInfo: map[string]any{"PromptTokens": 12, "CompletionTokens": 5},
		}},
	}}
	backend := NewLCGBackend(model)

	raw, err := backend.Complete(context.Background(), sgr.CompletionRequest{
		Model: "gpt-4o-mini",
		Messages: []sgr.Message{
			{Role: sgr.RoleSystem, Content: "You are an SGR Agent."},
			{Role: sgr.RoleUser, Content: "hello"},
		},
		ResponseSchema: testSchema,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, raw)

	require.Len(t, model.options, 1)
	assert.True(t, model.options[0].JSONMode)
	assert.Equal(t, "gpt-4o-mini", model.options[0].Model)

	sent := model.messages[0]
	require.Len(t, sent, 3)
	assert.Equal(t, llms.ChatMessageTypeSystem, sent[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, sent[1].Role)
	assert.Equal(t, llms.ChatMessageTypeSystem, sent[2].Role)
	assert.Contains(t, textOf(t, sent[2]), "next_step_tool_name")
	assert.Contains(t, textOf(t, sent[2]), "Planner")
}

func TestLCGBackend_Errors(t *testing.T) {
	type input struct {
		model *fakeModel
	}

	type expected struct {
		err error
	}

	upstream := errors.New("429 rate limited")

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "provider error",
			input:    input{model: &fakeModel{err: upstream}},
			expected: expected{err: upstream},
		},
		{
			name:     "no choices",
			input:    input{model: &fakeModel{response: &llms.ContentResponse{}}},
			expected: expected{err: ErrEmptyResponse},
		},
		{
			name:     "nil response",
			input:    input{model: &fakeModel{}},
			expected: expected{err: ErrEmptyResponse},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLCGBackend(tc.input.model).Complete(context.Background(), sgr.CompletionRequest{})

			assert.ErrorIs(t, err, tc.expected.err)
		})
	}
}

func TestLCGBackend_ClientPerBaseURL(t *testing.T) {
	var created []string
	backend := NewLCGBackendWithFactory(func(baseURL string) (llms.Model, error) {
		created = append(created, baseURL)
		if baseURL == "bad" {
			return nil, errors.New("invalid url")
		}
		return &fakeModel{response: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "{}"}},
		}}, nil
	})
	ctx := context.Background()

	for _, url := range []string{"", "http://proxy:4000", "", "http://proxy:4000"} {
		_, err := backend.Complete(ctx, sgr.CompletionRequest{BaseURL: url})
		require.NoError(t, err)
	}
	_, err := backend.Complete(ctx, sgr.CompletionRequest{BaseURL: "bad"})

	assert.Error(t, err)
	assert.Equal(t, []string{"", "http://proxy:4000", "bad"}, created)
}

func TestConvertMessages(t *testing.T) {
	messages := []sgr.Message{
		{Role: sgr.RoleUser, Content: "check order 42"},
		{
			Role:    sgr.RoleAssistant,
			Content: "Need the order.",
			ToolCall: &sgr.ToolCall{
				Name:      "Planner",
				Arguments: map[string]any{"next_step_tool_name": "LookupInfo"},
			},
		},
		{Role: sgr.RoleTool, Name: "LookupInfo", Content: `{"status":"ok"}`},
	}

	out, err := ConvertMessages(messages, nil)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, llms.ChatMessageTypeAI, out[1].Role)
	assert.Equal(t,
		"Need the order.\n\nCalled Planner with: {\"next_step_tool_name\":\"LookupInfo\"}",
		textOf(t, out[1]))
	assert.Equal(t, llms.ChatMessageTypeHuman, out[2].Role)
	assert.Equal(t, `Result of LookupInfo: {"status":"ok"}`, textOf(t, out[2]))

	_, err = ConvertMessages([]sgr.Message{{Role: "narrator"}}, nil)
	assert.Error(t, err)
}

func TestSchemaInstruction(t *testing.T) {
	text, err := SchemaInstruction(testSchema)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "Respond with a single JSON object of type Planner"))
	assert.Contains(t, text, `"FinalAnswer"`)
}

func TestTokenExtraction(t *testing.T) {
	tests := []struct {
		name   string
		info   map[string]any
		input  int
		output int
	}{
		{name: "openai", info: map[string]any{"PromptTokens": 10, "CompletionTokens": 3}, input: 10, output: 3},
		{name: "anthropic", info: map[string]any{"InputTokens": int64(7), "OutputTokens": int32(2)}, input: 7, output: 2},
		{name: "google", info: map[string]any{"input_tokens": float64(4), "output_tokens": float32(1)}, input: 4, output: 1},
		{name: "unknown types", info: map[string]any{"PromptTokens": "12"}, input: 0, output: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.input, extractInputTokens(tc.info))
			assert.Equal(t, tc.output, extractOutputTokens(tc.info))
		})
	}
}

func TestOpenAIBackend_Live(t *testing.T) {
	apiKey := os.Getenv("SGR_TEST_OPENAI_KEY")
	if apiKey == "" {
		t.Skip("SGR_TEST_OPENAI_KEY not set")
	}

	backend := NewOpenAIBackend(apiKey)
	raw, err := backend.Complete(context.Background(), sgr.CompletionRequest{
		Model: "gpt-4o-mini",
		Messages: []sgr.Message{
			{Role: sgr.RoleUser, Content: "Say hello and finish."},
		},
		ResponseSchema: testSchema,
	})
	require.NoError(t, err)

	_, err = testSchema.Parse(raw)
	assert.NoError(t, err)
}
