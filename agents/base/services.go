package base

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/KulikovMichael/sgr-base-agent/toolchain"
)

// LookupResult is returned by the LookupInfo mock.
type LookupResult struct {
	ContextKey string         `json:"context_key"`
	AsOf       string         `json:"as_of,omitempty"`
	Status     string         `json:"status"`
	Payload    map[string]any `json:"payload"`
}

type lookupRequest struct {
	ContextKey string    `json:"context_key"`
	AsOf       time.Time `json:"as_of"`
}

func lookup(_ context.Context, in lookupRequest) (LookupResult, error) {
	if in.ContextKey == "" {
		return LookupResult{}, errors.New("context_key must not be empty")
	}
	res := LookupResult{
		ContextKey: in.ContextKey,
		Status:     "ok",
		Payload:    map[string]any{"message": "Mock lookup result"},
	}
	if !in.AsOf.IsZero() {
		res.AsOf = in.AsOf.Format(time.DateOnly)
	}
	return res, nil
}

func update(_ context.Context, in UpdateRecordArgs) (string, error) {
	if in.Field == "" {
		return "", errors.New("field is required")
	}
	return fmt.Sprintf("Updated %s -> %s", in.Field, in.Value), nil
}

type finalizeRequest struct {
	Summary    string        `json:"summary"`
	FollowUpIn time.Duration `json:"follow_up_in"`
}

func finalize(_ context.Context, in finalizeRequest) (string, error) {
	if strings.Contains(strings.ToLower(in.Summary), "error") {
		return "", errors.New("cannot finalize: summary contains error keyword")
	}
	if in.FollowUpIn < 0 {
		return "", errors.New("follow_up_in must not be negative")
	}
	out := "Conversation closed with summary: " + in.Summary
	if in.FollowUpIn > 0 {
		out += fmt.Sprintf(" (follow-up in %s)", in.FollowUpIn)
	}
	return out, nil
}

// Services returns the mock services, one per action.
func Services() []sgr.Service {
	return []sgr.Service{
		toolchain.NewServiceFunc(LookupInfo, lookup),
		toolchain.NewServiceFunc(UpdateRecord, update),
		toolchain.NewServiceFunc(FinalizeConversation, finalize),
	}
}

// Registry returns a registry holding Services.
func Registry() *toolchain.Registry {
	return toolchain.NewRegistry(Services()...)
}
