package tracelog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
)

func testPayload(analysis string) sgr.Reasoning {
	return sgr.Reasoning{
		SituationAnalysis: analysis,
		Trace:             sgr.DecisionTrace{Confidence: 0.8, Risks: []string{"No context"}},
	}
}

func mustRecord(t *testing.T, session string, phase Phase, tool string, p sgr.Payload) Record {
	t.Helper()
	rec, err := NewRecord(session, phase, tool, p)
	require.NoError(t, err)
	return rec
}

func TestNewRecord(t *testing.T) {
	answer := "done"
	plan := sgr.Plan{
		Reasoning:        testPayload("Checking the log."),
		TentativePlan:    []string{"finish"},
		NextStepToolName: sgr.FinalAnswer,
		AnswerToUser:     &answer,
	}

	rec := mustRecord(t, "s1", PhasePlanning, sgr.PlannerToolName, plan)

	assert.Equal(t, "s1", rec.SessionID)
	assert.Equal(t, PhasePlanning, rec.Phase)
	assert.Equal(t, "Planner", rec.Tool)
	assert.Equal(t, "Checking the log.", rec.SituationAnalysis)
	require.NotNil(t, rec.Trace)
	assert.Equal(t, 0.8, rec.Trace.Confidence)
	assert.Equal(t, "FinalAnswer", rec.Schema["next_step_tool_name"])
	assert.Equal(t, "done", rec.Schema["answer_to_user"])
	assert.Equal(t, time.UTC, rec.Timestamp.Location())
}

func TestFileSink_WritesSessionFile(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)

	err := sink.Append(context.Background(),
		mustRecord(t, "session-42", PhasePlanning, "TestTool", testPayload("Need to check logging.")))
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "session-42_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	records, err := ReadFile(files[0])
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "TestTool", records[0].Tool)
	assert.Equal(t, "Need to check logging.", records[0].Schema["situation_analysis"])
	assert.Equal(t, []string{"No context"}, records[0].Trace.Risks)
}

func TestFileSink_AppendsAccumulate(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)
	ctx := context.Background()

	for i := range 3 {
		phase := PhasePlanning
		if i%2 == 1 {
			phase = PhaseAction
		}
		require.NoError(t, sink.Append(ctx, mustRecord(t, "s", phase, fmt.Sprintf("tool-%d", i), testPayload("a"))))
	}

	records, err := ReadFile(sink.Path("s"))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "tool-0", records[0].Tool)
	assert.Equal(t, PhaseAction, records[1].Phase)
	assert.Equal(t, "tool-2", records[2].Tool)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileSink_CorruptContentTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewFileSink(dir).WithLogger(zap.New(core))

	path := sink.Path("broken")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	require.NoError(t, sink.Append(context.Background(), mustRecord(t, "broken", PhaseAction, "X", testPayload("b"))))

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "X", records[0].Tool)
	assert.Equal(t, 1, logs.FilterMessage("TraceFileUnreadable").Len())
}

func TestFileSink_ConcurrentAppends(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)
	ctx := context.Background()

	const perSession = 20
	sessions := []string{"a", "b"}

	var wg sync.WaitGroup
	for _, session := range sessions {
		for i := range perSession {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec, err := NewRecord(session, PhaseAction, fmt.Sprintf("t%d", i), testPayload("c"))
				assert.NoError(t, err)
				assert.NoError(t, sink.Append(ctx, rec))
			}()
		}
	}
	wg.Wait()

	for _, session := range sessions {
		records, err := ReadFile(sink.Path(session))
		require.NoError(t, err)
		assert.Len(t, records, perSession)
		for _, r := range records {
			assert.Equal(t, session, r.SessionID)
		}
	}
}

func TestPathRegistry_OnePathPerSession(t *testing.T) {
	r := NewPathRegistry("/tmp/exec")
	calls := 0
	r.now = func() time.Time {
		calls++
		return time.Date(2026, 1, 20, 10, 30, calls, 0, time.UTC)
	}

	first := r.Resolve("s1")
	second := r.Resolve("s1")
	other := r.Resolve("s2")

	assert.Equal(t, filepath.Join("/tmp/exec", "s1_20260120T103001.json"), first)
	assert.Equal(t, first, second)
	assert.Equal(t, filepath.Join("/tmp/exec", "s2_20260120T103002.json"), other)
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, Record{Tool: "A"}))
	require.NoError(t, sink.Append(ctx, Record{Tool: "B"}))

	records := sink.Records()
	require.Len(t, records, 2)
	records[0].Tool = "mutated"
	assert.Equal(t, "A", sink.Records()[0].Tool)
	assert.NoError(t, Discard.Append(ctx, Record{}))
}

func TestWriteYAMLAndJSON(t *testing.T) {
	records := []Record{mustRecord(t, "s", PhasePlanning, "Planner", testPayload("yaml check"))}

	var yamlBuf bytes.Buffer
	require.NoError(t, WriteYAML(&yamlBuf, records))

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Planner", decoded[0]["tool"])
	assert.Equal(t, "yaml check", decoded[0]["situation_analysis"])

	var jsonBuf bytes.Buffer
	require.NoError(t, WriteJSON(&jsonBuf, nil))
	assert.Equal(t, "[]\n", jsonBuf.String())
}
