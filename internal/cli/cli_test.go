package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KulikovMichael/sgr-base-agent/agents/base"
	"github.com/KulikovMichael/sgr-base-agent/internal/tt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup writes a config file pointing traces into a temp dir and returns its path.
func setup(t *testing.T) (configPath, traceDir string) {
	t.Helper()
	dir := t.TempDir()
	traceDir = filepath.Join(dir, "executions")

	for _, name := range []string{
		"SGR_LLM_API_KEY", "LITELLM_API_KEY", "OPENAI_API_KEY",
		"SGR_TRACE_DIR", "SGR_EXECUTIONS_DIR",
		"SGR_SESSION_STORE_URL", "SGR_METRICS_ADDR", "SGR_TRACING_ENDPOINT",
		"SGR_AGENT_MAX_STEPS", "SGR_GATEWAY_MAX_ATTEMPTS", "SGR_GATEWAY_RETRY_DELAY",
		"SGR_LOGGING_FORMAT",
	} {
		t.Setenv(name, "")
	}

	configPath = filepath.Join(dir, "sgr.yaml")
	content := "llm:\n  api_key: test-key\n" +
		"gateway:\n  retry_delay: 0s\n" +
		"trace:\n  dir: " + traceDir + "\n" +
		"logging:\n  level: error\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath, traceDir
}

func execute(t *testing.T, opts *Options, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(opts)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunAndTraceShow(t *testing.T) {
	configPath, traceDir := setup(t)
	missingEnv := filepath.Join(t.TempDir(), ".env")

	backend := tt.NewMockBackend().
		AddJSON(tt.PlanFor(base.LookupInfo, "Client asks about their order.")).
		AddJSON(tt.ActionFor("Lookup by order key.", base.LookupInfoArgs{ContextKey: "order-42"})).
		AddJSON(tt.FinalPlan("Your order is on its way."))

	out, err := execute(t, &Options{backend: backend},
		"--config", configPath, "--env-file", missingEnv,
		"run", "--session", "demo-session", "Where is my order?")
	require.NoError(t, err)
	assert.Contains(t, out, "User: Where is my order?\n")
	assert.Contains(t, out, "Agent: Your order is on its way.\n")

	files, err := filepath.Glob(filepath.Join(traceDir, "demo-session_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, out, "Trace: "+files[0])

	type expected struct {
		contains []string
		errMsg   string
	}

	tests := []struct {
		name     string
		format   string
		expected expected
	}{
		{
			name:   "yaml",
			format: "yaml",
			expected: expected{contains: []string{
				"- timestamp:", "phase: planning", "tool: LookupInfo", "session_id: demo-session",
			}},
		},
		{
			name:   "json",
			format: "json",
			expected: expected{contains: []string{
				`"phase": "action"`, `"tool": "LookupInfo"`, `"context_key": "order-42"`,
			}},
		},
		{
			name:     "unknown format",
			format:   "xml",
			expected: expected{errMsg: `unknown format "xml"`},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, &Options{}, "trace", "show", files[0], "--format", tc.format)

			if tc.expected.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expected.errMsg)
				return
			}
			require.NoError(t, err)
			for _, s := range tc.expected.contains {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestRun_Errors(t *testing.T) {
	configPath, _ := setup(t)
	missingEnv := filepath.Join(t.TempDir(), ".env")

	type expected struct {
		errMsg string
	}

	tests := []struct {
		name     string
		backend  *tt.MockBackend
		args     []string
		expected expected
	}{
		{
			name:     "empty message",
			backend:  tt.NewMockBackend(),
			args:     []string{"run", "  "},
			expected: expected{errMsg: "message cannot be empty"},
		},
		{
			name:     "no message",
			backend:  tt.NewMockBackend(),
			args:     []string{"run"},
			expected: expected{errMsg: "requires at least 1 arg"},
		},
		{
			name: "action outside the agent",
			backend: tt.NewMockBackend().
				AddJSON(tt.PlanFor("DeleteClient", "Client wants out.")),
			args:     []string{"run", "delete me"},
			expected: expected{errMsg: "schema Planner"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"--config", configPath, "--env-file", missingEnv}, tc.args...)
			_, err := execute(t, &Options{backend: tc.backend}, args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expected.errMsg)
		})
	}
}

func TestStateShow_NotFound(t *testing.T) {
	configPath, _ := setup(t)

	_, err := execute(t, &Options{},
		"--config", configPath, "--env-file", filepath.Join(t.TempDir(), ".env"),
		"state", "show", "nobody")

	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "session nobody:"), err.Error())
}

func TestLoadConfig_MetricsAddrOverride(t *testing.T) {
	configPath, _ := setup(t)

	cfg, err := loadConfig(&Options{
		ConfigPath:  configPath,
		EnvFile:     filepath.Join(t.TempDir(), ".env"),
		MetricsAddr: "127.0.0.1:9464",
	})

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Addr)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
}
