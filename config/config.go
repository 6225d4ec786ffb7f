package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config describes the application configuration loaded from YAML, .env and ENV.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Trace   TraceConfig   `mapstructure:"trace"`
	Session SessionConfig `mapstructure:"session"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// LLMConfig describes the model backend.
type LLMConfig struct {
	APIKey  string        `mapstructure:"api_key"`  // LITELLM_API_KEY or OPENAI_API_KEY
	Model   string        `mapstructure:"model"`    // MODEL_NAME
	BaseURL string        `mapstructure:"base_url"` // LITELLM_BASE_URL, optional proxy
	Timeout time.Duration `mapstructure:"timeout"`  // per request
}

// GatewayConfig controls structured generation retries.
type GatewayConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// AgentConfig describes the session loop.
type AgentConfig struct {
	MaxSteps int `mapstructure:"max_steps"`
}

// TraceConfig controls the execution trace log.
type TraceConfig struct {
	Dir string `mapstructure:"dir"` // SGR_EXECUTIONS_DIR
}

// SessionConfig selects the session store.
type SessionConfig struct {
	StoreURL string        `mapstructure:"store_url"` // memory, redis://..., postgres://...
	TTL      time.Duration `mapstructure:"ttl"`
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the endpoint
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Endpoint string `mapstructure:"endpoint"` // empty disables export
	Insecure bool   `mapstructure:"insecure"`
}

// LoadDotEnv loads variables from the given .env files (default ".env") without
// overriding variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from the provided path or from an optional sgr.yaml in the
// working directory. Environment variables override file values (prefix: SGR_, dots
// replaced with underscores); the variable names of the LiteLLM deployment are honoured too.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SGR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path == "" {
		v.SetConfigName("sgr")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindEnv maps keys to explicit variable names, in order of precedence.
func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"llm.api_key":  {"SGR_LLM_API_KEY", "LITELLM_API_KEY", "OPENAI_API_KEY"},
		"llm.model":    {"SGR_LLM_MODEL", "MODEL_NAME"},
		"llm.base_url": {"SGR_LLM_BASE_URL", "LITELLM_BASE_URL"},
		"trace.dir":    {"SGR_TRACE_DIR", "SGR_EXECUTIONS_DIR"},
	}
	for key, names := range bindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults populates sensible defaults for optional fields.
func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("gateway.max_attempts", 3)
	v.SetDefault("gateway.retry_delay", time.Second)

	v.SetDefault("agent.max_steps", 8)

	v.SetDefault("trace.dir", "executions")

	v.SetDefault("session.store_url", "memory")
	v.SetDefault("session.ttl", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("metrics.addr", "")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return errors.New("llm.api_key must be set (LITELLM_API_KEY or OPENAI_API_KEY)")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.Timeout < 0 {
		return errors.New("llm.timeout must be >= 0")
	}
	if c.Gateway.MaxAttempts <= 0 {
		return errors.New("gateway.max_attempts must be > 0")
	}
	if c.Gateway.RetryDelay < 0 {
		return errors.New("gateway.retry_delay must be >= 0")
	}
	if c.Agent.MaxSteps <= 0 {
		return errors.New("agent.max_steps must be > 0")
	}
	if strings.TrimSpace(c.Trace.Dir) == "" {
		return errors.New("trace.dir must be set")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
