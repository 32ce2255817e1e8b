// Package config provides configuration management for IncidentOps.
//
// Values are resolved in order: defaults, optional config file, environment.
// Environment variables use the INCIDENTOPS_ prefix (INCIDENTOPS_LOG_FILE,
// INCIDENTOPS_AUDIT_BACKEND, ...). The LLM keys also honour OPENAI_API_KEY,
// USE_REAL_OPENAI and GEMINI_API_KEY.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Audit backends.
const (
	AuditBackendFile     = "file"
	AuditBackendMemory   = "memory"
	AuditBackendPostgres = "postgres"
)

// LLM providers.
const (
	ProviderMock   = "mock"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Event sinks.
const (
	EventsNone     = "none"
	EventsLog      = "log"
	EventsMemory   = "memory"
	EventsRedpanda = "redpanda"
	EventsPubSub   = "pubsub"
)

// Config holds the application configuration.
type Config struct {
	// LogFile is the log file scanned for alerts.
	LogFile string `mapstructure:"log_file"`
	// LogLevel controls logger verbosity (debug, info, error).
	LogLevel string `mapstructure:"log_level"`

	Audit  AuditConfig  `mapstructure:"audit"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Events EventsConfig `mapstructure:"events"`
}

// AuditConfig selects where audit entries are persisted.
type AuditConfig struct {
	Backend     string `mapstructure:"backend"`
	File        string `mapstructure:"file"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// LLMConfig configures the text generator.
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	// UseReal must be true for a real provider to be contacted.
	UseReal      bool    `mapstructure:"use_real"`
	OpenAIAPIKey string  `mapstructure:"openai_api_key"`
	GeminiAPIKey string  `mapstructure:"gemini_api_key"`
	RateLimit    float64 `mapstructure:"rate_limit"`
	Burst        int     `mapstructure:"burst"`
	PromptsFile  string  `mapstructure:"prompts_file"`
}

// EventsConfig selects where stage events are published.
type EventsConfig struct {
	Sink            string   `mapstructure:"sink"`
	RedpandaBrokers []string `mapstructure:"redpanda_brokers"`
	PubSubProject   string   `mapstructure:"pubsub_project"`
	PubSubTopic     string   `mapstructure:"pubsub_topic"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_file", "data/sample_logs.txt")
	v.SetDefault("log_level", "info")

	v.SetDefault("audit.backend", AuditBackendFile)
	v.SetDefault("audit.file", "data/output_log.json")
	v.SetDefault("audit.postgres_dsn", "")

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.use_real", false)
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.rate_limit", 2.0)
	v.SetDefault("llm.burst", 1)
	v.SetDefault("llm.prompts_file", "")

	v.SetDefault("events.sink", EventsLog)
	v.SetDefault("events.redpanda_brokers", []string{})
	v.SetDefault("events.pubsub_project", "")
	v.SetDefault("events.pubsub_topic", "incidentops-stages")
}

// Load reads configuration from defaults, the optional file at path and the environment.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("INCIDENTOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names used by existing deployments.
	_ = v.BindEnv("llm.openai_api_key", "INCIDENTOPS_LLM_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.use_real", "INCIDENTOPS_LLM_USE_REAL", "USE_REAL_OPENAI")
	_ = v.BindEnv("llm.gemini_api_key", "INCIDENTOPS_LLM_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("audit.postgres_dsn", "INCIDENTOPS_AUDIT_POSTGRES_DSN", "POSTGRES_DSN")
	_ = v.BindEnv("events.redpanda_brokers", "INCIDENTOPS_EVENTS_REDPANDA_BROKERS", "REDPANDA_BROKERS")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Events.RedpandaBrokers = splitList(cfg.Events.RedpandaBrokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad loads configuration and panics on error.
// This is useful in main() where configuration errors should be fatal.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks enumerated values and backend prerequisites.
func (c *Config) Validate() error {
	switch c.Audit.Backend {
	case AuditBackendFile:
		if c.Audit.File == "" {
			return fmt.Errorf("audit.file is required for the file backend")
		}
	case AuditBackendMemory:
	case AuditBackendPostgres:
		if c.Audit.PostgresDSN == "" {
			return fmt.Errorf("audit.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown audit backend %q", c.Audit.Backend)
	}

	switch c.LLM.Provider {
	case ProviderMock, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	switch c.Events.Sink {
	case EventsNone, EventsLog, EventsMemory:
	case EventsRedpanda:
		if len(c.Events.RedpandaBrokers) == 0 {
			return fmt.Errorf("events.redpanda_brokers is required for the redpanda sink")
		}
	case EventsPubSub:
		if c.Events.PubSubProject == "" || c.Events.PubSubTopic == "" {
			return fmt.Errorf("events.pubsub_project and events.pubsub_topic are required for the pubsub sink")
		}
	default:
		return fmt.Errorf("unknown events sink %q", c.Events.Sink)
	}
	return nil
}

// LLMEnabled reports whether a real provider should be contacted.
// Mirrors the mock-by-default behaviour: a key and an explicit opt-in are both required.
func (c *Config) LLMEnabled() bool {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		return c.LLM.UseReal && c.LLM.OpenAIAPIKey != ""
	case ProviderGemini:
		return c.LLM.UseReal && c.LLM.GeminiAPIKey != ""
	}
	return false
}

// splitList expands comma-separated entries, which is how env vars arrive.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
