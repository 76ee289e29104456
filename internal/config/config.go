package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Supabase   SupabaseConfig   `yaml:"supabase" mapstructure:"supabase"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Sources    SourcesConfig    `yaml:"sources" mapstructure:"sources"`
	Decision   DecisionConfig   `yaml:"decision" mapstructure:"decision"`
	Webhook    WebhookConfig    `yaml:"webhook" mapstructure:"webhook"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SupabaseConfig configures the Supabase Postgres connection.
type SupabaseConfig struct {
	DatabaseURL      string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns         int    `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns         int    `yaml:"min_conns" mapstructure:"min_conns"`
	QueryTimeoutSecs int    `yaml:"query_timeout_secs" mapstructure:"query_timeout_secs"`
}

// NotionConfig holds Notion API credentials.
type NotionConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// AnthropicConfig holds Anthropic API settings for the ask command.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SourcesConfig locates the container mapping and the local fallback store.
type SourcesConfig struct {
	MappingPath string `yaml:"mapping_path" mapstructure:"mapping_path"`
	LocalPath   string `yaml:"local_path" mapstructure:"local_path"`
}

// DecisionConfig tunes the decision engine.
type DecisionConfig struct {
	Threshold        float64 `yaml:"threshold" mapstructure:"threshold"`
	DefaultContainer string  `yaml:"default_container" mapstructure:"default_container"`
}

// WebhookConfig tunes webhook event processing.
type WebhookConfig struct {
	Secret          string `yaml:"secret" mapstructure:"secret"`
	MaxAttempts     int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelaySecs   int    `yaml:"base_delay_secs" mapstructure:"base_delay_secs"`
	DeadLetterLimit int    `yaml:"dead_letter_limit" mapstructure:"dead_letter_limit"`
}

// MonitoringConfig tunes health probes and threshold alerts.
type MonitoringConfig struct {
	AlertWebhookURL       string  `yaml:"alert_webhook_url" mapstructure:"alert_webhook_url"`
	ProbeTimeoutSecs      int     `yaml:"probe_timeout_secs" mapstructure:"probe_timeout_secs"`
	CheckIntervalSecs     int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	DontKnowRateThreshold float64 `yaml:"dont_know_rate_threshold" mapstructure:"dont_know_rate_threshold"`
	FailureRateThreshold  float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	DeadLetterThreshold   int     `yaml:"dead_letter_threshold" mapstructure:"dead_letter_threshold"`
	MinSamples            int     `yaml:"min_samples" mapstructure:"min_samples"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port                int `yaml:"port" mapstructure:"port"`
	ShutdownTimeoutSecs int `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRUSTGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout_secs", 15)
	v.SetDefault("supabase.max_conns", 10)
	v.SetDefault("supabase.min_conns", 2)
	v.SetDefault("supabase.query_timeout_secs", 10)
	v.SetDefault("notion.rate_limit", 3.0)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("sources.mapping_path", "sources.yaml")
	v.SetDefault("sources.local_path", "trustgate.db")
	v.SetDefault("decision.threshold", 0.85)
	v.SetDefault("decision.default_container", "records")
	v.SetDefault("webhook.max_attempts", 3)
	v.SetDefault("webhook.base_delay_secs", 2)
	v.SetDefault("webhook.dead_letter_limit", 100)
	v.SetDefault("monitoring.probe_timeout_secs", 5)
	v.SetDefault("monitoring.check_interval_secs", 60)
	v.SetDefault("monitoring.dont_know_rate_threshold", 0.5)
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.dead_letter_threshold", 10)
	v.SetDefault("monitoring.min_samples", 5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields the named command depends on. Shared bounds
// are checked for every command; credential requirements differ per mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Decision.Threshold <= 0 || c.Decision.Threshold > 1 {
		problems = append(problems, "decision.threshold must be in (0, 1]")
	}
	if c.Webhook.MaxAttempts < 1 || c.Webhook.MaxAttempts > 10 {
		problems = append(problems, "webhook.max_attempts must be between 1 and 10")
	}
	if c.Webhook.BaseDelaySecs < 0 {
		problems = append(problems, "webhook.base_delay_secs must be >= 0")
	}
	if c.Supabase.MaxConns < c.Supabase.MinConns {
		problems = append(problems, "supabase.max_conns must be >= supabase.min_conns")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "ask":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	case "query", "status":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
