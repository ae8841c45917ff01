package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/deep-research/internal/model"
)

// MaxGapQueries is the upper bound on research.max_gap_queries.
const MaxGapQueries = 5

// Config holds the full application configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Serper    SerperConfig    `yaml:"serper" mapstructure:"serper"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Browser   BrowserConfig   `yaml:"browser" mapstructure:"browser"`
	Research  ResearchConfig  `yaml:"research" mapstructure:"research"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Circuit   CircuitConfig   `yaml:"circuit" mapstructure:"circuit"`
	RateLimit RateLimitConfig `yaml:"ratelimit" mapstructure:"ratelimit"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// LLMConfig selects the text-generation provider and shared call settings.
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // "anthropic" or "openai"
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds settings for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// SerperConfig holds Serper.dev search settings.
type SerperConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Country     string `yaml:"country" mapstructure:"country"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// BrowserConfig configures the headless Chrome page reader.
type BrowserConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Bin       string `yaml:"bin" mapstructure:"bin"`
	TimeoutMs int    `yaml:"timeout_ms" mapstructure:"timeout_ms"`
	MaxChars  int    `yaml:"max_chars" mapstructure:"max_chars"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ResearchConfig holds default run parameters and section pipeline knobs.
type ResearchConfig struct {
	Depth          string   `yaml:"depth" mapstructure:"depth"`
	LookbackDays   int      `yaml:"lookback_days" mapstructure:"lookback_days"`
	Langs          []string `yaml:"langs" mapstructure:"langs"`
	KPerQuery      int      `yaml:"k_per_query" mapstructure:"k_per_query"`
	MaxQueries     int      `yaml:"max_queries" mapstructure:"max_queries"`
	EnableCritic   bool     `yaml:"enable_critic" mapstructure:"enable_critic"`
	MaxGapQueries  int      `yaml:"max_gap_queries" mapstructure:"max_gap_queries"`
	PageReads      int      `yaml:"page_reads" mapstructure:"page_reads"`
	SearchParallel int      `yaml:"search_parallel" mapstructure:"search_parallel"`
	FrameworksFile string   `yaml:"frameworks_file" mapstructure:"frameworks_file"`
}

// RunParams builds the immutable run parameters from the configured defaults.
func (r ResearchConfig) RunParams() model.RunParams {
	return model.RunParams{
		Depth:        r.Depth,
		LookbackDays: r.LookbackDays,
		Langs:        append([]string(nil), r.Langs...),
		KPerQuery:    r.KPerQuery,
		MaxQueries:   r.MaxQueries,
	}
}

// RetryConfig configures retries of external calls.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitConfig configures per-service circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// RateLimitConfig throttles outbound calls. Zero means unlimited.
type RateLimitConfig struct {
	LLMPerSec    float64 `yaml:"llm_per_sec" mapstructure:"llm_per_sec"`
	SearchPerSec float64 `yaml:"search_per_sec" mapstructure:"search_per_sec"`
	Burst        int     `yaml:"burst" mapstructure:"burst"`
}

// ServerConfig configures the progress streaming server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
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
	v.SetEnvPrefix("RESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.max_tokens", 8192)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("serper.country", "us")
	v.SetDefault("serper.timeout_secs", 20)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("browser.enabled", false)
	v.SetDefault("browser.timeout_ms", 15000)
	v.SetDefault("browser.max_chars", 200000)
	v.SetDefault("research.depth", "standard")
	v.SetDefault("research.lookback_days", 540)
	v.SetDefault("research.langs", []string{"en"})
	v.SetDefault("research.k_per_query", 6)
	v.SetDefault("research.max_queries", 12)
	v.SetDefault("research.enable_critic", true)
	v.SetDefault("research.max_gap_queries", 5)
	v.SetDefault("research.page_reads", 3)
	v.SetDefault("research.search_parallel", 4)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	v.SetDefault("ratelimit.burst", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks that the settings a command depends on are present.
// Modes: "run" and "serve" need a text-generation key and a search key;
// "frameworks" needs nothing beyond a well-formed config.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.LLM.Provider {
	case "anthropic", "openai":
	default:
		problems = append(problems, fmt.Sprintf("llm.provider %q is not supported", c.LLM.Provider))
	}
	if c.Research.KPerQuery <= 0 {
		problems = append(problems, "research.k_per_query must be positive")
	}
	if c.Research.MaxQueries <= 0 {
		problems = append(problems, "research.max_queries must be positive")
	}
	if c.Research.MaxGapQueries < 0 || c.Research.MaxGapQueries > MaxGapQueries {
		problems = append(problems, fmt.Sprintf("research.max_gap_queries must be between 0 and %d", MaxGapQueries))
	}

	switch mode {
	case "run", "serve":
		if c.LLM.Provider == "anthropic" && c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
		if c.LLM.Provider == "openai" && c.OpenAI.Key == "" {
			problems = append(problems, "openai.key is required")
		}
		if c.Serper.Key == "" && c.Jina.Key == "" {
			problems = append(problems, "serper.key or jina.key is required")
		}
	}
	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}

	if len(problems) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(problems, "; "))
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
