// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.shoptalk/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidTimeout indicates the model timeout is out of range.
	ErrInvalidTimeout = errors.New("invalid model timeout")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidPort indicates the HTTP listen port is out of range.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidRateLimit indicates the rate limit settings are out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider            string  `mapstructure:"provider" json:"provider"`     // "googleai" (default), "openai", "ollama"
	ModelName           string  `mapstructure:"model_name" json:"model_name"` // bare model identifier, e.g. "gemini-2.5-flash"
	Temperature         float64 `mapstructure:"temperature" json:"temperature"`
	ModelTimeoutSeconds int     `mapstructure:"model_timeout_seconds" json:"model_timeout_seconds"`

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// HTTP server configuration (serve mode)
	Host        string   `mapstructure:"host" json:"host"`
	Port        int      `mapstructure:"port" json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`

	// Per-client rate limiting (requests per second and burst)
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" json:"rate_limit_burst"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level" json:"log_level"` // debug, info, warn, error
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Configuration directory: ~/.shoptalk/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".shoptalk")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	// Read configuration file (if exists)
	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Fail fast on bad values
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults. The low temperature keeps tool selection deterministic.
	viper.SetDefault("provider", ProviderGoogleAI)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("temperature", 0.1)
	viper.SetDefault("model_timeout_seconds", 30)

	// Ollama defaults
	viper.SetDefault("ollama_host", "http://localhost:11434")

	// HTTP server defaults
	viper.SetDefault("host", "127.0.0.1")
	viper.SetDefault("port", 8080)
	viper.SetDefault("cors_origins", []string{"http://localhost:5173"})

	// Rate limiting defaults
	viper.SetDefault("rate_limit_rps", 5.0)
	viper.SetDefault("rate_limit_burst", 10)

	// Logging defaults
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)
}

// bindEnvVariables binds environment variable overrides explicitly.
// API keys (GEMINI_API_KEY, OPENAI_API_KEY) are read directly by the
// Genkit plugins, not via Viper.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "SHOPTALK_PROVIDER")
	mustBind("model_name", "SHOPTALK_MODEL_NAME")
	mustBind("temperature", "SHOPTALK_TEMPERATURE")
	mustBind("model_timeout_seconds", "SHOPTALK_MODEL_TIMEOUT_SECONDS")
	mustBind("ollama_host", "SHOPTALK_OLLAMA_HOST")
	mustBind("host", "SHOPTALK_HOST")
	mustBind("port", "SHOPTALK_PORT")
	mustBind("cors_origins", "SHOPTALK_CORS_ORIGINS")
	mustBind("rate_limit_rps", "SHOPTALK_RATE_LIMIT_RPS")
	mustBind("rate_limit_burst", "SHOPTALK_RATE_LIMIT_BURST")
	mustBind("log_level", "SHOPTALK_LOG_LEVEL")
	mustBind("log_json", "SHOPTALK_LOG_JSON")
}

// Validate checks all configuration values, collecting every violation.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	var errs []error

	switch c.Provider {
	case ProviderGoogleAI, ProviderOpenAI, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("%w: %q (must be one of googleai, openai, ollama)", ErrInvalidProvider, c.Provider))
	}

	if c.ModelName == "" {
		errs = append(errs, fmt.Errorf("%w: must not be empty", ErrInvalidModelName))
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%w: %g (must be between 0.0 and 2.0)", ErrInvalidTemperature, c.Temperature))
	}

	if c.ModelTimeoutSeconds <= 0 || c.ModelTimeoutSeconds > 600 {
		errs = append(errs, fmt.Errorf("%w: %d seconds (must be between 1 and 600)", ErrInvalidTimeout, c.ModelTimeoutSeconds))
	}

	if c.Provider == ProviderOllama && c.OllamaHost == "" {
		errs = append(errs, fmt.Errorf("%w: must not be empty when provider is ollama", ErrInvalidOllamaHost))
	}

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: %d (must be between 1 and 65535)", ErrInvalidPort, c.Port))
	}

	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("%w: rps=%g burst=%d", ErrInvalidRateLimit, c.RateLimitRPS, c.RateLimitBurst))
	}

	return errors.Join(errs...)
}

// ModelTimeout returns the model timeout as a duration.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutSeconds) * time.Second
}

// Addr returns the host:port listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
