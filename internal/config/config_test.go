package config

import (
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Provider:            ProviderGoogleAI,
		ModelName:           "gemini-2.5-flash",
		Temperature:         0.1,
		ModelTimeoutSeconds: 30,
		OllamaHost:          "http://localhost:11434",
		Host:                "127.0.0.1",
		Port:                8080,
		CORSOrigins:         []string{"http://localhost:5173"},
		RateLimitRPS:        5,
		RateLimitBurst:      10,
		LogLevel:            "info",
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_NilConfig(t *testing.T) {
	var c *Config
	assert.ErrorIs(t, c.Validate(), ErrConfigNil)
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"unknown provider", func(c *Config) { c.Provider = "anthropic" }, ErrInvalidProvider},
		{"empty model name", func(c *Config) { c.ModelName = "" }, ErrInvalidModelName},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, ErrInvalidTemperature},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }, ErrInvalidTemperature},
		{"zero timeout", func(c *Config) { c.ModelTimeoutSeconds = 0 }, ErrInvalidTimeout},
		{"port out of range", func(c *Config) { c.Port = 70000 }, ErrInvalidPort},
		{"zero rate", func(c *Config) { c.RateLimitRPS = 0 }, ErrInvalidRateLimit},
		{"ollama without host", func(c *Config) {
			c.Provider = ProviderOllama
			c.OllamaHost = ""
		}, ErrInvalidOllamaHost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsMultipleViolations(t *testing.T) {
	c := validConfig()
	c.Provider = "nope"
	c.ModelName = ""
	c.Port = 0

	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidProvider))
	assert.True(t, errors.Is(err, ErrInvalidModelName))
	assert.True(t, errors.Is(err, ErrInvalidPort))
}

func TestEnvOverridesDefaults(t *testing.T) {
	// Uses the global viper instance, same as Load; reset afterwards so
	// other tests see pristine state.
	t.Cleanup(viper.Reset)

	t.Setenv("SHOPTALK_MODEL_TIMEOUT_SECONDS", "45")
	t.Setenv("SHOPTALK_RATE_LIMIT_RPS", "2.5")
	t.Setenv("SHOPTALK_RATE_LIMIT_BURST", "3")
	t.Setenv("SHOPTALK_MODEL_NAME", "gpt-4o-mini")

	setDefaults()
	bindEnvVariables()

	assert.Equal(t, 45, viper.GetInt("model_timeout_seconds"))
	assert.Equal(t, 2.5, viper.GetFloat64("rate_limit_rps"))
	assert.Equal(t, 3, viper.GetInt("rate_limit_burst"))
	assert.Equal(t, "gpt-4o-mini", viper.GetString("model_name"))
}

func TestAddr(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "127.0.0.1:8080", c.Addr())
}

func TestModelTimeout(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "30s", c.ModelTimeout().String())
}
