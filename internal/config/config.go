package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type LLMConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key" validate:"required"`
	Model   string `mapstructure:"model" validate:"required"`
}

type BackendConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required"`
	Mock    bool   `mapstructure:"mock"`
}

type AuthConfig struct {
	Secret string `mapstructure:"secret" validate:"required"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type ChatConfig struct {
	PersonaFile string `mapstructure:"persona_file"`
}

type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Backend BackendConfig `mapstructure:"backend"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Server  ServerConfig  `mapstructure:"server"`
	Chat    ChatConfig    `mapstructure:"chat"`
}

// Load reads tradelm-ai.yaml (cwd or ~/.tradelm-ai) when present, overlaid
// by TRADELM_* environment variables (e.g. TRADELM_LLM_API_KEY). Required
// values missing at startup fail here, not per-request.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("tradelm-ai")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.tradelm-ai")

	v.SetEnvPrefix("TRADELM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults double as env-var bindings for Unmarshal.
	v.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.mock", false)
	v.SetDefault("auth.secret", "")
	v.SetDefault("server.port", 8001)
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("chat.persona_file", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file is optional; environment variables suffice.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the required settings surface.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace())
			}
			return fmt.Errorf("missing required settings: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}
