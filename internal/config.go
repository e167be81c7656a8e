package internal

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	EnvAPIURL   = "HDUD_API_URL"
	EnvToken    = "HDUD_TOKEN"
	EnvLogLevel = "HDUD_LOG_LEVEL"
)

type APIConfig struct {
	BaseURL   string        `yaml:"base_url" validate:"required,url"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
	RateLimit float64       `yaml:"rate_limit,omitempty" validate:"gte=0"`
	Burst     int           `yaml:"burst,omitempty" validate:"gte=0"`
}

type AuthConfig struct {
	Token    string `yaml:"token,omitempty"`
	TokenEnv string `yaml:"token_env,omitempty"`
}

type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

type Config struct {
	API     APIConfig     `yaml:"api"`
	Auth    AuthConfig    `yaml:"auth"`
	Breaker BreakerConfig `yaml:"breaker"`
	Log     LogConfig     `yaml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api",
			Timeout: DefaultTimeout,
		},
		Auth: AuthConfig{
			TokenEnv: EnvToken,
		},
		Breaker: BreakerConfig{
			MaxFailures: DefaultBreakerMaxFailures,
			OpenTimeout: DefaultBreakerOpenTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("invalid config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Namespace())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid url", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must not be negative", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// ApplyEnv overrides file values with HDUD_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// TokenSource reads the token env var on every request, falling back to auth.token.
func (c *Config) TokenSource() EnvTokenSource {
	env := c.Auth.TokenEnv
	if env == "" {
		env = EnvToken
	}
	return EnvTokenSource{Env: env, Fallback: c.Auth.Token}
}

func (c *Config) ClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:            c.API.BaseURL,
		Timeout:            c.API.Timeout,
		RateLimit:          c.API.RateLimit,
		Burst:              c.API.Burst,
		Tokens:             c.TokenSource(),
		BreakerMaxFailures: c.Breaker.MaxFailures,
		BreakerOpenTimeout: c.Breaker.OpenTimeout,
	}
}

func LoadConfig(scope Scope) (*Config, error) {
	return LoadConfigFile(scope.ConfigPath())
}

// LoadConfigFile reads path, falling back to defaults when it does not exist.
// Environment overrides are applied and the result is validated.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func SaveConfig(scope Scope, cfg *Config) error {
	if err := os.MkdirAll(scope.DirPath, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(scope.ConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
