// Package config loads the Faturabot configuration.
//
// Configuration is layered: compiled-in defaults, then an optional YAML file
// (FATURABOT_CONFIG), then environment variables. Environment always wins so
// a container deployment can override a checked-in file without editing it.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/faturabot/faturabot/common/environment"
)

// LLM configures the completion provider used for intent extraction.
type LLM struct {
	// BaseURL is an OpenAI-compatible chat-completions endpoint.
	BaseURL string `yaml:"base_url"`
	// APIKey is the bearer token for the endpoint. May be empty for local
	// models that do not authenticate.
	APIKey string `yaml:"api_key"`
	// Model is the chat model name.
	Model string `yaml:"model"`
	// Timeout bounds a single completion call.
	Timeout time.Duration `yaml:"timeout"`
}

// Config is the full service configuration.
type Config struct {
	// ListenAddr is the TCP address of the HTTP server hosting /ws,
	// /health and /status.
	ListenAddr string `yaml:"listen_addr"`

	// GatewayURL is the base URL of the billing gateway, without a
	// trailing slash.
	GatewayURL string `yaml:"gateway_url"`
	// AuthURL is the full URL of the token-minting endpoint.
	AuthURL string `yaml:"auth_url"`
	// ServiceUsername and ServicePassword are the fixed service identity
	// used to mint and refresh gateway tokens. These are never end-user
	// credentials.
	ServiceUsername string `yaml:"service_username"`
	ServicePassword string `yaml:"service_password"`

	// InsecureTLS disables certificate verification for the gateway and
	// auth service. The deployment terminates TLS with a self-signed
	// certificate, so this defaults to true.
	InsecureTLS bool `yaml:"insecure_tls"`

	// DatabasePath is the SQLite file holding the action audit log.
	DatabasePath string `yaml:"database_path"`

	// ExtractionRateLimit caps completion calls per session per minute.
	ExtractionRateLimit int `yaml:"extraction_rate_limit"`

	LLM LLM `yaml:"llm"`
}

func defaults() *Config {
	return &Config{
		ListenAddr:          ":8090",
		ServiceUsername:     "test",
		ServicePassword:     "test123",
		InsecureTLS:         true,
		DatabasePath:        "./faturabot.db",
		ExtractionRateLimit: 20,
		LLM: LLM{
			Timeout: 30 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by FATURABOT_CONFIG, and environment variables, in that order.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("FATURABOT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the current values.
func (c *Config) applyEnv() {
	c.ListenAddr = environment.StringOr("LISTEN_ADDR", c.ListenAddr)
	c.GatewayURL = environment.StringOr("GATEWAY_URL", c.GatewayURL)
	c.AuthURL = environment.StringOr("AUTH_URL", c.AuthURL)
	c.ServiceUsername = environment.StringOr("SERVICE_USERNAME", c.ServiceUsername)
	c.ServicePassword = environment.StringOr("SERVICE_PASSWORD", c.ServicePassword)
	c.InsecureTLS = environment.BoolOr("INSECURE_TLS", c.InsecureTLS)
	c.DatabasePath = environment.StringOr("DATABASE_PATH", c.DatabasePath)
	c.ExtractionRateLimit = environment.IntOr("EXTRACTION_RATE_LIMIT", c.ExtractionRateLimit)

	c.LLM.BaseURL = environment.StringOr("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.APIKey = environment.StringOr("LLM_API_KEY", c.LLM.APIKey)
	c.LLM.Model = environment.StringOr("LLM_MODEL", c.LLM.Model)
	c.LLM.Timeout = environment.DurationOr("LLM_TIMEOUT", c.LLM.Timeout)
}

// Validate checks that the configuration can actually run the service.
func (c *Config) Validate() error {
	if c.GatewayURL == "" {
		return fmt.Errorf("config: gateway_url (GATEWAY_URL) is required")
	}
	if c.AuthURL == "" {
		return fmt.Errorf("config: auth_url (AUTH_URL) is required")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen_addr must not be empty")
	}
	return nil
}
