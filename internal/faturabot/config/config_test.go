package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faturabot/faturabot/internal/faturabot/config"
)

// clearEnv unsets every variable Load consults so tests are hermetic.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"FATURABOT_CONFIG", "LISTEN_ADDR", "GATEWAY_URL", "AUTH_URL",
		"SERVICE_USERNAME", "SERVICE_PASSWORD", "INSECURE_TLS",
		"DATABASE_PATH", "EXTRACTION_RATE_LIMIT",
		"LLM_BASE_URL", "LLM_API_KEY", "LLM_MODEL", "LLM_TIMEOUT",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("GATEWAY_URL", "https://localhost:5003")
	t.Setenv("AUTH_URL", "https://localhost:5001/api/v1/Auth/login")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GatewayURL != "https://localhost:5003" {
		t.Errorf("GatewayURL = %q", cfg.GatewayURL)
	}
	if cfg.ListenAddr != ":8090" {
		t.Errorf("default ListenAddr = %q, want :8090", cfg.ListenAddr)
	}
	if !cfg.InsecureTLS {
		t.Error("InsecureTLS should default to true")
	}
	if cfg.ServiceUsername != "test" || cfg.ServicePassword != "test123" {
		t.Errorf("service credentials = %q/%q", cfg.ServiceUsername, cfg.ServicePassword)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("LLM.Timeout = %v, want 30s", cfg.LLM.Timeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	clearEnv(t)
	if _, err := config.Load(); err == nil {
		t.Fatal("Load without GATEWAY_URL/AUTH_URL should fail")
	}
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "faturabot.yaml")
	file := `
listen_addr: ":9000"
gateway_url: "https://gw.example.com"
auth_url: "https://auth.example.com/login"
extraction_rate_limit: 5
llm:
  model: "gpt-4o-mini"
  timeout: 10s
`
	if err := os.WriteFile(path, []byte(file), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FATURABOT_CONFIG", path)
	t.Setenv("GATEWAY_URL", "https://override.example.com")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GatewayURL != "https://override.example.com" {
		t.Errorf("env should override file, got %q", cfg.GatewayURL)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr from file = %q", cfg.ListenAddr)
	}
	if cfg.ExtractionRateLimit != 5 {
		t.Errorf("ExtractionRateLimit = %d, want 5", cfg.ExtractionRateLimit)
	}
	if cfg.LLM.Timeout != 10*time.Second {
		t.Errorf("LLM.Timeout = %v, want 10s", cfg.LLM.Timeout)
	}
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FATURABOT_CONFIG", path)
	if _, err := config.Load(); err == nil {
		t.Fatal("Load with malformed YAML should fail")
	}
}
