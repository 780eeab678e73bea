package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromYAML(t *testing.T) {
	yamlContent := []byte(`
server:
  host: "127.0.0.1"
  port: 9000
storage:
  sqlite_path: "/tmp/oshan/oshan.db"
  data_dir: "/tmp/oshan/data"
auth:
  secret: "test-secret"
  token_ttl_minutes: 120
llm:
  api_key: "llm-key"
  base_url: "https://openrouter.ai/api/v1"
  chat_model: "openai/gpt-3.5-turbo"
  report_model: "openai/gpt-4o"
ingest:
  symbols: ["AAPL", "MSFT"]
  cron: "0 7 * * *"
  rate_limit_per_min: 30
  fetch_full_text: true
client:
  base_url: "http://localhost:9000"
  timeout_sec: 15
  max_retries: 2
  retry_delay_ms: 500
logging:
  level: "debug"
  format: "text"
`)

	path := filepath.Join(t.TempDir(), "oshan.yaml")
	if err := os.WriteFile(path, yamlContent, 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}

	clearEnv(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9000)
	}
	if cfg.Storage.SQLitePath != "/tmp/oshan/oshan.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/oshan/oshan.db")
	}
	if cfg.Auth.Secret != "test-secret" {
		t.Errorf("Auth.Secret = %q, want %q", cfg.Auth.Secret, "test-secret")
	}
	if cfg.Auth.TokenTTLMinutes != 120 {
		t.Errorf("Auth.TokenTTLMinutes = %d, want %d", cfg.Auth.TokenTTLMinutes, 120)
	}
	if cfg.LLM.APIKey != "llm-key" {
		t.Errorf("LLM.APIKey = %q, want %q", cfg.LLM.APIKey, "llm-key")
	}
	if len(cfg.Ingest.Symbols) != 2 || cfg.Ingest.Symbols[0] != "AAPL" {
		t.Errorf("Ingest.Symbols = %v, want [AAPL MSFT]", cfg.Ingest.Symbols)
	}
	if !cfg.Ingest.FetchFullText {
		t.Error("Ingest.FetchFullText = false, want true")
	}
	if cfg.Client.MaxRetries != 2 {
		t.Errorf("Client.MaxRetries = %d, want %d", cfg.Client.MaxRetries, 2)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	yamlContent := []byte(`
auth:
  secret: "yaml-secret"
storage:
  sqlite_path: "/yaml/oshan.db"
client:
  base_url: "http://yaml-host"
`)

	path := filepath.Join(t.TempDir(), "oshan.yaml")
	if err := os.WriteFile(path, yamlContent, 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}

	clearEnv(t)
	t.Setenv("SECRET_KEY", "env-secret")
	t.Setenv("API_BASE_URL", "http://env-host")
	t.Setenv("INGEST_SYMBOLS", "aapl, tsla")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Auth.Secret != "env-secret" {
		t.Errorf("Auth.Secret = %q, want %q (env override)", cfg.Auth.Secret, "env-secret")
	}
	// sqlite_path has no env set, so the YAML value stands.
	if cfg.Storage.SQLitePath != "/yaml/oshan.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q (from YAML)", cfg.Storage.SQLitePath, "/yaml/oshan.db")
	}
	if cfg.Client.BaseURL != "http://env-host" {
		t.Errorf("Client.BaseURL = %q, want %q (env override)", cfg.Client.BaseURL, "http://env-host")
	}
	if len(cfg.Ingest.Symbols) != 2 || cfg.Ingest.Symbols[1] != "TSLA" {
		t.Errorf("Ingest.Symbols = %v, want [AAPL TSLA]", cfg.Ingest.Symbols)
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() returned error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Auth.Secret != FallbackSecret {
		t.Errorf("Auth.Secret = %q, want fallback", cfg.Auth.Secret)
	}
	if cfg.LLM.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("LLM.BaseURL = %q, want OpenRouter default", cfg.LLM.BaseURL)
	}
	if cfg.Client.MaxRetries != 3 {
		t.Errorf("Client.MaxRetries = %d, want 3", cfg.Client.MaxRetries)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "SQLITE_PATH", "DATA_DIR", "SECRET_KEY",
		"OPENROUTER_API_KEY", "LLM_BASE_URL", "INGEST_SYMBOLS",
		"API_BASE_URL", "LOG_LEVEL", "APCA_API_KEY_ID", "APCA_API_SECRET_KEY",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}
