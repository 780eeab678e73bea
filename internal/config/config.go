// Package config loads the oshan platform configuration from a YAML file
// with environment variable overrides and local-development defaults.
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the oshan platform.
type Config struct {
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
	Auth    Auth    `yaml:"auth"`
	LLM     LLM     `yaml:"llm"`
	Ingest  Ingest  `yaml:"ingest"`
	Client  Client  `yaml:"client"`
	Logging Logging `yaml:"logging"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Storage holds paths for data persistence.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
	DataDir    string `yaml:"data_dir"`
}

// Auth configures JWT signing and the Google sign-in client ids.
type Auth struct {
	Secret          string `yaml:"secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	GoogleAndroidID string `yaml:"google_android_id"`
	GoogleIOSID     string `yaml:"google_ios_id"`
	GoogleWebID     string `yaml:"google_web_id"`
}

// LLM holds credentials and model selection for the completion provider.
type LLM struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	ChatModel   string `yaml:"chat_model"`
	ReportModel string `yaml:"report_model"`
}

// Ingest controls the news and price ingestion pipeline.
type Ingest struct {
	Symbols         []string `yaml:"symbols"`
	Cron            string   `yaml:"cron"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	FetchFullText   bool     `yaml:"fetch_full_text"`
	AlpacaKey       string   `yaml:"alpaca_key"`
	AlpacaSecret    string   `yaml:"alpaca_secret"`
	AlpacaDataURL   string   `yaml:"alpaca_data_url"`
}

// Client configures the outbound API client SDK.
type Client struct {
	BaseURL      string `yaml:"base_url"`
	TimeoutSec   int    `yaml:"timeout_sec"`
	MaxRetries   int    `yaml:"max_retries"`
	RetryDelayMS int    `yaml:"retry_delay_ms"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FallbackSecret is the development-only JWT secret used when none is
// configured. Deployments must override it.
const FallbackSecret = "supersecretjwtkey"

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns a configuration suitable for local development.
func Default() *Config {
	return &Config{
		Server:  Server{Host: "0.0.0.0", Port: 8080},
		Storage: Storage{SQLitePath: "oshan.db", DataDir: "data"},
		Auth:    Auth{Secret: FallbackSecret, TokenTTLMinutes: 60},
		LLM: LLM{
			BaseURL:     "https://openrouter.ai/api/v1",
			ChatModel:   "openai/gpt-3.5-turbo",
			ReportModel: "openai/gpt-4o",
		},
		Ingest: Ingest{RateLimitPerMin: 60},
		Client: Client{
			BaseURL:      "http://localhost:8080",
			TimeoutSec:   30,
			MaxRetries:   3,
			RetryDelayMS: 1000,
		},
		Logging: Logging{Level: "info", Format: "json"},
	}
}

// Load reads the YAML configuration file at the given path over the
// defaults, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to the defaults (plus env
// overrides) when no config file exists at path.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		applyEnvOverrides(cfg)
		return cfg, nil
	}
	return Load(path)
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.Auth.Secret = v
	}

	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	if v := os.Getenv("INGEST_SYMBOLS"); v != "" {
		cfg.Ingest.Symbols = splitSymbols(v)
	}

	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.Client.BaseURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (canonical names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Ingest.AlpacaKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Ingest.AlpacaSecret = v
	}
}

func splitSymbols(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}
