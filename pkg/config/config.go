package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Assistant AssistantConfig `json:"assistant"`
	Providers ProvidersConfig `json:"providers"`
	Store     StoreConfig     `json:"store"`
	Sessions  SessionsConfig  `json:"sessions"`
	mu        sync.RWMutex
}

type AssistantConfig struct {
	Name            string  `json:"name" env:"COPRODELITO_ASSISTANT_NAME"`
	Provider        string  `json:"provider" env:"COPRODELITO_ASSISTANT_PROVIDER"`
	Model           string  `json:"model" env:"COPRODELITO_ASSISTANT_MODEL"`
	MaxTokens       int     `json:"max_tokens" env:"COPRODELITO_ASSISTANT_MAX_TOKENS"`
	Temperature     float64 `json:"temperature" env:"COPRODELITO_ASSISTANT_TEMPERATURE"`
	HistoryWindow   int     `json:"history_window" env:"COPRODELITO_ASSISTANT_HISTORY_WINDOW"`
	GenerateTimeout int     `json:"generate_timeout" env:"COPRODELITO_ASSISTANT_GENERATE_TIMEOUT"` // seconds
}

type ProvidersConfig struct {
	Gemini     GeminiConfig     `json:"gemini"`
	OpenRouter OpenRouterConfig `json:"openrouter"`
}

type GeminiConfig struct {
	APIKey string `json:"api_key" env:"COPRODELITO_PROVIDERS_GEMINI_API_KEY"`
}

type OpenRouterConfig struct {
	APIKey  string `json:"api_key" env:"COPRODELITO_PROVIDERS_OPENROUTER_API_KEY"`
	APIBase string `json:"api_base" env:"COPRODELITO_PROVIDERS_OPENROUTER_API_BASE"`
	Proxy   string `json:"proxy,omitempty" env:"COPRODELITO_PROVIDERS_OPENROUTER_PROXY"`
}

type StoreConfig struct {
	Driver   string         `json:"driver" env:"COPRODELITO_STORE_DRIVER"`
	Path     string         `json:"path" env:"COPRODELITO_STORE_PATH"`
	Supabase SupabaseConfig `json:"supabase"`
}

type SupabaseConfig struct {
	URL    string `json:"url" env:"COPRODELITO_STORE_SUPABASE_URL"`
	APIKey string `json:"api_key" env:"COPRODELITO_STORE_SUPABASE_API_KEY"`
}

type SessionsConfig struct {
	Driver string      `json:"driver" env:"COPRODELITO_SESSIONS_DRIVER"`
	Redis  RedisConfig `json:"redis"`
	TTL    int         `json:"ttl" env:"COPRODELITO_SESSIONS_TTL"` // hours, redis driver only
}

type RedisConfig struct {
	Addr     string `json:"addr" env:"COPRODELITO_SESSIONS_REDIS_ADDR"`
	Password string `json:"password" env:"COPRODELITO_SESSIONS_REDIS_PASSWORD"`
	DB       int    `json:"db" env:"COPRODELITO_SESSIONS_REDIS_DB"`
}

func DefaultConfig() *Config {
	return &Config{
		Assistant: AssistantConfig{
			Name:            "Coprodelito",
			Provider:        "gemini",
			Model:           "gemini-1.5-flash",
			MaxTokens:       1024,
			Temperature:     0.7,
			HistoryWindow:   5,
			GenerateTimeout: 30,
		},
		Providers: ProvidersConfig{
			Gemini:     GeminiConfig{},
			OpenRouter: OpenRouterConfig{},
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "~/.coprodelito/state/emotions.db",
		},
		Sessions: SessionsConfig{
			Driver: "memory",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
			TTL: 24,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// StorePath returns the sqlite database path with ~ expanded.
func (c *Config) StorePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Store.Path)
}

func (c *Config) GeminiAPIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Providers.Gemini.APIKey
}

func (c *Config) OpenRouterAPIBase() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Providers.OpenRouter.APIBase != "" {
		return c.Providers.OpenRouter.APIBase
	}
	return "https://openrouter.ai/api/v1"
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
