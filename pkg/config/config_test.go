package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig_Assistant verifies assistant defaults
func TestDefaultConfig_Assistant(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Assistant.Name != "Coprodelito" {
		t.Errorf("Name = %q, want %q", cfg.Assistant.Name, "Coprodelito")
	}
	if cfg.Assistant.Model != "gemini-1.5-flash" {
		t.Errorf("Model = %q, want %q", cfg.Assistant.Model, "gemini-1.5-flash")
	}
	if cfg.Assistant.HistoryWindow != 5 {
		t.Errorf("HistoryWindow = %d, want 5", cfg.Assistant.HistoryWindow)
	}
	if cfg.Assistant.GenerateTimeout == 0 {
		t.Error("GenerateTimeout should not be zero")
	}
	if cfg.Assistant.Temperature == 0 {
		t.Error("Temperature should not be zero")
	}
}

// TestDefaultConfig_Providers verifies provider credentials are empty by default
func TestDefaultConfig_Providers(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Providers.Gemini.APIKey != "" {
		t.Error("Gemini API key should be empty by default")
	}
	if cfg.Providers.OpenRouter.APIKey != "" {
		t.Error("OpenRouter API key should be empty by default")
	}
}

// TestDefaultConfig_Store verifies storage defaults
func TestDefaultConfig_Store(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Store.Driver = %q, want %q", cfg.Store.Driver, "sqlite")
	}
	if cfg.Store.Path == "" {
		t.Error("Store.Path should not be empty")
	}
	if cfg.Sessions.Driver != "memory" {
		t.Errorf("Sessions.Driver = %q, want %q", cfg.Sessions.Driver, "memory")
	}
}

// TestLoadConfig_MissingFile verifies defaults are returned for a missing file
func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Assistant.Name != "Coprodelito" {
		t.Errorf("expected defaults, got name %q", cfg.Assistant.Name)
	}
}

// TestLoadConfig_FileOverride verifies JSON file values override defaults
func TestLoadConfig_FileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"assistant": {"model": "gemini-2.0-flash", "history_window": 3}}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Assistant.Model != "gemini-2.0-flash" {
		t.Errorf("Model = %q, want override", cfg.Assistant.Model)
	}
	if cfg.Assistant.HistoryWindow != 3 {
		t.Errorf("HistoryWindow = %d, want 3", cfg.Assistant.HistoryWindow)
	}
}

// TestLoadConfig_EnvOverride verifies env vars override file values
func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("COPRODELITO_ASSISTANT_MODEL", "gemini-1.5-pro")
	t.Setenv("COPRODELITO_STORE_DRIVER", "supabase")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Assistant.Model != "gemini-1.5-pro" {
		t.Errorf("Model = %q, want env override", cfg.Assistant.Model)
	}
	if cfg.Store.Driver != "supabase" {
		t.Errorf("Store.Driver = %q, want env override", cfg.Store.Driver)
	}
}

// TestSaveConfig_RoundTrip verifies save then load preserves values
func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Assistant.Model = "gemini-2.0-flash"
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Assistant.Model != "gemini-2.0-flash" {
		t.Errorf("Model = %q after round trip", loaded.Assistant.Model)
	}
}

// TestOpenRouterAPIBase_Default verifies fallback API base
func TestOpenRouterAPIBase_Default(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.OpenRouterAPIBase(); got != "https://openrouter.ai/api/v1" {
		t.Errorf("OpenRouterAPIBase = %q", got)
	}
}
