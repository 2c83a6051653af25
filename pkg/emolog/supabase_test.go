package emolog

import (
	"testing"

	"github.com/coprodeli/coprodelito/pkg/config"
)

func TestNewSupabaseStore_RequiresURLAndKey(t *testing.T) {
	if _, err := NewSupabaseStore(config.SupabaseConfig{APIKey: "service-key"}); err == nil {
		t.Error("expected an error without a URL")
	}
	if _, err := NewSupabaseStore(config.SupabaseConfig{URL: "http://localhost:54321"}); err == nil {
		t.Error("expected an error without an API key")
	}
}

func TestNewSupabaseStore_AcceptsStoreConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Supabase.URL = "http://localhost:54321"
	cfg.Store.Supabase.APIKey = "service-key"

	store, err := NewSupabaseStore(cfg.Store.Supabase)
	if err != nil {
		t.Fatalf("NewSupabaseStore failed: %v", err)
	}
	defer store.Close()

	var _ Store = store
}
