package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Quota.FreeLimit != 5 {
		t.Errorf("FreeLimit = %d, want 5", cfg.Quota.FreeLimit)
	}
	if cfg.Quota.BurstLimit != 10 {
		t.Errorf("BurstLimit = %d, want 10", cfg.Quota.BurstLimit)
	}
	if cfg.Quota.BurstWindow != 60*time.Second {
		t.Errorf("BurstWindow = %v, want 60s", cfg.Quota.BurstWindow)
	}
	if !cfg.Features.RateLimiting || !cfg.Features.Analytics || cfg.Features.RAG {
		t.Errorf("unexpected feature defaults: %+v", cfg.Features)
	}
	if cfg.Recorder.IncrementTimeout != 2*time.Second {
		t.Errorf("IncrementTimeout = %v, want 2s", cfg.Recorder.IncrementTimeout)
	}
	if cfg.Addr() != "0.0.0.0:8000" {
		t.Errorf("Addr() = %s", cfg.Addr())
	}
}

func TestLoadFileAndLegacyEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
quota:
  free_limit: 3
generation:
  provider: openai
  model: gpt-4o-mini
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("RATE_LIMIT_PRO", "500")
	t.Setenv("RATE_LIMIT_WINDOW", "30")
	t.Setenv("ENABLE_RAG", "true")
	t.Setenv("GENERATION_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Quota.FreeLimit != 3 {
		t.Errorf("FreeLimit = %d, want 3", cfg.Quota.FreeLimit)
	}
	if cfg.Quota.ProLimit != 500 {
		t.Errorf("ProLimit = %d, want 500", cfg.Quota.ProLimit)
	}
	if cfg.Quota.BurstWindow != 30*time.Second {
		t.Errorf("BurstWindow = %v, want 30s", cfg.Quota.BurstWindow)
	}
	if !cfg.Features.RAG {
		t.Error("expected RAG enabled from ENABLE_RAG")
	}
	if cfg.Generation.Provider != "openai" || cfg.Generation.APIKey != "sk-test" {
		t.Errorf("unexpected generation config: %+v", cfg.Generation)
	}
}

func TestLoadSelectsProviderFromKey(t *testing.T) {
	tests := []struct {
		name         string
		yaml         string
		anthropicKey string
		openaiKey    string
		wantProvider string
		wantKey      string
		wantModel    string
	}{
		{
			name:         "only openai key",
			openaiKey:    "sk-openai",
			wantProvider: "openai",
			wantKey:      "sk-openai",
			wantModel:    "gpt-4o-mini",
		},
		{
			name:         "only anthropic key",
			anthropicKey: "sk-ant",
			wantProvider: "anthropic",
			wantKey:      "sk-ant",
			wantModel:    "claude-sonnet-4-20250514",
		},
		{
			name:         "both keys prefer anthropic",
			anthropicKey: "sk-ant",
			openaiKey:    "sk-openai",
			wantProvider: "anthropic",
			wantKey:      "sk-ant",
			wantModel:    "claude-sonnet-4-20250514",
		},
		{
			name:         "configured provider picks its own key",
			yaml:         "generation:\n  provider: openai\n",
			anthropicKey: "sk-ant",
			openaiKey:    "sk-openai",
			wantProvider: "openai",
			wantKey:      "sk-openai",
			wantModel:    "gpt-4o-mini",
		},
		{
			name:         "configured provider without its key stays unconfigured",
			yaml:         "generation:\n  provider: anthropic\n",
			openaiKey:    "sk-openai",
			wantProvider: "anthropic",
			wantKey:      "",
			wantModel:    "claude-sonnet-4-20250514",
		},
		{
			name:         "no keys",
			wantProvider: "anthropic",
			wantModel:    "claude-sonnet-4-20250514",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			t.Setenv("GENERATION_API_KEY", "")
			t.Setenv("ANTHROPIC_API_KEY", tt.anthropicKey)
			t.Setenv("OPENAI_API_KEY", tt.openaiKey)

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			g := cfg.Generation
			if g.Provider != tt.wantProvider || g.APIKey != tt.wantKey || g.Model != tt.wantModel {
				t.Errorf("generation = {provider:%q key:%q model:%q}, want {%q %q %q}",
					g.Provider, g.APIKey, g.Model, tt.wantProvider, tt.wantKey, tt.wantModel)
			}
		})
	}
}

func TestLoadGenericKeyKeepsConfiguredProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("generation:\n  provider: openai\n  model: gpt-4.1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GENERATION_API_KEY", "sk-generic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Generation.Provider != "openai" || cfg.Generation.APIKey != "sk-generic" || cfg.Generation.Model != "gpt-4.1" {
		t.Errorf("unexpected generation config: %+v", cfg.Generation)
	}
}
