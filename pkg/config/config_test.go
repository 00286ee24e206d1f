package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
app:
  name: yantra
  workspace: ./ws
gateways:
  telegram:
    token: tg-token
    enabled: true
  discord:
    token: ""
    enabled: true
providers:
  openai:
    api_key: file-key
    model: gpt-4o-mini
    enabled: true
memory:
  type: sqlite
  path: test.db
limits:
  max_iterations: 5
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.App.Name != "yantra" || cfg.App.Workspace != "./ws" {
		t.Errorf("unexpected app config: %+v", cfg.App)
	}
	if cfg.Memory.Path != "test.db" {
		t.Errorf("unexpected memory path: %s", cfg.Memory.Path)
	}
	if cfg.Limits.MaxIterations != 5 {
		t.Errorf("max_iterations = %d, want 5", cfg.Limits.MaxIterations)
	}
	// Unset limits fall back to defaults.
	if cfg.Limits.RetryBudget != DefaultRetryBudget {
		t.Errorf("retry_budget = %d, want default %d", cfg.Limits.RetryBudget, DefaultRetryBudget)
	}
	if cfg.Limits.ToolTimeoutSeconds != DefaultToolTimeout {
		t.Errorf("tool_timeout_seconds = %d, want default %d", cfg.Limits.ToolTimeoutSeconds, DefaultToolTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-tg")

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Providers["openai"].APIKey != "env-key" {
		t.Errorf("env var should override provider key, got %s", cfg.Providers["openai"].APIKey)
	}
	if cfg.Gateways["telegram"].Token != "env-tg" {
		t.Errorf("env var should override gateway token, got %s", cfg.Gateways["telegram"].Token)
	}
}

func TestGetGateway(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := cfg.GetGateway("telegram"); !ok {
		t.Error("enabled gateway with token should resolve")
	}
	// Enabled but tokenless: not usable.
	if _, ok := cfg.GetGateway("discord"); ok {
		t.Error("gateway without a token should not resolve")
	}
	if _, ok := cfg.GetGateway("matrix"); ok {
		t.Error("unknown gateway should not resolve")
	}
}

func TestGetDefaultProvider(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	name, p := cfg.GetDefaultProvider()
	if name != "openai" || p.Model != "gpt-4o-mini" {
		t.Errorf("unexpected default provider: %s %+v", name, p)
	}
}
