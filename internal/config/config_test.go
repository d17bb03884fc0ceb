package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.env")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesKeysAndIgnoresSectionsAndComments(t *testing.T) {
	path := writeConfig(t, "[core]\n# a comment\nworkspace=/tmp/ws\nmodel=claude-3\ntemperature=0.5\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workspace != "/tmp/ws" || cfg.Model != "claude-3" || cfg.Temperature != 0.5 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workspace != "." || cfg.Provider.Type != "anthropic" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestEnvOverridesFileValues(t *testing.T) {
	path := writeConfig(t, "model=claude-3\n")
	t.Setenv("CCLAW_MODEL", "claude-override")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "claude-override" {
		t.Fatalf("expected env override, got %s", cfg.Model)
	}
}

func TestOpenAIAPIKeySwitchesProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.Type != "openai" || cfg.Provider.APIKey != "sk-test" {
		t.Fatalf("expected openai auto-detect, got %+v", cfg.Provider)
	}
}

func TestAnthropicAPIKeyIsFallbackOnly(t *testing.T) {
	t.Setenv("CCLAW_API_KEY", "primary")
	t.Setenv("ANTHROPIC_API_KEY", "fallback")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.APIKey != "primary" {
		t.Fatalf("expected CCLAW_API_KEY to win, got %s", cfg.Provider.APIKey)
	}
}

func TestTelegramTokenEnvAlsoEnables(t *testing.T) {
	t.Setenv("CCLAW_TELEGRAM_TOKEN", "tg-token")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Telegram.Enabled || cfg.Telegram.Token != "tg-token" {
		t.Fatalf("expected telegram auto-enable, got %+v", cfg.Telegram)
	}
}

func TestTelegramAllowedEmptyListAllowsAll(t *testing.T) {
	tg := Telegram{}
	if !tg.Allowed("anyone") {
		t.Fatal("expected empty allow-list to permit everyone")
	}
}

func TestTelegramAllowedRespectsList(t *testing.T) {
	tg := Telegram{AllowFrom: []string{"alice", "123"}}
	if !tg.Allowed("alice") || !tg.Allowed("123") {
		t.Fatal("expected listed identities to be allowed")
	}
	if tg.Allowed("mallory") {
		t.Fatal("expected unlisted identity to be denied")
	}
}
