// Package config loads the .env-style configuration file and layers
// environment-variable overrides on top, producing the Config the rest of
// the program runs from.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider selects which backend adapter a session talks to.
type Provider struct {
	Type    string // "anthropic" or "openai"
	APIKey  string
	BaseURL string
}

// Telegram holds the long-poller's enablement and access control.
type Telegram struct {
	Enabled   bool
	Token     string
	AllowFrom []string // IDs and/or usernames; "*" or empty allows all
}

// Gateway holds the WebSocket server's listen port and optional bearer auth.
type Gateway struct {
	Port  int
	Token string
}

// Config is the fully-resolved program configuration: file values with
// environment overrides already applied.
type Config struct {
	Workspace         string
	Provider          Provider
	Model             string
	Temperature       float64
	MaxToolIterations int
	Telegram          Telegram
	Gateway           Gateway
	MemoryDBPath      string
	LogLevel          int
}

const defaultMaxToolIterations = 10

// Load reads path (if non-empty and present) as a key=value file, then
// applies environment-variable overrides, then fills defaults for anything
// still unset. A missing file is not an error: env vars and defaults alone
// can produce a usable Config.
func Load(path string) (*Config, error) {
	values := map[string]string{}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("open config %s: %w", path, err)
			}
		} else {
			defer f.Close()
			parsed, err := parseFile(f)
			if err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
			values = parsed
		}
	}

	cfg := &Config{
		Workspace:         firstNonEmpty(values["workspace"], "."),
		Provider:          Provider{Type: firstNonEmpty(values["provider"], "anthropic"), APIKey: values["api_key"]},
		Model:             values["model"],
		Temperature:       parseFloatDefault(values["temperature"], 1.0),
		MaxToolIterations: parseIntDefault(values["max_tool_iterations"], defaultMaxToolIterations),
		Telegram: Telegram{
			Enabled:   parseBool(values["telegram_enabled"]),
			Token:     values["telegram_token"],
			AllowFrom: splitList(values["telegram_allowed"]),
		},
		Gateway: Gateway{
			Port:  parseIntDefault(values["gateway_port"], 0),
			Token: values["gateway_token"],
		},
		MemoryDBPath: firstNonEmpty(values["memory_db"], ""),
		LogLevel:     parseIntDefault(values["log_level"], 2),
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// parseFile strips "[section]" lines (godotenv has no notion of sections)
// and hands the rest to godotenv.Parse, which already understands "#"
// comments and quoted values.
func parseFile(f *os.File) (map[string]string, error) {
	var body strings.Builder
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "[") {
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return godotenv.Parse(strings.NewReader(body.String()))
}

// applyEnvOverrides layers the recognized CCLAW_* / fallback vars over cfg
// per the external interface table: ANTHROPIC_API_KEY and OPENAI_API_KEY
// are fallback credential sources, with OPENAI_API_KEY also switching the
// provider and CCLAW_TELEGRAM_TOKEN also enabling Telegram.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CCLAW_WORKSPACE"); v != "" {
		cfg.Workspace = v
	}
	if v := os.Getenv("CCLAW_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = v
		cfg.Provider.Type = "openai"
	}
	if v := os.Getenv("CCLAW_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("CCLAW_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
		cfg.Telegram.Enabled = true
	}
	if v := os.Getenv("CCLAW_LOG_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LogLevel = n
		}
	}
	if v := os.Getenv("CCLAW_MAX_TOOL_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxToolIterations = n
		}
	}
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func parseBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

func parseIntDefault(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloatDefault(v string, fallback float64) float64 {
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// splitList parses a comma list of IDs/usernames. "*" or empty means
// "allow all", represented as a nil slice.
func splitList(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" || v == "*" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Allowed reports whether id (a Telegram user ID or @username) may use the
// bot. An empty or "*" allow-list permits everyone.
func (t Telegram) Allowed(id string) bool {
	if len(t.AllowFrom) == 0 {
		return true
	}
	for _, a := range t.AllowFrom {
		if a == id {
			return true
		}
	}
	return false
}
