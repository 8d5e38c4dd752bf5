// Package config resolves duologue's runtime settings from defaults, an
// optional YAML file, the environment and command-line flags, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"duologue/internal/llm"
	"duologue/internal/textutil"
)

const (
	defaultMaxTokens       = 300
	defaultTimeoutSeconds  = 60
	defaultMaxTurns        = 2
	defaultMaxTurnsCeiling = 10
	openRouterBaseURL      = "https://openrouter.ai/api/v1"
)

// Bounds applied to MaxTokens by Finalize and by the settings panel.
const (
	MinMaxTokens = 16
	MaxMaxTokens = 8192
)

// Config holds everything read once at start and kept read-only during an
// exchange. The API key is never written back to disk.
type Config struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	APIKey          string `yaml:"-"`
	APIKeyFile      string `yaml:"api_key_file"`
	BaseURL         string `yaml:"base_url"`
	MaxTokens       int    `yaml:"max_tokens"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MaxTurns        int    `yaml:"max_turns"`
	MaxTurnsCeiling int    `yaml:"max_turns_ceiling"`
	PersonasFile    string `yaml:"personas_file"`
	LogFile         string `yaml:"log_file"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
	NoColor         bool   `yaml:"no_color"`
	AltScreen       bool   `yaml:"alt_screen"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Provider:        llm.ProviderOpenAI,
		MaxTokens:       defaultMaxTokens,
		TimeoutSeconds:  defaultTimeoutSeconds,
		MaxTurns:        defaultMaxTurns,
		MaxTurnsCeiling: defaultMaxTurnsCeiling,
		LogLevel:        "info",
		LogFormat:       "text",
		AltScreen:       true,
	}
}

// Load starts from Default, overlays the YAML file at path (if any; a missing
// file named through DUOLOGUE_CONFIG or the default location is skipped) and
// then the DUOLOGUE_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = envOr("DUOLOGUE_CONFIG", defaultConfigPath())
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "duologue", "config.yaml")
}

func (c *Config) applyEnv() {
	c.Provider = envOr("DUOLOGUE_PROVIDER", c.Provider)
	c.Model = envOr("DUOLOGUE_MODEL", c.Model)
	c.BaseURL = envOr("DUOLOGUE_BASE_URL", c.BaseURL)
	c.APIKey = envOr("DUOLOGUE_API_KEY", c.APIKey)
	c.APIKeyFile = envOr("DUOLOGUE_API_KEY_FILE", c.APIKeyFile)
	c.MaxTokens = envOrInt("DUOLOGUE_MAX_TOKENS", c.MaxTokens)
	c.TimeoutSeconds = envOrInt("DUOLOGUE_TIMEOUT", c.TimeoutSeconds)
	c.MaxTurns = envOrInt("DUOLOGUE_MAX_TURNS", c.MaxTurns)
	c.MaxTurnsCeiling = envOrInt("DUOLOGUE_MAX_TURNS_CEILING", c.MaxTurnsCeiling)
	c.PersonasFile = envOr("DUOLOGUE_PERSONAS", c.PersonasFile)
	c.LogFile = envOr("DUOLOGUE_LOG_FILE", c.LogFile)
	c.LogLevel = envOr("DUOLOGUE_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("DUOLOGUE_LOG_FORMAT", c.LogFormat)
	c.AltScreen = envOrBool("DUOLOGUE_ALT_SCREEN", c.AltScreen)
	c.NoColor = envOrBool("DUOLOGUE_NO_COLOR", c.NoColor)
	if envOr("NO_COLOR", "") != "" {
		c.NoColor = true
	}
}

// Finalize normalizes the provider, fills the credential from the provider's
// own variables or the secret file, and clamps numeric settings.
func (c *Config) Finalize() error {
	raw := strings.ToLower(strings.TrimSpace(c.Provider))
	c.Provider = llm.NormalizeProvider(raw)
	if !isKnownProvider(c.Provider) {
		return fmt.Errorf("%w: %q (want one of %s)", llm.ErrUnknownProvider, raw, strings.Join(llm.Providers(), ", "))
	}
	if raw == "openrouter" && strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = openRouterBaseURL
	}

	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.APIKey == "" && strings.TrimSpace(c.APIKeyFile) != "" {
		key, err := readSecret(c.APIKeyFile)
		if err != nil {
			return err
		}
		c.APIKey = key
	}
	if c.APIKey == "" {
		for _, name := range keyVariables(raw, c.Provider) {
			if v := envOr(name, ""); v != "" {
				c.APIKey = v
				break
			}
		}
	}

	c.MaxTurnsCeiling = textutil.Clamp(c.MaxTurnsCeiling, 1, 50)
	c.MaxTurns = textutil.Clamp(c.MaxTurns, 1, c.MaxTurnsCeiling)
	c.MaxTokens = textutil.Clamp(c.MaxTokens, MinMaxTokens, MaxMaxTokens)
	c.TimeoutSeconds = textutil.Clamp(c.TimeoutSeconds, 1, 600)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	return nil
}

// Timeout is the per-request completion timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LLM converts the settings into a completion client config.
func (c Config) LLM() llm.Config {
	return llm.Config{
		Provider:  c.Provider,
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		Timeout:   c.Timeout(),
	}
}

// ResolvedModel is the model that will actually be requested.
func (c Config) ResolvedModel() string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	return llm.DefaultModel(c.Provider)
}

// HasKey reports whether a credential is available for the provider.
func (c Config) HasKey() bool {
	return c.APIKey != "" || !llm.RequiresKey(c.Provider)
}

func isKnownProvider(provider string) bool {
	for _, p := range llm.Providers() {
		if p == provider {
			return true
		}
	}
	return false
}

// ProviderKey reads the credential for provider from its own environment
// variables, or "" when none is set.
func ProviderKey(provider string) string {
	raw := strings.ToLower(strings.TrimSpace(provider))
	for _, name := range keyVariables(raw, llm.NormalizeProvider(raw)) {
		if v := envOr(name, ""); v != "" {
			return v
		}
	}
	return ""
}

func keyVariables(raw, provider string) []string {
	switch {
	case raw == "openrouter":
		return []string{"OPENROUTER_API_KEY"}
	case provider == llm.ProviderOpenAI:
		return []string{"OPENAI_API_KEY", "OPENROUTER_API_KEY"}
	case provider == llm.ProviderGemini:
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case provider == llm.ProviderAnthropic:
		return []string{"ANTHROPIC_API_KEY"}
	default:
		return nil
	}
}

func readSecret(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading api key file: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("api key file %s is empty", path)
	}
	return key, nil
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return fallback
	}
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
