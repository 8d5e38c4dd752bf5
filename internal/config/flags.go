package config

import (
	"strings"

	"github.com/spf13/cobra"

	"duologue/internal/llm"
)

// Flags are the persistent command-line overrides shared by every command.
type Flags struct {
	ConfigPath   string
	Provider     string
	Model        string
	APIKey       string
	APIKeyFile   string
	BaseURL      string
	MaxTokens    int
	Timeout      int
	PersonasFile string
	LogFile      string
	LogLevel     string
	LogFormat    string
	NoColor      bool
	NoAltScreen  bool
}

// Bind registers the flags on cmd as persistent flags.
func (f *Flags) Bind(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.ConfigPath, "config", "", "Path to a YAML config file (default $XDG_CONFIG_HOME/duologue/config.yaml)")
	pf.StringVar(&f.Provider, "provider", "", "Completion provider: "+providerList())
	pf.StringVar(&f.Model, "model", "", "Model identifier (provider default when empty)")
	pf.StringVar(&f.APIKey, "api-key", "", "API key (prefer DUOLOGUE_API_KEY or a key file)")
	pf.StringVar(&f.APIKeyFile, "api-key-file", "", "Read the API key from this file")
	pf.StringVar(&f.BaseURL, "base-url", "", "Override the provider endpoint")
	pf.IntVar(&f.MaxTokens, "max-tokens", 0, "Maximum tokens per reply")
	pf.IntVar(&f.Timeout, "timeout", 0, "Per-request timeout in seconds")
	pf.StringVar(&f.PersonasFile, "personas", "", "YAML roster of agent personas")
	pf.StringVar(&f.LogFile, "log-file", "", "Write logs to this file")
	pf.StringVar(&f.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	pf.StringVar(&f.LogFormat, "log-format", "", "Log format (text|json)")
	pf.BoolVar(&f.NoColor, "no-color", false, "Disable colors")
	pf.BoolVar(&f.NoAltScreen, "no-alt-screen", false, "Do not use the alternate screen buffer")
}

// Resolve loads the config and applies the flags the user actually set.
func (f *Flags) Resolve(cmd *cobra.Command) (Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return Config{}, err
	}
	fs := cmd.Flags()
	if fs.Changed("provider") {
		cfg.Provider = f.Provider
	}
	if fs.Changed("model") {
		cfg.Model = f.Model
	}
	if fs.Changed("api-key") {
		cfg.APIKey = f.APIKey
	}
	if fs.Changed("api-key-file") {
		cfg.APIKeyFile = f.APIKeyFile
	}
	if fs.Changed("base-url") {
		cfg.BaseURL = f.BaseURL
	}
	if fs.Changed("max-tokens") {
		cfg.MaxTokens = f.MaxTokens
	}
	if fs.Changed("timeout") {
		cfg.TimeoutSeconds = f.Timeout
	}
	if fs.Changed("personas") {
		cfg.PersonasFile = f.PersonasFile
	}
	if fs.Changed("log-file") {
		cfg.LogFile = f.LogFile
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.LogLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = f.LogFormat
	}
	if f.NoColor {
		cfg.NoColor = true
	}
	if f.NoAltScreen {
		cfg.AltScreen = false
	}
	if err := cfg.Finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func providerList() string {
	return strings.Join(llm.Providers(), "|")
}
