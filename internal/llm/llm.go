// Package llm talks to hosted and local chat-completion APIs behind a single
// Completer interface. Credentials and limits travel in an explicit Config
// value; no client keeps process-wide state.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Role values accepted in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

const defaultTimeout = 60 * time.Second

// ErrMissingKey is returned by New when the provider needs a credential.
var ErrMissingKey = errors.New("api key is required")

// ErrUnknownProvider is returned by New for unsupported provider names.
var ErrUnknownProvider = errors.New("unknown provider")

// Message is one chat message in provider-neutral form.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion call.
type Request struct {
	Model     string
	Messages  []Message
	MaxTokens int
}

// Completer turns a message list into the assistant's reply text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	HTTPClient *http.Client
}

type providerInfo struct {
	model    string
	baseURL  string
	needsKey bool
	models   []string
}

var providers = map[string]providerInfo{
	ProviderOpenAI: {
		model:    "gpt-3.5-turbo",
		baseURL:  "https://api.openai.com/v1",
		needsKey: true,
		models:   []string{"gpt-3.5-turbo", "gpt-4o-mini", "gpt-4o", "gpt-4.1-mini"},
	},
	ProviderOllama: {
		model:   "llama3.2:3b",
		baseURL: "http://127.0.0.1:11434",
		models:  []string{"llama3.2:3b", "llama3.1:8b", "mistral:7b", "qwen2.5:7b"},
	},
	ProviderGemini: {
		model:    "gemini-2.5-flash",
		needsKey: true,
		models:   []string{"gemini-2.5-flash", "gemini-2.5-flash-lite", "gemini-2.5-pro"},
	},
	ProviderAnthropic: {
		model:    "claude-3-5-haiku-latest",
		needsKey: true,
		models:   []string{"claude-3-5-haiku-latest", "claude-sonnet-4-0", "claude-opus-4-0"},
	},
	ProviderMock: {
		model:  "mock",
		models: []string{"mock"},
	},
}

// Providers lists the supported provider names in display order.
func Providers() []string {
	return []string{ProviderOpenAI, ProviderOllama, ProviderGemini, ProviderAnthropic, ProviderMock}
}

// DefaultModel is the model used when Config.Model is empty.
func DefaultModel(provider string) string {
	return providers[NormalizeProvider(provider)].model
}

// SuggestedModels lists models offered by the settings panel.
func SuggestedModels(provider string) []string {
	return append([]string(nil), providers[NormalizeProvider(provider)].models...)
}

// RequiresKey reports whether the provider refuses to run without a credential.
func RequiresKey(provider string) bool {
	return providers[NormalizeProvider(provider)].needsKey
}

// NormalizeProvider lowercases the name and maps aliases.
func NormalizeProvider(provider string) string {
	normalized := strings.ToLower(strings.TrimSpace(provider))
	switch normalized {
	case "", "openrouter", "openai-compatible":
		return ProviderOpenAI
	case "google", "vertex":
		return ProviderGemini
	case "claude":
		return ProviderAnthropic
	default:
		return normalized
	}
}

// New builds the Completer for cfg.Provider.
func New(cfg Config) (Completer, error) {
	cfg.Provider = NormalizeProvider(cfg.Provider)
	info, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if info.needsKey && cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Provider, ErrMissingKey)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = info.model
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = info.baseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return newOpenAI(cfg), nil
	case ProviderOllama:
		return newOllama(cfg), nil
	case ProviderGemini:
		client, err := newGemini(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderAnthropic:
		return newAnthropic(cfg), nil
	default:
		return NewMock(cfg.Model), nil
	}
}

// splitSystem separates system messages from the conversation. Providers
// with a dedicated system field use it.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			if s := strings.TrimSpace(msg.Content); s != "" {
				system = append(system, s)
			}
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(system, "\n\n"), rest
}

func pickModel(req Request, fallback string) string {
	if m := strings.TrimSpace(req.Model); m != "" {
		return m
	}
	return fallback
}

func pickMaxTokens(req Request, fallback int) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return fallback
}
