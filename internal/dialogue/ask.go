package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"duologue/internal/llm"
)

const (
	// DefaultSystemPrompt frames single-shot questions.
	DefaultSystemPrompt = "You are a helpful assistant."
	// MissingAskInput is shown when the key or the prompt is empty.
	MissingAskInput = "Please provide both the API key and a prompt."
)

// AskOptions tunes a single-shot request.
type AskOptions struct {
	Model        string
	MaxTokens    int
	SystemPrompt string
}

// CheckAsk rejects an ask form that must not reach the completion API.
func CheckAsk(provider, apiKey, prompt string) error {
	if strings.TrimSpace(prompt) == "" || (llm.RequiresKey(provider) && strings.TrimSpace(apiKey) == "") {
		return fmt.Errorf("%w: %s", ErrMissingInput, MissingAskInput)
	}
	return nil
}

// Ask sends prompt behind the system prompt and returns the reply text.
func Ask(ctx context.Context, completer llm.Completer, opts AskOptions, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingInput, MissingAskInput)
	}
	if completer == nil {
		return "", fmt.Errorf("%w: no completion client configured", ErrUnexpectedFailure)
	}
	system := opts.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = DefaultSystemPrompt
	}
	reply, err := completer.Complete(ctx, llm.Request{
		Model:     opts.Model,
		MaxTokens: opts.MaxTokens,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRemoteCallFailure, err)
	}
	return strings.TrimSpace(reply), nil
}

// AskStatus is the text shown in the response region for an Ask outcome.
func AskStatus(reply string, err error) string {
	if errors.Is(err, ErrMissingInput) {
		return MissingAskInput
	}
	if err != nil {
		return "Error: " + err.Error() + retryHint(err)
	}
	return reply
}
