package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// openAIClient speaks the OpenAI-compatible /chat/completions protocol
// (OpenAI, OpenRouter and most self-hosted gateways).
type openAIClient struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	http      *http.Client
}

type chatCompletionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
	Stream    bool      `json:"stream,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		FinishReason string  `json:"finish_reason"`
		Message      Message `json:"message"`
	} `json:"choices"`
	Error *apiErrorBody `json:"error,omitempty"`
}

type apiErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

func newOpenAI(cfg Config) *openAIClient {
	return &openAIClient{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		http:      cfg.HTTPClient,
	}
}

func (c *openAIClient) Complete(ctx context.Context, req Request) (string, error) {
	body := chatCompletionRequest{
		Model:     pickModel(req, c.model),
		Messages:  req.Messages,
		MaxTokens: pickMaxTokens(req, c.maxTokens),
	}
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", buf)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(httpReq)
	if err != nil {
		return "", newRemoteError(ProviderOpenAI, 0, "", err)
	}
	defer res.Body.Close()
	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return "", newRemoteError(ProviderOpenAI, res.StatusCode, "reading response body", err)
	}

	var parsed chatCompletionResponse
	decodeErr := json.Unmarshal(payload, &parsed)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		message := string(payload)
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			message = parsed.Error.Message
		}
		return "", newRemoteError(ProviderOpenAI, res.StatusCode, message, nil)
	}
	if decodeErr != nil {
		return "", newRemoteError(ProviderOpenAI, res.StatusCode, "non-json completion payload", decodeErr)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", newRemoteError(ProviderOpenAI, res.StatusCode, parsed.Error.Message, nil)
	}
	if len(parsed.Choices) == 0 {
		return "", newRemoteError(ProviderOpenAI, res.StatusCode, "", errors.New("completion returned no choices"))
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", newRemoteError(ProviderOpenAI, res.StatusCode, "", errors.New("completion returned empty content"))
	}
	return content, nil
}
