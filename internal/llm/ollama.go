package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type ollamaClient struct {
	apiBase   string
	model     string
	maxTokens int
	http      *http.Client
}

func newOllama(cfg Config) *ollamaClient {
	return &ollamaClient{
		apiBase:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		http:      cfg.HTTPClient,
	}
}

func (c *ollamaClient) Complete(ctx context.Context, req Request) (string, error) {
	endpoint := c.apiBase + "/api/chat"
	options := map[string]any{"temperature": 0.7}
	if n := pickMaxTokens(req, c.maxTokens); n > 0 {
		options["num_predict"] = n
	}
	body := map[string]any{
		"model":    pickModel(req, c.model),
		"stream":   false,
		"messages": req.Messages,
		"options":  options,
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", newRemoteError(ProviderOllama, 0, "", fmt.Errorf("ollama request failed on /api/chat: %w", err))
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newRemoteError(ProviderOllama, resp.StatusCode, "reading response body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newRemoteError(ProviderOllama, resp.StatusCode, string(payload), nil)
	}
	var parsed struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", newRemoteError(ProviderOllama, resp.StatusCode, "ollama returned non-json payload", err)
	}
	if parsed.Error != "" {
		return "", newRemoteError(ProviderOllama, resp.StatusCode, parsed.Error, nil)
	}
	content := strings.TrimSpace(parsed.Message.Content)
	if content == "" {
		return "", newRemoteError(ProviderOllama, resp.StatusCode, "", errors.New("ollama returned empty response content"))
	}
	return content, nil
}
