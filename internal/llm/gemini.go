package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

type geminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

func newGemini(cfg Config) (*geminiClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &geminiClient{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
	}, nil
}

func (g *geminiClient) Complete(ctx context.Context, req Request) (string, error) {
	system, turns := splitSystem(req.Messages)

	contents := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if n := pickMaxTokens(req, g.maxTokens); n > 0 {
		cfg.MaxOutputTokens = int32(n)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	res, err := g.client.Models.GenerateContent(ctx, pickModel(req, g.model), contents, cfg)
	if err != nil {
		return "", newRemoteError(ProviderGemini, 0, "", fmt.Errorf("gemini generate content: %w", err))
	}
	text := res.Text()
	if text == "" {
		return "", newRemoteError(ProviderGemini, 0, "", errors.New("gemini returned empty text"))
	}
	return text, nil
}
