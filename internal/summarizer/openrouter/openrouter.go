package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/osvaldoandrade/tldw/internal/summarizer"
	"resty.dev/v3"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "openai/gpt-oss-20b:free"

	requestTimeout = 2 * time.Minute
)

type provider struct {
	http  *resty.Client
	model string
}

// New builds the OpenRouter-backed summarizer. The resty client is created
// once and reused for every request.
func New(_ context.Context, cfg summarizer.Config) (summarizer.Summarizer, error) {
	if strings.TrimSpace(cfg.OpenRouterAPIKey) == "" {
		return nil, errors.New("OPENROUTER_API_KEY is required for the 'openrouter' provider.")
	}

	baseURL := cfg.OpenRouterBaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.OpenRouterModel
	if model == "" {
		model = defaultModel
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseURL)
	httpClient.SetTimeout(requestTimeout)
	httpClient.SetHeader("Authorization", "Bearer "+cfg.OpenRouterAPIKey)

	return &provider{http: httpClient, model: model}, nil
}

func (p *provider) Name() string { return "openrouter" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize issues a chat completion with the system instruction and the
// transcript as the user message, returning the first choice's content.
func (p *provider) Summarize(ctx context.Context, transcript string) (string, error) {
	body := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: summarizer.SystemPrompt},
			{Role: "user", Content: summarizer.UserPrompt(transcript)},
		},
	}

	var out chatResponse
	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("chat completion returned status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("chat completion returned an empty message")
	}
	return content, nil
}

func init() {
	summarizer.RegisterProvider("openrouter", New)
}
