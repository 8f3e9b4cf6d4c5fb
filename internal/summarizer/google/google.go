package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/osvaldoandrade/tldw/internal/summarizer"
	"google.golang.org/genai"
)

const defaultModel = "gemini-1.5-pro-latest"

type provider struct {
	client *genai.Client
	model  string
}

// New builds the Gemini-backed summarizer. The genai client is created once
// and reused for every request.
func New(ctx context.Context, cfg summarizer.Config) (summarizer.Summarizer, error) {
	if strings.TrimSpace(cfg.GoogleAPIKey) == "" {
		return nil, errors.New("GOOGLE_API_KEY is required for the 'google' provider.")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GoogleAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.GeminiModel
	if model == "" {
		model = defaultModel
	}

	return &provider{client: client, model: model}, nil
}

func (p *provider) Name() string { return "google" }

// Summarize sends one combined prompt (system instruction + transcript) to
// the configured Gemini model.
func (p *provider) Summarize(ctx context.Context, transcript string) (string, error) {
	prompt := summarizer.SystemPrompt + "\n\n" + summarizer.UserPrompt(transcript)

	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", errors.New("empty response from Gemini")
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response from Gemini")
	}
	return text, nil
}

func init() {
	summarizer.RegisterProvider("google", New)
}
