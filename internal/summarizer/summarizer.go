package summarizer

import (
	"context"
	"fmt"
	"sync"
)

// Prompt texts shared by every provider.
const (
	SystemPrompt = "You are an expert at summarizing YouTube video transcripts. Provide a concise, easy-to-read summary that captures the key points. Crucially, the entire response must be in plain text, with no Markdown formatting (no headers, bold text, or lists)."

	userPromptPrefix = "Please summarize the following transcript:\n\n"
)

// FailureText is the task status text when summarization fails; the wrapped
// cause stays in logs and spans.
const FailureText = "An error occurred while summarizing the transcript."

// UserPrompt builds the user-role prompt for a transcript.
func UserPrompt(transcript string) string {
	return userPromptPrefix + transcript
}

// Summarizer condenses transcript text into a plain-text summary.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Config carries the settings of every provider; each factory reads only its
// own fields.
type Config struct {
	Provider          string
	GoogleAPIKey      string
	GeminiModel       string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string
}

// Factory creates a provider instance from configuration.
type Factory func(ctx context.Context, cfg Config) (Summarizer, error)

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

// RegisterProvider registers a summarizer factory for a provider name.
func RegisterProvider(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = factory
}

// New creates the summarizer selected by cfg.Provider. Unknown names and
// missing credentials are configuration errors; callers treat them as fatal
// at startup.
func New(ctx context.Context, cfg Config) (Summarizer, error) {
	mu.RLock()
	factory, ok := registry[cfg.Provider]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown LLM_PROVIDER: '%s'. Must be 'google' or 'openrouter'.", cfg.Provider)
	}

	return factory(ctx, cfg)
}

// ListProviders returns registered provider names.
func ListProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	providers := make([]string, 0, len(registry))
	for name := range registry {
		providers = append(providers, name)
	}
	return providers
}
