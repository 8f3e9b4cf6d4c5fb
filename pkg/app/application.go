package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/osvaldoandrade/tldw/internal/metrics"
	"github.com/osvaldoandrade/tldw/internal/middleware"
	"github.com/osvaldoandrade/tldw/internal/services"
	"github.com/osvaldoandrade/tldw/internal/summarizer"
	"github.com/osvaldoandrade/tldw/internal/tracing"
	"github.com/osvaldoandrade/tldw/internal/transcript"
	"github.com/osvaldoandrade/tldw/pkg/config"
	"github.com/osvaldoandrade/tldw/pkg/domain"

	"github.com/gin-gonic/gin"
)

const agentVersion = "1.2.0"

type Application struct {
	Config          *config.Config
	Engine          *gin.Engine
	Pipeline        services.PipelineService
	Notifier        services.NotifierService
	Transcripts     transcript.Client
	Model           summarizer.Summarizer
	Card            domain.AgentCard
	Logger          *slog.Logger
	TracingShutdown func(context.Context) error
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithSummarizer sets a custom summarization model
func WithSummarizer(model summarizer.Summarizer) ApplicationOption {
	return func(app *Application) error {
		app.Model = model
		return nil
	}
}

// WithTranscriptClient sets a custom transcript client
func WithTranscriptClient(client transcript.Client) ApplicationOption {
	return func(app *Application) error {
		app.Transcripts = client
		return nil
	}
}

// WithNotifier sets a custom webhook notifier
func WithNotifier(notifier services.NotifierService) ApplicationOption {
	return func(app *Application) error {
		app.Notifier = notifier
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	level := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler).With("service", "tldw", "env", cfg.Env)
	slog.SetDefault(logger)

	tracingShutdown, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:        cfg.TracingEnabled,
		ServiceName:    "tldw",
		ServiceVersion: agentVersion,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		OTLPInsecure:   cfg.OTLPInsecure,
		SampleRatio:    cfg.TraceSampleRatio,
	}, logger)
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.TracingMiddleware("tldw"),
		middleware.LoggerMiddleware(logger),
	)

	app := &Application{
		Config:          cfg,
		Engine:          engine,
		Card:            buildAgentCard(cfg),
		Logger:          logger,
		TracingShutdown: tracingShutdown,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	// Create default collaborators from config if not provided
	if app.Model == nil {
		model, err := summarizer.New(context.Background(), summarizer.Config{
			Provider:          cfg.LLMProvider,
			GoogleAPIKey:      cfg.GoogleAPIKey,
			GeminiModel:       cfg.GeminiModel,
			OpenRouterAPIKey:  cfg.OpenRouterAPIKey,
			OpenRouterModel:   cfg.OpenRouterModel,
			OpenRouterBaseURL: cfg.OpenRouterBaseURL,
		})
		if err != nil {
			return nil, err
		}
		app.Model = model
	}

	if app.Transcripts == nil {
		transcriptCache := cache.New(time.Duration(cfg.TranscriptCacheSeconds)*time.Second, 10*time.Minute)
		app.Transcripts = transcript.NewClient(transcript.Options{
			BaseURL:  cfg.TranscriptBaseURL,
			Language: cfg.TranscriptLanguage,
			Timeout:  time.Duration(cfg.TranscriptTimeoutSeconds) * time.Second,
			CacheTTL: time.Duration(cfg.TranscriptCacheSeconds) * time.Second,
			Cache:    transcriptCache,
			Logger:   logger,
		})
		metrics.RegisterCacheCollector(transcriptCache, logger)
	}

	if app.Notifier == nil {
		app.Notifier = services.NewNotifierService(logger, time.Duration(cfg.NotifierTimeoutSeconds)*time.Second)
	}

	app.Pipeline = services.NewPipelineService(app.Transcripts, app.Model, app.Notifier, logger)

	return app, nil
}

func buildAgentCard(cfg *config.Config) domain.AgentCard {
	return domain.AgentCard{
		Name:        "YouTube Summarizer A2A Agent (Multi-Provider)",
		Description: "An A2A agent that uses Google Gemini or OpenRouter to summarize YouTube videos.",
		URL:         cfg.AgentPublicURL + "/a2a/summarize",
		Version:     agentVersion,
		Capabilities: domain.AgentCapabilities{
			Streaming:         false,
			PushNotifications: true,
		},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills: []domain.AgentSkill{
			{
				ID:          "summarize_youtube_video",
				Name:        "Summarize YouTube Video",
				Description: "Fetches the transcript of a YouTube video and produces a concise plain-text summary.",
				Tags:        []string{"youtube", "summarization", "transcript"},
			},
		},
	}
}
