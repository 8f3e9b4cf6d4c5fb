package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/osvaldoandrade/tldw/internal/metrics"
	"github.com/osvaldoandrade/tldw/internal/summarizer"
	"github.com/osvaldoandrade/tldw/internal/transcript"
	"github.com/osvaldoandrade/tldw/internal/videoref"
	"github.com/osvaldoandrade/tldw/pkg/domain"
)

const (
	noURLText     = "No valid YouTube URL found in the message."
	noVideoIDText = "Could not extract a valid video ID from the URL."
)

const (
	modeSync    = "sync"
	modeWebhook = "webhook"
)

// PipelineService runs the summarization pipeline for one inbound message.
type PipelineService interface {
	Process(ctx context.Context, msg domain.Message, cfg domain.MessageSendConfiguration) domain.TaskResult
}

type pipelineService struct {
	transcripts transcript.Client
	model       summarizer.Summarizer
	notifier    NotifierService
	logger      *slog.Logger
	tracer      trace.Tracer
}

func NewPipelineService(transcripts transcript.Client, model summarizer.Summarizer, notifier NotifierService, logger *slog.Logger) PipelineService {
	if logger == nil {
		logger = slog.Default()
	}
	return &pipelineService{
		transcripts: transcripts,
		model:       model,
		notifier:    notifier,
		logger:      logger,
		tracer:      otel.Tracer("tldw/pipeline"),
	}
}

// Process derives the task and context identifiers, then either runs the
// pipeline inline or schedules it and acknowledges immediately with a working
// result. The scheduled unit of work is fire-and-forget: no handle is
// retained and the final result travels only through the notifier.
func (s *pipelineService) Process(ctx context.Context, msg domain.Message, cfg domain.MessageSendConfiguration) domain.TaskResult {
	taskID := strings.TrimSpace(msg.TaskID)
	if taskID == "" {
		taskID = uuid.NewString()
	}
	contextID := uuid.NewString()

	if cfg.NonBlocking() {
		push := *cfg.PushNotificationConfig
		bg := context.WithoutCancel(ctx)
		go func() {
			// Off the request path there is no Recovery middleware above us.
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("task panicked", "task_id", taskID, "panic", r)
				}
			}()
			final := s.run(bg, msg, taskID, contextID, modeWebhook)
			s.notifier.Deliver(bg, push.URL, push.Token, final)
		}()
		return domain.TaskResult{
			ID:        taskID,
			ContextID: contextID,
			Status:    domain.TaskStatus{State: domain.StateWorking},
		}
	}

	return s.run(ctx, msg, taskID, contextID, modeSync)
}

func (s *pipelineService) run(ctx context.Context, msg domain.Message, taskID, contextID, mode string) domain.TaskResult {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "task.process",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("task.context_id", contextID),
			attribute.String("task.mode", mode),
			attribute.String("task.provider", s.model.Name()),
		),
	)
	defer span.End()

	result := s.execute(ctx, msg, taskID, contextID, mode)

	outcome := string(result.Status.State)
	metrics.TasksTotal.WithLabelValues(mode, outcome).Inc()
	metrics.TaskDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("task.outcome", outcome))
	if result.Status.State == domain.StateFailed {
		span.SetStatus(codes.Error, "task failed")
	}
	return result
}

func (s *pipelineService) execute(ctx context.Context, msg domain.Message, taskID, contextID, mode string) domain.TaskResult {
	logger := s.logger.With("task_id", taskID, "mode", mode)

	rawURL, ok := videoref.ExtractVideoURL(msg)
	if !ok {
		logger.Warn("no video url found in message")
		return s.failed(msg, taskID, contextID, noURLText)
	}

	videoID, ok := videoref.ResolveVideoID(rawURL)
	if !ok {
		logger.Warn("no video id in url", "url", rawURL)
		return s.failed(msg, taskID, contextID, noVideoIDText)
	}

	logger.Info("fetching transcript", "video_id", videoID)
	text, err := s.transcripts.Fetch(ctx, videoID)
	if err != nil {
		logger.Warn("transcript fetch failed", "video_id", videoID, "err", err)
		return s.failed(msg, taskID, contextID, transcript.UserText(err))
	}

	logger.Info("summarizing transcript", "video_id", videoID, "transcript_chars", len(text))
	sumStart := time.Now()
	summary, err := s.model.Summarize(ctx, text)
	metrics.SummarizationLatencySeconds.WithLabelValues(s.model.Name()).Observe(time.Since(sumStart).Seconds())
	if err != nil {
		metrics.SummarizationsTotal.WithLabelValues(s.model.Name(), "error").Inc()
		logger.Error("summarization failed", "video_id", videoID, "err", err)
		return s.failed(msg, taskID, contextID, summarizer.FailureText)
	}
	metrics.SummarizationsTotal.WithLabelValues(s.model.Name(), "ok").Inc()

	response := domain.AgentMessage(taskID, summary)
	logger.Info("task completed", "video_id", videoID, "summary_chars", len(summary))
	return domain.TaskResult{
		ID:        taskID,
		ContextID: contextID,
		Status:    domain.TaskStatus{State: domain.StateCompleted, Message: &response},
		Artifacts: []domain.Artifact{
			{Name: domain.ArtifactSummary, Parts: []domain.Part{domain.TextPart(summary)}},
			{Name: domain.ArtifactFullTranscript, Parts: []domain.Part{domain.TextPart(text)}},
		},
		History: []domain.Message{msg, response},
	}
}

func (s *pipelineService) failed(msg domain.Message, taskID, contextID, text string) domain.TaskResult {
	errMsg := domain.AgentMessage(taskID, text)
	return domain.TaskResult{
		ID:        taskID,
		ContextID: contextID,
		Status:    domain.TaskStatus{State: domain.StateFailed, Message: &errMsg},
		History:   []domain.Message{msg, errMsg},
	}
}
