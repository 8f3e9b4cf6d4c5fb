package services

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/osvaldoandrade/tldw/internal/transcript"
	"github.com/osvaldoandrade/tldw/pkg/domain"
)

type stubTranscripts struct {
	text    string
	err     error
	calls   atomic.Int32
	lastRef atomic.Value
}

func (s *stubTranscripts) Fetch(ctx context.Context, videoID string) (string, error) {
	s.calls.Add(1)
	s.lastRef.Store(videoID)
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubSummarizer struct {
	summary string
	err     error
}

func (s *stubSummarizer) Name() string { return "stub" }

func (s *stubSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.summary, nil
}

type notifiedResult struct {
	url    string
	token  string
	result domain.TaskResult
}

type captureNotifier struct {
	ch chan notifiedResult
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{ch: make(chan notifiedResult, 4)}
}

func (c *captureNotifier) Deliver(ctx context.Context, url string, token string, result domain.TaskResult) {
	c.ch <- notifiedResult{url: url, token: token, result: result}
}

func setupPipelineTest(t *testing.T, transcripts *stubTranscripts, model *stubSummarizer, notifier NotifierService) PipelineService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPipelineService(transcripts, model, notifier, logger)
}

func userMessage(texts ...string) domain.Message {
	parts := make([]domain.Part, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, domain.TextPart(text))
	}
	return domain.Message{Role: domain.RoleUser, Parts: parts}
}

func blocking() domain.MessageSendConfiguration {
	return domain.MessageSendConfiguration{Blocking: true}
}

func TestPipelineBlockingSuccess(t *testing.T) {
	svc := setupPipelineTest(t,
		&stubTranscripts{text: "the full transcript"},
		&stubSummarizer{summary: "the summary"},
		newCaptureNotifier(),
	)

	msg := userMessage("summarize https://www.youtube.com/watch?v=abc123 please")
	result := svc.Process(context.Background(), msg, blocking())

	if result.Status.State != domain.StateCompleted {
		t.Fatalf("Expected completed, got %s", result.Status.State)
	}
	if result.ID == "" || result.ContextID == "" {
		t.Fatalf("Expected generated ids, got id=%q contextId=%q", result.ID, result.ContextID)
	}
	if result.Status.Message == nil {
		t.Fatal("Expected status message on completed result")
	}
	if result.Status.Message.Role != domain.RoleAgent {
		t.Fatalf("Expected agent role, got %s", result.Status.Message.Role)
	}
	if got := result.Status.Message.Parts[0].Text; got != "the summary" {
		t.Fatalf("Expected summary text, got %q", got)
	}
	if result.Status.Message.TaskID != result.ID {
		t.Fatalf("Expected response taskId %q, got %q", result.ID, result.Status.Message.TaskID)
	}

	if len(result.Artifacts) != 2 {
		t.Fatalf("Expected 2 artifacts, got %d", len(result.Artifacts))
	}
	if result.Artifacts[0].Name != domain.ArtifactSummary || result.Artifacts[0].Parts[0].Text != "the summary" {
		t.Fatalf("Unexpected summary artifact: %+v", result.Artifacts[0])
	}
	if result.Artifacts[1].Name != domain.ArtifactFullTranscript || result.Artifacts[1].Parts[0].Text != "the full transcript" {
		t.Fatalf("Unexpected transcript artifact: %+v", result.Artifacts[1])
	}

	if len(result.History) != 2 {
		t.Fatalf("Expected history of 2, got %d", len(result.History))
	}
	if result.History[0].Role != domain.RoleUser {
		t.Fatalf("Expected inbound message first in history, got %s", result.History[0].Role)
	}
	if result.History[1].Parts[0].Text != "the summary" {
		t.Fatalf("Expected agent response last in history, got %q", result.History[1].Parts[0].Text)
	}
}

func TestPipelineUsesMessageTaskID(t *testing.T) {
	svc := setupPipelineTest(t,
		&stubTranscripts{text: "transcript"},
		&stubSummarizer{summary: "summary"},
		newCaptureNotifier(),
	)

	msg := userMessage("https://youtu.be/xyz789")
	msg.TaskID = "task-123"

	result := svc.Process(context.Background(), msg, blocking())
	if result.ID != "task-123" {
		t.Fatalf("Expected task-123, got %q", result.ID)
	}
}

func TestPipelineNoURLFails(t *testing.T) {
	transcripts := &stubTranscripts{text: "transcript"}
	svc := setupPipelineTest(t, transcripts, &stubSummarizer{summary: "summary"}, newCaptureNotifier())

	result := svc.Process(context.Background(), userMessage("no links here"), blocking())

	if result.Status.State != domain.StateFailed {
		t.Fatalf("Expected failed, got %s", result.Status.State)
	}
	if got := result.Status.Message.Parts[0].Text; got != "No valid YouTube URL found in the message." {
		t.Fatalf("Unexpected failure text: %q", got)
	}
	if len(result.Artifacts) != 0 {
		t.Fatalf("Expected no artifacts, got %d", len(result.Artifacts))
	}
	if len(result.History) != 2 {
		t.Fatalf("Expected history of 2, got %d", len(result.History))
	}
	if transcripts.calls.Load() != 0 {
		t.Fatalf("Expected no transcript fetch, got %d", transcripts.calls.Load())
	}
}

func TestPipelineUnresolvableVideoIDFails(t *testing.T) {
	svc := setupPipelineTest(t,
		&stubTranscripts{text: "transcript"},
		&stubSummarizer{summary: "summary"},
		newCaptureNotifier(),
	)

	// Matches the URL shape but carries an empty v parameter.
	result := svc.Process(context.Background(), userMessage("https://www.youtube.com/watch?v=&list=x1"), blocking())

	if result.Status.State != domain.StateFailed {
		t.Fatalf("Expected failed, got %s", result.Status.State)
	}
	if got := result.Status.Message.Parts[0].Text; got != "Could not extract a valid video ID from the URL." {
		t.Fatalf("Unexpected failure text: %q", got)
	}
}

func TestPipelineTranscriptUnavailable(t *testing.T) {
	svc := setupPipelineTest(t,
		&stubTranscripts{err: transcript.ErrUnavailable},
		&stubSummarizer{summary: "summary"},
		newCaptureNotifier(),
	)

	result := svc.Process(context.Background(), userMessage("https://youtu.be/abc123"), blocking())

	if result.Status.State != domain.StateFailed {
		t.Fatalf("Expected failed, got %s", result.Status.State)
	}
	want := "A transcript is not available for this video. Captions may be disabled."
	if got := result.Status.Message.Parts[0].Text; got != want {
		t.Fatalf("Expected %q, got %q", want, got)
	}
}

func TestPipelineTranscriptFetchError(t *testing.T) {
	svc := setupPipelineTest(t,
		&stubTranscripts{err: transcript.ErrFetch},
		&stubSummarizer{summary: "summary"},
		newCaptureNotifier(),
	)

	result := svc.Process(context.Background(), userMessage("https://youtu.be/abc123"), blocking())

	want := "An unexpected error occurred while trying to get the video transcript."
	if got := result.Status.Message.Parts[0].Text; got != want {
		t.Fatalf("Expected %q, got %q", want, got)
	}
}

func TestPipelineSummarizerFailure(t *testing.T) {
	svc := setupPipelineTest(t,
		&stubTranscripts{text: "transcript"},
		&stubSummarizer{err: context.DeadlineExceeded},
		newCaptureNotifier(),
	)

	result := svc.Process(context.Background(), userMessage("https://youtu.be/abc123"), blocking())

	if result.Status.State != domain.StateFailed {
		t.Fatalf("Expected failed, got %s", result.Status.State)
	}
	want := "An error occurred while summarizing the transcript."
	if got := result.Status.Message.Parts[0].Text; got != want {
		t.Fatalf("Expected %q, got %q", want, got)
	}
	if len(result.History) != 2 {
		t.Fatalf("Expected history of 2, got %d", len(result.History))
	}
}

func TestPipelineNonBlocking(t *testing.T) {
	notifier := newCaptureNotifier()
	svc := setupPipelineTest(t,
		&stubTranscripts{text: "the full transcript"},
		&stubSummarizer{summary: "the summary"},
		notifier,
	)

	cfg := domain.MessageSendConfiguration{
		Blocking: false,
		PushNotificationConfig: &domain.PushNotificationConfig{
			URL:   "https://example.com/callback",
			Token: "cb-token",
		},
	}

	ack := svc.Process(context.Background(), userMessage("https://youtu.be/abc123"), cfg)

	if ack.Status.State != domain.StateWorking {
		t.Fatalf("Expected working, got %s", ack.Status.State)
	}
	if ack.Status.Message != nil {
		t.Fatal("Expected no status message on working acknowledgment")
	}
	if len(ack.Artifacts) != 0 || len(ack.History) != 0 {
		t.Fatal("Expected no artifacts or history on working acknowledgment")
	}

	select {
	case got := <-notifier.ch:
		if got.url != "https://example.com/callback" || got.token != "cb-token" {
			t.Fatalf("Unexpected delivery target: url=%q token=%q", got.url, got.token)
		}
		if got.result.Status.State != domain.StateCompleted {
			t.Fatalf("Expected completed final result, got %s", got.result.Status.State)
		}
		if got.result.Status.Message.Parts[0].Text != "the summary" {
			t.Fatalf("Unexpected final message: %q", got.result.Status.Message.Parts[0].Text)
		}
		if got.result.ID != ack.ID {
			t.Fatalf("Expected final task id %q, got %q", ack.ID, got.result.ID)
		}
		if got.result.ContextID != ack.ContextID {
			t.Fatalf("Expected final context id %q, got %q", ack.ContextID, got.result.ContextID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected notifier to receive the final result")
	}
}

func TestPipelineNonBlockingRequiresPushConfig(t *testing.T) {
	notifier := newCaptureNotifier()
	svc := setupPipelineTest(t,
		&stubTranscripts{text: "transcript"},
		&stubSummarizer{summary: "summary"},
		notifier,
	)

	// blocking=false without a push config falls back to blocking behavior
	result := svc.Process(context.Background(), userMessage("https://youtu.be/abc123"), domain.MessageSendConfiguration{Blocking: false})

	if result.Status.State != domain.StateCompleted {
		t.Fatalf("Expected completed, got %s", result.Status.State)
	}
	select {
	case <-notifier.ch:
		t.Fatal("Expected no webhook delivery in blocking fallback")
	default:
	}
}

func TestPipelineIdempotence(t *testing.T) {
	svc := setupPipelineTest(t,
		&stubTranscripts{text: "stable transcript"},
		&stubSummarizer{summary: "stable summary"},
		newCaptureNotifier(),
	)

	msg := userMessage("https://youtu.be/abc123")
	first := svc.Process(context.Background(), msg, blocking())
	second := svc.Process(context.Background(), msg, blocking())

	if first.ContextID == second.ContextID {
		t.Fatalf("Expected distinct context ids, both %q", first.ContextID)
	}
	if len(first.Artifacts) != len(second.Artifacts) {
		t.Fatalf("Expected equal artifact counts, got %d and %d", len(first.Artifacts), len(second.Artifacts))
	}
	for i := range first.Artifacts {
		if first.Artifacts[i].Name != second.Artifacts[i].Name {
			t.Fatalf("Artifact %d name mismatch: %q vs %q", i, first.Artifacts[i].Name, second.Artifacts[i].Name)
		}
		if first.Artifacts[i].Parts[0].Text != second.Artifacts[i].Parts[0].Text {
			t.Fatalf("Artifact %d content mismatch", i)
		}
	}
}

func TestPipelineLastPartWins(t *testing.T) {
	transcripts := &stubTranscripts{text: "transcript"}
	svc := setupPipelineTest(t, transcripts, &stubSummarizer{summary: "summary"}, newCaptureNotifier())

	msg := userMessage(
		"first https://www.youtube.com/watch?v=first11",
		"second https://www.youtube.com/watch?v=second2",
	)
	result := svc.Process(context.Background(), msg, blocking())

	if result.Status.State != domain.StateCompleted {
		t.Fatalf("Expected completed, got %s", result.Status.State)
	}
	if transcripts.calls.Load() != 1 {
		t.Fatalf("Expected one fetch, got %d", transcripts.calls.Load())
	}
	if got := transcripts.lastRef.Load(); got != "second2" {
		t.Fatalf("Expected video id from last part, got %v", got)
	}
}
