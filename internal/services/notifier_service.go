package services

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"resty.dev/v3"

	"github.com/osvaldoandrade/tldw/internal/metrics"
	"github.com/osvaldoandrade/tldw/internal/tracing"
	"github.com/osvaldoandrade/tldw/pkg/domain"
)

// NotifierService delivers the final status message of a task to a
// caller-supplied push notification endpoint.
type NotifierService interface {
	Deliver(ctx context.Context, url string, token string, result domain.TaskResult)
}

type notifierService struct {
	http   *resty.Client
	logger *slog.Logger
	tracer trace.Tracer
}

func NewNotifierService(logger *slog.Logger, timeout time.Duration) NotifierService {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &notifierService{
		http:   client,
		logger: logger,
		tracer: otel.Tracer("tldw/notifier"),
	}
}

// Deliver posts the status message of result to url. Results whose status
// carries no message (working acknowledgments) are skipped. Failures are
// logged, never retried; the caller already received its acknowledgment and
// has no further connection to this path.
func (n *notifierService) Deliver(ctx context.Context, url string, token string, result domain.TaskResult) {
	if result.Status.Message == nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues("skipped").Inc()
		n.logger.Info("webhook delivery skipped: result has no final message", "task_id", result.ID)
		return
	}

	ctx, span := n.tracer.Start(ctx, "webhook.deliver",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("task.id", result.ID)),
	)
	defer span.End()

	traceHeaders := http.Header{}
	tracing.InjectHeaders(ctx, traceHeaders)

	req := n.http.R().
		SetContext(ctx).
		SetBody(result.Status.Message)
	if strings.TrimSpace(token) != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	for k := range traceHeaders {
		req.SetHeader(k, traceHeaders.Get(k))
	}

	resp, err := req.Post(url)
	if err != nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues("failed").Inc()
		span.SetStatus(codes.Error, "delivery failed")
		n.logger.Warn("webhook delivery failed", "task_id", result.ID, "url", url, "err", err)
		return
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		metrics.WebhookDeliveriesTotal.WithLabelValues("failed").Inc()
		span.SetStatus(codes.Error, "delivery failed")
		n.logger.Warn("webhook delivery failed", "task_id", result.ID, "url", url, "status", resp.StatusCode())
		return
	}
	metrics.WebhookDeliveriesTotal.WithLabelValues("delivered").Inc()
	n.logger.Info("webhook delivered", "task_id", result.ID, "url", url, "status", resp.StatusCode())
}
