package todo

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/rezkam/todoline/internal/domain"
)

const instrumentationName = "github.com/rezkam/todoline/internal/application/todo"

var tracer = otel.Tracer(instrumentationName)

type metrics struct {
	parsedCount   metric.Int64Counter
	rejectedCount metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter(instrumentationName)

	parsed, err := meter.Int64Counter("todoline.tasks.parsed",
		metric.WithDescription("Task texts parsed successfully"))
	if err != nil {
		slog.Warn("failed to create counter", "name", "todoline.tasks.parsed", "error", err)
		parsed = noop.Int64Counter{}
	}

	rejected, err := meter.Int64Counter("todoline.tasks.rejected",
		metric.WithDescription("Task texts rejected by the parser"))
	if err != nil {
		slog.Warn("failed to create counter", "name", "todoline.tasks.rejected", "error", err)
		rejected = noop.Int64Counter{}
	}

	return &metrics{parsedCount: parsed, rejectedCount: rejected}
}

func (m *metrics) parsed(ctx context.Context) {
	m.parsedCount.Add(ctx, 1)
}

func (m *metrics) rejected(ctx context.Context, err error) {
	m.rejectedCount.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", rejectReason(err))))
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTitleRequired):
		return "title_required"
	case errors.Is(err, domain.ErrTitleTooLong):
		return "title_too_long"
	case errors.Is(err, domain.ErrMainCategoryRequired):
		return "main_category_required"
	case errors.Is(err, domain.ErrInvalidTime):
		return "invalid_time"
	default:
		return "other"
	}
}

func withTaskID(id string) trace.SpanStartOption {
	return trace.WithAttributes(attribute.String("task.id", id))
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
