// Package reminder delivers task reminders when they come due.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/rezkam/todoline/internal/domain"
)

// Repository is the slice of task storage the worker needs.
type Repository interface {
	List(ctx context.Context) ([]*domain.Task, error)
	Update(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error)
}

// Worker polls for due reminders and sends them.
type Worker struct {
	repo             Repository
	notifier         Notifier
	interval         time.Duration
	operationTimeout time.Duration
	location         *time.Location
	now              func() time.Time
	sent             metric.Int64Counter
	failed           metric.Int64Counter
}

// Option is a functional option for configuring Worker.
type Option func(*Worker)

// WithInterval sets how often the worker looks for due reminders.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		w.interval = d
	}
}

// WithOperationTimeout sets the timeout for one polling cycle.
func WithOperationTimeout(d time.Duration) Option {
	return func(w *Worker) {
		w.operationTimeout = d
	}
}

// WithLocation sets the zone due dates are shown in.
func WithLocation(loc *time.Location) Option {
	return func(w *Worker) {
		w.location = loc
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

// New creates a new Worker with the given repository, notifier and options.
func New(repo Repository, notifier Notifier, opts ...Option) *Worker {
	w := &Worker{
		repo:             repo,
		notifier:         notifier,
		interval:         30 * time.Second,
		operationTimeout: 30 * time.Second,
		location:         time.Local,
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	meter := otel.Meter("github.com/rezkam/todoline/internal/application/reminder")
	var err error
	if w.sent, err = meter.Int64Counter("todoline.reminders.sent"); err != nil {
		w.sent = noop.Int64Counter{}
	}
	if w.failed, err = meter.Int64Counter("todoline.reminders.failed"); err != nil {
		w.failed = noop.Int64Counter{}
	}

	return w
}

// Start runs the worker until ctx is cancelled, polling once immediately
// and then every interval. Polls never overlap, and a poll that is running
// when ctx ends finishes before Start returns.
func (w *Worker) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "Reminder worker started", "interval", w.interval)

	w.poll()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.poll()
		case <-ctx.Done():
			slog.InfoContext(ctx, "Reminder worker stopped gracefully")
			return nil
		}
	}
}

// poll runs one cycle with its own timeout, so shutdown does not cut a
// delivery off between sending and marking it notified.
func (w *Worker) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), w.operationTimeout)
	defer cancel()
	if _, err := w.RunOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "Error delivering reminders", "error", err)
	}
}

// RunOnce sends every reminder that is due and marks those tasks notified.
// A failed delivery is logged and left un-notified so the next cycle retries
// it. Returns the number of reminders delivered.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	tasks, err := w.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	now := w.now()
	sent := 0
	for _, task := range tasks {
		if !Due(task, now) {
			continue
		}

		if err := w.notifier.Notify(ctx, w.notification(task)); err != nil {
			slog.ErrorContext(ctx, "Failed to send reminder", "task_id", task.ID, "error", err)
			w.failed.Add(ctx, 1)
			continue
		}
		w.sent.Add(ctx, 1)

		notified := true
		_, err := w.repo.Update(ctx, domain.UpdateTaskParams{
			TaskID:     task.ID,
			UpdateMask: []string{domain.FieldNotified},
			Notified:   &notified,
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to mark reminder sent", "task_id", task.ID, "error", err)
			continue
		}
		sent++
	}

	if sent > 0 {
		slog.InfoContext(ctx, "Reminders delivered", "count", sent)
	}
	return sent, nil
}

// Due reports whether task's reminder should fire at now.
func Due(task *domain.Task, now time.Time) bool {
	if task.Completed || task.Notified {
		return false
	}
	fireAt, ok := task.Reminder.FireAt(task.Date)
	return ok && !fireAt.After(now)
}

func (w *Worker) notification(task *domain.Task) Notification {
	body := task.Description
	if body == "" {
		body = "Due " + task.Date.In(w.location).Format("Mon Jan 2 03:04 PM")
	}
	if label := task.TimeRangeLabelIn(w.location); label != "" {
		body += "\n" + label
	}
	return Notification{
		TaskID:   task.ID,
		Title:    strings.TrimSpace(task.Priority.Label + " " + task.Title),
		Body:     body,
		Priority: task.Priority.Level,
		Due:      task.Date,
	}
}
