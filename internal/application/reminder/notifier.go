package reminder

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Notification is one reminder ready to deliver.
type Notification struct {
	TaskID   string
	Title    string
	Body     string
	Priority int
	Due      time.Time
}

// Notifier delivers reminders to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes reminders to the structured log. It is the fallback
// when no other channel is configured.
type LogNotifier struct{}

// Notify logs n at info level.
func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	slog.InfoContext(ctx, "Task reminder",
		"task_id", n.TaskID,
		"title", n.Title,
		"body", n.Body,
		"due", n.Due)
	return nil
}

// Multi fans a reminder out to several notifiers. It succeeds when at least
// one of them delivers, so a single broken channel does not cause the others
// to repeat the reminder on the next tick. Failures are still logged.
type Multi []Notifier

// Notify calls every notifier in order.
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			slog.WarnContext(ctx, "Reminder channel failed", "task_id", n.TaskID, "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 && len(errs) == len(m) {
		return errors.Join(errs...)
	}
	return nil
}
