package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/rezkam/todoline/internal/application/reminder"
)

// messageSender is the part of *messaging.Client FCM uses.
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCM sends reminders as Firebase Cloud Messaging pushes to a topic that
// the user's devices subscribe to.
type FCM struct {
	client messageSender
	topic  string
}

// NewFCM creates a push notifier from a service-account credentials file.
// An empty credentialsFile uses application default credentials.
func NewFCM(ctx context.Context, projectID, credentialsFile, topic string) (*FCM, error) {
	app, err := NewFirebaseApp(ctx, projectID, credentialsFile)
	if err != nil {
		return nil, err
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	slog.InfoContext(ctx, "FCM client initialized", "topic", topic)
	return &FCM{client: client, topic: topic}, nil
}

// NewFirebaseApp initializes a Firebase app. Shared by FCM and the
// Firestore store.
func NewFirebaseApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}

// Notify publishes n to the configured topic.
func (f *FCM) Notify(ctx context.Context, n reminder.Notification) error {
	message := &messaging.Message{
		Topic: f.topic,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: map[string]string{
			"type":     "task_reminder",
			"task_id":  n.TaskID,
			"priority": strconv.Itoa(n.Priority),
			"due":      n.Due.UTC().Format(time.RFC3339),
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: n.Title,
				Body:  n.Body,
			},
		},
	}

	id, err := f.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}

	slog.DebugContext(ctx, "FCM message sent", "message_id", id, "task_id", n.TaskID)
	return nil
}
