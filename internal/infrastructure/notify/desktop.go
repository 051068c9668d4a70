// Package notify delivers reminders through desktop and push channels.
package notify

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/rezkam/todoline/internal/application/reminder"
)

// Desktop shows reminders as native desktop notifications.
type Desktop struct {
	// AppName is used as the notification title prefix when set.
	AppName string
	// Icon is a path to an icon file, or empty for the default.
	Icon string

	send func(title, message string, icon any) error
}

// NewDesktop creates a desktop notifier.
func NewDesktop(appName, icon string) *Desktop {
	return &Desktop{AppName: appName, Icon: icon, send: beeep.Notify}
}

// Notify pops up a notification for n.
func (d *Desktop) Notify(_ context.Context, n reminder.Notification) error {
	title := n.Title
	if d.AppName != "" {
		title = d.AppName + ": " + title
	}
	if err := d.send(title, n.Body, d.Icon); err != nil {
		return fmt.Errorf("desktop notification failed: %w", err)
	}
	return nil
}
