package config

import (
	"fmt"
	"slices"
)

// Notification channels for reminders.
const (
	ChannelLog     = "log"
	ChannelDesktop = "desktop"
	ChannelFCM     = "fcm"
)

// NotifyConfig selects where reminders are delivered.
type NotifyConfig struct {
	Channels []string `env:"TODOLINE_NOTIFY_CHANNELS" default:"log"`

	DesktopAppName string `env:"TODOLINE_DESKTOP_APP_NAME" default:"Todoline"`
	DesktopIcon    string `env:"TODOLINE_DESKTOP_ICON"`

	FCMTopic string `env:"TODOLINE_FCM_TOPIC" default:"reminders"`
	Firebase FirebaseConfig
}

// Validate checks the channel names.
func (c *NotifyConfig) Validate() error {
	if len(c.Channels) == 0 {
		return fmt.Errorf("TODOLINE_NOTIFY_CHANNELS must name at least one channel")
	}
	for _, ch := range c.Channels {
		if !slices.Contains([]string{ChannelLog, ChannelDesktop, ChannelFCM}, ch) {
			return fmt.Errorf("unknown notification channel: %q", ch)
		}
	}
	if c.Enabled(ChannelFCM) && c.FCMTopic == "" {
		return fmt.Errorf("TODOLINE_FCM_TOPIC is required for the %q channel", ChannelFCM)
	}
	return nil
}

// Enabled reports whether channel is configured.
func (c *NotifyConfig) Enabled(channel string) bool {
	return slices.Contains(c.Channels, channel)
}
