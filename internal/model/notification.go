package model

import "time"

// NotificationLevel classifies a transient notification.
type NotificationLevel int

const (
	LevelInfo NotificationLevel = iota
	LevelSuccess
	LevelError
)

// Notification is a transient message surfaced in the status bar.
type Notification struct {
	// Level selects the styling.
	Level NotificationLevel

	// Message is the human-readable notification text.
	Message string

	// CreatedAt is when this notification was raised.
	CreatedAt time.Time

	// TTL is how long the notification stays visible.
	TTL time.Duration
}

// Expired reports whether the notification should no longer be shown.
func (n Notification) Expired(now time.Time) bool {
	return n.TTL > 0 && now.Sub(n.CreatedAt) >= n.TTL
}
