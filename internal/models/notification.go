package models

import "time"

type NotificationKind string

const (
	NotificationWelcome      NotificationKind = "welcome"
	NotificationVerification NotificationKind = "verification"
)

// Notification is a messaging event addressed to a WhatsApp number.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	UserID    string           `json:"user_id,omitempty"`
	Name      string           `json:"name"`
	Phone     string           `json:"phone"`
	Link      string           `json:"link,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
