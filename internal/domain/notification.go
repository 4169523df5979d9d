package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind is the severity of a transient user-facing message.
type NotificationKind string

const (
	NotificationInfo    NotificationKind = "info"
	NotificationSuccess NotificationKind = "success"
	NotificationWarning NotificationKind = "warning"
	NotificationError   NotificationKind = "error"
)

func (k NotificationKind) String() string { return string(k) }

func (k NotificationKind) IsValid() bool {
	switch k {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError:
		return true
	}
	return false
}

// Notification is an ephemeral message shown to the user.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	Message   string           `json:"message"`
	Kind      NotificationKind `json:"kind"`
	CreatedAt time.Time        `json:"createdAt"`
}
