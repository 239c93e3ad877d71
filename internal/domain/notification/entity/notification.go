package entity

import (
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is a transient message shown to the user after an action
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a notification stamped at now
func New(level Level, message, detail string, now time.Time) Notification {
	return Notification{
		ID:        uuid.New(),
		Level:     level,
		Message:   message,
		Detail:    detail,
		CreatedAt: now,
	}
}
