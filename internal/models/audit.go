package models

import (
	"time"

	"github.com/google/uuid"
)

// ActionLog is one immutable audit entry describing an administrative action.
type ActionLog struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        *uuid.UUID `db:"user_id" json:"user_id"`
	ActorUsername *string    `db:"actor_username" json:"actor_username,omitempty"`
	Action        string     `db:"action" json:"action"`
	Subject       string     `db:"subject" json:"subject"`
	IP            *string    `db:"ip" json:"ip"`
	UserAgent     string     `db:"user_agent" json:"user_agent"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// LoginEvent distinguishes the three authentication hook points.
type LoginEvent string

const (
	LoginEventLogin  LoginEvent = "login"
	LoginEventLogout LoginEvent = "logout"
	LoginEventFailed LoginEvent = "failed"
)

// LoginHistory is one immutable authentication attempt record.
type LoginHistory struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    *uuid.UUID `db:"user_id" json:"user_id"`
	Username  string     `db:"username" json:"username"`
	Event     LoginEvent `db:"event" json:"event"`
	Success   bool       `db:"success" json:"success"`
	IP        *string    `db:"ip" json:"ip"`
	UserAgent string     `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// ActionLogFilter narrows action log reads.
type ActionLogFilter struct {
	UserID *uuid.UUID
	Action string
	From   *time.Time
	To     *time.Time
	Limit  uint64
	Offset uint64
}

// LoginHistoryFilter narrows login history reads.
type LoginHistoryFilter struct {
	UserID   *uuid.UUID
	Username string
	Success  *bool
	From     *time.Time
	To       *time.Time
	Limit    uint64
	Offset   uint64
}
