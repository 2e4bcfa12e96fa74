package models

import (
	"time"
)

// ChatSession is the single ongoing conversation between one user and support.
type ChatSession struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UserID    uint          `gorm:"not null;index" json:"userId"`
	Status    SessionStatus `gorm:"type:varchar(32);not null;default:active" json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `gorm:"index" json:"updatedAt"`
	User      *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Messages  []Message     `gorm:"foreignKey:ChatSessionID" json:"messages"`
}

// SessionStatus defines the lifecycle state of a chat session
type SessionStatus string

const (
	SessionActive          SessionStatus = "active"            // auto-responder answers
	SessionWaitingForAdmin SessionStatus = "waiting_for_admin" // user asked for a human
	SessionClosed          SessionStatus = "closed"
)

// IsOpen reports whether the session still counts against the one-open-session rule.
func (s SessionStatus) IsOpen() bool {
	return s != SessionClosed
}
