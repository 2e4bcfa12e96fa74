package models

import (
	"time"
)

// Message is one chat utterance. SenderID is set only when the session owner wrote it;
// staff replies and auto-replies are stored with a nil sender and IsBot set.
type Message struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ChatSessionID uint      `gorm:"not null;index:idx_messages_session_created,priority:1" json:"chatSessionId"`
	SenderID      *uint     `json:"senderId"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	IsBot         bool      `gorm:"not null;default:false" json:"isBot"`
	CreatedAt     time.Time `gorm:"index:idx_messages_session_created,priority:2" json:"createdAt"`
	Sender        *User     `gorm:"foreignKey:SenderID" json:"sender"`
}

// NewUserMessage creates a message authored by the session owner
func NewUserMessage(sessionID, senderID uint, content string) Message {
	id := senderID
	return Message{
		ChatSessionID: sessionID,
		SenderID:      &id,
		Content:       content,
	}
}

// NewBotMessage creates a message shown to the user as coming from the assistant.
// Support replies from staff are stored the same way.
func NewBotMessage(sessionID uint, content string) Message {
	return Message{
		ChatSessionID: sessionID,
		Content:       content,
		IsBot:         true,
	}
}
