package domain

import "time"

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleAgent     ChatRole = "agent"
)

const MaxChatMessageLength = 4000

type ChatMessage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID string    `gorm:"size:64;index;not null" json:"session_id"`
	UserID    *string   `gorm:"size:36;index" json:"user_id,omitempty"`
	Role      ChatRole  `gorm:"size:16;not null" json:"role"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
