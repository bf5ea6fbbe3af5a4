package domain

import "time"

// Role of a conversation turn.
type Role string

// Roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Avatars shown next to each role.
const (
	AvatarUser      = "👨🏻"
	AvatarAssistant = "🤖"
)

// Message is one turn in a session's conversation log.
type Message struct {
	Role      Role      `json:"role"`
	Avatar    string    `json:"avatar"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserMessage builds a user turn.
func NewUserMessage(content string, at time.Time) Message {
	return Message{Role: RoleUser, Avatar: AvatarUser, Content: content, CreatedAt: at}
}

// NewAssistantMessage builds an assistant turn.
func NewAssistantMessage(content string, at time.Time) Message {
	return Message{Role: RoleAssistant, Avatar: AvatarAssistant, Content: content, CreatedAt: at}
}
