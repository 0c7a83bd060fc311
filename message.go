package aura

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// DefaultConversationTitle is the placeholder title of a new conversation.
// It is replaced by a title derived from the first user message.
const DefaultConversationTitle = "New Biblical Conversation"

const titleMaxRunes = 50

// Message is a single chat message. Messages are never mutated once created.
type Message struct {
	ID         string    `json:"id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Model      string    `json:"model,omitempty"` // assistant only
	TokenCount int       `json:"token_count,omitempty"`
}

// Conversation is an ordered chat history owned by a single user.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMessage creates a message with a fresh ID, the current timestamp and an
// estimated token count.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:         uuid.NewString(),
		Role:       role,
		Content:    content,
		Timestamp:  time.Now().UTC(),
		TokenCount: EstimateTokens(content),
	}
}

// NewAssistantMessage creates an assistant message tagged with the model that produced it.
func NewAssistantMessage(content, model string) Message {
	msg := NewMessage(RoleAssistant, content)
	msg.Model = model
	return msg
}

// DeriveTitle builds a conversation title from the first user message:
// the first 50 characters, with "..." appended when the text was cut.
func DeriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleMaxRunes {
		return text
	}
	return string(runes[:titleMaxRunes]) + "..."
}

// TitleFor returns the title the conversation should carry after userText is sent.
// Only the default placeholder is replaced, along with an empty title, which
// rows created outside the service may carry.
func TitleFor(currentTitle, userText string) string {
	if currentTitle == DefaultConversationTitle || currentTitle == "" {
		return DeriveTitle(userText)
	}
	return currentTitle
}

// EstimateTokens estimates the token count for a given text using a Unicode-aware heuristic.
// ASCII characters are weighted at ~4 per token, anything else at ~1 per token.
func EstimateTokens(text string) int {
	weight := 0
	for _, r := range text {
		if r <= 127 {
			weight++
		} else {
			weight += 4
		}
	}
	return (weight + 3) / 4
}
