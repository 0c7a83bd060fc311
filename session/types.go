package session

import (
	"time"

	"github.com/creastat/aura"
)

// SessionData is the full in-session history of one conversation.
// The persisted conversation only keeps the last aura.HistoryLimit messages;
// the session keeps everything exchanged since it was created.
type SessionData struct {
	ID        string         `json:"id"` // conversation ID
	UserID    string         `json:"user_id"`
	Title     string         `json:"title"`
	Messages  []aura.Message `json:"messages"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Version   int64          `json:"version"` // Monotonically increasing for optimistic locking
}

// FromConversation seeds a session from a persisted conversation.
func FromConversation(conv *aura.Conversation) *SessionData {
	messages := make([]aura.Message, len(conv.Messages))
	copy(messages, conv.Messages)
	return &SessionData{
		ID:       conv.ID,
		UserID:   conv.UserID,
		Title:    conv.Title,
		Messages: messages,
	}
}

func (d *SessionData) clone() *SessionData {
	out := *d
	out.Messages = make([]aura.Message, len(d.Messages))
	copy(out.Messages, d.Messages)
	return &out
}
