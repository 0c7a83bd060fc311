package supabase

import (
	"context"
	"math"
	"time"

	"github.com/creastat/aura"
)

// Table names used by the chat service.
const (
	TableConversations  = "ai_conversations"
	TableProfiles       = "profiles"
	TablePrayerRequests = "prayer_requests"
	TableJournalEntries = "journal_entries"
	TableSermons        = "sermons"
	TableBookmarks      = "bookmarks"
)

// Store provides access to Supabase data for chat service operations
type Store interface {
	// CreateConversation inserts an empty conversation owned by userID.
	CreateConversation(ctx context.Context, userID, title string) (*aura.Conversation, error)

	// GetConversation retrieves a conversation by ID.
	// Returns aura.ErrNotFound if no row matches.
	GetConversation(ctx context.Context, id string) (*aura.Conversation, error)

	// ListConversations returns the user's conversations, most recently updated first.
	ListConversations(ctx context.Context, userID string) ([]aura.Conversation, error)

	// SaveConversationWindow overwrites the persisted messages and title of a conversation.
	SaveConversationWindow(ctx context.Context, id string, messages []aura.Message, title string, updatedAt time.Time) error

	// GetProfile retrieves the profile of a user.
	// Returns aura.ErrNotFound if the user has no profile yet.
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	// SaveProfile updates the user's profile, creating it when missing.
	SaveProfile(ctx context.Context, userID string, update ProfileUpdate) (*Profile, error)

	// GetStats counts the user's rows across the devotional tables.
	GetStats(ctx context.Context, userID string) (*Stats, error)

	// VerifyToken resolves a Supabase access token to its user.
	VerifyToken(ctx context.Context, accessToken string) (*User, error)

	// Close closes the Supabase client and releases resources
	Close() error
}

// User is the authenticated principal behind an access token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Profile represents a row of the profiles table.
type Profile struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	DisplayName         string    `json:"display_name"`
	AvatarURL           string    `json:"avatar_url"`
	Bio                 string    `json:"bio"`
	ReadingStreak       int       `json:"reading_streak"`
	TotalReadingDays    int       `json:"total_reading_days"`
	FavoriteTranslation string    `json:"favorite_translation"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName         *string `json:"display_name,omitempty"`
	AvatarURL           *string `json:"avatar_url,omitempty"`
	Bio                 *string `json:"bio,omitempty"`
	FavoriteTranslation *string `json:"favorite_translation,omitempty"`
}

// Stats summarises a user's activity for the profile dashboard.
type Stats struct {
	TotalPrayers        int64 `json:"total_prayers"`
	AnsweredPrayers     int64 `json:"answered_prayers"`
	TotalJournalEntries int64 `json:"total_journal_entries"`
	TotalSermons        int64 `json:"total_sermons"`
	TotalBookmarks      int64 `json:"total_bookmarks"`
	TotalConversations  int64 `json:"total_conversations"`
}

// PrayerAnswerRate is the percentage of answered prayers, rounded to the nearest integer.
func (s Stats) PrayerAnswerRate() int {
	if s.TotalPrayers <= 0 {
		return 0
	}
	return int(math.Round(float64(s.AnsweredPrayers) / float64(s.TotalPrayers) * 100))
}

// conversationRow mirrors the ai_conversations table.
type conversationRow struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Title     string         `json:"title"`
	Messages  []aura.Message `json:"messages"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type conversationInsert struct {
	UserID   string         `json:"user_id"`
	Title    string         `json:"title"`
	Messages []aura.Message `json:"messages"`
}

type conversationUpdate struct {
	Messages  []aura.Message `json:"messages"`
	Title     string         `json:"title"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// toConversation normalises rows written by older clients, which may lack
// message IDs, timestamps or token counts.
func (r conversationRow) toConversation() aura.Conversation {
	messages := make([]aura.Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		if m.ID == "" {
			m.ID = aura.NewMessage(m.Role, m.Content).ID
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = r.UpdatedAt
		}
		if m.TokenCount == 0 {
			m.TokenCount = aura.EstimateTokens(m.Content)
		}
		messages = append(messages, m)
	}
	return aura.Conversation{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Messages:  messages,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
