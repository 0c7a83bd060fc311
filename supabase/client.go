package supabase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"golang.org/x/sync/errgroup"

	"github.com/creastat/aura"
)

// Config holds Supabase connection configuration
type Config struct {
	URL      string
	APIKey   string
	CacheTTL time.Duration // Default: 5 minutes
}

// Client implements the Store interface using Supabase
type Client struct {
	client   *supabase.Client
	profiles *cache[*Profile]
}

// cache provides thread-safe TTL caching for frequently read rows
type cache[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry[T]
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// New creates a new Supabase client
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		client:   client,
		profiles: newCache[*Profile](cfg.CacheTTL),
	}, nil
}

// CreateConversation implements Store.
func (c *Client) CreateConversation(ctx context.Context, userID, title string) (*aura.Conversation, error) {
	var rows []conversationRow
	_, err := c.client.From(TableConversations).
		Insert(conversationInsert{UserID: userID, Title: title, Messages: []aura.Message{}}, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to create conversation: no row returned")
	}

	conv := rows[0].toConversation()
	return &conv, nil
}

// GetConversation implements Store.
func (c *Client) GetConversation(ctx context.Context, id string) (*aura.Conversation, error) {
	var rows []conversationRow
	_, err := c.client.From(TableConversations).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("conversation %s: %w", id, aura.ErrNotFound)
	}

	conv := rows[0].toConversation()
	return &conv, nil
}

// ListConversations implements Store.
func (c *Client) ListConversations(ctx context.Context, userID string) ([]aura.Conversation, error) {
	var rows []conversationRow
	_, err := c.client.From(TableConversations).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	conversations := make([]aura.Conversation, 0, len(rows))
	for _, row := range rows {
		conversations = append(conversations, row.toConversation())
	}
	return conversations, nil
}

// SaveConversationWindow implements Store.
func (c *Client) SaveConversationWindow(ctx context.Context, id string, messages []aura.Message, title string, updatedAt time.Time) error {
	var rows []conversationRow
	_, err := c.client.From(TableConversations).
		Update(conversationUpdate{Messages: messages, Title: title, UpdatedAt: updatedAt}, "representation", "").
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("conversation %s: %w", id, aura.ErrNotFound)
	}
	return nil
}

// GetProfile implements Store.
func (c *Client) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if cached, ok := c.profiles.get(userID); ok {
		return cached, nil
	}

	profile, err := c.fetchProfile(userID)
	if err != nil {
		return nil, err
	}

	c.profiles.set(userID, profile)
	return profile, nil
}

// SaveProfile implements Store.
func (c *Client) SaveProfile(ctx context.Context, userID string, update ProfileUpdate) (*Profile, error) {
	c.profiles.delete(userID)

	values := profileValues(update)
	values["updated_at"] = time.Now().UTC()

	var rows []Profile
	_, err := c.client.From(TableProfiles).
		Update(values, "representation", "").
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if len(rows) == 0 {
		values["user_id"] = userID
		_, err = c.client.From(TableProfiles).
			Insert(values, false, "", "representation", "").
			ExecuteTo(&rows)
		if err != nil {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("failed to create profile: no row returned")
		}
	}

	profile := &rows[0]
	c.profiles.set(userID, profile)
	return profile, nil
}

// GetStats implements Store.
// The six counts are fetched concurrently.
func (c *Client) GetStats(ctx context.Context, userID string) (*Stats, error) {
	var stats Stats
	g, _ := errgroup.WithContext(ctx)

	count := func(dst *int64, table string, filters map[string]string) {
		g.Go(func() error {
			q := c.client.From(table).
				Select("id", "exact", true).
				Eq("user_id", userID)
			for col, val := range filters {
				q = q.Eq(col, val)
			}
			_, n, err := q.Execute()
			if err != nil {
				return fmt.Errorf("failed to count %s: %w", table, err)
			}
			*dst = n
			return nil
		})
	}

	count(&stats.TotalPrayers, TablePrayerRequests, nil)
	count(&stats.AnsweredPrayers, TablePrayerRequests, map[string]string{"status": "answered"})
	count(&stats.TotalJournalEntries, TableJournalEntries, nil)
	count(&stats.TotalSermons, TableSermons, nil)
	count(&stats.TotalBookmarks, TableBookmarks, nil)
	count(&stats.TotalConversations, TableConversations, nil)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

// VerifyToken implements Store.
func (c *Client) VerifyToken(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.client.Auth.WithToken(accessToken).GetUser()
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	return &User{ID: resp.ID.String(), Email: resp.Email}, nil
}

// Close closes the Supabase client
func (c *Client) Close() error {
	// Supabase client doesn't require explicit close
	return nil
}

func (c *Client) fetchProfile(userID string) (*Profile, error) {
	var profiles []Profile
	_, err := c.client.From(TableProfiles).
		Select("*", "", false).
		Eq("user_id", userID).
		ExecuteTo(&profiles)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("profile for %s: %w", userID, aura.ErrNotFound)
	}
	return &profiles[0], nil
}

func profileValues(update ProfileUpdate) map[string]any {
	values := make(map[string]any)
	if update.DisplayName != nil {
		values["display_name"] = *update.DisplayName
	}
	if update.AvatarURL != nil {
		values["avatar_url"] = *update.AvatarURL
	}
	if update.Bio != nil {
		values["bio"] = *update.Bio
	}
	if update.FavoriteTranslation != nil {
		values["favorite_translation"] = *update.FavoriteTranslation
	}
	return values
}

func newCache[T any](ttl time.Duration) *cache[T] {
	return &cache[T]{ttl: ttl, entries: make(map[string]cacheEntry[T])}
}

func (c *cache[T]) get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.entries[key]; ok && time.Now().Before(e.expiresAt) {
		return e.value, true
	}
	var zero T
	return zero, false
}

func (c *cache[T]) set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry[T]{value: value, expiresAt: time.Now().Add(c.ttl)}
}

func (c *cache[T]) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Compile-time check that Client implements Store
var _ Store = (*Client)(nil)
