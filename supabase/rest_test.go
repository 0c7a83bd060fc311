package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creastat/aura"
)

// restCall is one request received by the fake PostgREST server.
type restCall struct {
	Method string
	Table  string
	Query  url.Values
	Prefer string
	Body   map[string]any
}

type restServer struct {
	mu    sync.Mutex
	calls []restCall
}

func (s *restServer) recorded() []restCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]restCall(nil), s.calls...)
}

// newRestClient starts a fake PostgREST endpoint. respond writes the reply
// for each call; the call has already been recorded.
func newRestClient(t *testing.T, respond func(w http.ResponseWriter, call restCall)) (*Client, *restServer) {
	t.Helper()

	rs := &restServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := restCall{
			Method: r.Method,
			Table:  strings.TrimPrefix(r.URL.Path, "/rest/v1/"),
			Query:  r.URL.Query(),
			Prefer: r.Header.Get("Prefer"),
		}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &call.Body)
		}

		rs.mu.Lock()
		rs.calls = append(rs.calls, call)
		rs.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		respond(w, call)
	}))
	t.Cleanup(srv.Close)

	client, err := New(Config{URL: srv.URL, APIKey: "service-key"})
	require.NoError(t, err)
	return client, rs
}

func writeRows(w http.ResponseWriter, rows string) {
	_, _ = w.Write([]byte(rows))
}

const conversationJSON = `{"id":"c1","user_id":"u1","title":"Grace","messages":[{"id":"m1","role":"user","content":"What is grace?","timestamp":"2024-05-01T12:00:00Z"}],"created_at":"2024-05-01T11:00:00Z","updated_at":"2024-05-01T12:00:00Z"}`

func TestCreateConversation(t *testing.T) {
	client, rs := newRestClient(t, func(w http.ResponseWriter, call restCall) {
		writeRows(w, `[{"id":"c1","user_id":"u1","title":"New Biblical Conversation","messages":[],"created_at":"2024-05-01T11:00:00Z","updated_at":"2024-05-01T11:00:00Z"}]`)
	})

	conv, err := client.CreateConversation(context.Background(), "u1", aura.DefaultConversationTitle)
	require.NoError(t, err)
	assert.Equal(t, "c1", conv.ID)
	assert.Equal(t, "u1", conv.UserID)
	assert.Empty(t, conv.Messages)

	calls := rs.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, TableConversations, calls[0].Table)
	assert.Contains(t, calls[0].Prefer, "return=representation")
	assert.Equal(t, "u1", calls[0].Body["user_id"])
	assert.Equal(t, aura.DefaultConversationTitle, calls[0].Body["title"])
	assert.Equal(t, []any{}, calls[0].Body["messages"])
}

func TestGetConversation(t *testing.T) {
	client, rs := newRestClient(t, func(w http.ResponseWriter, call restCall) {
		if call.Query.Get("id") == "eq.c1" {
			writeRows(w, "["+conversationJSON+"]")
			return
		}
		writeRows(w, `[]`)
	})

	conv, err := client.GetConversation(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Grace", conv.Title)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "m1", conv.Messages[0].ID)
	assert.Equal(t, aura.RoleUser, conv.Messages[0].Role)

	_, err = client.GetConversation(context.Background(), "nope")
	assert.ErrorIs(t, err, aura.ErrNotFound)

	calls := rs.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodGet, calls[0].Method)
	assert.Equal(t, TableConversations, calls[0].Table)
	assert.Equal(t, "eq.nope", calls[1].Query.Get("id"))
}

func TestListConversations(t *testing.T) {
	client, rs := newRestClient(t, func(w http.ResponseWriter, call restCall) {
		writeRows(w, `[
			{"id":"c2","user_id":"u1","title":"Hope","messages":[],"updated_at":"2024-05-02T12:00:00Z"},
			{"id":"c1","user_id":"u1","title":"Grace","messages":[],"updated_at":"2024-05-01T12:00:00Z"}
		]`)
	})

	convs, err := client.ListConversations(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "c2", convs[0].ID)
	assert.Equal(t, "c1", convs[1].ID)

	calls := rs.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "eq.u1", calls[0].Query.Get("user_id"))
	assert.True(t, strings.HasPrefix(calls[0].Query.Get("order"), "updated_at.desc"),
		"unexpected order %q", calls[0].Query.Get("order"))
}

func TestListConversations_Empty(t *testing.T) {
	client, _ := newRestClient(t, func(w http.ResponseWriter, call restCall) {
		writeRows(w, `[]`)
	})

	convs, err := client.ListConversations(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, convs)
	assert.Empty(t, convs)
}

func TestSaveConversationWindow(t *testing.T) {
	client, rs := newRestClient(t, func(w http.ResponseWriter, call restCall) {
		if call.Query.Get("id") == "eq.c1" {
			writeRows(w, "["+conversationJSON+"]")
			return
		}
		writeRows(w, `[]`)
	})

	updated := time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)
	window := []aura.Message{aura.NewMessage(aura.RoleUser, "What is grace?")}

	require.NoError(t, client.SaveConversationWindow(context.Background(), "c1", window, "Grace", updated))

	err := client.SaveConversationWindow(context.Background(), "nope", window, "Grace", updated)
	assert.ErrorIs(t, err, aura.ErrNotFound)

	calls := rs.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPatch, calls[0].Method)
	assert.Equal(t, TableConversations, calls[0].Table)
	assert.Equal(t, "eq.c1", calls[0].Query.Get("id"))
	assert.Contains(t, calls[0].Prefer, "return=representation")
	assert.Equal(t, "Grace", calls[0].Body["title"])
	assert.Len(t, calls[0].Body["messages"], 1)
	assert.Equal(t, "2024-05-03T09:00:00Z", calls[0].Body["updated_at"])
}

func TestSaveProfile_UpdatesExistingRow(t *testing.T) {
	client, rs := newRestClient(t, func(w http.ResponseWriter, call restCall) {
		writeRows(w, `[{"id":"p1","user_id":"u1","display_name":"Ruth","favorite_translation":"KJV"}]`)
	})

	name := "Ruth"
	profile, err := client.SaveProfile(context.Background(), "u1", ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ruth", profile.DisplayName)

	calls := rs.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPatch, calls[0].Method)
	assert.Equal(t, TableProfiles, calls[0].Table)
	assert.Equal(t, "eq.u1", calls[0].Query.Get("user_id"))
	assert.Equal(t, "Ruth", calls[0].Body["display_name"])
	assert.Contains(t, calls[0].Body, "updated_at")
	assert.NotContains(t, calls[0].Body, "bio")
}

func TestSaveProfile_InsertsWhenMissing(t *testing.T) {
	client, rs := newRestClient(t, func(w http.ResponseWriter, call restCall) {
		if call.Method == http.MethodPatch {
			writeRows(w, `[]`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeRows(w, `[{"id":"p1","user_id":"u1","display_name":"Ruth"}]`)
	})

	name := "Ruth"
	profile, err := client.SaveProfile(context.Background(), "u1", ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "p1", profile.ID)

	calls := rs.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPatch, calls[0].Method)
	assert.Equal(t, http.MethodPost, calls[1].Method)
	assert.Equal(t, TableProfiles, calls[1].Table)
	assert.Equal(t, "u1", calls[1].Body["user_id"])
	assert.Equal(t, "Ruth", calls[1].Body["display_name"])

	// The saved profile is served from the cache.
	cached, err := client.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Same(t, profile, cached)
	assert.Len(t, rs.recorded(), 2)
}

func TestGetProfile_NotFound(t *testing.T) {
	client, _ := newRestClient(t, func(w http.ResponseWriter, call restCall) {
		writeRows(w, `[]`)
	})

	_, err := client.GetProfile(context.Background(), "u1")
	assert.ErrorIs(t, err, aura.ErrNotFound)
}

func TestGetStats(t *testing.T) {
	counts := map[string]int{
		TablePrayerRequests: 8,
		TableJournalEntries: 5,
		TableSermons:        2,
		TableBookmarks:      7,
		TableConversations:  3,
	}
	client, rs := newRestClient(t, func(w http.ResponseWriter, call restCall) {
		n := counts[call.Table]
		if call.Table == TablePrayerRequests && call.Query.Get("status") == "eq.answered" {
			n = 6
		}
		w.Header().Set("Content-Range", fmt.Sprintf("*/%d", n))
	})

	stats, err := client.GetStats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, &Stats{
		TotalPrayers:        8,
		AnsweredPrayers:     6,
		TotalJournalEntries: 5,
		TotalSermons:        2,
		TotalBookmarks:      7,
		TotalConversations:  3,
	}, stats)
	assert.Equal(t, 75, stats.PrayerAnswerRate())

	calls := rs.recorded()
	require.Len(t, calls, 6)
	answered := 0
	for _, call := range calls {
		assert.Equal(t, http.MethodHead, call.Method)
		assert.Equal(t, "eq.u1", call.Query.Get("user_id"))
		assert.Contains(t, call.Prefer, "count=exact")
		if call.Query.Get("status") == "eq.answered" {
			assert.Equal(t, TablePrayerRequests, call.Table)
			answered++
		}
	}
	assert.Equal(t, 1, answered)
}

func TestGetStats_PropagatesErrors(t *testing.T) {
	client, _ := newRestClient(t, func(w http.ResponseWriter, call restCall) {
		if call.Table == TableSermons {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Range", "*/1")
	})

	_, err := client.GetStats(context.Background(), "u1")
	assert.Error(t, err)
}
