package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creastat/aura"
)

func completionServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func writeCompletion(w http.ResponseWriter, model, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "cmpl-1",
		"object": "chat.completion",
		"model":  model,
		"choices": []map[string]any{
			{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20},
	})
}

func TestGenerate_Success(t *testing.T) {
	var body map[string]any
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeCompletion(w, "deepseek-chat-v3", "For God so loved the world.")
	})

	client := NewOpenAI(Config{APIKey: "test-key", BaseURL: server.URL})
	resp, err := client.Generate(context.Background(), FromHistory("be pastoral", []aura.Message{
		aura.NewMessage(aura.RoleUser, "What does John 3:16 mean?"),
	}))
	require.NoError(t, err)

	assert.Equal(t, "For God so loved the world.", resp.Content)
	assert.Equal(t, "deepseek-chat-v3", resp.Model)
	assert.Equal(t, 20, resp.TotalTokens)

	assert.Equal(t, DefaultModel, body["model"])
	assert.EqualValues(t, DefaultMaxTokens, body["max_tokens"])
	assert.InDelta(t, DefaultTemperature, body["temperature"], 0.001)
	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestGenerate_CallOptions(t *testing.T) {
	var body map[string]any
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeCompletion(w, "", "ok")
	})

	client := NewOpenAI(Config{APIKey: "k", BaseURL: server.URL, Model: "custom"})
	resp, err := client.Generate(context.Background(), []Message{{Role: aura.RoleUser, Content: "hi"}},
		WithMaxTokens(400), WithTemperature(0.2))
	require.NoError(t, err)

	assert.Equal(t, "custom", resp.Model, "falls back to configured model")
	assert.EqualValues(t, 400, body["max_tokens"])
	assert.InDelta(t, 0.2, body["temperature"], 0.001)
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			},
			want: aura.ErrUnavailable,
		},
		{
			name: "non json error body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`bad gateway`))
			},
			want: aura.ErrUnavailable,
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"model":"m","choices":[]}`))
			},
			want: aura.ErrMalformedResponse,
		},
		{
			name: "empty content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeCompletion(w, "m", "   ")
			},
			want: aura.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := completionServer(t, tt.handler)
			client := NewOpenAI(Config{APIKey: "k", BaseURL: server.URL})

			_, err := client.Generate(context.Background(), []Message{{Role: aura.RoleUser, Content: "hi"}})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGenerate_Timeout(t *testing.T) {
	aborted := make(chan struct{})
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.ReadAll(r.Body)
		select {
		case <-r.Context().Done():
			close(aborted)
		case <-time.After(2 * time.Second):
		}
	})
	client := NewOpenAI(Config{APIKey: "k", BaseURL: server.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Generate(ctx, []Message{{Role: aura.RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, aura.ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)

	select {
	case <-aborted:
	case <-time.After(time.Second):
		t.Fatal("server did not see the request abort")
	}
}

func TestEmbed(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"embed","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}]}`))
	})

	client := NewOpenAI(Config{APIKey: "k", BaseURL: server.URL, EmbeddingModel: "embed"})
	vectors, err := client.Embed(context.Background(), []string{"faith"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vectors[0])

	_, err = NewOpenAI(Config{BaseURL: server.URL}).Embed(context.Background(), []string{"faith"})
	assert.ErrorIs(t, err, aura.ErrInvalidConfig)
}
