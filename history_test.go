package aura

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildHistory(n int) []Message {
	var history []Message
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		history, _ = AppendMessage(history, role, fmt.Sprintf("message %d", i))
	}
	return history
}

func TestWindow_KeepsMostRecent(t *testing.T) {
	history := buildHistory(13)

	window := Window(history)

	require.Len(t, window, HistoryLimit)
	assert.Equal(t, "message 3", window[0].Content)
	assert.Equal(t, "message 12", window[HistoryLimit-1].Content)
}

func TestWindow_ShortHistoryUnchanged(t *testing.T) {
	history := buildHistory(4)

	window := Window(history)

	assert.Equal(t, history, window)
}

func TestWindow_DoesNotAlias(t *testing.T) {
	history := buildHistory(3)

	window := Window(history)
	window[0].Content = "mutated"

	assert.Equal(t, "message 0", history[0].Content)
}

func TestTruncateHistory(t *testing.T) {
	history := []Message{
		{Content: "a", TokenCount: 5},
		{Content: "b", TokenCount: 5},
		{Content: "c", TokenCount: 5},
		{Content: "d", TokenCount: 5},
	}

	tests := []struct {
		name         string
		tokenLimit   int
		messageLimit int
		want         []string
	}{
		{"message limit only", 0, 2, []string{"c", "d"}},
		{"token limit drops oldest", 10, 4, []string{"c", "d"}},
		{"message limit before token limit", 100, 3, []string{"b", "c", "d"}},
		{"everything dropped", 1, 4, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateHistory(history, tt.tokenLimit, tt.messageLimit)
			contents := make([]string, 0, len(got))
			for _, m := range got {
				contents = append(contents, m.Content)
			}
			assert.Equal(t, tt.want, contents)
		})
	}
}

func TestTruncateHistory_Empty(t *testing.T) {
	assert.Empty(t, TruncateHistory(nil, 10, 10))
}
