package journal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Stats
	}{
		{"empty", "", Stats{}},
		{"whitespace only", "  \n\n \t", Stats{Characters: 6}},
		{
			name:    "two paragraphs",
			content: "Lord, thank you.\n\nGive me strength today.",
			want:    Stats{Words: 7, Characters: 41, Paragraphs: 2, ReadingTime: 1},
		},
		{
			name:    "blank paragraphs ignored",
			content: "One\n\n   \n\nTwo",
			want:    Stats{Words: 2, Characters: 13, Paragraphs: 2, ReadingTime: 1},
		},
		{
			name:    "unicode characters",
			content: "🙏 Amen",
			want:    Stats{Words: 2, Characters: 6, Paragraphs: 1, ReadingTime: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStats(tt.content))
		})
	}
}

func TestComputeStatsReadingTime(t *testing.T) {
	assert.Equal(t, 1, ComputeStats(strings.Repeat("word ", 200)).ReadingTime)
	assert.Equal(t, 2, ComputeStats(strings.Repeat("word ", 201)).ReadingTime)
}
