// Package journal provides writing helpers for devotional journal entries.
package journal

import (
	"strings"
	"unicode/utf8"
)

// WordsPerMinute is the reading speed used for ReadingTime.
const WordsPerMinute = 200

// Stats describes the size of a journal entry.
type Stats struct {
	Words       int `json:"word_count"`
	Characters  int `json:"char_count"`
	Paragraphs  int `json:"paragraphs"`
	ReadingTime int `json:"reading_time"` // minutes
}

// ComputeStats counts words, characters and paragraphs of content.
// Paragraphs are separated by a blank line; whitespace-only paragraphs are ignored.
func ComputeStats(content string) Stats {
	words := len(strings.Fields(content))

	paragraphs := 0
	for _, p := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}

	return Stats{
		Words:       words,
		Characters:  utf8.RuneCountInString(content),
		Paragraphs:  paragraphs,
		ReadingTime: (words + WordsPerMinute - 1) / WordsPerMinute,
	}
}
