package vectorstore

import (
	"context"
	"fmt"
	"strings"
)

// DefaultPassageLimit is the number of passages fetched when Retriever.Limit is unset.
const DefaultPassageLimit = 3

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever finds scripture passages related to a piece of text.
type Retriever struct {
	Embedder Embedder
	Store    VectorStore
	Limit    int
	Filter   SearchFilter
}

// Passages embeds text and returns the closest verses.
func (r *Retriever) Passages(ctx context.Context, text string) ([]SearchResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	vectors, err := r.Embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("failed to embed text: no vector returned")
	}

	limit := r.Limit
	if limit <= 0 {
		limit = DefaultPassageLimit
	}

	results, err := r.Store.Search(ctx, vectors[0], r.Filter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search passages: %w", err)
	}
	return results, nil
}

// FormatPassages renders passages as a block appended to the system instruction.
// It returns "" when there is nothing to add.
func FormatPassages(passages []SearchResult) string {
	if len(passages) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Relevant scripture passages:\n")
	for _, p := range passages {
		b.WriteString("- ")
		b.WriteString(p.Reference)
		if p.Translation != "" {
			b.WriteString(" (")
			b.WriteString(p.Translation)
			b.WriteString(")")
		}
		b.WriteString(": ")
		b.WriteString(p.Text)
		b.WriteString("\n")
	}
	return b.String()
}
