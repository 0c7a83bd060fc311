package vectorstore

import "context"

// VectorStore is a technology-agnostic interface for scripture similarity search.
// Implementations can use Qdrant, Pinecone, Supabase Vector, Weaviate, etc.
type VectorStore interface {
	// Search performs vector similarity search with optional filtering.
	Search(ctx context.Context, vector []float32, filter SearchFilter, limit int) ([]SearchResult, error)

	// Close releases any resources held by the vector store.
	Close() error
}

// SearchFilter defines filtering options for verse search.
type SearchFilter struct {
	// Translation restricts results to one Bible translation (e.g. "KJV").
	Translation string

	// Books restricts results to the given books.
	Books []string

	// MinScore filters results below this similarity threshold (0.0-1.0).
	MinScore float32
}

// SearchResult represents a single verse returned by similarity search.
type SearchResult struct {
	// ID is the unique identifier of the point.
	ID string

	// Score is the similarity score (0.0-1.0, higher is more similar).
	Score float32

	// Reference is the human-readable verse reference, e.g. "John 3:16".
	Reference string

	// Text is the verse text.
	Text string

	Translation string
	Book        string
}
