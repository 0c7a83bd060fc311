package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vectors [][]float32
	err     error
	inputs  []string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.inputs = append(f.inputs, texts...)
	return f.vectors, f.err
}

type fakeStore struct {
	results []SearchResult
	limit   int
	filter  SearchFilter
	vector  []float32
}

func (f *fakeStore) Search(_ context.Context, vector []float32, filter SearchFilter, limit int) ([]SearchResult, error) {
	f.vector, f.filter, f.limit = vector, filter, limit
	return f.results, nil
}

func (f *fakeStore) Close() error { return nil }

func TestRetrieverPassages(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float32{{0.1, 0.2}}}
	store := &fakeStore{results: []SearchResult{{Reference: "John 3:16", Text: "For God so loved the world"}}}
	r := &Retriever{Embedder: embedder, Store: store, Filter: SearchFilter{Translation: "KJV"}}

	passages, err := r.Passages(context.Background(), "What does love mean?")
	require.NoError(t, err)
	assert.Len(t, passages, 1)
	assert.Equal(t, []string{"What does love mean?"}, embedder.inputs)
	assert.Equal(t, DefaultPassageLimit, store.limit)
	assert.Equal(t, "KJV", store.filter.Translation)
	assert.Equal(t, []float32{0.1, 0.2}, store.vector)
}

func TestRetrieverBlankText(t *testing.T) {
	embedder := &fakeEmbedder{}
	r := &Retriever{Embedder: embedder, Store: &fakeStore{}}

	passages, err := r.Passages(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, passages)
	assert.Empty(t, embedder.inputs)
}

func TestRetrieverEmbedError(t *testing.T) {
	boom := errors.New("boom")
	r := &Retriever{Embedder: &fakeEmbedder{err: boom}, Store: &fakeStore{}}

	_, err := r.Passages(context.Background(), "hope")
	assert.ErrorIs(t, err, boom)

	r = &Retriever{Embedder: &fakeEmbedder{}, Store: &fakeStore{}}
	_, err = r.Passages(context.Background(), "hope")
	assert.Error(t, err)
}

func TestFormatPassages(t *testing.T) {
	assert.Empty(t, FormatPassages(nil))

	out := FormatPassages([]SearchResult{
		{Reference: "Psalm 46:10", Text: "Be still, and know that I am God", Translation: "KJV"},
		{Reference: "Romans 8:28", Text: "All things work together for good"},
	})
	assert.Equal(t, "Relevant scripture passages:\n"+
		"- Psalm 46:10 (KJV): Be still, and know that I am God\n"+
		"- Romans 8:28: All things work together for good\n", out)
}
