package llm

import (
	"context"

	"github.com/creastat/aura"
)

// Message is one entry of the prompt sent to the completion endpoint.
type Message struct {
	Role    aura.Role
	Content string
}

// Response is the parsed first choice of a completion.
type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client generates completions.
// Errors wrap aura.ErrTimeout, aura.ErrUnavailable or aura.ErrMalformedResponse.
type Client interface {
	Generate(ctx context.Context, messages []Message, opts ...CallOption) (Response, error)
}

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// CallOption overrides client defaults for a single call.
type CallOption func(*callOptions)

type callOptions struct {
	maxTokens   int
	temperature *float32
}

// WithMaxTokens caps the completion length for one call.
func WithMaxTokens(n int) CallOption {
	return func(o *callOptions) { o.maxTokens = n }
}

// WithTemperature sets the sampling temperature for one call.
func WithTemperature(t float32) CallOption {
	return func(o *callOptions) { o.temperature = &t }
}

// FromHistory converts chat history into prompt messages, prefixed with the system instruction.
func FromHistory(system string, history []aura.Message) []Message {
	out := make([]Message, 0, len(history)+1)
	if system != "" {
		out = append(out, Message{Role: aura.RoleSystem, Content: system})
	}
	for _, m := range history {
		out = append(out, Message{Role: m.Role, Content: m.Content})
	}
	return out
}
