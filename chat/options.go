package chat

import (
	"time"

	"github.com/creastat/aura/vectorstore"
)

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 30 * time.Second

// Option is a functional option for configuring a Pipeline.
type Option func(*Pipeline)

// WithSystemPrompt replaces BiblicalSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(p *Pipeline) {
		p.systemPrompt = prompt
	}
}

// WithTimeout sets the completion timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

// WithTokenLimit caps the estimated tokens of the history sent with each
// completion. Oldest messages are dropped first; zero disables the cap.
func WithTokenLimit(n int) Option {
	return func(p *Pipeline) {
		p.tokenLimit = n
	}
}

// WithModel sets the model recorded on replies when the endpoint does not report one.
func WithModel(model string) Option {
	return func(p *Pipeline) {
		p.model = model
	}
}

// WithRetriever enables scripture grounding of the system instruction.
func WithRetriever(r PassageRetriever) Option {
	return func(p *Pipeline) {
		p.retriever = r
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

var _ PassageRetriever = (*vectorstore.Retriever)(nil)
