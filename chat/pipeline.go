// Package chat runs a single chat turn end to end: rate limiting, history
// preparation, the completion call, and persistence of the bounded window.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/creastat/aura"
	"github.com/creastat/aura/llm"
	"github.com/creastat/aura/metrics"
	"github.com/creastat/aura/ratelimit"
	"github.com/creastat/aura/session"
	"github.com/creastat/aura/turnlock"
	"github.com/creastat/aura/vectorstore"
)

// Outcome is the terminal state of a turn.
type Outcome string

const (
	OutcomeRejected  Outcome = "rejected"
	OutcomeCompleted Outcome = "completed"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeFailed    Outcome = "failed"
)

// ConversationStore is the persistence the pipeline needs.
// supabase.Client satisfies it.
type ConversationStore interface {
	CreateConversation(ctx context.Context, userID, title string) (*aura.Conversation, error)
	GetConversation(ctx context.Context, id string) (*aura.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]aura.Conversation, error)
	SaveConversationWindow(ctx context.Context, id string, messages []aura.Message, title string, updatedAt time.Time) error
}

// PassageRetriever finds scripture related to the user's text.
type PassageRetriever interface {
	Passages(ctx context.Context, text string) ([]vectorstore.SearchResult, error)
}

// TurnRequest is one user message.
type TurnRequest struct {
	// ConversationID may be empty, in which case a new conversation is created.
	ConversationID string
	UserID         string
	// Identifier is the rate limit key. Defaults to the user.
	Identifier string
	Text       string
}

// TurnResult describes what happened during a turn.
type TurnResult struct {
	Outcome        Outcome       `json:"outcome"`
	ConversationID string        `json:"conversation_id,omitempty"`
	Title          string        `json:"title,omitempty"`
	UserMessage    *aura.Message `json:"user_message,omitempty"`
	Reply          *aura.Message `json:"reply,omitempty"`
	ResetTime      *time.Time    `json:"reset_time,omitempty"`
	Notice         string        `json:"notice,omitempty"`

	// Messages is the full in-session history, Window the persisted part of it.
	Messages []aura.Message `json:"messages,omitempty"`
	Window   []aura.Message `json:"window,omitempty"`

	Persisted     bool                `json:"persisted"`
	PersistError  error               `json:"-"`
	FailureReason string              `json:"-"`
	Conversations []aura.Conversation `json:"conversations,omitempty"`
}

// Pipeline executes chat turns.
type Pipeline struct {
	store     ConversationStore
	client    llm.Client
	limiter   ratelimit.Limiter
	locker    turnlock.Locker
	sessions  session.Store
	retriever PassageRetriever

	systemPrompt string
	timeout      time.Duration
	tokenLimit   int
	model        string
	now          func() time.Time
}

// New creates a Pipeline. All dependencies are required.
func New(store ConversationStore, client llm.Client, limiter ratelimit.Limiter, locker turnlock.Locker, sessions session.Store, opts ...Option) (*Pipeline, error) {
	if store == nil || client == nil || limiter == nil || locker == nil || sessions == nil {
		return nil, fmt.Errorf("%w: chat pipeline dependencies are required", aura.ErrInvalidConfig)
	}

	p := &Pipeline{
		store:        store,
		client:       client,
		limiter:      limiter,
		locker:       locker,
		sessions:     sessions,
		systemPrompt: BiblicalSystemPrompt,
		timeout:      DefaultTimeout,
		model:        llm.DefaultModel,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive", aura.ErrInvalidConfig)
	}
	return p, nil
}

// SendTurn runs one turn. Completion failures never surface as errors; they
// produce a fallback reply. Errors are returned only for invalid input,
// unknown or foreign conversations, and failure to acquire the turn lock.
func (p *Pipeline) SendTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", aura.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: message text is empty", aura.ErrInvalidInput)
	}

	logger := log.Ctx(ctx).With().
		Str("user_id", req.UserID).
		Str("conversation_id", req.ConversationID).
		Logger()

	// Unknown or foreign conversations are refused before they use up quota.
	if req.ConversationID != "" {
		if _, err := p.ownedConversation(ctx, req.UserID, req.ConversationID); err != nil {
			return nil, err
		}
	}

	if rejected := p.checkLimit(ctx, req); rejected != nil {
		metrics.RecordRateLimited()
		metrics.RecordTurn(string(OutcomeRejected))
		logger.Info().Time("reset_time", *rejected.ResetTime).Msg("turn rejected by rate limiter")
		return rejected, nil
	}

	if req.ConversationID == "" {
		conv, err := p.store.CreateConversation(ctx, req.UserID, aura.DefaultConversationTitle)
		if err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		req.ConversationID = conv.ID
		logger = logger.With().Str("conversation_id", conv.ID).Logger()
	}

	unlock, err := p.locker.Lock(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	conv, err := p.ownedConversation(ctx, req.UserID, req.ConversationID)
	if err != nil {
		return nil, err
	}

	sess := p.loadSession(ctx, conv)
	history, userMsg := aura.AppendMessage(sess.Messages, aura.RoleUser, req.Text)

	result := &TurnResult{
		ConversationID: conv.ID,
		UserMessage:    &userMsg,
	}

	reply := p.complete(ctx, req.Text, p.promptWindow(history), result)
	history = append(history, reply)
	result.Reply = &reply
	result.Messages = history
	result.Window = aura.Window(history)
	result.Title = aura.TitleFor(conv.Title, req.Text)

	// The reply already exists; finish persisting it even if the caller went away.
	persistCtx := context.WithoutCancel(ctx)

	if err := p.store.SaveConversationWindow(persistCtx, conv.ID, result.Window, result.Title, p.now().UTC()); err != nil {
		metrics.RecordPersistenceFailure()
		logger.Error().Err(err).Msg("failed to persist conversation window")
		result.PersistError = fmt.Errorf("%w: %w", aura.ErrPersistence, err)
	} else {
		result.Persisted = true
	}

	sess.Messages = history
	sess.Title = result.Title
	if err := p.saveSession(persistCtx, sess); err != nil {
		logger.Warn().Err(err).Msg("failed to update session history")
	}

	if longConversation(len(history)) {
		result.Notice = LongConversationNotice(len(history))
	}

	conversations, err := p.store.ListConversations(persistCtx, req.UserID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to reload conversations")
	} else {
		result.Conversations = conversations
	}

	metrics.RecordTurn(string(result.Outcome))
	logger.Info().
		Str("outcome", string(result.Outcome)).
		Int("session_messages", len(history)).
		Int("window_messages", len(result.Window)).
		Bool("persisted", result.Persisted).
		Msg("turn finished")

	return result, nil
}

// CreateConversation starts an empty conversation with the placeholder title.
func (p *Pipeline) CreateConversation(ctx context.Context, userID string) (*aura.Conversation, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", aura.ErrInvalidInput)
	}
	return p.store.CreateConversation(ctx, userID, aura.DefaultConversationTitle)
}

// ListConversations returns the user's conversations, most recently updated first.
func (p *Pipeline) ListConversations(ctx context.Context, userID string) ([]aura.Conversation, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", aura.ErrInvalidInput)
	}
	return p.store.ListConversations(ctx, userID)
}

// GetConversation returns a conversation owned by userID. While a session is
// alive its full history replaces the persisted window.
func (p *Pipeline) GetConversation(ctx context.Context, userID, id string) (*aura.Conversation, error) {
	conv, err := p.ownedConversation(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	sess, err := p.sessions.Get(ctx, id)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("conversation_id", id).Msg("failed to load session history")
		return conv, nil
	}
	if sess != nil && sess.UserID == userID {
		conv.Messages = sess.Messages
	}
	return conv, nil
}

// checkLimit returns a rejected result when the identifier is over its limit.
// Limiter errors fail open.
func (p *Pipeline) checkLimit(ctx context.Context, req TurnRequest) *TurnResult {
	identifier := req.Identifier
	if identifier == "" {
		identifier = ratelimit.Identifier(req.UserID, "")
	}

	res, err := p.limiter.CheckLimit(ctx, identifier)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("identifier", identifier).Msg("rate limiter unavailable, allowing request")
		return nil
	}
	if res.Allowed {
		return nil
	}

	return &TurnResult{
		Outcome:        OutcomeRejected,
		ConversationID: req.ConversationID,
		ResetTime:      res.ResetTime,
		Notice:         WaitNotice(res.WaitMinutes(p.now())),
		FailureReason:  aura.ErrRateLimited.Error(),
	}
}

func (p *Pipeline) ownedConversation(ctx context.Context, userID, id string) (*aura.Conversation, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: conversation id is required", aura.ErrInvalidInput)
	}
	conv, err := p.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, fmt.Errorf("conversation %s: %w", id, aura.ErrNotFound)
	}
	return conv, nil
}

// loadSession returns the session for conv, seeding it from the persisted
// window when none exists. Session store failures degrade to the window.
func (p *Pipeline) loadSession(ctx context.Context, conv *aura.Conversation) *session.SessionData {
	sess, err := p.sessions.Get(ctx, conv.ID)
	if err == nil && sess != nil && sess.UserID == conv.UserID {
		return sess
	}
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("conversation_id", conv.ID).Msg("failed to load session history")
	}
	return session.FromConversation(conv)
}

func (p *Pipeline) saveSession(ctx context.Context, sess *session.SessionData) error {
	if sess.Version == 0 {
		return p.sessions.Create(ctx, sess)
	}
	err := p.sessions.Update(ctx, sess)
	if errors.Is(err, aura.ErrNotFound) {
		return p.sessions.Create(ctx, sess)
	}
	return err
}

// promptWindow is the window sent to the completion endpoint, trimmed to the
// token budget when one is set. The newest message is always kept.
func (p *Pipeline) promptWindow(history []aura.Message) []aura.Message {
	window := aura.TruncateHistory(history, p.tokenLimit, aura.HistoryLimit)
	if len(window) == 0 && len(history) > 0 {
		window = aura.TruncateHistory(history, 0, 1)
	}
	return window
}

// complete calls the completion endpoint and returns the reply to append,
// recording the outcome on result. Exactly one message is returned either way.
func (p *Pipeline) complete(ctx context.Context, userText string, window []aura.Message, result *TurnResult) aura.Message {
	logger := log.Ctx(ctx)

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	prompt := llm.FromHistory(p.instruction(callCtx, userText), window)

	start := time.Now()
	resp, err := p.client.Generate(callCtx, prompt)
	elapsed := time.Since(start).Seconds()

	if err == nil {
		metrics.RecordCompletion("ok", elapsed)
		result.Outcome = OutcomeCompleted
		model := resp.Model
		if model == "" {
			model = p.model
		}
		return aura.NewAssistantMessage(resp.Content, model)
	}

	if errors.Is(err, aura.ErrTimeout) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		result.Outcome = OutcomeTimedOut
		result.FailureReason = aura.ErrTimeout.Error()
	} else {
		result.Outcome = OutcomeFailed
		result.FailureReason = err.Error()
	}
	metrics.RecordCompletion(string(result.Outcome), elapsed)
	logger.Warn().Err(err).Str("reason", result.FailureReason).Msg("completion failed, using fallback reply")

	return aura.NewMessage(aura.RoleAssistant, FallbackMessage)
}

// instruction is the system prompt, extended with related scripture when a
// retriever is configured.
func (p *Pipeline) instruction(ctx context.Context, userText string) string {
	if p.retriever == nil {
		return p.systemPrompt
	}

	passages, err := p.retriever.Passages(ctx, userText)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("scripture retrieval failed")
		return p.systemPrompt
	}
	if extra := vectorstore.FormatPassages(passages); extra != "" {
		return p.systemPrompt + "\n\n" + extra
	}
	return p.systemPrompt
}
