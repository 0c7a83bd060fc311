// Package httpserver exposes the chat service over HTTP.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/creastat/aura"
	"github.com/creastat/aura/chat"
	"github.com/creastat/aura/journal"
	"github.com/creastat/aura/metrics"
	"github.com/creastat/aura/supabase"
)

// ChatService runs chat turns and manages conversations.
type ChatService interface {
	SendTurn(ctx context.Context, req chat.TurnRequest) (*chat.TurnResult, error)
	CreateConversation(ctx context.Context, userID string) (*aura.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]aura.Conversation, error)
	GetConversation(ctx context.Context, userID, id string) (*aura.Conversation, error)
}

// Authenticator resolves bearer tokens to users.
type Authenticator interface {
	VerifyToken(ctx context.Context, accessToken string) (*supabase.User, error)
}

// ProfileStore reads and writes user profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*supabase.Profile, error)
	SaveProfile(ctx context.Context, userID string, update supabase.ProfileUpdate) (*supabase.Profile, error)
	GetStats(ctx context.Context, userID string) (*supabase.Stats, error)
}

// InsightsService analyses journal entries.
type InsightsService interface {
	Insights(ctx context.Context, content string) (*journal.Insights, error)
}

// Dependencies wires the services behind the routes.
type Dependencies struct {
	Chat     ChatService
	Auth     Authenticator
	Profiles ProfileStore
	Journal  InsightsService
}

// Config holds HTTP server settings.
type Config struct {
	Port            int
	RequestTimeout  time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server is the HTTP front of the service.
type Server struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// New builds the server and its routes.
func New(cfg Config, deps Dependencies) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      NewRouter(deps),
			ReadTimeout:  cfg.RequestTimeout,
			WriteTimeout: cfg.RequestTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// NewRouter registers all routes on a gin engine.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Metrics())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	h := &handlers{deps: deps}

	v1 := router.Group("/v1", Auth(deps.Auth))
	{
		v1.GET("/conversations", h.listConversations)
		v1.POST("/conversations", h.createConversation)
		v1.GET("/conversations/:id", h.getConversation)
		v1.POST("/conversations/:id/messages", h.sendMessage)

		v1.GET("/profile", h.getProfile)
		v1.PUT("/profile", h.updateProfile)
		v1.GET("/profile/stats", h.getStats)

		v1.POST("/journal/stats", h.journalStats)
		v1.POST("/journal/edit", h.journalEdit)
		v1.POST("/journal/insights", h.journalInsights)
	}

	return router
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
