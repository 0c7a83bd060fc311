package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/creastat/aura/metrics"
	"github.com/creastat/aura/supabase"
)

const (
	requestIDHeader = "X-Request-Id"
	userKey         = "user"
)

// RequestID ensures every request has an ID and a logger bound to its context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Set(requestIDHeader, requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		start := time.Now()
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	}
}

// Metrics records HTTP request metrics
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

// Auth verifies the bearer access token and stores the user in the gin context.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "missing or malformed bearer token")
			return
		}

		user, err := auth.VerifyToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			log.Ctx(c.Request.Context()).Debug().Err(err).Msg("token verification failed")
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "invalid access token")
			return
		}

		c.Set(userKey, user)
		logger := log.Ctx(c.Request.Context()).With().Str("user_id", user.ID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

func currentUser(c *gin.Context) *supabase.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*supabase.User); ok {
			return user
		}
	}
	return nil
}
