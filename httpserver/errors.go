package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/creastat/aura"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: message})
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, aura.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, aura.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, aura.ErrLockBusy):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, aura.ErrTimeout):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, aura.ErrUnavailable), errors.Is(err, aura.ErrMalformedResponse):
		status, code = http.StatusBadGateway, "upstream_error"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		message = "internal server error"
	}
	abortWithError(c, status, code, message)
}
