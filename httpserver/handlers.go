package httpserver

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/creastat/aura"
	"github.com/creastat/aura/chat"
	"github.com/creastat/aura/journal"
	"github.com/creastat/aura/ratelimit"
	"github.com/creastat/aura/supabase"
)

type handlers struct {
	deps Dependencies
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

type journalRequest struct {
	Content string `json:"content"`
}

type journalEditRequest struct {
	Content string `json:"content"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Action  string `json:"action" binding:"required"` // insert, bold, italic or bullet
	Text    string `json:"text"`
}

type journalEditResponse struct {
	Content string        `json:"content"`
	Cursor  int           `json:"cursor"`
	Stats   journal.Stats `json:"stats"`
}

type rateLimitedResponse struct {
	ErrorResponse
	ResetTime *time.Time `json:"reset_time"`
	Notice    string     `json:"notice"`
}

type statsResponse struct {
	*supabase.Stats
	PrayerAnswerRate int `json:"prayer_answer_rate"`
}

func (h *handlers) listConversations(c *gin.Context) {
	user := currentUser(c)
	convs, err := h.deps.Chat.ListConversations(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if convs == nil {
		convs = []aura.Conversation{}
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (h *handlers) createConversation(c *gin.Context) {
	user := currentUser(c)
	conv, err := h.deps.Chat.CreateConversation(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *handlers) getConversation(c *gin.Context) {
	user := currentUser(c)
	conv, err := h.deps.Chat.GetConversation(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *handlers) sendMessage(c *gin.Context) {
	user := currentUser(c)

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", aura.ErrInvalidInput, err))
		return
	}

	res, err := h.deps.Chat.SendTurn(c.Request.Context(), chat.TurnRequest{
		ConversationID: c.Param("id"),
		UserID:         user.ID,
		Identifier:     ratelimit.Identifier(user.ID, c.ClientIP()),
		Text:           req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if res.Outcome == chat.OutcomeRejected {
		if res.ResetTime != nil {
			retry := math.Ceil(time.Until(*res.ResetTime).Seconds())
			c.Header("Retry-After", strconv.Itoa(int(math.Max(retry, 1))))
		}
		c.JSON(http.StatusTooManyRequests, rateLimitedResponse{
			ErrorResponse: ErrorResponse{Error: "rate_limited", Message: res.Notice},
			ResetTime:     res.ResetTime,
			Notice:        res.Notice,
		})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *handlers) getProfile(c *gin.Context) {
	user := currentUser(c)
	profile, err := h.deps.Profiles.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *handlers) updateProfile(c *gin.Context) {
	user := currentUser(c)

	var update supabase.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, fmt.Errorf("%w: %v", aura.ErrInvalidInput, err))
		return
	}

	profile, err := h.deps.Profiles.SaveProfile(c.Request.Context(), user.ID, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *handlers) getStats(c *gin.Context) {
	user := currentUser(c)
	stats, err := h.deps.Profiles.GetStats(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statsResponse{Stats: stats, PrayerAnswerRate: stats.PrayerAnswerRate()})
}

func (h *handlers) journalStats(c *gin.Context) {
	var req journalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", aura.ErrInvalidInput, err))
		return
	}
	c.JSON(http.StatusOK, journal.ComputeStats(req.Content))
}

func (h *handlers) journalEdit(c *gin.Context) {
	var req journalEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", aura.ErrInvalidInput, err))
		return
	}

	var (
		content string
		cursor  int
		err     error
	)
	if req.Action == "insert" {
		content, cursor = journal.InsertText(req.Content, req.Start, req.End, req.Text)
	} else {
		content, cursor, err = journal.FormatText(req.Content, req.Start, req.End, journal.Format(req.Action))
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, journalEditResponse{
		Content: content,
		Cursor:  cursor,
		Stats:   journal.ComputeStats(content),
	})
}

func (h *handlers) journalInsights(c *gin.Context) {
	var req journalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", aura.ErrInvalidInput, err))
		return
	}

	insights, err := h.deps.Journal.Insights(c.Request.Context(), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, insights)
}
