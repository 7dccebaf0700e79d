package widget

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/doc0/internal/domain"
	"github.com/liliang-cn/doc0/internal/service"
)

// DocSearcher runs marketing-site documentation searches.
type DocSearcher interface {
	SearchDocs(ctx context.Context, query string, nResults int) *domain.DocSearchResponse
}

// Handler handles the chat front-end API
type Handler struct {
	chatService   *service.ChatService
	widgetService *service.WidgetService
	authService   *service.AuthService
	docs          DocSearcher
	nResults      int

	// busy is set while a submission is in flight.
	busy atomic.Bool
}

// NewHandler creates a new widget handler
func NewHandler(
	chatService *service.ChatService,
	widgetService *service.WidgetService,
	authService *service.AuthService,
	docs DocSearcher,
	nResults int,
) *Handler {
	if nResults <= 0 {
		nResults = 5
	}
	return &Handler{
		chatService:   chatService,
		widgetService: widgetService,
		authService:   authService,
		docs:          docs,
		nResults:      nResults,
	}
}

// RegisterRoutes registers the chat front-end routes under /api
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/widget/config", h.GetConfig)

	topics := r.Group("/topics")
	{
		topics.GET("", h.ListTopics)
		topics.PUT("/active", h.SwitchTopic)
		topics.GET("/:topic/messages", h.ListMessages)
	}

	r.POST("/chat", h.Chat)
	r.GET("/quota", h.GetQuota)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/google", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", h.Me)
	}

	r.GET("/search", h.Search)
}

// GetConfig returns the front-end configuration together with the current
// topic, quota window and identity
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.widgetService.Snapshot(c.Request.Context()))
}

// ListTopics returns every topic and which one is active
func (h *Handler) ListTopics(c *gin.Context) {
	state := h.widgetService.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"topics": state.Config.Topics,
		"active": state.ActiveTopic,
	})
}

type switchTopicRequest struct {
	Topic string `json:"topic" binding:"required"`
}

// SwitchTopic changes the active topic
func (h *Handler) SwitchTopic(c *gin.Context) {
	var req switchTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	topic, err := h.widgetService.SwitchTopic(req.Topic)
	if err != nil {
		h.respondError(c, err)
		return
	}

	msgs, _ := h.widgetService.Messages(string(topic))
	c.JSON(http.StatusOK, gin.H{
		"active":   topic,
		"config":   domain.DefaultTopicConfig(topic),
		"messages": msgs,
	})
}

// ListMessages returns the conversation of one topic
func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.widgetService.Messages(c.Param("topic"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Chat submits a message to the active topic
func (h *Handler) Chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.busy.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{"error": "a message is already being sent"})
		return
	}
	defer h.busy.Store(false)

	resp, err := h.chatService.Submit(c.Request.Context(), req.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetQuota returns the anonymous request window
func (h *Handler) GetQuota(c *gin.Context) {
	c.JSON(http.StatusOK, h.widgetService.Quota(c.Request.Context()))
}

// Login signs a user in with a login widget credential
func (h *Handler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := h.authService.Login(req.Credential)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, identity)
}

// Logout signs the current user out
func (h *Handler) Logout(c *gin.Context) {
	h.authService.Logout()
	c.Status(http.StatusNoContent)
}

// Me returns the signed-in identity
func (h *Handler) Me(c *gin.Context) {
	identity, err := h.authService.Me()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, identity)
}

// Search runs a documentation search for the marketing site. Backend
// failures come back as an empty result set.
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	n := h.nResults
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = parsed
	}

	c.JSON(http.StatusOK, h.docs.SearchDocs(c.Request.Context(), query, n))
}

// Snapshot returns the full widget state. Served at the chat page path.
func (h *Handler) Snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.widgetService.Snapshot(c.Request.Context()))
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		window := h.widgetService.Quota(c.Request.Context())
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":             "Daily Limit Reached",
			"message":           "You've used all your free requests for today. Sign in to continue.",
			"login_required":    true,
			"next_allowed_time": window.NextAllowedTime,
			"quota":             window,
		})
	case errors.Is(err, domain.ErrInvalidTopic), errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoCredential), errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
