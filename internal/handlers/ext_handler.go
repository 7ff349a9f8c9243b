package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"buzz-backend/internal/services"
)

// ExtHandler handles the external service surface authenticated with API keys
type ExtHandler struct {
	apiKeyService *services.ApiKeyService
	replyService  *services.ReplyService
}

// NewExtHandler creates a new ExtHandler
func NewExtHandler(apiKeyService *services.ApiKeyService, replyService *services.ReplyService) *ExtHandler {
	return &ExtHandler{
		apiKeyService: apiKeyService,
		replyService:  replyService,
	}
}

// ApiKeyMiddleware authenticates requests via the X-Api-Key header and sets
// the owning user ID in the context
func (h *ExtHandler) ApiKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Api-Key")
		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing API key"})
			c.Abort()
			return
		}

		key, err := h.apiKeyService.Verify(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		c.Set("api_user_id", key.UserID)
		c.Next()
	}
}

// CreateReplyAttempt registers a reply attempt for later processing
func (h *ExtHandler) CreateReplyAttempt(c *gin.Context) {
	userID := c.GetUint("api_user_id")

	var req struct {
		BuzzID    uint   `json:"buzz_id" binding:"required"`
		ReplyText string `json:"reply_text" binding:"required,max=1000"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	attempt, err := h.replyService.CreateAttempt(userID, req.BuzzID, req.ReplyText)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"attempt": attempt,
	})
}

// CompleteReplyAttempt marks an attempt as posted and records the reply
func (h *ExtHandler) CompleteReplyAttempt(c *gin.Context) {
	attemptID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid attempt ID"})
		return
	}

	var req struct {
		ReplyLink string `json:"reply_link" binding:"required,url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	reply, err := h.replyService.CompleteAttempt(uint(attemptID), req.ReplyLink)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply": reply,
	})
}
