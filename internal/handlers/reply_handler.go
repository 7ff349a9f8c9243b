package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"buzz-backend/internal/auth"
	"buzz-backend/internal/services"
)

// ReplyHandler handles reply endpoints
type ReplyHandler struct {
	replyService *services.ReplyService
}

// NewReplyHandler creates a new ReplyHandler
func NewReplyHandler(replyService *services.ReplyService) *ReplyHandler {
	return &ReplyHandler{replyService: replyService}
}

// CreateReply submits a reply against a buzz
func (h *ReplyHandler) CreateReply(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	buzzID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid buzz id"})
		return
	}

	var req struct {
		ReplyLink string `json:"reply_link" binding:"required,url"`
		Text      string `json:"text" binding:"max=2000"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	reply, err := h.replyService.CreateReply(userID, uint(buzzID), req.ReplyLink, req.Text)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reply": reply,
	})
}

// GetReplies lists replies for a buzz
func (h *ReplyHandler) GetReplies(c *gin.Context) {
	buzzID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid buzz id"})
		return
	}

	replies, err := h.replyService.ListReplies(uint(buzzID))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"replies": replies,
	})
}

// RejectReply rejects a pending reply; buzz-owner only, unsettled buzz only
func (h *ReplyHandler) RejectReply(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	replyID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reply id"})
		return
	}

	if err := h.replyService.RejectReply(userID, uint(replyID)); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reply rejected",
	})
}
