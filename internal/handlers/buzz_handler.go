package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"buzz-backend/internal/auth"
	"buzz-backend/internal/services"
)

// BuzzHandler handles buzz endpoints
type BuzzHandler struct {
	buzzService  *services.BuzzService
	replyService *services.ReplyService
}

// NewBuzzHandler creates a new BuzzHandler
func NewBuzzHandler(buzzService *services.BuzzService, replyService *services.ReplyService) *BuzzHandler {
	return &BuzzHandler{
		buzzService:  buzzService,
		replyService: replyService,
	}
}

// CreateBuzz creates a paid engagement request, debiting the creator's balance
func (h *BuzzHandler) CreateBuzz(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		TweetLink     string    `json:"tweet_link" binding:"required,url"`
		Instructions  string    `json:"instructions"`
		PricePerReply string    `json:"price_per_reply" binding:"required"`
		TotalReplies  int       `json:"total_replies" binding:"required,gt=0"`
		Deadline      time.Time `json:"deadline" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	price, err := decimal.NewFromString(req.PricePerReply)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price_per_reply"})
		return
	}

	buzz, err := h.buzzService.CreateBuzz(c.Request.Context(), userID, services.CreateBuzzInput{
		TweetLink:     req.TweetLink,
		Instructions:  req.Instructions,
		PricePerReply: price,
		TotalReplies:  req.TotalReplies,
		Deadline:      req.Deadline,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"buzz": buzz,
	})
}

// GetBuzzes lists buzzes, optionally restricted to active ones or the caller's
func (h *BuzzHandler) GetBuzzes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	activeOnly := c.DefaultQuery("active", "false") == "true"

	var creatorID *uint
	if c.Query("mine") == "true" {
		if userID, exists := auth.GetUserID(c); exists {
			creatorID = &userID
		}
	}

	buzzes, total, err := h.buzzService.ListBuzzes(page, limit, activeOnly, creatorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"buzzes": buzzes,
		"total":  total,
		"page":   page,
	})
}

// GetBuzzByID returns a single buzz with its replies
func (h *BuzzHandler) GetBuzzByID(c *gin.Context) {
	buzzID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid buzz id"})
		return
	}

	buzz, err := h.buzzService.GetBuzz(uint(buzzID))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	replies, err := h.replyService.ListReplies(uint(buzzID))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"buzz":    buzz,
		"replies": replies,
	})
}

// SettleBuzz finalizes a buzz, paying approved replies and refunding the rest
func (h *BuzzHandler) SettleBuzz(c *gin.Context) {
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

	history, err := h.buzzService.SettleBuzz(userID, uint(buzzID))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"settle": history,
	})
}
