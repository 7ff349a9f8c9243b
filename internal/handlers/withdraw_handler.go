package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"buzz-backend/internal/auth"
	"buzz-backend/internal/models"
	"buzz-backend/internal/services"
)

// WithdrawHandler handles withdrawal endpoints
type WithdrawHandler struct {
	withdrawService *services.WithdrawService
}

// NewWithdrawHandler creates a new WithdrawHandler
func NewWithdrawHandler(withdrawService *services.WithdrawService) *WithdrawHandler {
	return &WithdrawHandler{withdrawService: withdrawService}
}

// Withdraw moves accounted balance into a pending payout
func (h *WithdrawHandler) Withdraw(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		ToAddress string `json:"to_address" binding:"required"`
		Amount    string `json:"amount" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be a positive number"})
		return
	}

	withdrawal, err := h.withdrawService.Withdraw(userID, req.ToAddress, amount)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"withdrawal": withdrawal,
	})
}

// CreateRequest opens an on-chain payout request at the wallet's current nonce
func (h *WithdrawHandler) CreateRequest(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		TokenAddresses []string `json:"token_addresses" binding:"required,min=1"`
		TokenAmounts   []string `json:"token_amounts" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	request, err := h.withdrawService.CreateRequest(c.Request.Context(), userID, req.TokenAddresses, req.TokenAmounts)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"request": requestResponse(request),
	})
}

// GetOnGoing returns the payout request for the current chain nonce, or null
func (h *WithdrawHandler) GetOnGoing(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	request, err := h.withdrawService.OnGoing(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if request == nil {
		c.JSON(http.StatusOK, gin.H{"request": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request": requestResponse(request),
	})
}

// Continue re-signs the payout authorization for the ongoing request
func (h *WithdrawHandler) Continue(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	signature, request, err := h.withdrawService.Continue(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"signature": signature,
		"request":   requestResponse(request),
	})
}

// Discard drops the ongoing payout request and restores its token balances
func (h *WithdrawHandler) Discard(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.withdrawService.Discard(c.Request.Context(), userID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Withdraw request discarded",
	})
}

// requestResponse serializes a payout request with bigint amounts as strings
func requestResponse(request *models.UserWithdrawRequest) gin.H {
	return gin.H{
		"id":              request.ID,
		"nonce_on_chain":  request.NonceOnChain,
		"token_addresses": request.TokenAddresses(),
		"token_amounts":   request.TokenAmounts(),
		"created_at":      request.CreatedAt,
	}
}
