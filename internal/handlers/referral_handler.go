package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"buzz-backend/internal/auth"
	"buzz-backend/internal/services"
)

// ReferralHandler handles referral endpoints
type ReferralHandler struct {
	referralService *services.ReferralService
}

// NewReferralHandler creates a new ReferralHandler
func NewReferralHandler(referralService *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// GetCode returns the current user's referral code
func (h *ReferralHandler) GetCode(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	code, err := h.referralService.GetCode(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code": code,
	})
}

// ApplyCode binds the current user to a referral code, write-once
func (h *ReferralHandler) ApplyCode(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		Code string `json:"code" binding:"required,max=20"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.referralService.Apply(userID, req.Code); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Referral code applied",
	})
}

// GetReferrals lists users invited with the current user's code
func (h *ReferralHandler) GetReferrals(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	referrals, err := h.referralService.ListReferrals(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referrals": referrals,
	})
}
