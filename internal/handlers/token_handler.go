package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"buzz-backend/internal/auth"
	"buzz-backend/internal/ratelimit"
	"buzz-backend/internal/services"
)

// TokenHandler handles balance, token and faucet endpoints
type TokenHandler struct {
	tokenService  *services.TokenService
	faucetLimiter *ratelimit.Limiter
}

// NewTokenHandler creates a new TokenHandler
func NewTokenHandler(tokenService *services.TokenService, faucetLimiter *ratelimit.Limiter) *TokenHandler {
	return &TokenHandler{
		tokenService:  tokenService,
		faucetLimiter: faucetLimiter,
	}
}

// GetBalances returns the current user's per-token balances
func (h *TokenHandler) GetBalances(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	balances, err := h.tokenService.GetBalances(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balances": balances,
	})
}

// GetTokens returns the supported token list
func (h *TokenHandler) GetTokens(c *gin.Context) {
	tokens, err := h.tokenService.ListTokens()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tokens": tokens,
	})
}

// Faucet credits test tokens to the current user, rate limited per user
func (h *TokenHandler) Faucet(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !h.faucetLimiter.Allow(ratelimit.Key(userID, "faucet")) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "Faucet rate limit exceeded, try again later",
		})
		return
	}

	if err := h.tokenService.Faucet(c.Request.Context(), userID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Faucet credit applied",
	})
}
