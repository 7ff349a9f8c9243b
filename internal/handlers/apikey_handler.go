package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"buzz-backend/internal/auth"
	"buzz-backend/internal/services"
)

// ApiKeyHandler handles API key management endpoints
type ApiKeyHandler struct {
	apiKeyService *services.ApiKeyService
}

// NewApiKeyHandler creates a new ApiKeyHandler
func NewApiKeyHandler(apiKeyService *services.ApiKeyService) *ApiKeyHandler {
	return &ApiKeyHandler{apiKeyService: apiKeyService}
}

// CreateKey issues a new API key. The plaintext key is returned once and
// never stored, so the caller must save it.
func (h *ApiKeyHandler) CreateKey(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	raw, key, err := h.apiKeyService.Issue(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         key.ID,
		"api_key":    raw,
		"key_prefix": key.KeyPrefix,
		"created_at": key.CreatedAt,
	})
}

// GetKeys lists the current user's API keys
func (h *ApiKeyHandler) GetKeys(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	keys, err := h.apiKeyService.List(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"keys": keys,
	})
}

// RevokeKey deactivates one of the current user's API keys
func (h *ApiKeyHandler) RevokeKey(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	keyID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid key ID"})
		return
	}

	if err := h.apiKeyService.Revoke(userID, uint(keyID)); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "API key revoked",
	})
}
