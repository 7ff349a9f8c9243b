package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"buzz-backend/internal/services"
)

// handleServiceError converts a service error into the JSON error body and
// status the route contract requires. Unclassified errors become a generic
// 500 so internals never leak to the client.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrAlreadySettled),
		errors.Is(err, services.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
