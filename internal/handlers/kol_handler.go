package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"buzz-backend/internal/services"
)

// KolHandler handles KOL directory endpoints
type KolHandler struct {
	kolService *services.KolService
}

// NewKolHandler creates a new KolHandler
func NewKolHandler(kolService *services.KolService) *KolHandler {
	return &KolHandler{kolService: kolService}
}

// GetKols lists directory entries, best score first
func (h *KolHandler) GetKols(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	area := c.Query("area")
	status := c.Query("status")

	kols, total, err := h.kolService.List(area, status, page, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"kols":  kols,
		"total": total,
		"page":  page,
	})
}

// SubmitKol adds a handle to the directory, scored via the external API
func (h *KolHandler) SubmitKol(c *gin.Context) {
	var req struct {
		Handle string `json:"handle" binding:"required,max=50"`
		Area   string `json:"area" binding:"max=50"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	kol, err := h.kolService.Submit(c.Request.Context(), req.Handle, req.Area)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"kol": kol,
	})
}

// RefreshKol re-fetches score and metadata for a directory entry
func (h *KolHandler) RefreshKol(c *gin.Context) {
	kolID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid KOL id"})
		return
	}

	kol, err := h.kolService.Refresh(c.Request.Context(), uint(kolID))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"kol": kol,
	})
}

// ConfirmKol marks a directory entry as confirmed
func (h *KolHandler) ConfirmKol(c *gin.Context) {
	kolID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid KOL id"})
		return
	}

	if err := h.kolService.Confirm(uint(kolID)); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "KOL confirmed",
	})
}
