package handlers

import (
	"net/http"
	"time"

	providerRepo "santai/database/repository/provider"
	"santai/models"
	"santai/services/availability"
	"santai/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProviderHandler exposes the derived availability status and the two
// provider fields this core owns: the busy window and the manual toggle.
type ProviderHandler struct {
	Gate      *availability.Gate
	Providers providerRepo.ProviderRepository
	Logger    *zap.Logger
}

func NewProviderHandler(gate *availability.Gate, providers providerRepo.ProviderRepository, logger *zap.Logger) *ProviderHandler {
	return &ProviderHandler{Gate: gate, Providers: providers, Logger: logger}
}

// GetStatus handles GET /api/providers/:id/status.
func (h *ProviderHandler) GetStatus(c *gin.Context) {
	status, err := h.Gate.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider_id": c.Param("id"), "status": status})
}

// SetBusyWindow handles PUT /api/providers/:id/busy-window. A zero duration
// clears the window.
func (h *ProviderHandler) SetBusyWindow(c *gin.Context) {
	var input struct {
		Minutes int `json:"minutes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if input.Minutes < 0 {
		utils.JSONDomainError(c, models.NewValidationError("busy window minutes must be non-negative"))
		return
	}

	until := time.Time{}
	if input.Minutes > 0 {
		until = time.Now().Add(time.Duration(input.Minutes) * time.Minute)
	}
	if err := h.Providers.SetBusyUntil(c.Request.Context(), c.Param("id"), until); err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	h.Gate.Recheck(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"provider_id": c.Param("id"), "busy_until": until})
}

// SetManualStatus handles PUT /api/providers/:id/manual-status.
func (h *ProviderHandler) SetManualStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	status, err := models.ParseManualStatus(input.Status)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	if err := h.Providers.SetManualStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	h.Gate.Recheck(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"provider_id": c.Param("id"), "manual_status": status})
}
