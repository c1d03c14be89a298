package handlers

import (
	"net/http"
	"time"

	"santai/models"
	"santai/services/assignment"
	"santai/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the assignment engine's operations over HTTP.
type BookingHandler struct {
	Engine *assignment.Engine
	Logger *zap.Logger
}

func NewBookingHandler(engine *assignment.Engine, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Engine: engine, Logger: logger}
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var input struct {
		ProviderID          string    `json:"provider_id"`
		ProviderType        string    `json:"provider_type"`
		GuestID             string    `json:"guest_id"`
		GuestName           string    `json:"guest_name"`
		ServiceDuration     int       `json:"service_duration"`
		StartTime           time.Time `json:"start_time"`
		FallbackProviderIDs []string  `json:"fallback_provider_ids"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	booking, err := h.Engine.CreateBooking(c.Request.Context(), assignment.CreateBookingRequest{
		ProviderID:          input.ProviderID,
		ProviderType:        input.ProviderType,
		GuestID:             input.GuestID,
		GuestName:           input.GuestName,
		ServiceDuration:     input.ServiceDuration,
		StartTime:           input.StartTime,
		FallbackProviderIDs: input.FallbackProviderIDs,
	})
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// GetBooking handles GET /api/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.Engine.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// RecordResponse handles POST /api/bookings/:id/response.
func (h *BookingHandler) RecordResponse(c *gin.Context) {
	var input struct {
		ProviderID string `json:"provider_id"`
		Action     string `json:"action"`
		Reason     string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	booking, err := h.Engine.RecordProviderResponse(
		c.Request.Context(), c.Param("id"), input.ProviderID,
		models.ProviderAction(input.Action), input.Reason)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// CompleteBooking handles POST /api/bookings/:id/complete.
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	var input struct {
		HotelVillaID   string `json:"hotel_villa_id"`
		ServiceAmount  int64  `json:"service_amount"`
		CommissionRate int64  `json:"commission_rate"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	booking, err := h.Engine.CompleteBooking(
		c.Request.Context(), c.Param("id"), input.HotelVillaID,
		input.ServiceAmount, input.CommissionRate)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// CancelBooking handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	booking, err := h.Engine.CancelBooking(c.Request.Context(), c.Param("id"), input.Reason)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
