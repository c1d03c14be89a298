package routes

import (
	"santai/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every endpoint of the dispatch core.
func RegisterRoutes(r *gin.Engine, booking *handlers.BookingHandler, commission *handlers.CommissionHandler, provider *handlers.ProviderHandler) {
	bookings := r.Group("/api/bookings")
	{
		bookings.POST("", booking.CreateBooking)
		bookings.GET("/:id", booking.GetBooking)
		bookings.POST("/:id/response", booking.RecordResponse)
		bookings.POST("/:id/complete", booking.CompleteBooking)
		bookings.POST("/:id/cancel", booking.CancelBooking)
	}

	commissions := r.Group("/api/commissions")
	{
		commissions.GET("/:id", commission.GetRecord)
		commissions.POST("/:id/proof", commission.UploadProof)
		commissions.POST("/:id/verify", commission.Verify)
		commissions.POST("/:id/cancel", commission.CancelObligation)
	}

	providers := r.Group("/api/providers")
	{
		providers.GET("/:id/status", provider.GetStatus)
		providers.PUT("/:id/busy-window", provider.SetBusyWindow)
		providers.PUT("/:id/manual-status", provider.SetManualStatus)
		providers.GET("/:id/commissions", commission.ListOutstanding)
		providers.GET("/:id/commissions/history", commission.ListHistory)
	}
}
