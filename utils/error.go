package utils

import (
	"net/http"

	"santai/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	Logger := GetLogger()
	Logger.Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// JSONDomainError maps a domain error onto the matching HTTP status. StaleOffer
// maps to 409 separately from InvalidState so the UI can explain "someone else
// got it" to the provider.
func JSONDomainError(c *gin.Context, err error) {
	code := models.ErrorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case models.ErrCodeValidation:
		status = http.StatusBadRequest
	case models.ErrCodeNotFound:
		status = http.StatusNotFound
	case models.ErrCodeInvalidState:
		status = http.StatusUnprocessableEntity
	case models.ErrCodeStaleOffer, models.ErrCodeConflict:
		status = http.StatusConflict
	}
	GetLogger().Warn("request failed", zap.String("code", code), zap.Error(err))
	c.JSON(status, ErrorResponse{Code: code, Message: err.Error()})
}
