package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"casedrop-backend/internal/models"
)

// writeDomainError maps the typed error taxonomy onto HTTP statuses.
// Callers always see either a complete success or one of these; partial
// states are never observable.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case models.IsCallerError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient funds"})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Concurrent update, please retry"})
	case errors.Is(err, models.ErrAlreadyClaimed):
		c.JSON(http.StatusConflict, gin.H{
			"error":           "Bonus already claimed today",
			"already_claimed": true,
		})
	case models.IsConfigError(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Case is misconfigured"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Operation failed", "details": err.Error()})
	}
}
