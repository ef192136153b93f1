package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"casedrop-backend/internal/services"
)

type AuthHandler struct {
	jwtService *services.JWTService
	devMode    bool
}

func NewAuthHandler(jwtService *services.JWTService, devMode bool) *AuthHandler {
	return &AuthHandler{jwtService: jwtService, devMode: devMode}
}

// IssueDevToken mints a token for an arbitrary player id. Development
// only; the production deployment authenticates upstream and this
// endpoint is not registered.
func (h *AuthHandler) IssueDevToken(c *gin.Context) {
	if !h.devMode {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	playerID, err := strconv.ParseInt(c.Query("player_id"), 10, 64)
	if err != nil || playerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_id is required"})
		return
	}

	token, err := h.jwtService.GenerateToken(playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}
