package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"casedrop-backend/internal/fair"
	"casedrop-backend/internal/models"
	"casedrop-backend/internal/services"
)

type FairHandler struct {
	generator    *fair.Generator
	redisService *services.RedisService
}

func NewFairHandler(generator *fair.Generator, redisService *services.RedisService) *FairHandler {
	return &FairHandler{
		generator:    generator,
		redisService: redisService,
	}
}

// GetVerificationData returns what a player needs to verify their next
// openings: their client seed, current nonce and the server seed hash.
func (h *FairHandler) GetVerificationData(c *gin.Context) {
	playerID := c.GetInt64("player_id")

	account, err := h.redisService.GetAccount(c.Request.Context(), playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get account",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"verification": gin.H{
			"client_seed":      account.ClientSeed,
			"server_seed_hash": h.generator.ServerSeedHash(),
			"current_nonce":    account.Nonce,
		},
	})
}

// Verify recomputes draws from a disclosed server seed so players can
// check a past opening without trusting the server.
func (h *FairHandler) Verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	count := req.Count
	if count <= 0 || count > 16 {
		count = 2
	}

	draws := fair.Floats(req.ServerSeed, req.ClientSeed, req.Nonce, count)

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"server_seed_hash": fair.HashSeed(req.ServerSeed),
		"draws":            draws,
	})
}

// Rotate reveals the current server seed and installs a new one. Past
// draws become verifiable against the revealed seed.
func (h *FairHandler) Rotate(c *gin.Context) {
	revealed, newHash, err := h.generator.Rotate()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to rotate seed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"revealed_server_seed": revealed,
		"new_server_seed_hash": newHash,
	})
}
