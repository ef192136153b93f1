package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"casedrop-backend/internal/engine"
	"casedrop-backend/internal/models"
	"casedrop-backend/internal/services"
)

type CaseHandler struct {
	engine       *engine.Engine
	redisService *services.RedisService
}

func NewCaseHandler(eng *engine.Engine, redisService *services.RedisService) *CaseHandler {
	return &CaseHandler{
		engine:       eng,
		redisService: redisService,
	}
}

func (h *CaseHandler) OpenCase(c *gin.Context) {
	playerID := c.GetInt64("player_id")

	var req models.OpenCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	result, balance, err := h.engine.OpenCase(c.Request.Context(), playerID, req.CaseID)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result": gin.H{
			"opening_id":       result.OpeningID,
			"case_id":          result.CaseID,
			"item":             result.Item,
			"amount":           result.Amount,
			"tier_draw":        result.TierDraw,
			"item_draw":        result.ItemDraw,
			"client_seed":      result.ClientSeed,
			"server_seed_hash": result.ServerSeedHash,
			"nonce":            result.Nonce,
			"created_at":       result.CreatedAt,
		},
		"balance": balance,
	})
}

func (h *CaseHandler) ListCases(c *gin.Context) {
	cases, err := h.redisService.ListCases(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list cases",
			"details": err.Error(),
		})
		return
	}

	var response []gin.H
	for _, cs := range cases {
		if !cs.Active {
			continue
		}
		response = append(response, gin.H{
			"id":         cs.ID,
			"name":       cs.Name,
			"price":      cs.Price,
			"tier_table": cs.TierTable,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cases":   response,
		"count":   len(response),
	})
}
