package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"casedrop-backend/internal/services"
)

type WalletHandler struct {
	redisService *services.RedisService
}

func NewWalletHandler(redisService *services.RedisService) *WalletHandler {
	return &WalletHandler{redisService: redisService}
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
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
		"balance": gin.H{
			"balance":       account.Balance,
			"total_wagered": account.TotalWagered,
			"total_won":     account.TotalWon,
			"games_played":  account.GamesPlayed,
			"client_seed":   account.ClientSeed,
			"nonce":         account.Nonce,
		},
	})
}

func (h *WalletHandler) GetHistory(c *gin.Context) {
	playerID := c.GetInt64("player_id")

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 || limit > services.HistoryKeep {
		limit = 50
	}

	records, err := h.redisService.GetHistory(c.Request.Context(), playerID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get history",
			"details": err.Error(),
		})
		return
	}

	var response []gin.H
	for _, rec := range records {
		entry := gin.H{
			"id":         rec.ID,
			"type":       rec.Type,
			"stake":      rec.Stake,
			"amount":     rec.Amount,
			"created_at": rec.CreatedAt,
		}
		if rec.CaseOpen != nil {
			entry["case_open"] = rec.CaseOpen
		}
		if rec.Bonus != nil {
			entry["bonus"] = rec.Bonus
		}
		response = append(response, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"records": response,
		"count":   len(response),
	})
}
