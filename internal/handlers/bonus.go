package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"casedrop-backend/internal/ledger"
)

type BonusHandler struct {
	bonusLedger *ledger.BonusLedger
}

func NewBonusHandler(bonusLedger *ledger.BonusLedger) *BonusHandler {
	return &BonusHandler{bonusLedger: bonusLedger}
}

func (h *BonusHandler) Claim(c *gin.Context) {
	playerID := c.GetInt64("player_id")

	newBalance, bonusAmount, err := h.bonusLedger.Claim(c.Request.Context(), playerID)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bonus":   bonusAmount,
		"balance": newBalance,
	})
}
