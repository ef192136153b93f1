package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func GenerateOpeningID() string {
	return fmt.Sprintf("open_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateRecordID() string {
	return fmt.Sprintf("rec_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateClientSeed() (string, error) {
	bytes := make([]byte, 16) // 128 bits of entropy
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate client seed: %v", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BonusDay formats t as the UTC calendar day used in bonus grant keys.
func BonusDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func FormatCurrency(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// NewAccount returns a fresh account with the given starting balance
// and a generated client seed.
func NewAccount(playerID int64, startingBalance int64) (*Account, error) {
	clientSeed, err := GenerateClientSeed()
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	return &Account{
		PlayerID:   playerID,
		Balance:    startingBalance,
		ClientSeed: clientSeed,
		Nonce:      0,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
