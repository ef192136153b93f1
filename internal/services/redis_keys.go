package services

import "time"

const (
	KeyAccount       = "account:%d"
	KeyHistoryRecord = "history:%s"
	KeyPlayerHistory = "player:%d:history"
	KeyBonusGrant    = "bonus:%d:%s"
	KeyCase          = "case:%s"
	KeyCaseItems     = "case:%s:items"
	KeyCaseIndex     = "cases"
	KeyItem          = "item:%s"
	KeyRateLimit     = "ratelimit:%d:%s"

	TTLHistoryRecord = 30 * 24 * time.Hour // 30 days

	// HistoryKeep is how many records the per-player index retains.
	HistoryKeep = 100

	DefaultRateLimitOpens  = 30 // max case openings per minute
	DefaultRateLimitClaims = 10 // max bonus claim attempts per minute
)
