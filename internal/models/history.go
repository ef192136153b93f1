package models

type EventType string

const (
	EventCaseOpen   EventType = "case_open"
	EventDailyBonus EventType = "daily_bonus"
)

// CaseOpenMeta is the structured result payload of a case opening.
type CaseOpenMeta struct {
	OpeningID      string  `json:"opening_id"`
	CaseID         string  `json:"case_id"`
	ItemID         string  `json:"item_id"`
	ItemName       string  `json:"item_name"`
	Tier           string  `json:"tier"`
	TierDraw       float64 `json:"tier_draw"`
	ItemDraw       float64 `json:"item_draw"`
	ClientSeed     string  `json:"client_seed"`
	ServerSeedHash string  `json:"server_seed_hash"`
	Nonce          int64   `json:"nonce"`
}

// BonusMeta is the structured result payload of a daily bonus grant.
type BonusMeta struct {
	Day string `json:"day"` // UTC calendar date, 2006-01-02
}

// HistoryRecord is an append-only fact written after a successful
// balance mutation and deleted only as a compensating action. The
// result payload is a typed sub-record keyed by Type, not an encoded
// blob.
type HistoryRecord struct {
	ID       string    `json:"id" redis:"id"`
	PlayerID int64     `json:"player_id" redis:"player_id"`
	Type     EventType `json:"type" redis:"type"`
	Stake    int64     `json:"stake" redis:"stake"`
	Amount   int64     `json:"amount" redis:"amount"`

	CaseOpen *CaseOpenMeta `json:"case_open,omitempty"`
	Bonus    *BonusMeta    `json:"bonus,omitempty"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
}

// BonusGrant exists once per (player, UTC day). Its creation is the
// concurrency gate for the daily bonus: the store rejects a second
// create for the same key.
type BonusGrant struct {
	PlayerID  int64  `json:"player_id" redis:"player_id"`
	Day       string `json:"day" redis:"day"`
	Amount    int64  `json:"amount" redis:"amount"`
	CreatedAt int64  `json:"created_at" redis:"created_at"`
}
