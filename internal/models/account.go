package models

// Account is a player's currency document. Balance and statistics are
// mutated exclusively through the transaction coordinator and the bonus
// ledger, never directly by request handlers.
//
// Version is a dedicated monotonic counter bumped on every write; it is
// the optimistic-concurrency token checked by conditional writes.
type Account struct {
	PlayerID     int64 `json:"player_id" redis:"player_id"`
	Balance      int64 `json:"balance" redis:"balance"`
	TotalWagered int64 `json:"total_wagered" redis:"total_wagered"`
	TotalWon     int64 `json:"total_won" redis:"total_won"`
	GamesPlayed  int64 `json:"games_played" redis:"games_played"`

	// Provably fair seeds
	ClientSeed string `json:"client_seed" redis:"client_seed"`
	Nonce      int64  `json:"nonce" redis:"nonce"`

	LastBonusClaim int64 `json:"last_bonus_claim" redis:"last_bonus_claim"`

	Version   int64 `json:"version" redis:"version"`
	CreatedAt int64 `json:"created_at" redis:"created_at"`
	UpdatedAt int64 `json:"updated_at" redis:"updated_at"`
}

// StatsDelta is the lifetime-statistics increment applied alongside a
// committed wager. Nonce advances once per opening so the provably-fair
// draw index moves atomically with the balance.
type StatsDelta struct {
	Wagered     int64
	Won         int64
	GamesPlayed int64
	Nonce       int64
}

// Negate returns the delta that undoes d. Used by compensation.
func (d StatsDelta) Negate() StatsDelta {
	return StatsDelta{
		Wagered:     -d.Wagered,
		Won:         -d.Won,
		GamesPlayed: -d.GamesPlayed,
		Nonce:       -d.Nonce,
	}
}
