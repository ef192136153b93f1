package models

// OpeningResult is the immutable output of one engine run: which item
// the player won, what it paid, and the provably-fair inputs needed to
// verify the draws after seed disclosure.
type OpeningResult struct {
	OpeningID string   `json:"opening_id"`
	CaseID    string   `json:"case_id"`
	Item      CaseItem `json:"item"`
	Amount    int64    `json:"amount"`

	TierDraw float64 `json:"tier_draw"`
	ItemDraw float64 `json:"item_draw"`

	ClientSeed     string `json:"client_seed"`
	ServerSeedHash string `json:"server_seed_hash"`
	Nonce          int64  `json:"nonce"`

	CreatedAt int64 `json:"created_at"`
}

type OpenCaseRequest struct {
	CaseID string `json:"case_id" binding:"required"`
}

type VerifyRequest struct {
	ServerSeed string `json:"server_seed" binding:"required"`
	ClientSeed string `json:"client_seed" binding:"required"`
	Nonce      int64  `json:"nonce"`
	Count      int    `json:"count"`
}
