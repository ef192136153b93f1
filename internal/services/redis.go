package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"casedrop-backend/internal/config"
	"casedrop-backend/internal/engine"
	"casedrop-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisService is the document store behind accounts, history, bonus
// grants and the catalog. Every entity is a JSON document under its own
// key; Redis gives atomicity per key only, so conditional account
// writes go through Lua scripts that check the version inside the
// server, and bonus grants use SETNX as the uniqueness gate.
type RedisService struct {
	client          *redis.Client
	startingBalance int64
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisService{
		client:          client,
		startingBalance: cfg.StartingBalance,
	}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// --- accounts ---

// GetAccount reads the player's account document, creating a fresh one
// with the starting balance on first contact. Creation uses SETNX so a
// racing first request cannot clobber an account that just appeared.
func (s *RedisService) GetAccount(ctx context.Context, playerID int64) (*models.Account, error) {
	key := fmt.Sprintf(KeyAccount, playerID)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		account, err := models.NewAccount(playerID, s.startingBalance)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(account)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal account: %v", err)
		}

		set, err := s.client.SetNX(ctx, key, raw, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to create account: %v", err)
		}
		if set {
			return account, nil
		}
		// Lost the creation race; fall through to the stored document.
		data, err = s.client.Get(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to get account: %v", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get account: %v", err)
	}

	var account models.Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %v", err)
	}
	return &account, nil
}

var setBalanceScript = redis.NewScript(`
	local key = KEYS[1]
	local balance = tonumber(ARGV[1])
	local expected = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("account not found")
	end

	local account = cjson.decode(data)

	if expected >= 0 and account.version ~= expected then
		return redis.error_reply("version conflict")
	end

	if balance < 0 then
		return redis.error_reply("negative balance")
	end

	account.balance = balance
	account.version = account.version + 1
	account.updated_at = now

	redis.call("SET", key, cjson.encode(account))

	return account.version
`)

// SetBalance conditionally writes the balance. expectedVersion < 0
// skips the version check (compensation writes only). Returns the new
// version.
func (s *RedisService) SetBalance(ctx context.Context, playerID, balance, expectedVersion int64) (int64, error) {
	key := fmt.Sprintf(KeyAccount, playerID)
	v, err := setBalanceScript.Run(ctx, s.client, []string{key},
		balance, expectedVersion, time.Now().Unix()).Int64()
	if err != nil {
		return 0, mapScriptErr(err)
	}
	return v, nil
}

var addStatsScript = redis.NewScript(`
	local key = KEYS[1]
	local wagered = tonumber(ARGV[1])
	local won = tonumber(ARGV[2])
	local games = tonumber(ARGV[3])
	local nonce = tonumber(ARGV[4])
	local expected = tonumber(ARGV[5])
	local now = tonumber(ARGV[6])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("account not found")
	end

	local account = cjson.decode(data)

	if expected >= 0 and account.version ~= expected then
		return redis.error_reply("version conflict")
	end

	account.total_wagered = account.total_wagered + wagered
	account.total_won = account.total_won + won
	account.games_played = account.games_played + games
	account.nonce = account.nonce + nonce
	account.version = account.version + 1
	account.updated_at = now

	redis.call("SET", key, cjson.encode(account))

	return account.version
`)

// AddStats applies a lifetime-statistics delta conditional on the
// version. Negative deltas undo a previous increment.
func (s *RedisService) AddStats(ctx context.Context, playerID int64, d models.StatsDelta, expectedVersion int64) (int64, error) {
	key := fmt.Sprintf(KeyAccount, playerID)
	v, err := addStatsScript.Run(ctx, s.client, []string{key},
		d.Wagered, d.Won, d.GamesPlayed, d.Nonce, expectedVersion, time.Now().Unix()).Int64()
	if err != nil {
		return 0, mapScriptErr(err)
	}
	return v, nil
}

var creditBonusScript = redis.NewScript(`
	local key = KEYS[1]
	local amount = tonumber(ARGV[1])
	local claimed_at = tonumber(ARGV[2])
	local expected = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("account not found")
	end

	local account = cjson.decode(data)

	if expected >= 0 and account.version ~= expected then
		return redis.error_reply("version conflict")
	end

	if account.balance + amount < 0 then
		return redis.error_reply("negative balance")
	end

	account.balance = account.balance + amount
	account.last_bonus_claim = claimed_at
	account.version = account.version + 1
	account.updated_at = now

	redis.call("SET", key, cjson.encode(account))

	return account.balance
`)

// CreditBonus adds amount to the balance and stamps the claim time in
// one atomic write. Returns the new balance.
func (s *RedisService) CreditBonus(ctx context.Context, playerID, amount, claimedAt, expectedVersion int64) (int64, error) {
	key := fmt.Sprintf(KeyAccount, playerID)
	v, err := creditBonusScript.Run(ctx, s.client, []string{key},
		amount, claimedAt, expectedVersion, time.Now().Unix()).Int64()
	if err != nil {
		return 0, mapScriptErr(err)
	}
	return v, nil
}

func mapScriptErr(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "version conflict"):
		return models.ErrConflict
	case strings.Contains(msg, "account not found"):
		return models.ErrAccountNotFound
	case strings.Contains(msg, "negative balance"):
		return models.ErrInsufficientFunds
	}
	return err
}

// --- history ---

func (s *RedisService) AppendHistory(ctx context.Context, rec *models.HistoryRecord) error {
	recKey := fmt.Sprintf(KeyHistoryRecord, rec.ID)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %v", err)
	}

	if err := s.client.Set(ctx, recKey, data, TTLHistoryRecord).Err(); err != nil {
		return fmt.Errorf("failed to save history record: %v", err)
	}

	indexKey := fmt.Sprintf(KeyPlayerHistory, rec.PlayerID)
	if err := s.client.ZAdd(ctx, indexKey, redis.Z{
		Score:  float64(rec.CreatedAt),
		Member: rec.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index history record: %v", err)
	}

	s.client.ZRemRangeByRank(ctx, indexKey, 0, int64(-HistoryKeep-1))

	return nil
}

// DeleteHistory removes a record and its index entry. Only the
// compensation path calls this; history is otherwise append-only.
func (s *RedisService) DeleteHistory(ctx context.Context, playerID int64, recordID string) error {
	if err := s.client.Del(ctx, fmt.Sprintf(KeyHistoryRecord, recordID)).Err(); err != nil {
		return fmt.Errorf("failed to delete history record: %v", err)
	}
	return s.client.ZRem(ctx, fmt.Sprintf(KeyPlayerHistory, playerID), recordID).Err()
}

func (s *RedisService) GetHistory(ctx context.Context, playerID int64, limit int64) ([]*models.HistoryRecord, error) {
	if limit <= 0 || limit > HistoryKeep {
		limit = 50
	}

	indexKey := fmt.Sprintf(KeyPlayerHistory, playerID)
	ids, err := s.client.ZRevRange(ctx, indexKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get history index: %v", err)
	}
	if len(ids) == 0 {
		return []*models.HistoryRecord{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, fmt.Sprintf(KeyHistoryRecord, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("pipeline execution failed: %v", err)
	}

	var records []*models.HistoryRecord
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue
		}
		var rec models.HistoryRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}
	return records, nil
}

// --- bonus grants ---

// CreateBonusGrant creates the (player, day) grant via SETNX. A false
// return means the grant already exists; this is the concurrency gate
// that makes same-millisecond claim races safe.
func (s *RedisService) CreateBonusGrant(ctx context.Context, grant *models.BonusGrant) (bool, error) {
	key := fmt.Sprintf(KeyBonusGrant, grant.PlayerID, grant.Day)

	data, err := json.Marshal(grant)
	if err != nil {
		return false, fmt.Errorf("failed to marshal bonus grant: %v", err)
	}

	created, err := s.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to create bonus grant: %v", err)
	}
	return created, nil
}

func (s *RedisService) DeleteBonusGrant(ctx context.Context, playerID int64, day string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyBonusGrant, playerID, day)).Err()
}

// --- catalog ---

func (s *RedisService) SaveCase(ctx context.Context, cfg *models.CaseConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal case: %v", err)
	}

	if err := s.client.Set(ctx, fmt.Sprintf(KeyCase, cfg.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save case: %v", err)
	}
	return s.client.SAdd(ctx, KeyCaseIndex, cfg.ID).Err()
}

func (s *RedisService) GetCase(ctx context.Context, id string) (*models.CaseConfig, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeyCase, id)).Result()
	if err == redis.Nil {
		return nil, models.ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %v", err)
	}

	var cfg models.CaseConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal case: %v", err)
	}
	return &cfg, nil
}

func (s *RedisService) ListCases(ctx context.Context) ([]*models.CaseConfig, error) {
	ids, err := s.client.SMembers(ctx, KeyCaseIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %v", err)
	}

	var cases []*models.CaseConfig
	for _, id := range ids {
		cfg, err := s.GetCase(ctx, id)
		if err != nil {
			continue
		}
		cases = append(cases, cfg)
	}
	return cases, nil
}

func (s *RedisService) SaveItem(ctx context.Context, item *models.CaseItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %v", err)
	}
	return s.client.Set(ctx, fmt.Sprintf(KeyItem, item.ID), data, 0).Err()
}

func (s *RedisService) AddItemToCase(ctx context.Context, caseID, itemID string) error {
	return s.client.SAdd(ctx, fmt.Sprintf(KeyCaseItems, caseID), itemID).Err()
}

// GetCasePool resolves the eligible reward pool for one case: every
// active item linked to the case, annotated with the case multiplier
// and its derived effective value.
func (s *RedisService) GetCasePool(ctx context.Context, caseID string) ([]models.PoolEntry, error) {
	cfg, err := s.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	multiplier := cfg.Multiplier
	if multiplier <= 0 {
		multiplier = 1.0
	}

	ids, err := s.client.SMembers(ctx, fmt.Sprintf(KeyCaseItems, caseID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get case items: %v", err)
	}
	if len(ids) == 0 {
		return []models.PoolEntry{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, fmt.Sprintf(KeyItem, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("pipeline execution failed: %v", err)
	}

	var pool []models.PoolEntry
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue
		}
		var item models.CaseItem
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			continue
		}
		if !item.Active {
			continue
		}
		pool = append(pool, models.PoolEntry{
			Item:           item,
			Multiplier:     multiplier,
			EffectiveValue: engine.Value(item.BaseValue, multiplier),
		})
	}
	return pool, nil
}

// --- rate limiting ---

func (s *RedisService) CheckRateLimit(ctx context.Context, playerID int64, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, playerID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

// --- test helpers ---

func (s *RedisService) DeleteAccount(ctx context.Context, playerID int64) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyAccount, playerID)).Err()
}

func (s *RedisService) ClearHistoryIndex(ctx context.Context, playerID int64) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyPlayerHistory, playerID)).Err()
}

func (s *RedisService) ClearRateLimit(ctx context.Context, playerID int64, action string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyRateLimit, playerID, action)).Err()
}

func (s *RedisService) DeleteCase(ctx context.Context, caseID string) error {
	if err := s.client.SRem(ctx, KeyCaseIndex, caseID).Err(); err != nil {
		return err
	}
	return s.client.Del(ctx,
		fmt.Sprintf(KeyCase, caseID),
		fmt.Sprintf(KeyCaseItems, caseID)).Err()
}
