package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/domain/repository"
	"wallet-bundle-analyzer/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

// RedisLedgerCache keeps parsed transactions and balances in redis.
// Confirmed transactions never change so they live for TTL; balances only for BalanceTTL.
type RedisLedgerCache struct {
	client     redis.Cmdable
	prefix     string
	ttl        time.Duration
	balanceTTL time.Duration
}

// NewRedisLedgerCache creates a ledger cache over an existing redis client
func NewRedisLedgerCache(client redis.Cmdable, cfg *config.RedisConfig) repository.LedgerCache {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "bundle-analyzer"
	}
	return &RedisLedgerCache{
		client:     client,
		prefix:     prefix,
		ttl:        cfg.TTL,
		balanceTTL: cfg.BalanceTTL,
	}
}

func (c *RedisLedgerCache) txKey(signature string) string {
	return c.prefix + ":tx:" + signature
}

func (c *RedisLedgerCache) balanceKey(address string) string {
	return c.prefix + ":balance:" + address
}

// GetTransaction returns a cached parsed transaction
func (c *RedisLedgerCache) GetTransaction(ctx context.Context, signature string) (*entity.ParsedTransaction, bool, error) {
	raw, err := c.client.Get(ctx, c.txKey(signature)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached transaction %s: %w", signature, err)
	}

	var tx entity.ParsedTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached transaction %s: %w", signature, err)
	}
	return &tx, true, nil
}

// PutTransaction caches a parsed transaction
func (c *RedisLedgerCache) PutTransaction(ctx context.Context, tx *entity.ParsedTransaction) error {
	raw, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to encode transaction %s: %w", tx.Signature, err)
	}
	if err := c.client.Set(ctx, c.txKey(tx.Signature), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache transaction %s: %w", tx.Signature, err)
	}
	return nil
}

// GetBalance returns a cached balance in lamports
func (c *RedisLedgerCache) GetBalance(ctx context.Context, address string) (uint64, bool, error) {
	val, err := c.client.Get(ctx, c.balanceKey(address)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get cached balance %s: %w", address, err)
	}

	lamports, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to decode cached balance %s: %w", address, err)
	}
	return lamports, true, nil
}

// PutBalance caches a balance in lamports
func (c *RedisLedgerCache) PutBalance(ctx context.Context, address string, lamports uint64) error {
	if c.balanceTTL <= 0 {
		return nil
	}
	err := c.client.Set(ctx, c.balanceKey(address), strconv.FormatUint(lamports, 10), c.balanceTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache balance %s: %w", address, err)
	}
	return nil
}
