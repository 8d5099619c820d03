package cache

import (
	"context"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/domain/repository"
	"wallet-bundle-analyzer/internal/domain/service"
	"wallet-bundle-analyzer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// CachingLedgerClient serves parsed transactions and balances from a LedgerCache
// and falls through to the wrapped ledger on a miss. Signature listings are never cached.
// Cache failures are logged and never fail the read.
type CachingLedgerClient struct {
	next   service.LedgerClient
	cache  repository.LedgerCache
	logger *logger.Logger
}

// NewCachingLedgerClient wraps next with cache
func NewCachingLedgerClient(next service.LedgerClient, cache repository.LedgerCache, logger *logger.Logger) service.LedgerClient {
	return &CachingLedgerClient{
		next:   next,
		cache:  cache,
		logger: logger.WithComponent("ledger-cache"),
	}
}

func (c *CachingLedgerClient) ListSignatures(ctx context.Context, address string, query entity.SignatureQuery) ([]entity.Signature, error) {
	return c.next.ListSignatures(ctx, address, query)
}

func (c *CachingLedgerClient) GetTransaction(ctx context.Context, signature string) (*entity.ParsedTransaction, error) {
	tx, found, err := c.cache.GetTransaction(ctx, signature)
	if err != nil {
		c.logger.Warn("Ledger cache read failed", zap.String("signature", signature), zap.Error(err))
	} else if found {
		return tx, nil
	}

	tx, err = c.next.GetTransaction(ctx, signature)
	if err != nil || tx == nil {
		return tx, err
	}

	if err := c.cache.PutTransaction(ctx, tx); err != nil {
		c.logger.Warn("Ledger cache write failed", zap.String("signature", signature), zap.Error(err))
	}
	return tx, nil
}

func (c *CachingLedgerClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	lamports, found, err := c.cache.GetBalance(ctx, address)
	if err != nil {
		c.logger.Warn("Ledger cache read failed", zap.String("address", address), zap.Error(err))
	} else if found {
		return lamports, nil
	}

	lamports, err = c.next.GetBalance(ctx, address)
	if err != nil {
		return 0, err
	}

	if err := c.cache.PutBalance(ctx, address, lamports); err != nil {
		c.logger.Warn("Ledger cache write failed", zap.String("address", address), zap.Error(err))
	}
	return lamports, nil
}
