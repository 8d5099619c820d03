package service

import (
	"context"
	"time"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// StatsCollectorConfig tunes wallet statistics collection
type StatsCollectorConfig struct {
	HistoryLimit int           // signatures fetched for age and activity
	RecentWindow time.Duration // activity window for RecentTransactions
}

// DefaultStatsCollectorConfig returns one page of 1000 signatures and a 7 day window
func DefaultStatsCollectorConfig() StatsCollectorConfig {
	return StatsCollectorConfig{
		HistoryLimit: 1000,
		RecentWindow: 7 * 24 * time.Hour,
	}
}

// StatsCollector derives WalletStats from a wallet's signature history and balance
type StatsCollector struct {
	ledger   LedgerClient
	throttle Throttle
	config   StatsCollectorConfig
	now      func() time.Time
	logger   *logger.Logger
}

// NewStatsCollector creates a new stats collector
func NewStatsCollector(ledger LedgerClient, throttle Throttle, cfg StatsCollectorConfig, logger *logger.Logger) *StatsCollector {
	if throttle == nil {
		throttle = NoThrottle()
	}
	return &StatsCollector{
		ledger:   ledger,
		throttle: throttle,
		config:   cfg,
		now:      time.Now,
		logger:   logger.WithComponent("stats-collector"),
	}
}

// Collect fetches the wallet's history and balance. The signatures are returned newest
// first so the funding classifier can reuse them.
func (c *StatsCollector) Collect(ctx context.Context, address string) (entity.WalletStats, []entity.Signature, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return entity.WalletStats{}, nil, entity.NewAnalysisError("collect stats", address, err)
	}
	signatures, err := c.ledger.ListSignatures(ctx, address, entity.SignatureQuery{Limit: c.config.HistoryLimit})
	if err != nil {
		return entity.WalletStats{}, nil, entity.NewAnalysisError("list signatures", address, err)
	}

	if err := c.throttle.Wait(ctx); err != nil {
		return entity.WalletStats{}, nil, entity.NewAnalysisError("collect stats", address, err)
	}
	lamports, err := c.ledger.GetBalance(ctx, address)
	if err != nil {
		return entity.WalletStats{}, nil, entity.NewAnalysisError("get balance", address, err)
	}

	now := c.now()
	age := 0
	if len(signatures) > 0 {
		if oldest := signatures[len(signatures)-1].Timestamp(); oldest > 0 {
			age = max(0, int((now.Unix()-oldest)/86400))
		}
	}

	cutoff := now.Add(-c.config.RecentWindow).Unix()
	recent := 0
	for _, sig := range signatures {
		if sig.BlockTime != nil && *sig.BlockTime >= cutoff {
			recent++
		}
	}

	stats, err := entity.NewWalletStats(len(signatures), recent, age, entity.LamportsToSOL(int64(lamports)))
	if err != nil {
		return entity.WalletStats{}, nil, entity.NewAnalysisError("build stats", address, err)
	}

	c.logger.Debug("Wallet stats collected",
		zap.String("address", address),
		zap.Int("total", stats.TotalTransactions),
		zap.Int("recent", stats.RecentTransactions),
		zap.Int("age_days", stats.AgeInDays),
		zap.Float64("balance_sol", stats.BalanceSOL))

	return stats, signatures, nil
}
