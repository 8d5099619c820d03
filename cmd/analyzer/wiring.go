package main

import (
	"context"
	"strings"
	"time"

	app_service "wallet-bundle-analyzer/internal/application/service"
	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/domain/repository"
	domain_service "wallet-bundle-analyzer/internal/domain/service"
	"wallet-bundle-analyzer/internal/infrastructure/blockchain"
	"wallet-bundle-analyzer/internal/infrastructure/cache"
	"wallet-bundle-analyzer/internal/infrastructure/config"
	"wallet-bundle-analyzer/internal/infrastructure/database"
	"wallet-bundle-analyzer/internal/infrastructure/logger"
	"wallet-bundle-analyzer/internal/infrastructure/ratelimit"
	"wallet-bundle-analyzer/internal/infrastructure/retry"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const connectTimeout = 15 * time.Second

var infrastructureModule = fx.Options(
	fx.Provide(
		blockchain.NewInstructionDecoder,
		blockchain.NewAddressValidator,
		ratelimit.NewThrottle,
		database.NewNeo4JClient,
		newLedgerClient,
		newGraphRepository,
	),
)

var domainModule = fx.Options(
	fx.Provide(
		newRegistry,
		newStatsCollector,
		newFundingClassifier,
		newServiceDetector,
		newConnectionDetector,
		newPatternAggregator,
	),
)

var applicationModule = fx.Options(
	fx.Provide(
		newBundleAnalysisConfig,
		app_service.NewBundleAnalysisApplicationService,
	),
)

// newLedgerClient builds the Solana client, fronted by the redis cache when enabled.
// An unreachable redis only disables caching.
func newLedgerClient(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	decoder *blockchain.InstructionDecoder,
	log *logger.Logger,
) domain_service.LedgerClient {
	ledger := blockchain.NewSolanaClient(&cfg.Solana, decoder, log)
	if !cfg.Redis.Enabled {
		return ledger
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := cache.NewRedisClient(ctx, &cfg.Redis, log)
	if err != nil {
		log.Warn("Ledger cache disabled", zap.Error(err))
		return ledger
	}
	lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return cache.NewCachingLedgerClient(ledger, cache.NewRedisLedgerCache(client, &cfg.Redis), log)
}

// newGraphRepository connects to Neo4J when enabled. Without it bundles are not persisted.
func newGraphRepository(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	client *database.Neo4JClient,
	log *logger.Logger,
) repository.BundleGraphRepository {
	if !cfg.Neo4J.Enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		log.Warn("Bundle persistence disabled", zap.Error(err))
		return nil
	}
	lifecycle.Append(fx.Hook{
		OnStop: client.Close,
	})

	return database.NewNeo4JBundleRepository(client, log)
}

func newRegistry(cfg *config.Config, log *logger.Logger) *domain_service.KnownEntityRegistry {
	extra := make([]domain_service.KnownEntity, 0, len(cfg.Registry.Entities))
	for _, e := range cfg.Registry.Entities {
		extra = append(extra, domain_service.KnownEntity{
			Key:        entity.FundingSource(strings.ToLower(e.Key)),
			Name:       e.Name,
			Confidence: e.Confidence,
			Addresses:  e.Addresses,
		})
	}
	registry := domain_service.NewDefaultRegistry(extra...)
	log.Info("Known entity registry loaded",
		zap.Int("configured", len(extra)),
		zap.Int("entities", len(registry.Keys())))
	return registry
}

func newStatsCollector(cfg *config.Config, ledger domain_service.LedgerClient, throttle domain_service.Throttle,
	log *logger.Logger) *domain_service.StatsCollector {
	c := domain_service.DefaultStatsCollectorConfig()
	c.HistoryLimit = cfg.Analysis.HistoryLimit
	c.RecentWindow = cfg.Analysis.RecentWindow
	return domain_service.NewStatsCollector(ledger, throttle, c, log)
}

func newFundingClassifier(cfg *config.Config, ledger domain_service.LedgerClient, registry *domain_service.KnownEntityRegistry,
	throttle domain_service.Throttle, log *logger.Logger) *domain_service.FundingClassifier {
	c := domain_service.DefaultFundingClassifierConfig()
	c.MaxCandidates = cfg.Analysis.FundingCandidates
	c.MinDepositSOL = cfg.Analysis.MinDepositSOL
	c.RateLimitCooldown = cfg.Analysis.RateLimitCooldown
	return domain_service.NewFundingClassifier(ledger, registry, throttle, c, log)
}

func newServiceDetector(cfg *config.Config, ledger domain_service.LedgerClient, throttle domain_service.Throttle,
	log *logger.Logger) *domain_service.ServiceDetector {
	c := domain_service.DefaultServiceDetectorConfig()
	c.MinTxPerDay = cfg.Analysis.ServiceMinTxPerDay
	c.MinSignatures = cfg.Analysis.ServiceMinSignatures
	return domain_service.NewServiceDetector(ledger, throttle, c, log)
}

func newConnectionDetector(cfg *config.Config, ledger domain_service.LedgerClient, throttle domain_service.Throttle,
	log *logger.Logger) *domain_service.ConnectionDetector {
	c := domain_service.DefaultConnectionDetectorConfig()
	c.PageSize = cfg.Analysis.ConnectionPageSize
	c.MaxPages = cfg.Analysis.ConnectionMaxPages
	c.PageDelay = cfg.Analysis.PageDelay
	c.MinTransferSOL = cfg.Analysis.MinTransferSOL
	c.RateLimitCooldown = cfg.Analysis.RateLimitCooldown
	c.Policy = domain_service.ParseMatchPolicy(cfg.Analysis.MatchPolicy)

	sampler := domain_service.StratifiedSampler{
		Recent: cfg.Analysis.SampleRecent,
		Middle: cfg.Analysis.SampleMiddle,
		Oldest: cfg.Analysis.SampleOldest,
	}
	return domain_service.NewConnectionDetector(ledger, sampler, throttle, c, log)
}

func newPatternAggregator(registry *domain_service.KnownEntityRegistry, services *domain_service.ServiceDetector,
	log *logger.Logger) *domain_service.PatternAggregator {
	return domain_service.NewPatternAggregator(registry, services, log)
}

func newBundleAnalysisConfig(cfg *config.Config) app_service.BundleAnalysisConfig {
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.Analysis.RetryAttempts
	policy.BaseDelay = cfg.Analysis.RetryBaseDelay

	return app_service.BundleAnalysisConfig{
		WorkerPoolSize: cfg.Analysis.WorkerPoolSize,
		TargetScore:    cfg.Analysis.TargetScore,
		Persist:        cfg.Analysis.Persist,
		Retry:          policy,
	}
}
