package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/domain/repository"
	"wallet-bundle-analyzer/internal/domain/service"
	"wallet-bundle-analyzer/internal/infrastructure/logger"
	"wallet-bundle-analyzer/internal/infrastructure/retry"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BundleAnalysisConfig tunes the orchestration of a bundle analysis
type BundleAnalysisConfig struct {
	WorkerPoolSize int
	TargetScore    int
	Persist        bool
	Retry          retry.Policy
}

// BundleAnalysisApplicationService implements BundleAnalysisService interface
type BundleAnalysisApplicationService struct {
	validator   service.AddressValidator
	stats       *service.StatsCollector
	funding     *service.FundingClassifier
	connections *service.ConnectionDetector
	aggregator  *service.PatternAggregator
	graphRepo   repository.BundleGraphRepository
	config      BundleAnalysisConfig
	now         func() time.Time
	logger      *logger.Logger
}

// NewBundleAnalysisApplicationService creates a new bundle analysis application service.
// graphRepo may be nil, in which case nothing is persisted.
func NewBundleAnalysisApplicationService(
	validator service.AddressValidator,
	stats *service.StatsCollector,
	funding *service.FundingClassifier,
	connections *service.ConnectionDetector,
	aggregator *service.PatternAggregator,
	graphRepo repository.BundleGraphRepository,
	cfg BundleAnalysisConfig,
	logger *logger.Logger,
) service.BundleAnalysisService {
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 1
	}
	if cfg.TargetScore <= 0 {
		cfg.TargetScore = service.DefaultTargetScore
	}
	return &BundleAnalysisApplicationService{
		validator:   validator,
		stats:       stats,
		funding:     funding,
		connections: connections,
		aggregator:  aggregator,
		graphRepo:   graphRepo,
		config:      cfg,
		now:         time.Now,
		logger:      logger.WithComponent("bundle-analysis-service"),
	}
}

// AnalyzeBundle runs the per-wallet stage for every address and then the bundle-wide stage.
// Wallets that fail are reported individually; an error is returned only when none succeeded.
func (s *BundleAnalysisApplicationService) AnalyzeBundle(ctx context.Context, addresses []string) (*entity.BundleReport, error) {
	report := &entity.BundleReport{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
	}
	log := s.logger.With(zap.String("run_id", report.RunID))

	unique := normalizeAddresses(addresses)
	log.Info("Starting bundle analysis",
		zap.Int("requested", len(addresses)),
		zap.Int("unique", len(unique)),
		zap.Int("workers", s.config.WorkerPoolSize))

	report.Wallets = make([]entity.WalletReport, len(unique))
	inputs := make([]service.WalletInput, len(unique))
	validated := make([]string, 0, len(unique))

	g := new(errgroup.Group)
	g.SetLimit(s.config.WorkerPoolSize)
	for i, address := range unique {
		inputs[i] = service.WalletInput{Address: address}
		if err := s.validator.Validate(address); err != nil {
			report.Wallets[i] = failedReport(address, entity.NewAnalysisError("validate", address, err))
			continue
		}
		validated = append(validated, address)

		g.Go(func() error {
			wallet, err := s.analyzeWallet(ctx, address)
			if err != nil {
				report.Wallets[i] = failedReport(address, err)
				return nil
			}
			report.Wallets[i] = *wallet
			inputs[i].Stats = wallet.Stats
			inputs[i].Funding = wallet.Funding
			return nil
		})
	}
	_ = g.Wait()

	analyzed := make([]string, 0, len(unique))
	onlyInvalid := true
	for _, w := range report.Wallets {
		if w.OK() {
			analyzed = append(analyzed, w.Address)
		} else if w.Kind != entity.ErrorInvalidInput {
			onlyInvalid = false
		}
	}
	if len(analyzed) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		kind := entity.ErrorTransient
		if onlyInvalid {
			kind = entity.ErrorInvalidInput
		}
		log.Warn("No wallets could be analyzed", zap.Int("addresses", len(unique)))
		return nil, &entity.AnalysisError{Kind: kind, Op: "analyze bundle", Err: entity.ErrNoWalletsAnalyzed}
	}

	// Wallets whose stats failed are still bundle members and are still scanned.
	connections := s.scanConnections(ctx, validated)
	connections = append(connections, s.knownConnections(ctx, validated)...)

	report.Analysis = s.aggregator.Analyze(ctx, inputs, connections)
	report.Insights = service.BuildInsights(report.Wallets, report.Analysis)
	report.FinishedAt = s.now()

	s.persist(ctx, report)

	log.Info("Bundle analysis completed",
		zap.Int("wallets", len(unique)),
		zap.Int("analyzed", len(analyzed)),
		zap.Int("warnings", len(report.Analysis.Warnings)),
		zap.Int("suspicion_score", report.Analysis.SuspicionScore),
		zap.String("risk_level", string(report.Insights.RiskLevel)),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))

	return report, nil
}

// RefreshWallet re-runs the per-wallet stage, retrying transient failures
func (s *BundleAnalysisApplicationService) RefreshWallet(ctx context.Context, address string) (*entity.WalletReport, error) {
	address = strings.TrimSpace(address)
	if err := s.validator.Validate(address); err != nil {
		return nil, entity.NewAnalysisError("validate", address, err)
	}

	policy := s.config.Retry
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		s.logger.Warn("Retrying wallet analysis",
			zap.String("address", address),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	return retry.DoValue(ctx, policy, func(ctx context.Context) (*entity.WalletReport, error) {
		return s.analyzeWallet(ctx, address)
	})
}

// PlanWallet refreshes address and plans the steps toward target. A non-positive target uses the configured one.
func (s *BundleAnalysisApplicationService) PlanWallet(ctx context.Context, address string, target int) (*entity.OptimizationPlan, error) {
	if target <= 0 {
		target = s.config.TargetScore
	}
	wallet, err := s.RefreshWallet(ctx, address)
	if err != nil {
		return nil, err
	}

	var source *entity.FundingSource
	if wallet.Funding != nil {
		source = &wallet.Funding.Source
	}
	plan := service.PlanOptimization(*wallet.Stats, source, target)
	return &plan, nil
}

// analyzeWallet runs stats, funding, score, role and plan for one address
func (s *BundleAnalysisApplicationService) analyzeWallet(ctx context.Context, address string) (*entity.WalletReport, error) {
	stats, signatures, err := s.stats.Collect(ctx, address)
	if err != nil {
		return nil, err
	}

	funding := s.funding.Classify(ctx, address, signatures)
	score := service.Score(stats)
	role := service.RecommendRole(stats, funding.Source)
	plan := service.PlanOptimization(stats, &funding.Source, s.config.TargetScore)

	s.logger.Debug("Wallet analyzed",
		zap.String("address", address),
		zap.Int("score", score),
		zap.String("funding", string(funding.Source)),
		zap.String("role", string(role.Role)))

	return &entity.WalletReport{
		Address: address,
		Stats:   &stats,
		Score:   score,
		Badge:   service.Badge(score),
		Funding: &funding,
		Role:    &role,
		Plan:    &plan,
	}, nil
}

// scanConnections runs one connection scan per valid address; results keep address order
func (s *BundleAnalysisApplicationService) scanConnections(ctx context.Context, addresses []string) []entity.WalletConnection {
	if len(addresses) < 2 {
		return nil
	}
	bundle := entity.NewAddressSet(addresses...)
	found := make([][]entity.WalletConnection, len(addresses))

	var mu sync.Mutex
	var total entity.ScanStats

	g := new(errgroup.Group)
	g.SetLimit(s.config.WorkerPoolSize)
	for i, address := range addresses {
		g.Go(func() error {
			conns, stats := s.connections.Detect(ctx, address, bundle)
			found[i] = conns

			mu.Lock()
			total.SignaturesListed += stats.SignaturesListed
			total.Sampled += stats.Sampled
			total.Parsed += stats.Parsed
			total.Spam += stats.Spam
			total.Errors += stats.Errors
			total.RateLimited += stats.RateLimited
			total.Found += stats.Found
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var connections []entity.WalletConnection
	for _, conns := range found {
		connections = append(connections, conns...)
	}

	s.logger.Info("Connection scans completed",
		zap.Int("wallets", len(addresses)),
		zap.Int("parsed", total.Parsed),
		zap.Int("spam", total.Spam),
		zap.Int("errors", total.Errors),
		zap.Int("rate_limited", total.RateLimited),
		zap.Int("connections", len(connections)))

	return connections
}

// knownConnections adds transfers between these wallets recorded by earlier runs
func (s *BundleAnalysisApplicationService) knownConnections(ctx context.Context, addresses []string) []entity.WalletConnection {
	if s.graphRepo == nil || len(addresses) < 2 {
		return nil
	}
	conns, err := s.graphRepo.KnownConnections(ctx, addresses)
	if err != nil {
		s.logger.Warn("Failed to load known connections", zap.Error(err))
		return nil
	}
	return conns
}

func (s *BundleAnalysisApplicationService) persist(ctx context.Context, report *entity.BundleReport) {
	if s.graphRepo == nil || !s.config.Persist {
		return
	}
	if err := s.graphRepo.SaveBundleReport(ctx, report); err != nil {
		s.logger.Error("Failed to persist bundle report",
			zap.String("run_id", report.RunID),
			zap.Error(err))
	}
}

func failedReport(address string, err error) entity.WalletReport {
	return entity.WalletReport{
		Address: address,
		Error:   err.Error(),
		Kind:    entity.ClassifyError(err),
	}
}

// normalizeAddresses trims whitespace, drops blanks and removes duplicates keeping first occurrence
func normalizeAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
