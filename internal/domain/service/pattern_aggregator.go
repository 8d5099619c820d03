package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

const (
	minFundingClusterSize = 3
	minAmountClusterSize  = 3
	minTimingWindowSize   = 3
	timing24hThreshold    = 3
	timing48hThreshold    = 5
	maxSuspicionScore     = 100
)

// ServiceChecker reports whether an address is a high-volume service
type ServiceChecker interface {
	IsHighVolumeService(ctx context.Context, address string) bool
}

// WalletInput is one wallet as seen by the aggregator. Stats is nil when collection failed.
type WalletInput struct {
	Address string
	Stats   *entity.WalletStats
	Funding *entity.FundingAnalysis
}

// PatternAggregator turns per-wallet results and observed connections into bundle warnings
type PatternAggregator struct {
	registry *KnownEntityRegistry
	services ServiceChecker
	now      func() time.Time
	logger   *logger.Logger
}

// NewPatternAggregator creates a new pattern aggregator. services may be nil.
func NewPatternAggregator(registry *KnownEntityRegistry, services ServiceChecker, logger *logger.Logger) *PatternAggregator {
	return &PatternAggregator{
		registry: registry,
		services: services,
		now:      time.Now,
		logger:   logger.WithComponent("pattern-aggregator"),
	}
}

// Analyze runs every bundle-wide detector and scores the result
func (a *PatternAggregator) Analyze(ctx context.Context, wallets []WalletInput, connections []entity.WalletConnection) entity.BundleAnalysis {
	result := entity.EmptyBundleAnalysis()

	valid := make([]WalletInput, 0, len(wallets))
	for _, w := range wallets {
		if w.Stats != nil {
			valid = append(valid, w)
		}
	}
	if len(valid) < 2 {
		a.logger.Info("Not enough analyzed wallets for pattern detection",
			zap.Int("valid", len(valid)),
			zap.Int("total", len(wallets)))
		return result
	}

	var warnings []entity.PatternWarning

	clusterWarnings, clusters := a.fundingClusters(ctx, valid)
	warnings = append(warnings, clusterWarnings...)
	result.FundingClusters = clusters

	result.Connections = DedupeConnections(connections)
	if w, ok := connectionWarning(result.Connections); ok {
		warnings = append(warnings, w)
	}

	warnings = append(warnings, a.timingWarnings(valid)...)
	warnings = append(warnings, amountWarnings(valid)...)

	sort.SliceStable(warnings, func(i, j int) bool {
		return warnings[i].Severity.Rank() > warnings[j].Severity.Rank()
	})
	result.Warnings = warnings
	result.SuspicionScore = SuspicionScore(warnings)

	for _, w := range warnings {
		a.logger.Info("Pattern warning",
			zap.String("id", w.ID),
			zap.String("severity", string(w.Severity)),
			zap.String("category", string(w.Category)),
			zap.Int("affected", len(w.AffectedAddresses)))
	}
	a.logger.Info("Pattern analysis completed",
		zap.Int("wallets", len(valid)),
		zap.Int("warnings", len(warnings)),
		zap.Int("connections", len(result.Connections)),
		zap.Int("suspicion_score", result.SuspicionScore))

	return result
}

// SuspicionScore sums severity weights, capped at 100
func SuspicionScore(warnings []entity.PatternWarning) int {
	score := 0
	for _, w := range warnings {
		score += w.Severity.Weight()
	}
	return min(score, maxSuspicionScore)
}

// DedupeConnections keeps the first connection seen for each unordered pair
func DedupeConnections(connections []entity.WalletConnection) []entity.WalletConnection {
	out := make([]entity.WalletConnection, 0, len(connections))
	seen := make(map[string]struct{}, len(connections))
	for _, c := range connections {
		key := c.PairKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (a *PatternAggregator) fundingClusters(ctx context.Context, wallets []WalletInput) ([]entity.PatternWarning, map[string][]string) {
	bySender := make(map[string][]string)
	excluded := make(map[string]bool)
	var order []string

	for _, w := range wallets {
		if w.Funding == nil || w.Funding.FirstDeposit == nil || w.Funding.FirstDeposit.From == "" {
			continue
		}
		sender := w.Funding.FirstDeposit.From
		if excluded[sender] || a.registry.IsKnown(sender) {
			continue
		}
		if _, tracked := bySender[sender]; !tracked {
			if a.services != nil && a.services.IsHighVolumeService(ctx, sender) {
				excluded[sender] = true
				continue
			}
			order = append(order, sender)
		}
		bySender[sender] = append(bySender[sender], w.Address)
	}

	clusters := make(map[string][]string)
	var warnings []entity.PatternWarning
	for _, sender := range order {
		funded := bySender[sender]
		if len(funded) < minFundingClusterSize {
			continue
		}
		clusters[sender] = funded
		warnings = append(warnings, entity.PatternWarning{
			ID:       "funding-cluster-" + prefix(sender, 8),
			Severity: entity.SeverityHigh,
			Category: entity.CategoryFunding,
			Title:    fmt.Sprintf("%d wallets funded from same private wallet", len(funded)),
			Description: fmt.Sprintf("Multiple wallets funded from %s (private wallet). "+
				"This creates a clear on-chain link that bundle scanners will detect.", entity.ShortAddress(sender)),
			AffectedAddresses: funded,
			Evidence:          map[string]any{"source": sender, "count": len(funded)},
		})
	}
	return warnings, clusters
}

func connectionWarning(connections []entity.WalletConnection) (entity.PatternWarning, bool) {
	if len(connections) == 0 {
		return entity.PatternWarning{}, false
	}

	var affected []string
	seen := make(map[string]struct{})
	for _, c := range connections {
		for _, addr := range []string{c.From, c.To} {
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			affected = append(affected, addr)
		}
	}

	title := "1 direct wallet connection detected"
	if len(connections) > 1 {
		title = fmt.Sprintf("%d direct wallet connections detected", len(connections))
	}
	return entity.PatternWarning{
		ID:       "wallet-connections",
		Severity: entity.SeverityHigh,
		Category: entity.CategoryConnection,
		Title:    title,
		Description: "Bundle contains wallets that have sent SOL to each other. " +
			"This is a major red flag and will appear on bubble maps.",
		AffectedAddresses: affected,
		Evidence: map[string]any{
			"connections": connections,
			"chains":      ConnectionChains(connections),
		},
	}, true
}

// ConnectionChains walks the directed transfer graph depth first and returns every chain
// of two or more wallets, starting from senders in first-seen order.
func ConnectionChains(connections []entity.WalletConnection) [][]string {
	graph := make(map[string][]string)
	var starts []string
	for _, c := range connections {
		if _, ok := graph[c.From]; !ok {
			starts = append(starts, c.From)
		}
		graph[c.From] = append(graph[c.From], c.To)
	}

	visited := make(map[string]bool)
	var walk func(node string) []string
	walk = func(node string) []string {
		visited[node] = true
		chain := []string{node}
		for _, next := range graph[node] {
			if !visited[next] {
				chain = append(chain, walk(next)...)
			}
		}
		return chain
	}

	chains := [][]string{}
	for _, start := range starts {
		if visited[start] {
			continue
		}
		if chain := walk(start); len(chain) > 1 {
			chains = append(chains, chain)
		}
	}
	return chains
}

type creation struct {
	address   string
	createdAt int64 // unix milliseconds
}

func (a *PatternAggregator) timingWarnings(wallets []WalletInput) []entity.PatternWarning {
	now := a.now().UnixMilli()
	var created []creation
	for _, w := range wallets {
		if w.Stats.AgeInDays <= 0 {
			continue
		}
		created = append(created, creation{
			address:   w.Address,
			createdAt: now - int64(w.Stats.AgeInDays)*int64(24*time.Hour/time.Millisecond),
		})
	}
	sort.SliceStable(created, func(i, j int) bool {
		return created[i].createdAt < created[j].createdAt
	})

	var warnings []entity.PatternWarning
	if day := timeClustered(created, 24*time.Hour); len(day) >= timing24hThreshold {
		warnings = append(warnings, entity.PatternWarning{
			ID:                "timing-cluster-24h",
			Severity:          entity.SeverityMedium,
			Category:          entity.CategoryTiming,
			Title:             fmt.Sprintf("%d wallets created within 24 hours", len(day)),
			Description:       "Multiple wallets created in a short timeframe suggests batch creation.",
			AffectedAddresses: day,
			Evidence:          map[string]any{"time_window": "24h", "count": len(day)},
		})
	}
	if twoDays := timeClustered(created, 48*time.Hour); len(twoDays) >= timing48hThreshold {
		warnings = append(warnings, entity.PatternWarning{
			ID:                "timing-cluster-48h",
			Severity:          entity.SeverityLow,
			Category:          entity.CategoryTiming,
			Title:             fmt.Sprintf("%d wallets created within 48 hours", len(twoDays)),
			Description:       "Bundle shows temporal clustering pattern.",
			AffectedAddresses: twoDays,
			Evidence:          map[string]any{"time_window": "48h", "count": len(twoDays)},
		})
	}
	return warnings
}

// timeClustered slides a window from each wallet over its successors (sorted by creation)
// and returns the union of every window holding at least three wallets.
func timeClustered(created []creation, window time.Duration) []string {
	windowMs := window.Milliseconds()
	var out []string
	seen := make(map[string]struct{})

	for i := range created {
		members := []string{created[i].address}
		for j := i + 1; j < len(created); j++ {
			if created[j].createdAt-created[i].createdAt > windowMs {
				break
			}
			members = append(members, created[j].address)
		}
		if len(members) < minTimingWindowSize {
			continue
		}
		for _, addr := range members {
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			out = append(out, addr)
		}
	}
	return out
}

func amountWarnings(wallets []WalletInput) []entity.PatternWarning {
	groups := make(map[float64][]string)
	var order []float64
	for _, w := range wallets {
		if w.Funding == nil || w.Funding.FirstDeposit == nil || w.Funding.FirstDeposit.AmountSOL <= 0 {
			continue
		}
		amount := math.Round(w.Funding.FirstDeposit.AmountSOL*100) / 100
		if _, ok := groups[amount]; !ok {
			order = append(order, amount)
		}
		groups[amount] = append(groups[amount], w.Address)
	}

	var warnings []entity.PatternWarning
	for _, amount := range order {
		addresses := groups[amount]
		if len(addresses) < minAmountClusterSize {
			continue
		}
		round := math.Abs(amount-math.Round(amount)) < 0.01
		severity := entity.SeverityLow
		description := "Identical funding amounts across wallets is suspicious."
		if round {
			severity = entity.SeverityMedium
			description = "Round number and identical amounts suggest coordinated funding."
		}
		warnings = append(warnings, entity.PatternWarning{
			ID:                "amount-pattern-" + strconv.FormatFloat(amount, 'f', -1, 64),
			Severity:          severity,
			Category:          entity.CategoryAmount,
			Title:             fmt.Sprintf("%d wallets funded with identical amount (%.2f SOL)", len(addresses), amount),
			Description:       description,
			AffectedAddresses: addresses,
			Evidence:          map[string]any{"amount": amount, "count": len(addresses), "is_round": round},
		})
	}
	return warnings
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
