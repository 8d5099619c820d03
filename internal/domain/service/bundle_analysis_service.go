package service

import (
	"context"

	"wallet-bundle-analyzer/internal/domain/entity"
)

// BundleAnalysisService defines the interface for bundle analysis operations
type BundleAnalysisService interface {
	// AnalyzeBundle analyzes every wallet of the bundle and the patterns between them
	AnalyzeBundle(ctx context.Context, addresses []string) (*entity.BundleReport, error)

	// RefreshWallet re-runs the per-wallet analysis for one address
	RefreshWallet(ctx context.Context, address string) (*entity.WalletReport, error)

	// PlanWallet builds an optimization plan for one address toward target
	PlanWallet(ctx context.Context, address string, target int) (*entity.OptimizationPlan, error)
}
