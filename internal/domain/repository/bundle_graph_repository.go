package repository

import (
	"context"

	"wallet-bundle-analyzer/internal/domain/entity"
)

// BundleGraphRepository persists analyzed bundles as a wallet graph
type BundleGraphRepository interface {
	// SaveBundleReport stores analyzed wallets, their funders and the transfers between them
	SaveBundleReport(ctx context.Context, report *entity.BundleReport) error

	// GetWalletConnections retrieves stored transfers touching a wallet, newest first
	GetWalletConnections(ctx context.Context, address string, limit int) ([]entity.WalletConnection, error)

	// KnownConnections retrieves stored transfers whose both ends are in addresses
	KnownConnections(ctx context.Context, addresses []string) ([]entity.WalletConnection, error)
}
