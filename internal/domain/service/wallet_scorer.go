package service

import "wallet-bundle-analyzer/internal/domain/entity"

// Badge thresholds
const (
	CleanThreshold  = 80
	MediumThreshold = 50
)

// Score computes the 0..100 health score of a wallet from its activity
func Score(stats entity.WalletStats) int {
	score := 0

	switch tx := stats.TotalTransactions; {
	case tx > 100:
		score += 40
	case tx > 50:
		score += 30
	case tx > 10:
		score += 20
	case tx > 0:
		score += 10
	}

	switch recent := stats.RecentTransactions; {
	case recent >= 3:
		score += 40
	case recent >= 1:
		score += 20
	}

	switch age := stats.AgeInDays; {
	case age > 30:
		score += 20
	case age > 7:
		score += 10
	}

	return min(score, 100)
}

// Badge maps a health score to its tier
func Badge(score int) entity.BadgeTier {
	switch {
	case score >= CleanThreshold:
		return entity.BadgeClean
	case score >= MediumThreshold:
		return entity.BadgeMedium
	default:
		return entity.BadgeRisky
	}
}
