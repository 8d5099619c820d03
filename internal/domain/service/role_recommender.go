package service

import (
	"fmt"

	"wallet-bundle-analyzer/internal/domain/entity"
)

const (
	maxRoleReasons  = 3
	maxRoleConcerns = 2
)

// rolePriority breaks score ties: earlier roles win
var rolePriority = []entity.Role{
	entity.RoleDevWallet,
	entity.RoleTopHolder,
	entity.RoleMarketMaker,
	entity.RoleEarlySupporter,
	entity.RoleSniper,
}

type roleProfile struct {
	score    func(s entity.WalletStats, source entity.FundingSource) int
	reasons  func(s entity.WalletStats, source entity.FundingSource) []string
	concerns func(s entity.WalletStats) []string
}

var roleProfiles = map[entity.Role]roleProfile{
	entity.RoleDevWallet:      {devScore, devReasons, devConcerns},
	entity.RoleTopHolder:      {holderScore, holderReasons, holderConcerns},
	entity.RoleMarketMaker:    {marketMakerScore, marketMakerReasons, marketMakerConcerns},
	entity.RoleEarlySupporter: {supporterScore, supporterReasons, supporterConcerns},
	entity.RoleSniper:         {sniperScore, sniperReasons, sniperConcerns},
}

// RecommendRole picks the archetype that best fits the wallet.
// Ties resolve in the fixed order dev, holder, market maker, supporter, sniper.
func RecommendRole(stats entity.WalletStats, source entity.FundingSource) entity.RoleRecommendation {
	best := rolePriority[0]
	bestScore := -1
	for _, role := range rolePriority {
		if s := roleProfiles[role].score(stats, source); s > bestScore {
			best, bestScore = role, s
		}
	}

	profile := roleProfiles[best]
	return entity.RoleRecommendation{
		Role:       best,
		Confidence: bestScore,
		Score:      bestScore,
		Reasons:    truncate(profile.reasons(stats, source), maxRoleReasons),
		Concerns:   truncate(profile.concerns(stats), maxRoleConcerns),
	}
}

// RecommendRoleFor is RecommendRole for wallets that may lack stats
func RecommendRoleFor(stats *entity.WalletStats, source entity.FundingSource) entity.RoleRecommendation {
	if stats == nil {
		return entity.RoleRecommendation{
			Role:     entity.RoleUnknown,
			Reasons:  []string{"No data available"},
			Concerns: []string{},
		}
	}
	return RecommendRole(*stats, source)
}

// RoleScores returns every archetype score, useful for explaining a recommendation
func RoleScores(stats entity.WalletStats, source entity.FundingSource) map[entity.Role]int {
	out := make(map[entity.Role]int, len(rolePriority))
	for _, role := range rolePriority {
		out[role] = roleProfiles[role].score(stats, source)
	}
	return out
}

func truncate(items []string, n int) []string {
	if items == nil {
		return []string{}
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}

func between(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func devScore(s entity.WalletStats, source entity.FundingSource) int {
	score := 0
	age, bal, tx, recent := s.AgeInDays, s.BalanceSOL, s.TotalTransactions, s.RecentTransactions

	switch {
	case age > 180:
		score += 30
	case age > 90:
		score += 20
	case age > 30:
		score += 10
	}

	switch {
	case between(bal, 5, 100):
		score += 25
	case between(bal, 2, 200):
		score += 15
	case bal >= 1:
		score += 5
	}

	switch {
	case tx >= 20 && tx <= 100:
		score += 20
	case tx >= 10 && tx <= 200:
		score += 10
	case tx >= 5:
		score += 5
	}

	// low recent activity suits a wallet that stays quiet until launch
	switch {
	case recent <= 3:
		score += 15
	case recent <= 10:
		score += 7
	case recent <= 20:
		score += 3
	}

	switch {
	case source.IsExchange():
		score += 10
	case source == entity.FundingLikelyCEX:
		score += 5
	}

	return min(score, 100)
}

func devReasons(s entity.WalletStats, source entity.FundingSource) []string {
	var out []string
	if s.AgeInDays > 180 {
		out = append(out, fmt.Sprintf("Mature wallet (%d days old)", s.AgeInDays))
	}
	if source.IsExchange() {
		out = append(out, "Funded from a known exchange")
	}
	if s.RecentTransactions <= 3 {
		out = append(out, "Low recent activity keeps launch discreet")
	}
	if s.BalanceSOL >= 5 {
		out = append(out, fmt.Sprintf("Healthy balance (%.2f SOL)", s.BalanceSOL))
	}
	if s.TotalTransactions >= 20 && s.TotalTransactions <= 100 {
		out = append(out, "Moderate transaction history")
	}
	return out
}

func devConcerns(s entity.WalletStats) []string {
	var out []string
	if s.AgeInDays < 30 {
		out = append(out, "Wallet is very new")
	}
	if s.RecentTransactions > 20 {
		out = append(out, "High recent activity draws attention")
	}
	if s.BalanceSOL < 1 {
		out = append(out, "Low balance for deployment costs")
	}
	if s.TotalTransactions < 10 {
		out = append(out, "Thin transaction history")
	}
	return out
}

func holderScore(s entity.WalletStats, _ entity.FundingSource) int {
	score := 0
	age, bal, tx, recent := s.AgeInDays, s.BalanceSOL, s.TotalTransactions, s.RecentTransactions

	switch {
	case bal >= 50:
		score += 40
	case bal >= 20:
		score += 30
	case bal >= 10:
		score += 20
	case bal >= 5:
		score += 10
	}

	switch {
	case age > 90:
		score += 25
	case age > 60:
		score += 15
	case age > 30:
		score += 10
	}

	switch {
	case tx >= 50 && tx <= 500:
		score += 20
	case tx >= 20 && tx <= 1000:
		score += 10
	case tx >= 10:
		score += 5
	}

	switch {
	case recent >= 5 && recent <= 30:
		score += 15
	case recent >= 1 && recent <= 50:
		score += 8
	}

	return min(score, 100)
}

func holderReasons(s entity.WalletStats, _ entity.FundingSource) []string {
	var out []string
	if s.BalanceSOL >= 20 {
		out = append(out, fmt.Sprintf("Large balance (%.2f SOL)", s.BalanceSOL))
	}
	if s.AgeInDays > 90 {
		out = append(out, fmt.Sprintf("Established wallet (%d days old)", s.AgeInDays))
	}
	if s.TotalTransactions >= 50 {
		out = append(out, "Substantial transaction history")
	}
	if s.RecentTransactions >= 5 {
		out = append(out, "Active in the last week")
	}
	return out
}

func holderConcerns(s entity.WalletStats) []string {
	var out []string
	if s.BalanceSOL < 10 {
		out = append(out, "Balance is small for a top holder")
	}
	if s.AgeInDays < 60 {
		out = append(out, "Wallet is younger than 60 days")
	}
	return out
}

func marketMakerScore(s entity.WalletStats, _ entity.FundingSource) int {
	score := 0
	age, bal, tx, recent := s.AgeInDays, s.BalanceSOL, s.TotalTransactions, s.RecentTransactions

	switch {
	case tx >= 500:
		score += 40
	case tx >= 200:
		score += 30
	case tx >= 100:
		score += 20
	case tx >= 50:
		score += 10
	}

	switch {
	case recent >= 50:
		score += 30
	case recent >= 20:
		score += 20
	case recent >= 10:
		score += 10
	case recent >= 5:
		score += 5
	}

	switch {
	case between(bal, 10, 100):
		score += 20
	case between(bal, 5, 200):
		score += 10
	case bal >= 2:
		score += 5
	}

	switch {
	case age > 60:
		score += 10
	case age > 30:
		score += 5
	}

	return min(score, 100)
}

func marketMakerReasons(s entity.WalletStats, _ entity.FundingSource) []string {
	var out []string
	if s.TotalTransactions >= 500 {
		out = append(out, fmt.Sprintf("Very high transaction count (%d)", s.TotalTransactions))
	}
	if s.RecentTransactions >= 50 {
		out = append(out, "Constant recent trading activity")
	}
	if s.BalanceSOL >= 10 {
		out = append(out, "Enough liquidity to make markets")
	}
	return out
}

func marketMakerConcerns(s entity.WalletStats) []string {
	var out []string
	if s.TotalTransactions < 200 {
		out = append(out, "Trading history is light for a market maker")
	}
	if s.BalanceSOL < 5 {
		out = append(out, "Limited liquidity")
	}
	return out
}

func supporterScore(s entity.WalletStats, _ entity.FundingSource) int {
	score := 0
	age, bal, tx, recent := s.AgeInDays, s.BalanceSOL, s.TotalTransactions, s.RecentTransactions

	switch {
	case age > 120:
		score += 30
	case age > 60:
		score += 20
	case age > 30:
		score += 10
	}

	switch {
	case tx >= 100 && tx <= 300:
		score += 25
	case tx >= 50 && tx <= 500:
		score += 15
	case tx >= 20:
		score += 8
	}

	switch {
	case between(bal, 5, 50):
		score += 25
	case between(bal, 2, 100):
		score += 15
	case bal >= 1:
		score += 8
	}

	switch {
	case recent >= 5 && recent <= 20:
		score += 20
	case recent >= 1 && recent <= 30:
		score += 10
	}

	return min(score, 100)
}

func supporterReasons(s entity.WalletStats, _ entity.FundingSource) []string {
	var out []string
	if s.AgeInDays > 120 {
		out = append(out, "Long-standing wallet looks organic")
	}
	if between(s.BalanceSOL, 5, 50) {
		out = append(out, "Balance typical of a retail supporter")
	}
	if s.TotalTransactions >= 100 {
		out = append(out, "Organic-looking transaction history")
	}
	return out
}

func supporterConcerns(s entity.WalletStats) []string {
	var out []string
	if s.AgeInDays < 60 {
		out = append(out, "Wallet is younger than 60 days")
	}
	if s.RecentTransactions == 0 {
		out = append(out, "No activity in the last week")
	}
	return out
}

func sniperScore(s entity.WalletStats, _ entity.FundingSource) int {
	score := 0
	age, bal, tx, recent := s.AgeInDays, s.BalanceSOL, s.TotalTransactions, s.RecentTransactions

	switch {
	case recent >= 100:
		score += 35
	case recent >= 50:
		score += 25
	case recent >= 20:
		score += 15
	case recent >= 10:
		score += 8
	}

	switch {
	case tx >= 200:
		score += 30
	case tx >= 100:
		score += 20
	case tx >= 50:
		score += 10
	}

	switch {
	case between(bal, 2, 20):
		score += 20
	case between(bal, 1, 50):
		score += 10
	case bal >= 0.5:
		score += 5
	}

	switch {
	case age >= 30 && age <= 180:
		score += 15
	case age >= 7 && age <= 365:
		score += 8
	}

	return min(score, 100)
}

func sniperReasons(s entity.WalletStats, _ entity.FundingSource) []string {
	var out []string
	if s.RecentTransactions >= 20 {
		out = append(out, "High recent activity suits fast entries")
	}
	if s.TotalTransactions >= 100 {
		out = append(out, "Experienced trading wallet")
	}
	if s.BalanceSOL >= 2 {
		out = append(out, "Enough balance for quick buys")
	}
	return out
}

func sniperConcerns(s entity.WalletStats) []string {
	var out []string
	if s.RecentTransactions < 10 {
		out = append(out, "Not active enough recently")
	}
	return out
}
