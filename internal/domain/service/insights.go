package service

import (
	"math"

	"wallet-bundle-analyzer/internal/domain/entity"
)

// BuildInsights summarises the successfully analyzed wallets of a bundle
func BuildInsights(reports []entity.WalletReport, analysis entity.BundleAnalysis) entity.BundleInsights {
	insights := entity.BundleInsights{
		RoleDistribution:    map[entity.Role]int{},
		FundingDistribution: map[entity.FundingSource]int{},
		Recommendations:     []string{},
	}

	var valid []entity.WalletReport
	for _, r := range reports {
		if r.OK() {
			valid = append(valid, r)
		}
	}
	insights.WalletCount = len(valid)
	insights.HubWallet, insights.HubConnections = hubWallet(analysis.Connections)
	if len(valid) == 0 {
		return insights
	}

	n := float64(len(valid))
	var scoreSum, ageSum, balanceSum float64
	cexFunded, risky := 0, 0
	for _, r := range valid {
		scoreSum += float64(r.Score)
		ageSum += float64(r.Stats.AgeInDays)
		balanceSum += r.Stats.BalanceSOL
		if r.Score < MediumThreshold {
			risky++
		}
		if r.Role != nil {
			insights.RoleDistribution[r.Role.Role]++
		}
		if r.Funding != nil {
			insights.FundingDistribution[r.Funding.Source]++
			if r.Funding.Source.IsExchange() {
				cexFunded++
			}
		}
	}

	insights.AverageScore = math.Round(scoreSum / n)
	insights.AverageAgeDays = math.Round(ageSum / n)
	insights.AverageBalanceSOL = math.Round(balanceSum/n*100) / 100
	insights.CEXFundedPercent = math.Round(float64(cexFunded) / n * 100)

	riskRatio := float64(risky) / n
	insights.RiskyPercent = math.Round(riskRatio * 100)
	switch {
	case riskRatio > 0.5:
		insights.RiskLevel = entity.RiskHigh
	case riskRatio > 0.2:
		insights.RiskLevel = entity.RiskMedium
	default:
		insights.RiskLevel = entity.RiskLow
	}

	if insights.AverageScore < 70 {
		insights.Recommendations = append(insights.Recommendations,
			"Bundle average score is below 70 - consider wallet optimization")
	}
	if insights.CEXFundedPercent < 50 {
		insights.Recommendations = append(insights.Recommendations,
			"Less than 50% CEX-funded - may appear less legitimate")
	}
	if insights.AverageAgeDays < 60 {
		insights.Recommendations = append(insights.Recommendations,
			"Average wallet age is low - consider building more history")
	}
	if float64(risky) > n*0.3 {
		insights.Recommendations = append(insights.Recommendations,
			"Over 30% risky wallets - high chance of detection")
	}
	if len(analysis.Connections) > 0 {
		insights.Recommendations = append(insights.Recommendations,
			"Direct transfers link bundle wallets - break the on-chain trail before launch")
	}
	if len(insights.Recommendations) == 0 {
		insights.Recommendations = append(insights.Recommendations, "Bundle looks solid! Ready for launch")
	}

	return insights
}

// hubWallet returns the address taking part in the most connections.
// Ties go to the lexically smaller address.
func hubWallet(connections []entity.WalletConnection) (string, int) {
	counts := make(map[string]int)
	for _, c := range connections {
		counts[c.From]++
		counts[c.To]++
	}
	hub, best := "", 0
	for addr, n := range counts {
		if n > best || (n == best && addr < hub) {
			hub, best = addr, n
		}
	}
	return hub, best
}
