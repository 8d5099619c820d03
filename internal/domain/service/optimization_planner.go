package service

import (
	"fmt"
	"sort"

	"wallet-bundle-analyzer/internal/domain/entity"
)

// DefaultTargetScore is the score the planner aims for when none is given
const DefaultTargetScore = 100

const maxPlanActions = 6

// PlanOptimization lists the actions that would raise the wallet's health score to target.
// A nil source skips the funding advice.
func PlanOptimization(stats entity.WalletStats, source *entity.FundingSource, target int) entity.OptimizationPlan {
	current := Score(stats)
	gap := target - current
	if gap <= 0 {
		return entity.OptimizationPlan{
			CurrentScore: current,
			TargetScore:  target,
			Actions:      []entity.OptimizationAction{},
			Summary:      "This wallet already meets or exceeds the target score.",
		}
	}

	var actions []entity.OptimizationAction
	days := 0
	age, tx, recent, bal := stats.AgeInDays, stats.TotalTransactions, stats.RecentTransactions, stats.BalanceSOL

	if age < 30 {
		wait := 30 - age
		actions = append(actions, entity.OptimizationAction{
			ID:          "wait-age-30",
			Title:       "Wait for Wallet Maturity",
			Description: fmt.Sprintf("Wallet is only %d days old. Wait %d more days to reach 30-day minimum.", age, wait),
			Impact:      entity.ImpactHigh,
			Timeframe:   fmt.Sprintf("%d days", wait),
			Priority:    1,
			Days:        wait,
		})
		days = max(days, wait)
	} else if age < 90 {
		wait := 90 - age
		actions = append(actions, entity.OptimizationAction{
			ID:          "wait-age-90",
			Title:       "Build Wallet History",
			Description: fmt.Sprintf("Wallet age is %d days. Reaching 90+ days will significantly boost score.", age),
			Impact:      entity.ImpactMedium,
			Timeframe:   fmt.Sprintf("%d days", wait),
			Priority:    2,
			Days:        wait,
		})
		days = max(days, wait)
	}

	if tx < 20 {
		actions = append(actions, entity.OptimizationAction{
			ID:          "add-transactions",
			Title:       "Increase Transaction History",
			Description: fmt.Sprintf("Add %d more transactions. Perform natural swaps, transfers, or DeFi interactions.", 20-tx),
			Impact:      entity.ImpactHigh,
			Timeframe:   "1-2 weeks",
			Priority:    1,
			Days:        7,
		})
		days = max(days, 7)
	} else if tx < 50 {
		actions = append(actions, entity.OptimizationAction{
			ID:          "boost-transactions",
			Title:       "Boost Transaction Count",
			Description: fmt.Sprintf("Increase to 50+ transactions (need %d more) for optimal score.", 50-tx),
			Impact:      entity.ImpactMedium,
			Timeframe:   "2-3 weeks",
			Priority:    3,
			Days:        14,
		})
		days = max(days, 14)
	}

	if bal < 1 {
		actions = append(actions, entity.OptimizationAction{
			ID:          "add-balance-min",
			Title:       "Add Minimum Balance",
			Description: fmt.Sprintf("Current balance is %.4f SOL. Add at least %.2f SOL to reach minimum threshold.", bal, 1-bal),
			Impact:      entity.ImpactHigh,
			Timeframe:   "Immediate",
			Priority:    1,
		})
	} else if bal < 5 {
		actions = append(actions, entity.OptimizationAction{
			ID:          "increase-balance",
			Title:       "Increase Balance",
			Description: fmt.Sprintf("Boost balance to 5+ SOL (currently %.4f SOL) for better credibility.", bal),
			Impact:      entity.ImpactMedium,
			Timeframe:   "Immediate",
			Priority:    2,
		})
	}

	if recent > 50 {
		actions = append(actions, entity.OptimizationAction{
			ID:          "reduce-activity",
			Title:       "Reduce Recent Activity",
			Description: fmt.Sprintf("Wallet has %d transactions in last 7 days. Let it cool down to avoid looking overused.", recent),
			Impact:      entity.ImpactMedium,
			Timeframe:   "1-2 weeks",
			Priority:    3,
			Days:        7,
		})
		days = max(days, 7)
	} else if recent == 0 && tx > 0 {
		actions = append(actions, entity.OptimizationAction{
			ID:          "add-recent-activity",
			Title:       "Add Recent Activity",
			Description: "No recent transactions. Perform 2-5 transactions in the next week to show wallet is active.",
			Impact:      entity.ImpactLow,
			Timeframe:   "1 week",
			Priority:    4,
			Days:        7,
		})
		days = max(days, 7)
	}

	if tx >= 20 && tx < 100 {
		actions = append(actions, entity.OptimizationAction{
			ID:          "diversify-interactions",
			Title:       "Diversify Interactions",
			Description: "Interact with different protocols (DEXs, NFTs, staking) to build organic-looking history.",
			Impact:      entity.ImpactLow,
			Timeframe:   "2-4 weeks",
			Priority:    5,
		})
	}

	if source != nil && *source == entity.FundingUnknown {
		actions = append(actions, entity.OptimizationAction{
			ID:          "cex-funding",
			Title:       "Fund from Reputable CEX",
			Description: "Consider funding future wallets from major CEXs (Binance, Coinbase, etc.) for better legitimacy.",
			Impact:      entity.ImpactLow,
			Timeframe:   "For next launch",
			Priority:    6,
		})
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Priority < actions[j].Priority
	})

	summary := planSummary(gap, actions)
	if len(actions) > maxPlanActions {
		actions = actions[:maxPlanActions]
	}

	return entity.OptimizationPlan{
		CurrentScore:  current,
		TargetScore:   target,
		Gap:           gap,
		Actions:       actions,
		EstimatedDays: max(1, days),
		Summary:       summary,
	}
}

func planSummary(gap int, actions []entity.OptimizationAction) string {
	high := 0
	for _, a := range actions {
		if a.Impact == entity.ImpactHigh {
			high++
		}
	}
	switch {
	case gap <= 10:
		return fmt.Sprintf("You're close! %s needed.", plural(len(actions), "small improvement"))
	case gap <= 30:
		return fmt.Sprintf("%s required. Focus on %s first.", plural(len(actions), "action"), plural(high, "high-priority item"))
	default:
		return fmt.Sprintf("Major improvements needed. Start with the %s.", plural(high, "critical action"))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
