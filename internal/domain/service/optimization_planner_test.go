package service

import (
	"testing"

	"wallet-bundle-analyzer/internal/domain/entity"
)

func actionIDs(plan entity.OptimizationPlan) []string {
	ids := make([]string, len(plan.Actions))
	for i, a := range plan.Actions {
		ids[i] = a.ID
	}
	return ids
}

func TestPlanOptimizationAtTarget(t *testing.T) {
	stats := entity.WalletStats{TotalTransactions: 150, RecentTransactions: 5, AgeInDays: 45, BalanceSOL: 10}
	plan := PlanOptimization(stats, nil, DefaultTargetScore)

	if plan.Gap != 0 || plan.EstimatedDays != 0 || len(plan.Actions) != 0 {
		t.Fatalf("expected empty plan at target, got %+v", plan)
	}
	if plan.CurrentScore != 100 {
		t.Errorf("current score = %d", plan.CurrentScore)
	}

	// target below the current score is also already met
	low := PlanOptimization(entity.WalletStats{TotalTransactions: 5, AgeInDays: 2}, nil, 5)
	if low.Gap != 0 || len(low.Actions) != 0 {
		t.Errorf("expected no actions when above target, got %+v", low)
	}
}

func TestPlanOptimizationFreshWallet(t *testing.T) {
	unknown := entity.FundingUnknown
	stats := entity.WalletStats{TotalTransactions: 5, RecentTransactions: 0, AgeInDays: 2, BalanceSOL: 0.2}
	plan := PlanOptimization(stats, &unknown, DefaultTargetScore)

	if plan.CurrentScore != 10 || plan.Gap != 90 {
		t.Fatalf("score/gap = %d/%d", plan.CurrentScore, plan.Gap)
	}
	want := []string{"wait-age-30", "add-transactions", "add-balance-min", "add-recent-activity", "cex-funding"}
	got := actionIDs(plan)
	if len(got) != len(want) {
		t.Fatalf("actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("action[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if plan.EstimatedDays != 28 {
		t.Errorf("estimated days = %d, want 28", plan.EstimatedDays)
	}
	if plan.Summary != "Major improvements needed. Start with the 3 critical actions." {
		t.Errorf("summary = %q", plan.Summary)
	}
}

func TestPlanOptimizationTruncatesAndSorts(t *testing.T) {
	unknown := entity.FundingUnknown
	// six actions qualify: age, tx, balance, activity, diversify, funding
	stats := entity.WalletStats{TotalTransactions: 30, RecentTransactions: 60, AgeInDays: 40, BalanceSOL: 2}
	plan := PlanOptimization(stats, &unknown, DefaultTargetScore)

	if len(plan.Actions) > 6 {
		t.Fatalf("plan has %d actions", len(plan.Actions))
	}
	for i := 1; i < len(plan.Actions); i++ {
		if plan.Actions[i].Priority < plan.Actions[i-1].Priority {
			t.Errorf("actions not sorted by priority: %v", actionIDs(plan))
		}
	}
	if plan.EstimatedDays != 50 {
		t.Errorf("estimated days = %d, want 50", plan.EstimatedDays)
	}
}

func TestPlanOptimizationEstimatedDaysFloor(t *testing.T) {
	// only a balance action, which carries no days
	stats := entity.WalletStats{TotalTransactions: 150, RecentTransactions: 5, AgeInDays: 100, BalanceSOL: 0.5}
	plan := PlanOptimization(stats, nil, 101)
	if plan.Gap != 1 {
		t.Fatalf("gap = %d", plan.Gap)
	}
	if plan.EstimatedDays != 1 {
		t.Errorf("estimated days = %d, want 1", plan.EstimatedDays)
	}
	if len(plan.Actions) != 1 || plan.Actions[0].ID != "add-balance-min" {
		t.Errorf("actions = %v", actionIDs(plan))
	}
	if plan.Summary != "You're close! 1 small improvement needed." {
		t.Errorf("summary = %q", plan.Summary)
	}
}
