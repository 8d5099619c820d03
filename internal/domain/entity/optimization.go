package entity

// Impact describes how much an optimization action moves the score
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// OptimizationAction is one step toward a target score
type OptimizationAction struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      Impact `json:"impact"`
	Timeframe   string `json:"timeframe"`
	Priority    int    `json:"priority"`
	Days        int    `json:"days,omitempty"`
}

// OptimizationPlan lists the actions needed to raise a wallet's score to a target
type OptimizationPlan struct {
	CurrentScore  int                  `json:"current_score"`
	TargetScore   int                  `json:"target_score"`
	Gap           int                  `json:"gap"`
	Actions       []OptimizationAction `json:"actions"`
	EstimatedDays int                  `json:"estimated_days"`
	Summary       string               `json:"summary"`
}
