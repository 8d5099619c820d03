package entity

import "time"

// WalletReport is the per-wallet outcome of a bundle analysis run
type WalletReport struct {
	Address string              `json:"address"`
	Stats   *WalletStats        `json:"stats,omitempty"`
	Score   int                 `json:"score"`
	Badge   BadgeTier           `json:"badge,omitempty"`
	Funding *FundingAnalysis    `json:"funding,omitempty"`
	Role    *RoleRecommendation `json:"role,omitempty"`
	Plan    *OptimizationPlan   `json:"plan,omitempty"`
	Error   string              `json:"error,omitempty"`
	Kind    ErrorKind           `json:"error_kind,omitempty"`
}

// OK reports whether the wallet was analyzed successfully
func (r WalletReport) OK() bool {
	return r.Error == "" && r.Stats != nil
}

// RiskLevel is the overall risk band of a bundle
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// BundleInsights summarises a bundle for operators
type BundleInsights struct {
	WalletCount         int                   `json:"wallet_count"`
	AverageScore        float64               `json:"average_score"`
	RoleDistribution    map[Role]int          `json:"role_distribution"`
	FundingDistribution map[FundingSource]int `json:"funding_distribution"`
	CEXFundedPercent    float64               `json:"cex_funded_percent"`
	AverageAgeDays      float64               `json:"average_age_days"`
	AverageBalanceSOL   float64               `json:"average_balance_sol"`
	RiskyPercent        float64               `json:"risky_percent"`
	RiskLevel           RiskLevel             `json:"risk_level"`
	HubWallet           string                `json:"hub_wallet,omitempty"`
	HubConnections      int                   `json:"hub_connections,omitempty"`
	Recommendations     []string              `json:"recommendations"`
}

// BundleReport is the full result of analyzing one bundle
type BundleReport struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Wallets    []WalletReport `json:"wallets"`
	Analysis   BundleAnalysis `json:"analysis"`
	Insights   BundleInsights `json:"insights"`
}
