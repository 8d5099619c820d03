package entity

// Severity ranks a pattern warning
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Weight is the severity's contribution to the suspicion score
func (s Severity) Weight() int {
	switch s {
	case SeverityHigh:
		return 30
	case SeverityMedium:
		return 15
	case SeverityLow:
		return 5
	default:
		return 0
	}
}

// Rank orders severities, higher is more severe
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// WarningCategory groups pattern warnings by detector
type WarningCategory string

const (
	CategoryFunding    WarningCategory = "funding"
	CategoryConnection WarningCategory = "connection"
	CategoryTiming     WarningCategory = "timing"
	CategoryAmount     WarningCategory = "amount"
)

// PatternWarning is a detected bundle-wide pattern
type PatternWarning struct {
	ID                string          `json:"id"`
	Severity          Severity        `json:"severity"`
	Category          WarningCategory `json:"category"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	AffectedAddresses []string        `json:"affected_addresses"`
	Evidence          map[string]any  `json:"evidence,omitempty"`
}

// BundleAnalysis is the aggregated pattern analysis of a bundle
type BundleAnalysis struct {
	Warnings        []PatternWarning    `json:"warnings"`
	Connections     []WalletConnection  `json:"connections"`
	FundingClusters map[string][]string `json:"funding_clusters"`
	SuspicionScore  int                 `json:"suspicion_score"`
}

// EmptyBundleAnalysis returns an analysis with no findings
func EmptyBundleAnalysis() BundleAnalysis {
	return BundleAnalysis{
		Warnings:        []PatternWarning{},
		Connections:     []WalletConnection{},
		FundingClusters: map[string][]string{},
	}
}
