package entity

// Role is an operational archetype a wallet is suited for
type Role string

const (
	RoleDevWallet      Role = "dev_wallet"
	RoleTopHolder      Role = "top_holder"
	RoleMarketMaker    Role = "market_maker"
	RoleEarlySupporter Role = "early_supporter"
	RoleSniper         Role = "sniper"
	RoleUnknown        Role = "unknown"
)

// RoleRecommendation is the best-fit archetype for a wallet
type RoleRecommendation struct {
	Role       Role     `json:"role"`
	Confidence int      `json:"confidence"`
	Score      int      `json:"score"`
	Reasons    []string `json:"reasons"`
	Concerns   []string `json:"concerns"`
}
