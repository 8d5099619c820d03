package entity

// FundingSource identifies where a wallet's first significant deposit came from.
// Registered exchange keys are open-ended; the special sources below are fixed.
type FundingSource string

const (
	FundingLikelyCEX      FundingSource = "likely_cex"
	FundingDirectTransfer FundingSource = "direct_transfer"
	FundingDEXTrade       FundingSource = "dex_trade"
	FundingUnknown        FundingSource = "unknown"
)

// Exchange keys shipped with the default registry
const (
	FundingBinance   FundingSource = "binance"
	FundingBybit     FundingSource = "bybit"
	FundingCoinbase  FundingSource = "coinbase"
	FundingOKX       FundingSource = "okx"
	FundingKraken    FundingSource = "kraken"
	FundingHTX       FundingSource = "htx"
	FundingKuCoin    FundingSource = "kucoin"
	FundingCoinEx    FundingSource = "coinex"
	FundingChangeNOW FundingSource = "changenow"
)

var specialSourceNames = map[FundingSource]string{
	FundingLikelyCEX:      "Likely CEX",
	FundingDirectTransfer: "Direct Transfer",
	FundingDEXTrade:       "DEX Trade",
	FundingUnknown:        "Unknown",
}

// IsSpecial reports whether the source is one of the non-exchange categories
func (s FundingSource) IsSpecial() bool {
	_, ok := specialSourceNames[s]
	return ok
}

// IsExchange reports whether the source is a registered exchange key
func (s FundingSource) IsExchange() bool {
	return s != "" && !s.IsSpecial()
}

// IsCEXLike reports whether the source is an exchange or a likely exchange
func (s FundingSource) IsCEXLike() bool {
	return s.IsExchange() || s == FundingLikelyCEX
}

// SpecialSourceName returns the display name of a special source, or "" for exchange keys
func SpecialSourceName(s FundingSource) string {
	return specialSourceNames[s]
}

// FirstDeposit describes the earliest qualifying inbound transfer
type FirstDeposit struct {
	From      string  `json:"from"`
	AmountSOL float64 `json:"amount_sol"`
	Timestamp int64   `json:"timestamp"` // unix seconds
	Signature string  `json:"signature"`
}

// FundingAnalysis is the funding classification of one wallet
type FundingAnalysis struct {
	Source       FundingSource `json:"source"`
	SourceName   string        `json:"source_name"`
	Confidence   int           `json:"confidence"`
	Evidence     []string      `json:"evidence"`
	FirstDeposit *FirstDeposit `json:"first_deposit,omitempty"`
}
