package entity

// WalletConnection is a direct native-value transfer observed between two bundle wallets
type WalletConnection struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	AmountSOL float64 `json:"amount_sol"`
	Timestamp int64   `json:"timestamp"` // unix seconds
	Signature string  `json:"signature"`
}

// PairKey identifies the unordered pair of wallets involved in the connection
func (c WalletConnection) PairKey() string {
	if c.From < c.To {
		return c.From + "-" + c.To
	}
	return c.To + "-" + c.From
}

// ScanStats summarises one connection scan
type ScanStats struct {
	SignaturesListed int `json:"signatures_listed"`
	Sampled          int `json:"sampled"`
	Parsed           int `json:"parsed"`
	Spam             int `json:"spam"`
	Errors           int `json:"errors"`
	RateLimited      int `json:"rate_limited"`
	Found            int `json:"found"`
}
