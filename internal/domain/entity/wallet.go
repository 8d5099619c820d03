package entity

import (
	"errors"
	"fmt"
	"sort"
)

// LamportsPerSOL is the number of lamports in one SOL
const LamportsPerSOL = 1_000_000_000

// ErrInvalidStats is returned when wallet statistics violate their invariants
var ErrInvalidStats = errors.New("invalid wallet stats")

// WalletStats represents aggregate activity statistics for a wallet.
// Values are produced once per wallet and never mutated afterwards.
type WalletStats struct {
	TotalTransactions  int     `json:"total_transactions"`
	RecentTransactions int     `json:"recent_transactions"` // within the trailing 7 days
	AgeInDays          int     `json:"age_in_days"`
	BalanceSOL         float64 `json:"balance_sol"`
}

// NewWalletStats validates and builds wallet statistics.
// Negative values are rejected; a recent count above the total is clamped to the total.
func NewWalletStats(total, recent, ageInDays int, balanceSOL float64) (WalletStats, error) {
	if total < 0 || recent < 0 || ageInDays < 0 || balanceSOL < 0 {
		return WalletStats{}, fmt.Errorf("%w: total=%d recent=%d age=%d balance=%f",
			ErrInvalidStats, total, recent, ageInDays, balanceSOL)
	}
	if recent > total {
		recent = total
	}
	return WalletStats{
		TotalTransactions:  total,
		RecentTransactions: recent,
		AgeInDays:          ageInDays,
		BalanceSOL:         balanceSOL,
	}, nil
}

// BadgeTier is the discrete health label derived from a wallet score
type BadgeTier string

const (
	BadgeClean  BadgeTier = "clean"
	BadgeMedium BadgeTier = "medium"
	BadgeRisky  BadgeTier = "risky"
)

// LamportsToSOL converts lamports to SOL
func LamportsToSOL(lamports int64) float64 {
	return float64(lamports) / LamportsPerSOL
}

// ShortAddress renders an address as its first and last four characters
func ShortAddress(address string) string {
	if len(address) <= 8 {
		return address
	}
	return address[:4] + "..." + address[len(address)-4:]
}

// AddressSet is an immutable-by-convention set of bundle addresses
type AddressSet map[string]struct{}

// NewAddressSet builds a set from the given addresses, dropping empty strings
func NewAddressSet(addresses ...string) AddressSet {
	set := make(AddressSet, len(addresses))
	for _, addr := range addresses {
		if addr == "" {
			continue
		}
		set[addr] = struct{}{}
	}
	return set
}

// Contains reports whether address is a member of the set
func (s AddressSet) Contains(address string) bool {
	_, ok := s[address]
	return ok
}

// Sorted returns the members in lexical order
func (s AddressSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for addr := range s {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}
