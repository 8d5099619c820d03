package service

import (
	"context"

	"wallet-bundle-analyzer/internal/domain/entity"
)

// LedgerClient is the read-only view of the ledger the analysis depends on
type LedgerClient interface {
	// ListSignatures returns signatures for address, newest first
	ListSignatures(ctx context.Context, address string, query entity.SignatureQuery) ([]entity.Signature, error)

	// GetTransaction returns the parsed transaction, or (nil, nil) if the ledger no longer has it
	GetTransaction(ctx context.Context, signature string) (*entity.ParsedTransaction, error)

	// GetBalance returns the native balance in lamports
	GetBalance(ctx context.Context, address string) (uint64, error)
}

// Throttle paces outbound ledger requests. Implementations must be safe for concurrent use.
type Throttle interface {
	Wait(ctx context.Context) error
}

// AddressValidator checks address syntax before any ledger call
type AddressValidator interface {
	Validate(address string) error
}

type noThrottle struct{}

func (noThrottle) Wait(ctx context.Context) error {
	return ctx.Err()
}

// NoThrottle returns a Throttle that never waits
func NoThrottle() Throttle {
	return noThrottle{}
}
