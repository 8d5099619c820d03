package repository

import (
	"context"

	"wallet-bundle-analyzer/internal/domain/entity"
)

// LedgerCache stores ledger reads that are expensive to repeat.
// A miss is reported as found == false with a nil error.
type LedgerCache interface {
	GetTransaction(ctx context.Context, signature string) (tx *entity.ParsedTransaction, found bool, err error)
	PutTransaction(ctx context.Context, tx *entity.ParsedTransaction) error

	GetBalance(ctx context.Context, address string) (lamports uint64, found bool, err error)
	PutBalance(ctx context.Context, address string, lamports uint64) error
}
