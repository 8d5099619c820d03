package cache

import (
	"context"
	"errors"
	"testing"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/infrastructure/logger"
)

type stubLedger struct {
	txs       map[string]*entity.ParsedTransaction
	balances  map[string]uint64
	txCalls   int
	balCalls  int
	listCalls int
}

func (s *stubLedger) ListSignatures(context.Context, string, entity.SignatureQuery) ([]entity.Signature, error) {
	s.listCalls++
	return nil, nil
}

func (s *stubLedger) GetTransaction(_ context.Context, sig string) (*entity.ParsedTransaction, error) {
	s.txCalls++
	return s.txs[sig], nil
}

func (s *stubLedger) GetBalance(_ context.Context, addr string) (uint64, error) {
	s.balCalls++
	if b, ok := s.balances[addr]; ok {
		return b, nil
	}
	return 0, errors.New("connection reset")
}

type memCache struct {
	txs      map[string]*entity.ParsedTransaction
	balances map[string]uint64
	failRead bool
}

func newMemCache() *memCache {
	return &memCache{txs: map[string]*entity.ParsedTransaction{}, balances: map[string]uint64{}}
}

func (m *memCache) GetTransaction(_ context.Context, sig string) (*entity.ParsedTransaction, bool, error) {
	if m.failRead {
		return nil, false, errors.New("redis down")
	}
	tx, ok := m.txs[sig]
	return tx, ok, nil
}

func (m *memCache) PutTransaction(_ context.Context, tx *entity.ParsedTransaction) error {
	m.txs[tx.Signature] = tx
	return nil
}

func (m *memCache) GetBalance(_ context.Context, addr string) (uint64, bool, error) {
	if m.failRead {
		return 0, false, errors.New("redis down")
	}
	b, ok := m.balances[addr]
	return b, ok, nil
}

func (m *memCache) PutBalance(_ context.Context, addr string, lamports uint64) error {
	m.balances[addr] = lamports
	return nil
}

func TestCachingLedgerClientTransactions(t *testing.T) {
	ctx := context.Background()
	next := &stubLedger{txs: map[string]*entity.ParsedTransaction{"sig1": {Signature: "sig1"}}}
	mem := newMemCache()
	client := NewCachingLedgerClient(next, mem, logger.NewNop())

	for i := 0; i < 3; i++ {
		tx, err := client.GetTransaction(ctx, "sig1")
		if err != nil || tx == nil || tx.Signature != "sig1" {
			t.Fatalf("GetTransaction() = %+v, %v", tx, err)
		}
	}
	if next.txCalls != 1 {
		t.Errorf("ledger called %d times, want 1", next.txCalls)
	}

	tx, err := client.GetTransaction(ctx, "missing")
	if err != nil || tx != nil {
		t.Errorf("missing transaction = %+v, %v", tx, err)
	}
	if _, cached := mem.txs["missing"]; cached {
		t.Error("unavailable transactions must not be cached")
	}
}

func TestCachingLedgerClientBalances(t *testing.T) {
	ctx := context.Background()
	next := &stubLedger{balances: map[string]uint64{"A": 42}}
	mem := newMemCache()
	client := NewCachingLedgerClient(next, mem, logger.NewNop())

	for i := 0; i < 2; i++ {
		if got, err := client.GetBalance(ctx, "A"); err != nil || got != 42 {
			t.Fatalf("GetBalance() = %d, %v", got, err)
		}
	}
	if next.balCalls != 1 {
		t.Errorf("ledger called %d times, want 1", next.balCalls)
	}

	if _, err := client.GetBalance(ctx, "B"); err == nil {
		t.Error("ledger errors must propagate")
	}
	if _, cached := mem.balances["B"]; cached {
		t.Error("failed balance must not be cached")
	}
}

func TestCachingLedgerClientCacheFailure(t *testing.T) {
	ctx := context.Background()
	next := &stubLedger{balances: map[string]uint64{"A": 7}}
	mem := newMemCache()
	mem.failRead = true
	client := NewCachingLedgerClient(next, mem, logger.NewNop())

	if got, err := client.GetBalance(ctx, "A"); err != nil || got != 7 {
		t.Errorf("GetBalance() = %d, %v", got, err)
	}

	if _, err := client.ListSignatures(ctx, "A", entity.SignatureQuery{Limit: 10}); err != nil {
		t.Errorf("ListSignatures() error = %v", err)
	}
	if next.listCalls != 1 {
		t.Errorf("listings must pass through, got %d calls", next.listCalls)
	}
}
