package service

import (
	"context"
	"math"
	"sync"

	"wallet-bundle-analyzer/internal/domain/entity"
)

// fakeLedger serves canned histories, transactions and balances
type fakeLedger struct {
	mu sync.Mutex

	signatures map[string][]entity.Signature // newest first
	txs        map[string]*entity.ParsedTransaction
	balances   map[string]uint64

	listErr    map[string]error
	txErr      map[string]error
	balanceErr map[string]error

	txCalls   int
	listCalls int
	queries   []entity.SignatureQuery
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		signatures: map[string][]entity.Signature{},
		txs:        map[string]*entity.ParsedTransaction{},
		balances:   map[string]uint64{},
		listErr:    map[string]error{},
		txErr:      map[string]error{},
		balanceErr: map[string]error{},
	}
}

func (f *fakeLedger) ListSignatures(ctx context.Context, address string, q entity.SignatureQuery) ([]entity.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.queries = append(f.queries, q)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.listErr[address]; err != nil {
		return nil, err
	}

	all := f.signatures[address]
	start := 0
	if q.Before != "" {
		start = len(all)
		for i, s := range all {
			if s.Signature == q.Before {
				start = i + 1
				break
			}
		}
	}
	end := len(all)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	out := make([]entity.Signature, end-start)
	copy(out, all[start:end])
	return out, nil
}

func (f *fakeLedger) GetTransaction(ctx context.Context, signature string) (*entity.ParsedTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.txErr[signature]; err != nil {
		return nil, err
	}
	return f.txs[signature], nil
}

func (f *fakeLedger) GetBalance(ctx context.Context, address string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.balanceErr[address]; err != nil {
		return 0, err
	}
	return f.balances[address], nil
}

func (f *fakeLedger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txCalls
}

func blockTime(t int64) *int64 {
	return &t
}

// transfer builds a system transfer moving lamports from one account to another
func transfer(sig, from, to string, lamports uint64) *entity.ParsedTransaction {
	const start = 1_000 * entity.LamportsPerSOL
	return &entity.ParsedTransaction{
		Signature:    sig,
		AccountKeys:  []string{from, to, entity.SystemProgramID},
		PreBalances:  []uint64{start, start, 1},
		PostBalances: []uint64{start - lamports - 5000, start + lamports, 1},
		Instructions: []entity.Instruction{{
			ProgramID: entity.SystemProgramID,
			Program:   "system",
			Parsed: &entity.ParsedInstructionInfo{
				Type: entity.InstructionTransfer,
				Info: entity.InstructionInfo{Source: from, Destination: to, Lamports: lamports},
			},
		}},
	}
}

func sol(v float64) uint64 {
	return uint64(math.Round(v * entity.LamportsPerSOL))
}
