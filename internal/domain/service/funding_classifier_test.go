package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/infrastructure/logger"
)

const (
	target        = "Target1111111111111111111111111111111111111"
	privateFunder = "Funder11111111111111111111111111111111111111"
	binanceHot    = "5tzFkiKscXHK5ZXCGbXZxdw7gTjjD1mBwuoFbhUvuAi9"
)

type countingThrottle struct{ waits int }

func (c *countingThrottle) Wait(ctx context.Context) error {
	c.waits++
	return ctx.Err()
}

func newTestClassifier(ledger LedgerClient) *FundingClassifier {
	cfg := DefaultFundingClassifierConfig()
	cfg.RateLimitCooldown = 0
	return NewFundingClassifier(ledger, NewDefaultRegistry(), nil, cfg, logger.NewNop())
}

// history registers txs as the address's history, oldest first in the argument list
func history(l *fakeLedger, address string, txs ...*entity.ParsedTransaction) []entity.Signature {
	sigs := make([]entity.Signature, len(txs))
	for i, tx := range txs {
		l.txs[tx.Signature] = tx
		sigs[len(txs)-1-i] = entity.Signature{Signature: tx.Signature, BlockTime: blockTime(1_700_000_000 + int64(i)*60)}
	}
	l.signatures[address] = sigs
	return sigs
}

func TestFundingClassifierSources(t *testing.T) {
	tests := []struct {
		name           string
		from           string
		amount         float64
		wantSource     entity.FundingSource
		wantConfidence int
		wantEvidence   string
	}{
		{"registered exchange", binanceHot, 2.37, entity.FundingBinance, 100, "First deposit from verified Binance wallet"},
		{"round common amount", privateFunder, 5, entity.FundingLikelyCEX, 50, "Round amount (5 SOL) - typical of CEX withdrawal"},
		{"round uncommon amount", privateFunder, 7, entity.FundingDirectTransfer, 70, "Funded from wallet Fund...1111"},
		{"odd amount", privateFunder, 2.37, entity.FundingDirectTransfer, 70, "Amount: 2.37 SOL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newFakeLedger()
			sigs := history(ledger, target,
				transfer("tiny", privateFunder, target, sol(0.1)),
				transfer("deposit", tt.from, target, sol(tt.amount)),
				transfer("later", privateFunder, target, sol(9)),
			)

			got := newTestClassifier(ledger).Classify(context.Background(), target, sigs)
			if got.Source != tt.wantSource {
				t.Fatalf("source = %s, want %s (evidence %v)", got.Source, tt.wantSource, got.Evidence)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("confidence = %d, want %d", got.Confidence, tt.wantConfidence)
			}
			if got.FirstDeposit == nil || got.FirstDeposit.Signature != "deposit" || got.FirstDeposit.From != tt.from {
				t.Errorf("first deposit = %+v", got.FirstDeposit)
			}
			if !containsString(got.Evidence, tt.wantEvidence) {
				t.Errorf("evidence %v does not contain %q", got.Evidence, tt.wantEvidence)
			}
		})
	}
}

func TestFundingClassifierIsIdempotent(t *testing.T) {
	ledger := newFakeLedger()
	sigs := history(ledger, target, transfer("deposit", privateFunder, target, sol(3.3)))
	c := newTestClassifier(ledger)

	first := c.Classify(context.Background(), target, sigs)
	second := c.Classify(context.Background(), target, sigs)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("classification changed between runs:\n%+v\n%+v", first, second)
	}
}

func TestFundingClassifierNoDeposit(t *testing.T) {
	ledger := newFakeLedger()
	sigs := history(ledger, target, transfer("tiny", privateFunder, target, sol(0.5)))

	got := newTestClassifier(ledger).Classify(context.Background(), target, sigs)
	if got.Source != entity.FundingUnknown || got.Confidence != 0 {
		t.Fatalf("unexpected %+v", got)
	}
	if got.Evidence[0] != "No significant deposits found (> 0.5 SOL)" {
		t.Errorf("evidence = %v", got.Evidence)
	}
}

func TestFundingClassifierSkipsFailingCandidates(t *testing.T) {
	ledger := newFakeLedger()
	sigs := history(ledger, target,
		transfer("broken", binanceHot, target, sol(4)),
		transfer("limited", binanceHot, target, sol(4)),
		transfer("deposit", privateFunder, target, sol(1.23)),
	)
	ledger.txErr["broken"] = errors.New("connection reset")
	ledger.txErr["limited"] = errors.New("HTTP 429 Too Many Requests")

	got := newTestClassifier(ledger).Classify(context.Background(), target, sigs)
	if got.Source != entity.FundingDirectTransfer || got.FirstDeposit.Signature != "deposit" {
		t.Errorf("unexpected %+v", got)
	}
}

func TestFundingClassifierSkipsMissingTransactions(t *testing.T) {
	ledger := newFakeLedger()
	sigs := history(ledger, target,
		transfer("pruned", binanceHot, target, sol(4)),
		transfer("deposit", privateFunder, target, sol(1.23)),
	)
	delete(ledger.txs, "pruned")

	got := newTestClassifier(ledger).Classify(context.Background(), target, sigs)
	if got.FirstDeposit == nil || got.FirstDeposit.Signature != "deposit" {
		t.Errorf("unexpected %+v", got)
	}
}

func TestFundingClassifierRequiresMatchingSender(t *testing.T) {
	ledger := newFakeLedger()
	tx := transfer("deposit", privateFunder, target, sol(2))
	// the payer only covers half of the deposit
	tx.PostBalances[0] = tx.PreBalances[0] - sol(1)
	sigs := history(ledger, target, tx)

	got := newTestClassifier(ledger).Classify(context.Background(), target, sigs)
	if got.Source != entity.FundingUnknown {
		t.Errorf("expected unknown without a matching sender, got %+v", got)
	}
}

func TestFundingClassifierScansOnlyOldestCandidates(t *testing.T) {
	ledger := newFakeLedger()
	var txs []*entity.ParsedTransaction
	for i := 0; i < 25; i++ {
		txs = append(txs, transfer(fmt.Sprintf("noise-%02d", i), privateFunder, target, sol(0.01)))
	}
	txs = append(txs, transfer("too-late", privateFunder, target, sol(10)))
	sigs := history(ledger, target, txs...)

	throttle := &countingThrottle{}
	cfg := DefaultFundingClassifierConfig()
	c := NewFundingClassifier(ledger, NewDefaultRegistry(), throttle, cfg, logger.NewNop())

	got := c.Classify(context.Background(), target, sigs)
	if got.Source != entity.FundingUnknown {
		t.Errorf("deposit outside the oldest 20 should be ignored, got %+v", got)
	}
	if ledger.calls() != 20 || throttle.waits != 20 {
		t.Errorf("fetched %d transactions with %d waits, want 20", ledger.calls(), throttle.waits)
	}
}

func TestFundingClassifierCancelled(t *testing.T) {
	ledger := newFakeLedger()
	sigs := history(ledger, target, transfer("deposit", privateFunder, target, sol(2)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := newTestClassifier(ledger).Classify(ctx, target, sigs)
	if got.Source != entity.FundingUnknown || got.Confidence != 0 {
		t.Fatalf("unexpected %+v", got)
	}
	if !strings.HasPrefix(got.Evidence[0], "Error analyzing funding source") {
		t.Errorf("evidence = %v", got.Evidence)
	}
}

func containsString(items []string, want string) bool {
	for _, s := range items {
		if s == want {
			return true
		}
	}
	return false
}
