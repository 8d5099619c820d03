package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/infrastructure/logger"
)

func TestStatsCollectorCollect(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ledger := newFakeLedger()
	day := int64(86400)
	ledger.signatures[walletA] = []entity.Signature{
		{Signature: "s1", BlockTime: blockTime(now.Unix() - 3600)},
		{Signature: "s2", BlockTime: blockTime(now.Unix() - 6*day)},
		{Signature: "s3", BlockTime: blockTime(now.Unix() - 8*day)},
		{Signature: "s4"},
		{Signature: "s5", BlockTime: blockTime(now.Unix() - 45*day - 100)},
	}
	ledger.balances[walletA] = 2_500_000_000

	collector := NewStatsCollector(ledger, nil, DefaultStatsCollectorConfig(), logger.NewNop())
	collector.now = func() time.Time { return now }

	stats, sigs, err := collector.Collect(context.Background(), walletA)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := entity.WalletStats{TotalTransactions: 5, RecentTransactions: 2, AgeInDays: 45, BalanceSOL: 2.5}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if len(sigs) != 5 || sigs[0].Signature != "s1" {
		t.Errorf("signatures should be returned newest first, got %v", sigs)
	}
	if ledger.queries[0].Limit != 1000 {
		t.Errorf("limit = %d", ledger.queries[0].Limit)
	}
}

func TestStatsCollectorEmptyWallet(t *testing.T) {
	ledger := newFakeLedger()
	collector := NewStatsCollector(ledger, nil, DefaultStatsCollectorConfig(), logger.NewNop())

	stats, _, err := collector.Collect(context.Background(), walletA)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats != (entity.WalletStats{}) {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestStatsCollectorErrors(t *testing.T) {
	ledger := newFakeLedger()
	ledger.listErr[walletA] = errors.New("Invalid public key input")
	ledger.balanceErr[walletB] = errors.New("503 service unavailable")

	collector := NewStatsCollector(ledger, nil, DefaultStatsCollectorConfig(), logger.NewNop())

	_, _, err := collector.Collect(context.Background(), walletA)
	var ae *entity.AnalysisError
	if !errors.As(err, &ae) || ae.Kind != entity.ErrorInvalidInput {
		t.Errorf("expected invalid input error, got %v", err)
	}

	_, _, err = collector.Collect(context.Background(), walletB)
	if !errors.As(err, &ae) || ae.Kind != entity.ErrorTransient || ae.Op != "get balance" {
		t.Errorf("expected transient balance error, got %v", err)
	}
}
