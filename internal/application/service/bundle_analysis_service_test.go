package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/domain/service"
	"wallet-bundle-analyzer/internal/infrastructure/logger"
	"wallet-bundle-analyzer/internal/infrastructure/retry"
)

const (
	walletA = "WalletAaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	walletB = "WalletBbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	walletC = "WalletCccccccccccccccccccccccccccccccccccccc"
	funderF = "FunderFfffffffffffffffffffffffffffffffffff"
	funderG = "FunderGggggggggggggggggggggggggggggggggggg"
)

type stubValidator struct{}

func (stubValidator) Validate(address string) error {
	if len(address) < 32 {
		return fmt.Errorf("%w: %s", entity.ErrInvalidAddress, address)
	}
	return nil
}

type memLedger struct {
	mu           sync.Mutex
	signatures   map[string][]entity.Signature
	txs          map[string]*entity.ParsedTransaction
	balances     map[string]uint64
	listErr      error
	balanceFails int
	balanceErrs  map[string]error
	balanceCalls int
}

func (m *memLedger) ListSignatures(ctx context.Context, address string, q entity.SignatureQuery) ([]entity.Signature, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if q.Before != "" {
		return nil, nil
	}
	return m.signatures[address], nil
}

func (m *memLedger) GetTransaction(_ context.Context, sig string) (*entity.ParsedTransaction, error) {
	return m.txs[sig], nil
}

func (m *memLedger) GetBalance(_ context.Context, address string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balanceCalls++
	if m.balanceFails > 0 {
		m.balanceFails--
		return 0, errors.New("connection reset by peer")
	}
	if err := m.balanceErrs[address]; err != nil {
		return 0, err
	}
	return m.balances[address], nil
}

type fakeGraphRepo struct {
	saved   []*entity.BundleReport
	known   []entity.WalletConnection
	saveErr error
}

func (f *fakeGraphRepo) SaveBundleReport(_ context.Context, report *entity.BundleReport) error {
	f.saved = append(f.saved, report)
	return f.saveErr
}

func (f *fakeGraphRepo) GetWalletConnections(context.Context, string, int) ([]entity.WalletConnection, error) {
	return nil, nil
}

func (f *fakeGraphRepo) KnownConnections(context.Context, []string) ([]entity.WalletConnection, error) {
	return f.known, nil
}

func ts(t time.Time) *int64 {
	v := t.Unix()
	return &v
}

func transferTx(sig, from, to string, lamports uint64, at time.Time) *entity.ParsedTransaction {
	const start = 1_000 * entity.LamportsPerSOL
	return &entity.ParsedTransaction{
		Signature:    sig,
		BlockTime:    ts(at),
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

// twoWalletLedger has A and B funded by different private wallets, with A later sending 2 SOL to B
func twoWalletLedger() *memLedger {
	now := time.Now()
	funded := now.Add(-40 * 24 * time.Hour)
	linked := now.Add(-2 * 24 * time.Hour)

	return &memLedger{
		signatures: map[string][]entity.Signature{
			walletA: {
				{Signature: "sigAB", BlockTime: ts(linked)},
				{Signature: "sigFundA", BlockTime: ts(funded)},
			},
			walletB: {
				{Signature: "sigAB", BlockTime: ts(linked)},
				{Signature: "sigFundB", BlockTime: ts(funded.Add(time.Hour))},
			},
		},
		txs: map[string]*entity.ParsedTransaction{
			"sigAB":    transferTx("sigAB", walletA, walletB, 2*entity.LamportsPerSOL, linked),
			"sigFundA": transferTx("sigFundA", funderF, walletA, 7_300_000_000, funded),
			"sigFundB": transferTx("sigFundB", funderG, walletB, 8_100_000_000, funded.Add(time.Hour)),
		},
		balances: map[string]uint64{
			walletA: 3 * entity.LamportsPerSOL,
			walletB: 6 * entity.LamportsPerSOL,
		},
	}
}

func newTestService(ledger service.LedgerClient, repo *fakeGraphRepo) *BundleAnalysisApplicationService {
	log := logger.NewNop()
	registry := service.NewDefaultRegistry()

	fundingCfg := service.DefaultFundingClassifierConfig()
	fundingCfg.RateLimitCooldown = 0
	connCfg := service.DefaultConnectionDetectorConfig()
	connCfg.PageDelay = 0
	connCfg.RateLimitCooldown = 0

	cfg := BundleAnalysisConfig{
		WorkerPoolSize: 2,
		TargetScore:    100,
		Persist:        true,
		Retry:          retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
	}

	svc := NewBundleAnalysisApplicationService(
		stubValidator{},
		service.NewStatsCollector(ledger, nil, service.DefaultStatsCollectorConfig(), log),
		service.NewFundingClassifier(ledger, registry, nil, fundingCfg, log),
		service.NewConnectionDetector(ledger, service.FullSampler{}, nil, connCfg, log),
		service.NewPatternAggregator(registry, nil, log),
		nil,
		cfg,
		log,
	).(*BundleAnalysisApplicationService)
	if repo != nil {
		svc.graphRepo = repo
	}
	return svc
}

func TestAnalyzeBundle(t *testing.T) {
	repo := &fakeGraphRepo{}
	svc := newTestService(twoWalletLedger(), repo)

	report, err := svc.AnalyzeBundle(context.Background(), []string{walletA, walletB})
	if err != nil {
		t.Fatalf("AnalyzeBundle() error = %v", err)
	}

	if report.RunID == "" {
		t.Error("run id should be set")
	}
	if len(report.Wallets) != 2 {
		t.Fatalf("wallets = %d", len(report.Wallets))
	}
	for _, w := range report.Wallets {
		if !w.OK() || w.Funding == nil || w.Role == nil || w.Plan == nil {
			t.Errorf("wallet %s not fully analyzed: %+v", w.Address, w)
		}
		if w.Stats.TotalTransactions != 2 || w.Stats.AgeInDays != 40 && w.Stats.AgeInDays != 39 {
			t.Errorf("wallet %s stats = %+v", w.Address, *w.Stats)
		}
	}

	conns := report.Analysis.Connections
	if len(conns) != 1 || conns[0].From != walletA || conns[0].To != walletB || conns[0].AmountSOL != 2 {
		t.Fatalf("connections = %+v", conns)
	}

	hasConnectionWarning := false
	for _, w := range report.Analysis.Warnings {
		if w.Category == entity.CategoryConnection {
			hasConnectionWarning = true
		}
	}
	if !hasConnectionWarning {
		t.Errorf("expected a connection warning, got %+v", report.Analysis.Warnings)
	}
	if report.Analysis.SuspicionScore < entity.SeverityHigh.Weight() {
		t.Errorf("suspicion score = %d", report.Analysis.SuspicionScore)
	}
	if report.Insights.WalletCount != 2 {
		t.Errorf("insights wallet count = %d", report.Insights.WalletCount)
	}

	if len(repo.saved) != 1 || repo.saved[0] != report {
		t.Errorf("report should be persisted once, saved %d", len(repo.saved))
	}
}

func TestAnalyzeBundleInputHandling(t *testing.T) {
	svc := newTestService(twoWalletLedger(), nil)

	report, err := svc.AnalyzeBundle(context.Background(), []string{walletA, " " + walletA + " ", "", "bad", walletB})
	if err != nil {
		t.Fatalf("AnalyzeBundle() error = %v", err)
	}
	if len(report.Wallets) != 3 {
		t.Fatalf("wallets = %d, want 3 after de-duplication", len(report.Wallets))
	}

	bad := report.Wallets[1]
	if bad.Address != "bad" || bad.OK() || bad.Kind != entity.ErrorInvalidInput {
		t.Errorf("invalid address report = %+v", bad)
	}
	if !report.Wallets[0].OK() || !report.Wallets[2].OK() {
		t.Error("valid wallets should still be analyzed")
	}
}

func TestAnalyzeBundleScansWalletsWithFailedStats(t *testing.T) {
	ledger := twoWalletLedger()
	sent := time.Now().Add(-24 * time.Hour)
	ledger.signatures[walletA] = append([]entity.Signature{{Signature: "sigAC", BlockTime: ts(sent)}}, ledger.signatures[walletA]...)
	ledger.signatures[walletC] = []entity.Signature{{Signature: "sigAC", BlockTime: ts(sent)}}
	ledger.txs["sigAC"] = transferTx("sigAC", walletA, walletC, 3*entity.LamportsPerSOL, sent)
	ledger.balanceErrs = map[string]error{walletC: errors.New("connection reset by peer")}
	svc := newTestService(ledger, nil)

	report, err := svc.AnalyzeBundle(context.Background(), []string{walletA, walletB, walletC})
	if err != nil {
		t.Fatalf("AnalyzeBundle() error = %v", err)
	}
	if c := report.Wallets[2]; c.OK() || c.Kind != entity.ErrorTransient {
		t.Fatalf("wallet C report = %+v, want transient failure", c)
	}

	found := false
	for _, conn := range report.Analysis.Connections {
		if conn.From == walletA && conn.To == walletC && conn.AmountSOL == 3 {
			found = true
		}
	}
	if !found {
		t.Errorf("transfer to the failed wallet should be reported, got %+v", report.Analysis.Connections)
	}
}

func TestAnalyzeBundleTotalFailure(t *testing.T) {
	tests := []struct {
		name      string
		addresses []string
		listErr   error
		wantKind  entity.ErrorKind
	}{
		{name: "ledger down", addresses: []string{walletA, walletB}, listErr: errors.New("503 service unavailable"), wantKind: entity.ErrorTransient},
		{name: "all invalid", addresses: []string{"x", "y"}, wantKind: entity.ErrorInvalidInput},
		{name: "empty", addresses: nil, wantKind: entity.ErrorInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := twoWalletLedger()
			ledger.listErr = tt.listErr
			svc := newTestService(ledger, nil)

			report, err := svc.AnalyzeBundle(context.Background(), tt.addresses)
			if report != nil {
				t.Errorf("expected no report, got %+v", report)
			}
			if !errors.Is(err, entity.ErrNoWalletsAnalyzed) {
				t.Fatalf("err = %v, want ErrNoWalletsAnalyzed", err)
			}
			if kind := entity.ClassifyError(err); kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", kind, tt.wantKind)
			}
		})
	}
}

func TestAnalyzeBundlePersistenceIsBestEffort(t *testing.T) {
	repo := &fakeGraphRepo{
		saveErr: errors.New("neo4j unavailable"),
		known: []entity.WalletConnection{
			{From: walletB, To: walletA, AmountSOL: 0.5, Timestamp: 1600000000, Signature: "old"},
		},
	}
	ledger := twoWalletLedger()
	delete(ledger.txs, "sigAB")
	svc := newTestService(ledger, repo)

	report, err := svc.AnalyzeBundle(context.Background(), []string{walletA, walletB})
	if err != nil {
		t.Fatalf("AnalyzeBundle() error = %v", err)
	}
	conns := report.Analysis.Connections
	if len(conns) != 1 || conns[0].Signature != "old" {
		t.Errorf("known connection should be merged, got %+v", conns)
	}
}

func TestRefreshWalletRetries(t *testing.T) {
	ledger := twoWalletLedger()
	ledger.balanceFails = 2
	svc := newTestService(ledger, nil)

	wallet, err := svc.RefreshWallet(context.Background(), walletA)
	if err != nil {
		t.Fatalf("RefreshWallet() error = %v", err)
	}
	if wallet.Stats.BalanceSOL != 3 {
		t.Errorf("balance = %v", wallet.Stats.BalanceSOL)
	}
	if ledger.balanceCalls != 3 {
		t.Errorf("balance calls = %d, want 3", ledger.balanceCalls)
	}

	ledger.balanceFails = 5
	ledger.balanceCalls = 0
	if _, err := svc.RefreshWallet(context.Background(), walletA); err == nil {
		t.Error("expected failure after exhausting retries")
	}
	if ledger.balanceCalls != 3 {
		t.Errorf("balance calls = %d, want 3", ledger.balanceCalls)
	}

	if _, err := svc.RefreshWallet(context.Background(), "bad"); entity.ClassifyError(err) != entity.ErrorInvalidInput {
		t.Errorf("invalid address err = %v", err)
	}
}

func TestPlanWallet(t *testing.T) {
	svc := newTestService(twoWalletLedger(), nil)

	plan, err := svc.PlanWallet(context.Background(), walletA, 90)
	if err != nil {
		t.Fatalf("PlanWallet() error = %v", err)
	}
	if plan.TargetScore != 90 {
		t.Errorf("target = %d", plan.TargetScore)
	}

	plan, err = svc.PlanWallet(context.Background(), walletA, 0)
	if err != nil {
		t.Fatalf("PlanWallet() error = %v", err)
	}
	if plan.TargetScore != 100 {
		t.Errorf("default target = %d", plan.TargetScore)
	}
}

func TestNormalizeAddresses(t *testing.T) {
	got := normalizeAddresses([]string{" a", "b", "a", "", "  ", "c", "b "})
	want := []string{"a", "b", "c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("normalizeAddresses() = %v, want %v", got, want)
	}
}
