package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// FundingClassifierConfig tunes the first-deposit search
type FundingClassifierConfig struct {
	MaxCandidates      int           // oldest signatures inspected
	MinDepositSOL      float64       // deposits at or below this are ignored
	SenderMatchRatio   float64       // sender outflow must cover this share of the deposit
	RateLimitCooldown  time.Duration // pause after a 429
	DirectConfidence   int
	HeuristicCap       int
	HeuristicThreshold int
}

// DefaultFundingClassifierConfig returns the calibrated defaults
func DefaultFundingClassifierConfig() FundingClassifierConfig {
	return FundingClassifierConfig{
		MaxCandidates:      20,
		MinDepositSOL:      0.5,
		SenderMatchRatio:   0.9,
		RateLimitCooldown:  5 * time.Second,
		DirectConfidence:   70,
		HeuristicCap:       75,
		HeuristicThreshold: 40,
	}
}

var commonWithdrawalAmounts = []float64{1, 2, 5, 10, 20, 50, 100, 200, 500}

// FundingClassifier determines where a wallet's first significant deposit came from
type FundingClassifier struct {
	ledger   LedgerClient
	registry *KnownEntityRegistry
	throttle Throttle
	config   FundingClassifierConfig
	logger   *logger.Logger
}

// NewFundingClassifier creates a new funding classifier
func NewFundingClassifier(ledger LedgerClient, registry *KnownEntityRegistry, throttle Throttle,
	cfg FundingClassifierConfig, logger *logger.Logger) *FundingClassifier {
	if throttle == nil {
		throttle = NoThrottle()
	}
	return &FundingClassifier{
		ledger:   ledger,
		registry: registry,
		throttle: throttle,
		config:   cfg,
		logger:   logger.WithComponent("funding-classifier"),
	}
}

// Classify inspects the oldest signatures of address and classifies its funding origin.
// signatures are expected newest first, as returned by the ledger. Classify never fails;
// problems surface as an unknown source with zero confidence.
func (c *FundingClassifier) Classify(ctx context.Context, address string, signatures []entity.Signature) entity.FundingAnalysis {
	deposit, err := c.findFirstDeposit(ctx, address, signatures)
	if err != nil {
		c.logger.Warn("Funding analysis aborted", zap.String("address", address), zap.Error(err))
		return entity.FundingAnalysis{
			Source:     entity.FundingUnknown,
			SourceName: c.registry.DisplayName(entity.FundingUnknown),
			Evidence:   []string{"Error analyzing funding source: " + err.Error()},
		}
	}

	if deposit == nil {
		return entity.FundingAnalysis{
			Source:     entity.FundingUnknown,
			SourceName: c.registry.DisplayName(entity.FundingUnknown),
			Evidence:   []string{fmt.Sprintf("No significant deposits found (> %g SOL)", c.config.MinDepositSOL)},
		}
	}

	analysis := c.classifyDeposit(*deposit)
	c.logger.Debug("Funding source classified",
		zap.String("address", address),
		zap.String("source", string(analysis.Source)),
		zap.Int("confidence", analysis.Confidence),
		zap.String("sender", deposit.From))
	return analysis
}

func (c *FundingClassifier) classifyDeposit(deposit entity.FirstDeposit) entity.FundingAnalysis {
	date := "Date: " + time.Unix(deposit.Timestamp, 0).UTC().Format("2006-01-02")
	amount := fmt.Sprintf("Amount: %.2f SOL", deposit.AmountSOL)

	if known, ok := c.registry.Lookup(deposit.From); ok {
		return entity.FundingAnalysis{
			Source:       known.Key,
			SourceName:   known.Name,
			Confidence:   known.Confidence,
			Evidence:     []string{fmt.Sprintf("First deposit from verified %s wallet", known.Name), amount, date},
			FirstDeposit: &deposit,
		}
	}

	confidence, evidence := withdrawalHeuristics(deposit.AmountSOL)
	if confidence >= c.config.HeuristicThreshold {
		evidence = append(evidence,
			fmt.Sprintf("First deposit: %.2f SOL", deposit.AmountSOL),
			"From: "+entity.ShortAddress(deposit.From))
		return entity.FundingAnalysis{
			Source:       entity.FundingLikelyCEX,
			SourceName:   c.registry.DisplayName(entity.FundingLikelyCEX),
			Confidence:   min(confidence, c.config.HeuristicCap),
			Evidence:     evidence,
			FirstDeposit: &deposit,
		}
	}

	return entity.FundingAnalysis{
		Source:       entity.FundingDirectTransfer,
		SourceName:   c.registry.DisplayName(entity.FundingDirectTransfer),
		Confidence:   c.config.DirectConfidence,
		Evidence:     []string{"Funded from wallet " + entity.ShortAddress(deposit.From), amount, date},
		FirstDeposit: &deposit,
	}
}

// withdrawalHeuristics scores how much an amount looks like an exchange withdrawal
func withdrawalHeuristics(amount float64) (int, []string) {
	confidence := 0
	var evidence []string

	if math.Abs(amount-math.Round(amount)) < 0.01 {
		evidence = append(evidence, fmt.Sprintf("Round amount (%s SOL) - typical of CEX withdrawal",
			strconv.FormatFloat(amount, 'f', -1, 64)))
		confidence += 30
	}
	for _, common := range commonWithdrawalAmounts {
		if math.Abs(amount-common) < 0.1 {
			evidence = append(evidence, "Amount matches common CEX withdrawal patterns")
			confidence += 20
			break
		}
	}
	return confidence, evidence
}

// findFirstDeposit walks the oldest candidates and returns the first qualifying inbound transfer.
// Per-candidate failures are skipped; only context cancellation is returned.
func (c *FundingClassifier) findFirstDeposit(ctx context.Context, address string, signatures []entity.Signature) (*entity.FirstDeposit, error) {
	n := min(len(signatures), c.config.MaxCandidates)
	for i := 0; i < n; i++ {
		sig := signatures[len(signatures)-1-i]

		if err := c.throttle.Wait(ctx); err != nil {
			return nil, err
		}
		tx, err := c.ledger.GetTransaction(ctx, sig.Signature)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if entity.IsRateLimited(err) {
				c.logger.Warn("Rate limited while searching first deposit, cooling down",
					zap.String("address", address),
					zap.Duration("cooldown", c.config.RateLimitCooldown))
				if err := sleepContext(ctx, c.config.RateLimitCooldown); err != nil {
					return nil, err
				}
				continue
			}
			c.logger.Debug("Skipping funding candidate",
				zap.String("signature", sig.Signature),
				zap.Error(err))
			continue
		}
		if tx == nil {
			continue
		}

		from, amount, ok := c.inboundTransfer(tx, address)
		if ok && amount > c.config.MinDepositSOL {
			return &entity.FirstDeposit{
				From:      from,
				AmountSOL: amount,
				Timestamp: sig.Timestamp(),
				Signature: sig.Signature,
			}, nil
		}
	}
	return nil, nil
}

// inboundTransfer finds the account that paid for the target's balance increase
func (c *FundingClassifier) inboundTransfer(tx *entity.ParsedTransaction, target string) (string, float64, bool) {
	idx := tx.IndexOf(target)
	if idx < 0 {
		return "", 0, false
	}
	change := tx.BalanceDelta(idx)
	if change <= 0 {
		return "", 0, false
	}

	for i, key := range tx.AccountKeys {
		if i == idx {
			continue
		}
		senderChange := tx.BalanceDelta(i)
		if senderChange < 0 && float64(-senderChange) >= float64(change)*c.config.SenderMatchRatio {
			return key, entity.LamportsToSOL(change), true
		}
	}
	return "", 0, false
}

// sleepContext pauses for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
