package service

import (
	"context"
	"math"
	"time"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// MatchPolicy decides whether a scan stops at the first connection
type MatchPolicy int

const (
	// MatchFirst stops scanning an address once one connection is found
	MatchFirst MatchPolicy = iota
	// MatchExhaustive scans every sampled transaction
	MatchExhaustive
)

// ParseMatchPolicy maps a config value to a policy; anything but "exhaustive" is MatchFirst
func ParseMatchPolicy(s string) MatchPolicy {
	if s == "exhaustive" {
		return MatchExhaustive
	}
	return MatchFirst
}

// ConnectionDetectorConfig tunes a connection scan
type ConnectionDetectorConfig struct {
	PageSize          int
	MaxPages          int
	PageDelay         time.Duration
	MinTransferSOL    float64
	RateLimitCooldown time.Duration
	Policy            MatchPolicy
}

// DefaultConnectionDetectorConfig returns the calibrated defaults
func DefaultConnectionDetectorConfig() ConnectionDetectorConfig {
	return ConnectionDetectorConfig{
		PageSize:          1000,
		MaxPages:          3,
		PageDelay:         100 * time.Millisecond,
		MinTransferSOL:    0.001,
		RateLimitCooldown: 5 * time.Second,
		Policy:            MatchFirst,
	}
}

// ConnectionDetector finds direct native-value transfers between one address and the rest of a bundle
type ConnectionDetector struct {
	ledger   LedgerClient
	sampler  SamplingStrategy
	throttle Throttle
	config   ConnectionDetectorConfig
	logger   *logger.Logger
}

// NewConnectionDetector creates a new connection detector
func NewConnectionDetector(ledger LedgerClient, sampler SamplingStrategy, throttle Throttle,
	cfg ConnectionDetectorConfig, logger *logger.Logger) *ConnectionDetector {
	if sampler == nil {
		sampler = DefaultSampler()
	}
	if throttle == nil {
		throttle = NoThrottle()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConnectionDetectorConfig().PageSize
	}
	return &ConnectionDetector{
		ledger:   ledger,
		sampler:  sampler,
		throttle: throttle,
		config:   cfg,
		logger:   logger.WithComponent("connection-detector"),
	}
}

// Detect scans the sampled history of address for transfers with other bundle members.
// Failures and cancellation end the scan early; whatever was found so far is returned.
func (d *ConnectionDetector) Detect(ctx context.Context, address string, bundle entity.AddressSet) ([]entity.WalletConnection, entity.ScanStats) {
	var stats entity.ScanStats
	log := d.logger.With(zap.String("address", address))

	signatures, err := d.listHistory(ctx, address)
	stats.SignaturesListed = len(signatures)
	if err != nil {
		log.Warn("Failed to list signatures for connection scan",
			zap.Int("listed", len(signatures)),
			zap.Error(err))
	}

	successful := make([]entity.Signature, 0, len(signatures))
	for _, sig := range signatures {
		if !sig.Failed() {
			successful = append(successful, sig)
		}
	}
	sample := d.sampler.Sample(successful)
	stats.Sampled = len(sample)

	minLamports := int64(math.Round(d.config.MinTransferSOL * entity.LamportsPerSOL))
	connections := []entity.WalletConnection{}
	seen := make(map[string]struct{})

	record := func(c entity.WalletConnection) bool {
		key := c.From + "->" + c.To + "-" + c.Signature
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		connections = append(connections, c)
		stats.Found++
		log.Info("Bundle connection found",
			zap.String("from", c.From),
			zap.String("to", c.To),
			zap.Float64("amount_sol", c.AmountSOL),
			zap.String("signature", c.Signature))
		return d.config.Policy == MatchFirst
	}

	for _, sig := range sample {
		if err := d.throttle.Wait(ctx); err != nil {
			log.Debug("Connection scan cancelled", zap.Error(err))
			break
		}

		tx, err := d.ledger.GetTransaction(ctx, sig.Signature)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			stats.Errors++
			if entity.IsRateLimited(err) {
				stats.RateLimited++
				log.Warn("Rate limited during connection scan, cooling down",
					zap.Duration("cooldown", d.config.RateLimitCooldown))
				if sleepContext(ctx, d.config.RateLimitCooldown) != nil {
					break
				}
			}
			continue
		}
		stats.Parsed++
		if tx == nil {
			continue
		}

		if !tx.HasSystemInstruction() {
			stats.Spam++
			continue
		}

		if c, ok := d.accountCreation(tx, sig, bundle, minLamports); ok {
			if record(c) {
				break
			}
			continue
		}

		stop := false
		for i, key := range tx.AccountKeys {
			if key == address || !bundle.Contains(key) {
				continue
			}
			delta := tx.BalanceDelta(i)
			magnitude := delta
			if magnitude < 0 {
				magnitude = -magnitude
			}
			if magnitude < minLamports {
				if magnitude > 0 {
					stats.Spam++
				}
				continue
			}

			from, to := key, address
			if delta > 0 {
				from, to = address, key
			}
			if record(entity.WalletConnection{
				From:      from,
				To:        to,
				AmountSOL: entity.LamportsToSOL(magnitude),
				Timestamp: sig.Timestamp(),
				Signature: sig.Signature,
			}) {
				stop = true
				break
			}
		}
		if stop {
			break
		}
	}

	log.Debug("Connection scan finished",
		zap.Int("listed", stats.SignaturesListed),
		zap.Int("sampled", stats.Sampled),
		zap.Int("parsed", stats.Parsed),
		zap.Int("spam", stats.Spam),
		zap.Int("errors", stats.Errors),
		zap.Int("found", stats.Found))

	return connections, stats
}

// listHistory pages through signatures newest first, strictly in order
func (d *ConnectionDetector) listHistory(ctx context.Context, address string) ([]entity.Signature, error) {
	var all []entity.Signature
	before := ""
	for page := 0; page < d.config.MaxPages; page++ {
		if page > 0 {
			if err := sleepContext(ctx, d.config.PageDelay); err != nil {
				return all, err
			}
		}
		if err := d.throttle.Wait(ctx); err != nil {
			return all, err
		}

		batch, err := d.ledger.ListSignatures(ctx, address, entity.SignatureQuery{
			Limit:  d.config.PageSize,
			Before: before,
		})
		if err != nil {
			return all, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		before = batch[len(batch)-1].Signature
		if len(batch) < d.config.PageSize {
			break
		}
	}
	return all, nil
}

// accountCreation reports a connection when one bundle wallet creates and funds another
func (d *ConnectionDetector) accountCreation(tx *entity.ParsedTransaction, sig entity.Signature,
	bundle entity.AddressSet, minLamports int64) (entity.WalletConnection, bool) {
	for _, ix := range tx.Instructions {
		if !ix.IsAccountCreation() {
			continue
		}
		info := ix.Parsed.Info
		if info.Source == "" || info.NewAccount == "" {
			continue
		}
		if !bundle.Contains(info.Source) || !bundle.Contains(info.NewAccount) {
			continue
		}
		if int64(info.Lamports) < minLamports {
			continue
		}
		return entity.WalletConnection{
			From:      info.Source,
			To:        info.NewAccount,
			AmountSOL: entity.LamportsToSOL(int64(info.Lamports)),
			Timestamp: sig.Timestamp(),
			Signature: sig.Signature,
		}, true
	}
	return entity.WalletConnection{}, false
}
