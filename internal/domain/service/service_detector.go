package service

import (
	"context"
	"sync"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// ServiceDetectorConfig holds the high-volume service thresholds
type ServiceDetectorConfig struct {
	SampleSize    int     // signatures fetched in one page
	MinSignatures int     // fewer than this is never a service
	MinSpanDays   float64 // bursts shorter than this are ignored
	MinTxPerDay   float64
}

// DefaultServiceDetectorConfig returns the calibrated thresholds
func DefaultServiceDetectorConfig() ServiceDetectorConfig {
	return ServiceDetectorConfig{
		SampleSize:    1000,
		MinSignatures: 500,
		MinSpanDays:   0.5,
		MinTxPerDay:   1000,
	}
}

// ServiceDetector recognises unlisted exchanges and swap services by their transaction rate
type ServiceDetector struct {
	ledger   LedgerClient
	throttle Throttle
	config   ServiceDetectorConfig
	logger   *logger.Logger

	mu    sync.Mutex
	cache map[string]bool
}

// NewServiceDetector creates a new high-volume service detector
func NewServiceDetector(ledger LedgerClient, throttle Throttle, cfg ServiceDetectorConfig, logger *logger.Logger) *ServiceDetector {
	if throttle == nil {
		throttle = NoThrottle()
	}
	return &ServiceDetector{
		ledger:   ledger,
		throttle: throttle,
		config:   cfg,
		logger:   logger.WithComponent("service-detector"),
		cache:    make(map[string]bool),
	}
}

// IsHighVolumeService reports whether address transacts at service scale.
// Any failure is treated as "not a service".
func (d *ServiceDetector) IsHighVolumeService(ctx context.Context, address string) bool {
	d.mu.Lock()
	if v, ok := d.cache[address]; ok {
		d.mu.Unlock()
		return v
	}
	d.mu.Unlock()

	result, err := d.check(ctx, address)
	if err != nil {
		d.logger.Debug("Service check failed", zap.String("address", address), zap.Error(err))
		return false
	}

	d.mu.Lock()
	d.cache[address] = result
	d.mu.Unlock()
	return result
}

func (d *ServiceDetector) check(ctx context.Context, address string) (bool, error) {
	if err := d.throttle.Wait(ctx); err != nil {
		return false, err
	}
	sigs, err := d.ledger.ListSignatures(ctx, address, entity.SignatureQuery{Limit: d.config.SampleSize})
	if err != nil {
		return false, err
	}
	if len(sigs) < d.config.MinSignatures {
		return false, nil
	}

	newest, oldest := sigs[0], sigs[len(sigs)-1]
	if newest.BlockTime == nil || oldest.BlockTime == nil {
		return false, nil
	}
	spanDays := float64(*newest.BlockTime-*oldest.BlockTime) / 86400
	if spanDays < d.config.MinSpanDays {
		return false, nil
	}

	perDay := float64(len(sigs)) / spanDays
	if perDay >= d.config.MinTxPerDay {
		d.logger.Info("High-volume service detected",
			zap.String("address", address),
			zap.Float64("tx_per_day", perDay))
		return true, nil
	}
	return false, nil
}
