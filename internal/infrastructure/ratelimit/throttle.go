package ratelimit

import (
	"context"
	"fmt"

	"wallet-bundle-analyzer/internal/domain/service"
	"wallet-bundle-analyzer/internal/infrastructure/config"

	"golang.org/x/time/rate"
)

// Throttle paces ledger calls across every analysis goroutine with one token bucket
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates the shared throttle from the Solana RPC settings
func NewThrottle(cfg *config.SolanaConfig) service.Throttle {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 15
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a request may be issued or ctx is done
func (t *Throttle) Wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for rate limiter: %w", err)
	}
	return nil
}
