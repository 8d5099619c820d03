package service

import "wallet-bundle-analyzer/internal/domain/entity"

// SamplingStrategy chooses which signatures of a history get parsed
type SamplingStrategy interface {
	Sample(signatures []entity.Signature) []entity.Signature
}

// StratifiedSampler takes the newest, a window around the middle, and the oldest signatures
type StratifiedSampler struct {
	Recent int
	Middle int
	Oldest int
}

// DefaultSampler returns the calibrated 150/100/50 sampler
func DefaultSampler() StratifiedSampler {
	return StratifiedSampler{Recent: 150, Middle: 100, Oldest: 50}
}

// Sample returns the union of the three strata in that order, de-duplicated by signature.
// Negative stratum sizes count as zero.
// signatures must be ordered newest first.
func (s StratifiedSampler) Sample(signatures []entity.Signature) []entity.Signature {
	n := len(signatures)
	if n == 0 {
		return nil
	}

	recentN, middleN, oldestN := max(0, s.Recent), max(0, s.Middle), max(0, s.Oldest)

	recent := signatures[:min(recentN, n)]

	middleStart := min(n, max(0, n/2-middleN/2))
	middle := signatures[middleStart:min(middleStart+middleN, n)]

	oldest := signatures[max(0, n-oldestN):]

	out := make([]entity.Signature, 0, len(recent)+len(middle)+len(oldest))
	seen := make(map[string]struct{}, cap(out))
	for _, stratum := range [][]entity.Signature{recent, middle, oldest} {
		for _, sig := range stratum {
			if _, dup := seen[sig.Signature]; dup {
				continue
			}
			seen[sig.Signature] = struct{}{}
			out = append(out, sig)
		}
	}
	return out
}

// FullSampler parses every signature
type FullSampler struct{}

func (FullSampler) Sample(signatures []entity.Signature) []entity.Signature {
	return signatures
}
