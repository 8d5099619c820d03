package service

import (
	"fmt"
	"testing"

	"wallet-bundle-analyzer/internal/domain/entity"
)

func makeSignatures(n int) []entity.Signature {
	sigs := make([]entity.Signature, n)
	for i := range sigs {
		sigs[i] = entity.Signature{Signature: fmt.Sprintf("sig-%04d", i)}
	}
	return sigs
}

func TestStratifiedSampler(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		wantLen   int
		wantFirst string
		wantLast  string
	}{
		{"empty", 0, 0, "", ""},
		{"short history is sampled whole", 10, 10, "sig-0000", "sig-0009"},
		{"overlapping strata", 200, 200, "sig-0000", "sig-0199"},
		{"full pages", 1000, 300, "sig-0000", "sig-0999"},
		{"three pages", 3000, 300, "sig-0000", "sig-2999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultSampler().Sample(makeSignatures(tt.n))
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen == 0 {
				return
			}
			if got[0].Signature != tt.wantFirst || got[len(got)-1].Signature != tt.wantLast {
				t.Errorf("first/last = %s/%s", got[0].Signature, got[len(got)-1].Signature)
			}
			seen := map[string]bool{}
			for _, s := range got {
				if seen[s.Signature] {
					t.Fatalf("duplicate %s", s.Signature)
				}
				seen[s.Signature] = true
			}
		})
	}
}

func TestStratifiedSamplerMiddleWindow(t *testing.T) {
	got := DefaultSampler().Sample(makeSignatures(1000))
	// recent 0..149, middle 450..549, oldest 950..999
	if got[150].Signature != "sig-0450" || got[249].Signature != "sig-0549" || got[250].Signature != "sig-0950" {
		t.Errorf("unexpected strata boundaries: %s %s %s", got[150].Signature, got[249].Signature, got[250].Signature)
	}
}

func TestStratifiedSamplerNegativeSizes(t *testing.T) {
	tests := []struct {
		name    string
		sampler StratifiedSampler
		wantLen int
	}{
		{"negative recent", StratifiedSampler{Recent: -5, Middle: 10, Oldest: 10}, 20},
		{"negative middle", StratifiedSampler{Recent: 10, Middle: -10, Oldest: 10}, 20},
		{"negative oldest", StratifiedSampler{Recent: 10, Middle: 10, Oldest: -1}, 20},
		{"all negative", StratifiedSampler{Recent: -1, Middle: -1, Oldest: -1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sampler.Sample(makeSignatures(100))
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}
