package service

import (
	"sort"
	"strings"
	"sync"

	"wallet-bundle-analyzer/internal/domain/entity"
)

// KnownEntity is a registered exchange with its hot wallet addresses
type KnownEntity struct {
	Key        entity.FundingSource `mapstructure:"key" json:"key"`
	Name       string               `mapstructure:"name" json:"name"`
	Confidence int                  `mapstructure:"confidence" json:"confidence"`
	Addresses  []string             `mapstructure:"addresses" json:"addresses"`
}

// DefaultKnownEntities is the registry table shipped with the analyzer
var DefaultKnownEntities = []KnownEntity{
	{Key: entity.FundingBinance, Name: "Binance", Confidence: 100, Addresses: []string{
		"5tzFkiKscXHK5ZXCGbXZxdw7gTjjD1mBwuoFbhUvuAi9",
		"GJRs4FwHtemZ5ZE9x3FNvJ8TMwitKTh21yxdRPqn7npE",
		"AC5RDfQFmDS1deWZos921JfqscXdByf8BKHs5ACWjtW2",
	}},
	{Key: entity.FundingBybit, Name: "Bybit", Confidence: 100, Addresses: []string{
		"2ojv9BAiHUrvsm9gxDe7fJSzbNZSJcxZvf8dqmWGHG8S",
		"AC5RDfQFmDS1deWZos921JfqscXdByf8BKHs5ACWjtW2",
	}},
	{Key: entity.FundingCoinbase, Name: "Coinbase", Confidence: 100, Addresses: []string{
		"H8sMJSCQxfKiFTCfDR3DUMLPwcRbM61LGFJ8N4dK3WjS",
		"2AQdpHJ2JpcEgPiATUXjQxA8QmafFegfQwSLWSprPicm",
	}},
	{Key: entity.FundingOKX, Name: "OKX", Confidence: 100, Addresses: []string{
		"5VCwKtCXgCJ6kit5FybXjvriW3xELsFDhYrPSqtJNmcD",
	}},
	{Key: entity.FundingKraken, Name: "Kraken", Confidence: 100, Addresses: []string{
		"DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy",
	}},
	{Key: entity.FundingHTX, Name: "HTX", Confidence: 100, Addresses: []string{
		"F7H4HqcrE1yFb5sJKwG8W1kU8J8E7vLs8JqH4vL8jLxZ",
	}},
	{Key: entity.FundingKuCoin, Name: "KuCoin", Confidence: 100, Addresses: []string{
		"DkPvbq6u5pVgm7HvZpXzN8zKC8x5jPbQ9dJpZqJxZqJ",
	}},
	{Key: entity.FundingCoinEx, Name: "CoinEx", Confidence: 100, Addresses: []string{
		"HmB9jK8pQ7xN5vL8fG2wR9sT4cX6zY3nM1dF5hJ7kL9",
	}},
	{Key: entity.FundingChangeNOW, Name: "ChangeNOW", Confidence: 100, Addresses: []string{
		"G2YxRa6wt1qePMwfJzdXZG62ej4qaTC7YURzuh2Lwd3t",
	}},
}

// KnownEntityRegistry maps exchange hot wallet addresses to their owners.
// When an address is registered twice the first registration wins.
type KnownEntityRegistry struct {
	mu        sync.RWMutex
	byAddress map[string]KnownEntity
	byKey     map[entity.FundingSource]KnownEntity
}

// NewKnownEntityRegistry builds a registry from the given entities
func NewKnownEntityRegistry(entities ...KnownEntity) *KnownEntityRegistry {
	r := &KnownEntityRegistry{
		byAddress: make(map[string]KnownEntity),
		byKey:     make(map[entity.FundingSource]KnownEntity),
	}
	for _, e := range entities {
		r.Register(e)
	}
	return r
}

// NewDefaultRegistry returns the shipped registry extended with extra entities
func NewDefaultRegistry(extra ...KnownEntity) *KnownEntityRegistry {
	r := NewKnownEntityRegistry(DefaultKnownEntities...)
	for _, e := range extra {
		r.Register(e)
	}
	return r
}

// Register adds an entity. Addresses already owned by another entity keep their owner.
func (r *KnownEntityRegistry) Register(e KnownEntity) {
	e.Key = entity.FundingSource(strings.ToLower(strings.TrimSpace(string(e.Key))))
	if e.Key == "" || e.Key.IsSpecial() {
		return
	}
	if e.Confidence <= 0 || e.Confidence > 100 {
		e.Confidence = 100
	}
	if e.Name == "" {
		e.Name = string(e.Key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byKey[e.Key]; ok {
		existing.Addresses = append(existing.Addresses, e.Addresses...)
		r.byKey[e.Key] = existing
	} else {
		r.byKey[e.Key] = e
	}
	for _, addr := range e.Addresses {
		if _, taken := r.byAddress[addr]; taken {
			continue
		}
		r.byAddress[addr] = e
	}
}

// Lookup returns the entity owning address
func (r *KnownEntityRegistry) Lookup(address string) (KnownEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byAddress[address]
	return e, ok
}

// IsKnown reports whether address belongs to a registered entity
func (r *KnownEntityRegistry) IsKnown(address string) bool {
	_, ok := r.Lookup(address)
	return ok
}

// DisplayName returns the human-readable name of a funding source
func (r *KnownEntityRegistry) DisplayName(source entity.FundingSource) string {
	if name := entity.SpecialSourceName(source); name != "" {
		return name
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byKey[source]; ok {
		return e.Name
	}
	return string(source)
}

// Keys returns the registered exchange keys in lexical order
func (r *KnownEntityRegistry) Keys() []entity.FundingSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]entity.FundingSource, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
