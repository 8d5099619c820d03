package blockchain

import (
	"fmt"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/domain/service"

	"github.com/gagliardetto/solana-go"
)

// AddressValidator checks base58 account address syntax
type AddressValidator struct{}

// NewAddressValidator creates a new address validator
func NewAddressValidator() service.AddressValidator {
	return AddressValidator{}
}

// Validate returns entity.ErrInvalidAddress when address is not a 32-byte base58 public key
func (AddressValidator) Validate(address string) error {
	if address == "" {
		return fmt.Errorf("%w: empty address", entity.ErrInvalidAddress)
	}
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return fmt.Errorf("%w: %s: %v", entity.ErrInvalidAddress, address, err)
	}
	return nil
}
