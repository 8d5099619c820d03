package blockchain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/domain/service"
	"wallet-bundle-analyzer/internal/infrastructure/config"
	"wallet-bundle-analyzer/internal/infrastructure/logger"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// SolanaClient reads signatures, parsed transactions and balances over Solana JSON-RPC
type SolanaClient struct {
	client     *rpc.Client
	decoder    *InstructionDecoder
	commitment rpc.CommitmentType
	timeout    time.Duration
	logger     *logger.Logger
}

// NewSolanaClient creates a new Solana ledger client
func NewSolanaClient(cfg *config.SolanaConfig, decoder *InstructionDecoder, logger *logger.Logger) service.LedgerClient {
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &SolanaClient{
		client:     rpc.NewWithHeaders(cfg.RPCURL, headers),
		decoder:    decoder,
		commitment: parseCommitment(cfg.Commitment),
		timeout:    cfg.RequestTimeout,
		logger:     logger.WithComponent("solana-client"),
	}
}

// ListSignatures returns confirmed signatures for address, newest first
func (c *SolanaClient) ListSignatures(ctx context.Context, address string, query entity.SignatureQuery) ([]entity.Signature, error) {
	pubKey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrInvalidAddress, address, err)
	}

	limit := query.Limit
	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: c.commitment,
	}
	if query.Before != "" {
		before, err := solana.SignatureFromBase58(query.Before)
		if err != nil {
			return nil, fmt.Errorf("invalid pagination cursor %q: %w", query.Before, err)
		}
		opts.Before = before
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	out, err := c.client.GetSignaturesForAddressWithOpts(ctx, pubKey, opts)
	if err != nil {
		return nil, c.wrapError("get signatures", err)
	}

	signatures := make([]entity.Signature, 0, len(out))
	for _, sig := range out {
		if sig == nil {
			continue
		}
		s := entity.Signature{
			Signature: sig.Signature.String(),
			Err:       sig.Err,
		}
		if sig.BlockTime != nil {
			t := int64(*sig.BlockTime)
			s.BlockTime = &t
		}
		signatures = append(signatures, s)
	}

	c.logger.Debug("Fetched signatures",
		zap.String("address", address),
		zap.String("before", query.Before),
		zap.Int("count", len(signatures)))

	return signatures, nil
}

// GetTransaction returns the jsonParsed transaction, or nil if the node no longer has it
func (c *SolanaClient) GetTransaction(ctx context.Context, signature string) (*entity.ParsedTransaction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", signature, err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	version := uint64(0)
	out, err := c.client.GetParsedTransaction(ctx, sig, &rpc.GetParsedTransactionOpts{
		Commitment:                     c.commitment,
		MaxSupportedTransactionVersion: &version,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, c.wrapError("get parsed transaction", err)
	}
	if out == nil || out.Transaction == nil || out.Meta == nil {
		return nil, nil
	}

	keys := make([]string, len(out.Transaction.Message.AccountKeys))
	for i, key := range out.Transaction.Message.AccountKeys {
		keys[i] = key.PublicKey.String()
	}

	tx := &entity.ParsedTransaction{
		Signature:    signature,
		AccountKeys:  keys,
		PreBalances:  out.Meta.PreBalances,
		PostBalances: out.Meta.PostBalances,
		Instructions: c.decoder.DecodeInstructions(out.Transaction.Message.Instructions),
	}
	if out.BlockTime != nil {
		t := int64(*out.BlockTime)
		tx.BlockTime = &t
	}
	return tx, nil
}

// GetBalance returns the confirmed balance of address in lamports
func (c *SolanaClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	pubKey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", entity.ErrInvalidAddress, address, err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	out, err := c.client.GetBalance(ctx, pubKey, c.commitment)
	if err != nil {
		return 0, c.wrapError("get balance", err)
	}
	return out.Value, nil
}

func (c *SolanaClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// wrapError tags throttling responses so callers can cool down
func (c *SolanaClient) wrapError(op string, err error) error {
	if entity.IsRateLimited(err) {
		return fmt.Errorf("failed to %s: %w: %w", op, entity.ErrRateLimited, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func parseCommitment(s string) rpc.CommitmentType {
	switch s {
	case "finalized":
		return rpc.CommitmentFinalized
	case "processed":
		return rpc.CommitmentProcessed
	default:
		return rpc.CommitmentConfirmed
	}
}
