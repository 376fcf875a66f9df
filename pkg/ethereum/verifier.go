package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/chainsafe/agent-associations/internal/metrics"
	"github.com/chainsafe/agent-associations/pkg/ethereum/contracts"
)

// ErrUnknownChain is returned for chain ids with no registered reader.
var ErrUnknownChain = errors.New("unknown chain")

// ChainReader is the read-only chain access the verifier needs.
type ChainReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Registry maps chain ids to readers. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	readers map[uint64]ChainReader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{readers: make(map[uint64]ChainReader)}
}

// Register sets the reader for chainID.
func (r *Registry) Register(chainID uint64, reader ChainReader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readers[chainID] = reader
}

// Reader returns the reader for chainID.
func (r *Registry) Reader(chainID uint64) (ChainReader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reader, ok := r.readers[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChain, chainID)
	}
	return reader, nil
}

// Verifier checks contract-account signatures through isValidSignature.
type Verifier struct {
	chains *Registry
	abi    abi.ABI
	logger *zap.Logger
}

// NewVerifier creates a verifier over the registered chains.
func NewVerifier(chains *Registry, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		chains: chains,
		abi:    contracts.MustParse(contracts.ERC1271MetaData),
		logger: logger,
	}
}

// IsContract reports whether addr has deployed code on chainID.
func (v *Verifier) IsContract(ctx context.Context, chainID uint64, addr common.Address) (bool, error) {
	reader, err := v.chains.Reader(chainID)
	if err != nil {
		return false, err
	}
	code, err := reader.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("failed to read code at %s: %w", addr.Hex(), err)
	}
	return len(code) > 0, nil
}

// IsValid reports whether contract accepts sig over digest. Accounts without
// code, reverts, read failures and malformed return data all yield false.
func (v *Verifier) IsValid(ctx context.Context, chainID uint64, contract common.Address, digest common.Hash, sig []byte) bool {
	valid, reason := v.check(ctx, chainID, contract, digest, sig)
	if reason != "" {
		v.logger.Debug("contract signature rejected",
			zap.Uint64("chain_id", chainID),
			zap.String("contract", contract.Hex()),
			zap.String("digest", digest.Hex()),
			zap.String("reason", reason))
	}
	result := "invalid"
	if valid {
		result = "valid"
	} else if reason == "no code" {
		result = "not_contract"
	}
	metrics.ContractVerifications.WithLabelValues(result).Inc()
	return valid
}

func (v *Verifier) check(ctx context.Context, chainID uint64, contract common.Address, digest common.Hash, sig []byte) (bool, string) {
	isContract, err := v.IsContract(ctx, chainID, contract)
	if err != nil {
		return false, err.Error()
	}
	if !isContract {
		return false, "no code"
	}

	input, err := v.abi.Pack("isValidSignature", [32]byte(digest), sig)
	if err != nil {
		return false, fmt.Sprintf("pack: %v", err)
	}

	reader, err := v.chains.Reader(chainID)
	if err != nil {
		return false, err.Error()
	}
	out, err := reader.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: input}, nil)
	if err != nil {
		return false, fmt.Sprintf("call: %v", err)
	}

	values, err := v.abi.Unpack("isValidSignature", out)
	if err != nil || len(values) != 1 {
		return false, fmt.Sprintf("malformed return %x", out)
	}
	magic, ok := values[0].([4]byte)
	if !ok {
		return false, fmt.Sprintf("unexpected return type %T", values[0])
	}
	if magic != contracts.ERC1271MagicValue {
		return false, fmt.Sprintf("returned %x", magic)
	}
	return true, ""
}
