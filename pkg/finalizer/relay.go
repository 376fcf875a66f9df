package finalizer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/chainsafe/agent-associations/pkg/association"
	"github.com/chainsafe/agent-associations/pkg/ethereum/contracts"
)

// BundlerClient is the JSON-RPC surface of an ERC-4337 bundler.
type BundlerClient interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// RelayChain is the chain access needed to assemble a user operation.
type RelayChain interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
}

// OperationSigner signs user operation hashes for the relaying smart account.
type OperationSigner interface {
	SignOperation(ctx context.Context, opHash common.Hash) ([]byte, error)
}

// KeyOperationSigner signs as the owner of a simple smart account, which
// validates an EIP-191 signature over the operation hash.
type KeyOperationSigner struct {
	key *ecdsa.PrivateKey
}

// NewKeyOperationSigner creates a signer for the account owner key.
func NewKeyOperationSigner(key *ecdsa.PrivateKey) *KeyOperationSigner {
	return &KeyOperationSigner{key: key}
}

// SignOperation signs opHash.
func (s *KeyOperationSigner) SignOperation(_ context.Context, opHash common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(opHash.Bytes()), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign user operation: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RelayConfig locates the smart account and EntryPoint used for relaying.
type RelayConfig struct {
	ChainID          uint64
	EntryPoint       common.Address
	Account          common.Address
	AssociationStore common.Address
	PaymasterAndData []byte
}

// dummySignature has the length and shape of a real one so bundlers can
// simulate validation during estimation.
var dummySignature = common.FromHex("0xffffffffffffffffffffffffffffffff00000000000000000000000000000007aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1c")

// RelaySubmitter wraps storeAssociation in a smart-account execute call and
// hands it to a bundler as a user operation.
type RelaySubmitter struct {
	cfg     RelayConfig
	chain   RelayChain
	bundler BundlerClient
	signer  OperationSigner
	logger  *zap.Logger

	storeABI   abi.ABI
	accountABI abi.ABI
	entryABI   abi.ABI
}

// NewRelaySubmitter creates a relay submitter.
func NewRelaySubmitter(cfg RelayConfig, chain RelayChain, bundler BundlerClient, signer OperationSigner, logger *zap.Logger) *RelaySubmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelaySubmitter{
		cfg:        cfg,
		chain:      chain,
		bundler:    bundler,
		signer:     signer,
		logger:     logger,
		storeABI:   contracts.MustParse(contracts.AssociationStoreMetaData),
		accountABI: contracts.MustParse(contracts.SmartAccountMetaData),
		entryABI:   contracts.MustParse(contracts.EntryPointMetaData),
	}
}

// Submit builds, signs and sends the user operation and returns the
// bundler-assigned operation hash.
func (s *RelaySubmitter) Submit(ctx context.Context, signed *association.SignedRecord) (string, error) {
	op, err := s.BuildOperation(ctx, signed)
	if err != nil {
		return "", err
	}

	opHash := op.Hash(s.cfg.EntryPoint, s.cfg.ChainID)
	sig, err := s.signer.SignOperation(ctx, opHash)
	if err != nil {
		return "", err
	}
	op.Signature = sig

	var accepted common.Hash
	if err := s.bundler.CallContext(ctx, &accepted, "eth_sendUserOperation", op, s.cfg.EntryPoint); err != nil {
		return "", fmt.Errorf("failed to send user operation: %w", markReverted(err))
	}
	if accepted == (common.Hash{}) {
		return "", errors.New("bundler returned an empty user operation hash")
	}
	if accepted != opHash {
		s.logger.Warn("bundler user operation hash differs from local hash",
			zap.String("local", opHash.Hex()),
			zap.String("bundler", accepted.Hex()))
	}
	return accepted.Hex(), nil
}

// BuildOperation assembles an unsigned, gas-estimated user operation for signed.
func (s *RelaySubmitter) BuildOperation(ctx context.Context, signed *association.SignedRecord) (*UserOperation, error) {
	storeCall, err := s.storeABI.Pack("storeAssociation", storeArguments(signed)...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack storeAssociation: %w", err)
	}
	callData, err := s.accountABI.Pack("execute", s.cfg.AssociationStore, new(big.Int), storeCall)
	if err != nil {
		return nil, fmt.Errorf("failed to pack execute: %w", err)
	}

	nonce, err := s.nonce(ctx)
	if err != nil {
		return nil, err
	}

	maxFee, err := s.chain.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}
	tip, err := s.chain.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas tip: %w", err)
	}
	if tip.Cmp(maxFee) > 0 {
		tip = maxFee
	}

	op := &UserOperation{
		Sender:               s.cfg.Account,
		Nonce:                (*hexutil.Big)(nonce),
		InitCode:             hexutil.Bytes{},
		CallData:             callData,
		CallGasLimit:         (*hexutil.Big)(new(big.Int)),
		VerificationGasLimit: (*hexutil.Big)(new(big.Int)),
		PreVerificationGas:   (*hexutil.Big)(new(big.Int)),
		MaxFeePerGas:         (*hexutil.Big)(maxFee),
		MaxPriorityFeePerGas: (*hexutil.Big)(tip),
		PaymasterAndData:     s.cfg.PaymasterAndData,
		Signature:            dummySignature,
	}
	if op.PaymasterAndData == nil {
		op.PaymasterAndData = hexutil.Bytes{}
	}

	var estimate GasEstimate
	if err := s.bundler.CallContext(ctx, &estimate, "eth_estimateUserOperationGas", op, s.cfg.EntryPoint); err != nil {
		return nil, fmt.Errorf("failed to estimate user operation gas: %w", markReverted(err))
	}
	if estimate.CallGasLimit == nil || estimate.VerificationGasLimit == nil || estimate.PreVerificationGas == nil {
		return nil, errors.New("bundler returned an incomplete gas estimate")
	}
	op.CallGasLimit = estimate.CallGasLimit
	op.VerificationGasLimit = estimate.VerificationGasLimit
	op.PreVerificationGas = estimate.PreVerificationGas
	op.Signature = nil

	return op, nil
}

func (s *RelaySubmitter) nonce(ctx context.Context) (*big.Int, error) {
	input, err := s.entryABI.Pack("getNonce", s.cfg.Account, new(big.Int))
	if err != nil {
		return nil, fmt.Errorf("failed to pack getNonce: %w", err)
	}
	out, err := s.chain.CallContract(ctx, ethereum.CallMsg{To: &s.cfg.EntryPoint, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read account nonce: %w", err)
	}
	values, err := s.entryABI.Unpack("getNonce", out)
	if err != nil || len(values) != 1 {
		return nil, fmt.Errorf("malformed getNonce result %x", out)
	}
	nonce, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getNonce type %T", values[0])
	}
	return nonce, nil
}
