// Package finalizer submits fully signed association records on-chain,
// either directly from a submitter key or through a smart-account relay.
package finalizer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/chainsafe/agent-associations/internal/metrics"
	"github.com/chainsafe/agent-associations/pkg/association"
)

// Mode selects how a record reaches the chain.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeRelay  Mode = "relay"
)

// ParseMode validates a configured submission mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDirect, ModeRelay:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown submission mode %q", s)
	}
}

var (
	// ErrDuplicateSubmission is returned when byte-identical arguments were already accepted.
	ErrDuplicateSubmission = errors.New("association already submitted")
	// ErrNoSubmitter is returned when no submitter is registered for a chain and mode.
	ErrNoSubmitter = errors.New("no submitter for chain and mode")
	// ErrCallReverted is wrapped into submission errors whose
	// storeAssociation call reverted, typically on a signature check.
	ErrCallReverted = errors.New("storeAssociation reverted")
)

const (
	// geth reports reverts from eth_call and eth_estimateGas with code 3
	codeExecutionReverted = 3
	// ERC-4337 bundlers report a reverting user operation call with -32521
	codeUserOperationReverted = -32521
)

// markReverted wraps err with ErrCallReverted when it reports a revert of the
// submitted call. Other failures are returned unchanged.
func markReverted(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case codeExecutionReverted, codeUserOperationReverted:
			return fmt.Errorf("%w: %w", ErrCallReverted, err)
		}
	}
	if strings.Contains(err.Error(), "execution reverted") {
		return fmt.Errorf("%w: %w", ErrCallReverted, err)
	}
	return err
}

// Submitter performs one submission and returns the transaction or
// user-operation identifier once the network or relay accepts it.
type Submitter interface {
	Submit(ctx context.Context, signed *association.SignedRecord) (string, error)
}

// Finalizer submits a signed record in the given mode.
type Finalizer interface {
	Finalize(ctx context.Context, signed *association.SignedRecord, mode Mode) (string, error)
}

type routeKey struct {
	chainID uint64
	mode    Mode
}

// Router dispatches to the submitter registered for (chain, mode).
type Router struct {
	mu         sync.RWMutex
	submitters map[routeKey]Submitter
	logger     *zap.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{submitters: make(map[routeKey]Submitter), logger: logger}
}

// Register sets the submitter for chainID and mode.
func (r *Router) Register(chainID uint64, mode Mode, s Submitter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitters[routeKey{chainID, mode}] = s
}

// Finalize submits signed and freezes it on acceptance.
func (r *Router) Finalize(ctx context.Context, signed *association.SignedRecord, mode Mode) (string, error) {
	if signed.Submitted() {
		return "", association.NewError(association.KindSubmissionFailed, "record already submitted", association.ErrRecordSubmitted)
	}
	if err := signed.Ready(); err != nil {
		return "", association.NewError(association.KindSubmissionFailed, "record is not fully signed", err)
	}

	r.mu.RLock()
	submitter, ok := r.submitters[routeKey{signed.ChainID, mode}]
	r.mu.RUnlock()
	if !ok {
		return "", association.NewError(association.KindSubmissionFailed,
			fmt.Sprintf("chain %d mode %s", signed.ChainID, mode), ErrNoSubmitter)
	}

	start := time.Now()
	opID, err := submitter.Submit(ctx, signed)
	metrics.SubmissionDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	if err == nil && opID == "" {
		err = errors.New("submitter returned an empty operation id")
	}
	if err != nil {
		metrics.Submissions.WithLabelValues(string(mode), "failed").Inc()
		r.logger.Warn("association submission failed",
			zap.Uint64("chain_id", signed.ChainID),
			zap.String("mode", string(mode)),
			zap.String("digest", signed.Digest.Hex()),
			zap.Error(err))
		if association.KindOf(err) == association.KindSubmissionFailed {
			return "", err
		}
		return "", association.NewError(association.KindSubmissionFailed, "submission rejected", err)
	}

	signed.MarkSubmitted()
	metrics.Submissions.WithLabelValues(string(mode), "accepted").Inc()
	r.logger.Info("association submitted",
		zap.Uint64("chain_id", signed.ChainID),
		zap.String("mode", string(mode)),
		zap.String("digest", signed.Digest.Hex()),
		zap.String("operation_id", opID))
	return opID, nil
}

// SubmissionKey identifies byte-identical finalize arguments. Each signature
// is prefixed with its 32-byte length so different splits of the same bytes
// never share a key.
func SubmissionKey(signed *association.SignedRecord) common.Hash {
	return crypto.Keccak256Hash(
		signed.Digest.Bytes(),
		lengthPrefix(signed.InitiatorSignature), signed.InitiatorSignature,
		lengthPrefix(signed.ApproverSignature), signed.ApproverSignature,
	)
}

func lengthPrefix(b []byte) []byte {
	return common.LeftPadBytes(big.NewInt(int64(len(b))).Bytes(), 32)
}

// storeArguments are the storeAssociation call parameters, in ABI order.
func storeArguments(signed *association.SignedRecord) []interface{} {
	return []interface{}{
		signed.InitiatorAddress,
		signed.ApproverAddress,
		uint8(signed.AssocType),
		signed.Description,
		new(big.Int).SetUint64(signed.ValidAt),
		signed.Data,
		signed.InitiatorSignature,
		signed.ApproverSignature,
	}
}
