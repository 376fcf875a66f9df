package signing

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"

	"github.com/chainsafe/agent-associations/internal/metrics"
	"github.com/chainsafe/agent-associations/pkg/association"
)

var (
	// ErrWalletNotConnected is returned by wallets that cannot sign for an account.
	ErrWalletNotConnected = errors.New("wallet not connected")

	errEmptySignature = errors.New("wallet returned an empty signature")
	errNoTypedData    = errors.New("no typed data description supplied")
)

// Wallet is the set of signing capabilities the negotiator can drive.
type Wallet interface {
	SignDigest(ctx context.Context, signer common.Address, digest common.Hash) ([]byte, error)
	SignTypedDataV4(ctx context.Context, signer common.Address, typedData *apitypes.TypedData) ([]byte, error)
	SignTypedDataV3(ctx context.Context, signer common.Address, typedData *apitypes.TypedData) ([]byte, error)
}

// Request describes one signature to obtain.
type Request struct {
	Signer    common.Address
	Digest    common.Hash
	TypedData *apitypes.TypedData
	Preferred association.SignatureMethod
	// Exclude removes methods from consideration, e.g. one that already
	// produced a signature the chain rejected.
	Exclude []association.SignatureMethod
}

// Result is a signature and the method that produced it.
type Result struct {
	Signature []byte
	Method    association.SignatureMethod
}

// Negotiator obtains a signature by trying wallet methods in policy order.
type Negotiator struct {
	wallet Wallet
	policy Policy
	logger *zap.Logger
}

// NewNegotiator creates a negotiator. A nil wallet makes every Sign call fail
// with WalletNotConnected.
func NewNegotiator(wallet Wallet, policy Policy, logger *zap.Logger) *Negotiator {
	if len(policy) == 0 {
		policy = DefaultPolicy
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Negotiator{wallet: wallet, policy: policy, logger: logger}
}

// Policy returns the negotiator's method order.
func (n *Negotiator) Policy() Policy {
	return n.policy
}

// Sign tries each candidate method until one yields a non-empty signature.
func (n *Negotiator) Sign(ctx context.Context, req Request) (Result, error) {
	if n.wallet == nil {
		return Result{}, association.NewError(association.KindWalletNotConnected, "no wallet configured", ErrWalletNotConnected)
	}

	candidates := n.policy.Candidates(req.Preferred, req.Exclude...)
	if len(candidates) == 0 {
		return Result{}, association.NewError(association.KindSigningExhausted, "no signing method available", nil)
	}

	var lastErr error
	for _, method := range candidates {
		if err := ctx.Err(); err != nil {
			return Result{}, association.NewError(association.KindSigningExhausted, "signing cancelled", err)
		}

		sig, err := n.attempt(ctx, method, req)
		if err == nil && isEmptySignature(sig) {
			err = errEmptySignature
		}
		if err != nil {
			if errors.Is(err, ErrWalletNotConnected) {
				metrics.SigningAttempts.WithLabelValues(string(method), "not_connected").Inc()
				return Result{}, association.NewError(association.KindWalletNotConnected,
					fmt.Sprintf("wallet cannot sign for %s", req.Signer.Hex()), err)
			}
			metrics.SigningAttempts.WithLabelValues(string(method), "error").Inc()
			n.logger.Debug("signing method failed",
				zap.String("method", string(method)),
				zap.String("signer", req.Signer.Hex()),
				zap.Error(err))
			lastErr = fmt.Errorf("%s: %w", method, err)
			continue
		}

		metrics.SigningAttempts.WithLabelValues(string(method), "success").Inc()
		return Result{Signature: sig, Method: method}, nil
	}

	return Result{}, association.NewError(association.KindSigningExhausted,
		fmt.Sprintf("all %d signing methods failed for %s", len(candidates), req.Signer.Hex()), lastErr)
}

func (n *Negotiator) attempt(ctx context.Context, method association.SignatureMethod, req Request) ([]byte, error) {
	if method.Typed() && req.TypedData == nil {
		return nil, errNoTypedData
	}
	switch method {
	case association.MethodRawDigest:
		return n.wallet.SignDigest(ctx, req.Signer, req.Digest)
	case association.MethodTypedV4:
		return n.wallet.SignTypedDataV4(ctx, req.Signer, req.TypedData)
	case association.MethodTypedV3:
		return n.wallet.SignTypedDataV3(ctx, req.Signer, req.TypedData)
	default:
		return nil, fmt.Errorf("unsupported signing method %q", method)
	}
}

func isEmptySignature(sig []byte) bool {
	for _, b := range sig {
		if b != 0 {
			return false
		}
	}
	return true
}
