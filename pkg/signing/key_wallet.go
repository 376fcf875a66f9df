package signing

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/chainsafe/agent-associations/pkg/keys"
)

// KeySource resolves the custodial key for an account.
type KeySource interface {
	PrivateKey(ctx context.Context, addr common.Address) (*ecdsa.PrivateKey, error)
}

// KeyWallet signs with custodial keys. Signatures carry v = 27/28.
type KeyWallet struct {
	keys KeySource
}

// NewKeyWallet creates a wallet backed by source.
func NewKeyWallet(source KeySource) *KeyWallet {
	return &KeyWallet{keys: source}
}

func (w *KeyWallet) SignDigest(ctx context.Context, signer common.Address, digest common.Hash) ([]byte, error) {
	return w.sign(ctx, signer, digest.Bytes())
}

func (w *KeyWallet) SignTypedDataV4(ctx context.Context, signer common.Address, typedData *apitypes.TypedData) ([]byte, error) {
	return w.signTyped(ctx, signer, typedData)
}

// SignTypedDataV3 hashes identically to v4 for records without arrays or
// nested structs, which is every record this service produces.
func (w *KeyWallet) SignTypedDataV3(ctx context.Context, signer common.Address, typedData *apitypes.TypedData) ([]byte, error) {
	return w.signTyped(ctx, signer, typedData)
}

func (w *KeyWallet) signTyped(ctx context.Context, signer common.Address, typedData *apitypes.TypedData) ([]byte, error) {
	if typedData == nil {
		return nil, errNoTypedData
	}
	hash, _, err := apitypes.TypedDataAndHash(*typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return w.sign(ctx, signer, hash)
}

func (w *KeyWallet) sign(ctx context.Context, signer common.Address, hash []byte) ([]byte, error) {
	key, err := w.keys.PrivateKey(ctx, signer)
	if err != nil {
		if errors.Is(err, keys.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrWalletNotConnected, err)
		}
		return nil, fmt.Errorf("failed to load key for %s: %w", signer.Hex(), err)
	}

	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}
