package signing

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// MockWallet is a func-field implementation of Wallet that records the
// methods it was asked to use.
type MockWallet struct {
	SignDigestFunc      func(ctx context.Context, signer common.Address, digest common.Hash) ([]byte, error)
	SignTypedDataV4Func func(ctx context.Context, signer common.Address, td *apitypes.TypedData) ([]byte, error)
	SignTypedDataV3Func func(ctx context.Context, signer common.Address, td *apitypes.TypedData) ([]byte, error)

	Calls []string
}

func (m *MockWallet) SignDigest(ctx context.Context, signer common.Address, digest common.Hash) ([]byte, error) {
	m.Calls = append(m.Calls, "raw-digest")
	if m.SignDigestFunc != nil {
		return m.SignDigestFunc(ctx, signer, digest)
	}
	return nil, nil
}

func (m *MockWallet) SignTypedDataV4(ctx context.Context, signer common.Address, td *apitypes.TypedData) ([]byte, error) {
	m.Calls = append(m.Calls, "typed-v4")
	if m.SignTypedDataV4Func != nil {
		return m.SignTypedDataV4Func(ctx, signer, td)
	}
	return nil, nil
}

func (m *MockWallet) SignTypedDataV3(ctx context.Context, signer common.Address, td *apitypes.TypedData) ([]byte, error) {
	m.Calls = append(m.Calls, "typed-v3")
	if m.SignTypedDataV3Func != nil {
		return m.SignTypedDataV3Func(ctx, signer, td)
	}
	return nil, nil
}
