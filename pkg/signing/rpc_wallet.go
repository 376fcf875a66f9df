package signing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// RPCWallet forwards signing requests to a remote wallet over JSON-RPC.
// eth_sign is expected to sign the 32-byte digest without a message prefix.
type RPCWallet struct {
	client *rpc.Client
}

// DialRPCWallet connects to a wallet endpoint.
func DialRPCWallet(ctx context.Context, url string) (*RPCWallet, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial wallet RPC: %w", err)
	}
	return NewRPCWallet(client), nil
}

// NewRPCWallet wraps an existing client.
func NewRPCWallet(client *rpc.Client) *RPCWallet {
	return &RPCWallet{client: client}
}

func (w *RPCWallet) SignDigest(ctx context.Context, signer common.Address, digest common.Hash) ([]byte, error) {
	var sig hexutil.Bytes
	if err := w.client.CallContext(ctx, &sig, "eth_sign", signer, hexutil.Bytes(digest.Bytes())); err != nil {
		return nil, fmt.Errorf("eth_sign failed: %w", err)
	}
	return sig, nil
}

func (w *RPCWallet) SignTypedDataV4(ctx context.Context, signer common.Address, typedData *apitypes.TypedData) ([]byte, error) {
	return w.signTyped(ctx, "eth_signTypedData_v4", signer, typedData)
}

func (w *RPCWallet) SignTypedDataV3(ctx context.Context, signer common.Address, typedData *apitypes.TypedData) ([]byte, error) {
	return w.signTyped(ctx, "eth_signTypedData_v3", signer, typedData)
}

func (w *RPCWallet) signTyped(ctx context.Context, method string, signer common.Address, typedData *apitypes.TypedData) ([]byte, error) {
	if typedData == nil {
		return nil, errNoTypedData
	}
	payload, err := json.Marshal(typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode typed data: %w", err)
	}

	var sig hexutil.Bytes
	if err := w.client.CallContext(ctx, &sig, method, signer, string(payload)); err != nil {
		return nil, fmt.Errorf("%s failed: %w", method, err)
	}
	return sig, nil
}

// Close closes the underlying client.
func (w *RPCWallet) Close() {
	w.client.Close()
}
