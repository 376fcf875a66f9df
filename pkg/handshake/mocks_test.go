package handshake

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/chainsafe/agent-associations/pkg/association"
	"github.com/chainsafe/agent-associations/pkg/finalizer"
	"github.com/chainsafe/agent-associations/pkg/signing"
)

// countingWallet counts wallet prompts per signer and can reject the first N.
type countingWallet struct {
	next signing.Wallet

	mu        sync.Mutex
	prompts   map[common.Address]int
	failFirst int
	failed    int
}

func newCountingWallet(next signing.Wallet) *countingWallet {
	return &countingWallet{next: next, prompts: make(map[common.Address]int)}
}

func (w *countingWallet) prompt(signer common.Address) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prompts[signer]++
	if w.failed < w.failFirst {
		w.failed++
		return errors.New("user rejected the request")
	}
	return nil
}

func (w *countingWallet) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, c := range w.prompts {
		n += c
	}
	return n
}

func (w *countingWallet) SignDigest(ctx context.Context, signer common.Address, digest common.Hash) ([]byte, error) {
	if err := w.prompt(signer); err != nil {
		return nil, err
	}
	return w.next.SignDigest(ctx, signer, digest)
}

func (w *countingWallet) SignTypedDataV4(ctx context.Context, signer common.Address, typedData *apitypes.TypedData) ([]byte, error) {
	if err := w.prompt(signer); err != nil {
		return nil, err
	}
	return w.next.SignTypedDataV4(ctx, signer, typedData)
}

func (w *countingWallet) SignTypedDataV3(ctx context.Context, signer common.Address, typedData *apitypes.TypedData) ([]byte, error) {
	if err := w.prompt(signer); err != nil {
		return nil, err
	}
	return w.next.SignTypedDataV3(ctx, signer, typedData)
}

// MockVerifier is a mock implementation of ContractVerifier
type MockVerifier struct {
	IsContractFunc func(ctx context.Context, chainID uint64, addr common.Address) (bool, error)
	IsValidFunc    func(ctx context.Context, chainID uint64, contract common.Address, digest common.Hash, sig []byte) bool

	validCalls int
}

func (m *MockVerifier) IsContract(ctx context.Context, chainID uint64, addr common.Address) (bool, error) {
	if m.IsContractFunc != nil {
		return m.IsContractFunc(ctx, chainID, addr)
	}
	return false, nil
}

func (m *MockVerifier) IsValid(ctx context.Context, chainID uint64, contract common.Address, digest common.Hash, sig []byte) bool {
	m.validCalls++
	if m.IsValidFunc != nil {
		return m.IsValidFunc(ctx, chainID, contract, digest, sig)
	}
	return false
}

// MockFinalizer is a mock implementation of Finalizer
type MockFinalizer struct {
	FinalizeFunc func(ctx context.Context, signed *association.SignedRecord, mode finalizer.Mode) (string, error)

	Calls []finalizeCall
}

type finalizeCall struct {
	Mode               finalizer.Mode
	InitiatorAddress   common.Address
	ApproverAddress    common.Address
	Digest             common.Hash
	InitiatorSignature []byte
	ApproverSignature  []byte
}

func (m *MockFinalizer) Finalize(ctx context.Context, signed *association.SignedRecord, mode finalizer.Mode) (string, error) {
	m.Calls = append(m.Calls, finalizeCall{
		Mode:               mode,
		InitiatorAddress:   signed.InitiatorAddress,
		ApproverAddress:    signed.ApproverAddress,
		Digest:             signed.Digest,
		InitiatorSignature: bytes.Clone(signed.InitiatorSignature),
		ApproverSignature:  bytes.Clone(signed.ApproverSignature),
	})
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(ctx, signed, mode)
	}
	return "0x" + signed.Digest.Hex()[2:18], nil
}

// MockMessenger is a mock implementation of Messenger
type MockMessenger struct {
	DeliverFunc func(ctx context.Context, msg Message) error

	Messages []Message
}

func (m *MockMessenger) Deliver(ctx context.Context, msg Message) error {
	if m.DeliverFunc != nil {
		if err := m.DeliverFunc(ctx, msg); err != nil {
			return err
		}
	}
	m.Messages = append(m.Messages, msg)
	return nil
}

// MockRecorder is a mock implementation of Recorder
type MockRecorder struct {
	Snapshots []Snapshot
}

func (m *MockRecorder) Record(_ context.Context, snap Snapshot) error {
	m.Snapshots = append(m.Snapshots, snap)
	return nil
}

func (m *MockRecorder) states() []State {
	out := make([]State, 0, len(m.Snapshots))
	for _, s := range m.Snapshots {
		out = append(out, s.State)
	}
	return out
}
