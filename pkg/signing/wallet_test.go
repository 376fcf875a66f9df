package signing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/chainsafe/agent-associations/pkg/association"
	"github.com/chainsafe/agent-associations/pkg/auth"
	"github.com/chainsafe/agent-associations/pkg/keys"
)

func testRecord(t *testing.T, initiator common.Address) (*association.SignedRecord, *apitypes.TypedData) {
	t.Helper()
	signed, err := association.Prepare(association.DefaultDomain, association.Draft{
		ChainID:     11155111,
		Initiator:   initiator,
		Approver:    initiator,
		AssocType:   association.AssocTypeControl,
		Description: "self",
		ValidAt:     1_700_000_000,
	})
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return signed, association.TypedData(association.DefaultDomain, signed.Record)
}

func TestKeyWallet_AllMethodsRecoverToSigner(t *testing.T) {
	ring := keys.NewRing()
	key, _ := crypto.GenerateKey()
	addr := ring.Add(key)
	signed, typed := testRecord(t, addr)

	wallet := NewKeyWallet(ring)
	ctx := context.Background()

	for name, sign := range map[string]func() ([]byte, error){
		"raw-digest": func() ([]byte, error) { return wallet.SignDigest(ctx, addr, signed.Digest) },
		"typed-v4":   func() ([]byte, error) { return wallet.SignTypedDataV4(ctx, addr, typed) },
		"typed-v3":   func() ([]byte, error) { return wallet.SignTypedDataV3(ctx, addr, typed) },
	} {
		sig, err := sign()
		if err != nil {
			t.Fatalf("%s: sign error = %v", name, err)
		}
		if sig[64] != 27 && sig[64] != 28 {
			t.Fatalf("%s: expected v in {27,28}, got %d", name, sig[64])
		}
		if !auth.VerifyDigestSignature(addr, signed.Digest, sig) {
			t.Fatalf("%s: signature does not recover to signer over the record digest", name)
		}
	}
}

func TestKeyWallet_UnknownSigner(t *testing.T) {
	wallet := NewKeyWallet(keys.NewRing())
	_, err := wallet.SignDigest(context.Background(), common.HexToAddress("0x01"), common.Hash{})
	if !errors.Is(err, ErrWalletNotConnected) {
		t.Fatalf("expected ErrWalletNotConnected, got %v", err)
	}
}

// walletService is served over an in-process JSON-RPC server under the eth namespace.
type walletService struct {
	wallet *KeyWallet
	seen   []string
}

func (s *walletService) Sign(addr common.Address, data hexutil.Bytes) (hexutil.Bytes, error) {
	s.seen = append(s.seen, "eth_sign")
	if len(data) != common.HashLength {
		return nil, fmt.Errorf("expected 32-byte digest, got %d", len(data))
	}
	return s.wallet.SignDigest(context.Background(), addr, common.BytesToHash(data))
}

//nolint:revive // JSON-RPC method name
func (s *walletService) SignTypedData_v4(addr common.Address, payload string) (hexutil.Bytes, error) {
	s.seen = append(s.seen, "eth_signTypedData_v4")
	return s.signTyped(addr, payload)
}

//nolint:revive // JSON-RPC method name
func (s *walletService) SignTypedData_v3(addr common.Address, payload string) (hexutil.Bytes, error) {
	s.seen = append(s.seen, "eth_signTypedData_v3")
	return s.signTyped(addr, payload)
}

func (s *walletService) signTyped(addr common.Address, payload string) (hexutil.Bytes, error) {
	var td apitypes.TypedData
	if err := json.Unmarshal([]byte(payload), &td); err != nil {
		return nil, err
	}
	return s.wallet.SignTypedDataV4(context.Background(), addr, &td)
}

func TestRPCWallet(t *testing.T) {
	ring := keys.NewRing()
	key, _ := crypto.GenerateKey()
	addr := ring.Add(key)
	signed, typed := testRecord(t, addr)

	svc := &walletService{wallet: NewKeyWallet(ring)}
	server := rpc.NewServer()
	if err := server.RegisterName("eth", svc); err != nil {
		t.Fatalf("RegisterName failed: %v", err)
	}
	t.Cleanup(server.Stop)

	wallet := NewRPCWallet(rpc.DialInProc(server))
	t.Cleanup(wallet.Close)
	ctx := context.Background()

	sig, err := wallet.SignDigest(ctx, addr, signed.Digest)
	if err != nil {
		t.Fatalf("SignDigest() error = %v", err)
	}
	if !auth.VerifyDigestSignature(addr, signed.Digest, sig) {
		t.Fatal("eth_sign signature does not verify")
	}

	for _, sign := range []func(context.Context, common.Address, *apitypes.TypedData) ([]byte, error){
		wallet.SignTypedDataV4, wallet.SignTypedDataV3,
	} {
		sig, err := sign(ctx, addr, typed)
		if err != nil {
			t.Fatalf("typed sign error = %v", err)
		}
		if !auth.VerifyDigestSignature(addr, signed.Digest, sig) {
			t.Fatal("typed-data signature does not verify against the record digest")
		}
	}

	want := []string{"eth_sign", "eth_signTypedData_v4", "eth_signTypedData_v3"}
	if fmt.Sprint(svc.seen) != fmt.Sprint(want) {
		t.Fatalf("unexpected RPC calls %v", svc.seen)
	}

	if _, err := wallet.SignDigest(ctx, common.HexToAddress("0x02"), signed.Digest); err == nil {
		t.Fatal("expected remote error for unknown account")
	}
}
