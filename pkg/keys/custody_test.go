package keys

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func testSeed() []byte {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	return seed
}

func TestDerive_Deterministic(t *testing.T) {
	k1, err := Derive(testSeed(), "treasury")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	k2, err := Derive(testSeed(), "treasury")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if crypto.PubkeyToAddress(k1.PublicKey) != crypto.PubkeyToAddress(k2.PublicKey) {
		t.Fatal("same seed and label must derive the same key")
	}

	k3, err := Derive(testSeed(), "operations")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if crypto.PubkeyToAddress(k1.PublicKey) == crypto.PubkeyToAddress(k3.PublicKey) {
		t.Fatal("different labels must derive different keys")
	}

	if _, err := Derive(make([]byte, 16), "short"); err == nil {
		t.Fatal("expected error for short seed")
	}
}

func TestSealOpen(t *testing.T) {
	masterKey, err := GenerateMasterKey()
	if err != nil {
		t.Fatalf("GenerateMasterKey failed: %v", err)
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	sealed, err := Seal(key, masterKey)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	opened, err := Open(sealed, masterKey)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !opened.Equal(key) {
		t.Fatal("opened key differs from sealed key")
	}

	otherKey, _ := GenerateMasterKey()
	if _, err := Open(sealed, otherKey); err == nil {
		t.Fatal("expected error opening with the wrong master key")
	}
	if _, err := Seal(key, []byte("short")); err == nil {
		t.Fatal("expected error for short master key")
	}
}

func TestMasterKeyFromBase64(t *testing.T) {
	masterKey, _ := GenerateMasterKey()
	decoded, err := MasterKeyFromBase64(base64.StdEncoding.EncodeToString(masterKey))
	if err != nil {
		t.Fatalf("MasterKeyFromBase64 failed: %v", err)
	}
	if string(decoded) != string(masterKey) {
		t.Fatal("decoded master key differs")
	}
	if _, err := MasterKeyFromBase64(base64.StdEncoding.EncodeToString([]byte("too short"))); err == nil {
		t.Fatal("expected error for wrong size")
	}
}

func TestRing(t *testing.T) {
	ring := NewRing()
	ctx := context.Background()

	addr, err := ring.AddDerived(testSeed(), "alice")
	if err != nil {
		t.Fatalf("AddDerived failed: %v", err)
	}
	key, err := ring.PrivateKey(ctx, addr)
	if err != nil {
		t.Fatalf("PrivateKey failed: %v", err)
	}
	if crypto.PubkeyToAddress(key.PublicKey) != addr {
		t.Fatal("key does not control its address")
	}

	if _, err := ring.PrivateKey(ctx, common.HexToAddress("0x01")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	masterKey, _ := GenerateMasterKey()
	bobKey, _ := crypto.GenerateKey()
	sealed, _ := Seal(bobKey, masterKey)
	bob := crypto.PubkeyToAddress(bobKey.PublicKey)

	if err := ring.AddSealed(addr, sealed, masterKey); err == nil {
		t.Fatal("expected address mismatch error")
	}
	if err := ring.AddSealed(bob, sealed, masterKey); err != nil {
		t.Fatalf("AddSealed failed: %v", err)
	}
	if got := len(ring.Addresses()); got != 2 {
		t.Fatalf("expected 2 addresses, got %d", got)
	}
}
