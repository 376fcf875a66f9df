package auth

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func TestRecoverDigestSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	digest := crypto.Keccak256Hash([]byte("association digest"))

	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	got, err := RecoverDigestSigner(digest, sig)
	if err != nil {
		t.Fatalf("RecoverDigestSigner failed: %v", err)
	}
	if got != addr {
		t.Fatalf("recovered %s, want %s", got.Hex(), addr.Hex())
	}

	legacy := append([]byte(nil), sig...)
	legacy[64] += 27
	if !VerifyDigestSignature(addr, digest, legacy) {
		t.Fatal("v=27/28 signatures must verify")
	}
	if legacy[64] < 27 {
		t.Fatal("input signature must not be mutated")
	}
}

func TestVerifyDigestSignature_RejectsPersonalSign(t *testing.T) {
	key, _ := crypto.GenerateKey()
	addr := crypto.PubkeyToAddress(key.PublicKey)
	digest := crypto.Keccak256Hash([]byte("association digest"))

	prefixed, err := crypto.Sign(accounts.TextHash(digest.Bytes()), key)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if VerifyDigestSignature(addr, digest, prefixed) {
		t.Fatal("a prefixed personal-message signature must not verify against the raw digest")
	}
}

func TestRecoverDigestSigner_Malformed(t *testing.T) {
	digest := common.HexToHash("0x01")
	if _, err := RecoverDigestSigner(digest, make([]byte, 64)); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	bad := make([]byte, 65)
	bad[64] = 5
	if _, err := RecoverDigestSigner(digest, bad); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidateEVMAddress(t *testing.T) {
	cases := map[string]bool{
		"0x1111111111111111111111111111111111111111": true,
		"1111111111111111111111111111111111111111":   false,
		"0x111111111111111111111111111111111111111":  false,
		"0xzz11111111111111111111111111111111111111": false,
	}
	for in, want := range cases {
		if got := ValidateEVMAddress(in); got != want {
			t.Fatalf("ValidateEVMAddress(%q) = %v, want %v", in, got, want)
		}
	}
	if NormalizeAddress("0xabcdefabcdefabcdefabcdefabcdefabcdefabcd") != common.HexToAddress("0xabcdefabcdefabcdefabcdefabcdefabcdefabcd").Hex() {
		t.Fatal("NormalizeAddress must return the checksummed form")
	}
}
