package keys

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrKeyNotFound is returned when no key is held for an address.
var ErrKeyNotFound = errors.New("signing key not found")

// Ring holds custodial keys indexed by the address they control.
type Ring struct {
	mu   sync.RWMutex
	keys map[common.Address]*ecdsa.PrivateKey
}

// NewRing creates an empty key ring.
func NewRing() *Ring {
	return &Ring{keys: make(map[common.Address]*ecdsa.PrivateKey)}
}

// Add stores key and returns its address.
func (r *Ring) Add(key *ecdsa.PrivateKey) common.Address {
	addr := crypto.PubkeyToAddress(key.PublicKey)

	r.mu.Lock()
	r.keys[addr] = key
	r.mu.Unlock()

	return addr
}

// AddSealed opens an encrypted key and checks it controls the expected address.
func (r *Ring) AddSealed(expected common.Address, encrypted string, masterKey []byte) error {
	key, err := Open(encrypted, masterKey)
	if err != nil {
		return fmt.Errorf("failed to open key for %s: %w", expected.Hex(), err)
	}
	if addr := crypto.PubkeyToAddress(key.PublicKey); addr != expected {
		return fmt.Errorf("sealed key controls %s, expected %s", addr.Hex(), expected.Hex())
	}
	r.Add(key)
	return nil
}

// AddDerived derives a key for label from seed and stores it.
func (r *Ring) AddDerived(seed []byte, label string) (common.Address, error) {
	key, err := Derive(seed, label)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to derive key %q: %w", label, err)
	}
	return r.Add(key), nil
}

// PrivateKey returns the key controlling addr.
func (r *Ring) PrivateKey(_ context.Context, addr common.Address) (*ecdsa.PrivateKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.keys[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, addr.Hex())
	}
	return key, nil
}

// Addresses lists every address held by the ring.
func (r *Ring) Addresses() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]common.Address, 0, len(r.keys))
	for addr := range r.keys {
		out = append(out, addr)
	}
	return out
}
