// Package interop encodes chain-qualified EVM addresses in the ERC-7930
// binary interoperable address format.
package interop

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	// Version is the only interoperable address version produced by this package.
	Version uint16 = 0x0001
	// NamespaceEIP155 identifies EVM chains addressed by their EIP-155 chain id.
	NamespaceEIP155 uint16 = 0x0000

	// 2-byte version followed by the 2-byte chain namespace
	headerLen = 4
)

var (
	ErrTruncated        = errors.New("interop address truncated")
	ErrUnsupported      = errors.New("unsupported interop address version or namespace")
	ErrInvalidAddrLen   = errors.New("interop address must carry a 20-byte account")
	ErrChainRefTooLarge = errors.New("chain reference does not fit in uint64")
)

// Address is a chain id plus a 20-byte account.
type Address struct {
	ChainID uint64
	Account common.Address
}

// New returns the interop address for account on chainID.
func New(chainID uint64, account common.Address) Address {
	return Address{ChainID: chainID, Account: account}
}

// Bytes returns the canonical binary encoding of a.
func (a Address) Bytes() []byte {
	return Encode(a.ChainID, a.Account)
}

// Hex returns the 0x-prefixed encoding of a.
func (a Address) Hex() string {
	return hexutil.Encode(a.Bytes())
}

func (a Address) String() string {
	return fmt.Sprintf("eip155:%d:%s", a.ChainID, a.Account.Hex())
}

// Encode lays out version, namespace, length-prefixed minimal big-endian chain
// id and length-prefixed account bytes. It never fails.
func Encode(chainID uint64, account common.Address) []byte {
	ref := chainReference(chainID)

	out := make([]byte, 0, headerLen+1+len(ref)+1+common.AddressLength)
	out = append(out, byte(Version>>8), byte(Version))
	out = append(out, byte(NamespaceEIP155>>8), byte(NamespaceEIP155))
	out = append(out, byte(len(ref)))
	out = append(out, ref...)
	out = append(out, common.AddressLength)
	out = append(out, account.Bytes()...)
	return out
}

// Decode parses an encoding produced by Encode.
func Decode(b []byte) (Address, error) {
	if len(b) < headerLen+1 {
		return Address{}, ErrTruncated
	}
	version := uint16(b[0])<<8 | uint16(b[1])
	namespace := uint16(b[2])<<8 | uint16(b[3])
	if version != Version || namespace != NamespaceEIP155 {
		return Address{}, fmt.Errorf("%w: version=%#04x namespace=%#04x", ErrUnsupported, version, namespace)
	}

	rest := b[headerLen:]
	refLen := int(rest[0])
	rest = rest[1:]
	if refLen == 0 || len(rest) < refLen+1 {
		return Address{}, ErrTruncated
	}
	ref := new(big.Int).SetBytes(rest[:refLen])
	if !ref.IsUint64() {
		return Address{}, ErrChainRefTooLarge
	}
	rest = rest[refLen:]

	if int(rest[0]) != common.AddressLength || len(rest[1:]) != common.AddressLength {
		return Address{}, ErrInvalidAddrLen
	}

	return Address{ChainID: ref.Uint64(), Account: common.BytesToAddress(rest[1:])}, nil
}

// Equal reports whether a and b encode to the same bytes.
func Equal(a, b []byte) bool {
	return bytes.Equal(a, b)
}

func chainReference(chainID uint64) []byte {
	if chainID == 0 {
		return []byte{0x00}
	}
	return new(big.Int).SetUint64(chainID).Bytes()
}
