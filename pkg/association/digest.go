package association

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	// PrimaryType is the EIP-712 struct name of Record.
	PrimaryType = "AssociatedAccountRecord"

	domainTypeString = "EIP712Domain(string name,string version)"
	recordTypeString = "AssociatedAccountRecord(bytes initiator,bytes approver,uint40 validAt,uint40 validUntil,bytes4 interfaceId,bytes data)"
)

var (
	domainTypeHash = crypto.Keccak256Hash([]byte(domainTypeString))
	recordTypeHash = crypto.Keccak256Hash([]byte(recordTypeString))
)

// Domain is the EIP-712 domain the digest is bound to.
type Domain struct {
	Name    string
	Version string
}

// DefaultDomain matches the deployed association store.
var DefaultDomain = Domain{Name: "AssociatedAccounts", Version: "1"}

// Separator returns the domain separator of d.
func (d Domain) Separator() common.Hash {
	return DomainSeparator(d.Name, d.Version)
}

// DomainSeparator hashes the two-field EIP-712 domain.
func DomainSeparator(name, version string) common.Hash {
	return crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		crypto.Keccak256([]byte(name)),
		crypto.Keccak256([]byte(version)),
	)
}

// StructHash hashes r under the AssociatedAccountRecord type.
func StructHash(r Record) common.Hash {
	var interfaceID [32]byte
	copy(interfaceID[:], r.InterfaceID[:])

	return crypto.Keccak256Hash(
		recordTypeHash.Bytes(),
		crypto.Keccak256(r.Initiator),
		crypto.Keccak256(r.Approver),
		uintWord(r.ValidAt),
		uintWord(r.ValidUntil),
		interfaceID[:],
		crypto.Keccak256(r.Data),
	)
}

// Digest combines a domain separator and struct hash into the signable digest.
func Digest(domainSeparator, structHash common.Hash) common.Hash {
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, domainSeparator.Bytes(), structHash.Bytes())
}

// ComputeDigest is Digest(domain.Separator(), StructHash(r)).
func ComputeDigest(domain Domain, r Record) common.Hash {
	return Digest(domain.Separator(), StructHash(r))
}

// TypedData describes r as EIP-712 typed data for wallets that sign
// structured payloads. Its hash equals ComputeDigest(domain, r).
func TypedData(domain Domain, r Record) *apitypes.TypedData {
	return &apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
			},
			PrimaryType: {
				{Name: "initiator", Type: "bytes"},
				{Name: "approver", Type: "bytes"},
				{Name: "validAt", Type: "uint40"},
				{Name: "validUntil", Type: "uint40"},
				{Name: "interfaceId", Type: "bytes4"},
				{Name: "data", Type: "bytes"},
			},
		},
		PrimaryType: PrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:    domain.Name,
			Version: domain.Version,
		},
		Message: apitypes.TypedDataMessage{
			"initiator":   hexutil.Encode(r.Initiator),
			"approver":    hexutil.Encode(r.Approver),
			"validAt":     strconv.FormatUint(r.ValidAt, 10),
			"validUntil":  strconv.FormatUint(r.ValidUntil, 10),
			"interfaceId": hexutil.Encode(r.InterfaceID[:]),
			"data":        hexutil.Encode(r.Data),
		},
	}
}

func uintWord(v uint64) []byte {
	var w [32]byte
	for i := 0; i < 8; i++ {
		w[31-i] = byte(v >> (8 * i))
	}
	return w[:]
}
