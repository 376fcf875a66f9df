package association

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// MaxUint40 is the largest timestamp representable by the on-chain record.
const MaxUint40 = 1<<40 - 1

// SignatureMethod names a wallet signing capability.
type SignatureMethod string

const (
	MethodRawDigest SignatureMethod = "raw-digest"
	MethodTypedV4   SignatureMethod = "typed-v4"
	MethodTypedV3   SignatureMethod = "typed-v3"
	// MethodPersonalSign hashes under the EIP-191 prefix and never verifies
	// against the record digest. It exists only so callers can be refused.
	MethodPersonalSign SignatureMethod = "personal-sign"
)

// Typed reports whether m signs the structured typed data rather than the digest.
func (m SignatureMethod) Typed() bool {
	return m == MethodTypedV4 || m == MethodTypedV3
}

// AssocType is the kind of link an association asserts.
type AssocType uint8

const (
	AssocTypeGeneric AssocType = iota
	AssocTypeControl
	AssocTypeDelegation
	AssocTypeMembership
)

var (
	ErrValidityWindow  = errors.New("validUntil must be zero or not before validAt")
	ErrTimestampRange  = errors.New("timestamp exceeds uint40")
	ErrEmptyParty      = errors.New("initiator and approver must be set")
	ErrAlreadySigned   = errors.New("approver signature already attached")
	ErrRecordSubmitted = errors.New("record already submitted")
)

// Record is the structure both parties sign.
type Record struct {
	Initiator   []byte
	Approver    []byte
	ValidAt     uint64
	ValidUntil  uint64
	InterfaceID [4]byte
	Data        []byte
}

// Validate checks field ranges and the validity window.
func (r Record) Validate() error {
	if len(r.Initiator) == 0 || len(r.Approver) == 0 {
		return ErrEmptyParty
	}
	if r.ValidAt > MaxUint40 || r.ValidUntil > MaxUint40 {
		return ErrTimestampRange
	}
	if r.ValidUntil != 0 && r.ValidUntil < r.ValidAt {
		return ErrValidityWindow
	}
	return nil
}

// Equal reports whether r and o are field-for-field identical.
func (r Record) Equal(o Record) bool {
	return bytes.Equal(r.Initiator, o.Initiator) &&
		bytes.Equal(r.Approver, o.Approver) &&
		r.ValidAt == o.ValidAt &&
		r.ValidUntil == o.ValidUntil &&
		r.InterfaceID == o.InterfaceID &&
		bytes.Equal(r.Data, o.Data)
}

// SignedRecord is a Record carrying the initiator signature and, once the
// approver has signed, the approver signature.
type SignedRecord struct {
	Record
	ChainID            uint64
	InitiatorAddress   common.Address
	ApproverAddress    common.Address
	AssocType          AssocType
	Description        string
	Digest             common.Hash
	InitiatorSignature []byte
	Method             SignatureMethod
	ApproverSignature  []byte

	submitted bool
}

// IsSelfAssociation reports whether both sides are the same account.
func (s *SignedRecord) IsSelfAssociation() bool {
	return s.InitiatorAddress == s.ApproverAddress
}

// WithApproverSignature attaches the approver signature. It may be called once.
func (s *SignedRecord) WithApproverSignature(sig []byte) error {
	if s.submitted {
		return ErrRecordSubmitted
	}
	if len(s.ApproverSignature) != 0 {
		return ErrAlreadySigned
	}
	s.ApproverSignature = bytes.Clone(sig)
	return nil
}

// ReplaceApproverSignature swaps the approver signature before submission.
// It is used when a submission is retried after re-signing.
func (s *SignedRecord) ReplaceApproverSignature(sig []byte, method SignatureMethod) error {
	if s.submitted {
		return ErrRecordSubmitted
	}
	s.ApproverSignature = bytes.Clone(sig)
	if s.IsSelfAssociation() {
		s.InitiatorSignature = bytes.Clone(sig)
		s.Method = method
	}
	return nil
}

// MarkSubmitted freezes the record.
func (s *SignedRecord) MarkSubmitted() {
	s.submitted = true
}

// Submitted reports whether the record has been accepted for submission.
func (s *SignedRecord) Submitted() bool {
	return s.submitted
}

// Ready reports whether both signatures are present.
func (s *SignedRecord) Ready() error {
	if len(s.InitiatorSignature) == 0 {
		return fmt.Errorf("missing initiator signature")
	}
	if len(s.ApproverSignature) == 0 {
		return fmt.Errorf("missing approver signature")
	}
	return nil
}
