package association

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-playground/validator/v10"

	"github.com/chainsafe/agent-associations/pkg/interop"
)

// EnvelopeVersion is the only envelope version accepted by ParseEnvelope.
const EnvelopeVersion = 1

const defaultInterfaceID = "0x00000000"

var envelopeValidator = validator.New()

// Envelope is the versioned handshake payload delivered to the approver.
type Envelope struct {
	Version            int    `json:"version" validate:"eq=1"`
	ChainID            uint64 `json:"chainId"`
	InitiatorDID       string `json:"initiatorDid" validate:"required"`
	ApproverDID        string `json:"approverDid" validate:"required"`
	InitiatorAddress   string `json:"initiatorAddress" validate:"required,eth_addr"`
	ApproverAddress    string `json:"approverAddress" validate:"required,eth_addr"`
	AssocType          uint8  `json:"assocType"`
	Description        string `json:"description"`
	ValidAt            uint64 `json:"validAt"`
	ValidUntil         uint64 `json:"validUntil"`
	InterfaceID        string `json:"interfaceId" validate:"omitempty,hexadecimal,len=10"`
	Data               string `json:"data" validate:"required,hexadecimal"`
	Digest             string `json:"digest" validate:"required,hexadecimal,len=66"`
	InitiatorSignature string `json:"initiatorSignature" validate:"required,hexadecimal"`
	SignatureMethod    string `json:"signatureMethod" validate:"required,oneof=raw-digest typed-v4 typed-v3"`
}

// NewEnvelope packages an initiator-signed record for delivery.
func NewEnvelope(signed *SignedRecord, initiatorDID, approverDID string) *Envelope {
	return &Envelope{
		Version:            EnvelopeVersion,
		ChainID:            signed.ChainID,
		InitiatorDID:       initiatorDID,
		ApproverDID:        approverDID,
		InitiatorAddress:   signed.InitiatorAddress.Hex(),
		ApproverAddress:    signed.ApproverAddress.Hex(),
		AssocType:          uint8(signed.AssocType),
		Description:        signed.Description,
		ValidAt:            signed.ValidAt,
		ValidUntil:         signed.ValidUntil,
		InterfaceID:        hexutil.Encode(signed.InterfaceID[:]),
		Data:               hexutil.Encode(signed.Data),
		Digest:             signed.Digest.Hex(),
		InitiatorSignature: hexutil.Encode(signed.InitiatorSignature),
		SignatureMethod:    string(signed.Method),
	}
}

// Marshal encodes e as JSON.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// ParseEnvelope decodes and validates a delivered payload. Every failure is
// reported as KindInvalidPayload.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, NewError(KindInvalidPayload, "empty envelope", nil)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, NewError(KindInvalidPayload, "malformed envelope", err)
	}
	if env.InterfaceID == "" {
		env.InterfaceID = defaultInterfaceID
	}
	if err := envelopeValidator.Struct(&env); err != nil {
		return nil, NewError(KindInvalidPayload, "envelope failed validation", err)
	}
	return &env, nil
}

// Decode turns the envelope into a SignedRecord. The record fields are rebuilt
// from the raw addresses; the Digest field holds the delivered digest and must
// be compared against a recomputation before use.
func (e *Envelope) Decode() (*SignedRecord, error) {
	invalid := func(msg string, err error) error {
		return NewError(KindInvalidPayload, msg, err)
	}

	if !common.IsHexAddress(e.InitiatorAddress) || !common.IsHexAddress(e.ApproverAddress) {
		return nil, invalid("invalid party address", nil)
	}
	initiator := common.HexToAddress(e.InitiatorAddress)
	approver := common.HexToAddress(e.ApproverAddress)

	data, err := hexutil.Decode(e.Data)
	if err != nil {
		return nil, invalid("invalid data", err)
	}
	assocType, description, err := DecodeData(data)
	if err != nil {
		return nil, invalid("undecodable data", err)
	}
	if assocType != AssocType(e.AssocType) || description != e.Description {
		return nil, invalid("data does not match assocType and description", nil)
	}

	interfaceID, err := hexutil.Decode(e.InterfaceID)
	if err != nil || len(interfaceID) != 4 {
		return nil, invalid("invalid interfaceId", err)
	}

	digest, err := hexutil.Decode(e.Digest)
	if err != nil || len(digest) != common.HashLength {
		return nil, invalid("invalid digest", err)
	}

	sig, err := hexutil.Decode(e.InitiatorSignature)
	if err != nil || len(sig) == 0 {
		return nil, invalid("invalid initiatorSignature", err)
	}

	method := SignatureMethod(e.SignatureMethod)
	if method == MethodPersonalSign {
		return nil, invalid("personal-sign signatures are not accepted", nil)
	}

	r := Record{
		Initiator:  interop.Encode(e.ChainID, initiator),
		Approver:   interop.Encode(e.ChainID, approver),
		ValidAt:    e.ValidAt,
		ValidUntil: e.ValidUntil,
		Data:       data,
	}
	copy(r.InterfaceID[:], interfaceID)
	if err := r.Validate(); err != nil {
		return nil, invalid("invalid record", err)
	}

	return &SignedRecord{
		Record:             r,
		ChainID:            e.ChainID,
		InitiatorAddress:   initiator,
		ApproverAddress:    approver,
		AssocType:          assocType,
		Description:        description,
		Digest:             common.BytesToHash(digest),
		InitiatorSignature: sig,
		Method:             method,
	}, nil
}

// String is a short description used in logs.
func (e *Envelope) String() string {
	return fmt.Sprintf("envelope(v%d chain=%d %s->%s)", e.Version, e.ChainID, e.InitiatorDID, e.ApproverDID)
}
