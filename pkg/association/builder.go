package association

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsafe/agent-associations/pkg/interop"
)

var dataArguments = func() abi.Arguments {
	uint8Type, err := abi.NewType("uint8", "", nil)
	if err != nil {
		panic(err)
	}
	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "assocType", Type: uint8Type},
		{Name: "description", Type: stringType},
	}
}()

// EncodeData ABI-encodes (uint8 assocType, string description).
func EncodeData(assocType AssocType, description string) ([]byte, error) {
	data, err := dataArguments.Pack(uint8(assocType), description)
	if err != nil {
		return nil, fmt.Errorf("failed to encode association data: %w", err)
	}
	return data, nil
}

// DecodeData reverses EncodeData.
func DecodeData(data []byte) (AssocType, string, error) {
	values, err := dataArguments.Unpack(data)
	if err != nil {
		return 0, "", fmt.Errorf("failed to decode association data: %w", err)
	}
	if len(values) != 2 {
		return 0, "", fmt.Errorf("failed to decode association data: expected 2 values, got %d", len(values))
	}
	assocType, ok := values[0].(uint8)
	if !ok {
		return 0, "", fmt.Errorf("failed to decode association data: assocType is %T", values[0])
	}
	description, ok := values[1].(string)
	if !ok {
		return 0, "", fmt.Errorf("failed to decode association data: description is %T", values[1])
	}
	return AssocType(assocType), description, nil
}

// Draft is the unsigned request for an association.
type Draft struct {
	ChainID     uint64
	Initiator   common.Address
	Approver    common.Address
	AssocType   AssocType
	Description string
	ValidAt     uint64
	ValidUntil  uint64
	InterfaceID [4]byte
}

// Build encodes both parties and the payload into a Record.
func Build(d Draft) (Record, error) {
	data, err := EncodeData(d.AssocType, d.Description)
	if err != nil {
		return Record{}, err
	}

	r := Record{
		Initiator:   interop.Encode(d.ChainID, d.Initiator),
		Approver:    interop.Encode(d.ChainID, d.Approver),
		ValidAt:     d.ValidAt,
		ValidUntil:  d.ValidUntil,
		InterfaceID: d.InterfaceID,
		Data:        data,
	}
	if err := r.Validate(); err != nil {
		return Record{}, fmt.Errorf("invalid association record: %w", err)
	}
	return r, nil
}

// Prepare builds the record for d and computes its digest under domain. The
// returned SignedRecord carries no signatures yet.
func Prepare(domain Domain, d Draft) (*SignedRecord, error) {
	r, err := Build(d)
	if err != nil {
		return nil, err
	}
	return &SignedRecord{
		Record:           r,
		ChainID:          d.ChainID,
		InitiatorAddress: d.Initiator,
		ApproverAddress:  d.Approver,
		AssocType:        d.AssocType,
		Description:      d.Description,
		Digest:           ComputeDigest(domain, r),
	}, nil
}
