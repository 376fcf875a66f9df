package service

import (
	"encoding/json"
	"time"

	"github.com/chainsafe/agent-associations/pkg/handshake"
)

// PartyRequest identifies one side of an association. Address accepts either
// a 20-byte hex address or an ERC-7930 interoperable address for the request's
// chain.
type PartyRequest struct {
	DID        string `json:"did" validate:"required,max=255"`
	Address    string `json:"address" validate:"required"`
	Controller string `json:"controller,omitempty" validate:"omitempty,eth_addr"`
}

// InitiateRequest starts a handshake as the initiator
type InitiateRequest struct {
	ChainID     uint64       `json:"chainId" validate:"required"`
	Initiator   PartyRequest `json:"initiator"`
	Approver    PartyRequest `json:"approver"`
	AssocType   uint8        `json:"assocType" validate:"lte=3"`
	Description string       `json:"description" validate:"max=1024"`
	ValidAt     uint64       `json:"validAt,omitempty"`
	ValidUntil  uint64       `json:"validUntil,omitempty"`
	InterfaceID string       `json:"interfaceId,omitempty" validate:"omitempty,hexadecimal"`
}

// ApproveRequest carries an envelope received by the approver. MessageID
// optionally names the inbox entry the envelope came from.
type ApproveRequest struct {
	Envelope   json.RawMessage `json:"envelope" validate:"required"`
	Controller string          `json:"controller,omitempty" validate:"omitempty,eth_addr"`
	MessageID  string          `json:"messageId,omitempty" validate:"omitempty,uuid"`
}

// HandshakeResponse is returned by Initiate and Approve. Envelope is set when
// the handshake was handed to the approver.
type HandshakeResponse struct {
	Handshake handshake.Snapshot `json:"handshake"`
	Envelope  json.RawMessage    `json:"envelope,omitempty"`
}

// InboxMessage is a pending envelope for an approver
type InboxMessage struct {
	ID          string          `json:"id"`
	HandshakeID string          `json:"handshakeId"`
	SenderDID   string          `json:"senderDid,omitempty"`
	Envelope    json.RawMessage `json:"envelope"`
	CreatedAt   time.Time       `json:"createdAt"`
}
