// Package handshake drives an association from draft to on-chain record on
// both the initiator and the approver side.
package handshake

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/chainsafe/agent-associations/pkg/association"
)

// State is a handshake lifecycle state.
type State string

const (
	StateDrafted           State = "drafted"
	StateInitiatorSigned   State = "initiator_signed"
	StateDelivered         State = "delivered"
	StateApproverReviewing State = "approver_reviewing"
	StateApproverSigned    State = "approver_signed"
	StateFinalized         State = "finalized"
	StateFailed            State = "failed"
)

// ErrIllegalTransition is returned when a state change is not in the lifecycle.
var ErrIllegalTransition = errors.New("illegal handshake transition")

var transitions = map[State][]State{
	StateDrafted:           {StateInitiatorSigned},
	StateInitiatorSigned:   {StateFinalized, StateDelivered},
	StateDelivered:         {StateApproverReviewing},
	StateApproverReviewing: {StateApproverSigned},
	StateApproverSigned:    {StateFinalized},
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateFinalized || s == StateFailed
}

// CanTransition reports whether s may move to next. Every non-terminal state
// may fail.
func (s State) CanTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateFailed {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Outcome discriminates how a handshake ended.
type Outcome string

const (
	OutcomePending                Outcome = "pending"
	OutcomeSucceededAsDeclared    Outcome = "succeeded_as_declared"
	OutcomeSucceededAsSubstituted Outcome = "succeeded_as_substituted"
	OutcomeFailed                 Outcome = "failed"
)

// Role is the side of the association a handshake runs on.
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleApprover  Role = "approver"
)

// Party is one side of an association. Controller is the externally-owned
// account that signs on behalf of a contract account; it is unset for EOAs.
type Party struct {
	DID        string
	Address    common.Address
	Controller common.Address
}

// HasController reports whether a controlling account is configured.
func (p Party) HasController() bool {
	return p.Controller != (common.Address{})
}

// Handshake ties a signed record to its lifecycle state.
type Handshake struct {
	ID        uuid.UUID
	Role      Role
	State     State
	Outcome   Outcome
	ChainID   uint64
	Initiator Party
	Approver  Party

	// DeclaredInitiator is the initiator address as requested, before any substitution.
	DeclaredInitiator common.Address
	Signed            *association.SignedRecord
	// AttemptedDigests lists every digest a signature was requested over, in order.
	AttemptedDigests []common.Hash
	ApproverMethod   association.SignatureMethod
	OperationID      string
	Failure          *association.Error

	CreatedAt time.Time
	UpdatedAt time.Time
}

func newHandshake(role Role, state State, now time.Time) *Handshake {
	return &Handshake{
		ID:        uuid.New(),
		Role:      role,
		State:     state,
		Outcome:   OutcomePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Substituted reports whether the initiator was replaced by its controller.
func (h *Handshake) Substituted() bool {
	return h.Signed != nil && h.Signed.InitiatorAddress != h.DeclaredInitiator
}

func (h *Handshake) moveTo(next State, now time.Time) error {
	if !h.State.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, h.State, next)
	}
	h.State = next
	h.UpdatedAt = now
	return nil
}

// Snapshot is the persisted and serialised view of a handshake.
type Snapshot struct {
	ID                string    `json:"id"`
	Role              Role      `json:"role"`
	State             State     `json:"state"`
	Outcome           Outcome   `json:"outcome"`
	ChainID           uint64    `json:"chainId"`
	InitiatorDID      string    `json:"initiatorDid"`
	ApproverDID       string    `json:"approverDid"`
	DeclaredInitiator string    `json:"declaredInitiator,omitempty"`
	InitiatorAddress  string    `json:"initiatorAddress,omitempty"`
	ApproverAddress   string    `json:"approverAddress,omitempty"`
	Digest            string    `json:"digest,omitempty"`
	AttemptedDigests  []string  `json:"attemptedDigests,omitempty"`
	InitiatorMethod   string    `json:"initiatorMethod,omitempty"`
	ApproverMethod    string    `json:"approverMethod,omitempty"`
	OperationID       string    `json:"operationId,omitempty"`
	FailureKind       string    `json:"failureKind,omitempty"`
	FailureMessage    string    `json:"failureMessage,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Snapshot returns the current view of h. Signatures are not included.
func (h *Handshake) Snapshot() Snapshot {
	s := Snapshot{
		ID:             h.ID.String(),
		Role:           h.Role,
		State:          h.State,
		Outcome:        h.Outcome,
		ChainID:        h.ChainID,
		InitiatorDID:   h.Initiator.DID,
		ApproverDID:    h.Approver.DID,
		ApproverMethod: string(h.ApproverMethod),
		OperationID:    h.OperationID,
		CreatedAt:      h.CreatedAt,
		UpdatedAt:      h.UpdatedAt,
	}
	if h.DeclaredInitiator != (common.Address{}) {
		s.DeclaredInitiator = h.DeclaredInitiator.Hex()
	}
	if h.Signed != nil {
		s.InitiatorAddress = h.Signed.InitiatorAddress.Hex()
		s.ApproverAddress = h.Signed.ApproverAddress.Hex()
		s.Digest = h.Signed.Digest.Hex()
		s.InitiatorMethod = string(h.Signed.Method)
	}
	for _, d := range h.AttemptedDigests {
		s.AttemptedDigests = append(s.AttemptedDigests, d.Hex())
	}
	if h.Failure != nil {
		s.FailureKind = h.Failure.Kind.String()
		s.FailureMessage = h.Failure.Error()
	}
	return s
}
