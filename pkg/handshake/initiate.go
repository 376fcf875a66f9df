package handshake

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsafe/agent-associations/internal/metrics"
	"github.com/chainsafe/agent-associations/pkg/association"
	"github.com/chainsafe/agent-associations/pkg/auth"
	"github.com/chainsafe/agent-associations/pkg/signing"
)

// Request asks for a new association.
type Request struct {
	ChainID     uint64
	Initiator   Party
	Approver    Party
	AssocType   association.AssocType
	Description string
	// ValidAt defaults to the current time when zero.
	ValidAt     uint64
	ValidUntil  uint64
	InterfaceID [4]byte
}

func (r Request) draft(initiator common.Address) association.Draft {
	return association.Draft{
		ChainID:     r.ChainID,
		Initiator:   initiator,
		Approver:    r.Approver.Address,
		AssocType:   r.AssocType,
		Description: r.Description,
		ValidAt:     r.ValidAt,
		ValidUntil:  r.ValidUntil,
		InterfaceID: r.InterfaceID,
	}
}

// Initiate signs a new association as the initiator. A self-association is
// finalized immediately; otherwise the envelope is delivered to the approver.
// The returned handshake is non-nil whenever the request was accepted for
// processing, including when it ends in Failed.
func (o *Orchestrator) Initiate(ctx context.Context, req Request) (*Handshake, error) {
	h := newHandshake(RoleInitiator, StateDrafted, o.now())
	h.ChainID = req.ChainID
	h.Initiator = req.Initiator
	h.Approver = req.Approver
	h.DeclaredInitiator = req.Initiator.Address
	o.record(ctx, h)

	if req.Initiator.Address == (common.Address{}) || req.Approver.Address == (common.Address{}) {
		return h, o.fail(ctx, h, association.NewError(association.KindInvalidPayload, "initiator and approver addresses are required", association.ErrEmptyParty))
	}
	if req.ValidAt == 0 {
		req.ValidAt = uint64(o.now().Unix())
	}

	isContract, err := o.isContract(ctx, req.ChainID, req.Initiator.Address)
	if err != nil {
		return h, o.fail(ctx, h, err)
	}

	signerAddr := req.Initiator.Address
	if isContract {
		if !req.Initiator.HasController() {
			return h, o.fail(ctx, h, association.NewError(association.KindInvalidPayload,
				fmt.Sprintf("contract initiator %s has no controlling account", req.Initiator.Address.Hex()), nil))
		}
		signerAddr = req.Initiator.Controller
	}

	signed, err := o.signDraft(ctx, h, req.draft(req.Initiator.Address), signerAddr)
	if err != nil {
		return h, o.fail(ctx, h, err)
	}

	if isContract && !o.verifier.IsValid(ctx, req.ChainID, req.Initiator.Address, signed.Digest, signed.InitiatorSignature) {
		signed, err = o.substitute(ctx, h, req, signed)
		if err != nil {
			return h, o.fail(ctx, h, err)
		}
	}

	h.Signed = signed
	o.transition(ctx, h, StateInitiatorSigned)

	if signed.IsSelfAssociation() {
		return h, o.finalizeSelf(ctx, h)
	}
	return h, o.deliver(ctx, h)
}

func (o *Orchestrator) isContract(ctx context.Context, chainID uint64, addr common.Address) (bool, error) {
	if o.verifier == nil {
		return false, nil
	}
	ok, err := o.verifier.IsContract(ctx, chainID, addr)
	if err != nil {
		return false, association.NewError(association.KindOnChainVerificationFailed,
			fmt.Sprintf("failed to inspect %s", addr.Hex()), err)
	}
	return ok, nil
}

// signDraft builds the record for d and obtains the initiator signature from signerAddr.
func (o *Orchestrator) signDraft(ctx context.Context, h *Handshake, d association.Draft, signerAddr common.Address) (*association.SignedRecord, error) {
	signed, err := association.Prepare(o.cfg.Domain, d)
	if err != nil {
		return nil, association.NewError(association.KindInvalidPayload, "invalid association request", err)
	}
	h.AttemptedDigests = append(h.AttemptedDigests, signed.Digest)

	res, err := o.signer.Sign(ctx, signing.Request{
		Signer:    signerAddr,
		Digest:    signed.Digest,
		TypedData: association.TypedData(o.cfg.Domain, signed.Record),
		Preferred: o.cfg.PreferredMethod,
	})
	if err != nil {
		return nil, err
	}
	signed.InitiatorSignature = res.Signature
	signed.Method = res.Method
	return signed, nil
}

// substitute replaces a contract initiator whose signature the contract
// rejected with its controlling account, re-signs the rebuilt record and
// verifies the new signature once.
func (o *Orchestrator) substitute(ctx context.Context, h *Handshake, req Request, rejected *association.SignedRecord) (*association.SignedRecord, error) {
	controller := req.Initiator.Controller
	o.logger.Info("contract rejected initiator signature, substituting controller",
		zap.String("handshake_id", h.ID.String()),
		zap.String("contract", req.Initiator.Address.Hex()),
		zap.String("controller", controller.Hex()),
		zap.String("rejected_digest", rejected.Digest.Hex()))
	metrics.InitiatorSubstitutions.Inc()

	d := req.draft(controller)
	if req.Approver.Address == req.Initiator.Address {
		// a self-association stays one: the same controller signs both sides
		d.Approver = controller
	}

	signed, err := o.signDraft(ctx, h, d, controller)
	if err != nil {
		return nil, err
	}
	h.Initiator.Address = controller

	controllerIsContract, err := o.isContract(ctx, req.ChainID, controller)
	if err != nil {
		return nil, err
	}
	var valid bool
	if controllerIsContract {
		valid = o.verifier.IsValid(ctx, req.ChainID, controller, signed.Digest, signed.InitiatorSignature)
	} else {
		valid = auth.VerifyDigestSignature(controller, signed.Digest, signed.InitiatorSignature)
	}
	if !valid {
		return nil, association.NewError(association.KindOnChainVerificationFailed,
			fmt.Sprintf("signature rejected for %s and for controller %s", req.Initiator.Address.Hex(), controller.Hex()), nil)
	}
	return signed, nil
}

// finalizeSelf submits a self-association with its single signature on both
// sides. A failed submission is not retried: the wallet is prompted once.
func (o *Orchestrator) finalizeSelf(ctx context.Context, h *Handshake) error {
	signed := h.Signed
	if err := signed.WithApproverSignature(signed.InitiatorSignature); err != nil {
		return o.fail(ctx, h, association.NewError(association.KindSubmissionFailed, "cannot attach approver signature", err))
	}
	h.ApproverMethod = signed.Method

	opID, err := o.finalizer.Finalize(ctx, signed, o.cfg.mode(signed.ChainID))
	if err != nil {
		return o.fail(ctx, h, err)
	}
	o.succeed(ctx, h, opID)
	return nil
}

func (o *Orchestrator) deliver(ctx context.Context, h *Handshake) error {
	if o.messenger == nil {
		return o.fail(ctx, h, association.NewError(association.KindDeliveryFailed, "no messenger configured", nil))
	}

	env := association.NewEnvelope(h.Signed, h.Initiator.DID, h.Approver.DID)
	payload, err := env.Marshal()
	if err != nil {
		return o.fail(ctx, h, association.NewError(association.KindDeliveryFailed, "failed to encode envelope", err))
	}

	msg := Message{
		ID:           uuid.New(),
		HandshakeID:  h.ID,
		RecipientDID: h.Approver.DID,
		SenderDID:    h.Initiator.DID,
		Payload:      payload,
		CreatedAt:    o.now(),
	}
	if err := o.messenger.Deliver(ctx, msg); err != nil {
		return o.fail(ctx, h, association.NewError(association.KindDeliveryFailed,
			fmt.Sprintf("failed to deliver envelope to %s", h.Approver.DID), err))
	}

	o.logger.Info("envelope delivered",
		zap.String("handshake_id", h.ID.String()),
		zap.String("approver_did", h.Approver.DID),
		zap.String("digest", h.Signed.Digest.Hex()))
	o.transition(ctx, h, StateDelivered)
	return nil
}
