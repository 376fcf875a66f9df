package handshake

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsafe/agent-associations/pkg/association"
	"github.com/chainsafe/agent-associations/pkg/auth"
	"github.com/chainsafe/agent-associations/pkg/signing"
)

// Approval is a delivered envelope to review, sign and finalize.
type Approval struct {
	Envelope []byte
	// Controller signs on behalf of a contract approver. It is ignored for EOAs.
	Controller common.Address
	// HandshakeID names the initiator's handshake when the envelope came from
	// an inbox message. The approval then advances that handshake instead of
	// opening a new one.
	HandshakeID uuid.UUID
}

// Approve reviews a delivered envelope as the approver. The digest is always
// recomputed from the raw fields; a mismatch fails the handshake before any
// wallet is asked to sign.
func (o *Orchestrator) Approve(ctx context.Context, a Approval) (*Handshake, error) {
	h := newHandshake(RoleApprover, StateDelivered, o.now())
	if a.HandshakeID != uuid.Nil {
		h.ID = a.HandshakeID
	}

	env, err := association.ParseEnvelope(a.Envelope)
	if err != nil {
		return h, o.fail(ctx, h, err)
	}
	h.ChainID = env.ChainID
	h.Initiator.DID = env.InitiatorDID
	h.Approver.DID = env.ApproverDID

	signed, err := env.Decode()
	if err != nil {
		return h, o.fail(ctx, h, err)
	}
	h.Initiator.Address = signed.InitiatorAddress
	h.Approver.Address = signed.ApproverAddress
	h.Approver.Controller = a.Controller
	h.DeclaredInitiator = signed.InitiatorAddress

	o.transition(ctx, h, StateApproverReviewing)

	delivered := signed.Digest
	recomputed := association.ComputeDigest(o.cfg.Domain, signed.Record)
	h.AttemptedDigests = append(h.AttemptedDigests, recomputed)
	if recomputed != delivered {
		signed.Digest = recomputed
		h.Signed = signed
		return h, o.fail(ctx, h, association.NewError(association.KindDigestMismatch,
			fmt.Sprintf("delivered digest %s does not match recomputed %s", delivered.Hex(), recomputed.Hex()), nil))
	}
	h.Signed = signed

	if err := o.verifyInitiator(ctx, signed); err != nil {
		return h, o.fail(ctx, h, err)
	}

	signerAddr, err := o.approverSigner(ctx, h)
	if err != nil {
		return h, o.fail(ctx, h, err)
	}

	res, err := o.signAsApprover(ctx, h, signerAddr)
	if err != nil {
		return h, o.fail(ctx, h, err)
	}
	if err := signed.WithApproverSignature(res.Signature); err != nil {
		return h, o.fail(ctx, h, association.NewError(association.KindSubmissionFailed, "cannot attach approver signature", err))
	}
	h.ApproverMethod = res.Method
	o.transition(ctx, h, StateApproverSigned)

	opID, err := o.submit(ctx, h, signerAddr)
	if err != nil {
		return h, o.fail(ctx, h, err)
	}
	o.succeed(ctx, h, opID)
	return h, nil
}

// verifyInitiator checks the delivered initiator signature against the
// recomputed digest before the approver is prompted.
func (o *Orchestrator) verifyInitiator(ctx context.Context, signed *association.SignedRecord) error {
	isContract, err := o.isContract(ctx, signed.ChainID, signed.InitiatorAddress)
	if err != nil {
		return err
	}

	var valid bool
	if isContract {
		valid = o.verifier.IsValid(ctx, signed.ChainID, signed.InitiatorAddress, signed.Digest, signed.InitiatorSignature)
	} else {
		valid = auth.VerifyDigestSignature(signed.InitiatorAddress, signed.Digest, signed.InitiatorSignature)
	}
	if !valid {
		return association.NewError(association.KindOnChainVerificationFailed,
			fmt.Sprintf("initiator signature does not verify for %s", signed.InitiatorAddress.Hex()), nil)
	}
	return nil
}

func (o *Orchestrator) approverSigner(ctx context.Context, h *Handshake) (common.Address, error) {
	isContract, err := o.isContract(ctx, h.ChainID, h.Approver.Address)
	if err != nil {
		return common.Address{}, err
	}
	if !isContract {
		return h.Approver.Address, nil
	}
	if !h.Approver.HasController() {
		return common.Address{}, association.NewError(association.KindInvalidPayload,
			fmt.Sprintf("contract approver %s has no controlling account", h.Approver.Address.Hex()), nil)
	}
	return h.Approver.Controller, nil
}

// signAsApprover asks for the initiator's method and, when that fails,
// makes exactly one more attempt with the policy's alternate method.
func (o *Orchestrator) signAsApprover(ctx context.Context, h *Handshake, signerAddr common.Address) (signing.Result, error) {
	signed := h.Signed
	policy := o.signer.Policy()
	req := signing.Request{
		Signer:    signerAddr,
		Digest:    signed.Digest,
		TypedData: association.TypedData(o.cfg.Domain, signed.Record),
		Preferred: signed.Method,
		Exclude:   policy.Except(signed.Method),
	}

	res, err := o.signer.Sign(ctx, req)
	if err == nil || association.IsKind(err, association.KindWalletNotConnected) {
		return res, err
	}

	alternate, ok := policy.Alternate(signed.Method)
	if !ok {
		return signing.Result{}, err
	}
	o.logger.Info("approver signing failed, retrying with alternate method",
		zap.String("handshake_id", h.ID.String()),
		zap.String("method", string(alternate)),
		zap.Error(err))

	req.Preferred = alternate
	req.Exclude = policy.Except(alternate)
	return o.signer.Sign(ctx, req)
}
