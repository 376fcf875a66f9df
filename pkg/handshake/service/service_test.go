package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/agent-associations/pkg/app/errors"
	"github.com/chainsafe/agent-associations/pkg/association"
	"github.com/chainsafe/agent-associations/pkg/associationstore"
	"github.com/chainsafe/agent-associations/pkg/auth"
	"github.com/chainsafe/agent-associations/pkg/finalizer"
	"github.com/chainsafe/agent-associations/pkg/handshake"
	"github.com/chainsafe/agent-associations/pkg/handshake/service"
	"github.com/chainsafe/agent-associations/pkg/handshake/service/mocks"
	"github.com/chainsafe/agent-associations/pkg/interop"
)

const sepolia = 11155111

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func initiateRequest() *service.InitiateRequest {
	return &service.InitiateRequest{
		ChainID:     sepolia,
		Initiator:   service.PartyRequest{DID: "did:agent:alice", Address: alice.Hex()},
		Approver:    service.PartyRequest{DID: "did:agent:bob", Address: bob.Hex()},
		AssocType:   uint8(association.AssocTypeDelegation),
		Description: "delegate",
	}
}

func deliveredHandshake(t *testing.T) *handshake.Handshake {
	t.Helper()
	signed, err := association.Prepare(association.DefaultDomain, association.Draft{
		ChainID:     sepolia,
		Initiator:   alice,
		Approver:    bob,
		AssocType:   association.AssocTypeDelegation,
		Description: "delegate",
		ValidAt:     1_700_000_000,
	})
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	signed.InitiatorSignature = make([]byte, 65)
	signed.Method = association.MethodRawDigest

	return &handshake.Handshake{
		ID:                uuid.New(),
		Role:              handshake.RoleInitiator,
		State:             handshake.StateDelivered,
		Outcome:           handshake.OutcomePending,
		ChainID:           sepolia,
		Initiator:         handshake.Party{DID: "did:agent:alice", Address: alice},
		Approver:          handshake.Party{DID: "did:agent:bob", Address: bob},
		DeclaredInitiator: alice,
		Signed:            signed,
	}
}

func inboxMessage(id, handshakeID uuid.UUID, recipient string) *handshake.Message {
	return &handshake.Message{
		ID:           id,
		HandshakeID:  handshakeID,
		RecipientDID: recipient,
		SenderDID:    "did:agent:alice",
	}
}

// envelopeFor returns the envelope alice sends to bob.
func envelopeFor(t *testing.T) json.RawMessage {
	t.Helper()
	h := deliveredHandshake(t)
	raw, err := association.NewEnvelope(h.Signed, "did:agent:alice", "did:agent:bob").Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	return raw
}

func TestAssociationService_Initiate_ReturnsEnvelope(t *testing.T) {
	ctx := context.Background()
	h := deliveredHandshake(t)

	orch := mocks.NewOrchestrator(t)
	orch.EXPECT().
		Initiate(ctx, mock.MatchedBy(func(req handshake.Request) bool {
			return req.ChainID == sepolia &&
				req.Initiator.Address == alice &&
				req.Approver.Address == bob &&
				req.AssocType == association.AssocTypeDelegation
		})).
		Return(h, nil).
		Once()

	svc := service.NewService(orch, mocks.NewStore(t), zap.NewNop())

	resp, err := svc.Initiate(ctx, initiateRequest())
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	if resp.Handshake.ID != h.ID.String() || resp.Handshake.State != handshake.StateDelivered {
		t.Fatalf("unexpected snapshot: %+v", resp.Handshake)
	}
	if len(resp.Envelope) == 0 {
		t.Fatal("expected envelope for delivered handshake")
	}

	env, err := association.ParseEnvelope(resp.Envelope)
	if err != nil {
		t.Fatalf("ParseEnvelope failed: %v", err)
	}
	if env.Digest != h.Signed.Digest.Hex() || env.ApproverDID != "did:agent:bob" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestAssociationService_Initiate_AcceptsInteropAddress(t *testing.T) {
	ctx := context.Background()
	h := deliveredHandshake(t)
	h.State = handshake.StateFinalized
	h.Outcome = handshake.OutcomeSucceededAsDeclared

	orch := mocks.NewOrchestrator(t)
	orch.EXPECT().
		Initiate(ctx, mock.MatchedBy(func(req handshake.Request) bool {
			return req.Initiator.Address == alice && req.InterfaceID == [4]byte{0x16, 0x26, 0xba, 0x7e}
		})).
		Return(h, nil).
		Once()

	svc := service.NewService(orch, mocks.NewStore(t), zap.NewNop())

	req := initiateRequest()
	req.Initiator.Address = interop.New(sepolia, alice).Hex()
	req.InterfaceID = "0x1626ba7e"

	resp, err := svc.Initiate(ctx, req)
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	if len(resp.Envelope) != 0 {
		t.Fatalf("expected no envelope for finalized handshake, got %s", resp.Envelope)
	}
}

func TestAssociationService_Initiate_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *service.InitiateRequest)
	}{
		{"missing chain", func(r *service.InitiateRequest) { r.ChainID = 0 }},
		{"missing did", func(r *service.InitiateRequest) { r.Approver.DID = "" }},
		{"garbage address", func(r *service.InitiateRequest) { r.Initiator.Address = "not-an-address" }},
		{"interop on other chain", func(r *service.InitiateRequest) { r.Initiator.Address = interop.New(1, alice).Hex() }},
		{"bad controller", func(r *service.InitiateRequest) { r.Initiator.Controller = "0x1234" }},
		{"unknown assoc type", func(r *service.InitiateRequest) { r.AssocType = 9 }},
		{"short interface id", func(r *service.InitiateRequest) { r.InterfaceID = "0x1626" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := service.NewService(mocks.NewOrchestrator(t), mocks.NewStore(t), zap.NewNop())

			req := initiateRequest()
			tt.mutate(req)

			_, err := svc.Initiate(context.Background(), req)
			if !apperrors.Is(err, apperrors.CategoryDataError) {
				t.Fatalf("expected CategoryDataError, got %v", err)
			}
		})
	}
}

func TestAssociationService_ErrorCategories(t *testing.T) {
	duplicate := association.NewError(association.KindSubmissionFailed, "duplicate submission", finalizer.ErrDuplicateSubmission)

	tests := []struct {
		name string
		err  error
		want apperrors.Category
	}{
		{"invalid payload", association.NewError(association.KindInvalidPayload, "bad", nil), apperrors.CategoryDataError},
		{"digest mismatch", association.NewError(association.KindDigestMismatch, "bad", nil), apperrors.CategoryDataError},
		{"wallet", association.NewError(association.KindWalletNotConnected, "no wallet", nil), apperrors.CategoryUnauthorized},
		{"verification", association.NewError(association.KindOnChainVerificationFailed, "rejected", nil), apperrors.CategoryForbidden},
		{"exhausted", association.NewError(association.KindSigningExhausted, "declined", nil), apperrors.CategoryDependencyFailure},
		{"delivery", association.NewError(association.KindDeliveryFailed, "down", nil), apperrors.CategoryDependencyFailure},
		{"submission", association.NewError(association.KindSubmissionFailed, "reverted", nil), apperrors.CategoryDependencyFailure},
		{"duplicate", duplicate, apperrors.CategoryDataConflict},
		{"unexpected", errors.New("boom"), apperrors.CategoryGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := deliveredHandshake(t)
			h.State = handshake.StateFailed

			orch := mocks.NewOrchestrator(t)
			orch.EXPECT().Initiate(ctx, mock.Anything).Return(h, tt.err).Once()

			svc := service.NewService(orch, mocks.NewStore(t), zap.NewNop())

			_, err := svc.Initiate(ctx, initiateRequest())
			if got := apperrors.CategoryOf(err); got != tt.want {
				t.Fatalf("expected %s, got %s (%v)", tt.want, got, err)
			}
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected wrapped protocol error, got %v", err)
			}
		})
	}
}

func TestAssociationService_Approve_ConsumesMessage(t *testing.T) {
	ctx := context.Background()
	msgID := uuid.New()
	envelope := json.RawMessage(`{"version":1}`)
	controller := common.HexToAddress("0x3333333333333333333333333333333333333333")

	h := deliveredHandshake(t)
	h.State = handshake.StateFinalized
	h.OperationID = "0xop"

	orch := mocks.NewOrchestrator(t)
	orch.EXPECT().
		Approve(ctx, handshake.Approval{Envelope: envelope, Controller: controller, HandshakeID: h.ID}).
		Return(h, nil).
		Once()
	store := mocks.NewStore(t)
	store.EXPECT().GetMessage(ctx, msgID).Return(inboxMessage(msgID, h.ID, "did:agent:bob"), nil).Once()
	store.EXPECT().MarkConsumed(ctx, msgID).Return(nil).Once()

	svc := service.NewService(orch, store, zap.NewNop())

	resp, err := svc.Approve(ctx, &service.ApproveRequest{
		Envelope:   envelope,
		Controller: controller.Hex(),
		MessageID:  msgID.String(),
	})
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if resp.Handshake.OperationID != "0xop" {
		t.Fatalf("expected operation id 0xop, got %q", resp.Handshake.OperationID)
	}
}

func TestAssociationService_Approve_KeepsMessageOnTransientFailure(t *testing.T) {
	ctx := context.Background()
	h := deliveredHandshake(t)
	h.State = handshake.StateFailed

	orch := mocks.NewOrchestrator(t)
	orch.EXPECT().
		Approve(ctx, mock.Anything).
		Return(h, association.NewError(association.KindSigningExhausted, "declined", nil)).
		Once()

	msgID := uuid.New()
	store := mocks.NewStore(t)
	store.EXPECT().GetMessage(ctx, msgID).Return(inboxMessage(msgID, h.ID, "did:agent:bob"), nil).Once()
	// MarkConsumed is not expected
	svc := service.NewService(orch, store, zap.NewNop())

	_, err := svc.Approve(ctx, &service.ApproveRequest{
		Envelope:  json.RawMessage(`{}`),
		MessageID: msgID.String(),
	})
	if !apperrors.Is(err, apperrors.CategoryDependencyFailure) {
		t.Fatalf("expected CategoryDependencyFailure, got %v", err)
	}
}

func TestAssociationService_Approve_ConsumesMessageOnDigestMismatch(t *testing.T) {
	ctx := context.Background()
	msgID := uuid.New()
	h := deliveredHandshake(t)
	h.State = handshake.StateFailed

	orch := mocks.NewOrchestrator(t)
	orch.EXPECT().
		Approve(ctx, mock.Anything).
		Return(h, association.NewError(association.KindDigestMismatch, "tampered", nil)).
		Once()
	store := mocks.NewStore(t)
	store.EXPECT().GetMessage(ctx, msgID).Return(inboxMessage(msgID, h.ID, "did:agent:bob"), nil).Once()
	store.EXPECT().MarkConsumed(ctx, msgID).Return(associationstore.ErrMessageNotFound).Once()

	svc := service.NewService(orch, store, zap.NewNop())

	_, err := svc.Approve(ctx, &service.ApproveRequest{
		Envelope:  json.RawMessage(`{}`),
		MessageID: msgID.String(),
	})
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected CategoryDataError, got %v", err)
	}
}

func TestAssociationService_GetHandshake(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()

	store := mocks.NewStore(t)
	store.EXPECT().GetHandshake(ctx, id).Return(&handshake.Snapshot{ID: id, State: handshake.StateDelivered}, nil).Once()

	svc := service.NewService(mocks.NewOrchestrator(t), store, zap.NewNop())

	snap, err := svc.GetHandshake(ctx, id)
	if err != nil {
		t.Fatalf("GetHandshake failed: %v", err)
	}
	if snap.State != handshake.StateDelivered {
		t.Fatalf("expected delivered, got %s", snap.State)
	}
}

func TestAssociationService_GetHandshake_Errors(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()

	store := mocks.NewStore(t)
	store.EXPECT().GetHandshake(ctx, id).Return(nil, associationstore.ErrHandshakeNotFound).Once()

	svc := service.NewService(mocks.NewOrchestrator(t), store, zap.NewNop())

	if _, err := svc.GetHandshake(ctx, id); !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Fatalf("expected CategoryResourceNotFound, got %v", err)
	}
	if _, err := svc.GetHandshake(ctx, "not-a-uuid"); !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected CategoryDataError, got %v", err)
	}
}

func TestAssociationService_Inbox(t *testing.T) {
	ctx := context.Background()
	msg := handshake.Message{
		ID:           uuid.New(),
		HandshakeID:  uuid.New(),
		RecipientDID: "did:agent:bob",
		SenderDID:    "did:agent:alice",
		Payload:      []byte(`{"version":1}`),
	}

	store := mocks.NewStore(t)
	store.EXPECT().ListInbox(ctx, "did:agent:bob").Return([]handshake.Message{msg}, nil).Once()

	svc := service.NewService(mocks.NewOrchestrator(t), store, zap.NewNop())

	msgs, err := svc.Inbox(ctx, "did:agent:bob")
	if err != nil {
		t.Fatalf("Inbox failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != msg.ID.String() || string(msgs[0].Envelope) != `{"version":1}` {
		t.Fatalf("unexpected inbox: %+v", msgs)
	}

	if _, err := svc.Inbox(ctx, " "); !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected CategoryDataError for blank did, got %v", err)
	}
}

func TestAssociationService_TokenSubjectMustMatchAgent(t *testing.T) {
	ctx := auth.WithSubject(context.Background(), "did:agent:mallory")

	// no orchestrator or store calls are expected
	svc := service.NewService(mocks.NewOrchestrator(t), mocks.NewStore(t), zap.NewNop())

	if _, err := svc.Initiate(ctx, initiateRequest()); !apperrors.Is(err, apperrors.CategoryForbidden) {
		t.Fatalf("expected CategoryForbidden for initiate, got %v", err)
	}
	if _, err := svc.Inbox(ctx, "did:agent:bob"); !apperrors.Is(err, apperrors.CategoryForbidden) {
		t.Fatalf("expected CategoryForbidden for inbox, got %v", err)
	}
}

func TestAssociationService_Inbox_MatchingSubject(t *testing.T) {
	ctx := auth.WithSubject(context.Background(), "did:agent:bob")

	store := mocks.NewStore(t)
	store.EXPECT().ListInbox(ctx, "did:agent:bob").Return(nil, nil).Once()

	svc := service.NewService(mocks.NewOrchestrator(t), store, zap.NewNop())

	msgs, err := svc.Inbox(ctx, "did:agent:bob")
	if err != nil {
		t.Fatalf("Inbox failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty inbox, got %+v", msgs)
	}
}

func TestAssociationService_TokenAddressMustControlInitiator(t *testing.T) {
	controller := common.HexToAddress("0x3333333333333333333333333333333333333333")

	t.Run("foreign address forbidden", func(t *testing.T) {
		ctx := auth.WithEVMAddress(context.Background(), auth.NormalizeAddress(bob.Hex()))
		svc := service.NewService(mocks.NewOrchestrator(t), mocks.NewStore(t), zap.NewNop())

		if _, err := svc.Initiate(ctx, initiateRequest()); !apperrors.Is(err, apperrors.CategoryForbidden) {
			t.Fatalf("expected CategoryForbidden, got %v", err)
		}
	})

	t.Run("controller allowed", func(t *testing.T) {
		ctx := auth.WithEVMAddress(context.Background(), auth.NormalizeAddress(controller.Hex()))
		h := deliveredHandshake(t)

		orch := mocks.NewOrchestrator(t)
		orch.EXPECT().
			Initiate(ctx, mock.MatchedBy(func(req handshake.Request) bool {
				return req.Initiator.Controller == controller
			})).
			Return(h, nil).
			Once()
		svc := service.NewService(orch, mocks.NewStore(t), zap.NewNop())

		req := initiateRequest()
		req.Initiator.Controller = controller.Hex()
		if _, err := svc.Initiate(ctx, req); err != nil {
			t.Fatalf("Initiate failed: %v", err)
		}
	})
}

func TestAssociationService_Approve_RequiresApprover(t *testing.T) {
	controller := common.HexToAddress("0x3333333333333333333333333333333333333333")
	envelope := envelopeFor(t)

	tests := []struct {
		name       string
		ctx        context.Context
		controller string
	}{
		{
			name: "initiator subject",
			ctx:  auth.WithSubject(context.Background(), "did:agent:alice"),
		},
		{
			name: "approver subject with initiator address",
			ctx:  auth.WithEVMAddress(auth.WithSubject(context.Background(), "did:agent:bob"), auth.NormalizeAddress(alice.Hex())),
		},
		{
			name:       "initiator address posing as controller",
			ctx:        auth.WithEVMAddress(context.Background(), auth.NormalizeAddress(alice.Hex())),
			controller: controller.Hex(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the orchestrator must never be reached
			svc := service.NewService(mocks.NewOrchestrator(t), mocks.NewStore(t), zap.NewNop())

			_, err := svc.Approve(tt.ctx, &service.ApproveRequest{Envelope: envelope, Controller: tt.controller})
			if !apperrors.Is(err, apperrors.CategoryForbidden) {
				t.Fatalf("expected CategoryForbidden, got %v", err)
			}
		})
	}
}

func TestAssociationService_Approve_AllowsApproverAndController(t *testing.T) {
	controller := common.HexToAddress("0x3333333333333333333333333333333333333333")
	envelope := envelopeFor(t)
	h := deliveredHandshake(t)
	h.State = handshake.StateFinalized

	t.Run("approver account", func(t *testing.T) {
		ctx := auth.WithEVMAddress(auth.WithSubject(context.Background(), "did:agent:bob"), auth.NormalizeAddress(bob.Hex()))
		orch := mocks.NewOrchestrator(t)
		orch.EXPECT().Approve(ctx, handshake.Approval{Envelope: envelope}).Return(h, nil).Once()
		svc := service.NewService(orch, mocks.NewStore(t), zap.NewNop())

		if _, err := svc.Approve(ctx, &service.ApproveRequest{Envelope: envelope}); err != nil {
			t.Fatalf("Approve failed: %v", err)
		}
	})

	t.Run("approver controller", func(t *testing.T) {
		ctx := auth.WithEVMAddress(auth.WithSubject(context.Background(), "did:agent:bob"), auth.NormalizeAddress(controller.Hex()))
		orch := mocks.NewOrchestrator(t)
		orch.EXPECT().Approve(ctx, handshake.Approval{Envelope: envelope, Controller: controller}).Return(h, nil).Once()
		svc := service.NewService(orch, mocks.NewStore(t), zap.NewNop())

		if _, err := svc.Approve(ctx, &service.ApproveRequest{Envelope: envelope, Controller: controller.Hex()}); err != nil {
			t.Fatalf("Approve failed: %v", err)
		}
	})
}

func TestAssociationService_Approve_MessageMustBelongToApprover(t *testing.T) {
	envelope := envelopeFor(t)
	msgID := uuid.New()

	t.Run("subject is not the recipient", func(t *testing.T) {
		ctx := auth.WithSubject(context.Background(), "did:agent:alice")
		store := mocks.NewStore(t)
		store.EXPECT().GetMessage(ctx, msgID).Return(inboxMessage(msgID, uuid.New(), "did:agent:carol"), nil).Once()
		// neither the orchestrator nor MarkConsumed may be reached
		svc := service.NewService(mocks.NewOrchestrator(t), store, zap.NewNop())

		_, err := svc.Approve(ctx, &service.ApproveRequest{Envelope: envelope, MessageID: msgID.String()})
		if !apperrors.Is(err, apperrors.CategoryForbidden) {
			t.Fatalf("expected CategoryForbidden, got %v", err)
		}
	})

	t.Run("envelope for another recipient", func(t *testing.T) {
		ctx := context.Background()
		store := mocks.NewStore(t)
		store.EXPECT().GetMessage(ctx, msgID).Return(inboxMessage(msgID, uuid.New(), "did:agent:carol"), nil).Once()
		svc := service.NewService(mocks.NewOrchestrator(t), store, zap.NewNop())

		_, err := svc.Approve(ctx, &service.ApproveRequest{Envelope: envelope, MessageID: msgID.String()})
		if !apperrors.Is(err, apperrors.CategoryForbidden) {
			t.Fatalf("expected CategoryForbidden, got %v", err)
		}
	})

	t.Run("unknown message", func(t *testing.T) {
		ctx := context.Background()
		store := mocks.NewStore(t)
		store.EXPECT().GetMessage(ctx, msgID).Return(nil, associationstore.ErrMessageNotFound).Once()
		svc := service.NewService(mocks.NewOrchestrator(t), store, zap.NewNop())

		_, err := svc.Approve(ctx, &service.ApproveRequest{Envelope: envelope, MessageID: msgID.String()})
		if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
			t.Fatalf("expected CategoryResourceNotFound, got %v", err)
		}
	})
}
