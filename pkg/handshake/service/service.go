package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/agent-associations/pkg/app/errors"
	"github.com/chainsafe/agent-associations/pkg/association"
	"github.com/chainsafe/agent-associations/pkg/associationstore"
	"github.com/chainsafe/agent-associations/pkg/auth"
	"github.com/chainsafe/agent-associations/pkg/finalizer"
	"github.com/chainsafe/agent-associations/pkg/handshake"
	"github.com/chainsafe/agent-associations/pkg/interop"
)

var (
	ErrInvalidAddress     = errors.New("invalid account address")
	ErrChainMismatch      = errors.New("interop address is for a different chain")
	ErrInvalidInterfaceID = errors.New("interface id must be 4 bytes")
)

// Orchestrator runs handshakes for the service.
//
//go:generate mockery --name Orchestrator --output mocks --outpkg mocks --filename mock_orchestrator.go --with-expecter
type Orchestrator interface {
	Initiate(ctx context.Context, req handshake.Request) (*handshake.Handshake, error)
	Approve(ctx context.Context, a handshake.Approval) (*handshake.Handshake, error)
}

// Store is the narrow data-access interface for the association service.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	GetHandshake(ctx context.Context, id string) (*handshake.Snapshot, error)
	ListInbox(ctx context.Context, recipientDID string) ([]handshake.Message, error)
	GetMessage(ctx context.Context, id uuid.UUID) (*handshake.Message, error)
	MarkConsumed(ctx context.Context, id uuid.UUID) error
}

// Service defines the interface for the association business logic
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	Initiate(ctx context.Context, req *InitiateRequest) (*HandshakeResponse, error)
	Approve(ctx context.Context, req *ApproveRequest) (*HandshakeResponse, error)
	GetHandshake(ctx context.Context, id string) (*handshake.Snapshot, error)
	Inbox(ctx context.Context, recipientDID string) ([]InboxMessage, error)
}

type associationService struct {
	orchestrator Orchestrator
	store        Store
	validate     *validator.Validate
	logger       *zap.Logger
}

// NewService creates a new association service
func NewService(orchestrator Orchestrator, store Store, logger *zap.Logger) Service {
	return &associationService{
		orchestrator: orchestrator,
		store:        store,
		validate:     validator.New(),
		logger:       logger,
	}
}

// Initiate drafts, signs and either finalizes (self-association) or delivers
// (two-party) an association.
func (s *associationService) Initiate(ctx context.Context, req *InitiateRequest) (*HandshakeResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.BadRequestError(err, "invalid request: "+err.Error())
	}

	if err := authorizeAgent(ctx, req.Initiator.DID); err != nil {
		return nil, err
	}

	initiator, err := toParty(req.ChainID, req.Initiator)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "invalid initiator: "+err.Error())
	}
	if err := authorizeAccount(ctx, initiator, "initiator"); err != nil {
		return nil, err
	}
	approver, err := toParty(req.ChainID, req.Approver)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "invalid approver: "+err.Error())
	}
	interfaceID, err := parseInterfaceID(req.InterfaceID)
	if err != nil {
		return nil, apperrors.BadRequestError(err, err.Error())
	}

	h, err := s.orchestrator.Initiate(ctx, handshake.Request{
		ChainID:     req.ChainID,
		Initiator:   initiator,
		Approver:    approver,
		AssocType:   association.AssocType(req.AssocType),
		Description: req.Description,
		ValidAt:     req.ValidAt,
		ValidUntil:  req.ValidUntil,
		InterfaceID: interfaceID,
	})
	if err != nil {
		return nil, toServiceError(err, h)
	}

	resp := &HandshakeResponse{Handshake: h.Snapshot()}
	if h.State == handshake.StateDelivered {
		env, err := association.NewEnvelope(h.Signed, h.Initiator.DID, h.Approver.DID).Marshal()
		if err != nil {
			return nil, fmt.Errorf("failed to encode envelope: %w", err)
		}
		resp.Envelope = env
	}
	return resp, nil
}

// Approve reviews, counter-signs and finalizes a delivered envelope. The
// caller must act as the envelope's approver, and a referenced inbox message
// must be addressed to that approver. The message is consumed once the
// envelope either finalized or can never succeed.
func (s *associationService) Approve(ctx context.Context, req *ApproveRequest) (*HandshakeResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.BadRequestError(err, "invalid request: "+err.Error())
	}

	approval := handshake.Approval{Envelope: req.Envelope}
	if req.Controller != "" {
		approval.Controller = common.HexToAddress(req.Controller)
	}

	var msg *handshake.Message
	if req.MessageID != "" {
		m, err := s.message(ctx, req.MessageID)
		if err != nil {
			return nil, err
		}
		msg = m
		approval.HandshakeID = m.HandshakeID
	}
	if err := authorizeApprover(ctx, req.Envelope, approval.Controller, msg); err != nil {
		return nil, err
	}

	h, err := s.orchestrator.Approve(ctx, approval)
	if msg != nil && (err == nil || permanent(err)) {
		s.consume(ctx, msg.ID)
	}
	if err != nil {
		return nil, toServiceError(err, h)
	}
	return &HandshakeResponse{Handshake: h.Snapshot()}, nil
}

func (s *associationService) message(ctx context.Context, messageID string) (*handshake.Message, error) {
	id, err := uuid.Parse(messageID)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "invalid message id")
	}
	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		if errors.Is(err, associationstore.ErrMessageNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "inbox message not found")
		}
		return nil, fmt.Errorf("failed to get inbox message: %w", err)
	}
	return msg, nil
}

func (s *associationService) GetHandshake(ctx context.Context, id string) (*handshake.Snapshot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.BadRequestError(err, "invalid handshake id")
	}

	snap, err := s.store.GetHandshake(ctx, id)
	if err != nil {
		if errors.Is(err, associationstore.ErrHandshakeNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "handshake not found")
		}
		return nil, fmt.Errorf("failed to get handshake: %w", err)
	}
	return snap, nil
}

func (s *associationService) Inbox(ctx context.Context, recipientDID string) ([]InboxMessage, error) {
	if strings.TrimSpace(recipientDID) == "" {
		return nil, apperrors.BadRequestError(nil, "recipient did required")
	}
	if err := authorizeAgent(ctx, recipientDID); err != nil {
		return nil, err
	}

	msgs, err := s.store.ListInbox(ctx, recipientDID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}

	out := make([]InboxMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, InboxMessage{
			ID:          m.ID.String(),
			HandshakeID: m.HandshakeID.String(),
			SenderDID:   m.SenderDID,
			Envelope:    m.Payload,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out, nil
}

// authorizeAgent rejects callers whose token subject names a different agent.
// Unauthenticated deployments carry no subject and are not restricted.
func authorizeAgent(ctx context.Context, did string) error {
	sub, ok := auth.SubjectFromContext(ctx)
	if !ok || sub == did {
		return nil
	}
	return apperrors.ForbiddenError(
		fmt.Errorf("token subject %s acting as %s", sub, did),
		"token subject does not match agent did",
	)
}

// authorizeAccount binds a token's evm_address claim to a party's account:
// it must be the account itself or its controller.
func authorizeAccount(ctx context.Context, p handshake.Party, role string) error {
	claim, ok := auth.EVMAddressFromContext(ctx)
	if !ok {
		return nil
	}
	addr := common.HexToAddress(claim)
	if addr == p.Address || (p.HasController() && addr == p.Controller) {
		return nil
	}
	return apperrors.ForbiddenError(
		fmt.Errorf("token address %s acting for %s %s", addr.Hex(), role, p.Address.Hex()),
		fmt.Sprintf("token address does not control %s account", role),
	)
}

// authorizeApprover binds the caller to the envelope's approver and the inbox
// message, when given, to the same recipient. An envelope that does not parse
// is left to the orchestrator, which fails it before any wallet is prompted.
func authorizeApprover(ctx context.Context, raw []byte, controller common.Address, msg *handshake.Message) error {
	if msg != nil {
		if err := authorizeAgent(ctx, msg.RecipientDID); err != nil {
			return err
		}
	}

	env, err := association.ParseEnvelope(raw)
	if err != nil {
		return nil
	}
	if msg != nil && msg.RecipientDID != env.ApproverDID {
		return apperrors.ForbiddenError(
			fmt.Errorf("message %s for %s carries an envelope for %s", msg.ID, msg.RecipientDID, env.ApproverDID),
			"envelope is not addressed to the message recipient",
		)
	}
	if err := authorizeAgent(ctx, env.ApproverDID); err != nil {
		return err
	}
	approver := handshake.Party{
		DID:        env.ApproverDID,
		Address:    common.HexToAddress(env.ApproverAddress),
		Controller: controller,
	}
	return authorizeAccount(ctx, approver, "approver")
}

func (s *associationService) consume(ctx context.Context, id uuid.UUID) {
	if err := s.store.MarkConsumed(ctx, id); err != nil && !errors.Is(err, associationstore.ErrMessageNotFound) {
		s.logger.Warn("failed to consume inbox message",
			zap.String("message_id", id.String()),
			zap.Error(err))
	}
}

// permanent reports whether retrying the same envelope can never succeed.
func permanent(err error) bool {
	switch association.KindOf(err) {
	case association.KindInvalidPayload, association.KindDigestMismatch, association.KindOnChainVerificationFailed:
		return true
	}
	return errors.Is(err, finalizer.ErrDuplicateSubmission)
}

// toParty resolves a party address given as plain hex or as an interop address.
func toParty(chainID uint64, p PartyRequest) (handshake.Party, error) {
	addr, err := parseAccount(chainID, p.Address)
	if err != nil {
		return handshake.Party{}, err
	}
	party := handshake.Party{DID: p.DID, Address: addr}
	if p.Controller != "" {
		party.Controller = common.HexToAddress(p.Controller)
	}
	return party, nil
}

func parseAccount(chainID uint64, s string) (common.Address, error) {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}

	raw, err := hexutil.Decode(s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %s", ErrInvalidAddress, s)
	}
	addr, err := interop.Decode(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if addr.ChainID != chainID {
		return common.Address{}, fmt.Errorf("%w: got %d, want %d", ErrChainMismatch, addr.ChainID, chainID)
	}
	return addr.Account, nil
}

func parseInterfaceID(s string) ([4]byte, error) {
	var id [4]byte
	if s == "" {
		return id, nil
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	raw, err := hexutil.Decode(s)
	if err != nil || len(raw) != len(id) {
		return id, ErrInvalidInterfaceID
	}
	copy(id[:], raw)
	return id, nil
}

// toServiceError maps protocol failures to service error categories. The
// handshake id is included so callers can fetch the recorded snapshot.
func toServiceError(err error, h *handshake.Handshake) error {
	var aerr *association.Error
	if !errors.As(err, &aerr) {
		return apperrors.GeneralError(err)
	}

	msg := fmt.Sprintf("%s: %s", aerr.Kind, aerr.Message)
	if h != nil {
		msg = fmt.Sprintf("%s (handshake %s)", msg, h.ID)
	}

	switch aerr.Kind {
	case association.KindInvalidPayload, association.KindDigestMismatch:
		return apperrors.BadRequestError(err, msg)
	case association.KindWalletNotConnected:
		return apperrors.UnAuthorizedError(err, msg)
	case association.KindOnChainVerificationFailed:
		return apperrors.ForbiddenError(err, msg)
	case association.KindSubmissionFailed:
		if errors.Is(err, finalizer.ErrDuplicateSubmission) {
			return apperrors.ConflictError(err, msg)
		}
		return apperrors.DependencyFailureError(err, msg)
	case association.KindSigningExhausted, association.KindDeliveryFailed:
		return apperrors.DependencyFailureError(err, msg)
	default:
		return apperrors.GeneralError(err)
	}
}
