package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/agent-associations/pkg/handshake"
)

const serviceName = "AssociationService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the association Service.
// It logs method entry/exit, duration and errors.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

// Initiate wraps the service method with logging
func (ls *logService) Initiate(ctx context.Context, req *InitiateRequest) (resp *HandshakeResponse, err error) {
	start := time.Now()

	ls.logger.Info("Initiate started",
		zap.String("service", serviceName),
		zap.String("method", "Initiate"),
		zap.Uint64("chain_id", req.ChainID),
		zap.String("initiator_did", req.Initiator.DID),
		zap.String("approver_did", req.Approver.DID),
		zap.Uint8("assoc_type", req.AssocType),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("Initiate failed",
				zap.String("service", serviceName),
				zap.String("method", "Initiate"),
				zap.Uint64("chain_id", req.ChainID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Initiate completed",
				zap.String("service", serviceName),
				zap.String("method", "Initiate"),
				zap.String("handshake_id", resp.Handshake.ID),
				zap.String("state", string(resp.Handshake.State)),
				zap.String("outcome", string(resp.Handshake.Outcome)),
				zap.String("digest", resp.Handshake.Digest),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.Initiate(ctx, req)
}

// Approve wraps the service method with logging
func (ls *logService) Approve(ctx context.Context, req *ApproveRequest) (resp *HandshakeResponse, err error) {
	start := time.Now()

	ls.logger.Info("Approve started",
		zap.String("service", serviceName),
		zap.String("method", "Approve"),
		zap.String("message_id", req.MessageID),
		zap.Int("envelope_size", len(req.Envelope)),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("Approve failed",
				zap.String("service", serviceName),
				zap.String("method", "Approve"),
				zap.String("message_id", req.MessageID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Approve completed",
				zap.String("service", serviceName),
				zap.String("method", "Approve"),
				zap.String("handshake_id", resp.Handshake.ID),
				zap.String("outcome", string(resp.Handshake.Outcome)),
				zap.String("operation_id", resp.Handshake.OperationID),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.Approve(ctx, req)
}

func (ls *logService) GetHandshake(ctx context.Context, id string) (snap *handshake.Snapshot, err error) {
	defer func() {
		if err != nil {
			ls.logger.Debug("GetHandshake failed",
				zap.String("service", serviceName),
				zap.String("handshake_id", id),
				zap.Error(err),
			)
		}
	}()
	return ls.svc.GetHandshake(ctx, id)
}

func (ls *logService) Inbox(ctx context.Context, recipientDID string) (msgs []InboxMessage, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.logger.Error("Inbox failed",
				zap.String("service", serviceName),
				zap.String("recipient_did", recipientDID),
				zap.Error(err),
			)
			return
		}
		ls.logger.Debug("Inbox completed",
			zap.String("service", serviceName),
			zap.String("recipient_did", recipientDID),
			zap.Int("messages", len(msgs)),
			zap.Duration("duration", time.Since(start)),
		)
	}()
	return ls.svc.Inbox(ctx, recipientDID)
}
