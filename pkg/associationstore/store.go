// Package associationstore persists submissions, handshake snapshots and
// delivered envelopes in PostgreSQL.
package associationstore

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/chainsafe/agent-associations/pkg/finalizer"
	"github.com/chainsafe/agent-associations/pkg/handshake"
)

var (
	// ErrHandshakeNotFound is returned when no snapshot exists for an id.
	ErrHandshakeNotFound = errors.New("handshake not found")
	// ErrMessageNotFound is returned when an inbox message does not exist or was consumed.
	ErrMessageNotFound = errors.New("inbox message not found")
)

// Store defines the persistence used by the association server
type Store interface {
	finalizer.Ledger
	handshake.Recorder
	handshake.Messenger
	GetHandshake(ctx context.Context, id string) (*handshake.Snapshot, error)
	ListInbox(ctx context.Context, recipientDID string) ([]handshake.Message, error)
	GetMessage(ctx context.Context, id uuid.UUID) (*handshake.Message, error)
	MarkConsumed(ctx context.Context, id uuid.UUID) error
}
