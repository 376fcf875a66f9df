package associationstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/chainsafe/agent-associations/internal/metrics"
	"github.com/chainsafe/agent-associations/pkg/finalizer"
	"github.com/chainsafe/agent-associations/pkg/handshake"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the association store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

// Reserve claims a submission key. A key that is pending or accepted cannot be
// reserved again.
func (s *pgStore) Reserve(ctx context.Context, key common.Hash, chainID uint64, mode finalizer.Mode) error {
	dao := &SubmissionDao{
		SubmissionKey: key.Hex(),
		ChainID:       int64(chainID),
		Mode:          string(mode),
		Status:        submissionPending,
	}

	res, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (submission_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to reserve submission: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to reserve submission: %w", err)
	}
	if rows == 0 {
		return finalizer.ErrDuplicateSubmission
	}
	return nil
}

func (s *pgStore) Accept(ctx context.Context, key common.Hash, operationID string) error {
	_, err := s.db.NewUpdate().
		Model((*SubmissionDao)(nil)).
		Set("status = ?", submissionAccepted).
		Set("operation_id = ?", operationID).
		Set("updated_at = NOW()").
		Where("submission_key = ?", key.Hex()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to accept submission: %w", err)
	}
	return nil
}

// Release frees a pending key so the same signatures can be submitted again.
func (s *pgStore) Release(ctx context.Context, key common.Hash) error {
	_, err := s.db.NewDelete().
		Model((*SubmissionDao)(nil)).
		Where("submission_key = ?", key.Hex()).
		Where("status = ?", submissionPending).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to release submission: %w", err)
	}
	return nil
}

// GetSubmission returns the ledger row for key.
func (s *pgStore) GetSubmission(ctx context.Context, key common.Hash) (*SubmissionDao, error) {
	dao := new(SubmissionDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("submission_key = ?", key.Hex()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return dao, nil
}

// Record upserts the latest snapshot of a handshake.
func (s *pgStore) Record(ctx context.Context, snap handshake.Snapshot) error {
	dao := toHandshakeDao(snap)

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (id) DO UPDATE").
		Set("state = EXCLUDED.state").
		Set("outcome = EXCLUDED.outcome").
		Set("chain_id = EXCLUDED.chain_id").
		Set("initiator_did = EXCLUDED.initiator_did").
		Set("approver_did = EXCLUDED.approver_did").
		Set("declared_initiator = EXCLUDED.declared_initiator").
		Set("initiator_address = EXCLUDED.initiator_address").
		Set("approver_address = EXCLUDED.approver_address").
		Set("digest = EXCLUDED.digest").
		Set("attempted_digests = EXCLUDED.attempted_digests").
		Set("initiator_method = EXCLUDED.initiator_method").
		Set("approver_method = EXCLUDED.approver_method").
		Set("operation_id = EXCLUDED.operation_id").
		Set("failure_kind = EXCLUDED.failure_kind").
		Set("failure_message = EXCLUDED.failure_message").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record handshake %s: %w", snap.ID, err)
	}
	return nil
}

func (s *pgStore) GetHandshake(ctx context.Context, id string) (*handshake.Snapshot, error) {
	dao := new(HandshakeDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHandshakeNotFound
		}
		return nil, fmt.Errorf("failed to get handshake: %w", err)
	}
	return toSnapshot(dao), nil
}

// Deliver stores an envelope in the recipient's inbox.
func (s *pgStore) Deliver(ctx context.Context, msg handshake.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err := s.db.NewInsert().
		Model(toInboxDao(msg)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to deliver message: %w", err)
	}
	metrics.InboxMessages.WithLabelValues("delivered").Inc()
	return nil
}

// ListInbox returns the unconsumed messages for a recipient, oldest first.
func (s *pgStore) ListInbox(ctx context.Context, recipientDID string) ([]handshake.Message, error) {
	var daos []InboxMessageDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("recipient_did = ?", recipientDID).
		Where("consumed = FALSE").
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}

	msgs := make([]handshake.Message, 0, len(daos))
	for i := range daos {
		msg, err := toMessage(&daos[i])
		if err != nil {
			return nil, fmt.Errorf("failed to decode inbox message %s: %w", daos[i].ID, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// GetMessage returns an unconsumed inbox message.
func (s *pgStore) GetMessage(ctx context.Context, id uuid.UUID) (*handshake.Message, error) {
	dao := new(InboxMessageDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id.String()).
		Where("consumed = FALSE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get inbox message: %w", err)
	}
	msg, err := toMessage(dao)
	if err != nil {
		return nil, fmt.Errorf("failed to decode inbox message %s: %w", dao.ID, err)
	}
	return &msg, nil
}

func (s *pgStore) MarkConsumed(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.NewUpdate().
		Model((*InboxMessageDao)(nil)).
		Set("consumed = TRUE").
		Set("consumed_at = NOW()").
		Where("id = ?", id.String()).
		Where("consumed = FALSE").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark message consumed: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark message consumed: %w", err)
	}
	if rows == 0 {
		return ErrMessageNotFound
	}
	metrics.InboxMessages.WithLabelValues("consumed").Inc()
	return nil
}
