package associationstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/chainsafe/agent-associations/pkg/handshake"
)

const (
	submissionPending  = "pending"
	submissionAccepted = "accepted"
)

// SubmissionDao is a data access object that maps directly to the 'association_submissions' table in PostgreSQL.
type SubmissionDao struct {
	bun.BaseModel `bun:"table:association_submissions,alias:s"`
	ID            int64     `bun:"id,pk,autoincrement"`
	SubmissionKey string    `bun:"submission_key,unique,notnull,type:varchar(66)"`
	ChainID       int64     `bun:"chain_id,notnull"`
	Mode          string    `bun:"mode,notnull,type:varchar(16)"`
	Status        string    `bun:"status,notnull,type:varchar(16)"`
	OperationID   *string   `bun:"operation_id,type:varchar(128)"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// HandshakeDao is a data access object that maps directly to the 'association_handshakes' table in PostgreSQL.
type HandshakeDao struct {
	bun.BaseModel     `bun:"table:association_handshakes,alias:h"`
	ID                string    `bun:"id,pk,type:uuid"`
	Role              string    `bun:"role,notnull,type:varchar(16)"`
	State             string    `bun:"state,notnull,type:varchar(32)"`
	Outcome           string    `bun:"outcome,notnull,type:varchar(32)"`
	ChainID           int64     `bun:"chain_id,notnull"`
	InitiatorDID      *string   `bun:"initiator_did,type:varchar(255)"`
	ApproverDID       *string   `bun:"approver_did,type:varchar(255)"`
	DeclaredInitiator *string   `bun:"declared_initiator,type:varchar(42)"`
	InitiatorAddress  *string   `bun:"initiator_address,type:varchar(42)"`
	ApproverAddress   *string   `bun:"approver_address,type:varchar(42)"`
	Digest            *string   `bun:"digest,type:varchar(66)"`
	AttemptedDigests  []string  `bun:"attempted_digests,type:jsonb"`
	InitiatorMethod   *string   `bun:"initiator_method,type:varchar(16)"`
	ApproverMethod    *string   `bun:"approver_method,type:varchar(16)"`
	OperationID       *string   `bun:"operation_id,type:varchar(128)"`
	FailureKind       *string   `bun:"failure_kind,type:varchar(64)"`
	FailureMessage    *string   `bun:"failure_message,type:text"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
	UpdatedAt         time.Time `bun:"updated_at,notnull"`
}

// InboxMessageDao is a data access object that maps directly to the 'association_inbox' table in PostgreSQL.
type InboxMessageDao struct {
	bun.BaseModel `bun:"table:association_inbox,alias:i"`
	ID            string     `bun:"id,pk,type:uuid"`
	HandshakeID   string     `bun:"handshake_id,notnull,type:uuid"`
	RecipientDID  string     `bun:"recipient_did,notnull,type:varchar(255)"`
	SenderDID     *string    `bun:"sender_did,type:varchar(255)"`
	Payload       string     `bun:"payload,notnull,type:text"`
	Consumed      bool       `bun:"consumed,notnull,default:false"`
	CreatedAt     time.Time  `bun:"created_at,notnull"`
	ConsumedAt    *time.Time `bun:"consumed_at"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// toHandshakeDao converts a handshake snapshot to HandshakeDao.
func toHandshakeDao(s handshake.Snapshot) *HandshakeDao {
	return &HandshakeDao{
		ID:                s.ID,
		Role:              string(s.Role),
		State:             string(s.State),
		Outcome:           string(s.Outcome),
		ChainID:           int64(s.ChainID),
		InitiatorDID:      optional(s.InitiatorDID),
		ApproverDID:       optional(s.ApproverDID),
		DeclaredInitiator: optional(s.DeclaredInitiator),
		InitiatorAddress:  optional(s.InitiatorAddress),
		ApproverAddress:   optional(s.ApproverAddress),
		Digest:            optional(s.Digest),
		AttemptedDigests:  s.AttemptedDigests,
		InitiatorMethod:   optional(s.InitiatorMethod),
		ApproverMethod:    optional(s.ApproverMethod),
		OperationID:       optional(s.OperationID),
		FailureKind:       optional(s.FailureKind),
		FailureMessage:    optional(s.FailureMessage),
		CreatedAt:         s.CreatedAt.UTC(),
		UpdatedAt:         s.UpdatedAt.UTC(),
	}
}

// toSnapshot converts a HandshakeDao to a handshake snapshot.
func toSnapshot(dao *HandshakeDao) *handshake.Snapshot {
	return &handshake.Snapshot{
		ID:                dao.ID,
		Role:              handshake.Role(dao.Role),
		State:             handshake.State(dao.State),
		Outcome:           handshake.Outcome(dao.Outcome),
		ChainID:           uint64(dao.ChainID),
		InitiatorDID:      deref(dao.InitiatorDID),
		ApproverDID:       deref(dao.ApproverDID),
		DeclaredInitiator: deref(dao.DeclaredInitiator),
		InitiatorAddress:  deref(dao.InitiatorAddress),
		ApproverAddress:   deref(dao.ApproverAddress),
		Digest:            deref(dao.Digest),
		AttemptedDigests:  dao.AttemptedDigests,
		InitiatorMethod:   deref(dao.InitiatorMethod),
		ApproverMethod:    deref(dao.ApproverMethod),
		OperationID:       deref(dao.OperationID),
		FailureKind:       deref(dao.FailureKind),
		FailureMessage:    deref(dao.FailureMessage),
		CreatedAt:         dao.CreatedAt,
		UpdatedAt:         dao.UpdatedAt,
	}
}

// toInboxDao converts a handshake message to InboxMessageDao.
func toInboxDao(msg handshake.Message) *InboxMessageDao {
	return &InboxMessageDao{
		ID:           msg.ID.String(),
		HandshakeID:  msg.HandshakeID.String(),
		RecipientDID: msg.RecipientDID,
		SenderDID:    optional(msg.SenderDID),
		Payload:      string(msg.Payload),
		CreatedAt:    msg.CreatedAt.UTC(),
	}
}

// toMessage converts an InboxMessageDao to a handshake message.
func toMessage(dao *InboxMessageDao) (handshake.Message, error) {
	id, err := uuid.Parse(dao.ID)
	if err != nil {
		return handshake.Message{}, err
	}
	handshakeID, err := uuid.Parse(dao.HandshakeID)
	if err != nil {
		return handshake.Message{}, err
	}
	return handshake.Message{
		ID:           id,
		HandshakeID:  handshakeID,
		RecipientDID: dao.RecipientDID,
		SenderDID:    deref(dao.SenderDID),
		Payload:      []byte(dao.Payload),
		CreatedAt:    dao.CreatedAt,
	}, nil
}
