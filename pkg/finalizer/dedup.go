package finalizer

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/chainsafe/agent-associations/pkg/association"
)

// Ledger tracks submission keys. Reserve fails with ErrDuplicateSubmission
// when the key is pending or accepted.
type Ledger interface {
	Reserve(ctx context.Context, key common.Hash, chainID uint64, mode Mode) error
	Accept(ctx context.Context, key common.Hash, operationID string) error
	Release(ctx context.Context, key common.Hash) error
}

// Deduplicating rejects repeat finalize calls with byte-identical arguments.
type Deduplicating struct {
	next   Finalizer
	ledger Ledger
	logger *zap.Logger
}

// NewDeduplicating wraps next with ledger-backed duplicate detection.
func NewDeduplicating(next Finalizer, ledger Ledger, logger *zap.Logger) *Deduplicating {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduplicating{next: next, ledger: ledger, logger: logger}
}

// Finalize reserves the submission key, submits, and records the outcome.
// A failed submission releases the key so a corrected retry can proceed.
func (d *Deduplicating) Finalize(ctx context.Context, signed *association.SignedRecord, mode Mode) (string, error) {
	key := SubmissionKey(signed)

	if err := d.ledger.Reserve(ctx, key, signed.ChainID, mode); err != nil {
		if errors.Is(err, ErrDuplicateSubmission) {
			d.logger.Info("duplicate association submission rejected",
				zap.String("submission_key", key.Hex()),
				zap.String("digest", signed.Digest.Hex()))
			return "", association.NewError(association.KindSubmissionFailed, "duplicate submission", err)
		}
		return "", association.NewError(association.KindSubmissionFailed, "failed to reserve submission", err)
	}

	opID, err := d.next.Finalize(ctx, signed, mode)
	if err != nil {
		if relErr := d.ledger.Release(ctx, key); relErr != nil {
			d.logger.Error("failed to release submission key",
				zap.String("submission_key", key.Hex()),
				zap.Error(relErr))
		}
		return "", err
	}

	if err := d.ledger.Accept(ctx, key, opID); err != nil {
		// the record is on its way; a lost ledger update must not hide the id
		d.logger.Error("failed to record accepted submission",
			zap.String("submission_key", key.Hex()),
			zap.String("operation_id", opID),
			zap.Error(err))
	}
	return opID, nil
}

// MemoryLedger is an in-process Ledger.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[common.Hash]string
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[common.Hash]string)}
}

func (l *MemoryLedger) Reserve(_ context.Context, key common.Hash, _ uint64, _ Mode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[key]; ok {
		return ErrDuplicateSubmission
	}
	l.entries[key] = ""
	return nil
}

func (l *MemoryLedger) Accept(_ context.Context, key common.Hash, operationID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = operationID
	return nil
}

func (l *MemoryLedger) Release(_ context.Context, key common.Hash) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
	return nil
}
