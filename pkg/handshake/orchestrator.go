package handshake

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsafe/agent-associations/internal/metrics"
	"github.com/chainsafe/agent-associations/pkg/association"
	"github.com/chainsafe/agent-associations/pkg/finalizer"
	"github.com/chainsafe/agent-associations/pkg/signing"
)

// Signer obtains wallet signatures.
type Signer interface {
	Sign(ctx context.Context, req signing.Request) (signing.Result, error)
	Policy() signing.Policy
}

// ContractVerifier inspects accounts and validates contract signatures.
type ContractVerifier interface {
	IsContract(ctx context.Context, chainID uint64, addr common.Address) (bool, error)
	IsValid(ctx context.Context, chainID uint64, contract common.Address, digest common.Hash, sig []byte) bool
}

// Finalizer submits fully signed records.
type Finalizer interface {
	Finalize(ctx context.Context, signed *association.SignedRecord, mode finalizer.Mode) (string, error)
}

// Message is an envelope addressed to an approver.
type Message struct {
	ID           uuid.UUID
	HandshakeID  uuid.UUID
	RecipientDID string
	SenderDID    string
	Payload      []byte
	CreatedAt    time.Time
}

// Messenger carries envelopes to approvers.
type Messenger interface {
	Deliver(ctx context.Context, msg Message) error
}

// Recorder persists handshake snapshots after every transition.
type Recorder interface {
	Record(ctx context.Context, snap Snapshot) error
}

// Config is resolved once at startup and injected.
type Config struct {
	Domain association.Domain
	// Modes selects the submission mode per chain; DefaultMode applies otherwise.
	Modes       map[uint64]finalizer.Mode
	DefaultMode finalizer.Mode
	// PreferredMethod is the explicitly configured initiator signing method.
	// When set, failed submissions are not retried with another method.
	PreferredMethod association.SignatureMethod
}

func (c Config) mode(chainID uint64) finalizer.Mode {
	if m, ok := c.Modes[chainID]; ok {
		return m
	}
	if c.DefaultMode != "" {
		return c.DefaultMode
	}
	return finalizer.ModeDirect
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder sets the snapshot recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator runs handshakes. Each call runs to completion in the caller's
// goroutine; distinct handshakes may run concurrently.
type Orchestrator struct {
	cfg       Config
	signer    Signer
	verifier  ContractVerifier
	finalizer Finalizer
	messenger Messenger
	recorder  Recorder
	logger    *zap.Logger
	now       func() time.Time
}

// New creates an orchestrator.
func New(cfg Config, signer Signer, verifier ContractVerifier, fin Finalizer, messenger Messenger, opts ...Option) *Orchestrator {
	if cfg.Domain == (association.Domain{}) {
		cfg.Domain = association.DefaultDomain
	}
	o := &Orchestrator{
		cfg:       cfg,
		signer:    signer,
		verifier:  verifier,
		finalizer: fin,
		messenger: messenger,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) transition(ctx context.Context, h *Handshake, next State) {
	prev := h.State
	if err := h.moveTo(next, o.now()); err != nil {
		// transitions are fixed by the orchestrator; reaching this is a bug
		o.logger.Error("rejected handshake transition", zap.String("handshake_id", h.ID.String()), zap.Error(err))
		return
	}
	metrics.HandshakeTransitions.WithLabelValues(string(next)).Inc()
	o.logger.Info("handshake transition",
		zap.String("handshake_id", h.ID.String()),
		zap.String("role", string(h.Role)),
		zap.String("from", string(prev)),
		zap.String("to", string(next)))
	o.record(ctx, h)
}

func (o *Orchestrator) record(ctx context.Context, h *Handshake) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Record(ctx, h.Snapshot()); err != nil {
		o.logger.Warn("failed to record handshake snapshot",
			zap.String("handshake_id", h.ID.String()),
			zap.Error(err))
	}
}

// fail moves h to Failed and returns the tagged error.
func (o *Orchestrator) fail(ctx context.Context, h *Handshake, err error) error {
	var aerr *association.Error
	if !errors.As(err, &aerr) {
		aerr = association.NewError(association.KindUnknown, "handshake aborted", err)
	}
	h.Failure = aerr
	h.Outcome = OutcomeFailed
	metrics.HandshakeFailures.WithLabelValues(aerr.Kind.String()).Inc()
	o.logger.Warn("handshake failed",
		zap.String("handshake_id", h.ID.String()),
		zap.String("state", string(h.State)),
		zap.String("kind", aerr.Kind.String()),
		zap.Error(aerr))
	o.transition(ctx, h, StateFailed)
	return aerr
}

func (o *Orchestrator) succeed(ctx context.Context, h *Handshake, opID string) {
	h.OperationID = opID
	h.Outcome = OutcomeSucceededAsDeclared
	if h.Substituted() {
		h.Outcome = OutcomeSucceededAsSubstituted
	}
	o.transition(ctx, h, StateFinalized)
}

// submit finalizes h.Signed. When no preferred method is configured and the
// chain reverted the call, the approver side is re-signed once with a
// different method and submitted again. Other failures are returned as is.
func (o *Orchestrator) submit(ctx context.Context, h *Handshake, approverSigner common.Address) (string, error) {
	signed := h.Signed
	mode := o.cfg.mode(signed.ChainID)

	opID, err := o.finalizer.Finalize(ctx, signed, mode)
	if err == nil {
		return opID, nil
	}
	if o.cfg.PreferredMethod != "" || !errors.Is(err, finalizer.ErrCallReverted) {
		return "", err
	}

	used := h.ApproverMethod
	if used == "" {
		used = signed.Method
	}
	o.logger.Info("retrying submission with another signing method",
		zap.String("handshake_id", h.ID.String()),
		zap.String("excluded_method", string(used)),
		zap.Error(err))

	res, signErr := o.signer.Sign(ctx, signing.Request{
		Signer:    approverSigner,
		Digest:    signed.Digest,
		TypedData: association.TypedData(o.cfg.Domain, signed.Record),
		Exclude:   []association.SignatureMethod{used},
	})
	if signErr != nil {
		o.logger.Warn("re-signing for submission retry failed",
			zap.String("handshake_id", h.ID.String()),
			zap.Error(signErr))
		return "", err
	}
	if replaceErr := signed.ReplaceApproverSignature(res.Signature, res.Method); replaceErr != nil {
		return "", association.NewError(association.KindSubmissionFailed, "cannot replace approver signature", replaceErr)
	}
	h.ApproverMethod = res.Method

	return o.finalizer.Finalize(ctx, signed, mode)
}
