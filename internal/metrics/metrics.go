package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HandshakeTransitions counts handshake state transitions by target state
	HandshakeTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "association_handshakes_total",
			Help: "Total number of handshake state transitions",
		},
		[]string{"state"},
	)

	// HandshakeFailures counts failed handshakes by error kind
	HandshakeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "association_handshake_failures_total",
			Help: "Total number of failed handshakes",
		},
		[]string{"kind"},
	)

	// InitiatorSubstitutions counts contract initiators replaced by their controlling account
	InitiatorSubstitutions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "association_initiator_substitutions_total",
			Help: "Total number of contract initiators substituted by their controller",
		},
	)

	// SigningAttempts counts wallet signing attempts by method and result
	SigningAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "association_signing_attempts_total",
			Help: "Total number of wallet signing attempts",
		},
		[]string{"method", "result"},
	)

	// ContractVerifications counts ERC-1271 checks by result
	ContractVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "association_contract_verifications_total",
			Help: "Total number of contract signature verifications",
		},
		[]string{"result"},
	)

	// Submissions counts finalize submissions by mode and status
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "association_submissions_total",
			Help: "Total number of association submissions",
		},
		[]string{"mode", "status"},
	)

	// SubmissionDuration tracks time spent submitting an association
	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "association_submission_duration_seconds",
			Help:    "Association submission duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// InboxMessages counts envelope inbox events (delivered, consumed)
	InboxMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "association_inbox_messages_total",
			Help: "Total number of envelope inbox events",
		},
		[]string{"event"},
	)
)
