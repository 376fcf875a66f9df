package association

import (
	"errors"
	"fmt"
)

// Kind classifies protocol failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindWalletNotConnected
	KindSigningExhausted
	KindOnChainVerificationFailed
	KindDigestMismatch
	KindInvalidPayload
	KindSubmissionFailed
	// KindDeliveryFailed is raised when the messenger cannot hand an envelope to the approver.
	KindDeliveryFailed
)

func (k Kind) String() string {
	switch k {
	case KindWalletNotConnected:
		return "WalletNotConnected"
	case KindSigningExhausted:
		return "SigningExhausted"
	case KindOnChainVerificationFailed:
		return "OnChainVerificationFailed"
	case KindDigestMismatch:
		return "DigestMismatch"
	case KindInvalidPayload:
		return "InvalidPayload"
	case KindSubmissionFailed:
		return "SubmissionFailed"
	case KindDeliveryFailed:
		return "DeliveryFailed"
	default:
		return "Unknown"
	}
}

// Error is a protocol failure tagged with its Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns an *Error of the given kind.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
