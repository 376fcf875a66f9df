package auth

import (
	"context"
)

type contextKey string

const (
	// ContextKeySubject is the context key for the authenticated token subject
	ContextKeySubject contextKey = "subject"
	// ContextKeyEVMAddress is the context key for the caller's EVM address claim
	ContextKeyEVMAddress contextKey = "evm_address"
)

// WithSubject adds the token subject to the context
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ContextKeySubject, subject)
}

// SubjectFromContext retrieves the token subject from the context
func SubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(ContextKeySubject).(string)
	return sub, ok
}

// WithEVMAddress adds the EVM address to the context
func WithEVMAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, ContextKeyEVMAddress, address)
}

// EVMAddressFromContext retrieves the EVM address from the context
func EVMAddressFromContext(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(ContextKeyEVMAddress).(string)
	return addr, ok
}
