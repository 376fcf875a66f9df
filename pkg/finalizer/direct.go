package finalizer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/chainsafe/agent-associations/pkg/association"
)

// TransactorSource provides signing options for the submitter account.
type TransactorSource interface {
	GetTransactor(ctx context.Context) (*bind.TransactOpts, error)
}

// ContractTransactor sends a method call to a bound contract.
type ContractTransactor interface {
	Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error)
}

// DirectSubmitter calls storeAssociation from an externally-owned key.
type DirectSubmitter struct {
	chain TransactorSource
	store ContractTransactor
}

// NewDirectSubmitter creates a submitter sending through store with keys from chain.
func NewDirectSubmitter(chain TransactorSource, store ContractTransactor) *DirectSubmitter {
	return &DirectSubmitter{chain: chain, store: store}
}

// Submit sends the transaction and returns its hash.
func (s *DirectSubmitter) Submit(ctx context.Context, signed *association.SignedRecord) (string, error) {
	opts, err := s.chain.GetTransactor(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get transactor: %w", err)
	}

	tx, err := s.store.Transact(opts, "storeAssociation", storeArguments(signed)...)
	if err != nil {
		return "", fmt.Errorf("failed to send storeAssociation: %w", markReverted(err))
	}
	return tx.Hash().Hex(), nil
}
