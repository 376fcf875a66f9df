package finalizer

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/chainsafe/agent-associations/pkg/association"
)

// MockSubmitter is a mock implementation of Submitter
type MockSubmitter struct {
	SubmitFunc func(ctx context.Context, signed *association.SignedRecord) (string, error)

	calls int
}

func (m *MockSubmitter) Submit(ctx context.Context, signed *association.SignedRecord) (string, error) {
	m.calls++
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, signed)
	}
	return "0xop", nil
}

// MockTransactorSource is a mock implementation of TransactorSource
type MockTransactorSource struct {
	GetTransactorFunc func(ctx context.Context) (*bind.TransactOpts, error)
}

func (m *MockTransactorSource) GetTransactor(ctx context.Context) (*bind.TransactOpts, error) {
	if m.GetTransactorFunc != nil {
		return m.GetTransactorFunc(ctx)
	}
	return &bind.TransactOpts{Context: ctx}, nil
}

// MockContractTransactor is a mock implementation of ContractTransactor
type MockContractTransactor struct {
	TransactFunc func(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error)
}

func (m *MockContractTransactor) Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error) {
	if m.TransactFunc != nil {
		return m.TransactFunc(opts, method, params...)
	}
	return types.NewTx(&types.LegacyTx{Nonce: 1}), nil
}

// MockRelayChain is a mock implementation of RelayChain
type MockRelayChain struct {
	CallContractFunc     func(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SuggestGasPriceFunc  func(ctx context.Context) (*big.Int, error)
	SuggestGasTipCapFunc func(ctx context.Context) (*big.Int, error)
}

func (m *MockRelayChain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if m.CallContractFunc != nil {
		return m.CallContractFunc(ctx, msg, blockNumber)
	}
	return make([]byte, 32), nil
}

func (m *MockRelayChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if m.SuggestGasPriceFunc != nil {
		return m.SuggestGasPriceFunc(ctx)
	}
	return big.NewInt(2_000_000_000), nil
}

func (m *MockRelayChain) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	if m.SuggestGasTipCapFunc != nil {
		return m.SuggestGasTipCapFunc(ctx)
	}
	return big.NewInt(1_000_000_000), nil
}
