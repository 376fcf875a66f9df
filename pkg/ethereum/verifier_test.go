package ethereum

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/chainsafe/agent-associations/pkg/ethereum/contracts"
)

// MockChainReader is a func-field ChainReader
type MockChainReader struct {
	CodeAtFunc       func(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContractFunc func(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)

	calls int
}

func (m *MockChainReader) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	if m.CodeAtFunc != nil {
		return m.CodeAtFunc(ctx, account, blockNumber)
	}
	return nil, nil
}

func (m *MockChainReader) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	m.calls++
	if m.CallContractFunc != nil {
		return m.CallContractFunc(ctx, msg, blockNumber)
	}
	return nil, nil
}

const sepolia = 11155111

var (
	account = common.HexToAddress("0x4444444444444444444444444444444444444444")
	digest  = common.HexToHash("0x9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08")
	sig     = bytes.Repeat([]byte{0x42}, 65)
)

func withCode(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func returnWord(prefix []byte) func(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return func(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
		out := make([]byte, 32)
		copy(out, prefix)
		return out, nil
	}
}

func newVerifier(reader ChainReader) *Verifier {
	reg := NewRegistry()
	reg.Register(sepolia, reader)
	return NewVerifier(reg, zap.NewNop())
}

func TestVerifier_ValidSignature(t *testing.T) {
	var gotMsg ethereum.CallMsg
	reader := &MockChainReader{
		CodeAtFunc: withCode,
		CallContractFunc: func(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
			gotMsg = msg
			return returnWord(contracts.ERC1271MagicValue[:])(context.Background(), msg, nil)
		},
	}

	if !newVerifier(reader).IsValid(context.Background(), sepolia, account, digest, sig) {
		t.Fatal("expected magic value to validate")
	}

	if gotMsg.To == nil || *gotMsg.To != account {
		t.Fatalf("call must target the account, got %v", gotMsg.To)
	}
	if !bytes.Equal(gotMsg.Data[:4], contracts.ERC1271MagicValue[:]) {
		t.Fatalf("expected isValidSignature selector, got %x", gotMsg.Data[:4])
	}
	parsed := contracts.MustParse(contracts.ERC1271MetaData)
	args, err := parsed.Methods["isValidSignature"].Inputs.Unpack(gotMsg.Data[4:])
	if err != nil {
		t.Fatalf("unpack call data: %v", err)
	}
	if args[0].([32]byte) != [32]byte(digest) || !bytes.Equal(args[1].([]byte), sig) {
		t.Fatal("call data does not carry the digest and signature")
	}
}

func TestVerifier_FalseOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		reader    *MockChainReader
		chainID   uint64
		wantCalls int
	}{
		{
			name:      "no code",
			reader:    &MockChainReader{},
			chainID:   sepolia,
			wantCalls: 0,
		},
		{
			name:      "wrong magic",
			reader:    &MockChainReader{CodeAtFunc: withCode, CallContractFunc: returnWord([]byte{0xff, 0xff, 0xff, 0xff})},
			chainID:   sepolia,
			wantCalls: 1,
		},
		{
			name: "revert",
			reader: &MockChainReader{CodeAtFunc: withCode, CallContractFunc: func(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
				return nil, errors.New("execution reverted")
			}},
			chainID:   sepolia,
			wantCalls: 1,
		},
		{
			name: "malformed return",
			reader: &MockChainReader{CodeAtFunc: withCode, CallContractFunc: func(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
				return []byte{0x16, 0x26}, nil
			}},
			chainID:   sepolia,
			wantCalls: 1,
		},
		{
			name: "code lookup fails",
			reader: &MockChainReader{CodeAtFunc: func(context.Context, common.Address, *big.Int) ([]byte, error) {
				return nil, errors.New("rpc down")
			}},
			chainID:   sepolia,
			wantCalls: 0,
		},
		{
			name:      "unknown chain",
			reader:    &MockChainReader{CodeAtFunc: withCode, CallContractFunc: returnWord(contracts.ERC1271MagicValue[:])},
			chainID:   1,
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if newVerifier(tt.reader).IsValid(context.Background(), tt.chainID, account, digest, sig) {
				t.Fatal("expected false")
			}
			if tt.reader.calls != tt.wantCalls {
				t.Fatalf("expected %d contract calls, got %d", tt.wantCalls, tt.reader.calls)
			}
		})
	}
}

func TestVerifier_IsContract(t *testing.T) {
	v := newVerifier(&MockChainReader{CodeAtFunc: withCode})
	ok, err := v.IsContract(context.Background(), sepolia, account)
	if err != nil || !ok {
		t.Fatalf("expected contract, got %v, %v", ok, err)
	}

	if _, err := v.IsContract(context.Background(), 1, account); !errors.Is(err, ErrUnknownChain) {
		t.Fatalf("expected ErrUnknownChain, got %v", err)
	}
}
