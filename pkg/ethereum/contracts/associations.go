// Package contracts holds the ABIs of the on-chain contracts the association
// server talks to.
package contracts

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// AssociationStoreMetaData describes the association store entry point.
var AssociationStoreMetaData = &bind.MetaData{
	ABI: `[{"inputs":[{"internalType":"address","name":"initiator","type":"address"},{"internalType":"address","name":"approver","type":"address"},{"internalType":"uint8","name":"assocType","type":"uint8"},{"internalType":"string","name":"description","type":"string"},{"internalType":"uint40","name":"validAt","type":"uint40"},{"internalType":"bytes","name":"data","type":"bytes"},{"internalType":"bytes","name":"initiatorSignature","type":"bytes"},{"internalType":"bytes","name":"approverSignature","type":"bytes"}],"name":"storeAssociation","outputs":[{"internalType":"bytes32","name":"associationId","type":"bytes32"}],"stateMutability":"nonpayable","type":"function"}]`,
}

// ERC1271MetaData describes the contract signature validation entry point.
var ERC1271MetaData = &bind.MetaData{
	ABI: `[{"inputs":[{"internalType":"bytes32","name":"hash","type":"bytes32"},{"internalType":"bytes","name":"signature","type":"bytes"}],"name":"isValidSignature","outputs":[{"internalType":"bytes4","name":"magicValue","type":"bytes4"}],"stateMutability":"view","type":"function"}]`,
}

// SmartAccountMetaData describes the execute entry point of an ERC-4337 account.
var SmartAccountMetaData = &bind.MetaData{
	ABI: `[{"inputs":[{"internalType":"address","name":"dest","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"bytes","name":"func","type":"bytes"}],"name":"execute","outputs":[],"stateMutability":"nonpayable","type":"function"}]`,
}

// EntryPointMetaData describes the ERC-4337 v0.6 EntryPoint nonce query.
var EntryPointMetaData = &bind.MetaData{
	ABI: `[{"inputs":[{"internalType":"address","name":"sender","type":"address"},{"internalType":"uint192","name":"key","type":"uint192"}],"name":"getNonce","outputs":[{"internalType":"uint256","name":"nonce","type":"uint256"}],"stateMutability":"view","type":"function"}]`,
}

// ERC1271MagicValue is returned by isValidSignature for a valid signature.
var ERC1271MagicValue = [4]byte{0x16, 0x26, 0xba, 0x7e}

// NewAssociationStore binds the association store at address.
func NewAssociationStore(address common.Address, backend bind.ContractBackend) (*bind.BoundContract, error) {
	parsed, err := AssociationStoreMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, *parsed, backend, backend, backend), nil
}

// MustParse returns the parsed ABI of meta and panics on malformed JSON.
func MustParse(meta *bind.MetaData) abi.ABI {
	parsed, err := meta.GetAbi()
	if err != nil {
		panic(err)
	}
	return *parsed
}
