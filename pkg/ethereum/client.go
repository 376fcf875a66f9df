package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/chainsafe/agent-associations/pkg/config"
	"github.com/chainsafe/agent-associations/pkg/ethereum/contracts"
)

// ErrNoSubmitterKey is returned by GetTransactor on read-only clients.
var ErrNoSubmitterKey = errors.New("no submitter key configured")

// Client is a connection to one chain plus, optionally, the key used for
// direct submissions on it.
type Client struct {
	config     config.ChainConfig
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
	logger     *zap.Logger

	storeAddress common.Address
}

// NewClient dials the chain RPC. privateKey may be nil for chains that only
// verify signatures or submit through a relay.
func NewClient(ctx context.Context, cfg config.ChainConfig, privateKey *ecdsa.PrivateKey, logger *zap.Logger) (*Client, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain %d RPC: %w", cfg.ChainID, err)
	}

	remoteID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to query chain id: %w", err)
	}
	if !remoteID.IsUint64() || remoteID.Uint64() != cfg.ChainID {
		client.Close()
		return nil, fmt.Errorf("rpc %s serves chain %s, expected %d", cfg.RPCURL, remoteID, cfg.ChainID)
	}

	c := &Client{
		config:       cfg,
		client:       client,
		privateKey:   privateKey,
		logger:       logger,
		storeAddress: common.HexToAddress(cfg.AssociationStore),
	}
	if privateKey != nil {
		c.address = crypto.PubkeyToAddress(privateKey.PublicKey)
	}

	logger.Info("Connected to chain",
		zap.Uint64("chain_id", cfg.ChainID),
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("association_store", c.storeAddress.Hex()))

	return c, nil
}

// Close closes the RPC connection
func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// ChainID returns the configured chain id
func (c *Client) ChainID() uint64 {
	return c.config.ChainID
}

// Backend exposes the underlying ethclient for contract reads and bindings
func (c *Client) Backend() *ethclient.Client {
	return c.client
}

// SubmitterAddress returns the account direct submissions are sent from
func (c *Client) SubmitterAddress() common.Address {
	return c.address
}

// AssociationStore binds the configured association store contract
func (c *Client) AssociationStore() (*bind.BoundContract, error) {
	store, err := contracts.NewAssociationStore(c.storeAddress, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to load association store: %w", err)
	}
	return store, nil
}

// GetTransactor returns a transaction signer
func (c *Client) GetTransactor(ctx context.Context) (*bind.TransactOpts, error) {
	if c.privateKey == nil {
		return nil, ErrNoSubmitterKey
	}

	auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, new(big.Int).SetUint64(c.config.ChainID))
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx

	nonce, err := c.client.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	auth.Nonce = new(big.Int).SetUint64(nonce)
	auth.GasLimit = c.config.GasLimit

	if c.config.MaxGasPrice != "" {
		maxGasPrice, ok := new(big.Int).SetString(c.config.MaxGasPrice, 10)
		if !ok {
			return nil, fmt.Errorf("invalid max gas price %q", c.config.MaxGasPrice)
		}

		gasPrice, err := c.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to suggest gas price: %w", err)
		}

		if gasPrice.Cmp(maxGasPrice) > 0 {
			c.logger.Warn("Suggested gas price exceeds maximum",
				zap.Uint64("chain_id", c.config.ChainID),
				zap.String("suggested", gasPrice.String()),
				zap.String("max", maxGasPrice.String()))
			auth.GasPrice = maxGasPrice
		} else {
			auth.GasPrice = gasPrice
		}
	}

	return auth, nil
}

// GetLatestBlockNumber gets the latest block number
func (c *Client) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return header.Number.Uint64(), nil
}
