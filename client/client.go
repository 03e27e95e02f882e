package client

import (
	"context"
	"crypto/ecdsa"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"math/big"
	"time"
)

// Backend is the part of a node connection the client needs. *ethclient.Client
// and the simulated backend's client both satisfy it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// ErrReadOnly is returned when sending from a client built without a key.
var ErrReadOnly = errors.New("client has no sender key")

type Config struct {
	// ChainID is asked from the node when nil or zero.
	ChainID *big.Int

	// GasPrice is suggested by the node when nil or zero.
	GasPrice *big.Int

	GasLimit       uint64
	ReceiptTimeout time.Duration
}

// Client sends transactions from a single sender account. Nonces are fetched
// from the node for every transaction, so callers must not send concurrently.
type Client struct {
	backend        Backend
	key            *ecdsa.PrivateKey
	address        common.Address
	chainID        *big.Int
	gasLimit       uint64
	gasPrice       *big.Int
	receiptTimeout time.Duration
}

func Dial(ctx context.Context, rpcURL string, key *ecdsa.PrivateKey, cfg Config) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to connect to node")
	}

	c, err := NewClient(ctx, eth, key, cfg)
	if err != nil {
		eth.Close()
		return nil, err
	}

	return c, nil
}

// NewClient wraps an existing backend. key may be nil for a read-only client.
func NewClient(ctx context.Context, backend Backend, key *ecdsa.PrivateKey, cfg Config) (*Client, error) {
	chainID := cfg.ChainID
	if chainID == nil || chainID.Sign() == 0 {
		id, err := backend.ChainID(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to get chain id")
		}
		chainID = id
	}

	var gasPrice *big.Int
	if cfg.GasPrice != nil && cfg.GasPrice.Sign() > 0 {
		gasPrice = new(big.Int).Set(cfg.GasPrice)
	}

	c := &Client{
		backend:        backend,
		key:            key,
		chainID:        chainID,
		gasLimit:       cfg.GasLimit,
		gasPrice:       gasPrice,
		receiptTimeout: cfg.ReceiptTimeout,
	}
	if key != nil {
		c.address = crypto.PubkeyToAddress(key.PublicKey)
	}

	return c, nil
}

func (c *Client) GetAddress() common.Address {
	return c.address
}

func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// GetBalance returns the sender's native balance in wei.
func (c *Client) GetBalance(ctx context.Context) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, c.address, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get sender balance")
	}
	return balance, nil
}

func (c *Client) Close() {
	if closer, ok := c.backend.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (c *Client) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.key == nil {
		return nil, ErrReadOnly
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create transactor")
	}

	opts.Context = ctx
	opts.GasLimit = c.gasLimit
	if c.gasPrice != nil {
		opts.GasPrice = new(big.Int).Set(c.gasPrice)
	}

	return opts, nil
}
