package client

import (
	"context"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"math/big"
	"strings"
)

// TokenABI covers the allocation entry point plus the mintable, pausable
// ERC20 surface of the deployed token.
const TokenABI = `[
	{"type":"function","name":"batch","stateMutability":"nonpayable","inputs":[{"name":"_to","type":"address[]"},{"name":"_value","type":"uint256[]"}],"outputs":[]},
	{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"_to","type":"address"},{"name":"_amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"_owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"_from","type":"address"},{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"pause","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"unpause","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"paused","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
	{"type":"event","name":"Approval","anonymous":false,"inputs":[{"name":"owner","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

var (
	ErrInvalidContractAddress = errors.New("invalid contract address")
	ErrNoContractCode         = errors.New("no contract code at address")
)

var tokenABI = mustParseABI(TokenABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Token is a handle to a deployed token contract. Transactions are sent from
// the owning client's account and block until mined.
type Token struct {
	address  common.Address
	contract *bind.BoundContract
	client   *Client
}

// Token resolves the deployed contract at address, failing if nothing is
// deployed there.
func (c *Client) Token(ctx context.Context, address string) (*Token, error) {
	if !common.IsHexAddress(address) {
		return nil, errors.Wrapf(ErrInvalidContractAddress, "%q", address)
	}
	addr := common.HexToAddress(address)

	code, err := c.backend.CodeAt(ctx, addr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get contract code")
	}
	if len(code) == 0 {
		return nil, errors.Wrapf(ErrNoContractCode, "%s", addr.Hex())
	}

	return &Token{
		address:  addr,
		contract: bind.NewBoundContract(addr, tokenABI, c.backend, c.backend, c.backend),
		client:   c,
	}, nil
}

func (t *Token) Address() common.Address {
	return t.address
}

func (t *Token) Batch(ctx context.Context, addresses []common.Address, amounts []*big.Int) (*types.Receipt, error) {
	if len(addresses) != len(amounts) {
		return nil, errors.Errorf("Got %d addresses and %d amounts", len(addresses), len(amounts))
	}
	return t.transact(ctx, "batch", addresses, amounts)
}

func (t *Token) Mint(ctx context.Context, to common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.transact(ctx, "mint", to, amount)
}

func (t *Token) Transfer(ctx context.Context, to common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.transact(ctx, "transfer", to, amount)
}

func (t *Token) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.transact(ctx, "approve", spender, amount)
}

func (t *Token) TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.transact(ctx, "transferFrom", from, to, amount)
}

func (t *Token) Pause(ctx context.Context) (*types.Receipt, error) {
	return t.transact(ctx, "pause")
}

func (t *Token) Unpause(ctx context.Context) (*types.Receipt, error) {
	return t.transact(ctx, "unpause")
}

func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.callBig(ctx, "totalSupply")
}

func (t *Token) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return t.callBig(ctx, "balanceOf", owner)
}

func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return t.callBig(ctx, "allowance", owner, spender)
}

func (t *Token) Paused(ctx context.Context) (bool, error) {
	out, err := t.call(ctx, "paused")
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	out, err := t.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// transact sends method and waits for its receipt. A mined but reverted
// transaction is returned with a failed status and no error.
func (t *Token) transact(ctx context.Context, method string, params ...interface{}) (*types.Receipt, error) {
	opts, err := t.client.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := t.contract.Transact(opts, method, params...)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to send %s transaction", method)
	}

	waitCtx := ctx
	if t.client.receiptTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, t.client.receiptTimeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(waitCtx, t.client.backend, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to get receipt for %s transaction %s", method, tx.Hash().Hex())
	}

	return receipt, nil
}

func (t *Token) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, errors.Wrapf(err, "Failed to call %s", method)
	}
	if len(out) == 0 {
		return nil, errors.Errorf("Empty %s result", method)
	}
	return out, nil
}

func (t *Token) callBig(ctx context.Context, method string, params ...interface{}) (*big.Int, error) {
	out, err := t.call(ctx, method, params...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
