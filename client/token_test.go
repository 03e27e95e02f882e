package client

import (
	"context"
	"crypto/ecdsa"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/big"
	"sync"
	"testing"
	"time"
)

var (
	// PUSH1 42 PUSH1 0 MSTORE PUSH1 32 PUSH1 0 RETURN: answers every call with uint256(42).
	answerCode = common.FromHex("602a60005260206000f3")
	// PUSH1 0 PUSH1 0 REVERT
	revertCode = common.FromHex("60006000fd")

	answerAddress = common.HexToAddress("0x00000000000000000000000000000000000a1100")
	revertAddress = common.HexToAddress("0x00000000000000000000000000000000000a1200")
)

type testChain struct {
	backend *simulated.Backend
	key     *ecdsa.PrivateKey
	client  *Client
}

func newTestChain(t *testing.T) *testChain {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sender := crypto.PubkeyToAddress(key.PublicKey)
	backend := simulated.NewBackend(types.GenesisAlloc{
		sender:        {Balance: new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)},
		answerAddress: {Code: answerCode, Balance: new(big.Int)},
		revertAddress: {Code: revertCode, Balance: new(big.Int)},
	})
	t.Cleanup(func() { _ = backend.Close() })

	c, err := NewClient(context.Background(), backend.Client(), key, Config{
		GasLimit:       300000,
		GasPrice:       big.NewInt(2000000000),
		ReceiptTimeout: 30 * time.Second,
	})
	require.NoError(t, err)

	// The simulated chain only mines on Commit.
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				backend.Commit()
			}
		}
	}()
	t.Cleanup(func() {
		close(done)
		wg.Wait()
	})

	return &testChain{backend: backend, key: key, client: c}
}

func TestTokenABI(t *testing.T) {
	for _, method := range []string{"batch", "mint", "totalSupply", "balanceOf", "allowance", "approve", "transfer", "transferFrom", "pause", "unpause", "paused", "decimals"} {
		_, ok := tokenABI.Methods[method]
		assert.True(t, ok, method)
	}

	data, err := tokenABI.Pack("batch",
		[]common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02")},
		[]*big.Int{big.NewInt(10), big.NewInt(20)},
	)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256([]byte("batch(address[],uint256[])"))[:4], data[:4])
}

func TestClient_Identity(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	want, err := chain.backend.Client().ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, chain.client.ChainID())
	assert.Equal(t, crypto.PubkeyToAddress(chain.key.PublicKey), chain.client.GetAddress())

	balance, err := chain.client.GetBalance(ctx)
	require.NoError(t, err)
	assert.Positive(t, balance.Sign())
}

func TestClient_TokenLookup(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	_, err := chain.client.Token(ctx, "PRODToken")
	assert.True(t, errors.Is(err, ErrInvalidContractAddress))

	_, err = chain.client.Token(ctx, "0x00000000000000000000000000000000000b0b00")
	assert.True(t, errors.Is(err, ErrNoContractCode))

	token, err := chain.client.Token(ctx, answerAddress.Hex())
	require.NoError(t, err)
	assert.Equal(t, answerAddress, token.Address())
}

func TestToken_Reads(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	token, err := chain.client.Token(ctx, answerAddress.Hex())
	require.NoError(t, err)

	supply, err := token.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), supply)

	balance, err := token.BalanceOf(ctx, common.HexToAddress("0x01"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), balance)

	allowance, err := token.Allowance(ctx, common.HexToAddress("0x01"), common.HexToAddress("0x02"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), allowance)

	decimals, err := token.Decimals(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 42, decimals)
}

func TestToken_Batch(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	token, err := chain.client.Token(ctx, answerAddress.Hex())
	require.NoError(t, err)

	receipt, err := token.Batch(ctx,
		[]common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02")},
		[]*big.Int{big.NewInt(1000000000), big.NewInt(2000000000)},
	)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.Greater(t, receipt.GasUsed, uint64(21000))

	// The next transaction picks up the advanced nonce.
	receipt, err = token.Batch(ctx, []common.Address{common.HexToAddress("0x03")}, []*big.Int{big.NewInt(1)})
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)

	_, err = token.Batch(ctx, []common.Address{common.HexToAddress("0x03")}, nil)
	assert.Error(t, err)
}

func TestToken_RevertedBatch(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	token, err := chain.client.Token(ctx, revertAddress.Hex())
	require.NoError(t, err)

	receipt, err := token.Batch(ctx, []common.Address{common.HexToAddress("0x01")}, []*big.Int{big.NewInt(1)})
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)
}

func TestToken_ReadOnlyClient(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	c, err := NewClient(ctx, chain.backend.Client(), nil, Config{GasLimit: 100000})
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, c.GetAddress())

	token, err := c.Token(ctx, answerAddress.Hex())
	require.NoError(t, err)

	supply, err := token.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), supply)

	_, err = token.Pause(ctx)
	assert.True(t, errors.Is(err, ErrReadOnly))
}

func TestToken_Writes(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	owner := common.HexToAddress("0x01")
	to := common.HexToAddress("0x02")
	amount := big.NewInt(500000000)

	writes := map[string]func(*Token) (*types.Receipt, error){
		"mint":         func(tk *Token) (*types.Receipt, error) { return tk.Mint(ctx, to, amount) },
		"transfer":     func(tk *Token) (*types.Receipt, error) { return tk.Transfer(ctx, to, amount) },
		"approve":      func(tk *Token) (*types.Receipt, error) { return tk.Approve(ctx, to, amount) },
		"transferFrom": func(tk *Token) (*types.Receipt, error) { return tk.TransferFrom(ctx, owner, to, amount) },
		"pause":        func(tk *Token) (*types.Receipt, error) { return tk.Pause(ctx) },
		"unpause":      func(tk *Token) (*types.Receipt, error) { return tk.Unpause(ctx) },
	}

	answer, err := chain.client.Token(ctx, answerAddress.Hex())
	require.NoError(t, err)
	reverting, err := chain.client.Token(ctx, revertAddress.Hex())
	require.NoError(t, err)

	for name, write := range writes {
		receipt, err := write(answer)
		require.NoError(t, err, name)
		assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status, name)

		receipt, err = write(reverting)
		require.NoError(t, err, name)
		assert.Equal(t, types.ReceiptStatusFailed, receipt.Status, name)
	}
}

func TestToken_TransferFromCalldata(t *testing.T) {
	chain := newTestChain(t)
	ctx := context.Background()

	token, err := chain.client.Token(ctx, answerAddress.Hex())
	require.NoError(t, err)

	from := common.HexToAddress("0x0a")
	to := common.HexToAddress("0x0b")
	receipt, err := token.TransferFrom(ctx, from, to, big.NewInt(7))
	require.NoError(t, err)

	tx, _, err := chain.backend.Client().TransactionByHash(ctx, receipt.TxHash)
	require.NoError(t, err)

	args, err := tokenABI.Methods["transferFrom"].Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	require.Len(t, args, 3)
	assert.Equal(t, from, args[0])
	assert.Equal(t, to, args[1])
	assert.Equal(t, big.NewInt(7), args[2])
	assert.Equal(t, answerAddress, *tx.To())
}
