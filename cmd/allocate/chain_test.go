package main

import (
	"bytes"
	"context"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/big"
	"sync"
	"testing"
	"time"
	"token-allocation/allocation"
	"token-allocation/client"
)

var (
	// Answers every call with uint256(42), so decimals() reports 42.
	answerAddress = common.HexToAddress("0x00000000000000000000000000000000000a1100")
	revertAddress = common.HexToAddress("0x00000000000000000000000000000000000a1200")
)

func newSimulatedClient(t *testing.T) *client.Client {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	backend := simulated.NewBackend(types.GenesisAlloc{
		crypto.PubkeyToAddress(key.PublicKey): {Balance: new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)},
		answerAddress:                         {Code: common.FromHex("602a60005260206000f3"), Balance: new(big.Int)},
		revertAddress:                         {Code: common.FromHex("60006000fd"), Balance: new(big.Int)},
	})
	t.Cleanup(func() { _ = backend.Close() })

	c, err := client.NewClient(context.Background(), backend.Client(), key, client.Config{
		GasLimit:       300000,
		GasPrice:       big.NewInt(2000000000),
		ReceiptTimeout: 30 * time.Second,
	})
	require.NoError(t, err)

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

	return c
}

func TestCheckSender_DecimalsMismatch(t *testing.T) {
	c := newSimulatedClient(t)
	ctx := context.Background()

	token, err := c.Token(ctx, answerAddress.Hex())
	require.NoError(t, err)

	var logs bytes.Buffer
	a := &app{v: viper.New(), logger: zerolog.New(&logs)}

	err = a.checkSender(ctx, c, token, 8, false)
	assert.True(t, errors.Is(err, errDecimalsMismatch))
	assert.Contains(t, logs.String(), "sender balance")

	logs.Reset()
	require.NoError(t, a.checkSender(ctx, c, token, 8, true))
	assert.Contains(t, logs.String(), "token decimals differ from the contract")
	assert.Contains(t, logs.String(), `"contract":42`)

	logs.Reset()
	require.NoError(t, a.checkSender(ctx, c, token, 42, false))
	assert.NotContains(t, logs.String(), "differ")
}

func TestSendTx(t *testing.T) {
	c := newSimulatedClient(t)
	ctx := context.Background()

	answer, err := c.Token(ctx, answerAddress.Hex())
	require.NoError(t, err)
	reverting, err := c.Token(ctx, revertAddress.Hex())
	require.NoError(t, err)

	to := "0x0000000000000000000000000000000000000002"
	tests := []struct {
		name string
		args []string
		send sendFunc
	}{
		{"mint", []string{to, "1.5"}, mintTx},
		{"transfer", []string{to, "1.5"}, transferTx},
		{"approve", []string{to, "1.5"}, approveTx},
		{"transfer-from", []string{testContract, to, "1.5"}, transferFromTx},
		{"pause", nil, pauseTx},
		{"unpause", nil, unpauseTx},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, sendTx(ctx, &out, tt.name, answer, tt.args, 8, tt.send))
			assert.Contains(t, out.String(), "[Token] "+tt.name+" was successful.")

			out.Reset()
			err := sendTx(ctx, &out, tt.name, reverting, tt.args, 8, tt.send)
			assert.True(t, errors.Is(err, allocation.ErrReverted))
			assert.Empty(t, out.String())
		})
	}

	var out bytes.Buffer
	err = sendTx(ctx, &out, "mint", answer, []string{to, "1.123"}, 2, mintTx)
	assert.True(t, errors.Is(err, allocation.ErrAmountPrecision))

	err = sendTx(ctx, &out, "transfer-from", answer, []string{"0x12", to, "1"}, 2, transferFromTx)
	assert.True(t, errors.Is(err, allocation.ErrInvalidAddress))
}
