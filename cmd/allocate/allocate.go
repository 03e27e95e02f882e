package main

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"math/big"
	"os"
	"token-allocation/allocation"
	"token-allocation/client"
)

var errDecimalsMismatch = errors.New("token decimals differ from the contract")

func (a *app) runAllocate(cmd *cobra.Command, args []string) error {
	contract, batchSize, err := a.contractArgs(args)
	if err != nil {
		return err
	}
	if contract == "" {
		fmt.Fprintln(cmd.OutOrStdout(), usageHint)
		return nil
	}

	cfg := runConfig(a.v, contract)
	cfg.BatchSize = batchSize
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	reporter := allocation.NewReporter(cmd.OutOrStdout(), cfg.Strict)
	reporter.Printf("Processing token allocation. Batch size is %d accounts per transaction.", cfg.BatchSize)
	reporter.Printf("Token contract: %s", cfg.ContractAddress)

	input, err := os.Open(cfg.InputPath)
	if err != nil {
		return errors.Wrap(err, "Failed to open allocations file")
	}
	defer input.Close()

	var token allocation.Token
	if !cfg.DryRun {
		c, t, err := a.connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := a.checkSender(ctx, c, t, cfg.TokenDecimals, a.v.IsSet("decimals")); err != nil {
			return err
		}
		token = t
	}

	res, err := allocation.NewOrchestrator(cfg, token, reporter, a.logger).Allocate(ctx, input)
	if err != nil {
		return err
	}

	if cfg.ResultPath != "" {
		reporter.Printf("Writing result to %s.", cfg.ResultPath)
		if err := writeResult(cfg.ResultPath, res); err != nil {
			return err
		}
	}

	return nil
}

// connect dials the node and resolves the token contract. Without a private
// key or wallet file the client is read-only.
func (a *app) connect(ctx context.Context, cfg *allocation.RunConfig) (*client.Client, *client.Token, error) {
	if cfg.RPCURL == "" {
		return nil, nil, allocation.ErrMissingRPCURL
	}

	var key *ecdsa.PrivateKey
	if cfg.PrivateKey != "" || cfg.WalletFile != "" {
		k, err := client.LoadKey(cfg.PrivateKey, cfg.WalletFile, cfg.WalletPassword)
		if err != nil {
			return nil, nil, err
		}
		key = k
	}

	c, err := client.Dial(ctx, cfg.RPCURL, key, client.Config{
		ChainID:        big.NewInt(cfg.ChainID),
		GasPrice:       new(big.Int).SetUint64(cfg.GasPrice),
		GasLimit:       cfg.GasLimit,
		ReceiptTimeout: cfg.ReceiptTimeout,
	})
	if err != nil {
		return nil, nil, err
	}

	token, err := c.Token(ctx, cfg.ContractAddress)
	if err != nil {
		c.Close()
		return nil, nil, err
	}

	a.logger.Info().
		Str("rpc_url", cfg.RPCURL).
		Str("chain_id", c.ChainID().String()).
		Str("sender", c.GetAddress().Hex()).
		Str("contract", token.Address().Hex()).
		Msg("connected")

	return c, token, nil
}

// checkSender logs the sender's gas balance and compares the contract's own
// decimals with the configured ones. A mismatch fails the run unless decimals
// were set explicitly; a contract without decimals() is not checked.
func (a *app) checkSender(ctx context.Context, c *client.Client, token *client.Token, decimals uint, explicit bool) error {
	if balance, err := c.GetBalance(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("could not read sender balance")
	} else {
		a.logger.Info().Str("sender", c.GetAddress().Hex()).Str("balance_wei", balance.String()).Msg("sender balance")
	}

	onChain, err := token.Decimals(ctx)
	if err != nil {
		a.logger.Debug().Err(err).Msg("contract does not report decimals")
		return nil
	}
	if uint(onChain) == decimals {
		return nil
	}

	if !explicit {
		return errors.Wrapf(errDecimalsMismatch, "contract has %d, configured %d; pass --decimals to override", onChain, decimals)
	}

	a.logger.Warn().
		Uint("configured", decimals).
		Uint8("contract", onChain).
		Msg("token decimals differ from the contract")
	return nil
}

func writeResult(path string, res *allocation.Result) error {
	resultJson, err := json.MarshalIndent(res, "", "\t")
	if err != nil {
		return errors.Wrap(err, "Failed to marshal result json")
	}

	if err := os.WriteFile(path, resultJson, 0644); err != nil {
		return errors.Wrap(err, "Failed to write result")
	}

	return nil
}
