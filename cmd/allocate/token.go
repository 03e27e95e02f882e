package main

import (
	"context"
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"io"
	"math/big"
	"token-allocation/allocation"
	"token-allocation/client"
)

type sendFunc func(ctx context.Context, token *client.Token, args []string, decimals uint) (*types.Receipt, error)

func (a *app) openToken(ctx context.Context) (*client.Client, *client.Token, *allocation.RunConfig, error) {
	cfg := runConfig(a.v, a.v.GetString("contract"))
	if cfg.ContractAddress == "" {
		return nil, nil, nil, errors.Wrap(allocation.ErrMissingContractAddress, "set --contract or ALLOC_CONTRACT")
	}
	if cfg.TokenDecimals > allocation.MaxTokenDecimals {
		return nil, nil, nil, errors.Wrapf(allocation.ErrInvalidTokenDecimals, "%d exceeds %d", cfg.TokenDecimals, allocation.MaxTokenDecimals)
	}

	c, token, err := a.connect(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return c, token, cfg, nil
}

func (a *app) newSupplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "supply",
		Short: "Print the token's total supply and paused state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, token, cfg, err := a.openToken(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			supply, err := token.TotalSupply(ctx)
			if err != nil {
				return err
			}
			paused, err := token.Paused(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[Token] Total supply: %s. Paused: %t.\n",
				allocation.FormatAmount(supply, cfg.TokenDecimals), paused)
			return nil
		},
	}
}

func (a *app) newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>...",
		Short: "Print token balances",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owners, err := parseAddresses(args...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			c, token, cfg, err := a.openToken(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			for _, owner := range owners {
				balance, err := token.BalanceOf(ctx, owner)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[Token] %s %s\n", owner.Hex(), allocation.FormatAmount(balance, cfg.TokenDecimals))
			}
			return nil
		},
	}
}

func (a *app) newAllowanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allowance <owner> <spender>",
		Short: "Print how much spender may transfer on behalf of owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs, err := parseAddresses(args...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			c, token, cfg, err := a.openToken(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			allowance, err := token.Allowance(ctx, addrs[0], addrs[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[Token] Allowance of %s for %s: %s\n",
				addrs[1].Hex(), addrs[0].Hex(), allocation.FormatAmount(allowance, cfg.TokenDecimals))
			return nil
		},
	}
}

func (a *app) newMintCmd() *cobra.Command {
	return a.txCmd("mint <to> <amount>", "Mint tokens to an address", 2, mintTx)
}

func (a *app) newTransferCmd() *cobra.Command {
	return a.txCmd("transfer <to> <amount>", "Transfer tokens from the sender", 2, transferTx)
}

func (a *app) newApproveCmd() *cobra.Command {
	return a.txCmd("approve <spender> <amount>", "Allow spender to transfer the sender's tokens", 2, approveTx)
}

func (a *app) newTransferFromCmd() *cobra.Command {
	return a.txCmd("transfer-from <from> <to> <amount>", "Transfer tokens on behalf of another owner", 3, transferFromTx)
}

func (a *app) newPauseCmd() *cobra.Command {
	return a.txCmd("pause", "Pause token transfers", 0, pauseTx)
}

func (a *app) newUnpauseCmd() *cobra.Command {
	return a.txCmd("unpause", "Resume token transfers", 0, unpauseTx)
}

func mintTx(ctx context.Context, token *client.Token, args []string, decimals uint) (*types.Receipt, error) {
	to, amount, err := addressAmount(args[0], args[1], decimals)
	if err != nil {
		return nil, err
	}
	return token.Mint(ctx, to, amount)
}

func transferTx(ctx context.Context, token *client.Token, args []string, decimals uint) (*types.Receipt, error) {
	to, amount, err := addressAmount(args[0], args[1], decimals)
	if err != nil {
		return nil, err
	}
	return token.Transfer(ctx, to, amount)
}

func approveTx(ctx context.Context, token *client.Token, args []string, decimals uint) (*types.Receipt, error) {
	spender, amount, err := addressAmount(args[0], args[1], decimals)
	if err != nil {
		return nil, err
	}
	return token.Approve(ctx, spender, amount)
}

func transferFromTx(ctx context.Context, token *client.Token, args []string, decimals uint) (*types.Receipt, error) {
	from, err := parseAddresses(args[0])
	if err != nil {
		return nil, err
	}
	to, amount, err := addressAmount(args[1], args[2], decimals)
	if err != nil {
		return nil, err
	}
	return token.TransferFrom(ctx, from[0], to, amount)
}

func pauseTx(ctx context.Context, token *client.Token, _ []string, _ uint) (*types.Receipt, error) {
	return token.Pause(ctx)
}

func unpauseTx(ctx context.Context, token *client.Token, _ []string, _ uint) (*types.Receipt, error) {
	return token.Unpause(ctx)
}

// txCmd builds a subcommand that sends one transaction and prints its receipt.
func (a *app) txCmd(use, short string, nargs int, send sendFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, token, cfg, err := a.openToken(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			return sendTx(ctx, cmd.OutOrStdout(), cmd.Name(), token, args, cfg.TokenDecimals, send)
		},
	}
}

func sendTx(ctx context.Context, out io.Writer, name string, token *client.Token, args []string, decimals uint, send sendFunc) error {
	receipt, err := send(ctx, token, args, decimals)
	if err != nil {
		return err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return errors.Wrapf(allocation.ErrReverted, "%s tx %s", name, receipt.TxHash.Hex())
	}

	fmt.Fprintf(out, "[Token] %s was successful. %d gas used. Tx: %s\n", name, receipt.GasUsed, receipt.TxHash.Hex())
	return nil
}

func parseAddresses(args ...string) ([]common.Address, error) {
	addrs := make([]common.Address, 0, len(args))
	for _, arg := range args {
		if !common.IsHexAddress(arg) {
			return nil, errors.Wrapf(allocation.ErrInvalidAddress, "%q", arg)
		}
		addrs = append(addrs, common.HexToAddress(arg))
	}
	return addrs, nil
}

func addressAmount(address, amount string, decimals uint) (common.Address, *big.Int, error) {
	addrs, err := parseAddresses(address)
	if err != nil {
		return common.Address{}, nil, err
	}

	scaled, err := allocation.ScaleAmount(amount, decimals)
	if err != nil {
		return common.Address{}, nil, errors.Wrapf(err, "amount %q", amount)
	}

	return addrs[0], scaled, nil
}
