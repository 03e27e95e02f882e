package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strconv"
	"token-allocation/allocation"
)

const usageHint = "Please run the script by providing the address of the token contract:\n  allocate <contractAddress> [batchSize]"

type app struct {
	v      *viper.Viper
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "allocate <contractAddress> [batchSize]",
		Short: "Distribute token allocations from a CSV file in batches",
		Long: "Reads address,amount rows from a CSV file, groups them into batches and " +
			"submits every batch to the token contract's batch function, one transaction at a time.",
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadSettings(a.v, cmd.Flags()); err != nil {
				return err
			}
			a.logger = newLogger(a.v.GetString("log-level"), cmd.ErrOrStderr())
			return nil
		},
		RunE: a.runAllocate,
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "config file (yaml, json or toml); also CONFIG_PATH")
	pf.String("contract", "", "token contract address")
	pf.String("rpc-url", "", "JSON-RPC endpoint of the node")
	pf.Int64("chain-id", 0, "chain id; asked from the node when 0")
	pf.Uint64("gas-limit", allocation.DefaultGasLimit, "gas limit per transaction")
	pf.Uint64("gas-price", allocation.DefaultGasPrice, "gas price in wei; suggested by the node when 0")
	pf.Duration("receipt-timeout", allocation.DefaultReceiptTimeout, "how long to wait for a transaction to be mined")
	pf.Uint("decimals", allocation.DefaultTokenDecimals, "token decimals used to scale amounts")
	pf.String("wallet-file", "", "encrypted keystore file of the sender; password from ALLOC_WALLET_PASSWORD")
	pf.String("log-level", "info", "log level (trace, debug, info, warn, error)")

	f := cmd.Flags()
	f.String("input", allocation.DefaultInputPath, "allocations CSV file")
	f.Int("batch-size", allocation.DefaultBatchSize, "accounts per transaction")
	f.Bool("strict", false, "report the number of skipped rows")
	f.Bool("dry-run", false, "parse and batch only, print the plan and submit nothing")
	f.String("result", "", "write a JSON result to this path; also RESULT_PATH")

	cmd.AddCommand(
		a.newSupplyCmd(),
		a.newBalanceCmd(),
		a.newAllowanceCmd(),
		a.newMintCmd(),
		a.newTransferCmd(),
		a.newApproveCmd(),
		a.newTransferFromCmd(),
		a.newPauseCmd(),
		a.newUnpauseCmd(),
	)

	return cmd
}

// contractArgs resolves the contract address and batch size from positional
// arguments, falling back to --contract and --batch-size.
func (a *app) contractArgs(args []string) (string, int, error) {
	contract := a.v.GetString("contract")
	if len(args) > 0 {
		contract = args[0]
	}

	batchSize := a.v.GetInt("batch-size")
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return "", 0, errors.Wrapf(allocation.ErrInvalidBatchSize, "%q", args[1])
		}
		batchSize = n
	}

	return contract, batchSize, nil
}
