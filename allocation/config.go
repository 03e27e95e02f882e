package allocation

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"time"
)

const (
	DefaultTokenDecimals  = 8
	DefaultGasLimit       = 4500000
	DefaultGasPrice       = 2000000000
	DefaultReceiptTimeout = 5 * time.Minute
	DefaultInputPath      = "./scripts/allocations.csv"
)

var (
	ErrMissingContractAddress = errors.New("missing contract address")
	ErrInvalidContractAddress = errors.New("invalid contract address")
	ErrMissingInput           = errors.New("missing allocations input path")
	ErrMissingRPCURL          = errors.New("missing RPC URL")
	ErrMissingSenderKey       = errors.New("missing sender key: set a private key or a wallet file")
	ErrInvalidTokenDecimals   = errors.New("invalid token decimals")
	ErrInvalidGasLimit        = errors.New("gas limit must be positive")
)

// RunConfig is built once at startup and not modified afterwards.
type RunConfig struct {
	ContractAddress string
	BatchSize       int
	TokenDecimals   uint
	InputPath       string
	RPCURL          string
	ChainID         int64
	GasLimit        uint64
	GasPrice        uint64
	ReceiptTimeout  time.Duration
	PrivateKey      string
	WalletFile      string
	WalletPassword  string
	Strict          bool
	DryRun          bool
	ResultPath      string
}

func NewRunConfig(contractAddress string) *RunConfig {
	return &RunConfig{
		ContractAddress: contractAddress,
		BatchSize:       DefaultBatchSize,
		TokenDecimals:   DefaultTokenDecimals,
		InputPath:       DefaultInputPath,
		GasLimit:        DefaultGasLimit,
		GasPrice:        DefaultGasPrice,
		ReceiptTimeout:  DefaultReceiptTimeout,
	}
}

// Validate checks the fields a run needs before any work starts. A dry run
// never talks to the chain, so it needs neither an RPC URL nor a key.
func (c *RunConfig) Validate() error {
	if c.ContractAddress == "" {
		return ErrMissingContractAddress
	}
	if !common.IsHexAddress(c.ContractAddress) {
		return errors.Wrapf(ErrInvalidContractAddress, "%q", c.ContractAddress)
	}
	if c.BatchSize < 1 {
		return errors.Wrapf(ErrInvalidBatchSize, "got %d", c.BatchSize)
	}
	if c.TokenDecimals > MaxTokenDecimals {
		return errors.Wrapf(ErrInvalidTokenDecimals, "%d exceeds %d", c.TokenDecimals, MaxTokenDecimals)
	}
	if c.InputPath == "" {
		return ErrMissingInput
	}

	if c.DryRun {
		return nil
	}

	if c.RPCURL == "" {
		return ErrMissingRPCURL
	}
	if c.PrivateKey == "" && c.WalletFile == "" {
		return ErrMissingSenderKey
	}
	if c.GasLimit == 0 {
		return ErrInvalidGasLimit
	}

	return nil
}
