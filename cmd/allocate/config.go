package main

import (
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"io/fs"
	"strings"
	"token-allocation/allocation"
)

const envPrefix = "ALLOC"

// loadSettings layers flags over ALLOC_* environment variables over the
// optional config file. A .env file in the working directory is loaded first
// and never overrides variables already set.
func loadSettings(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "Failed to load .env")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, names := range map[string][]string{
		"config":          {"ALLOC_CONFIG", "CONFIG_PATH"},
		"result":          {"ALLOC_RESULT", "RESULT_PATH"},
		"wallet-password": {"ALLOC_WALLET_PASSWORD", "PASSWALLET"},
	} {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return errors.Wrapf(err, "Failed to bind %s", key)
		}
	}

	if err := v.BindPFlags(flags); err != nil {
		return errors.Wrap(err, "Failed to bind flags")
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "Failed to read config %s", path)
		}
	}

	return nil
}

func runConfig(v *viper.Viper, contractAddress string) *allocation.RunConfig {
	cfg := allocation.NewRunConfig(contractAddress)

	if v.IsSet("batch-size") {
		cfg.BatchSize = v.GetInt("batch-size")
	}
	if v.IsSet("decimals") {
		cfg.TokenDecimals = v.GetUint("decimals")
	}
	if v.IsSet("input") {
		cfg.InputPath = v.GetString("input")
	}
	if v.IsSet("gas-limit") {
		cfg.GasLimit = v.GetUint64("gas-limit")
	}
	if v.IsSet("gas-price") {
		cfg.GasPrice = v.GetUint64("gas-price")
	}
	if v.IsSet("receipt-timeout") {
		cfg.ReceiptTimeout = v.GetDuration("receipt-timeout")
	}

	cfg.RPCURL = v.GetString("rpc-url")
	cfg.ChainID = v.GetInt64("chain-id")
	cfg.PrivateKey = v.GetString("private-key")
	cfg.WalletFile = v.GetString("wallet-file")
	cfg.WalletPassword = v.GetString("wallet-password")
	cfg.Strict = v.GetBool("strict")
	cfg.DryRun = v.GetBool("dry-run")
	cfg.ResultPath = v.GetString("result")

	return cfg
}
