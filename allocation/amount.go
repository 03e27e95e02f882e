package allocation

import (
	sdkmath "cosmossdk.io/math"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"math/big"
	"strings"
)

// MaxTokenDecimals bounds the scaling exponent. Amounts are parsed with 18
// digits of fractional precision, so a token can not use more than that.
const MaxTokenDecimals = 18

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNegativeAmount  = errors.New("negative amount")
	ErrAmountPrecision = errors.New("amount has more fractional digits than the token decimals")
	ErrAmountOverflow  = errors.New("amount does not fit in uint256")
)

var decPrecisionMultiplier = new(big.Int).Exp(big.NewInt(10), big.NewInt(sdkmath.LegacyPrecision), nil)

// ScaleAmount converts a human-entered decimal amount into the integer unit the
// token contract expects, i.e. amount * 10^decimals.
func ScaleAmount(amount string, decimals uint) (*big.Int, error) {
	if decimals > MaxTokenDecimals {
		return nil, errors.Errorf("token decimals %d exceed %d", decimals, MaxTokenDecimals)
	}

	dec, err := sdkmath.LegacyNewDecFromStr(strings.TrimSpace(amount))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidAmount, "%q: %s", amount, err)
	}
	if dec.IsNegative() {
		return nil, errors.Wrapf(ErrNegativeAmount, "%q", amount)
	}

	// dec.BigInt() is amount * 10^18.
	scaled := new(big.Int).Mul(dec.BigInt(), pow10(decimals))
	scaled, rem := new(big.Int).QuoRem(scaled, decPrecisionMultiplier, new(big.Int))
	if rem.Sign() != 0 {
		return nil, errors.Wrapf(ErrAmountPrecision, "%q with %d decimals", amount, decimals)
	}

	if _, overflow := uint256.FromBig(scaled); overflow {
		return nil, errors.Wrapf(ErrAmountOverflow, "%q", amount)
	}

	return scaled, nil
}

// FormatAmount renders an integer token amount back in human units.
func FormatAmount(amount *big.Int, decimals uint) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	abs := new(big.Int).Abs(amount)
	whole, frac := new(big.Int).QuoRem(abs, pow10(decimals), new(big.Int))

	s := whole.String()
	if frac.Sign() != 0 {
		fracStr := frac.String()
		fracStr = strings.Repeat("0", int(decimals)-len(fracStr)) + fracStr
		s += "." + strings.TrimRight(fracStr, "0")
	}
	if amount.Sign() < 0 {
		s = "-" + s
	}

	return s
}

func pow10(n uint) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
