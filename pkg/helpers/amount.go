// Package helpers provides common utility functions used across the codebase.
package helpers

import (
	"fmt"
	"math/big"
	"strings"
)

// zecDecimals is the number of fractional digits in 1 ZEC (8, same as BTC).
const zecDecimals = 8

// FormatAmountZEC formats a zatoshi count as a canonical decimal ZEC
// string with trailing fractional zeros trimmed.
func FormatAmountZEC(zatoshis uint64) string {
	amount := new(big.Int).SetUint64(zatoshis)
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(zecDecimals), nil)

	whole := new(big.Int).Div(amount, divisor)
	frac := new(big.Int).Mod(amount, divisor)

	if frac.Sign() == 0 {
		return whole.String()
	}

	fracStr := fmt.Sprintf("%0*d", zecDecimals, frac)
	fracStr = strings.TrimRight(fracStr, "0")
	return fmt.Sprintf("%s.%s", whole.String(), fracStr)
}

// ParseAmountZEC parses a decimal ZEC string into an integer zatoshi count.
// Fractional digits beyond the 8th are rounded half-away-from-zero rather
// than truncated, matching the conversion used throughout the HTLC
// transaction builder.
func ParseAmountZEC(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("helpers: InvalidAmount: empty string")
	}

	negative := strings.HasPrefix(s, "-")
	if negative {
		return 0, fmt.Errorf("helpers: InvalidAmount: negative amount %q", s)
	}

	wholeStr, fracStr, hasPoint := strings.Cut(s, ".")
	if !hasPoint {
		fracStr = ""
	}
	if wholeStr == "" {
		wholeStr = "0"
	}

	for _, c := range wholeStr {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("helpers: InvalidAmount: invalid character %q in %q", c, s)
		}
	}
	for _, c := range fracStr {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("helpers: InvalidAmount: invalid character %q in %q", c, s)
		}
	}

	// Round half-away-from-zero against the digit immediately past the
	// 8 fractional places we keep.
	roundUp := false
	if len(fracStr) > zecDecimals {
		roundUp = fracStr[zecDecimals] >= '5'
		fracStr = fracStr[:zecDecimals]
	}
	for len(fracStr) < zecDecimals {
		fracStr += "0"
	}

	combined := wholeStr + fracStr
	amount := new(big.Int)
	if _, ok := amount.SetString(combined, 10); !ok {
		return 0, fmt.Errorf("helpers: InvalidAmount: %q", s)
	}
	if roundUp {
		amount.Add(amount, big.NewInt(1))
	}

	if !amount.IsUint64() {
		return 0, fmt.Errorf("helpers: InvalidAmount: overflow in %q", s)
	}
	return amount.Uint64(), nil
}
</content>
</invoke>
