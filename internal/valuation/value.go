package valuation

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// RelativeValues prices each pool token in units of the other from the pool's
// balances. token0Value is how much token1 the pool holds per token0 and
// token1Value the inverse. A side whose divisor is zero is reported as 0.
func RelativeValues(balance0, balance1 *big.Int, decimals0, decimals1 uint8) (token0Value, token1Value float64) {
	norm0 := normalize(balance0, decimals0)
	norm1 := normalize(balance1, decimals1)

	if !norm0.IsZero() {
		token0Value = ratio(norm1, norm0)
	}
	if !norm1.IsZero() {
		token1Value = ratio(norm0, norm1)
	}
	return token0Value, token1Value
}

// ratio divides exactly and rounds once to the nearest float64, so lopsided
// pools and dust balances keep full precision.
func ratio(num, den decimal.Decimal) float64 {
	f, _ := new(big.Rat).Quo(num.Rat(), den.Rat()).Float64()
	return f
}

func normalize(balance *big.Int, decimals uint8) decimal.Decimal {
	if balance == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(balance, -int32(decimals))
}
