package helpers

import (
	"math/big"

	"github.com/FeelsDEX/feels-sub005/constants"
	"github.com/FeelsDEX/feels-sub005/types"
)

// GetNextSqrtPrice
//
// aToB
//
// √P' = √P * L / (L + Δx*√P)
//
// bToA
//
// √P' = √P + Δy / L
func GetNextSqrtPrice(
	amount, sqrtPrice, liquidity *big.Int,
	aToB bool,
) *big.Int {

	if aToB {
		product := new(big.Int).Mul(amount, sqrtPrice)
		denominator := new(big.Int).Add(liquidity, product)
		numerator := new(big.Int).Mul(liquidity, sqrtPrice)
		return new(big.Int).Div(
			new(big.Int).Add(
				numerator,
				new(big.Int).Sub(denominator, big.NewInt(1)),
			),
			denominator,
		)
	}

	quotient := new(big.Int).Div(
		new(big.Int).Lsh(amount, constants.ScaleOffset*2),
		liquidity,
	)
	return new(big.Int).Add(sqrtPrice, quotient)
}

// GetLiquidityDeltaFromAmountA
//
// Δa = L * (1 / √P_lower - 1 / √P_upper)
//
// Δa = L * (√P_upper - √P_lower) / (√P_upper * √P_lower)
//
// L = Δa * √P_upper * √P_lower / (√P_upper - √P_lower)
func GetLiquidityDeltaFromAmountA(
	amountA, lowerSqrtPrice, upperSqrtPrice *big.Int,
) *big.Int {
	product := new(big.Int).Mul(
		new(big.Int).Mul(lowerSqrtPrice, amountA),
		upperSqrtPrice,
	) // Q128.128
	denominator := new(big.Int).Sub(upperSqrtPrice, lowerSqrtPrice) // Q64.64

	return new(big.Int).Div(product, denominator)
}

// GetLiquidityDeltaFromAmountB
//
// Δb = L (√P_upper - √P_lower)
//
// L = Δb / (√P_upper - √P_lower)
func GetLiquidityDeltaFromAmountB(
	amountB, lowerSqrtPrice, upperSqrtPrice *big.Int,
) *big.Int {
	denominator := new(big.Int).Sub(upperSqrtPrice, lowerSqrtPrice)
	product := new(big.Int).Lsh(amountB, constants.LiquidityScale)

	return new(big.Int).Div(product, denominator)
}

// GetAmountAFromLiquidityDelta
//
// Δa = L * (√P_upper - √P_lower) / (√P_upper * √P_lower)
func GetAmountAFromLiquidityDelta(
	liquidity, currentSqrtPrice, maxSqrtPrice *big.Int,
	rounding types.Rounding,
) *big.Int {
	product := new(big.Int).Mul(
		liquidity,
		new(big.Int).Sub(maxSqrtPrice, currentSqrtPrice),
	) // Q128.128

	denominator := new(big.Int).Mul(currentSqrtPrice, maxSqrtPrice) // Q128.128

	if rounding == types.RoundingUp {
		return new(big.Int).Div(
			new(big.Int).Add(
				product, new(big.Int).Sub(denominator, big.NewInt(1))),
			denominator,
		)
	}

	return new(big.Int).Div(product, denominator)
}

// GetAmountBFromLiquidityDelta
//
//	Δb = L * (√P_upper - √P_lower)
func GetAmountBFromLiquidityDelta(
	liquidity, currentSqrtPrice, minSqrtPrice *big.Int,
	rounding types.Rounding,
) *big.Int {
	delta := new(big.Int).Sub(currentSqrtPrice, minSqrtPrice) // Q64.64
	product := new(big.Int).Mul(liquidity, delta)             // Q128.128

	if rounding == types.RoundingUp {
		one := new(big.Int).Lsh(big.NewInt(1), constants.LiquidityScale)
		return new(big.Int).Div(
			new(big.Int).Add(product, new(big.Int).Sub(one, big.NewInt(1))),
			one,
		)
	}
	return new(big.Int).Rsh(product, constants.LiquidityScale)
}

// GetSwapAmountOut walks a fill of amountIn (fee already deducted)
// against the given liquidity, returning the output amount and the
// post-fill sqrt price. Output rounds down, toward the pool.
func GetSwapAmountOut(
	amountIn, sqrtPrice, liquidity *big.Int,
	aToB bool,
) (amountOut, nextSqrtPrice *big.Int) {
	nextSqrtPrice = GetNextSqrtPrice(amountIn, sqrtPrice, liquidity, aToB)

	if aToB {
		// Price falls; output is token B.
		amountOut = GetAmountBFromLiquidityDelta(
			liquidity, sqrtPrice, nextSqrtPrice, types.RoundingDown,
		)
		return amountOut, nextSqrtPrice
	}

	// Price rises; output is token A.
	amountOut = GetAmountAFromLiquidityDelta(
		liquidity, sqrtPrice, nextSqrtPrice, types.RoundingDown,
	)
	return amountOut, nextSqrtPrice
}
