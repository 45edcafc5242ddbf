package maths

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/FeelsDEX/feels-sub005/constants"
	"github.com/FeelsDEX/feels-sub005/types"
)

// tickBase
//  tickBase = 1.0001
var tickBase = decimal.NewFromFloat(1.0001)

// lnTickBase is ln(1.0001) at PotentialPrecision, computed once.
var lnTickBase = func() decimal.Decimal {
	v, err := tickBase.Ln(constants.PotentialPrecision)
	if err != nil {
		panic(err)
	}
	return v
}()

// q64 = 2^64 as a decimal, for Q64.64 conversions.
var q64 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), constants.ScaleOffset), 0)

// PriceToTick maps a price to the greatest tick whose price does not
// exceed it:
//
//	tick = floor( ln(price) / ln(1.0001) )
//
// Deterministic: both logs run at PotentialPrecision.
func PriceToTick(price decimal.Decimal) (int32, error) {
	if price.Sign() <= 0 {
		return 0, types.ErrDomain
	}
	lnP, err := price.Ln(constants.PotentialPrecision)
	if err != nil {
		return 0, types.ErrDomain
	}
	tick := lnP.Div(lnTickBase).Floor()
	return int32(tick.IntPart()), nil
}

// TickToPrice evaluates 1.0001^tick by binary exponentiation, rounding
// to PotentialPrecision after every multiply so the result does not
// depend on evaluation order.
func TickToPrice(tick int32) decimal.Decimal {
	neg := tick < 0
	n := uint32(tick)
	if neg {
		n = uint32(-tick)
	}

	result := one
	base := tickBase
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(constants.PotentialPrecision)
		}
		base = base.Mul(base).Round(constants.PotentialPrecision)
		n >>= 1
	}
	if neg {
		return one.DivRound(result, constants.PotentialPrecision)
	}
	return result
}

// SqrtPriceToPrice converts a Q64.64 sqrt price to a decimal price.
//
//	price = (sqrtPrice / 2^64)^2
func SqrtPriceToPrice(sqrtPrice *big.Int) decimal.Decimal {
	s := decimal.NewFromBigInt(sqrtPrice, 0).DivRound(q64, constants.PotentialPrecision)
	return s.Mul(s)
}

// SqrtPriceToTick composes the two conversions.
func SqrtPriceToTick(sqrtPrice *big.Int) (int32, error) {
	return PriceToTick(SqrtPriceToPrice(sqrtPrice))
}

// TickToSqrtPrice converts a tick to a Q64.64 sqrt price, rounding
// down at the boundary.
func TickToSqrtPrice(tick int32) *big.Int {
	price := TickToPrice(tick)
	sqrt := decimalSqrt(price)
	out := sqrt.Mul(q64).Floor()
	return out.BigInt()
}

// decimalSqrt is Newton's method on decimals, seeded from the float64
// square root and iterated to PotentialPrecision.
func decimalSqrt(x decimal.Decimal) decimal.Decimal {
	if x.Sign() <= 0 {
		return decimal.Zero
	}
	f, _ := x.Float64()
	seed := math.Sqrt(f)
	if seed <= 0 || math.IsInf(seed, 0) || math.IsNaN(seed) {
		seed = 1
	}
	// The float sqrt is a seed only; convergence happens in decimal
	// space at fixed precision.
	guess := decimal.NewFromFloat(seed)
	two := decimal.NewFromInt(2)
	for i := 0; i < 8; i++ {
		guess = guess.Add(x.DivRound(guess, constants.PotentialPrecision)).
			DivRound(two, constants.PotentialPrecision)
	}
	return guess
}
