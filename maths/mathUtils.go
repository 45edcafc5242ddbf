package maths

import (
	"math/big"

	"github.com/FeelsDEX/feels-sub005/types"
)

func MulDiv(x, y, denominator *big.Int, rounding types.Rounding) *big.Int {
	div, mod := new(big.Int).QuoRem(
		new(big.Int).Mul(x, y),
		denominator,
		new(big.Int))

	if rounding == types.RoundingUp && mod.Sign() != 0 {
		return div.Add(div, big.NewInt(1))
	}

	return div
}

// ClampBps bounds v into [0, hi] basis points.
func ClampBps(v int64, hi uint16) uint16 {
	if v < 0 {
		return 0
	}
	if v > int64(hi) {
		return hi
	}
	return uint16(v)
}

// MinBig returns the smaller of a and b.
func MinBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// BpsOf computes floor(amount * bps / 10_000).
func BpsOf(amount *big.Int, bps uint16) *big.Int {
	return MulDiv(
		amount,
		new(big.Int).SetUint64(uint64(bps)),
		big.NewInt(10_000),
		types.RoundingDown,
	)
}
