package testutils

import "math/big"

var (
	// SqrtPriceOne is price 1.0 in Q64.64.
	SqrtPriceOne = new(big.Int).Lsh(big.NewInt(1), 64)

	// DefaultLiquidity is deep enough that unit-scale fills stay in
	// one segment.
	DefaultLiquidity = new(big.Int).Lsh(big.NewInt(1_000_000_000), 64)
)
