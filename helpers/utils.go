package helpers

import (
	"fmt"
	"math/big"

	ag_binary "github.com/gagliardetto/binary"

	"github.com/FeelsDEX/feels-sub005/constants"
)

// GetMinAmountWithSlippage calculates the minimum amount receivable after slippage is applied.
//
// - amount: The original amount of tokens (as *big.Int).
//
// - rate: The slippage rate as a float64 percentage (e.g., 0.5 for 0.5%).
func GetMinAmountWithSlippage(amount *big.Int, rate float64) *big.Int {
	slippage := new(big.Int).SetUint64(uint64((100 - rate) / 100 * constants.BasisPointMax))
	return new(big.Int).Div(
		new(big.Int).Mul(amount, slippage),
		big.NewInt(constants.BasisPointMax),
	)
}

func BigIntToUint128(b *big.Int) (ag_binary.Uint128, error) {
	if b.Sign() < 0 {
		return ag_binary.Uint128{}, fmt.Errorf("value must be unsigned")
	}

	if b.BitLen() > 128 {
		return ag_binary.Uint128{}, fmt.Errorf("value %s exceeds 128 bits", b.String())
	}

	var buf [16]byte
	b.FillBytes(buf[:]) // zero-pads on the left

	ag_binary.ReverseBytes(buf[:])

	var u ag_binary.Uint128
	if err := u.UnmarshalWithDecoder(ag_binary.NewBinDecoder(buf[:])); err != nil {
		return ag_binary.Uint128{}, err
	}
	return u, nil
}

// Must helper
func MustBigIntToUint128(b *big.Int) ag_binary.Uint128 {
	v, err := BigIntToUint128(b)
	if err != nil {
		panic(fmt.Errorf("cannot fit big.Int into Uint128: %s", err.Error()))
	}
	return v
}
