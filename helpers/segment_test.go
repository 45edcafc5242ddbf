package helpers_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FeelsDEX/feels-sub005/constants"
	"github.com/FeelsDEX/feels-sub005/helpers"
	"github.com/FeelsDEX/feels-sub005/maths"
	"github.com/FeelsDEX/feels-sub005/types"

	testUtils "github.com/FeelsDEX/feels-sub005/internal/test/utils"
)

func splitParams(amountIn, liquidity *big.Int, aToB bool) helpers.SplitSegmentsParams {
	timeState, levState := testUtils.NeutralDomains()
	return helpers.SplitSegmentsParams{
		AmountIn:      amountIn,
		SqrtPrice:     new(big.Int).Set(testUtils.SqrtPriceOne),
		Liquidity:     liquidity,
		AtoB:          aToB,
		TimeState:     timeState,
		LeverageState: levState,
		Weights:       testUtils.Weights(),
	}
}

func TestSplitSegmentsSmallFillIsOneSegment(t *testing.T) {
	segments, err := helpers.SplitSegments(splitParams(
		big.NewInt(1_000), testUtils.DefaultLiquidity, true,
	))
	assert.NoError(t, err)
	assert.Len(t, segments, 1)
}

func TestSplitSegmentsAmountsSumToInput(t *testing.T) {
	// Liquidity of 2^80 makes the slice step 2^10, so a 10_240 fill
	// splits into ten segments.
	liquidity := new(big.Int).Lsh(big.NewInt(1), 80)
	amountIn := big.NewInt(10_240)

	segments, err := helpers.SplitSegments(splitParams(amountIn, liquidity, true))
	assert.NoError(t, err)
	assert.Len(t, segments, 10)

	sum := new(big.Int)
	for i, seg := range segments {
		assert.Equal(t, i, seg.Index)
		sum.Add(sum, seg.AmountIn)
	}
	assert.Equal(t, 0, sum.Cmp(amountIn))
}

func TestSplitSegmentsCapped(t *testing.T) {
	liquidity := new(big.Int).Lsh(big.NewInt(1), 80)
	amountIn := new(big.Int).Lsh(big.NewInt(1), 30) // far beyond the cap

	segments, err := helpers.SplitSegments(splitParams(amountIn, liquidity, true))
	assert.NoError(t, err)
	assert.Len(t, segments, constants.MaxSegmentsPerHop)
}

func TestSplitSegmentsBoundariesChain(t *testing.T) {
	liquidity := new(big.Int).Lsh(big.NewInt(1), 80)
	segments, err := helpers.SplitSegments(splitParams(big.NewInt(8_192), liquidity, true))
	assert.NoError(t, err)
	assert.Greater(t, len(segments), 1)

	for i := 1; i < len(segments); i++ {
		assert.Equal(t, 0, segments[i].SqrtPriceStart.Cmp(segments[i-1].SqrtPriceEnd))
	}
	// A-to-B fills walk the price down.
	last := segments[len(segments)-1]
	assert.Equal(t, -1, last.SqrtPriceEnd.Cmp(segments[0].SqrtPriceStart))
}

func TestSplitSegmentsWorkTelescopes(t *testing.T) {
	// Summed per-segment work must equal the endpoint-to-endpoint work;
	// intermediate boundaries cancel exactly at decimal precision.
	liquidity := new(big.Int).Lsh(big.NewInt(1), 80)
	segments, err := helpers.SplitSegments(splitParams(big.NewInt(8_192), liquidity, true))
	assert.NoError(t, err)

	timeState, levState := testUtils.NeutralDomains()
	first := types.MarketState{
		Spot:     helpers.SpotStateAt(segments[0].SqrtPriceStart),
		Time:     timeState,
		Leverage: levState,
	}
	last := types.MarketState{
		Spot:     helpers.SpotStateAt(segments[len(segments)-1].SqrtPriceEnd),
		Time:     timeState,
		Leverage: levState,
	}
	want, err := maths.Work(first, last, testUtils.Weights())
	assert.NoError(t, err)

	total := maths.AccumulateWork(segments).Total
	assert.True(t, total.Equal(want), "sum %s endpoint %s", total, want)
}

func TestSplitSegmentsDirection(t *testing.T) {
	up, err := helpers.SplitSegments(splitParams(big.NewInt(1_000_000), testUtils.DefaultLiquidity, false))
	assert.NoError(t, err)
	down, err := helpers.SplitSegments(splitParams(big.NewInt(1_000_000), testUtils.DefaultLiquidity, true))
	assert.NoError(t, err)

	assert.Equal(t, 1, up[len(up)-1].SqrtPriceEnd.Cmp(testUtils.SqrtPriceOne))
	assert.Equal(t, -1, down[len(down)-1].SqrtPriceEnd.Cmp(testUtils.SqrtPriceOne))
}
