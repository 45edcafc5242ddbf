package helpers

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/FeelsDEX/feels-sub005/constants"
	"github.com/FeelsDEX/feels-sub005/maths"
	"github.com/FeelsDEX/feels-sub005/types"
)

var half = decimal.New(5, -1)

// SpotStateAt derives the spot domain from a Q64.64 sqrt price. The
// two sub-components are the price and its reciprocal at equal weight,
// so the aggregate (p + 1/p)/2 is strictly positive for any live pool.
func SpotStateAt(sqrtPrice *big.Int) types.DomainState {
	p := maths.SqrtPriceToPrice(sqrtPrice)
	return types.DomainState{Components: []types.Component{
		{Weight: half, Value: p},
		{Weight: half, Value: decimal.NewFromInt(1).DivRound(p, constants.PotentialPrecision)},
	}}
}

// SplitSegmentsParams bundles the inputs of a hop segmentation.
type SplitSegmentsParams struct {
	AmountIn  *big.Int
	SqrtPrice *big.Int
	Liquidity *big.Int
	AtoB      bool

	// Posted scalars for the non-spot domains; constant across the
	// hop's segments.
	TimeState     types.DomainState
	LeverageState types.DomainState

	Weights types.DomainWeights

	// MaxSegments bounds the split; 0 means MaxSegmentsPerHop.
	MaxSegments int
}

// segmentCount sizes the split so larger fills get more segments, one
// segment per ~1/64 of pool liquidity consumed, capped.
func segmentCount(amountIn, liquidity *big.Int, maxSegments int) int {
	if maxSegments <= 0 {
		maxSegments = constants.MaxSegmentsPerHop
	}
	step := new(big.Int).Rsh(liquidity, constants.ScaleOffset+6)
	if step.Sign() <= 0 {
		return 1
	}
	n := new(big.Int).Div(amountIn, step)
	if n.Sign() <= 0 {
		return 1
	}
	if !n.IsInt64() || n.Int64() >= int64(maxSegments) {
		return maxSegments
	}
	return int(n.Int64())
}

// SplitSegments slices a hop's fill into an ordered segment sequence,
// steps the sqrt price through each slice, and computes per-segment
// work from the potential at the slice boundaries. Segmentation is
// orthogonal to hop count — the router bounds hops, this bounds
// resolution within one hop.
func SplitSegments(param SplitSegmentsParams) ([]types.Segment, error) {
	n := segmentCount(param.AmountIn, param.Liquidity, param.MaxSegments)

	slice := new(big.Int).Div(param.AmountIn, big.NewInt(int64(n)))
	remainder := new(big.Int).Mod(param.AmountIn, big.NewInt(int64(n)))

	segments := make([]types.Segment, 0, n)
	sqrtPrice := new(big.Int).Set(param.SqrtPrice)

	prev := types.MarketState{
		Spot:     SpotStateAt(sqrtPrice),
		Time:     param.TimeState,
		Leverage: param.LeverageState,
	}

	for i := 0; i < n; i++ {
		amount := new(big.Int).Set(slice)
		if i == n-1 {
			amount.Add(amount, remainder)
		}

		next := GetNextSqrtPrice(amount, sqrtPrice, param.Liquidity, param.AtoB)
		cur := types.MarketState{
			Spot:     SpotStateAt(next),
			Time:     param.TimeState,
			Leverage: param.LeverageState,
		}

		work, err := maths.Work(prev, cur, param.Weights)
		if err != nil {
			return nil, err
		}

		segments = append(segments, types.Segment{
			Index:          i,
			AmountIn:       amount,
			SqrtPriceStart: sqrtPrice,
			SqrtPriceEnd:   next,
			Work:           work,
		})

		sqrtPrice = next
		prev = cur
	}

	return segments, nil
}
