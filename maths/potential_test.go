package maths_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/FeelsDEX/feels-sub005/maths"
	"github.com/FeelsDEX/feels-sub005/types"

	testUtils "github.com/FeelsDEX/feels-sub005/internal/test/utils"
)

func marketState(spot, timeVal, levVal float64) types.MarketState {
	return types.MarketState{
		Spot: types.DomainState{Components: []types.Component{
			{Weight: decimal.NewFromInt(1), Value: decimal.NewFromFloat(spot)},
		}},
		Time:     testUtils.TimeState(timeVal, timeVal),
		Leverage: testUtils.LeverageState(levVal, levVal),
	}
}

func TestAggregate(t *testing.T) {
	t.Run("weighted sum", func(t *testing.T) {
		v, err := maths.Aggregate(testUtils.TimeState(2, 4))
		assert.NoError(t, err)
		// 0.6*2 + 0.4*4 = 2.8
		assert.True(t, v.Equal(decimal.NewFromFloat(2.8)), "got %s", v)
	})

	t.Run("non-positive aggregate is a domain error", func(t *testing.T) {
		_, err := maths.Aggregate(types.DomainState{Components: []types.Component{
			{Weight: decimal.NewFromInt(1), Value: decimal.Zero},
		}})
		assert.ErrorIs(t, err, types.ErrDomain)
	})
}

func TestValidateWeights(t *testing.T) {
	assert.NoError(t, maths.ValidateWeights(testUtils.Weights()))

	bad := testUtils.Weights()
	bad.Leverage = decimal.NewFromFloat(0.3)
	assert.Error(t, maths.ValidateWeights(bad))
}

func TestPotentialNeutralIsZero(t *testing.T) {
	// All domains aggregate to 1, every log term vanishes.
	v, err := maths.Potential(marketState(1, 1, 1), testUtils.Weights())
	assert.NoError(t, err)
	assert.True(t, v.Abs().LessThan(decimal.New(1, -20)), "got %s", v)
}

func TestPotentialDecreasesWithSpot(t *testing.T) {
	w := testUtils.Weights()
	lo, err := maths.Potential(marketState(1, 1, 1), w)
	assert.NoError(t, err)
	hi, err := maths.Potential(marketState(2, 1, 1), w)
	assert.NoError(t, err)
	// V carries a negative spot log term, so a larger aggregate means
	// a lower potential.
	assert.True(t, hi.LessThan(lo), "V(2)=%s V(1)=%s", hi, lo)
}

func TestWorkAntisymmetry(t *testing.T) {
	w := testUtils.Weights()
	a := marketState(1.5, 1, 2)
	b := marketState(0.7, 3, 1)

	ab, err := maths.Work(a, b, w)
	assert.NoError(t, err)
	ba, err := maths.Work(b, a, w)
	assert.NoError(t, err)

	assert.True(t, ab.Add(ba).IsZero(), "W(a,b)=%s W(b,a)=%s", ab, ba)
}

func TestAccumulateWorkSplit(t *testing.T) {
	segments := []types.Segment{
		{Work: decimal.NewFromFloat(0.4)},
		{Work: decimal.NewFromFloat(-0.1)},
		{Work: decimal.NewFromFloat(0.25)},
		{Work: decimal.NewFromFloat(-0.3)},
	}
	out := maths.AccumulateWork(segments)

	assert.True(t, out.Total.Equal(decimal.NewFromFloat(0.25)), "total %s", out.Total)
	assert.True(t, out.Up.Equal(decimal.NewFromFloat(0.65)), "up %s", out.Up)
	assert.True(t, out.Down.Equal(decimal.NewFromFloat(0.4)), "down %s", out.Down)
	assert.True(t, out.Total.Equal(out.Up.Sub(out.Down)))
}
