package feels_test

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	feels "github.com/FeelsDEX/feels-sub005"
	"github.com/FeelsDEX/feels-sub005/types"
)

func TestComputeFloorPrice(t *testing.T) {
	price, err := feels.ComputeFloorPrice(uint256.NewInt(500_000), uint256.NewInt(1_000_000))
	assert.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(0.5)), "got %s", price)

	_, err = feels.ComputeFloorPrice(uint256.NewInt(500_000), uint256.NewInt(0))
	assert.ErrorIs(t, err, types.ErrDomain)
}

func TestRatchetFloorRaisesWithReserves(t *testing.T) {
	st := types.FloorState{FloorTick: math.MinInt32}
	supply := uint256.NewInt(1_000_000)

	raised, err := feels.RatchetFloor(&st, uint256.NewInt(500_000), supply)
	assert.NoError(t, err)
	assert.True(t, raised)
	tickAtHalf := st.FloorTick
	assert.True(t, st.FloorPrice.Equal(decimal.NewFromFloat(0.5)))

	// Reserves accrue to 510_000: the floor follows to 0.51.
	raised, err = feels.RatchetFloor(&st, uint256.NewInt(510_000), supply)
	assert.NoError(t, err)
	assert.True(t, raised)
	assert.Greater(t, st.FloorTick, tickAtHalf)
	assert.True(t, st.FloorPrice.Equal(decimal.NewFromFloat(0.51)), "got %s", st.FloorPrice)
}

func TestRatchetFloorClampsOnDrop(t *testing.T) {
	st := types.FloorState{FloorTick: math.MinInt32}
	supply := uint256.NewInt(1_000_000)

	_, err := feels.RatchetFloor(&st, uint256.NewInt(510_000), supply)
	assert.NoError(t, err)
	tick, price := st.FloorTick, st.FloorPrice

	// A lower ratio clamps silently: no error, floor retained.
	raised, err := feels.RatchetFloor(&st, uint256.NewInt(400_000), supply)
	assert.NoError(t, err)
	assert.False(t, raised)
	assert.Equal(t, tick, st.FloorTick)
	assert.True(t, st.FloorPrice.Equal(price))
}

func TestSetFloorRejectsLowering(t *testing.T) {
	st := types.FloorState{FloorTick: 100, FloorPrice: decimal.NewFromFloat(1.01)}

	err := feels.SetFloor(&st, 50, decimal.NewFromFloat(1.005))
	assert.ErrorIs(t, err, types.ErrFloorViolation)
	assert.Equal(t, int32(100), st.FloorTick)

	assert.NoError(t, feels.SetFloor(&st, 150, decimal.NewFromFloat(1.015)))
	assert.Equal(t, int32(150), st.FloorTick)
}

func TestRepositionSupportFollowsRange(t *testing.T) {
	var sb types.SupportBand

	feels.RepositionSupport(&sb, 200, 10)
	assert.Equal(t, int32(200), sb.TickUpper)
	assert.Equal(t, int32(190), sb.TickLower)

	// Moves down too; the support band is not ratcheted.
	feels.RepositionSupport(&sb, -40, 10)
	assert.Equal(t, int32(-40), sb.TickUpper)
	assert.Equal(t, int32(-50), sb.TickLower)
}
