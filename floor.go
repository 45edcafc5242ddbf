package feels

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/FeelsDEX/feels-sub005/constants"
	"github.com/FeelsDEX/feels-sub005/maths"
	"github.com/FeelsDEX/feels-sub005/types"
)

// ComputeFloorPrice is the redemption floor:
//
//	floor_price = protocol_reserves / circulating_supply
func ComputeFloorPrice(reserves, supply *uint256.Int) (decimal.Decimal, error) {
	if supply == nil || supply.IsZero() {
		return decimal.Zero, types.ErrDomain
	}
	r := decimal.NewFromBigInt(reserves.ToBig(), 0)
	s := decimal.NewFromBigInt(supply.ToBig(), 0)
	return r.DivRound(s, constants.PotentialPrecision), nil
}

// RatchetFloor recomputes the floor after a settlement that changed
// reserves or supply and applies it only when the tick does not fall.
// A lower computed tick is clamped: the prior floor is retained and
// no error is raised, since fee surplus legitimately fluctuates.
func RatchetFloor(st *types.FloorState, reserves, supply *uint256.Int) (bool, error) {
	price, err := ComputeFloorPrice(reserves, supply)
	if err != nil {
		return false, err
	}
	tick, err := maths.PriceToTick(price)
	if err != nil {
		return false, err
	}
	if tick < st.FloorTick {
		return false, nil
	}
	st.FloorTick = tick
	st.FloorPrice = price
	return true, nil
}

// SetFloor is the explicit setter used by governance-style updates.
// Unlike settlement accrual it rejects a lowering outright.
func SetFloor(st *types.FloorState, tick int32, price decimal.Decimal) error {
	if tick < st.FloorTick {
		return fmt.Errorf("tick %d below current %d: %w", tick, st.FloorTick, types.ErrFloorViolation)
	}
	st.FloorTick = tick
	st.FloorPrice = price
	return nil
}

// RepositionSupport moves the support band to hug the lower edge of
// the active trading range. No monotonicity: it follows the range both
// ways, independent of the floor.
func RepositionSupport(sb *types.SupportBand, activeTick int32, widthTicks int32) {
	if widthTicks <= 0 {
		widthTicks = constants.JitWidthTicks
	}
	sb.TickUpper = activeTick
	sb.TickLower = activeTick - widthTicks
}
