package feels

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/FeelsDEX/feels-sub005/constants"
	"github.com/FeelsDEX/feels-sub005/helpers"
	"github.com/FeelsDEX/feels-sub005/maths"
	"github.com/FeelsDEX/feels-sub005/types"
)

// JitManager prices and places the per-trade liquidity band. A band
// lives entirely inside one transaction: Idle -> Pricing -> Opened ->
// Filled -> Closed, or Idle -> Rejected when the risk guard vetoes.
type JitManager struct {
	guard RiskGuard
	open  int
}

func NewJitManager() *JitManager {
	return &JitManager{}
}

// OpenCount reports bands currently open. It must be zero at the end
// of every transaction; anything else is a band leak.
func (m *JitManager) OpenCount() int {
	return m.open
}

// PriceBandParams bundles the pricing inputs.
type PriceBandParams struct {
	Gtwap     *maths.Gtwap
	Now       int64
	Direction types.TradeDirection

	// AmountIn is the fill size net of fee; the band is sized to meet
	// it, then scaled down by accumulated toxicity.
	AmountIn *big.Int

	Config   types.PoolConfig
	Toxicity types.ToxicityState
}

// PriceBand derives the band from the GTWAP. The window spans multiple
// independent slot observations, so a single-slot price push cannot
// move the center. The band sits contrarian to the trade: above the
// average for A->B flow (which pushes price down), below it for B->A.
func (m *JitManager) PriceBand(param PriceBandParams) (types.JitBand, error) {
	center, err := param.Gtwap.Price(param.Now)
	if err != nil {
		return types.JitBand{Phase: types.JitRejected}, err
	}

	offset := decimal.New(constants.JitOffsetBps, -4)
	var placed decimal.Decimal
	if param.Direction == types.AtoB {
		placed = center.Mul(decimal.NewFromInt(1).Add(offset))
	} else {
		placed = center.Mul(decimal.NewFromInt(1).Sub(offset))
	}

	centerTick, err := maths.PriceToTick(placed)
	if err != nil {
		return types.JitBand{Phase: types.JitRejected}, err
	}

	band := types.JitBand{Phase: types.JitPricing}
	if param.Direction == types.AtoB {
		band.TickLower = centerTick
		band.TickUpper = centerTick + constants.JitWidthTicks
	} else {
		band.TickLower = centerTick - constants.JitWidthTicks
		band.TickUpper = centerTick
	}

	sqrtLower := maths.TickToSqrtPrice(band.TickLower)
	sqrtUpper := maths.TickToSqrtPrice(band.TickUpper)

	var desired *big.Int
	if param.Direction == types.AtoB {
		desired = helpers.GetLiquidityDeltaFromAmountA(param.AmountIn, sqrtLower, sqrtUpper)
	} else {
		desired = helpers.GetLiquidityDeltaFromAmountB(param.AmountIn, sqrtLower, sqrtUpper)
	}

	band.Liquidity = m.guard.ScaleLiquidity(param.Toxicity, param.Config, desired, param.Direction)
	if band.Liquidity.Sign() <= 0 {
		band.Phase = types.JitRejected
		band.Liquidity = new(big.Int)
	}
	return band, nil
}

// BandGuard is the scoped handle returned by OpenBand. Release is
// idempotent and must run on every exit path of the enclosing swap —
// the engine defers it the moment the band opens, which is what makes
// a dangling band structurally impossible rather than merely caught.
type BandGuard struct {
	band     *types.JitBand
	released bool
	manager  *JitManager
}

// Band exposes the guarded band.
func (g *BandGuard) Band() *types.JitBand {
	return g.band
}

// MarkFilled advances the band after the swap executed against it.
func (g *BandGuard) MarkFilled() {
	if g.band.Phase == types.JitOpened {
		g.band.Phase = types.JitFilled
	}
}

// Release removes the band's liquidity and closes it.
func (g *BandGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.manager.open--
	g.band.Phase = types.JitClosed
}

// OpenBand deposits the priced band and hands back its guard.
func (m *JitManager) OpenBand(band types.JitBand) *BandGuard {
	b := band
	b.Phase = types.JitOpened
	m.open++
	return &BandGuard{band: &b, manager: m}
}

// FillAgainstBand executes as much of amountIn as the band can absorb.
// The fill touches only this band: traversal is clamped at the far
// edge and any residual input is the caller's to route elsewhere.
// Returns output produced and input consumed, both rounded toward the
// band.
func FillAgainstBand(amountIn *big.Int, band types.JitBand, direction types.TradeDirection) (out, used *big.Int) {
	lower := maths.TickToSqrtPrice(band.TickLower)
	upper := maths.TickToSqrtPrice(band.TickUpper)
	liq := band.Liquidity

	if direction == types.AtoB {
		// Enter at the top edge, price walks down.
		next := helpers.GetNextSqrtPrice(amountIn, upper, liq, true)
		if next.Cmp(lower) < 0 {
			out = helpers.GetAmountBFromLiquidityDelta(liq, upper, lower, types.RoundingDown)
			used = new(big.Int).Set(maths.MinBig(
				helpers.GetAmountAFromLiquidityDelta(liq, lower, upper, types.RoundingUp),
				amountIn,
			))
			return out, used
		}
		out = helpers.GetAmountBFromLiquidityDelta(liq, upper, next, types.RoundingDown)
		return out, new(big.Int).Set(amountIn)
	}

	// Enter at the bottom edge, price walks up.
	next := helpers.GetNextSqrtPrice(amountIn, lower, liq, false)
	if next.Cmp(upper) > 0 {
		out = helpers.GetAmountAFromLiquidityDelta(liq, lower, upper, types.RoundingDown)
		used = new(big.Int).Set(maths.MinBig(
			helpers.GetAmountBFromLiquidityDelta(liq, upper, lower, types.RoundingUp),
			amountIn,
		))
		return out, used
	}
	out = helpers.GetAmountAFromLiquidityDelta(liq, lower, next, types.RoundingDown)
	return out, new(big.Int).Set(amountIn)
}
