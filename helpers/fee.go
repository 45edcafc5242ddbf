package helpers

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/FeelsDEX/feels-sub005/constants"
	"github.com/FeelsDEX/feels-sub005/maths"
	"github.com/FeelsDEX/feels-sub005/types"
)

// ComputeFeeParams bundles the inputs of the fee leg.
type ComputeFeeParams struct {
	AmountIn *big.Int
	Config   types.PoolConfig
	Work     types.WorkBreakdown
	PriceMap types.PriceMap

	// FallbackActive zeroes the dynamic surcharge and adds the
	// conservative spread on top of the base fee.
	FallbackActive bool
}

// ComputeFee converts uphill work into the charged fee.
//
// dyn_bps = clamp(w_up · Π_in / max(amount_in,1) · 10000, 0, MAX_SURCHARGE_BPS)
//
// fee_bps = min(base_bps + dyn_bps, MAX_INSTANTANEOUS_FEE)
//
// fee_amount = floor(amount_in · fee_bps / 10000)
//
// The fee amount always rounds down; surplus from rounding stays with
// the protocol.
func ComputeFee(param ComputeFeeParams) types.FeeBreakdown {
	out := types.FeeBreakdown{
		BaseBps: param.Config.BaseBps,
		Rebate:  new(big.Int),
	}

	if param.FallbackActive {
		out.FeeBps = param.Config.BaseBps + param.Config.ConservativeSpreadBps
		if out.FeeBps > param.Config.MaxInstantaneousFeeBps {
			out.FeeBps = param.Config.MaxInstantaneousFeeBps
		}
		out.FeeAmount = maths.BpsOf(param.AmountIn, out.FeeBps)
		return out
	}

	amountIn := decimal.NewFromBigInt(param.AmountIn, 0)
	if amountIn.LessThan(decimal.NewFromInt(1)) {
		amountIn = decimal.NewFromInt(1)
	}

	// w_up = max(W, 0) on the aggregate; downhill trades never pay a
	// surcharge even when individual segments went uphill.
	wUp := param.Work.Total
	if wUp.Sign() < 0 {
		wUp = decimal.Zero
	}

	dynBps := wUp.Mul(param.PriceMap.In).
		DivRound(amountIn, constants.PotentialPrecision).
		Mul(decimal.NewFromInt(constants.BasisPointMax)).
		Floor()
	out.DynBps = maths.ClampBps(dynBps.IntPart(), param.Config.MaxSurchargeBps)

	feeBps := uint32(param.Config.BaseBps) + uint32(out.DynBps)
	if feeBps > uint32(param.Config.MaxInstantaneousFeeBps) {
		feeBps = uint32(param.Config.MaxInstantaneousFeeBps)
	}
	out.FeeBps = uint16(feeBps)
	out.FeeAmount = maths.BpsOf(param.AmountIn, out.FeeBps)
	return out
}

// ComputeRebateParams bundles the inputs of the rebate leg.
type ComputeRebateParams struct {
	Config   types.PoolConfig
	Work     types.WorkBreakdown
	PriceMap types.PriceMap

	// PriceImprovement is output gained versus a base-fee-only
	// baseline for the same amount_in and route.
	PriceImprovement *big.Int
	// RemainingEpochCap is the unspent part of the epoch rebate cap.
	RemainingEpochCap *big.Int
	// BufferBalance is the buffer's spendable balance.
	BufferBalance *big.Int
}

// ComputeRebate sizes the rebate for a downhill move as an ordered min:
//
//	rebate_raw = η · w_down · Π_out
//	rebate     = min(rebate_raw, κ·improvement, per_tx, epoch, buffer)
//
// It returns the floored amount and the name of the cap that bound it.
// Uphill moves and disabled participation yield zero.
func ComputeRebate(param ComputeRebateParams) (*big.Int, string) {
	if param.Work.Total.Sign() >= 0 || param.Config.RebateEta.Sign() <= 0 {
		return new(big.Int), ""
	}

	wDown := param.Work.Total.Neg()
	raw := param.Config.RebateEta.
		Mul(wDown).
		Mul(param.PriceMap.Out).
		Floor()
	rebate := raw.BigInt()
	if rebate.Sign() <= 0 {
		return new(big.Int), ""
	}
	bound := "raw"

	kappaCap := param.Config.KappaClamp.
		Mul(decimal.NewFromBigInt(param.PriceImprovement, 0)).
		Floor().
		BigInt()
	if kappaCap.Cmp(rebate) < 0 {
		rebate, bound = kappaCap, "kappa"
	}
	if param.Config.PerTxRebateCap.Cmp(rebate) < 0 {
		rebate, bound = param.Config.PerTxRebateCap, "per-tx"
	}
	if param.RemainingEpochCap.Cmp(rebate) < 0 {
		rebate, bound = param.RemainingEpochCap, "epoch"
	}
	if param.BufferBalance.Cmp(rebate) < 0 {
		rebate, bound = param.BufferBalance, "buffer"
	}

	if rebate.Sign() <= 0 {
		return new(big.Int), bound
	}
	return new(big.Int).Set(rebate), bound
}
