package feels

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/FeelsDEX/feels-sub005/constants"
	"github.com/FeelsDEX/feels-sub005/types"
)

// ln2 at potential precision, for the decay exponent.
var ln2 = func() decimal.Decimal {
	v, err := decimal.NewFromInt(2).Ln(constants.PotentialPrecision)
	if err != nil {
		panic(err)
	}
	return v
}()

// RiskGuard throttles JIT exposure: it decays the directional-flow
// accumulator, scales offered liquidity against accumulated toxicity,
// meters the per-epoch deployment budget, and owns the volatility
// circuit breaker. All methods mutate the staged state only; the host
// commit makes them durable.
type RiskGuard struct{}

// DecayFlow applies exponential decay with the policy half-life.
// Decay runs on its own clock, independent of the breaker state.
// TODO(product): confirm whether decay should pause while the breaker
// is tripped; treated as independent signals for now.
func (RiskGuard) DecayFlow(st *types.ToxicityState, now int64) {
	dt := now - st.LastDecay
	if dt <= 0 {
		return
	}
	st.LastDecay = now
	if st.Flow.Sign() == 0 {
		return
	}
	// factor = exp(-dt·ln2 / half_life)
	exponent := decimal.NewFromInt(dt).
		Mul(ln2).
		DivRound(decimal.NewFromInt(constants.ToxicityHalfLifeSec), constants.PotentialPrecision).
		Neg()
	factor, err := exponent.ExpTaylor(constants.PotentialPrecision)
	if err != nil {
		st.Flow = decimal.Zero
		return
	}
	st.Flow = st.Flow.Mul(factor)
}

// RecordFill accumulates realized directional flow against a JIT fill.
// A-to-B flow counts positive, B-to-A negative.
func (RiskGuard) RecordFill(st *types.ToxicityState, direction types.TradeDirection, notional decimal.Decimal) {
	if direction == types.AtoB {
		st.Flow = st.Flow.Add(notional)
	} else {
		st.Flow = st.Flow.Sub(notional)
	}
}

// ScaleLiquidity shrinks the liquidity JIT may offer for a trade in
// the given direction. Offered size is untouched below the threshold,
// then steps down linearly and reaches zero at four thresholds of
// accumulated same-direction flow. Opposite-direction trades are not
// throttled.
func (RiskGuard) ScaleLiquidity(
	st types.ToxicityState,
	cfg types.PoolConfig,
	desired *big.Int,
	direction types.TradeDirection,
) *big.Int {
	if desired.Sign() <= 0 || cfg.ToxicityThreshold.Sign() <= 0 {
		return new(big.Int).Set(desired)
	}

	flow := st.Flow
	if direction == types.BtoA {
		flow = flow.Neg()
	}
	if flow.LessThanOrEqual(cfg.ToxicityThreshold) {
		return new(big.Int).Set(desired)
	}

	// scale = 1 - (flow - thr) / (3·thr), floored at zero
	excess := flow.Sub(cfg.ToxicityThreshold)
	span := cfg.ToxicityThreshold.Mul(decimal.NewFromInt(3))
	scale := decimal.NewFromInt(1).Sub(excess.DivRound(span, constants.PotentialPrecision))
	if scale.Sign() <= 0 {
		return new(big.Int)
	}

	scaled := decimal.NewFromBigInt(desired, 0).Mul(scale).Floor()
	return scaled.BigInt()
}

// ChargeBudget meters cumulative JIT liquidity deployed this epoch
// against the configured ceiling.
func (RiskGuard) ChargeBudget(st *types.ToxicityState, cfg types.PoolConfig, liquidity *big.Int) error {
	next := new(big.Int).Add(st.EpochDeployed, liquidity)
	if cfg.JitEpochBudget != nil && next.Cmp(cfg.JitEpochBudget) > 0 {
		return fmt.Errorf("deployed %s of %s: %w", next, cfg.JitEpochBudget, types.ErrBudgetExceeded)
	}
	st.EpochDeployed = next
	return nil
}

// UpdateBreaker trips the breaker when the realized move over the
// observation window exceeds the policy threshold, and clears it after
// the cool-down. A tripped breaker is a hard override: no JIT, no
// rebates, independent of toxicity scaling.
func (RiskGuard) UpdateBreaker(st *types.ToxicityState, moveBps int64, now int64) {
	if st.BreakerActive {
		if now-st.BreakerSince >= constants.BreakerCooldownSec {
			st.BreakerActive = false
		} else {
			return
		}
	}
	if moveBps >= constants.BreakerMoveBps {
		st.BreakerActive = true
		st.BreakerSince = now
	}
}

// RollEpoch resets the budget counter on an epoch boundary.
func (RiskGuard) RollEpoch(st *types.ToxicityState, epochRebatePaid *big.Int, now int64) {
	if now-st.EpochStart < constants.EpochDurationSec {
		return
	}
	st.EpochStart = now - now%constants.EpochDurationSec
	st.EpochDeployed = new(big.Int)
	epochRebatePaid.Set(new(big.Int))
}

// RemainingBudget reports what is left of the epoch ceiling.
func (RiskGuard) RemainingBudget(st types.ToxicityState, cfg types.PoolConfig) *big.Int {
	if cfg.JitEpochBudget == nil {
		return new(big.Int).Lsh(big.NewInt(1), 127)
	}
	rem := new(big.Int).Sub(cfg.JitEpochBudget, st.EpochDeployed)
	if rem.Sign() < 0 {
		return new(big.Int)
	}
	return rem
}
