package testutils

import (
	"math"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/FeelsDEX/feels-sub005/constants"
	"github.com/FeelsDEX/feels-sub005/maths"
	"github.com/FeelsDEX/feels-sub005/types"
)

// Clock is a controllable host clock for tests and the simulator.
type Clock struct {
	Ts    int64
	SlotN uint64
}

func (c *Clock) Now() int64   { return c.Ts }
func (c *Clock) Slot() uint64 { return c.SlotN }

// Advance moves time forward and bumps the slot.
func (c *Clock) Advance(secs int64) {
	c.Ts += secs
	c.SlotN += uint64(secs) * 2 // ~2 slots per second
}

// Weights is the default governance weight set.
func Weights() types.DomainWeights {
	return types.DomainWeights{
		Spot:     decimal.NewFromFloat(0.5),
		Time:     decimal.NewFromFloat(0.3),
		Leverage: decimal.NewFromFloat(0.2),
		Version:  1,
	}
}

// TimeState builds a two-bucket duration domain at the given values.
func TimeState(short, long float64) types.DomainState {
	return types.DomainState{Components: []types.Component{
		{Weight: decimal.NewFromFloat(0.6), Value: decimal.NewFromFloat(short)},
		{Weight: decimal.NewFromFloat(0.4), Value: decimal.NewFromFloat(long)},
	}}
}

// LeverageState builds the {long, short} leverage domain.
func LeverageState(longVal, shortVal float64) types.DomainState {
	return types.DomainState{Components: []types.Component{
		{Weight: decimal.NewFromFloat(0.5), Value: decimal.NewFromFloat(longVal)},
		{Weight: decimal.NewFromFloat(0.5), Value: decimal.NewFromFloat(shortVal)},
	}}
}

// NeutralDomains is the pair of posted domain states that leaves the
// non-spot potential terms at zero (value 1 aggregates, ln 1 = 0).
func NeutralDomains() (types.DomainState, types.DomainState) {
	return TimeState(1, 1), LeverageState(1, 1)
}

// PoolConfig builds a config for the pool type with policy caps wide
// open except where a test narrows them.
func PoolConfig(poolType types.PoolType) types.PoolConfig {
	base := map[types.PoolType]uint16{
		types.Stable:   5,
		types.Normal:   25,
		types.Volatile: 80,
	}[poolType]
	return types.PoolConfig{
		PoolType:               poolType,
		BaseBps:                base,
		MaxSurchargeBps:        200,
		MaxInstantaneousFeeBps: 300,
		RebateEta:              decimal.NewFromFloat(0.5),
		KappaClamp:             decimal.NewFromFloat(0.9),
		PerTxRebateCap:         big.NewInt(1_000_000),
		EpochRebateCap:         big.NewInt(10_000_000),
		JitEpochBudget:         new(big.Int).Lsh(big.NewInt(1), 100),
		ToxicityThreshold:      decimal.NewFromInt(50_000_000),
		ConservativeSpreadBps:  10,
	}
}

// Pool builds a hub-sided pool at price 1 with deep liquidity.
func Pool(hub, token solana.PublicKey, poolType types.PoolType) *types.Pool {
	return &types.Pool{
		Market:    solana.NewWallet().PublicKey(),
		TokenA:    token,
		TokenB:    hub,
		SqrtPrice: new(big.Int).Set(SqrtPriceOne),
		Liquidity: new(big.Int).Set(DefaultLiquidity),
		Config:    PoolConfig(poolType),
	}
}

// ProtocolState builds a funded protocol context with the floor
// initialized from the reserve ratio.
func ProtocolState(reserves, supply, buffer uint64) *types.ProtocolState {
	st := &types.ProtocolState{
		Reserves:          uint256.NewInt(reserves),
		CirculatingSupply: uint256.NewInt(supply),
		Buffer:            types.BufferAccount{Balance: uint256.NewInt(buffer)},
		Floor:             types.FloorState{FloorTick: math.MinInt32},
		Toxicity: types.ToxicityState{
			Flow:          decimal.Zero,
			EpochDeployed: new(big.Int),
		},
		EpochRebatePaid: new(big.Int),
	}
	if supply > 0 {
		price := decimal.NewFromUint64(reserves).
			DivRound(decimal.NewFromUint64(supply), constants.PotentialPrecision)
		if tick, err := maths.PriceToTick(price); err == nil {
			st.Floor = types.FloorState{FloorTick: tick, FloorPrice: price}
		}
	}
	return st
}
