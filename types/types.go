package types

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Component is one weighted sub-component of a market domain, e.g. the
// {a, b} legs of the spot domain or a single duration bucket.
type Component struct {
	Weight decimal.Decimal
	Value  decimal.Decimal
}

// DomainState is one of the three legs of the market triple. Component
// weights are expected to sum to 1; the aggregate is their weighted sum.
type DomainState struct {
	Components []Component
}

// MarketState is the triple P = (S, T, L) the potential is evaluated on.
// It is only ever produced as a pure transform of pre/post trade values,
// never persisted mid-calculation.
type MarketState struct {
	Spot     DomainState
	Time     DomainState
	Leverage DomainState
}

// DomainWeights are the normalized (ŵ_s, ŵ_t, ŵ_l) policy constants.
// Changed only by governance; Version identifies the active set.
type DomainWeights struct {
	Spot     decimal.Decimal
	Time     decimal.Decimal
	Leverage decimal.Decimal
	Version  uint32
}

// PoolConfig is protocol-owned per-market policy, immutable within an
// epoch and loaded at the start of each trade.
type PoolConfig struct {
	PoolType               PoolType
	BaseBps                uint16
	MaxSurchargeBps        uint16
	MaxInstantaneousFeeBps uint16

	// RebateEta is η, the rebate participation fraction in [0,1].
	RebateEta decimal.Decimal
	// KappaClamp is κ, the max fraction of measured price improvement
	// payable as rebate, in (0,1].
	KappaClamp decimal.Decimal

	PerTxRebateCap *big.Int
	EpochRebateCap *big.Int

	// JitEpochBudget caps cumulative JIT liquidity deployed per epoch.
	JitEpochBudget *big.Int
	// ToxicityThreshold is where liquidity scaling starts biting.
	ToxicityThreshold decimal.Decimal

	// ConservativeSpreadBps is added on top of BaseBps while the
	// fallback controller is active.
	ConservativeSpreadBps uint16
}

// Pool is the mutable per-market pool state the engine trades against.
type Pool struct {
	Market solana.PublicKey
	TokenA solana.PublicKey
	TokenB solana.PublicKey

	SqrtPrice *big.Int // Q64.64
	Liquidity *big.Int // Q64.64

	Config PoolConfig
}

// BufferAccount is the protocol reserve τ that sources rebates and
// absorbs fees. The balance is authoritative and never goes negative;
// uint256 makes underflow an explicit error rather than a wrap.
type BufferAccount struct {
	Balance *uint256.Int
}

// FloorState carries the monotone redemption floor.
type FloorState struct {
	FloorTick  int32
	FloorPrice decimal.Decimal
}

// SupportBand sits near the edge of the active trading range. It is
// repositioned freely; only the floor is ratcheted.
type SupportBand struct {
	TickLower int32
	TickUpper int32
}

// JitBand is the ephemeral liquidity position placed around one trade.
// It never survives the transaction that created it.
type JitBand struct {
	TickLower int32
	TickUpper int32
	Liquidity *big.Int
	Phase     JitPhase
}

// ToxicityState is the rolling directional-flow accumulator plus the
// epoch budget counter and circuit-breaker flag.
type ToxicityState struct {
	// Flow is signed; positive means flow against JIT in the A->B
	// direction. Decays exponentially on the host clock.
	Flow      decimal.Decimal
	LastDecay int64

	EpochStart    int64
	EpochDeployed *big.Int

	BreakerActive bool
	BreakerSince  int64
}

// FallbackState tracks base-fee-only degradation.
type FallbackState struct {
	Active          bool
	Since           int64
	LastValidUpdate int64
}

// ProtocolState is the explicit mutable context threaded through every
// swap: hub reserves and supply (the floor inputs), the buffer, and the
// guard states. One compare-and-commit per transaction; never a hidden
// singleton.
type ProtocolState struct {
	Reserves          *uint256.Int
	CirculatingSupply *uint256.Int

	Buffer   BufferAccount
	Floor    FloorState
	Support  SupportBand
	Toxicity ToxicityState
	Fallback FallbackState

	EpochRebatePaid *big.Int
}

// Leg is one hop of a resolved route.
type Leg struct {
	From   solana.PublicKey
	To     solana.PublicKey
	Market solana.PublicKey
}

// Route is the hub-constrained path: one leg when either side is the
// hub, two legs otherwise. Never more.
type Route struct {
	Kind RouteKind
	Legs []Leg
}

// Segment is one slice of a hop's fill in sqrt-price space.
type Segment struct {
	Index          int
	AmountIn       *big.Int
	SqrtPriceStart *big.Int
	SqrtPriceEnd   *big.Int
	Work           decimal.Decimal
}

// WorkBreakdown decomposes signed work over the executed segments.
// Total == Up - Down exactly, at decimal precision.
type WorkBreakdown struct {
	Total decimal.Decimal
	Up    decimal.Decimal
	Down  decimal.Decimal
}

// PriceMap carries the marginal price maps Π_in / Π_out for the state
// range actually traversed, in token units per work unit.
type PriceMap struct {
	In     decimal.Decimal
	Out    decimal.Decimal
	Source PriceMapSource
}

// SwapParams is the decoded swap instruction plus host-posted scalars
// for the time and leverage domains.
type SwapParams struct {
	From         solana.PublicKey
	To           solana.PublicKey
	AmountIn     *big.Int
	MinAmountOut *big.Int

	TimeState     DomainState
	LeverageState DomainState
}

// FeeBreakdown reports how the charged fee and paid rebate came about.
type FeeBreakdown struct {
	BaseBps   uint16
	DynBps    uint16
	FeeBps    uint16
	FeeAmount *big.Int

	Rebate *big.Int
	// RebateBound names the cap that bound the rebate: "raw", "kappa",
	// "per-tx", "epoch", or "buffer". Empty when no rebate was due.
	RebateBound string
}

// SwapOutcome is the caller-visible result of one atomic swap.
type SwapOutcome struct {
	AmountIn  *big.Int
	AmountOut *big.Int

	Fee  FeeBreakdown
	Work WorkBreakdown

	Route          RouteKind
	FloorTickAfter int32
	JitDeployed    *big.Int

	FallbackActive bool
	BreakerActive  bool
}
