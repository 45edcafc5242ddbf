package constants

import "math/big"

const (
	LiquidityScale = 128
	ScaleOffset    = 64
	BasisPointMax  = 10_000

	// Base fee per pool type, in basis points.
	StableBaseBps   = 5
	NormalBaseBps   = 25
	VolatileBaseBps = 80

	// Potential math runs on shopspring decimals at this many digits;
	// fee and rebate amounts are floored to integers at the boundary.
	PotentialPrecision = 24

	// Domain and component weight sets must sum to 1 within 10^-WeightToleranceExp.
	WeightToleranceExp = 12

	// Segments per hop are capped regardless of trade size.
	MaxSegmentsPerHop = 32

	// GTWAP window policy. Pricing refuses to run on fewer distinct
	// slot observations than the minimum.
	GtwapWindowSecs      = 300
	MinGtwapObservations = 4
	MaxGtwapObservations = 64

	// Committed approximations are rejected when the quadratic term
	// implies more curvature than this, in bps of the constant term.
	MaxCurvatureBps = 500

	// Toxicity accumulator half-life, seconds.
	ToxicityHalfLifeSec = 600

	// Circuit breaker: realized move over the GTWAP window that trips
	// it, and the cool-down before JIT and rebates come back.
	BreakerMoveBps     = 1_500 // 15%
	BreakerCooldownSec = 900

	// Fallback controller minimum dwell, seconds.
	FallbackMinDwellSec = 120

	// JIT band geometry defaults.
	JitWidthTicks    = 8
	JitOffsetBps     = 5
	EpochDurationSec = 86_400
)

// These are big.Int values, initialized via SetString
var (
	// MinSqrtPrice
	//  MinSqrtPrice = new(big.Int).SetUint64(4295048016)
	MinSqrtPrice = new(big.Int).SetUint64(4295048016)

	// MaxSqrtPrice
	//  MaxSqrtPrice = new(big.Int).SetString("79226673521066979257578248091", 10)
	MaxSqrtPrice, _ = new(big.Int).SetString("79226673521066979257578248091", 10)
)
