package types

type PoolType uint8

const (
	Stable PoolType = iota
	Normal
	Volatile
)

type TradeDirection uint8

const (
	AtoB TradeDirection = iota
	BtoA
)

type Rounding uint8

const (
	RoundingDown Rounding = iota
	RoundingUp
)

type JitPhase uint8

const (
	JitIdle JitPhase = iota
	JitPricing
	JitOpened
	JitFilled
	JitClosed
	JitRejected
)

type PriceMapSource uint8

const (
	SourceDirect PriceMapSource = iota
	SourceCommitted
)

type RouteKind uint8

const (
	RouteDirect RouteKind = iota
	RouteTwoHop
)
