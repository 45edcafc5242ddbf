package types

import "errors"

// Failure taxonomy for the swap pipeline. ErrStaleCommitment and
// ErrCircuitBreakerTripped degrade pricing without aborting the trade;
// everything else aborts the whole atomic unit with no state mutation.
var (
	// ErrDomain: a non-positive S/T/L aggregate reached a logarithm.
	ErrDomain = errors.New("market state aggregate must be positive")

	// ErrInvalidRoute: no path of at most two hops through the hub.
	ErrInvalidRoute = errors.New("no route through hub")

	// ErrSlippageExceeded: output below the caller's minimum.
	ErrSlippageExceeded = errors.New("output below minimum")

	// ErrBudgetExceeded: per-epoch JIT deployment ceiling breached.
	ErrBudgetExceeded = errors.New("jit epoch budget exceeded")

	// ErrStaleCommitment: commitment verification failed.
	ErrStaleCommitment = errors.New("stale or invalid commitment")

	// ErrCircuitBreakerTripped: JIT and rebates disabled until cool-down.
	ErrCircuitBreakerTripped = errors.New("circuit breaker tripped")

	// ErrFloorViolation: computed floor would decrease.
	ErrFloorViolation = errors.New("floor may not decrease")

	// ErrBandLeak: a JIT band survived its transaction. Structurally
	// unreachable; any occurrence is a bug in the band guard.
	ErrBandLeak = errors.New("jit band leaked past transaction end")

	// ErrTooFewObservations: GTWAP window has too few distinct slots.
	ErrTooFewObservations = errors.New("gtwap window too thin")
)
