package feels

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/FeelsDEX/feels-sub005/commitment"
	"github.com/FeelsDEX/feels-sub005/constants"
	"github.com/FeelsDEX/feels-sub005/helpers"
	"github.com/FeelsDEX/feels-sub005/maths"
	"github.com/FeelsDEX/feels-sub005/types"
)

// Clock abstracts the host's slot/timestamp source. The core never
// blocks on it; policy timers are plain comparisons against Now.
type Clock interface {
	Now() int64
	Slot() uint64
}

// Engine is the pricing and liquidity core. One instance serves one
// protocol deployment; every swap runs through ExecuteSwap as a single
// atomic unit — the shared ProtocolState is read once, mutated on a
// staged copy, and committed exactly once at the end, so a failure
// anywhere leaves no partial state.
type Engine struct {
	router  *Router
	weights types.DomainWeights
	state   *types.ProtocolState

	pools     map[solana.PublicKey]*types.Pool
	twaps     map[solana.PublicKey]*maths.Gtwap
	providers map[solana.PublicKey]commitment.Provider

	jit   *JitManager
	guard RiskGuard
	fb    FallbackController

	clock Clock
	log   *zap.Logger
	sink  RecordSink
	seq   map[solana.PublicKey]uint64
}

// EngineOption configures optional collaborators.
type EngineOption func(*Engine)

func WithLogger(log *zap.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

func WithSink(sink RecordSink) EngineOption {
	return func(e *Engine) { e.sink = sink }
}

func WithClock(clock Clock) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

func WithFallbackController(fb FallbackController) EngineOption {
	return func(e *Engine) { e.fb = fb }
}

// NewEngine wires the core around the hub asset, the governance weight
// set, and the shared protocol state.
func NewEngine(
	hub solana.PublicKey,
	weights types.DomainWeights,
	state *types.ProtocolState,
	opts ...EngineOption,
) (*Engine, error) {
	if err := maths.ValidateWeights(weights); err != nil {
		return nil, err
	}
	e := &Engine{
		router:    NewRouter(hub),
		weights:   weights,
		state:     state,
		pools:     make(map[solana.PublicKey]*types.Pool),
		twaps:     make(map[solana.PublicKey]*maths.Gtwap),
		providers: make(map[solana.PublicKey]commitment.Provider),
		jit:       NewJitManager(),
		seq:       make(map[solana.PublicKey]uint64),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.clock == nil {
		return nil, fmt.Errorf("engine requires a host clock")
	}
	return e, nil
}

// AddPool registers a market. Every pool must have the hub on one
// side; the router enforces it.
func (e *Engine) AddPool(pool *types.Pool) error {
	if pool.SqrtPrice.Cmp(constants.MinSqrtPrice) < 0 || pool.SqrtPrice.Cmp(constants.MaxSqrtPrice) > 0 {
		return fmt.Errorf("sqrt price %s out of range: %w", pool.SqrtPrice, types.ErrDomain)
	}
	if err := e.router.RegisterMarket(pool.Market, pool.TokenA, pool.TokenB); err != nil {
		return err
	}
	e.pools[pool.Market] = pool
	e.twaps[pool.Market] = maths.NewGtwap()
	return nil
}

// SetProvider installs the price-map provider for a market. When a
// committed provider fails verification the engine degrades to the
// direct path for the trade and activates the fallback controller.
func (e *Engine) SetProvider(market solana.PublicKey, p commitment.Provider) {
	e.providers[market] = p
}

// Observe posts a pool price observation into the market's GTWAP
// window. The host calls this once per slot per market.
func (e *Engine) Observe(market solana.PublicKey, slot uint64, unixTs int64, price decimal.Decimal) {
	if tw, ok := e.twaps[market]; ok {
		tw.Record(maths.Observation{Slot: slot, UnixTs: unixTs, Price: price})
	}
}

// OpenBands reports JIT bands currently open; zero outside a swap.
func (e *Engine) OpenBands() int {
	return e.jit.OpenCount()
}

// State exposes the committed protocol state.
func (e *Engine) State() *types.ProtocolState {
	return e.state
}

// Router exposes route resolution for quoting.
func (e *Engine) Router() *Router {
	return e.router
}

func cloneProtocolState(st *types.ProtocolState) *types.ProtocolState {
	out := *st
	out.Reserves = st.Reserves.Clone()
	out.CirculatingSupply = st.CirculatingSupply.Clone()
	out.Buffer = types.BufferAccount{Balance: st.Buffer.Balance.Clone()}
	out.Toxicity.EpochDeployed = new(big.Int).Set(st.Toxicity.EpochDeployed)
	out.EpochRebatePaid = new(big.Int).Set(st.EpochRebatePaid)
	return &out
}

func clonePool(p *types.Pool) *types.Pool {
	out := *p
	out.SqrtPrice = new(big.Int).Set(p.SqrtPrice)
	out.Liquidity = new(big.Int).Set(p.Liquidity)
	return &out
}

// legPlan is the simulated fill of one hop.
type legPlan struct {
	leg      types.Leg
	pool     *types.Pool
	aToB     bool
	segments []types.Segment
	amountIn *big.Int
	grossOut *big.Int
}

// simulatePath segments every hop on gross amounts and computes the
// work along the whole path. The execution pass reuses the same pools.
func (e *Engine) simulatePath(
	route types.Route,
	param types.SwapParams,
	pools map[solana.PublicKey]*types.Pool,
) ([]legPlan, error) {
	plans := make([]legPlan, 0, len(route.Legs))
	amount := new(big.Int).Set(param.AmountIn)

	for _, leg := range route.Legs {
		pool := pools[leg.Market]
		if pool == nil {
			return nil, fmt.Errorf("market %s not registered: %w", leg.Market, types.ErrInvalidRoute)
		}
		aToB := leg.From.Equals(pool.TokenA)

		segments, err := helpers.SplitSegments(helpers.SplitSegmentsParams{
			AmountIn:      amount,
			SqrtPrice:     pool.SqrtPrice,
			Liquidity:     pool.Liquidity,
			AtoB:          aToB,
			TimeState:     param.TimeState,
			LeverageState: param.LeverageState,
			Weights:       e.weights,
		})
		if err != nil {
			return nil, err
		}

		grossOut, _ := helpers.GetSwapAmountOut(amount, pool.SqrtPrice, pool.Liquidity, aToB)
		plans = append(plans, legPlan{
			leg:      leg,
			pool:     pool,
			aToB:     aToB,
			segments: segments,
			amountIn: amount,
			grossOut: grossOut,
		})
		amount = grossOut
	}
	return plans, nil
}

// workRange reports the min/max cumulative work along the segments,
// the range the price-map provider must cover.
func workRange(plans []legPlan) (lo, hi decimal.Decimal) {
	run := decimal.Zero
	for _, plan := range plans {
		for _, seg := range plan.segments {
			run = run.Add(seg.Work)
			if run.LessThan(lo) {
				lo = run
			}
			if run.GreaterThan(hi) {
				hi = run
			}
		}
	}
	return lo, hi
}

// resolvePriceMap runs the configured provider and degrades to the
// direct path on verification failure, flagging the fallback
// controller. A clean committed verification counts as the fresh valid
// update the controller needs to re-arm dynamic pricing.
func (e *Engine) resolvePriceMap(
	market solana.PublicKey,
	wLo, wHi decimal.Decimal,
	staged *types.ProtocolState,
	now int64,
) types.PriceMap {
	provider, ok := e.providers[market]
	if !ok {
		return types.PriceMap{In: decimal.Zero, Out: decimal.Zero, Source: types.SourceDirect}
	}
	pm, err := provider.PriceMap(wLo, wHi)
	if err != nil {
		e.fb.ReportFailure(&staged.Fallback, now)
		e.log.Warn("commitment verification failed, degrading",
			zap.String("market", market.String()),
			zap.Error(err),
		)
		return types.PriceMap{In: decimal.Zero, Out: decimal.Zero, Source: types.SourceDirect}
	}
	if pm.Source == types.SourceCommitted {
		e.fb.ReportValidUpdate(&staged.Fallback, now)
	}
	return pm
}

// ExecuteSwap runs the whole per-swap pipeline as one atomic unit:
// routing, segmentation and work, fee/rebate gated by the risk guard
// and fallback controller, the JIT band lifecycle, the slippage check,
// and the floor ratchet. Any error aborts before commit with no state
// mutation; the band guard's deferred release makes a dangling band
// impossible on every exit path.
func (e *Engine) ExecuteSwap(param types.SwapParams) (*types.SwapOutcome, error) {
	if param.AmountIn == nil || param.AmountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount_in must be positive: %w", types.ErrDomain)
	}
	now, slot := e.clock.Now(), e.clock.Slot()

	route, err := e.router.Resolve(param.From, param.To)
	if err != nil {
		return nil, err
	}

	// Stage everything; nothing below touches committed state.
	staged := cloneProtocolState(e.state)
	stagedPools := make(map[solana.PublicKey]*types.Pool, len(route.Legs))
	for _, leg := range route.Legs {
		pool, ok := e.pools[leg.Market]
		if !ok {
			return nil, fmt.Errorf("market %s not registered: %w", leg.Market, types.ErrInvalidRoute)
		}
		stagedPools[leg.Market] = clonePool(pool)
	}

	e.guard.RollEpoch(&staged.Toxicity, staged.EpochRebatePaid, now)
	e.guard.DecayFlow(&staged.Toxicity, now)

	// Breaker check precedes pricing: a tripped breaker is a hard
	// override on JIT and rebates, not on the trade itself.
	var moveBps int64
	for _, leg := range route.Legs {
		if tw := e.twaps[leg.Market]; tw != nil {
			if m := tw.RealizedMoveBps(now); m > moveBps {
				moveBps = m
			}
		}
	}
	e.guard.UpdateBreaker(&staged.Toxicity, moveBps, now)
	breaker := staged.Toxicity.BreakerActive
	if breaker {
		e.log.Warn("suppressing jit and rebates",
			zap.Int64("move_bps", moveBps),
			zap.Error(types.ErrCircuitBreakerTripped),
		)
	}

	plans, err := e.simulatePath(route, param, stagedPools)
	if err != nil {
		return nil, err
	}

	var segments []types.Segment
	for _, plan := range plans {
		segments = append(segments, plan.segments...)
	}
	work := maths.AccumulateWork(segments)

	wLo, wHi := workRange(plans)
	entry, exit := plans[0], plans[len(plans)-1]
	entryMap := e.resolvePriceMap(entry.leg.Market, wLo, wHi, staged, now)
	exitMap := entryMap
	if exit.leg.Market != entry.leg.Market {
		exitMap = e.resolvePriceMap(exit.leg.Market, wLo, wHi, staged, now)
	}
	priceMap := types.PriceMap{In: entryMap.In, Out: exitMap.Out, Source: entryMap.Source}

	fbActive := e.fb.Active(&staged.Fallback, now)

	fee := helpers.ComputeFee(helpers.ComputeFeeParams{
		AmountIn:       param.AmountIn,
		Config:         entry.pool.Config,
		Work:           work,
		PriceMap:       priceMap,
		FallbackActive: fbActive,
	})

	netIn := new(big.Int).Sub(param.AmountIn, fee.FeeAmount)
	if netIn.Sign() <= 0 {
		return nil, fmt.Errorf("fee consumes the whole input: %w", types.ErrDomain)
	}

	direction := types.BtoA
	if entry.aToB {
		direction = types.AtoB
	}

	// JIT band lifecycle on the entry market. The guard's release is
	// deferred immediately after open; every exit path below removes
	// the band.
	var bandGuard *BandGuard
	jitDeployed := new(big.Int)
	if !breaker {
		band, priceErr := e.jit.PriceBand(PriceBandParams{
			Gtwap:     e.twaps[entry.leg.Market],
			Now:       now,
			Direction: direction,
			AmountIn:  netIn,
			Config:    entry.pool.Config,
			Toxicity:  staged.Toxicity,
		})
		switch {
		case priceErr != nil:
			// Thin window or degenerate price: trade proceeds without
			// JIT, against pool liquidity.
		case band.Phase == types.JitRejected:
			// Toxicity scaled the band to nothing.
		default:
			if err := e.guard.ChargeBudget(&staged.Toxicity, entry.pool.Config, band.Liquidity); err != nil {
				return nil, err
			}
			bandGuard = e.jit.OpenBand(band)
			defer bandGuard.Release()
			jitDeployed.Set(band.Liquidity)
		}
	}

	// Execution pass: net input through the path. The entry hop fills
	// against the band first (and only the band), residue against the
	// pool; later hops are pool fills.
	amount := netIn
	var amountOut *big.Int
	for i, plan := range plans {
		pool := plan.pool
		legIn := amount
		legOut := new(big.Int)

		if i == 0 && bandGuard != nil {
			bandOut, used := FillAgainstBand(legIn, *bandGuard.Band(), direction)
			bandGuard.MarkFilled()
			legOut.Add(legOut, bandOut)
			legIn = new(big.Int).Sub(legIn, used)
		}
		if legIn.Sign() > 0 {
			poolOut, nextSqrt := helpers.GetSwapAmountOut(legIn, pool.SqrtPrice, pool.Liquidity, plan.aToB)
			legOut.Add(legOut, poolOut)
			pool.SqrtPrice = nextSqrt
		}
		amount = legOut
	}
	amountOut = amount

	// Band closes here on the success path; the defer covers failures.
	if bandGuard != nil {
		notional := decimal.NewFromBigInt(netIn, 0)
		e.guard.RecordFill(&staged.Toxicity, direction, notional)
		bandGuard.Release()
	}
	if e.jit.OpenCount() != 0 {
		return nil, types.ErrBandLeak
	}

	// Rebate for downhill work, unless degraded. Price improvement is
	// measured against a base-fee-only fill of the same route.
	rebate := new(big.Int)
	rebateBound := ""
	if !fbActive && !breaker && work.Total.Sign() < 0 {
		baseline := e.baselineOut(plans, param.AmountIn, entry.pool.Config.BaseBps)
		improvement := new(big.Int).Sub(amountOut, baseline)
		if improvement.Sign() < 0 {
			improvement = new(big.Int)
		}
		remaining := new(big.Int).Sub(exit.pool.Config.EpochRebateCap, staged.EpochRebatePaid)
		if remaining.Sign() < 0 {
			remaining = new(big.Int)
		}
		rebate, rebateBound = helpers.ComputeRebate(helpers.ComputeRebateParams{
			Config:            exit.pool.Config,
			Work:              work,
			PriceMap:          priceMap,
			PriceImprovement:  improvement,
			RemainingEpochCap: remaining,
			BufferBalance:     staged.Buffer.Balance.ToBig(),
		})
	}
	fee.Rebate = rebate
	fee.RebateBound = rebateBound
	amountOut = new(big.Int).Add(amountOut, rebate)

	if param.MinAmountOut != nil && amountOut.Cmp(param.MinAmountOut) < 0 {
		return nil, fmt.Errorf("out %s < min %s: %w", amountOut, param.MinAmountOut, types.ErrSlippageExceeded)
	}

	// Settlement: fees accrue to the buffer and to protocol reserves,
	// rebates leave the buffer; then the floor ratchets.
	if err := e.settle(staged, fee.FeeAmount, rebate); err != nil {
		return nil, err
	}

	activeTick, err := maths.SqrtPriceToTick(entry.pool.SqrtPrice)
	if err == nil {
		RepositionSupport(&staged.Support, activeTick, 0)
	}

	// Post-trade observation for the GTWAP window.
	for _, plan := range plans {
		e.Observe(plan.leg.Market, slot, now, maths.SqrtPriceToPrice(plan.pool.SqrtPrice))
	}

	// Commit: the staged copy becomes the protocol state in one
	// assignment, and the staged pools replace the live ones.
	*e.state = *staged
	for market, pool := range stagedPools {
		*e.pools[market] = *pool
	}

	outcome := &types.SwapOutcome{
		AmountIn:       param.AmountIn,
		AmountOut:      amountOut,
		Fee:            fee,
		Work:           work,
		Route:          route.Kind,
		FloorTickAfter: e.state.Floor.FloorTick,
		JitDeployed:    jitDeployed,
		FallbackActive: fbActive,
		BreakerActive:  breaker,
	}
	e.emit(entry.leg.Market, slot, now, param, outcome)
	return outcome, nil
}

// baselineOut refills the simulated path at base fee only, against
// pool liquidity alone, for the price-improvement measurement.
func (e *Engine) baselineOut(plans []legPlan, amountIn *big.Int, baseBps uint16) *big.Int {
	baseFee := maths.BpsOf(amountIn, baseBps)
	amount := new(big.Int).Sub(amountIn, baseFee)
	for _, plan := range plans {
		// Fills replay from each hop's pre-trade price.
		out, _ := helpers.GetSwapAmountOut(amount, plan.segments[0].SqrtPriceStart, plan.pool.Liquidity, plan.aToB)
		amount = out
	}
	return amount
}

// settle moves the fee into the buffer and reserves, pays the rebate
// out of the buffer, and ratchets the floor. The buffer balance is
// checked before mutation so it can never go negative.
func (e *Engine) settle(staged *types.ProtocolState, feeAmount, rebate *big.Int) error {
	feeU, overflow := uint256.FromBig(feeAmount)
	if overflow {
		return fmt.Errorf("fee exceeds 256 bits: %w", types.ErrDomain)
	}
	rebateU, overflow := uint256.FromBig(rebate)
	if overflow {
		return fmt.Errorf("rebate exceeds 256 bits: %w", types.ErrDomain)
	}

	staged.Buffer.Balance.Add(staged.Buffer.Balance, feeU)
	if staged.Buffer.Balance.Lt(rebateU) {
		// ComputeRebate capped at the buffer; reaching here is a bug.
		return fmt.Errorf("buffer underflow: %w", types.ErrDomain)
	}
	staged.Buffer.Balance.Sub(staged.Buffer.Balance, rebateU)
	staged.EpochRebatePaid.Add(staged.EpochRebatePaid, rebate)

	staged.Reserves.Add(staged.Reserves, feeU)
	if _, err := RatchetFloor(&staged.Floor, staged.Reserves, staged.CirculatingSupply); err != nil {
		return err
	}
	return nil
}

func (e *Engine) emit(market solana.PublicKey, slot uint64, now int64, param types.SwapParams, outcome *types.SwapOutcome) {
	e.seq[market]++
	if e.sink == nil {
		return
	}
	rec := SwapRecord{
		ID:             newRecordID(),
		Market:         market,
		Seq:            e.seq[market],
		UnixTs:         now,
		Slot:           slot,
		AmountIn:       helpers.MustBigIntToUint128(outcome.AmountIn),
		AmountOut:      helpers.MustBigIntToUint128(outcome.AmountOut),
		FeeBps:         outcome.Fee.FeeBps,
		DynBps:         outcome.Fee.DynBps,
		Rebate:         helpers.MustBigIntToUint128(outcome.Fee.Rebate),
		WorkTotal:      outcome.Work.Total.String(),
		WorkUp:         outcome.Work.Up.String(),
		WorkDown:       outcome.Work.Down.String(),
		Route:          uint8(outcome.Route),
		FloorTickAfter: outcome.FloorTickAfter,
		JitDeployed:    outcome.JitDeployed.Sign() > 0,
		Fallback:       outcome.FallbackActive,
		Breaker:        outcome.BreakerActive,
	}
	if err := e.sink.Append(rec); err != nil {
		e.log.Warn("feed append failed", zap.Error(err))
	}
}
