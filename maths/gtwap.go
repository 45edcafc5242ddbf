package maths

import (
	"github.com/shopspring/decimal"

	"github.com/FeelsDEX/feels-sub005/constants"
	"github.com/FeelsDEX/feels-sub005/types"
)

// Observation is one price sample taken at a host slot.
type Observation struct {
	Slot   uint64
	UnixTs int64
	Price  decimal.Decimal
}

// Gtwap maintains a bounded window of per-slot price observations and
// serves the geometric time-weighted average over it. At most one
// observation is kept per slot, and pricing refuses to run on fewer
// than MinGtwapObservations distinct slots, so no single slot can move
// the average on its own.
type Gtwap struct {
	obs []Observation
}

func NewGtwap() *Gtwap {
	return &Gtwap{obs: make([]Observation, 0, constants.MaxGtwapObservations)}
}

// Record inserts a sample. A second sample for an already-observed slot
// is ignored; out-of-order slots are ignored too, matching the host's
// monotone slot ordering.
func (g *Gtwap) Record(o Observation) {
	if o.Price.Sign() <= 0 {
		return
	}
	if n := len(g.obs); n > 0 && o.Slot <= g.obs[n-1].Slot {
		return
	}
	g.obs = append(g.obs, o)
	if len(g.obs) > constants.MaxGtwapObservations {
		g.obs = g.obs[1:]
	}
}

// prune drops observations older than the window.
func (g *Gtwap) prune(now int64) {
	cutoff := now - constants.GtwapWindowSecs
	i := 0
	for i < len(g.obs)-1 && g.obs[i].UnixTs < cutoff {
		i++
	}
	g.obs = g.obs[i:]
}

// Count reports distinct observed slots inside the window.
func (g *Gtwap) Count(now int64) int {
	g.prune(now)
	return len(g.obs)
}

// Price returns the geometric time-weighted average:
//
//	exp( Σ Δt_i · ln(p_i) / Σ Δt_i )
//
// where Δt_i is the time each observation was the latest one. The last
// observation is weighted up to now.
func (g *Gtwap) Price(now int64) (decimal.Decimal, error) {
	g.prune(now)
	if len(g.obs) < constants.MinGtwapObservations {
		return decimal.Zero, types.ErrTooFewObservations
	}

	num := decimal.Zero
	den := decimal.Zero
	for i, o := range g.obs {
		var dt int64
		if i+1 < len(g.obs) {
			dt = g.obs[i+1].UnixTs - o.UnixTs
		} else {
			dt = now - o.UnixTs
		}
		if dt <= 0 {
			dt = 1
		}
		lnP, err := o.Price.Ln(constants.PotentialPrecision)
		if err != nil {
			return decimal.Zero, types.ErrDomain
		}
		w := decimal.NewFromInt(dt)
		num = num.Add(w.Mul(lnP))
		den = den.Add(w)
	}

	mean := num.DivRound(den, constants.PotentialPrecision)
	out, err := mean.ExpTaylor(constants.PotentialPrecision)
	if err != nil {
		return decimal.Zero, types.ErrDomain
	}
	return out, nil
}

// RealizedMoveBps reports the max-to-min swing inside the window in
// basis points of the minimum. The circuit breaker compares this to
// its trip threshold.
func (g *Gtwap) RealizedMoveBps(now int64) int64 {
	g.prune(now)
	if len(g.obs) < 2 {
		return 0
	}
	lo, hi := g.obs[0].Price, g.obs[0].Price
	for _, o := range g.obs[1:] {
		if o.Price.LessThan(lo) {
			lo = o.Price
		}
		if o.Price.GreaterThan(hi) {
			hi = o.Price
		}
	}
	if lo.Sign() <= 0 {
		return 0
	}
	bps := hi.Sub(lo).
		Mul(decimal.NewFromInt(constants.BasisPointMax)).
		DivRound(lo, 0)
	return bps.IntPart()
}
