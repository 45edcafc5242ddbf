package maths

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/FeelsDEX/feels-sub005/constants"
	"github.com/FeelsDEX/feels-sub005/types"
)

var one = decimal.NewFromInt(1)

// weightTolerance
//  weightTolerance = 10^-constants.WeightToleranceExp
var weightTolerance = decimal.New(1, -constants.WeightToleranceExp)

// Aggregate folds a domain's weighted sub-components into its scalar
// value. Fails when the result is not strictly positive, since it is
// about to meet a logarithm.
func Aggregate(d types.DomainState) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, c := range d.Components {
		sum = sum.Add(c.Weight.Mul(c.Value))
	}
	if sum.Sign() <= 0 {
		return decimal.Zero, types.ErrDomain
	}
	return sum, nil
}

// ValidateDomain checks that component weights sum to 1 within
// tolerance.
func ValidateDomain(d types.DomainState) error {
	sum := decimal.Zero
	for _, c := range d.Components {
		sum = sum.Add(c.Weight)
	}
	if sum.Sub(one).Abs().GreaterThan(weightTolerance) {
		return fmt.Errorf("component weights sum to %s, want 1", sum)
	}
	return nil
}

// ValidateWeights checks normalization of the (ŵ_s, ŵ_t, ŵ_l) policy set.
func ValidateWeights(w types.DomainWeights) error {
	sum := w.Spot.Add(w.Time).Add(w.Leverage)
	if sum.Sub(one).Abs().GreaterThan(weightTolerance) {
		return fmt.Errorf("domain weights sum to %s, want 1", sum)
	}
	return nil
}

// Potential evaluates
//
//	V(P) = -ŵ_s·ln(S) - ŵ_t·ln(T) - ŵ_l·ln(L)
//
// on the aggregated triple, at constants.PotentialPrecision digits.
// Rounding rule: every ln is computed at PotentialPrecision and the
// weighted sum is left unrounded, so V is reproducible bit-for-bit for
// identical inputs.
func Potential(p types.MarketState, w types.DomainWeights) (decimal.Decimal, error) {
	s, err := Aggregate(p.Spot)
	if err != nil {
		return decimal.Zero, err
	}
	t, err := Aggregate(p.Time)
	if err != nil {
		return decimal.Zero, err
	}
	l, err := Aggregate(p.Leverage)
	if err != nil {
		return decimal.Zero, err
	}

	lnS, err := s.Ln(constants.PotentialPrecision)
	if err != nil {
		return decimal.Zero, types.ErrDomain
	}
	lnT, err := t.Ln(constants.PotentialPrecision)
	if err != nil {
		return decimal.Zero, types.ErrDomain
	}
	lnL, err := l.Ln(constants.PotentialPrecision)
	if err != nil {
		return decimal.Zero, types.ErrDomain
	}

	return w.Spot.Mul(lnS).
		Add(w.Time.Mul(lnT)).
		Add(w.Leverage.Mul(lnL)).
		Neg(), nil
}

// Work is the potential difference W = V(P2) - V(P1). Antisymmetric by
// construction: Work(a,b) = -Work(b,a).
func Work(p1, p2 types.MarketState, w types.DomainWeights) (decimal.Decimal, error) {
	v1, err := Potential(p1, w)
	if err != nil {
		return decimal.Zero, err
	}
	v2, err := Potential(p2, w)
	if err != nil {
		return decimal.Zero, err
	}
	return v2.Sub(v1), nil
}

// AccumulateWork folds per-segment works into the W_up/W_down split.
// The invariant Total == Up - Down holds exactly at decimal precision.
func AccumulateWork(segments []types.Segment) types.WorkBreakdown {
	out := types.WorkBreakdown{
		Total: decimal.Zero,
		Up:    decimal.Zero,
		Down:  decimal.Zero,
	}
	for _, seg := range segments {
		out.Total = out.Total.Add(seg.Work)
		if seg.Work.Sign() >= 0 {
			out.Up = out.Up.Add(seg.Work)
		} else {
			out.Down = out.Down.Sub(seg.Work)
		}
	}
	return out
}
