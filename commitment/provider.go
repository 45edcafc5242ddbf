package commitment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FeelsDEX/feels-sub005/constants"
	"github.com/FeelsDEX/feels-sub005/types"
)

// Provider serves the marginal price maps Π_in/Π_out for a traversed
// work range. The deterministic and committed paths are two variants
// of this one interface; the fee calculator consumes them identically.
type Provider interface {
	PriceMap(wLo, wHi decimal.Decimal) (types.PriceMap, error)
}

// DirectProvider recomputes the maps from posted on-chain scalars.
// Always correct, always available; its values are authoritative.
type DirectProvider struct {
	In  decimal.Decimal
	Out decimal.Decimal
}

func (p DirectProvider) PriceMap(wLo, wHi decimal.Decimal) (types.PriceMap, error) {
	return types.PriceMap{
		In:     p.In,
		Out:    p.Out,
		Source: types.SourceDirect,
	}, nil
}

// QuadApprox is an off-chain local quadratic approximation of the two
// price maps over a bounded work range:
//
//	Π(w) = C0 + C1·w + C2·w²   valid on [WMin, WMax]
type QuadApprox struct {
	InC0, InC1, InC2    decimal.Decimal
	OutC0, OutC1, OutC2 decimal.Decimal
	WMin, WMax          decimal.Decimal
}

// Encode is the canonical leaf serialization the approximation was
// committed under. Decimal strings are already canonical, so joining
// them is stable across implementations.
func (q QuadApprox) Encode() []byte {
	return []byte(strings.Join([]string{
		q.InC0.String(), q.InC1.String(), q.InC2.String(),
		q.OutC0.String(), q.OutC1.String(), q.OutC2.String(),
		q.WMin.String(), q.WMax.String(),
	}, "|"))
}

func evalQuad(c0, c1, c2, w decimal.Decimal) decimal.Decimal {
	return c0.Add(c1.Mul(w)).Add(c2.Mul(w).Mul(w))
}

// sane applies the global bound checks: both maps must be nonnegative
// and non-decreasing over the committed range, and the quadratic term
// may not bend the curve by more than MaxCurvatureBps of its constant
// term across the range.
func (q QuadApprox) sane() error {
	span := q.WMax.Sub(q.WMin)
	if span.Sign() <= 0 {
		return fmt.Errorf("empty work range")
	}

	check := func(c0, c1, c2 decimal.Decimal) error {
		for _, w := range []decimal.Decimal{q.WMin, q.WMax} {
			if evalQuad(c0, c1, c2, w).Sign() < 0 {
				return fmt.Errorf("negative price map at w=%s", w)
			}
			// slope = C1 + 2·C2·w
			slope := c1.Add(c2.Mul(w).Mul(decimal.NewFromInt(2)))
			if slope.Sign() < 0 {
				return fmt.Errorf("non-monotone price map at w=%s", w)
			}
		}
		if c0.Sign() <= 0 {
			return fmt.Errorf("non-positive constant term")
		}
		bend := c2.Abs().Mul(span).Mul(span)
		limit := c0.Mul(decimal.New(constants.MaxCurvatureBps, -4))
		if bend.GreaterThan(limit) {
			return fmt.Errorf("curvature %s exceeds bound %s", bend, limit)
		}
		return nil
	}

	if err := check(q.InC0, q.InC1, q.InC2); err != nil {
		return fmt.Errorf("in map: %w", err)
	}
	if err := check(q.OutC0, q.OutC1, q.OutC2); err != nil {
		return fmt.Errorf("out map: %w", err)
	}
	return nil
}

// CommittedProvider admits a quadratic approximation only when it
// carries a valid inclusion proof against the posted root and passes
// the global sanity bounds. Any failure surfaces ErrStaleCommitment so
// the caller can fall back to deterministic recomputation.
type CommittedProvider struct {
	Approx QuadApprox
	Root   Hash
	Proof  Proof
}

func (p CommittedProvider) PriceMap(wLo, wHi decimal.Decimal) (types.PriceMap, error) {
	if !Verify(p.Root, p.Approx.Encode(), p.Proof) {
		return types.PriceMap{}, fmt.Errorf("inclusion proof: %w", types.ErrStaleCommitment)
	}
	if wLo.LessThan(p.Approx.WMin) || wHi.GreaterThan(p.Approx.WMax) {
		return types.PriceMap{}, fmt.Errorf("traversed range outside commitment: %w", types.ErrStaleCommitment)
	}
	if err := p.Approx.sane(); err != nil {
		return types.PriceMap{}, fmt.Errorf("%s: %w", err, types.ErrStaleCommitment)
	}

	// Evaluate at the midpoint of the traversed range; the curvature
	// bound keeps the midpoint within tolerance of the true map.
	mid := wLo.Add(wHi).Div(decimal.NewFromInt(2))
	return types.PriceMap{
		In:     evalQuad(p.Approx.InC0, p.Approx.InC1, p.Approx.InC2, mid),
		Out:    evalQuad(p.Approx.OutC0, p.Approx.OutC1, p.Approx.OutC2, mid),
		Source: types.SourceCommitted,
	}, nil
}
