package feels

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/FeelsDEX/feels-sub005/types"
)

// Router resolves swap paths under the hub constraint: every route is
// at most two hops, and the middle asset is always the hub.
type Router struct {
	hub solana.PublicKey

	// markets maps an unordered token pair to its pool market.
	markets map[pairKey]solana.PublicKey
}

type pairKey [64]byte

func makePairKey(a, b solana.PublicKey) pairKey {
	var k pairKey
	// Order-insensitive: smaller key first.
	if a.String() > b.String() {
		a, b = b, a
	}
	copy(k[:32], a[:])
	copy(k[32:], b[:])
	return k
}

func NewRouter(hub solana.PublicKey) *Router {
	return &Router{
		hub:     hub,
		markets: make(map[pairKey]solana.PublicKey),
	}
}

func (r *Router) Hub() solana.PublicKey {
	return r.hub
}

// RegisterMarket records the pool serving a token pair. Every pool has
// the hub on one side; anything else is a configuration error.
func (r *Router) RegisterMarket(market, tokenA, tokenB solana.PublicKey) error {
	if !tokenA.Equals(r.hub) && !tokenB.Equals(r.hub) {
		return fmt.Errorf("market %s has no hub side: %w", market, types.ErrInvalidRoute)
	}
	r.markets[makePairKey(tokenA, tokenB)] = market
	return nil
}

func (r *Router) market(a, b solana.PublicKey) (solana.PublicKey, bool) {
	m, ok := r.markets[makePairKey(a, b)]
	return m, ok
}

// Resolve returns the route for (from, to): one leg when either side
// is the hub, two legs through the hub otherwise. No resolved path
// ever exceeds two hops; segmentation within a hop does not change
// that.
func (r *Router) Resolve(from, to solana.PublicKey) (types.Route, error) {
	if from.Equals(to) {
		return types.Route{}, fmt.Errorf("from equals to: %w", types.ErrInvalidRoute)
	}

	if from.Equals(r.hub) || to.Equals(r.hub) {
		market, ok := r.market(from, to)
		if !ok {
			return types.Route{}, fmt.Errorf("no pool for %s/%s: %w", from, to, types.ErrInvalidRoute)
		}
		return types.Route{
			Kind: types.RouteDirect,
			Legs: []types.Leg{{From: from, To: to, Market: market}},
		}, nil
	}

	first, ok := r.market(from, r.hub)
	if !ok {
		return types.Route{}, fmt.Errorf("no pool for %s/hub: %w", from, types.ErrInvalidRoute)
	}
	second, ok := r.market(r.hub, to)
	if !ok {
		return types.Route{}, fmt.Errorf("no pool for hub/%s: %w", to, types.ErrInvalidRoute)
	}

	return types.Route{
		Kind: types.RouteTwoHop,
		Legs: []types.Leg{
			{From: from, To: r.hub, Market: first},
			{From: r.hub, To: to, Market: second},
		},
	}, nil
}
