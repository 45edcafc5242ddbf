package feels_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"

	feels "github.com/FeelsDEX/feels-sub005"
	"github.com/FeelsDEX/feels-sub005/types"
)

func TestRouterResolve(t *testing.T) {
	hub := solana.NewWallet().PublicKey()
	tokenX := solana.NewWallet().PublicKey()
	tokenY := solana.NewWallet().PublicKey()
	marketX := solana.NewWallet().PublicKey()
	marketY := solana.NewWallet().PublicKey()

	r := feels.NewRouter(hub)
	assert.NoError(t, r.RegisterMarket(marketX, tokenX, hub))
	assert.NoError(t, r.RegisterMarket(marketY, hub, tokenY))

	t.Run("direct when one side is the hub", func(t *testing.T) {
		route, err := r.Resolve(tokenX, hub)
		assert.NoError(t, err)
		assert.Equal(t, types.RouteDirect, route.Kind)
		assert.Len(t, route.Legs, 1)
		assert.Equal(t, marketX, route.Legs[0].Market)

		// The reverse direction resolves to the same market.
		route, err = r.Resolve(hub, tokenX)
		assert.NoError(t, err)
		assert.Equal(t, marketX, route.Legs[0].Market)
	})

	t.Run("two hops through the hub", func(t *testing.T) {
		route, err := r.Resolve(tokenX, tokenY)
		assert.NoError(t, err)
		assert.Equal(t, types.RouteTwoHop, route.Kind)
		assert.Len(t, route.Legs, 2)
		assert.Equal(t, hub, route.Legs[0].To)
		assert.Equal(t, hub, route.Legs[1].From)
	})

	t.Run("never more than two legs", func(t *testing.T) {
		for _, pair := range [][2]solana.PublicKey{
			{tokenX, hub}, {hub, tokenY}, {tokenX, tokenY}, {tokenY, tokenX},
		} {
			route, err := r.Resolve(pair[0], pair[1])
			assert.NoError(t, err)
			assert.LessOrEqual(t, len(route.Legs), 2)
		}
	})

	t.Run("self swap rejected", func(t *testing.T) {
		_, err := r.Resolve(tokenX, tokenX)
		assert.ErrorIs(t, err, types.ErrInvalidRoute)
	})

	t.Run("unknown pair rejected", func(t *testing.T) {
		stranger := solana.NewWallet().PublicKey()
		_, err := r.Resolve(stranger, hub)
		assert.ErrorIs(t, err, types.ErrInvalidRoute)
		_, err = r.Resolve(stranger, tokenX)
		assert.ErrorIs(t, err, types.ErrInvalidRoute)
	})
}

func TestRegisterMarketRequiresHubSide(t *testing.T) {
	hub := solana.NewWallet().PublicKey()
	r := feels.NewRouter(hub)

	err := r.RegisterMarket(
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
	)
	assert.ErrorIs(t, err, types.ErrInvalidRoute)
}
