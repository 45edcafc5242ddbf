package feels_test

import (
	"math/big"
	"testing"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	feels "github.com/FeelsDEX/feels-sub005"
	"github.com/FeelsDEX/feels-sub005/helpers"
	"github.com/FeelsDEX/feels-sub005/types"
)

func uint128(v uint64) ag_binary.Uint128 {
	return helpers.MustBigIntToUint128(new(big.Int).SetUint64(v))
}

func TestPoolConfigAccountRoundtrip(t *testing.T) {
	acc := feels.PoolConfigAccount{
		PoolType:               uint8(types.Volatile),
		BaseBps:                80,
		MaxSurchargeBps:        200,
		MaxInstantaneousFeeBps: 300,
		RebateEtaBps:           5_000,
		KappaBps:               9_000,
		PerTxRebateCap:         uint128(1_000_000),
		EpochRebateCap:         uint128(10_000_000),
		JitEpochBudget:         uint128(1 << 40),
		ToxicityThresholdMicro: 50_000_000,
		ConservativeSpreadBps:  10,
	}

	data, err := feels.EncodePoolConfig(acc)
	assert.NoError(t, err)

	got, err := feels.DecodePoolConfig(data)
	assert.NoError(t, err)
	assert.Equal(t, acc.PoolType, got.PoolType)
	assert.Equal(t, acc.BaseBps, got.BaseBps)
	assert.Equal(t, acc.MaxSurchargeBps, got.MaxSurchargeBps)
	assert.Equal(t, acc.MaxInstantaneousFeeBps, got.MaxInstantaneousFeeBps)
	assert.Equal(t, acc.RebateEtaBps, got.RebateEtaBps)
	assert.Equal(t, acc.KappaBps, got.KappaBps)
	assert.Equal(t, acc.PerTxRebateCap.BigInt().String(), got.PerTxRebateCap.BigInt().String())
	assert.Equal(t, acc.EpochRebateCap.BigInt().String(), got.EpochRebateCap.BigInt().String())
	assert.Equal(t, acc.JitEpochBudget.BigInt().String(), got.JitEpochBudget.BigInt().String())
	assert.Equal(t, acc.ToxicityThresholdMicro, got.ToxicityThresholdMicro)
	assert.Equal(t, acc.ConservativeSpreadBps, got.ConservativeSpreadBps)

	cfg := got.ToConfig()
	assert.Equal(t, types.Volatile, cfg.PoolType)
	assert.True(t, cfg.RebateEta.Equal(decimal.NewFromFloat(0.5)))
	assert.True(t, cfg.KappaClamp.Equal(decimal.NewFromFloat(0.9)))
	assert.True(t, cfg.ToxicityThreshold.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, int64(1_000_000), cfg.PerTxRebateCap.Int64())
}

func TestDecodePoolConfigRejectsForeignAccount(t *testing.T) {
	_, err := feels.DecodePoolConfig([]byte{1, 2, 3})
	assert.Error(t, err)

	_, err = feels.DecodePoolConfig(make([]byte, 64))
	assert.Error(t, err)
}

func TestSwapInstructionRoundtrip(t *testing.T) {
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()

	data, err := feels.EncodeSwapInstruction(types.SwapParams{
		From:         from,
		To:           to,
		AmountIn:     big.NewInt(1_000_000),
		MinAmountOut: big.NewInt(995_000),
	})
	assert.NoError(t, err)

	got, err := feels.DecodeSwapInstruction(data)
	assert.NoError(t, err)
	assert.Equal(t, from, got.From)
	assert.Equal(t, to, got.To)
	assert.Equal(t, int64(1_000_000), got.AmountIn.Int64())
	assert.Equal(t, int64(995_000), got.MinAmountOut.Int64())
}

func TestEncodeSwapInstructionRejectsOversize(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 70)
	_, err := feels.EncodeSwapInstruction(types.SwapParams{
		AmountIn:     huge,
		MinAmountOut: big.NewInt(0),
	})
	assert.Error(t, err)
}

func TestProtocolStateAccount(t *testing.T) {
	acc := feels.ProtocolStateAccount{
		Reserves:          uint128(510_000),
		CirculatingSupply: uint128(1_000_000),
		BufferBalance:     uint128(2_000_000),
		FloorTick:         -6_734,
		EpochRebatePaid:   uint128(42),
		EpochStart:        86_400,
	}

	st, err := acc.ToState()
	assert.NoError(t, err)
	assert.Equal(t, "510000", st.Reserves.Dec())
	assert.Equal(t, int32(-6_734), st.Floor.FloorTick)
	// The floor price is recomputed from the stored inputs.
	assert.True(t, st.Floor.FloorPrice.Equal(decimal.NewFromFloat(0.51)), "got %s", st.Floor.FloorPrice)
	assert.Equal(t, int64(42), st.EpochRebatePaid.Int64())
	assert.Equal(t, int64(86_400), st.Toxicity.EpochStart)

	data, err := feels.EncodeProtocolState(st)
	assert.NoError(t, err)
	assert.Greater(t, len(data), 8)
}

func TestDeriveMarketAddressOrderInsensitive(t *testing.T) {
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()

	assert.Equal(t, feels.DeriveMarketAddress(a, b), feels.DeriveMarketAddress(b, a))
	assert.NotEqual(t, feels.DeriveMarketAddress(a, b), feels.DeriveProtocolAuthority())
}
