package feels

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/FeelsDEX/feels-sub005/helpers"
	"github.com/FeelsDEX/feels-sub005/types"
)

// ProgramID is the core program's address on the host runtime.
//
//	ProgramID = solana.MustPublicKeyFromBase58("9zxnGyaY4as5RU5HQCVP3Vs8R3q3m4aFzi7RDN7SGoN8")
var ProgramID = solana.MustPublicKeyFromBase58("9zxnGyaY4as5RU5HQCVP3Vs8R3q3m4aFzi7RDN7SGoN8")

// accountDiscriminator derives the anchor-style 8-byte tag.
func accountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

func instructionDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

var (
	poolConfigDiscriminator    = accountDiscriminator("PoolConfig")
	protocolStateDiscriminator = accountDiscriminator("ProtocolState")
	swapDiscriminator          = instructionDiscriminator("swap")
)

// bpsScale converts a bps account field to its decimal fraction.
func bpsToDecimal(bps uint16) decimal.Decimal {
	return decimal.New(int64(bps), -4)
}

// PoolConfigAccount is the borsh layout of the protocol-owned pool
// configuration account. Fractions are stored as bps, amounts as
// little-endian u128.
type PoolConfigAccount struct {
	PoolType               uint8
	BaseBps                uint16
	MaxSurchargeBps        uint16
	MaxInstantaneousFeeBps uint16
	RebateEtaBps           uint16
	KappaBps               uint16
	PerTxRebateCap         ag_binary.Uint128
	EpochRebateCap         ag_binary.Uint128
	JitEpochBudget         ag_binary.Uint128
	ToxicityThresholdMicro uint64
	ConservativeSpreadBps  uint16
}

// ToConfig expands the account into the in-memory policy struct.
func (a PoolConfigAccount) ToConfig() types.PoolConfig {
	return types.PoolConfig{
		PoolType:               types.PoolType(a.PoolType),
		BaseBps:                a.BaseBps,
		MaxSurchargeBps:        a.MaxSurchargeBps,
		MaxInstantaneousFeeBps: a.MaxInstantaneousFeeBps,
		RebateEta:              bpsToDecimal(a.RebateEtaBps),
		KappaClamp:             bpsToDecimal(a.KappaBps),
		PerTxRebateCap:         a.PerTxRebateCap.BigInt(),
		EpochRebateCap:         a.EpochRebateCap.BigInt(),
		JitEpochBudget:         a.JitEpochBudget.BigInt(),
		ToxicityThreshold:      decimal.New(int64(a.ToxicityThresholdMicro), -6),
		ConservativeSpreadBps:  a.ConservativeSpreadBps,
	}
}

// DecodePoolConfig checks the discriminator and decodes the account.
func DecodePoolConfig(data []byte) (*PoolConfigAccount, error) {
	if len(data) < 8 || !bytes.Equal(data[:8], poolConfigDiscriminator[:]) {
		return nil, fmt.Errorf("not a PoolConfig account")
	}
	var acc PoolConfigAccount
	if err := ag_binary.NewBorshDecoder(data[8:]).Decode(&acc); err != nil {
		return nil, fmt.Errorf("decode PoolConfig: %w", err)
	}
	return &acc, nil
}

// EncodePoolConfig serializes the account with its discriminator.
func EncodePoolConfig(acc PoolConfigAccount) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(poolConfigDiscriminator[:])
	if err := ag_binary.NewBorshEncoder(&buf).Encode(acc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ProtocolStateAccount is the borsh layout of the shared mutable
// protocol account: floor inputs, buffer balance, epoch counters.
type ProtocolStateAccount struct {
	Reserves          ag_binary.Uint128
	CirculatingSupply ag_binary.Uint128
	BufferBalance     ag_binary.Uint128
	FloorTick         int32
	EpochRebatePaid   ag_binary.Uint128
	EpochStart        int64
}

// ToState expands the account. The floor price is recomputed from the
// stored inputs rather than trusted from the account.
func (a ProtocolStateAccount) ToState() (*types.ProtocolState, error) {
	reserves, overflow := uint256.FromBig(a.Reserves.BigInt())
	if overflow {
		return nil, fmt.Errorf("reserves exceed 256 bits")
	}
	supply, overflow := uint256.FromBig(a.CirculatingSupply.BigInt())
	if overflow {
		return nil, fmt.Errorf("supply exceeds 256 bits")
	}
	buffer, overflow := uint256.FromBig(a.BufferBalance.BigInt())
	if overflow {
		return nil, fmt.Errorf("buffer exceeds 256 bits")
	}

	st := &types.ProtocolState{
		Reserves:          reserves,
		CirculatingSupply: supply,
		Buffer:            types.BufferAccount{Balance: buffer},
		Floor:             types.FloorState{FloorTick: a.FloorTick},
		Toxicity: types.ToxicityState{
			Flow:          decimal.Zero,
			EpochStart:    a.EpochStart,
			EpochDeployed: new(big.Int),
		},
		EpochRebatePaid: a.EpochRebatePaid.BigInt(),
	}
	if price, err := ComputeFloorPrice(reserves, supply); err == nil {
		st.Floor.FloorPrice = price
	}
	return st, nil
}

// EncodeProtocolState serializes the shared account for the commit.
func EncodeProtocolState(st *types.ProtocolState) ([]byte, error) {
	acc := ProtocolStateAccount{
		Reserves:          helpers.MustBigIntToUint128(st.Reserves.ToBig()),
		CirculatingSupply: helpers.MustBigIntToUint128(st.CirculatingSupply.ToBig()),
		BufferBalance:     helpers.MustBigIntToUint128(st.Buffer.Balance.ToBig()),
		FloorTick:         st.Floor.FloorTick,
		EpochRebatePaid:   helpers.MustBigIntToUint128(st.EpochRebatePaid),
		EpochStart:        st.Toxicity.EpochStart,
	}
	var buf bytes.Buffer
	buf.Write(protocolStateDiscriminator[:])
	if err := ag_binary.NewBorshEncoder(&buf).Encode(acc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// swapInstructionData is the wire layout of the swap instruction after
// its discriminator: token accounts, amount, and the slippage bound.
type swapInstructionData struct {
	From         solana.PublicKey
	To           solana.PublicKey
	AmountIn     uint64
	MinAmountOut uint64
}

// EncodeSwapInstruction builds the instruction payload the host
// delivers to the core.
func EncodeSwapInstruction(param types.SwapParams) ([]byte, error) {
	if !param.AmountIn.IsUint64() || !param.MinAmountOut.IsUint64() {
		return nil, fmt.Errorf("instruction amounts exceed u64")
	}
	var buf bytes.Buffer
	buf.Write(swapDiscriminator[:])
	err := ag_binary.NewBorshEncoder(&buf).Encode(swapInstructionData{
		From:         param.From,
		To:           param.To,
		AmountIn:     param.AmountIn.Uint64(),
		MinAmountOut: param.MinAmountOut.Uint64(),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSwapInstruction parses an incoming swap instruction. The
// time/leverage domain states ride in separate posted accounts, so the
// caller fills them in after decoding.
func DecodeSwapInstruction(data []byte) (types.SwapParams, error) {
	if len(data) < 8 || !bytes.Equal(data[:8], swapDiscriminator[:]) {
		return types.SwapParams{}, fmt.Errorf("not a swap instruction")
	}
	var ix swapInstructionData
	if err := ag_binary.NewBorshDecoder(data[8:]).Decode(&ix); err != nil {
		return types.SwapParams{}, fmt.Errorf("decode swap: %w", err)
	}
	return types.SwapParams{
		From:         ix.From,
		To:           ix.To,
		AmountIn:     new(big.Int).SetUint64(ix.AmountIn),
		MinAmountOut: new(big.Int).SetUint64(ix.MinAmountOut),
	}, nil
}
