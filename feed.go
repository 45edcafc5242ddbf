package feels

import (
	"bytes"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SwapRecord is one entry of the indexer/analytics feed: append-only,
// order-preserving per market (Seq is the per-market sequence number).
// Work values are canonical decimal strings so the record stays
// lossless under borsh and JSON alike.
type SwapRecord struct {
	ID     string           `json:"id"`
	Market solana.PublicKey `json:"market"`
	Seq    uint64           `json:"seq"`
	UnixTs int64            `json:"unix_ts"`
	Slot   uint64           `json:"slot"`

	AmountIn  ag_binary.Uint128 `json:"amount_in"`
	AmountOut ag_binary.Uint128 `json:"amount_out"`
	FeeBps    uint16            `json:"fee_bps"`
	DynBps    uint16            `json:"dyn_bps"`
	Rebate    ag_binary.Uint128 `json:"rebate"`

	WorkTotal string `json:"work_total"`
	WorkUp    string `json:"work_up"`
	WorkDown  string `json:"work_down"`

	Route          uint8 `json:"route"`
	FloorTickAfter int32 `json:"floor_tick_after"`
	JitDeployed    bool  `json:"jit_deployed"`
	Fallback       bool  `json:"fallback"`
	Breaker        bool  `json:"breaker"`
}

func newRecordID() string {
	return uuid.NewString()
}

// MarshalBorsh serializes the record for on-chain log emission.
func (r SwapRecord) MarshalBorsh() ([]byte, error) {
	var buf bytes.Buffer
	enc := ag_binary.NewBorshEncoder(&buf)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RecordSink consumes feed records. Appends are in emission order and
// must not fail the swap that produced them; sink errors are logged
// and dropped by the engine.
type RecordSink interface {
	Append(rec SwapRecord) error
}

// MemorySink buffers records in order, for tests and the simulator.
type MemorySink struct {
	Records []SwapRecord
}

func (s *MemorySink) Append(rec SwapRecord) error {
	s.Records = append(s.Records, rec)
	return nil
}

// ZapSink mirrors the feed into structured logs.
type ZapSink struct {
	Log *zap.Logger
}

func (s ZapSink) Append(rec SwapRecord) error {
	s.Log.Info("swap",
		zap.String("id", rec.ID),
		zap.String("market", rec.Market.String()),
		zap.Uint64("seq", rec.Seq),
		zap.Uint16("fee_bps", rec.FeeBps),
		zap.String("rebate", rec.Rebate.BigInt().String()),
		zap.String("work", rec.WorkTotal),
		zap.Int32("floor_tick", rec.FloorTickAfter),
		zap.Bool("fallback", rec.Fallback),
		zap.Bool("breaker", rec.Breaker),
	)
	return nil
}
