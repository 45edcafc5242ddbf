package feels

import "github.com/gagliardetto/solana-go"

func DeriveProtocolAuthority() solana.PublicKey {
	pda, _, _ := solana.FindProgramAddress(
		[][]byte{
			[]byte("protocol_authority"),
		},
		ProgramID,
	)
	return pda
}

// DeriveMarketAddress is order-insensitive over the token pair, so both
// directions of a swap resolve to the same market account.
func DeriveMarketAddress(tokenA, tokenB solana.PublicKey) solana.PublicKey {
	lo, hi := tokenA, tokenB
	if hi.String() < lo.String() {
		lo, hi = hi, lo
	}
	pda, _, _ := solana.FindProgramAddress(
		[][]byte{
			[]byte("market"),
			lo.Bytes(),
			hi.Bytes(),
		},
		ProgramID,
	)
	return pda
}

func DeriveBufferAddress(market solana.PublicKey) solana.PublicKey {
	pda, _, _ := solana.FindProgramAddress(
		[][]byte{
			[]byte("buffer"),
			market.Bytes(),
		},
		ProgramID,
	)
	return pda
}

func DeriveFloorStateAddress(market solana.PublicKey) solana.PublicKey {
	pda, _, _ := solana.FindProgramAddress(
		[][]byte{
			[]byte("floor_state"),
			market.Bytes(),
		},
		ProgramID,
	)
	return pda
}

func DeriveTokenVaultAddress(tokenMint, market solana.PublicKey) solana.PublicKey {
	pda, _, _ := solana.FindProgramAddress(
		[][]byte{
			[]byte("token_vault"),
			tokenMint.Bytes(),
			market.Bytes(),
		},
		ProgramID,
	)
	return pda
}
