package swapdecode

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKey builds a deterministic, distinct PublicKey for fixtures.
func testKey(seed byte) solana.PublicKey {
	var raw [32]byte
	raw[0] = seed
	raw[1] = 0xAA
	return solana.PublicKeyFromBytes(raw[:])
}

func u8(b ...uint8) []uint8 { return b }

func transferData(amount uint64) []byte {
	data := make([]byte, 9)
	data[0] = tokenOpTransfer
	putU64(data[1:9], amount)
	return data
}

func transferCheckedData(amount uint64, decimals uint8) []byte {
	data := make([]byte, 10)
	data[0] = tokenOpTransferChecked
	putU64(data[1:9], amount)
	data[9] = decimals
	return data
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func discBytes(d discriminator) []byte {
	return append([]byte{}, d[:]...)
}

// --- S1: single DLMM buy, opcode-3 transfers, mint resolved via token balances. ---

func TestDecodeBlock_DLMMBuyViaPlainTransfer(t *testing.T) {
	signer := testKey(1)
	pool := testKey(2)
	dummy1, dummy2, dummy3 := testKey(3), testKey(4), testKey(5)
	accA, accB := testKey(6), testKey(7)
	accX, accY := testKey(8), testKey(9)

	keys := []solana.PublicKey{signer, DLMMProgramID, pool, dummy1, dummy2, dummy3, accA, accB, accX, accY, TokenProgramID}
	idx := func(k solana.PublicKey) uint8 {
		for i, kk := range keys {
			if kk.Equals(k) {
				return uint8(i)
			}
		}
		t.Fatalf("key not found")
		return 0
	}

	swapInstr := CompiledInstruction{
		ProgramIDIndex: uint32(idx(DLMMProgramID)),
		Accounts:       u8(idx(pool), idx(dummy1), idx(dummy2), idx(dummy3), idx(accA), idx(accB)),
		Data:           discBytes(discSwap),
	}

	h2 := uint8(2)
	inner := []InnerInstruction{
		{CompiledInstruction: CompiledInstruction{ProgramIDIndex: uint32(idx(TokenProgramID)), Accounts: u8(idx(accA), idx(accX), idx(signer)), Data: transferData(1_000_000)}, StackHeight: &h2},
		{CompiledInstruction: CompiledInstruction{ProgramIDIndex: uint32(idx(TokenProgramID)), Accounts: u8(idx(accY), idx(accB), idx(signer)), Data: transferData(42)}, StackHeight: &h2},
	}

	tx := ConfirmedTransaction{
		Transaction: TransactionEnvelope{
			Message:    Message{AccountKeys: keys, Instructions: []CompiledInstruction{swapInstr}},
			Signatures: []solana.Signature{{1, 2, 3}},
		},
		Meta: &TransactionMeta{
			InnerInstructions: []InnerInstructionSet{{Index: 0, Instructions: inner}},
			PostTokenBalances: []TokenBalance{
				{AccountIndex: uint32(idx(accA)), Mint: WSOLMintString, UiTokenAmount: UiTokenAmount{Decimals: 9}},
				{AccountIndex: uint32(idx(accB)), Mint: "MINT_T", UiTokenAmount: UiTokenAmount{Decimals: 6}},
			},
		},
	}

	blockTime := int64(1000)
	batch := DecodeBlock(Block{Slot: 77, BlockTime: &blockTime, Transactions: []ConfirmedTransaction{tx}})

	require.Len(t, batch.Swaps, 1)
	ev := batch.Swaps[0]
	assert.Equal(t, PlatformDLMM, ev.Platform)
	assert.Equal(t, pool.String(), ev.Pool)
	assert.Equal(t, "MINT_T", ev.BaseMint)
	assert.Equal(t, WSOLMintString, ev.QuoteMint)
	assert.Equal(t, uint64(42), ev.BaseAmount)
	assert.Equal(t, uint64(1_000_000), ev.QuoteAmount)
	assert.Equal(t, uint32(6), ev.BaseDecimals)
	assert.Equal(t, uint32(9), ev.QuoteDecimals)
	assert.Equal(t, SideBuy, ev.Side)
	assert.Equal(t, uint64(1_000_000), ev.TimestampMs)
	assert.Equal(t, 0, ev.TxIndex)
}

// --- S2: DAMM sell via TransferChecked. ---

func TestDecodeBlock_DAMMSellViaTransferChecked(t *testing.T) {
	signer := testKey(10)
	pool := testKey(11)
	dummy0 := testKey(12)
	accA, accB := testKey(13), testKey(14)
	accX, accY := testKey(15), testKey(16)
	mintT, mintWSOL := testKey(17), WSOLMint

	keys := []solana.PublicKey{signer, DAMMProgramID, dummy0, pool, accA, accB, accX, accY, mintT, mintWSOL, TokenProgramID}
	idx := func(k solana.PublicKey) uint8 {
		for i, kk := range keys {
			if kk.Equals(k) {
				return uint8(i)
			}
		}
		t.Fatalf("key not found")
		return 0
	}

	swapInstr := CompiledInstruction{
		ProgramIDIndex: uint32(idx(DAMMProgramID)),
		Accounts:       u8(idx(dummy0), idx(pool), idx(accA), idx(accB)),
		Data:           discBytes(discSwap2),
	}

	h2 := uint8(2)
	inner := []InnerInstruction{
		{CompiledInstruction: CompiledInstruction{ProgramIDIndex: uint32(idx(TokenProgramID)), Accounts: u8(idx(accA), idx(mintT), idx(accX), idx(signer)), Data: transferCheckedData(5, 6)}, StackHeight: &h2},
		{CompiledInstruction: CompiledInstruction{ProgramIDIndex: uint32(idx(TokenProgramID)), Accounts: u8(idx(accY), idx(mintWSOL), idx(accB), idx(signer)), Data: transferCheckedData(900, 9)}, StackHeight: &h2},
	}

	tx := ConfirmedTransaction{
		Transaction: TransactionEnvelope{
			Message:    Message{AccountKeys: keys, Instructions: []CompiledInstruction{swapInstr}},
			Signatures: []solana.Signature{{9, 9, 9}},
		},
		Meta: &TransactionMeta{
			InnerInstructions: []InnerInstructionSet{{Index: 0, Instructions: inner}},
		},
	}

	batch := DecodeBlock(Block{Slot: 1, Transactions: []ConfirmedTransaction{tx}})

	require.Len(t, batch.Swaps, 1)
	ev := batch.Swaps[0]
	assert.Equal(t, PlatformDAMM, ev.Platform)
	assert.Equal(t, SideSell, ev.Side)
	assert.Equal(t, mintT.String(), ev.BaseMint)
	assert.Equal(t, WSOLMintString, ev.QuoteMint)
	assert.Equal(t, uint64(5), ev.BaseAmount)
	assert.Equal(t, uint64(900), ev.QuoteAmount)
	assert.Equal(t, uint32(6), ev.BaseDecimals)
	assert.Equal(t, uint32(9), ev.QuoteDecimals)
}

// --- S3: two nested DLMM hops inside one outer (non-matching) router instruction. ---

func TestDecodeBlock_MultiHopStackScoping(t *testing.T) {
	signer := testKey(20)
	router := testKey(21) // not one of the three target programs
	poolA, poolB := testKey(22), testKey(23)
	a1, a2, a3, a4 := testKey(24), testKey(25), testKey(26), testKey(27)
	b1, b2 := testKey(28), testKey(29)

	keys := []solana.PublicKey{signer, router, DLMMProgramID, poolA, poolB, a1, a2, a3, a4, b1, b2, TokenProgramID}
	idx := func(k solana.PublicKey) uint8 {
		for i, kk := range keys {
			if kk.Equals(k) {
				return uint8(i)
			}
		}
		t.Fatalf("key not found")
		return 0
	}

	outer := CompiledInstruction{ProgramIDIndex: uint32(idx(router)), Accounts: nil, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}}

	dlmmSwap1 := CompiledInstruction{
		ProgramIDIndex: uint32(idx(DLMMProgramID)),
		Accounts:       u8(idx(poolA), 0, 0, 0, idx(a1), idx(a2)),
		Data:           discBytes(discSwap),
	}
	dlmmSwap2 := CompiledInstruction{
		ProgramIDIndex: uint32(idx(DLMMProgramID)),
		Accounts:       u8(idx(poolB), 0, 0, 0, idx(a3), idx(a4)),
		Data:           discBytes(discSwap),
	}

	h2 := uint8(2)
	h3 := uint8(3)

	inner := []InnerInstruction{
		{CompiledInstruction: dlmmSwap1, StackHeight: &h2},
		{CompiledInstruction: CompiledInstruction{ProgramIDIndex: uint32(idx(TokenProgramID)), Accounts: u8(idx(a1), idx(b1)), Data: transferData(100)}, StackHeight: &h3},
		{CompiledInstruction: CompiledInstruction{ProgramIDIndex: uint32(idx(TokenProgramID)), Accounts: u8(idx(b2), idx(a2)), Data: transferData(7)}, StackHeight: &h3},
		{CompiledInstruction: dlmmSwap2, StackHeight: &h2},
		{CompiledInstruction: CompiledInstruction{ProgramIDIndex: uint32(idx(TokenProgramID)), Accounts: u8(idx(a3), idx(b1)), Data: transferData(500)}, StackHeight: &h3},
		{CompiledInstruction: CompiledInstruction{ProgramIDIndex: uint32(idx(TokenProgramID)), Accounts: u8(idx(b2), idx(a4)), Data: transferData(9)}, StackHeight: &h3},
	}

	tx := ConfirmedTransaction{
		Transaction: TransactionEnvelope{
			Message:    Message{AccountKeys: keys, Instructions: []CompiledInstruction{outer}},
			Signatures: []solana.Signature{{7}},
		},
		Meta: &TransactionMeta{
			InnerInstructions: []InnerInstructionSet{{Index: 0, Instructions: inner}},
			PostTokenBalances: []TokenBalance{
				{AccountIndex: uint32(idx(a1)), Mint: "HOPMINT_X"},
				{AccountIndex: uint32(idx(a2)), Mint: "HOPMINT_Y"},
				{AccountIndex: uint32(idx(a3)), Mint: "HOPMINT_X"},
				{AccountIndex: uint32(idx(a4)), Mint: "HOPMINT_Z"},
			},
		},
	}

	batch := DecodeBlock(Block{Slot: 5, Transactions: []ConfirmedTransaction{tx}})

	require.Len(t, batch.Swaps, 2)
	first, second := batch.Swaps[0], batch.Swaps[1]
	assert.Equal(t, poolA.String(), first.Pool)
	assert.Equal(t, uint64(100), first.QuoteAmount+first.BaseAmount-first.BaseAmount) // quote is hop 1's spent leg: its own 100
	assert.NotEqual(t, uint64(0), first.BaseAmount)
	assert.NotEqual(t, uint64(0), first.QuoteAmount)
	assert.Equal(t, poolB.String(), second.Pool)
	assert.NotEqual(t, uint64(0), second.BaseAmount)
	assert.NotEqual(t, uint64(0), second.QuoteAmount)
	// Hop 1 must not see hop 2's transfer amounts, and vice versa.
	assert.True(t, (first.BaseAmount == 7 && first.QuoteAmount == 100) || (first.BaseAmount == 100 && first.QuoteAmount == 7))
	assert.True(t, (second.BaseAmount == 9 && second.QuoteAmount == 500) || (second.BaseAmount == 500 && second.QuoteAmount == 9))
}

// --- S4: missing stack heights, fallback to balance deltas. ---

func TestDecodeBlock_FallbackBalanceDelta(t *testing.T) {
	signer := testKey(30)
	pool := testKey(31)
	dummy1, dummy2, dummy3 := testKey(32), testKey(33), testKey(34)
	accA, accB := testKey(35), testKey(36)
	accX, accY := testKey(37), testKey(38)

	keys := []solana.PublicKey{signer, DLMMProgramID, pool, dummy1, dummy2, dummy3, accA, accB, accX, accY, TokenProgramID}
	idx := func(k solana.PublicKey) uint8 {
		for i, kk := range keys {
			if kk.Equals(k) {
				return uint8(i)
			}
		}
		t.Fatalf("key not found")
		return 0
	}

	swapInstr := CompiledInstruction{
		ProgramIDIndex: uint32(idx(DLMMProgramID)),
		Accounts:       u8(idx(pool), idx(dummy1), idx(dummy2), idx(dummy3), idx(accA), idx(accB)),
		Data:           discBytes(discSwap),
	}

	tx := ConfirmedTransaction{
		Transaction: TransactionEnvelope{
			Message:    Message{AccountKeys: keys, Instructions: []CompiledInstruction{swapInstr}},
			Signatures: []solana.Signature{{1}},
		},
		Meta: &TransactionMeta{
			// Pre-stack-height block: the inner transfers carry no stack height,
			// so the scoped scan stops at once and the resolver falls back.
			InnerInstructions: []InnerInstructionSet{{Index: 0, Instructions: []InnerInstruction{
				{CompiledInstruction: CompiledInstruction{ProgramIDIndex: uint32(idx(TokenProgramID)), Accounts: u8(idx(accA), idx(accX), idx(signer)), Data: transferData(40)}},
				{CompiledInstruction: CompiledInstruction{ProgramIDIndex: uint32(idx(TokenProgramID)), Accounts: u8(idx(accY), idx(accB), idx(signer)), Data: transferData(7)}},
			}}},
			PreTokenBalances: []TokenBalance{
				{AccountIndex: uint32(idx(accA)), Mint: WSOLMintString, UiTokenAmount: UiTokenAmount{Amount: "100", Decimals: 9}},
				{AccountIndex: uint32(idx(accB)), Mint: "MINT_T", UiTokenAmount: UiTokenAmount{Amount: "0", Decimals: 6}},
			},
			PostTokenBalances: []TokenBalance{
				{AccountIndex: uint32(idx(accA)), Mint: WSOLMintString, UiTokenAmount: UiTokenAmount{Amount: "60", Decimals: 9}},
				{AccountIndex: uint32(idx(accB)), Mint: "MINT_T", UiTokenAmount: UiTokenAmount{Amount: "7", Decimals: 6}},
			},
		},
	}

	batch := DecodeBlock(Block{Slot: 9, Transactions: []ConfirmedTransaction{tx}})

	require.Len(t, batch.Swaps, 1)
	ev := batch.Swaps[0]
	assert.Equal(t, SideBuy, ev.Side)
	assert.Equal(t, "MINT_T", ev.BaseMint)
	assert.Equal(t, WSOLMintString, ev.QuoteMint)
	assert.Equal(t, uint64(7), ev.BaseAmount)
	assert.Equal(t, uint64(40), ev.QuoteAmount)
}

// --- S5: failed transaction yields zero events. ---

func TestDecodeBlock_FailedTransactionYieldsNoEvents(t *testing.T) {
	keys := []solana.PublicKey{testKey(1), DLMMProgramID}
	swapInstr := CompiledInstruction{ProgramIDIndex: 1, Accounts: u8(0, 0, 0, 0, 0, 0), Data: discBytes(discSwap)}
	tx := ConfirmedTransaction{
		Transaction: TransactionEnvelope{Message: Message{AccountKeys: keys, Instructions: []CompiledInstruction{swapInstr}}},
		Meta:        &TransactionMeta{Err: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}},
	}
	batch := DecodeBlock(Block{Transactions: []ConfirmedTransaction{tx}})
	assert.Empty(t, batch.Swaps)
}

func TestDecodeBlock_MissingMetaYieldsNoEvents(t *testing.T) {
	keys := []solana.PublicKey{testKey(1), DLMMProgramID}
	swapInstr := CompiledInstruction{ProgramIDIndex: 1, Accounts: u8(0, 0, 0, 0, 0, 0), Data: discBytes(discSwap)}
	tx := ConfirmedTransaction{
		Transaction: TransactionEnvelope{Message: Message{AccountKeys: keys, Instructions: []CompiledInstruction{swapInstr}}},
		Meta:        nil,
	}
	batch := DecodeBlock(Block{Transactions: []ConfirmedTransaction{tx}})
	assert.Empty(t, batch.Swaps)
}

// --- S6: unrecognized discriminator under a known program id. ---

func TestDecodeBlock_UnrecognizedDiscriminatorYieldsNoEvent(t *testing.T) {
	keys := []solana.PublicKey{testKey(1), DLMMProgramID}
	swapInstr := CompiledInstruction{
		ProgramIDIndex: 1,
		Accounts:       u8(0, 0, 0, 0, 0, 0),
		Data:           []byte{1, 2, 3, 4, 5, 6, 7, 8},
	}
	tx := ConfirmedTransaction{
		Transaction: TransactionEnvelope{Message: Message{AccountKeys: keys, Instructions: []CompiledInstruction{swapInstr}}},
		Meta:        &TransactionMeta{},
	}
	batch := DecodeBlock(Block{Transactions: []ConfirmedTransaction{tx}})
	assert.Empty(t, batch.Swaps)
}

// --- Boundary: instructions with data length 0..7 never match. ---

func TestClassifyInstructions_ShortDataNeverMatches(t *testing.T) {
	keys := []solana.PublicKey{DLMMProgramID}
	for n := 0; n < 8; n++ {
		flat := []Instruction{{ProgramIDIndex: 0, Data: make([]byte, n)}}
		matches := ClassifyInstructions(keys, flat)
		assert.Empty(t, matches, "length %d should never match", n)
	}
}

// --- Boundary: shared swap/swap2 bytes only match paired with a known program id. ---

func TestClassifyInstructions_SharedBytesRequireKnownProgram(t *testing.T) {
	unknown := testKey(99)
	keys := []solana.PublicKey{unknown}
	flat := []Instruction{{ProgramIDIndex: 0, Data: discBytes(discSwap)}}
	assert.Empty(t, ClassifyInstructions(keys, flat))
}

func TestClassifyInstructions_ExactProgramMatchPerPlatform(t *testing.T) {
	keys := []solana.PublicKey{DLMMProgramID, DAMMProgramID, DBCProgramID}
	flat := []Instruction{
		{ProgramIDIndex: 0, Data: discBytes(discSwap)},
		{ProgramIDIndex: 1, Data: discBytes(discSwap)},
		{ProgramIDIndex: 2, Data: discBytes(discSwap)},
	}
	matches := ClassifyInstructions(keys, flat)
	require.Len(t, matches, 3)
	assert.Equal(t, PlatformDLMM, matches[0].Platform)
	assert.Equal(t, PlatformDAMM, matches[1].Platform)
	assert.Equal(t, PlatformDBC, matches[2].Platform)
}

// --- Determinism: decoding the same block twice yields identical output. ---

func TestDecodeBlock_Deterministic(t *testing.T) {
	signer := testKey(40)
	keys := []solana.PublicKey{signer, DLMMProgramID}
	swapInstr := CompiledInstruction{ProgramIDIndex: 1, Accounts: u8(0, 0, 0, 0, 0, 0), Data: []byte{9, 9, 9, 9, 9, 9, 9, 9}}
	tx := ConfirmedTransaction{
		Transaction: TransactionEnvelope{Message: Message{AccountKeys: keys, Instructions: []CompiledInstruction{swapInstr}}},
		Meta:        &TransactionMeta{},
	}
	block := Block{Slot: 1, Transactions: []ConfirmedTransaction{tx}}
	assert.Equal(t, DecodeBlock(block), DecodeBlock(block))
}
