// Package swapdecode decodes Meteora DLMM/DAMM/DBC swap invocations out of
// confirmed Solana blocks into normalized SwapEvent records.
//
// The package is purely functional: DecodeBlock takes a Block and returns a
// Batch, with no I/O, no shared state, and no panics. See DESIGN.md for the
// grounding of each stage.
package swapdecode

import "github.com/gagliardetto/solana-go"

// Platform identifies which of the three target programs produced a swap.
type Platform string

const (
	PlatformDLMM Platform = "meteora_dlmm"
	PlatformDAMM Platform = "meteora_damm"
	PlatformDBC  Platform = "meteora_dbc"
)

// Side is the buy/sell/unknown classification relative to wrapped SOL.
type Side string

const (
	SideBuy     Side = "Buy"
	SideSell    Side = "Sell"
	SideUnknown Side = "Unknown"
)

// Block is the external input boundary: one slot's worth of confirmed
// transactions, shaped the way the upstream streaming framework hands them
// to the core.
type Block struct {
	Slot         uint64                 `json:"slot"`
	BlockTime    *int64                 `json:"blockTime,omitempty"`
	Transactions []ConfirmedTransaction `json:"transactions"`
}

// ConfirmedTransaction pairs a transaction envelope with its execution
// metadata.
type ConfirmedTransaction struct {
	Transaction TransactionEnvelope `json:"transaction"`
	Meta        *TransactionMeta    `json:"meta"`
}

// TransactionEnvelope carries the message and the signatures.
type TransactionEnvelope struct {
	Message    Message            `json:"message"`
	Signatures []solana.Signature `json:"signatures"`
}

// Message is the subset of the compiled message the core needs.
type Message struct {
	AccountKeys  []solana.PublicKey    `json:"accountKeys"`
	Instructions []CompiledInstruction `json:"instructions"`
}

// CompiledInstruction is one top-level instruction as emitted in the
// message, or one entry under an InnerInstructionSet.
type CompiledInstruction struct {
	ProgramIDIndex uint32  `json:"programIdIndex"`
	Accounts       []uint8 `json:"accounts"`
	Data           []byte  `json:"data"`
}

// InnerInstruction is a CompiledInstruction plus its call-stack depth.
// StackHeight is nil on pre–stack-height blocks.
type InnerInstruction struct {
	CompiledInstruction
	StackHeight *uint8 `json:"stackHeight,omitempty"`
}

// InnerInstructionSet groups the inner instructions executed under the
// top-level instruction at Index.
type InnerInstructionSet struct {
	Index        uint16             `json:"index"`
	Instructions []InnerInstruction `json:"instructions"`
}

// TransactionMeta is the execution-status metadata for one transaction.
type TransactionMeta struct {
	Err                     interface{}           `json:"err"`
	Fee                     uint64                `json:"fee"`
	PreBalances             []uint64              `json:"preBalances"`
	PostBalances            []uint64              `json:"postBalances"`
	PreTokenBalances        []TokenBalance        `json:"preTokenBalances"`
	PostTokenBalances       []TokenBalance        `json:"postTokenBalances"`
	LoadedWritableAddresses []solana.PublicKey    `json:"loadedWritableAddresses"`
	LoadedReadonlyAddresses []solana.PublicKey    `json:"loadedReadonlyAddresses"`
	InnerInstructions       []InnerInstructionSet `json:"innerInstructions"`
}

// Failed reports whether the transaction's status carries a non-empty
// error. A nil meta (metadata absent) also counts as failed.
func (m *TransactionMeta) Failed() bool {
	return m == nil || m.Err != nil
}

// UiTokenAmount mirrors the RPC ui_token_amount shape: a decimal-string
// amount alongside its decimals.
type UiTokenAmount struct {
	Amount   string `json:"amount"`
	Decimals uint32 `json:"decimals"`
}

// TokenBalance is a pre/post snapshot of one token account's holdings.
type TokenBalance struct {
	AccountIndex  uint32        `json:"accountIndex"`
	Mint          string        `json:"mint"`
	Owner         string        `json:"owner"`
	UiTokenAmount UiTokenAmount `json:"uiTokenAmount"`
}

// SwapEvent is the normalized, immutable record emitted per matched swap
// instruction.
type SwapEvent struct {
	Pool          string   `json:"pool"`
	Signature     string   `json:"signature"`
	User          string   `json:"user"`
	Platform      Platform `json:"platform"`
	TimestampMs   uint64   `json:"timestampMs"`
	Slot          uint64   `json:"slot"`
	TxIndex       int      `json:"txIndex"`
	BaseMint      string   `json:"baseMint"`
	QuoteMint     string   `json:"quoteMint"`
	BaseAmount    uint64   `json:"baseAmount"`
	QuoteAmount   uint64   `json:"quoteAmount"`
	BaseDecimals  uint32   `json:"baseDecimals"`
	QuoteDecimals uint32   `json:"quoteDecimals"`
	Side          Side     `json:"side"`
}

// Batch is the output boundary: all swap events decoded from one block, in
// emission order.
type Batch struct {
	Swaps []SwapEvent `json:"swaps"`
}
