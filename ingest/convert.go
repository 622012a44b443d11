// Package ingest adapts the Solana JSON-RPC block representation into the
// plain swapdecode.Block the core operates on. It owns all retrying and
// network I/O; it never inspects instruction data or resolves a swap
// itself.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/solswap-labs/meteora-decode/swapdecode"
)

var maxSupportedTxVersion uint64 = 0

// FetchBlock retrieves slot from client, retrying transient RPC failures
// with exponential backoff, and converts the result into a swapdecode.Block.
// A slot with no confirmed block (skipped slot) is reported as an error; the
// caller decides whether to treat that as fatal.
func FetchBlock(ctx context.Context, client *rpc.Client, slot uint64) (swapdecode.Block, error) {
	fetch := func() (*rpc.GetBlockResult, error) {
		blk, err := client.GetBlockWithOpts(ctx, slot, &rpc.GetBlockOpts{
			Commitment:                     rpc.CommitmentConfirmed,
			TransactionDetails:             rpc.TransactionDetailsFull,
			MaxSupportedTransactionVersion: &maxSupportedTxVersion,
		})
		if err != nil {
			if isPermanentRPCError(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		if blk == nil {
			return nil, backoff.Permanent(fmt.Errorf("ingest: slot %d has no confirmed block", slot))
		}
		return blk, nil
	}

	blk, err := backoff.Retry(ctx, fetch,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(30*time.Second),
	)
	if err != nil {
		return swapdecode.Block{}, fmt.Errorf("ingest: fetch block %d: %w", slot, err)
	}

	return convertBlock(slot, blk), nil
}

// isPermanentRPCError reports whether err is unlikely to resolve on retry,
// e.g. a slot that was skipped or pruned rather than a transient network
// failure.
func isPermanentRPCError(err error) bool {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case -32007, -32009, -32004: // skipped slot, slot pruned, block not available
			return true
		}
	}
	return false
}

func convertBlock(slot uint64, blk *rpc.GetBlockResult) swapdecode.Block {
	out := swapdecode.Block{Slot: slot, Transactions: make([]swapdecode.ConfirmedTransaction, 0, len(blk.Transactions))}
	if blk.BlockTime != nil {
		t := int64(*blk.BlockTime)
		out.BlockTime = &t
	}

	for _, txw := range blk.Transactions {
		ct, ok := convertTransaction(txw)
		if !ok {
			continue
		}
		out.Transactions = append(out.Transactions, ct)
	}
	return out
}

func convertTransaction(txw rpc.TransactionWithMeta) (swapdecode.ConfirmedTransaction, bool) {
	parsed, err := txw.GetTransaction()
	if err != nil || parsed == nil {
		return swapdecode.ConfirmedTransaction{}, false
	}

	ct := swapdecode.ConfirmedTransaction{
		Transaction: swapdecode.TransactionEnvelope{
			Message: swapdecode.Message{
				AccountKeys:  parsed.Message.AccountKeys,
				Instructions: convertCompiledInstructions(parsed.Message.Instructions),
			},
			Signatures: parsed.Signatures,
		},
		Meta: convertMeta(txw.Meta),
	}
	return ct, true
}

func convertCompiledInstructions(in []solana.CompiledInstruction) []swapdecode.CompiledInstruction {
	out := make([]swapdecode.CompiledInstruction, len(in))
	for i, ci := range in {
		out[i] = swapdecode.CompiledInstruction{
			ProgramIDIndex: uint32(ci.ProgramIDIndex),
			Accounts:       u16ToU8(ci.Accounts),
			Data:           []byte(ci.Data),
		}
	}
	return out
}

func u16ToU8(in []uint16) []uint8 {
	out := make([]uint8, len(in))
	for i, v := range in {
		out[i] = uint8(v)
	}
	return out
}

func convertMeta(meta *rpc.TransactionMeta) *swapdecode.TransactionMeta {
	if meta == nil {
		return nil
	}

	out := &swapdecode.TransactionMeta{
		Err:                     meta.Err,
		Fee:                     meta.Fee,
		PreBalances:             meta.PreBalances,
		PostBalances:            meta.PostBalances,
		LoadedWritableAddresses: meta.LoadedAddresses.Writable,
		LoadedReadonlyAddresses: meta.LoadedAddresses.ReadOnly,
	}

	for _, b := range meta.PreTokenBalances {
		out.PreTokenBalances = append(out.PreTokenBalances, convertTokenBalance(b))
	}
	for _, b := range meta.PostTokenBalances {
		out.PostTokenBalances = append(out.PostTokenBalances, convertTokenBalance(b))
	}
	for _, set := range meta.InnerInstructions {
		out.InnerInstructions = append(out.InnerInstructions, convertInnerInstructionSet(set))
	}
	return out
}

func convertTokenBalance(b rpc.TokenBalance) swapdecode.TokenBalance {
	tb := swapdecode.TokenBalance{AccountIndex: uint32(b.AccountIndex)}
	if b.Owner != nil {
		tb.Owner = b.Owner.String()
	}
	if !b.Mint.IsZero() {
		tb.Mint = b.Mint.String()
	}
	if b.UiTokenAmount != nil {
		tb.UiTokenAmount = swapdecode.UiTokenAmount{
			Amount:   b.UiTokenAmount.Amount,
			Decimals: uint32(b.UiTokenAmount.Decimals),
		}
	}
	return tb
}

// convertInnerInstructionSet converts one inner-instruction group, narrowing
// the client's *uint16 stack height down to the core's *uint8. Older
// validators omit the field entirely, in which case it stays nil and the
// core's fallback resolver (swapdecode.resolveFallback) takes over.
func convertInnerInstructionSet(set rpc.InnerInstruction) swapdecode.InnerInstructionSet {
	out := swapdecode.InnerInstructionSet{Index: uint16(set.Index)}
	for _, ci := range set.Instructions {
		out.Instructions = append(out.Instructions, swapdecode.InnerInstruction{
			CompiledInstruction: swapdecode.CompiledInstruction{
				ProgramIDIndex: uint32(ci.ProgramIDIndex),
				Accounts:       u16ToU8(ci.Accounts),
				Data:           []byte(ci.Data),
			},
			StackHeight: narrowStackHeight(ci.StackHeight),
		})
	}
	return out
}

func narrowStackHeight(h *uint16) *uint8 {
	if h == nil {
		return nil
	}
	v := uint8(*h)
	return &v
}
