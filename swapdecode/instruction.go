package swapdecode

import "github.com/gagliardetto/solana-go"

// Instruction is the flattened instruction view the rest of the package
// operates on: account-key-list indices plus the call-stack depth needed
// to scope an inner-transfer scan.
type Instruction struct {
	ProgramIDIndex uint32
	Accounts       []uint8
	Data           []byte
	StackHeight    *uint8
}

func ptrU8(v uint8) *uint8 { return &v }

// Flatten walks a transaction's top-level instructions followed immediately
// by their inner instructions in emitted order, tagging each with its
// logical call-stack depth (outer = 1, inner = its reported stack height,
// or nil when absent). This flattens a transaction into the depth-ordered
// instruction view the resolver scans; it's implemented here rather than
// pulled from an external dependency because this repo has no separate
// framework module to own it.
func Flatten(tx ConfirmedTransaction) []Instruction {
	var out []Instruction
	for i, outer := range tx.Transaction.Message.Instructions {
		out = append(out, Instruction{
			ProgramIDIndex: outer.ProgramIDIndex,
			Accounts:       outer.Accounts,
			Data:           outer.Data,
			StackHeight:    ptrU8(1),
		})

		if tx.Meta == nil {
			continue
		}
		for _, set := range tx.Meta.InnerInstructions {
			if int(set.Index) != i {
				continue
			}
			for _, inner := range set.Instructions {
				out = append(out, Instruction{
					ProgramIDIndex: inner.ProgramIDIndex,
					Accounts:       inner.Accounts,
					Data:           inner.Data,
					StackHeight:    inner.StackHeight,
				})
			}
		}
	}
	return out
}

// ResolveAccountKeys builds the effective account-key list for a
// transaction: message keys followed by loaded writable then loaded
// read-only addresses. Every instruction's program-id index and
// per-account indices are ordinals into this list.
func ResolveAccountKeys(tx ConfirmedTransaction) []solana.PublicKey {
	keys := make([]solana.PublicKey, 0, len(tx.Transaction.Message.AccountKeys))
	keys = append(keys, tx.Transaction.Message.AccountKeys...)
	if tx.Meta != nil {
		keys = append(keys, tx.Meta.LoadedWritableAddresses...)
		keys = append(keys, tx.Meta.LoadedReadonlyAddresses...)
	}
	return keys
}

// keyAt is a bounds-checked lookup into an account-key list: any
// out-of-range index is a soft miss, never a fatal error.
func keyAt(keys []solana.PublicKey, idx uint32) (solana.PublicKey, bool) {
	if int(idx) < 0 || int(idx) >= len(keys) {
		return solana.PublicKey{}, false
	}
	return keys[idx], true
}

// accountAt resolves the idx-th entry of an instruction's account list to
// an account-key-list index.
func accountAt(accounts []uint8, idx int) (uint8, bool) {
	if idx < 0 || idx >= len(accounts) {
		return 0, false
	}
	return accounts[idx], true
}
