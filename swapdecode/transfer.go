package swapdecode

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

const (
	tokenOpTransfer        = byte(3)
	tokenOpTransferChecked = byte(12)
)

// decodedTransfer is a Transfer or TransferChecked decoded out of one
// token-program instruction's data.
type decodedTransfer struct {
	SourceIdx   uint8
	DestIdx     uint8
	Amount      uint64
	Mint        uint32 // resolved account-key-list index; valid only if HasMint
	HasMint     bool
	Decimals    uint8
	HasDecimals bool
}

// isTokenProgram reports whether programID is the legacy or 2022 SPL token
// program; both are treated as transfer executors.
func isTokenProgram(programID solana.PublicKey) bool {
	return programID.Equals(TokenProgramID) || programID.Equals(Token2022ProgramID)
}

// decodeTokenTransfer decodes opcode 3 (Transfer) or 12 (TransferChecked)
// out of a flattened instruction's data. Any other opcode, or data too
// short to hold the opcode's fixed layout, yields ok=false.
func decodeTokenTransfer(instr Instruction) (decodedTransfer, bool) {
	if len(instr.Data) < 9 {
		return decodedTransfer{}, false
	}
	amount := binary.LittleEndian.Uint64(instr.Data[1:9])

	switch instr.Data[0] {
	case tokenOpTransfer:
		src, ok1 := accountAt(instr.Accounts, 0)
		dst, ok2 := accountAt(instr.Accounts, 1)
		if !ok1 || !ok2 {
			return decodedTransfer{}, false
		}
		return decodedTransfer{SourceIdx: src, DestIdx: dst, Amount: amount}, true

	case tokenOpTransferChecked:
		if len(instr.Data) < 10 {
			return decodedTransfer{}, false
		}
		src, ok1 := accountAt(instr.Accounts, 0)
		mintIdx, ok2 := accountAt(instr.Accounts, 1)
		dst, ok3 := accountAt(instr.Accounts, 2)
		if !ok1 || !ok2 || !ok3 {
			return decodedTransfer{}, false
		}
		return decodedTransfer{
			SourceIdx:   src,
			DestIdx:     dst,
			Amount:      amount,
			Mint:        uint32(mintIdx),
			HasMint:     true,
			Decimals:    instr.Data[9],
			HasDecimals: true,
		}, true

	default:
		return decodedTransfer{}, false
	}
}
