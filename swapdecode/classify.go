package swapdecode

import "github.com/gagliardetto/solana-go"

// MatchedSwap is one flattened instruction that classified as a swap
// invocation of a target program.
type MatchedSwap struct {
	Platform  Platform
	FlatIndex int // position within the flattened instruction stream
}

// ClassifyInstructions matches every flattened instruction against the
// closed set of (program-id, discriminator) swap methods.
// Program-id matching is exact 32-byte equality; an unrecognized program,
// short data, or an unrecognized discriminator is a skip, never an error.
func ClassifyInstructions(keys []solana.PublicKey, flat []Instruction) []MatchedSwap {
	var matches []MatchedSwap
	for i, instr := range flat {
		programID, ok := keyAt(keys, instr.ProgramIDIndex)
		if !ok {
			continue
		}
		platform, ok := PlatformOf(programID)
		if !ok {
			continue
		}
		if len(instr.Data) < 8 {
			continue
		}
		var disc discriminator
		copy(disc[:], instr.Data[:8])
		if _, known := swapDiscriminators[platform][disc]; !known {
			continue
		}
		matches = append(matches, MatchedSwap{Platform: platform, FlatIndex: i})
	}
	return matches
}
