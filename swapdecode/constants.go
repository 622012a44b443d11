package swapdecode

import "github.com/gagliardetto/solana-go"

// Target program IDs.
var (
	DLMMProgramID = solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")
	DAMMProgramID = solana.MustPublicKeyFromBase58("cpamdpZCGKUy5JxQXB4dcpGPiikHawvSWAd6mEn1sGG")
	DBCProgramID  = solana.MustPublicKeyFromBase58("dbcij3LWUppWqq96dh6gJWwBifmcGfLSB5D4DuSMaqN")
)

// Token program IDs. Both are treated as transfer executors.
var (
	TokenProgramID     = solana.TokenProgramID
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

// WSOLMint is the distinguished wrapped-SOL mint, always the quote side
// when it appears in an emitted event.
var WSOLMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

// WSOLMintString is WSOLMint's base58 text form, used in string comparisons
// against decoded mint addresses.
var WSOLMintString = WSOLMint.String()

// programPlatform maps a target program id to its platform tag. Program id
// equality is the only basis for disambiguating the shared swap/swap2
// discriminator bytes across the three programs.
var programPlatform = map[solana.PublicKey]Platform{
	DLMMProgramID: PlatformDLMM,
	DAMMProgramID: PlatformDAMM,
	DBCProgramID:  PlatformDBC,
}

// PlatformOf returns the platform tag for a known program id, and false for
// anything else.
func PlatformOf(programID solana.PublicKey) (Platform, bool) {
	p, ok := programPlatform[programID]
	return p, ok
}

// discriminator is a fixed 8-byte instruction-data prefix.
type discriminator [8]byte

var (
	discSwap                 = discriminator{248, 198, 158, 145, 225, 117, 135, 200}
	discSwap2                = discriminator{65, 75, 63, 76, 235, 91, 91, 136}
	discSwapExactOut         = discriminator{250, 73, 101, 33, 38, 207, 75, 184}
	discSwapExactOut2        = discriminator{43, 215, 247, 132, 137, 60, 243, 81}
	discSwapWithPriceImpact  = discriminator{56, 173, 230, 208, 173, 228, 156, 205}
	discSwapWithPriceImpact2 = discriminator{74, 98, 192, 214, 177, 51, 75, 51}
)

// swapDiscriminators is keyed by platform, not by raw bytes: the "swap" and
// "swap2" byte patterns are shared verbatim across all three programs, so a
// flat byte->name map would misattribute one program's swap as another's.
var swapDiscriminators = map[Platform]map[discriminator]struct{}{
	PlatformDLMM: {
		discSwap:                 {},
		discSwap2:                {},
		discSwapExactOut:         {},
		discSwapExactOut2:        {},
		discSwapWithPriceImpact:  {},
		discSwapWithPriceImpact2: {},
	},
	PlatformDAMM: {
		discSwap:  {},
		discSwap2: {},
	},
	PlatformDBC: {
		discSwap:  {},
		discSwap2: {},
	},
}

// accountLayout fixes the positional meaning of a program's swap
// instruction account list.
type accountLayout struct {
	Pool    int
	UserIn  int
	UserOut int
}

var layouts = map[Platform]accountLayout{
	PlatformDLMM: {Pool: 0, UserIn: 4, UserOut: 5},
	PlatformDAMM: {Pool: 1, UserIn: 2, UserOut: 3},
	PlatformDBC:  {Pool: 2, UserIn: 3, UserOut: 4},
}
