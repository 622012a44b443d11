package swapdecode

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
)

// ResolvedSwap is the output of the amount-and-mint resolver: a single
// (base, quote) mint pair and amount pair, plus the buy/sell/unknown side.
type ResolvedSwap struct {
	BaseMint      string
	QuoteMint     string
	BaseAmount    uint64
	QuoteAmount   uint64
	BaseDecimals  uint32
	QuoteDecimals uint32
	Side          Side
}

// tokenBalanceLookup indexes pre/post token balances by account-key-list
// index for O(1) mint/decimals/amount lookups.
type tokenBalanceLookup struct {
	pre  map[uint32]TokenBalance
	post map[uint32]TokenBalance
}

func buildTokenBalanceLookup(meta *TransactionMeta) tokenBalanceLookup {
	l := tokenBalanceLookup{pre: map[uint32]TokenBalance{}, post: map[uint32]TokenBalance{}}
	if meta == nil {
		return l
	}
	for _, b := range meta.PreTokenBalances {
		l.pre[b.AccountIndex] = b
	}
	for _, b := range meta.PostTokenBalances {
		l.post[b.AccountIndex] = b
	}
	return l
}

// mintAndDecimals returns the best-known (mint, decimals) for an account
// index, preferring the post-balance record over the pre-balance one.
func (l tokenBalanceLookup) mintAndDecimals(accountIdx uint32) (string, uint32, bool) {
	if b, ok := l.post[accountIdx]; ok {
		return b.Mint, b.UiTokenAmount.Decimals, true
	}
	if b, ok := l.pre[accountIdx]; ok {
		return b.Mint, b.UiTokenAmount.Decimals, true
	}
	return "", 0, false
}

// amountOf parses a balance record's decimal-string amount, defaulting to
// zero when the record is absent or unparsable.
func (l tokenBalanceLookup) amountOf(idx uint32, which map[uint32]TokenBalance) uint64 {
	b, ok := which[idx]
	if !ok {
		return 0
	}
	v, err := strconv.ParseUint(b.UiTokenAmount.Amount, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func satAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

// leg accumulates one side (input or output) of the primary inner-transfer
// scan: a running amount plus the first-resolved mint and decimals.
type leg struct {
	amount          uint64
	mint            string
	hasMint         bool
	decimals        uint32
	hasDecimals     bool
	decimalsChecked bool // true once set by a TransferChecked byte, which always wins
}

func (lg *leg) accumulate(amount uint64, mintKey solana.PublicKey, hasMint bool, balances tokenBalanceLookup, accountIdx uint32, decimalsByte uint8, hasDecimalsByte bool) {
	lg.amount = satAdd(lg.amount, amount)

	if !lg.hasMint {
		if hasMint {
			lg.mint = mintKey.String()
			lg.hasMint = true
		} else if m, _, ok := balances.mintAndDecimals(accountIdx); ok {
			lg.mint = m
			lg.hasMint = true
		}
	}

	if hasDecimalsByte {
		lg.decimals = uint32(decimalsByte)
		lg.hasDecimals = true
		lg.decimalsChecked = true
	} else if !lg.decimalsChecked && !lg.hasDecimals {
		if _, d, ok := balances.mintAndDecimals(accountIdx); ok {
			lg.decimals = d
			lg.hasDecimals = true
		}
	}
}

// resolvePrimary scans the matched swap instruction's descendant subtree
// (everything at depth strictly greater than the swap's own depth, up to
// the first entry at or below it) for token transfers that touch the
// swap's declared user-input/user-output accounts.
func resolvePrimary(keys []solana.PublicKey, flat []Instruction, matchIdx int, layout accountLayout, balances tokenBalanceLookup) (ResolvedSwap, bool) {
	matched := flat[matchIdx]

	inPos, ok := accountAt(matched.Accounts, layout.UserIn)
	if !ok {
		return ResolvedSwap{}, false
	}
	outPos, ok := accountAt(matched.Accounts, layout.UserOut)
	if !ok {
		return ResolvedSwap{}, false
	}
	inputAccIdx := uint32(inPos)
	outputAccIdx := uint32(outPos)

	if matched.StackHeight == nil {
		return ResolvedSwap{}, false
	}
	h := *matched.StackHeight

	var in, out leg
	for i := matchIdx + 1; i < len(flat); i++ {
		entry := flat[i]
		if entry.StackHeight == nil || *entry.StackHeight <= h {
			break
		}

		programID, ok := keyAt(keys, entry.ProgramIDIndex)
		if !ok || !isTokenProgram(programID) {
			continue
		}
		tr, ok := decodeTokenTransfer(entry)
		if !ok {
			continue
		}

		var mintKey solana.PublicKey
		if tr.HasMint {
			if k, ok := keyAt(keys, tr.Mint); ok {
				mintKey = k
			} else {
				tr.HasMint = false
			}
		}

		if uint32(tr.SourceIdx) == inputAccIdx {
			in.accumulate(tr.Amount, mintKey, tr.HasMint, balances, inputAccIdx, tr.Decimals, tr.HasDecimals)
		}
		if uint32(tr.DestIdx) == outputAccIdx {
			out.accumulate(tr.Amount, mintKey, tr.HasMint, balances, outputAccIdx, tr.Decimals, tr.HasDecimals)
		}
	}

	if in.amount == 0 || out.amount == 0 {
		return ResolvedSwap{}, false
	}
	if !in.hasMint || !out.hasMint || in.mint == "" || out.mint == "" {
		return ResolvedSwap{}, false
	}
	if in.mint == out.mint {
		return ResolvedSwap{}, false
	}

	return classifySide(in.mint, out.mint, in.amount, out.amount, in.decimals, out.decimals), true
}

// resolveFallback is used when the primary scan defers or fails: it adopts
// the spent/received pair implied by whole-account balance deltas on the
// swap's two declared user accounts.
func resolveFallback(keys []solana.PublicKey, flat []Instruction, matchIdx int, layout accountLayout, balances tokenBalanceLookup) (ResolvedSwap, bool) {
	matched := flat[matchIdx]

	inPos, ok := accountAt(matched.Accounts, layout.UserIn)
	if !ok {
		return ResolvedSwap{}, false
	}
	outPos, ok := accountAt(matched.Accounts, layout.UserOut)
	if !ok {
		return ResolvedSwap{}, false
	}
	inIdx := uint32(inPos)
	outIdx := uint32(outPos)

	inDelta := int64(balances.amountOf(inIdx, balances.post)) - int64(balances.amountOf(inIdx, balances.pre))
	outDelta := int64(balances.amountOf(outIdx, balances.post)) - int64(balances.amountOf(outIdx, balances.pre))

	var spentIdx, receivedIdx uint32
	var spentAmt, receivedAmt uint64
	switch {
	case inDelta < 0 && outDelta > 0:
		spentIdx, receivedIdx = inIdx, outIdx
		spentAmt, receivedAmt = uint64(-inDelta), uint64(outDelta)
	case outDelta < 0 && inDelta > 0:
		spentIdx, receivedIdx = outIdx, inIdx
		spentAmt, receivedAmt = uint64(-outDelta), uint64(inDelta)
	default:
		return ResolvedSwap{}, false
	}

	spentMint, spentDecimals, ok1 := balances.mintAndDecimals(spentIdx)
	receivedMint, receivedDecimals, ok2 := balances.mintAndDecimals(receivedIdx)
	if !ok1 || !ok2 || spentMint == "" || receivedMint == "" || spentMint == receivedMint {
		return ResolvedSwap{}, false
	}

	return classifySide(spentMint, receivedMint, spentAmt, receivedAmt, spentDecimals, receivedDecimals), true
}

// classifySide applies the buy/sell/unknown rule relative to WSOL
//: WSOL, when present, is always the quote side.
func classifySide(spentMint, receivedMint string, spentAmount, receivedAmount uint64, spentDecimals, receivedDecimals uint32) ResolvedSwap {
	switch {
	case spentMint == WSOLMintString && receivedMint != WSOLMintString:
		return ResolvedSwap{
			BaseMint: receivedMint, QuoteMint: spentMint,
			BaseAmount: receivedAmount, QuoteAmount: spentAmount,
			BaseDecimals: receivedDecimals, QuoteDecimals: spentDecimals,
			Side: SideBuy,
		}
	case receivedMint == WSOLMintString && spentMint != WSOLMintString:
		return ResolvedSwap{
			BaseMint: spentMint, QuoteMint: receivedMint,
			BaseAmount: spentAmount, QuoteAmount: receivedAmount,
			BaseDecimals: spentDecimals, QuoteDecimals: receivedDecimals,
			Side: SideSell,
		}
	default:
		return ResolvedSwap{
			BaseMint: receivedMint, QuoteMint: spentMint,
			BaseAmount: receivedAmount, QuoteAmount: spentAmount,
			BaseDecimals: receivedDecimals, QuoteDecimals: spentDecimals,
			Side: SideUnknown,
		}
	}
}

// resolveSwap tries the primary scoped scan first, falling back to
// balance-delta analysis only when the primary method defers or fails.
func resolveSwap(keys []solana.PublicKey, flat []Instruction, matchIdx int, platform Platform, balances tokenBalanceLookup) (ResolvedSwap, bool) {
	layout := layouts[platform]
	if rs, ok := resolvePrimary(keys, flat, matchIdx, layout, balances); ok {
		return rs, true
	}
	return resolveFallback(keys, flat, matchIdx, layout, balances)
}

// extractPool reads the matched instruction's pool account through the
// per-program layout table and base58-encodes the resolved key. Any
// missing step yields an empty string; the event is still emitted.
func extractPool(keys []solana.PublicKey, matched Instruction, platform Platform) string {
	layout := layouts[platform]
	pos, ok := accountAt(matched.Accounts, layout.Pool)
	if !ok {
		return ""
	}
	key, ok := keyAt(keys, uint32(pos))
	if !ok {
		return ""
	}
	return key.String()
}
