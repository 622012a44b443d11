package swapdecode

// DecodeBlock is the core's single entry point: it filters out failed or
// metadata-less transactions, then decodes every eligible transaction,
// returning all matched swaps in block order.
func DecodeBlock(block Block) Batch {
	var timestampMs uint64
	if block.BlockTime != nil {
		timestampMs = uint64(*block.BlockTime) * 1000
	}

	var swaps []SwapEvent
	for txIndex, tx := range block.Transactions {
		if tx.Meta.Failed() {
			continue
		}
		swaps = append(swaps, decodeTransaction(txIndex, tx, block.Slot, timestampMs)...)
	}
	return Batch{Swaps: swaps}
}

// decodeTransaction emits exactly one SwapEvent per matched swap
// instruction in the transaction, in flattened-instruction order.
func decodeTransaction(txIndex int, tx ConfirmedTransaction, slot uint64, timestampMs uint64) []SwapEvent {
	keys := ResolveAccountKeys(tx)
	flat := Flatten(tx)
	matches := ClassifyInstructions(keys, flat)
	if len(matches) == 0 {
		return nil
	}

	signature := ""
	if len(tx.Transaction.Signatures) > 0 {
		signature = tx.Transaction.Signatures[0].String()
	}
	user := ""
	if len(keys) > 0 {
		user = keys[0].String()
	}

	balances := buildTokenBalanceLookup(tx.Meta)

	events := make([]SwapEvent, 0, len(matches))
	for _, m := range matches {
		matched := flat[m.FlatIndex]
		pool := extractPool(keys, matched, m.Platform)

		event := SwapEvent{
			Pool:        pool,
			Signature:   signature,
			User:        user,
			Platform:    m.Platform,
			TimestampMs: timestampMs,
			Slot:        slot,
			TxIndex:     txIndex,
			Side:        SideUnknown,
		}

		if resolved, ok := resolveSwap(keys, flat, m.FlatIndex, m.Platform, balances); ok && resolved.BaseMint != resolved.QuoteMint {
			event.BaseMint = resolved.BaseMint
			event.QuoteMint = resolved.QuoteMint
			event.BaseAmount = resolved.BaseAmount
			event.QuoteAmount = resolved.QuoteAmount
			event.BaseDecimals = resolved.BaseDecimals
			event.QuoteDecimals = resolved.QuoteDecimals
			event.Side = resolved.Side
		}

		events = append(events, event)
	}
	return events
}
