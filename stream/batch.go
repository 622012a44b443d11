// Package stream fans block decoding out across goroutines while keeping
// per-block output order, independent of which goroutine finishes first.
package stream

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/solswap-labs/meteora-decode/swapdecode"
)

// DecodeBlocks decodes every block concurrently, bounded by workers, and
// returns one Batch per input block in input order. A zero or negative
// workers value falls back to one worker per block.
//
// swapdecode.DecodeBlock never returns an error, so this function cannot
// fail on account of decoding itself; it only ever returns a non-nil error
// when ctx is cancelled before all blocks finish.
func DecodeBlocks(ctx context.Context, blocks []swapdecode.Block, workers int) ([]swapdecode.Batch, error) {
	results := make([]swapdecode.Batch, len(blocks))
	if len(blocks) == 0 {
		return results, nil
	}

	if workers <= 0 || workers > len(blocks) {
		workers = len(blocks)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, block := range blocks {
		i, block := i, block
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = swapdecode.DecodeBlock(block)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
