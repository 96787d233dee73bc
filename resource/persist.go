package resource

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxParallelInserts bounds PersistEach fan-out.
const maxParallelInserts = 8

// PersistEach writes every entry with its own insert and waits for all of them.
// A failed insert is logged and skipped, the rest of the batch still runs.
// Returns the number of entries persisted.
func PersistEach[T any](ctx context.Context, log zerolog.Logger, entries []T, insert func(ctx context.Context, entry T) error) int {
	if len(entries) == 0 {
		return 0
	}

	persisted := make([]bool, len(entries))

	var g errgroup.Group
	g.SetLimit(maxParallelInserts)
	for i := range entries {
		g.Go(func() error {
			if err := insert(ctx, entries[i]); err != nil {
				log.Error().Err(err).Int("entry", i).Msg("cache insert failed")
				return nil
			}
			persisted[i] = true
			return nil
		})
	}
	_ = g.Wait()

	count := 0
	for _, ok := range persisted {
		if ok {
			count++
		}
	}

	return count
}
