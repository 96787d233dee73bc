package repository

import (
	"context"

	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/resource"
)

// WatchBlogPosts publishes the cumulative cached list for pages [1, page] now
// and after every cache write, until ctx ends or the subscriber cancels.
// Bursts of writes are coalesced into one view.
func (r *BlogRepository) WatchBlogPosts(ctx context.Context, query, filterAndOrder string, page int) *resource.Subscription[model.BlogViewState] {
	return resource.Start(ctx, 1, func(ctx context.Context, s *resource.Subscription[model.BlogViewState]) {
		changes, unsubscribe := r.store.Changes().Subscribe()
		defer unsubscribe()

		emit := func() bool {
			view, exhausted, err := r.loadBlogList(ctx, query, filterAndOrder, page)
			if err != nil {
				r.log.Warn().Err(err).Msg("watch: cache read failed")
				return ctx.Err() == nil
			}
			view.BlogFields.IsQueryExhausted = exhausted

			return s.Emit(*view)
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				if !emit() {
					return
				}
			}
		}
	})
}
