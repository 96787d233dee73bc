// Package storage defines the local blog post cache contract.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/itiky/blogsync/model"
)

var (
	// ErrNotFound indicates a requested blog post is not cached.
	ErrNotFound = errors.New("blog post not found")
)

type (
	// BlogPostStore persists BlogPost entries keyed by pk.
	BlogPostStore interface {
		// Insert creates or replaces the post
		Insert(ctx context.Context, post model.BlogPost) error
		GetBlogPost(ctx context.Context, pk int) (model.BlogPost, error)
		GetBlogPostBySlug(ctx context.Context, slug string) (model.BlogPost, error)
		// DeleteBlogPost is a no-op for unknown pks
		DeleteBlogPost(ctx context.Context, pk int) error
		// UpdateBlogPost only touches the editable fields
		UpdateBlogPost(ctx context.Context, pk int, title, body, image string) error
		// SearchBlogPosts runs the ordered blog query
		SearchBlogPosts(ctx context.Context, q SearchQuery) (model.BlogList, error)
		// Count returns the number of posts matching the query text
		Count(ctx context.Context, query string) (int, error)
		// Changes notifies about every write
		Changes() *Feed
		Close() error
	}

	// SearchQuery is the ordered blog query: text match, ordering and a row window.
	SearchQuery struct {
		Query          string
		FilterAndOrder string
		Offset         int
		Limit          int
	}
)

// CumulativePage selects every row of pages [1, page] plus one look-ahead row,
// which tells whether more pages exist.
func CumulativePage(query, filterAndOrder string, page, pageSize int) SearchQuery {
	return SearchQuery{
		Query:          query,
		FilterAndOrder: filterAndOrder,
		Offset:         0,
		Limit:          page*pageSize + 1,
	}
}

// SinglePage selects the rows of one page.
func SinglePage(query, filterAndOrder string, page, pageSize int) SearchQuery {
	return SearchQuery{
		Query:          query,
		FilterAndOrder: filterAndOrder,
		Offset:         (page - 1) * pageSize,
		Limit:          pageSize,
	}
}

// Validate checks the row window.
func (q SearchQuery) Validate() error {
	if q.Offset < 0 {
		return fmt.Errorf("%s: must be GTE 0", "offset")
	}
	if q.Limit <= 0 {
		return fmt.Errorf("%s: must be GT 0", "limit")
	}

	return nil
}
