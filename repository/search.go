package repository

import (
	"context"
	"fmt"

	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/resource"
	"github.com/itiky/blogsync/storage"
)

// searchOperation implements resource.Operation for the blog list.
type searchOperation struct {
	repo           *BlogRepository
	token          model.AuthToken
	query          string
	filterAndOrder string
	page           int
	// The server returned a full page, so a next one may exist
	fullPage bool
}

// CreateCall implements resource.Operation interface.
func (o *searchOperation) CreateCall(ctx context.Context) resource.APIResponse[model.BlogListSearchResponse] {
	return o.repo.api.SearchListBlogPosts(ctx, o.token, o.query, o.filterAndOrder, o.page)
}

// LoadFromCache implements resource.Operation interface.
func (o *searchOperation) LoadFromCache(ctx context.Context) (*model.BlogViewState, error) {
	view, _, err := o.repo.loadBlogList(ctx, o.query, o.filterAndOrder, o.page)
	if err != nil {
		return nil, err
	}
	view.BlogFields.IsQueryInProgress = true

	return view, nil
}

// UpdateLocalDB implements resource.Operation interface.
// Every post is tried, an error reports how many were not cached.
func (o *searchOperation) UpdateLocalDB(ctx context.Context, posts model.BlogList) error {
	persisted := resource.PersistEach(ctx, o.repo.log, posts, o.repo.store.Insert)
	o.repo.log.Debug().Int("received", len(posts)).Int("persisted", persisted).Msg("search results cached")

	if persisted < len(posts) {
		return fmt.Errorf("caching search results: %d of %d failed", len(posts)-persisted, len(posts))
	}

	return nil
}

// HandleAPISuccessResponse implements resource.Operation interface.
func (o *searchOperation) HandleAPISuccessResponse(ctx context.Context, resp model.BlogListSearchResponse) resource.DataState[model.BlogViewState] {
	posts := make(model.BlogList, 0, len(resp.Results))
	for _, result := range resp.Results {
		posts = append(posts, result.ToBlogPost())
	}
	if err := o.UpdateLocalDB(ctx, posts); err != nil {
		// The view is read from the cache anyway, it just misses the failed rows
		o.repo.log.Warn().Err(err).Msg("partial cache update")
	}
	o.fullPage = len(posts) >= o.repo.pageSize

	return o.CreateCacheRequestAndReturn(ctx)
}

// CreateCacheRequestAndReturn implements resource.Operation interface.
func (o *searchOperation) CreateCacheRequestAndReturn(ctx context.Context) resource.DataState[model.BlogViewState] {
	view, exhausted, err := o.repo.loadBlogList(ctx, o.query, o.filterAndOrder, o.page)
	if err != nil {
		o.repo.log.Error().Err(err).Msg("cache read failed")
		return resource.Error[model.BlogViewState](resource.Response{Message: model.ErrorUnknown, Type: resource.ResponseDialog})
	}
	view.BlogFields.IsQueryInProgress = false
	// A full server page keeps the query open, the next page's "Invalid page." response closes it
	view.BlogFields.IsQueryExhausted = exhausted && !o.fullPage

	return resource.Data(view, nil)
}

// loadBlogList runs the cumulative ordered blog query for pages [1, page].
// The query reads one look-ahead row: the list is exhausted iff it does not come back.
func (r *BlogRepository) loadBlogList(ctx context.Context, query, filterAndOrder string, page int) (*model.BlogViewState, bool, error) {
	if page < 1 {
		page = 1
	}

	list, err := r.store.SearchBlogPosts(ctx, storage.CumulativePage(query, filterAndOrder, page, r.pageSize))
	if err != nil {
		return nil, false, err
	}

	limit := page * r.pageSize
	exhausted := len(list) <= limit
	if !exhausted {
		list = list[:limit]
	}

	order, filter := model.ParseFilterAndOrder(filterAndOrder)
	view := model.NewBlogViewState()
	view.BlogFields.BlogList = list
	view.BlogFields.SearchQuery = query
	view.BlogFields.Page = page
	view.BlogFields.Filter = filter
	view.BlogFields.Order = order

	return &view, exhausted, nil
}
