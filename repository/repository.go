// Package repository implements the blog operations on top of the resource reconciler.
package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/resource"
	"github.com/itiky/blogsync/service/client"
	"github.com/itiky/blogsync/storage"
)

// Job names.
const (
	JobSearchBlogPosts    = "searchBlogPosts"
	JobIsAuthorOfBlogPost = "isAuthorOfBlogPost"
	JobDeleteBlogPost     = "deleteBlogPost"
	JobUpdateBlogPost     = "updateBlogPost"
)

type (
	// API is the remote blog API (client.Client).
	API interface {
		SearchListBlogPosts(ctx context.Context, token model.AuthToken, query, ordering string, page int) resource.APIResponse[model.BlogListSearchResponse]
		IsAuthorOfBlogPost(ctx context.Context, token model.AuthToken, slug string) resource.APIResponse[model.GenericResponse]
		DeleteBlogPost(ctx context.Context, token model.AuthToken, slug string) resource.APIResponse[model.GenericResponse]
		UpdateBlog(ctx context.Context, token model.AuthToken, slug, title, body string, image *client.Image) resource.APIResponse[model.BlogCreateUpdateResponse]
	}

	// Connectivity answers the network availability query (session.Manager).
	Connectivity interface {
		IsConnectedToTheInternet(ctx context.Context) bool
	}

	// BlogRepository runs the blog operations. Each operation returns an
	// envelope stream that ends after its terminal envelope.
	BlogRepository struct {
		// Config
		pageSize int
		// Deps
		api          API
		store        storage.BlogPostStore
		connectivity Connectivity
		reconciler   *resource.Reconciler
		log          zerolog.Logger
	}

	// Stream is the envelope stream returned by the operations.
	Stream = *resource.Subscription[resource.DataState[model.BlogViewState]]
)

// SearchBlogPosts fetches a page, persists it and publishes the cumulative cached list.
// Offline, the cached list is published instead.
func (r *BlogRepository) SearchBlogPosts(ctx context.Context, token model.AuthToken, query, filterAndOrder string, page int) Stream {
	op := &searchOperation{
		repo:           r,
		token:          token,
		query:          query,
		filterAndOrder: filterAndOrder,
		page:           page,
	}
	opts := resource.Options{
		IsNetworkAvailable:                      r.connectivity.IsConnectedToTheInternet(ctx),
		ShouldCancelIfNoNetwork:                 true,
		ShouldLoadFromCacheBeforeFetch:          false,
		ShouldProcessResponseEvenWithoutNetwork: true,
	}

	return resource.Reconcile[model.BlogListSearchResponse, model.BlogList, model.BlogViewState](ctx, r.reconciler, JobSearchBlogPosts, opts, op)
}

// IsAuthorOfBlogPost checks whether the token owner may edit the post.
func (r *BlogRepository) IsAuthorOfBlogPost(ctx context.Context, token model.AuthToken, slug string) Stream {
	op := &isAuthorOperation{
		repo:  r,
		token: token,
		slug:  slug,
	}

	return resource.Reconcile[model.GenericResponse, struct{}, model.BlogViewState](ctx, r.reconciler, JobIsAuthorOfBlogPost, r.networkOnlyOptions(ctx), op)
}

// DeleteBlogPost deletes the post remotely, then from the cache.
func (r *BlogRepository) DeleteBlogPost(ctx context.Context, token model.AuthToken, post model.BlogPost) Stream {
	op := &deleteOperation{
		repo:  r,
		token: token,
		post:  post,
	}

	return resource.Reconcile[model.GenericResponse, model.BlogPost, model.BlogViewState](ctx, r.reconciler, JobDeleteBlogPost, r.networkOnlyOptions(ctx), op)
}

// UpdateBlogPost sends the edit, then updates the cached row with the server copy.
func (r *BlogRepository) UpdateBlogPost(ctx context.Context, token model.AuthToken, slug, title, body string, image *client.Image) Stream {
	op := &updateOperation{
		repo:  r,
		token: token,
		slug:  slug,
		title: title,
		body:  body,
		image: image,
	}

	return resource.Reconcile[model.BlogCreateUpdateResponse, model.BlogPost, model.BlogViewState](ctx, r.reconciler, JobUpdateBlogPost, r.networkOnlyOptions(ctx), op)
}

// CancelActiveJobs cancels every running operation.
func (r *BlogRepository) CancelActiveJobs() {
	r.reconciler.Jobs().CancelActiveJobs()
}

// networkOnlyOptions is the policy of the operations without a cache view.
func (r *BlogRepository) networkOnlyOptions(ctx context.Context) resource.Options {
	return resource.Options{
		IsNetworkAvailable:                      r.connectivity.IsConnectedToTheInternet(ctx),
		ShouldCancelIfNoNetwork:                 true,
		ShouldLoadFromCacheBeforeFetch:          true,
		ShouldProcessResponseEvenWithoutNetwork: false,
	}
}

// NewBlogRepository creates a new BlogRepository object.
func NewBlogRepository(api API, store storage.BlogPostStore, connectivity Connectivity, reconciler *resource.Reconciler, pageSize int, log zerolog.Logger) (*BlogRepository, error) {
	if api == nil {
		return nil, fmt.Errorf("%s: nil", "api")
	}
	if store == nil {
		return nil, fmt.Errorf("%s: nil", "store")
	}
	if connectivity == nil {
		return nil, fmt.Errorf("%s: nil", "connectivity")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("%s: nil", "reconciler")
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "pageSize")
	}

	return &BlogRepository{
		pageSize:     pageSize,
		api:          api,
		store:        store,
		connectivity: connectivity,
		reconciler:   reconciler,
		log:          log.With().Str("component", "repository").Logger(),
	}, nil
}
