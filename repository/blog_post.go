package repository

import (
	"context"
	"errors"

	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/resource"
	"github.com/itiky/blogsync/service/client"
	"github.com/itiky/blogsync/storage"
)

type (
	// isAuthorOperation implements resource.Operation, it has no cache side.
	isAuthorOperation struct {
		resource.NoCache[struct{}, model.BlogViewState]
		repo  *BlogRepository
		token model.AuthToken
		slug  string
	}

	// deleteOperation implements resource.Operation, the cache entry goes once the server confirms.
	deleteOperation struct {
		resource.NoCache[model.BlogPost, model.BlogViewState]
		repo  *BlogRepository
		token model.AuthToken
		post  model.BlogPost
	}

	// updateOperation implements resource.Operation, the cache row takes the server copy.
	updateOperation struct {
		resource.NoCache[model.BlogPost, model.BlogViewState]
		repo  *BlogRepository
		token model.AuthToken
		slug  string
		title string
		body  string
		image *client.Image
	}
)

// CreateCall implements resource.Operation interface.
func (o *isAuthorOperation) CreateCall(ctx context.Context) resource.APIResponse[model.GenericResponse] {
	return o.repo.api.IsAuthorOfBlogPost(ctx, o.token, o.slug)
}

// HandleAPISuccessResponse implements resource.Operation interface.
func (o *isAuthorOperation) HandleAPISuccessResponse(_ context.Context, resp model.GenericResponse) resource.DataState[model.BlogViewState] {
	o.repo.log.Debug().Str("slug", o.slug).Str("response", resp.Response).Msg("is author")

	view := model.BlogViewState{
		ViewBlogFields: model.ViewBlogFields{
			IsAuthorOfBlogPost: resp.Response == model.ResponseHasPermissionToEdit,
		},
	}

	return resource.Data(&view, nil)
}

// CreateCall implements resource.Operation interface.
func (o *deleteOperation) CreateCall(ctx context.Context) resource.APIResponse[model.GenericResponse] {
	return o.repo.api.DeleteBlogPost(ctx, o.token, o.post.Slug)
}

// UpdateLocalDB implements resource.Operation interface.
func (o *deleteOperation) UpdateLocalDB(ctx context.Context, post model.BlogPost) error {
	return o.repo.store.DeleteBlogPost(ctx, post.Pk)
}

// HandleAPISuccessResponse implements resource.Operation interface.
func (o *deleteOperation) HandleAPISuccessResponse(ctx context.Context, resp model.GenericResponse) resource.DataState[model.BlogViewState] {
	if resp.Response != model.SuccessBlogDeleted {
		o.repo.log.Info().Str("slug", o.post.Slug).Str("response", resp.Response).Msg("delete refused")
		return resource.Error[model.BlogViewState](resource.Response{Message: model.ErrorUnknown, Type: resource.ResponseDialog})
	}

	if err := o.UpdateLocalDB(ctx, o.post); err != nil {
		o.repo.log.Error().Err(err).Int("pk", o.post.Pk).Msg("cache delete failed")
	}

	return resource.Data[model.BlogViewState](nil, &resource.Response{Message: model.SuccessBlogDeleted, Type: resource.ResponseToast})
}

// CreateCall implements resource.Operation interface.
func (o *updateOperation) CreateCall(ctx context.Context) resource.APIResponse[model.BlogCreateUpdateResponse] {
	return o.repo.api.UpdateBlog(ctx, o.token, o.slug, o.title, o.body, o.image)
}

// UpdateLocalDB implements resource.Operation interface.
func (o *updateOperation) UpdateLocalDB(ctx context.Context, post model.BlogPost) error {
	return o.repo.store.UpdateBlogPost(ctx, post.Pk, post.Title, post.Body, post.Image)
}

// HandleAPISuccessResponse implements resource.Operation interface.
func (o *updateOperation) HandleAPISuccessResponse(ctx context.Context, resp model.BlogCreateUpdateResponse) resource.DataState[model.BlogViewState] {
	if resp.Response != model.SuccessBlogUpdated {
		message := resp.Response
		if message == "" {
			message = model.ErrorUnknown
		}
		return resource.Error[model.BlogViewState](resource.Response{Message: message, Type: resource.ResponseDialog})
	}

	post := resp.ToBlogPost()
	if err := o.UpdateLocalDB(ctx, post); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			o.repo.log.Debug().Int("pk", post.Pk).Msg("updated post is not cached")
		} else {
			o.repo.log.Error().Err(err).Int("pk", post.Pk).Msg("cache update failed")
		}
	}

	view := model.BlogViewState{
		ViewBlogFields: model.ViewBlogFields{
			BlogPost: &post,
		},
	}

	return resource.Data(&view, &resource.Response{Message: resp.Response, Type: resource.ResponseToast})
}
