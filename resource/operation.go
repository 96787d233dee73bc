package resource

import "context"

type (
	// Operation is the set of hooks a call site supplies for one request.
	//   Resp:  wire response body
	//   Cache: what gets persisted
	//   View:  the state published to observers
	Operation[Resp, Cache, View any] interface {
		// Issue the remote request
		CreateCall(ctx context.Context) APIResponse[Resp]
		// Build the view from local storage (nil: nothing cached)
		LoadFromCache(ctx context.Context) (*View, error)
		// Persist entries, returns once they are durable
		UpdateLocalDB(ctx context.Context, cache Cache) error
		// Turn a successful response into the terminal envelope
		HandleAPISuccessResponse(ctx context.Context, resp Resp) DataState[View]
		// Cache-only completion path, also used when offline
		CreateCacheRequestAndReturn(ctx context.Context) DataState[View]
	}

	// Options is the per invocation cache/network policy.
	Options struct {
		IsNetworkAvailable                      bool
		ShouldCancelIfNoNetwork                 bool
		ShouldLoadFromCacheBeforeFetch          bool
		ShouldProcessResponseEvenWithoutNetwork bool
	}

	// NoCache provides the cache hooks for network-only operations.
	NoCache[Cache, View any] struct{}
)

// LoadFromCache implements Operation interface.
func (n NoCache[Cache, View]) LoadFromCache(context.Context) (*View, error) {
	return nil, nil
}

// UpdateLocalDB implements Operation interface.
func (n NoCache[Cache, View]) UpdateLocalDB(context.Context, Cache) error {
	return nil
}

// CreateCacheRequestAndReturn implements Operation interface.
func (n NoCache[Cache, View]) CreateCacheRequestAndReturn(context.Context) DataState[View] {
	return Error[View](Response{Message: "cache not applicable", Type: ResponseDialog})
}
