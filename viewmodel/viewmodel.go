// Package viewmodel holds the blog screens state and turns host events into repository calls.
package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/repository"
	"github.com/itiky/blogsync/resource"
	"github.com/itiky/blogsync/service/client"
)

var (
	// ErrQueryInProgress is returned by NextPage while a page is loading.
	ErrQueryInProgress = errors.New("query in progress")
	// ErrQueryExhausted is returned by NextPage after the last page.
	ErrQueryExhausted = errors.New("query exhausted")
	// ErrNoBlogPost is returned by the events that need a selected post.
	ErrNoBlogPost = errors.New("no blog post selected")
	// ErrNoTerminalState is returned when a stream ends without a terminal envelope.
	ErrNoTerminalState = errors.New("stream finished without a terminal state")
)

type (
	// Repository runs the blog operations (repository.BlogRepository).
	Repository interface {
		SearchBlogPosts(ctx context.Context, token model.AuthToken, query, filterAndOrder string, page int) repository.Stream
		IsAuthorOfBlogPost(ctx context.Context, token model.AuthToken, slug string) repository.Stream
		DeleteBlogPost(ctx context.Context, token model.AuthToken, post model.BlogPost) repository.Stream
		UpdateBlogPost(ctx context.Context, token model.AuthToken, slug, title, body string, image *client.Image) repository.Stream
		WatchBlogPosts(ctx context.Context, query, filterAndOrder string, page int) *resource.Subscription[model.BlogViewState]
		CancelActiveJobs()
	}

	// TokenSource provides the signed-in account token (session.Manager).
	TokenSource interface {
		CachedToken() (model.AuthToken, error)
	}

	// BlogViewModel keeps model.BlogViewState. It is safe for concurrent use.
	BlogViewModel struct {
		sync.Mutex
		state model.BlogViewState
		// Deps
		repo      Repository
		tokens    TokenSource
		prefsPath string
		log       zerolog.Logger
	}
)

// ViewState returns a state snapshot.
func (vm *BlogViewModel) ViewState() model.BlogViewState {
	vm.Lock()
	defer vm.Unlock()

	return vm.state.Clone()
}

// SetQuery sets the search text.
func (vm *BlogViewModel) SetQuery(query string) {
	vm.Lock()
	defer vm.Unlock()

	vm.state.BlogFields.SearchQuery = query
}

// SetBlogFilter sets the list filter.
func (vm *BlogViewModel) SetBlogFilter(filter model.FilterField) {
	vm.Lock()
	defer vm.Unlock()

	vm.state.BlogFields.Filter = filter
}

// SetBlogOrder sets the list order.
func (vm *BlogViewModel) SetBlogOrder(order model.OrderDirection) {
	vm.Lock()
	defer vm.Unlock()

	vm.state.BlogFields.Order = order
}

// GetFilter returns the list filter.
func (vm *BlogViewModel) GetFilter() model.FilterField {
	vm.Lock()
	defer vm.Unlock()

	return vm.state.BlogFields.Filter
}

// GetOrder returns the list order.
func (vm *BlogViewModel) GetOrder() model.OrderDirection {
	vm.Lock()
	defer vm.Unlock()

	return vm.state.BlogFields.Order
}

// SaveFilterOptions persists the filter and order for the next start.
func (vm *BlogViewModel) SaveFilterOptions(filter model.FilterField, order model.OrderDirection) error {
	return SavePreferences(vm.prefsPath, Preferences{
		BlogFilter: string(filter),
		BlogOrder:  string(order),
	})
}

// SetQueryExhausted sets the "no more pages" flag.
func (vm *BlogViewModel) SetQueryExhausted(exhausted bool) {
	vm.Lock()
	defer vm.Unlock()

	vm.state.BlogFields.IsQueryExhausted = exhausted
}

// SetQueryInProgress sets the "page is loading" flag.
func (vm *BlogViewModel) SetQueryInProgress(inProgress bool) {
	vm.Lock()
	defer vm.Unlock()

	vm.state.BlogFields.IsQueryInProgress = inProgress
}

// HandleIncomingBlogListData takes the list and its flags from a search result.
func (vm *BlogViewModel) HandleIncomingBlogListData(view model.BlogViewState) {
	vm.Lock()
	defer vm.Unlock()

	vm.state.BlogFields.BlogList = view.BlogFields.BlogList
	vm.state.BlogFields.IsQueryExhausted = view.BlogFields.IsQueryExhausted
	vm.state.BlogFields.IsQueryInProgress = view.BlogFields.IsQueryInProgress
}

// SetBlogPost selects a post.
func (vm *BlogViewModel) SetBlogPost(post model.BlogPost) {
	vm.Lock()
	defer vm.Unlock()

	vm.state.ViewBlogFields.BlogPost = &post
}

// SetIsAuthorOfBlogPost sets the selected post ownership.
func (vm *BlogViewModel) SetIsAuthorOfBlogPost(isAuthor bool) {
	vm.Lock()
	defer vm.Unlock()

	vm.state.ViewBlogFields.IsAuthorOfBlogPost = isAuthor
}

// SetUpdatedBlogFields sets the pending edit, empty values keep the current ones.
func (vm *BlogViewModel) SetUpdatedBlogFields(title, body, imagePath string) {
	vm.Lock()
	defer vm.Unlock()

	fields := &vm.state.UpdateBlogFields
	if title != "" {
		fields.UpdatedBlogTitle = title
	}
	if body != "" {
		fields.UpdatedBlogBody = body
	}
	if imagePath != "" {
		fields.UpdatedImagePath = imagePath
	}
}

// OnBlogPostUpdateSuccess puts the server copy of the post everywhere it is shown.
func (vm *BlogViewModel) OnBlogPostUpdateSuccess(post model.BlogPost) {
	vm.Lock()
	defer vm.Unlock()

	vm.state.UpdateBlogFields.UpdatedBlogTitle = post.Title
	vm.state.UpdateBlogFields.UpdatedBlogBody = post.Body
	vm.state.ViewBlogFields.BlogPost = &post
	vm.state.BlogFields.BlogList = vm.state.BlogFields.BlogList.Replace(post)
}

// RemoveDeletedBlogPost drops the selected post from the list.
func (vm *BlogViewModel) RemoveDeletedBlogPost() {
	vm.Lock()
	defer vm.Unlock()

	post := vm.state.ViewBlogFields.BlogPost
	if post == nil {
		return
	}
	vm.state.BlogFields.BlogList = vm.state.BlogFields.BlogList.Without(post.Pk)
	vm.state.ViewBlogFields = model.ViewBlogFields{}
}

// LoadFirstPage resets the pagination and searches.
func (vm *BlogViewModel) LoadFirstPage(ctx context.Context) (resource.DataState[model.BlogViewState], error) {
	vm.Lock()
	vm.state.BlogFields.IsQueryInProgress = true
	vm.state.BlogFields.IsQueryExhausted = false
	vm.state.BlogFields.Page = 1
	vm.Unlock()

	return vm.Run(ctx, SearchEvent{})
}

// NextPage searches the following page unless a query is running or the list is exhausted.
func (vm *BlogViewModel) NextPage(ctx context.Context) (resource.DataState[model.BlogViewState], error) {
	vm.Lock()
	switch {
	case vm.state.BlogFields.IsQueryInProgress:
		vm.Unlock()
		return resource.DataState[model.BlogViewState]{}, ErrQueryInProgress
	case vm.state.BlogFields.IsQueryExhausted:
		vm.Unlock()
		return resource.DataState[model.BlogViewState]{}, ErrQueryExhausted
	}
	vm.state.BlogFields.Page++
	vm.state.BlogFields.IsQueryInProgress = true
	vm.Unlock()

	return vm.Run(ctx, SearchEvent{})
}

// HandleDataState applies an envelope produced for event to the state.
// Data payloads are consumed; the "Invalid page." error is consumed and
// turned into the exhausted flag.
func (vm *BlogViewModel) HandleDataState(event StateEvent, state resource.DataState[model.BlogViewState]) {
	if state.Data != nil {
		if view, ok := state.Data.GetContentIfNotHandled(); ok && view != nil {
			vm.handleView(event, *view)
		}
	}

	switch state.Status {
	case resource.StatusSuccess:
		if _, ok := event.(DeleteBlogPostEvent); ok && state.Message() == model.SuccessBlogDeleted {
			vm.RemoveDeletedBlogPost()
		}
	case resource.StatusError:
		if _, ok := event.(SearchEvent); !ok {
			return
		}
		if model.IsPaginationDone(state.Message()) {
			state.Response.GetContentIfNotHandled()
			vm.SetQueryExhausted(true)
		}
		vm.SetQueryInProgress(false)
	}
}

func (vm *BlogViewModel) handleView(event StateEvent, view model.BlogViewState) {
	switch event.(type) {
	case SearchEvent:
		vm.HandleIncomingBlogListData(view)
	case CheckAuthorOfBlogPost:
		vm.SetIsAuthorOfBlogPost(view.ViewBlogFields.IsAuthorOfBlogPost)
	case UpdateBlogPostEvent:
		if view.ViewBlogFields.BlogPost != nil {
			vm.OnBlogPostUpdateSuccess(*view.ViewBlogFields.BlogPost)
		}
	}
}

// Run starts the operation behind event and applies every envelope until the terminal one,
// which is returned with its Response not consumed.
func (vm *BlogViewModel) Run(ctx context.Context, event StateEvent) (resource.DataState[model.BlogViewState], error) {
	log := vm.log.With().Stringer("event", event).Logger()

	stream, err := vm.start(ctx, event)
	if err != nil {
		if _, ok := event.(SearchEvent); ok {
			vm.SetQueryInProgress(false)
		}
		return resource.DataState[model.BlogViewState]{}, err
	}
	if stream == nil {
		return resource.DataState[model.BlogViewState]{}, nil
	}
	defer stream.Cancel()

	for {
		select {
		case <-ctx.Done():
			if _, ok := event.(SearchEvent); ok {
				vm.SetQueryInProgress(false)
			}
			return resource.DataState[model.BlogViewState]{}, ctx.Err()
		case state, ok := <-stream.Values():
			if !ok {
				if _, ok := event.(SearchEvent); ok {
					vm.SetQueryInProgress(false)
				}
				return resource.DataState[model.BlogViewState]{}, ErrNoTerminalState
			}
			log.Debug().Stringer("state", state).Msg("data state")
			vm.HandleDataState(event, state)
			if state.IsTerminal() {
				return state, nil
			}
		}
	}
}

// start maps event to its repository stream. Local validation failures come back as a
// one-envelope stream, NoneEvent as nil.
func (vm *BlogViewModel) start(ctx context.Context, event StateEvent) (repository.Stream, error) {
	if _, ok := event.(NoneEvent); ok {
		return nil, nil
	}

	token, err := vm.tokens.CachedToken()
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	state := vm.ViewState()

	switch e := event.(type) {
	case SearchEvent:
		fields := state.BlogFields
		return vm.repo.SearchBlogPosts(ctx, token, fields.SearchQuery, model.FilterAndOrder(fields.Order, fields.Filter), fields.Page), nil
	case CheckAuthorOfBlogPost:
		if state.ViewBlogFields.BlogPost == nil {
			return nil, ErrNoBlogPost
		}
		return vm.repo.IsAuthorOfBlogPost(ctx, token, state.ViewBlogFields.BlogPost.Slug), nil
	case DeleteBlogPostEvent:
		if state.ViewBlogFields.BlogPost == nil {
			return nil, ErrNoBlogPost
		}
		return vm.repo.DeleteBlogPost(ctx, token, *state.ViewBlogFields.BlogPost), nil
	case UpdateBlogPostEvent:
		if state.ViewBlogFields.BlogPost == nil {
			return nil, ErrNoBlogPost
		}
		imagePath := state.UpdateBlogFields.UpdatedImagePath
		if imagePath == "" {
			return dialog(model.ErrorMustSelectImage), nil
		}
		image, err := client.LoadImage(imagePath)
		if err != nil {
			vm.log.Warn().Err(err).Str("path", imagePath).Msg("image rejected")
			return dialog(model.ErrorSomethingWrongWithImage), nil
		}
		return vm.repo.UpdateBlogPost(ctx, token, state.ViewBlogFields.BlogPost.Slug, e.Title, e.Body, image), nil
	}

	return nil, fmt.Errorf("unsupported event: %s", event)
}

// dialog builds a finished stream with one error envelope.
func dialog(message string) repository.Stream {
	s := resource.NewSubscription[resource.DataState[model.BlogViewState]](1)
	s.Emit(resource.Error[model.BlogViewState](resource.Response{Message: message, Type: resource.ResponseDialog}))
	s.Finish()

	return s
}

// Watch follows the cached list for the loaded pages until ctx ends, calling onView with the
// state after every cache change. The current page is searched again every period.
func (vm *BlogViewModel) Watch(ctx context.Context, period time.Duration, onView func(model.BlogViewState)) error {
	if period <= 0 {
		return fmt.Errorf("%s: must be GT 0", "period")
	}

	fields := vm.ViewState().BlogFields
	sub := vm.repo.WatchBlogPosts(ctx, fields.SearchQuery, model.FilterAndOrder(fields.Order, fields.Filter), fields.Page)
	defer sub.Cancel()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case view, ok := <-sub.Values():
			if !ok {
				return nil
			}
			vm.Lock()
			vm.state.BlogFields.BlogList = view.BlogFields.BlogList
			vm.Unlock()
			onView(vm.ViewState())
		case <-ticker.C:
			if _, err := vm.Run(ctx, SearchEvent{}); err != nil && ctx.Err() == nil {
				vm.log.Warn().Err(err).Msg("watch refresh")
			}
		}
	}
}

// Cancel cancels the running operations.
func (vm *BlogViewModel) Cancel() {
	vm.repo.CancelActiveJobs()
}

// NewBlogViewModel creates a new BlogViewModel object, the filter comes from the preferences file.
func NewBlogViewModel(repo Repository, tokens TokenSource, prefsPath string, log zerolog.Logger) (*BlogViewModel, error) {
	if repo == nil {
		return nil, fmt.Errorf("%s: nil", "repo")
	}
	if tokens == nil {
		return nil, fmt.Errorf("%s: nil", "tokens")
	}

	prefs, err := LoadPreferences(prefsPath)
	if err != nil {
		return nil, err
	}

	state := model.NewBlogViewState()
	state.BlogFields.Filter = model.FilterField(prefs.BlogFilter)
	state.BlogFields.Order = model.OrderDirection(prefs.BlogOrder)

	return &BlogViewModel{
		state:     state,
		repo:      repo,
		tokens:    tokens,
		prefsPath: prefsPath,
		log:       log.With().Str("component", "viewmodel").Logger(),
	}, nil
}
