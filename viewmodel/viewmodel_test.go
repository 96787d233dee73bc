package viewmodel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/repository"
	"github.com/itiky/blogsync/resource"
	"github.com/itiky/blogsync/service/client"
	"github.com/itiky/blogsync/session"
)

type (
	viewState = resource.DataState[model.BlogViewState]

	searchCall struct {
		query          string
		filterAndOrder string
		page           int
	}

	// fakeRepository answers with canned streams.
	fakeRepository struct {
		calls     atomic.Int32
		canceled  atomic.Int32
		searches  []searchCall
		search    func(call searchCall) repository.Stream
		isAuthor  func(slug string) repository.Stream
		delete    func(post model.BlogPost) repository.Stream
		update    func(slug, title, body string, image *client.Image) repository.Stream
		watch     func(ctx context.Context, page int) *resource.Subscription[model.BlogViewState]
		lastImage *client.Image
	}
)

func (r *fakeRepository) SearchBlogPosts(_ context.Context, _ model.AuthToken, query, filterAndOrder string, page int) repository.Stream {
	r.calls.Add(1)
	call := searchCall{query: query, filterAndOrder: filterAndOrder, page: page}
	r.searches = append(r.searches, call)
	return r.search(call)
}

func (r *fakeRepository) IsAuthorOfBlogPost(_ context.Context, _ model.AuthToken, slug string) repository.Stream {
	r.calls.Add(1)
	return r.isAuthor(slug)
}

func (r *fakeRepository) DeleteBlogPost(_ context.Context, _ model.AuthToken, post model.BlogPost) repository.Stream {
	r.calls.Add(1)
	return r.delete(post)
}

func (r *fakeRepository) UpdateBlogPost(_ context.Context, _ model.AuthToken, slug, title, body string, image *client.Image) repository.Stream {
	r.calls.Add(1)
	r.lastImage = image
	return r.update(slug, title, body, image)
}

func (r *fakeRepository) WatchBlogPosts(ctx context.Context, _, _ string, page int) *resource.Subscription[model.BlogViewState] {
	return r.watch(ctx, page)
}

func (r *fakeRepository) CancelActiveJobs() {
	r.canceled.Add(1)
}

func streamOf(states ...viewState) repository.Stream {
	s := resource.NewSubscription[viewState](len(states))
	for _, state := range states {
		s.Emit(state)
	}
	s.Finish()

	return s
}

func listView(n int, exhausted bool) *model.BlogViewState {
	view := model.NewBlogViewState()
	for pk := 1; pk <= n; pk++ {
		view.BlogFields.BlogList = append(view.BlogFields.BlogList, model.BlogPost{Pk: pk, Slug: fmt.Sprintf("post-%d", pk), Title: fmt.Sprintf("Post %d", pk)})
	}
	view.BlogFields.IsQueryExhausted = exhausted

	return &view
}

func newTestViewModel(t *testing.T, repo *fakeRepository) *BlogViewModel {
	tokens := session.NewManager(nil, zerolog.Nop())
	require.NoError(t, tokens.Login(model.AuthToken{AccountPk: 1, Token: "token"}))

	vm, err := NewBlogViewModel(repo, tokens, filepath.Join(t.TempDir(), "prefs.toml"), zerolog.Nop())
	require.NoError(t, err)

	return vm
}

func Test_BlogViewModel_Pagination(t *testing.T) {
	repo := &fakeRepository{
		search: func(call searchCall) repository.Stream {
			if call.page >= 3 {
				return streamOf(
					resource.Loading[model.BlogViewState](nil),
					resource.Error[model.BlogViewState](resource.Response{Message: model.ErrorInvalidPage, Type: resource.ResponseDialog}),
				)
			}
			return streamOf(
				resource.Loading[model.BlogViewState](nil),
				resource.Data(listView(call.page*2, false), nil),
			)
		},
	}
	vm := newTestViewModel(t, repo)
	ctx := context.Background()

	state, err := vm.LoadFirstPage(ctx)
	require.NoError(t, err)
	require.Equal(t, resource.StatusSuccess, state.Status)
	require.True(t, state.Data.HasBeenHandled())

	fields := vm.ViewState().BlogFields
	require.Len(t, fields.BlogList, 2)
	require.Equal(t, 1, fields.Page)
	require.False(t, fields.IsQueryInProgress)

	_, err = vm.NextPage(ctx)
	require.NoError(t, err)
	fields = vm.ViewState().BlogFields
	require.Len(t, fields.BlogList, 4)
	require.Equal(t, 2, fields.Page)

	// Past the last page: no error display, the list is exhausted
	state, err = vm.NextPage(ctx)
	require.NoError(t, err)
	require.Equal(t, resource.StatusError, state.Status)
	require.True(t, state.Response.HasBeenHandled())
	fields = vm.ViewState().BlogFields
	require.True(t, fields.IsQueryExhausted)
	require.False(t, fields.IsQueryInProgress)
	require.Len(t, fields.BlogList, 4)

	_, err = vm.NextPage(ctx)
	require.ErrorIs(t, err, ErrQueryExhausted)
	require.Len(t, repo.searches, 3)

	// Reset
	_, err = vm.LoadFirstPage(ctx)
	require.NoError(t, err)
	fields = vm.ViewState().BlogFields
	require.Equal(t, 1, fields.Page)
	require.False(t, fields.IsQueryExhausted)
	require.Len(t, fields.BlogList, 2)
}

func Test_BlogViewModel_SearchParams(t *testing.T) {
	repo := &fakeRepository{
		search: func(call searchCall) repository.Stream {
			return streamOf(resource.Data(listView(1, true), nil))
		},
	}
	vm := newTestViewModel(t, repo)

	vm.SetQuery("go")
	vm.SetBlogFilter(model.BlogFilterUsername)
	vm.SetBlogOrder(model.BlogOrderAsc)
	require.Equal(t, model.BlogFilterUsername, vm.GetFilter())
	require.Equal(t, model.BlogOrderAsc, vm.GetOrder())

	_, err := vm.LoadFirstPage(context.Background())
	require.NoError(t, err)
	require.Equal(t, []searchCall{{query: "go", filterAndOrder: "username", page: 1}}, repo.searches)
	require.True(t, vm.ViewState().BlogFields.IsQueryExhausted)

	vm.SetQueryInProgress(true)
	vm.SetQueryExhausted(false)
	_, err = vm.NextPage(context.Background())
	require.ErrorIs(t, err, ErrQueryInProgress)
}

func Test_BlogViewModel_SearchErrorReleasesQuery(t *testing.T) {
	repo := &fakeRepository{
		search: func(call searchCall) repository.Stream {
			return streamOf(resource.Error[model.BlogViewState](resource.Response{Message: model.ErrorCheckNetworkConnection, Type: resource.ResponseDialog}))
		},
	}
	vm := newTestViewModel(t, repo)

	state, err := vm.LoadFirstPage(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.ErrorCheckNetworkConnection, state.Message())
	require.False(t, state.Response.HasBeenHandled())

	fields := vm.ViewState().BlogFields
	require.False(t, fields.IsQueryInProgress)
	require.False(t, fields.IsQueryExhausted)
}

func Test_BlogViewModel_NoTerminalState(t *testing.T) {
	repo := &fakeRepository{
		search: func(call searchCall) repository.Stream {
			return streamOf(resource.Loading[model.BlogViewState](nil))
		},
	}
	vm := newTestViewModel(t, repo)

	_, err := vm.LoadFirstPage(context.Background())
	require.ErrorIs(t, err, ErrNoTerminalState)
	require.False(t, vm.ViewState().BlogFields.IsQueryInProgress)
}

// Test checks a search abandoned by the caller releases the query for the next page.
func Test_BlogViewModel_CanceledSearchReleasesQuery(t *testing.T) {
	repo := &fakeRepository{
		search: func(call searchCall) repository.Stream {
			if call.page == 1 {
				// Never reaches a terminal envelope
				s := resource.NewSubscription[viewState](1)
				s.Emit(resource.Loading[model.BlogViewState](nil))
				return s
			}
			return streamOf(resource.Data(listView(2, false), nil))
		},
	}
	vm := newTestViewModel(t, repo)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := vm.LoadFirstPage(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, vm.ViewState().BlogFields.IsQueryInProgress)

	state, err := vm.NextPage(context.Background())
	require.NoError(t, err)
	require.Equal(t, resource.StatusSuccess, state.Status)
	require.Equal(t, 2, vm.ViewState().BlogFields.Page)
}

// Test checks Watch reports every cache change and refreshes the current page meanwhile.
func Test_BlogViewModel_Watch(t *testing.T) {
	var (
		changed     = make(chan struct{})
		changedOnce sync.Once
	)
	repo := &fakeRepository{
		search: func(call searchCall) repository.Stream {
			changedOnce.Do(func() { close(changed) })
			return streamOf(resource.Data(listView(3, false), nil))
		},
		watch: func(ctx context.Context, page int) *resource.Subscription[model.BlogViewState] {
			return resource.Start(ctx, 1, func(ctx context.Context, s *resource.Subscription[model.BlogViewState]) {
				if !s.Emit(*listView(1, false)) {
					return
				}
				select {
				case <-changed:
					s.Emit(*listView(3, false))
				case <-ctx.Done():
				}
				<-ctx.Done()
			})
		},
	}
	vm := newTestViewModel(t, repo)

	require.Error(t, vm.Watch(context.Background(), 0, func(model.BlogViewState) {}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sizes := make([]int, 0)
	err := vm.Watch(ctx, 5*time.Millisecond, func(view model.BlogViewState) {
		sizes = append(sizes, len(view.BlogFields.BlogList))
		if len(view.BlogFields.BlogList) == 3 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, []int{1, 3}, sizes)
	require.NotEmpty(t, repo.searches)
	require.Equal(t, 1, repo.searches[0].page)
}

func Test_BlogViewModel_CheckAuthor(t *testing.T) {
	repo := &fakeRepository{
		isAuthor: func(slug string) repository.Stream {
			view := model.BlogViewState{ViewBlogFields: model.ViewBlogFields{IsAuthorOfBlogPost: slug == "post-1"}}
			return streamOf(resource.Data(&view, nil))
		},
	}
	vm := newTestViewModel(t, repo)
	ctx := context.Background()

	_, err := vm.Run(ctx, CheckAuthorOfBlogPost{})
	require.ErrorIs(t, err, ErrNoBlogPost)

	vm.SetBlogPost(model.BlogPost{Pk: 1, Slug: "post-1"})
	_, err = vm.Run(ctx, CheckAuthorOfBlogPost{})
	require.NoError(t, err)
	require.True(t, vm.ViewState().ViewBlogFields.IsAuthorOfBlogPost)

	vm.SetBlogPost(model.BlogPost{Pk: 2, Slug: "post-2"})
	_, err = vm.Run(ctx, CheckAuthorOfBlogPost{})
	require.NoError(t, err)
	require.False(t, vm.ViewState().ViewBlogFields.IsAuthorOfBlogPost)
}

func Test_BlogViewModel_Delete(t *testing.T) {
	repo := &fakeRepository{
		search: func(call searchCall) repository.Stream {
			return streamOf(resource.Data(listView(3, true), nil))
		},
		delete: func(post model.BlogPost) repository.Stream {
			return streamOf(
				resource.Loading[model.BlogViewState](nil),
				resource.Data[model.BlogViewState](nil, &resource.Response{Message: model.SuccessBlogDeleted, Type: resource.ResponseToast}),
			)
		},
	}
	vm := newTestViewModel(t, repo)
	ctx := context.Background()

	_, err := vm.LoadFirstPage(ctx)
	require.NoError(t, err)

	vm.SetBlogPost(vm.ViewState().BlogFields.BlogList[1])
	state, err := vm.Run(ctx, DeleteBlogPostEvent{})
	require.NoError(t, err)
	require.Equal(t, model.SuccessBlogDeleted, state.Message())

	view := vm.ViewState()
	require.Nil(t, view.ViewBlogFields.BlogPost)
	require.Len(t, view.BlogFields.BlogList, 2)
	require.Equal(t, -1, view.BlogFields.BlogList.IndexOf(2))
}

func Test_BlogViewModel_Update(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "cover.png")
	require.NoError(t, os.WriteFile(pngPath, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o644))
	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("not an image"), 0o644))

	repo := &fakeRepository{
		search: func(call searchCall) repository.Stream {
			return streamOf(resource.Data(listView(2, true), nil))
		},
		update: func(slug, title, body string, image *client.Image) repository.Stream {
			post := model.BlogPost{Pk: 1, Slug: slug, Title: title, Body: body, Image: "https://cdn.example.com/new.png"}
			view := model.BlogViewState{ViewBlogFields: model.ViewBlogFields{BlogPost: &post}}
			return streamOf(resource.Data(&view, &resource.Response{Message: model.SuccessBlogUpdated, Type: resource.ResponseToast}))
		},
	}
	vm := newTestViewModel(t, repo)
	ctx := context.Background()

	_, err := vm.LoadFirstPage(ctx)
	require.NoError(t, err)
	vm.SetBlogPost(vm.ViewState().BlogFields.BlogList[0])
	calls := repo.calls.Load()

	// No image selected
	state, err := vm.Run(ctx, UpdateBlogPostEvent{Title: "New", Body: "Body"})
	require.NoError(t, err)
	require.Equal(t, resource.StatusError, state.Status)
	require.Equal(t, model.ErrorMustSelectImage, state.Message())

	// Not an image
	vm.SetUpdatedBlogFields("", "", txtPath)
	state, err = vm.Run(ctx, UpdateBlogPostEvent{Title: "New", Body: "Body"})
	require.NoError(t, err)
	require.Equal(t, model.ErrorSomethingWrongWithImage, state.Message())
	require.Equal(t, calls, repo.calls.Load())

	vm.SetUpdatedBlogFields("", "", pngPath)
	state, err = vm.Run(ctx, UpdateBlogPostEvent{Title: "New", Body: "Body"})
	require.NoError(t, err)
	require.Equal(t, model.SuccessBlogUpdated, state.Message())
	require.NotNil(t, repo.lastImage)
	require.Equal(t, "image/png", repo.lastImage.ContentType)

	view := vm.ViewState()
	require.Equal(t, "New", view.ViewBlogFields.BlogPost.Title)
	require.Equal(t, "New", view.UpdateBlogFields.UpdatedBlogTitle)
	require.Equal(t, "Body", view.UpdateBlogFields.UpdatedBlogBody)
	require.Equal(t, "New", view.BlogFields.BlogList[0].Title)
	require.Equal(t, "Post 2", view.BlogFields.BlogList[1].Title)
}

func Test_BlogViewModel_NoToken(t *testing.T) {
	repo := &fakeRepository{}
	vm, err := NewBlogViewModel(repo, session.NewManager(nil, zerolog.Nop()), "", zerolog.Nop())
	require.NoError(t, err)

	_, err = vm.LoadFirstPage(context.Background())
	require.ErrorIs(t, err, session.ErrNotAuthenticated)
	require.Zero(t, repo.calls.Load())
	require.False(t, vm.ViewState().BlogFields.IsQueryInProgress)

	state, err := vm.Run(context.Background(), NoneEvent{})
	require.NoError(t, err)
	require.Nil(t, state.Data)

	vm.Cancel()
	require.Equal(t, int32(1), repo.canceled.Load())
}

func Test_Preferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")

	prefs, err := LoadPreferences(path)
	require.NoError(t, err)
	require.Equal(t, Preferences{BlogFilter: "date_updated", BlogOrder: "-"}, prefs)

	repo := &fakeRepository{}
	tokens := session.NewManager(nil, zerolog.Nop())
	vm, err := NewBlogViewModel(repo, tokens, path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, vm.SaveFilterOptions(model.BlogFilterUsername, model.BlogOrderAsc))

	vm, err = NewBlogViewModel(repo, tokens, path, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, model.BlogFilterUsername, vm.GetFilter())
	require.Equal(t, model.BlogOrderAsc, vm.GetOrder())

	require.NoError(t, os.WriteFile(path, []byte("blog_filter = \"pk\"\nblog_order = \"+\"\n"), 0o644))
	prefs, err = LoadPreferences(path)
	require.NoError(t, err)
	require.Equal(t, Preferences{BlogFilter: "date_updated", BlogOrder: "-"}, prefs)

	require.NoError(t, os.WriteFile(path, []byte("blog_filter = "), 0o644))
	_, err = NewBlogViewModel(repo, tokens, path, zerolog.Nop())
	require.Error(t, err)
}
