package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func newPost(pk int, dateUpdated int64, username string) model.BlogPost {
	return model.BlogPost{
		Pk:          pk,
		Title:       fmt.Sprintf("title %d", pk),
		Slug:        fmt.Sprintf("slug-%d", pk),
		Body:        fmt.Sprintf("body %d", pk),
		Image:       fmt.Sprintf("https://cdn.example.com/%d.png", pk),
		DateUpdated: dateUpdated,
		Username:    username,
	}
}

func pks(list model.BlogList) []int {
	out := make([]int, 0, len(list))
	for _, p := range list {
		out = append(out, p.Pk)
	}
	return out
}

func Test_Open_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), " ")
	require.Error(t, err)
}

func Test_Open_TwiceKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, store.Insert(context.Background(), newPost(1, 10, "mitch")))
	require.NoError(t, store.Close())

	store, err = Open(context.Background(), path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetBlogPost(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "slug-1", got.Slug)
}

func Test_Insert_ReplacesAndNotifies(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)
	changes, unsubscribe := store.Changes().Subscribe()
	defer unsubscribe()

	post := newPost(1, 10, "mitch")
	require.NoError(t, store.Insert(ctx, post))
	require.EqualValues(t, 1, <-changes)

	post.Title = "renamed"
	require.NoError(t, store.Insert(ctx, post))
	require.EqualValues(t, 2, <-changes)

	got, err := store.GetBlogPostBySlug(ctx, "slug-1")
	require.NoError(t, err)
	require.Equal(t, post, got)

	require.Error(t, store.Insert(ctx, model.BlogPost{Slug: "no-pk"}))
}

func Test_SearchBlogPosts_OrdersAndLimits(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)
	for _, post := range []model.BlogPost{
		newPost(1, 10, "mitch"),
		newPost(2, 30, "blake"),
		newPost(3, 20, "jessica"),
		newPost(4, 40, "blake"),
	} {
		require.NoError(t, store.Insert(ctx, post))
	}

	list, err := store.SearchBlogPosts(ctx, storage.SearchQuery{FilterAndOrder: "-date_updated", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []int{4, 2, 3, 1}, pks(list))

	list, err = store.SearchBlogPosts(ctx, storage.SearchQuery{FilterAndOrder: "username", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []int{2, 4, 3, 1}, pks(list))

	list, err = store.SearchBlogPosts(ctx, storage.SearchQuery{Query: "Blake", FilterAndOrder: "date_updated", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []int{2, 4}, pks(list))

	// cumulative window of page 1 with page size 2: two rows plus the look-ahead one
	list, err = store.SearchBlogPosts(ctx, storage.CumulativePage("", "-date_updated", 1, 2))
	require.NoError(t, err)
	require.Equal(t, []int{4, 2, 3}, pks(list))

	list, err = store.SearchBlogPosts(ctx, storage.SinglePage("", "-date_updated", 2, 3))
	require.NoError(t, err)
	require.Equal(t, []int{1}, pks(list))

	count, err := store.Count(ctx, "blake")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	_, err = store.SearchBlogPosts(ctx, storage.SearchQuery{Limit: 0})
	require.Error(t, err)
}

func Test_Store_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)
	require.NoError(t, store.Insert(ctx, newPost(1, 10, "mitch")))

	require.NoError(t, store.UpdateBlogPost(ctx, 1, "t", "b", "i.png"))
	got, err := store.GetBlogPost(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "t", got.Title)
	require.Equal(t, "b", got.Body)
	require.Equal(t, "i.png", got.Image)
	require.Equal(t, "slug-1", got.Slug)

	require.ErrorIs(t, store.UpdateBlogPost(ctx, 2, "t", "b", "i"), storage.ErrNotFound)

	version := store.Changes().Version()
	require.NoError(t, store.DeleteBlogPost(ctx, 1))
	require.Equal(t, version+1, store.Changes().Version())
	_, err = store.GetBlogPost(ctx, 1)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// unknown pk: no error, no notification
	require.NoError(t, store.DeleteBlogPost(ctx, 1))
	require.Equal(t, version+1, store.Changes().Version())
}

func Test_ExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (x INT);\n-- +migrate Down\nDROP TABLE a;"
	require.Equal(t, "\nCREATE TABLE a (x INT);\n", extractUpMigration(content))
	require.Equal(t, "CREATE TABLE b (x INT);", extractUpMigration("CREATE TABLE b (x INT);"))
}
