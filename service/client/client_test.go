package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/resource"
	"github.com/itiky/blogsync/service/server"
	"github.com/itiky/blogsync/storage/memory"
)

var (
	aliceToken = model.AuthToken{AccountPk: 1, Token: "alice-token"}
	bobToken   = model.AuthToken{AccountPk: 2, Token: "bob-token"}

	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
)

func newTestAPI(t *testing.T, postsCnt int) (*Client, *server.BlogService) {
	gin.SetMode(gin.TestMode)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := make([]model.BlogPost, 0, postsCnt)
	for i := 1; i <= postsCnt; i++ {
		username := "alice"
		if i%2 == 0 {
			username = "bob"
		}
		posts = append(posts, model.BlogPost{
			Pk:          i,
			Title:       fmt.Sprintf("Post %d", i),
			Slug:        fmt.Sprintf("post-%d", i),
			Body:        fmt.Sprintf("Body %d", i),
			DateUpdated: base.Add(time.Duration(i) * time.Minute).UnixMilli(),
			Username:    username,
		})
	}

	accounts, err := server.ParseAccounts([]string{"alice:" + aliceToken.Token, "bob:" + bobToken.Token})
	require.NoError(t, err)

	svc, err := server.NewBlogService(memory.NewStoreFromPosts(posts, time.Now()), accounts, 3, 5*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	svc.Start()
	t.Cleanup(svc.Stop)

	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/api/", 2*time.Second, zerolog.Nop())
	require.NoError(t, err)

	return c, svc
}

func newRawAPI(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, 2*time.Second, zerolog.Nop())
	require.NoError(t, err)

	return c
}

func Test_NewClient_Validation(t *testing.T) {
	_, err := NewClient("http://localhost", 0, zerolog.Nop())
	require.Error(t, err)

	_, err = NewClient("ftp://localhost", time.Second, zerolog.Nop())
	require.Error(t, err)

	c, err := NewClient(" https://open-api.xyz/api/ ", time.Second, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "https://open-api.xyz/api/blog/list?page=1", c.endpoint("blog/list", map[string][]string{"page": {"1"}}))
}

func Test_Client_SearchListBlogPosts(t *testing.T) {
	c, _ := newTestAPI(t, 5)
	ctx := context.Background()

	res := c.SearchListBlogPosts(ctx, aliceToken, "", model.DefaultFilterAndOrder, 1)
	require.Equal(t, resource.APISuccess, res.Kind, res.String())
	require.Len(t, res.Body.Results, 3)
	require.Equal(t, 5, res.Body.Results[0].Pk)
	require.NotZero(t, res.Body.Results[0].ToBlogPost().DateUpdated)

	res = c.SearchListBlogPosts(ctx, aliceToken, "", model.DefaultFilterAndOrder, 2)
	require.Equal(t, resource.APISuccess, res.Kind)
	require.Len(t, res.Body.Results, 2)

	res = c.SearchListBlogPosts(ctx, aliceToken, "", model.DefaultFilterAndOrder, 3)
	require.Equal(t, resource.APIError, res.Kind)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	require.True(t, model.IsPaginationDone(res.ErrorMessage))

	res = c.SearchListBlogPosts(ctx, model.AuthToken{Token: "nope"}, "", "", 1)
	require.Equal(t, resource.APIError, res.Kind)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Equal(t, "Invalid token.", res.ErrorMessage)
}

func Test_Client_IsAuthorAndDelete(t *testing.T) {
	c, svc := newTestAPI(t, 2)
	ctx := context.Background()

	isAuthor := c.IsAuthorOfBlogPost(ctx, bobToken, "post-2")
	require.Equal(t, resource.APISuccess, isAuthor.Kind)
	require.Equal(t, model.ResponseHasPermissionToEdit, isAuthor.Body.Response)

	isAuthor = c.IsAuthorOfBlogPost(ctx, aliceToken, "post-2")
	require.Equal(t, model.ResponseNoPermissionToEdit, isAuthor.Body.Response)

	deleted := c.DeleteBlogPost(ctx, aliceToken, "post-2")
	require.Equal(t, resource.APISuccess, deleted.Kind)
	require.NotEqual(t, model.SuccessBlogDeleted, deleted.Body.Response)

	deleted = c.DeleteBlogPost(ctx, bobToken, "post-2")
	require.Equal(t, resource.APISuccess, deleted.Kind)
	require.Equal(t, model.SuccessBlogDeleted, deleted.Body.Response)
	require.Len(t, svc.Store().Export(), 1)

	deleted = c.DeleteBlogPost(ctx, bobToken, "post-2")
	require.Equal(t, resource.APIError, deleted.Kind)
	require.Equal(t, http.StatusNotFound, deleted.StatusCode)
}

func Test_Client_UpdateBlog(t *testing.T) {
	c, _ := newTestAPI(t, 1)
	ctx := context.Background()

	image, err := NewImage("cover.png", pngHeader)
	require.NoError(t, err)

	res := c.UpdateBlog(ctx, aliceToken, "post-1", "Title", "Body", image)
	require.Equal(t, resource.APISuccess, res.Kind, res.String())
	require.Equal(t, model.SuccessBlogUpdated, res.Body.Response)
	require.Equal(t, "Title", res.Body.Title)
	require.Contains(t, res.Body.Image, ".png")

	updated := res.Body.ToBlogPost()
	require.Equal(t, 1, updated.Pk)
	require.NotZero(t, updated.DateUpdated)

	res = c.UpdateBlog(ctx, aliceToken, "post-1", "", "Body", nil)
	require.Equal(t, resource.APIError, res.Kind)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.NotEmpty(t, res.ErrorMessage)
}

func Test_Client_ResponseKinds(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		c := newRawAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		res := c.IsAuthorOfBlogPost(ctx, aliceToken, "slug")
		require.Equal(t, resource.APIEmpty, res.Kind)
	})

	t.Run("status text fallback", func(t *testing.T) {
		c := newRawAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		res := c.IsAuthorOfBlogPost(ctx, aliceToken, "slug")
		require.Equal(t, resource.APIError, res.Kind)
		require.Equal(t, "Bad Gateway", res.ErrorMessage)
	})

	t.Run("error_message", func(t *testing.T) {
		c := newRawAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error_message":"boom","response":"Error"}`))
		})
		res := c.IsAuthorOfBlogPost(ctx, aliceToken, "slug")
		require.Equal(t, "boom", res.ErrorMessage)
	})

	t.Run("malformed body", func(t *testing.T) {
		c := newRawAPI(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})
		res := c.IsAuthorOfBlogPost(ctx, aliceToken, "slug")
		require.Equal(t, resource.APIError, res.Kind)
		require.Equal(t, model.ErrorUnknown, res.ErrorMessage)
	})

	t.Run("header and path", func(t *testing.T) {
		var gotAuth, gotPath string
		c := newRawAPI(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			_, _ = w.Write([]byte(`{"response":"deleted"}`))
		})
		res := c.DeleteBlogPost(ctx, aliceToken, "my-slug")
		require.Equal(t, resource.APISuccess, res.Kind)
		require.Equal(t, "Token alice-token", gotAuth)
		require.Equal(t, "/blog/my-slug/delete", gotPath)
	})

	t.Run("deadline", func(t *testing.T) {
		c := newRawAPI(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		})
		ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		res := c.IsAuthorOfBlogPost(ctx, aliceToken, "slug")
		require.Equal(t, resource.APIError, res.Kind)
		require.NotEmpty(t, res.ErrorMessage)
	})
}

func Test_Monitor_Report(t *testing.T) {
	c := newRawAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/blog/bad/is_author" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	})
	m := GetMonitor()
	m.Report()

	c.IsAuthorOfBlogPost(context.Background(), aliceToken, "good")
	c.IsAuthorOfBlogPost(context.Background(), aliceToken, "bad")

	report := m.Report()
	require.Equal(t, 2, report.CallsServed)
	require.Equal(t, 1, report.CallsFailed)
	require.GreaterOrEqual(t, report.AvgCallDurMs, 0.0)

	report = m.Report()
	require.Zero(t, report.CallsServed)
}

func Test_LoadImage(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "cover.png")
	require.NoError(t, os.WriteFile(pngPath, pngHeader, 0o644))
	image, err := LoadImage(pngPath)
	require.NoError(t, err)
	require.Equal(t, "image/png", image.ContentType)
	require.Equal(t, "cover.png", image.FileName)

	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("hello"), 0o644))
	_, err = LoadImage(txtPath)
	require.ErrorIs(t, err, ErrInvalidImage)

	emptyPath := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(emptyPath, nil, 0o644))
	_, err = LoadImage(emptyPath)
	require.ErrorIs(t, err, ErrInvalidImage)

	_, err = LoadImage(filepath.Join(dir, "missing.png"))
	require.Error(t, err)
}
