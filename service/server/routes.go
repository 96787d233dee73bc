package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/storage"
	"github.com/itiky/blogsync/storage/memory"
)

const (
	ctxKeyAccount = "account"

	maxImageBytes = 10 << 20

	responseNoPermissionToDelete = "You don't have permission to delete that."
	responseBlogPostNotFound     = "That blog post doesn't exist."
	errorTitleAndBodyRequired    = "Title and body must not be empty."
	errorInvalidImage            = "Invalid image."
	detailNoCredentials          = "Authentication credentials were not provided."
	detailInvalidToken           = "Invalid token."
)

// newRouter builds the gin engine.
func (s *BlogService) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "blogsync-api",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	blog := r.Group("/api/blog", s.authenticate())
	blog.GET("/list", s.listBlogPosts)
	blog.GET("/:slug/is_author", s.isAuthorOfBlogPost)
	blog.DELETE("/:slug/delete", s.deleteBlogPost)
	blog.PUT("/:slug/update", s.updateBlogPost)

	return r
}

// requestLogger logs every request and feeds the monitor.
func (s *BlogService) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		dur := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		monitor.RequestServed(route, c.Writer.Status(), dur)

		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("dur", dur).
			Msg("request")
	}
}

// authenticate resolves the "Token <token>" header to an Account.
func (s *BlogService) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Token ")
		if !found || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{Detail: detailNoCredentials})
			return
		}

		acc, found := s.accounts.Lookup(strings.TrimSpace(token))
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{Detail: detailInvalidToken})
			return
		}

		c.Set(ctxKeyAccount, acc)
		c.Next()
	}
}

func account(c *gin.Context) Account {
	acc, _ := c.MustGet(ctxKeyAccount).(Account)
	return acc
}

// listBlogPosts serves one page of the ordered search, 404 past the last page.
func (s *BlogService) listBlogPosts(c *gin.Context) {
	ctx := c.Request.Context()

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusNotFound, model.BlogListSearchResponse{Detail: model.ErrorInvalidPage})
		return
	}
	query := c.Query("search")
	ordering := c.Query("ordering")

	total, err := s.store.Count(ctx, query)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if page > 1 && (page-1)*s.pageSize >= total {
		c.JSON(http.StatusNotFound, model.BlogListSearchResponse{Detail: model.ErrorInvalidPage})
		return
	}

	posts, err := s.store.SearchBlogPosts(ctx, storage.SinglePage(query, ordering, page, s.pageSize))
	if err != nil {
		s.internalError(c, err)
		return
	}

	res := model.BlogListSearchResponse{
		Results: make([]model.BlogSearchResponse, 0, len(posts)),
	}
	for _, post := range posts {
		res.Results = append(res.Results, model.NewBlogSearchResponse(post))
	}

	c.JSON(http.StatusOK, res)
}

// isAuthorOfBlogPost reports whether the caller owns the post.
func (s *BlogService) isAuthorOfBlogPost(c *gin.Context) {
	post, ok := s.lookupPost(c)
	if !ok {
		return
	}

	response := model.ResponseNoPermissionToEdit
	if post.Username == account(c).Username {
		response = model.ResponseHasPermissionToEdit
	}

	c.JSON(http.StatusOK, model.GenericResponse{Response: response})
}

// deleteBlogPost removes the post owned by the caller.
func (s *BlogService) deleteBlogPost(c *gin.Context) {
	post, ok := s.lookupPost(c)
	if !ok {
		return
	}
	if post.Username != account(c).Username {
		c.JSON(http.StatusOK, model.GenericResponse{Response: responseNoPermissionToDelete})
		return
	}

	op, err := memory.NewDeleteOperation(post.Pk, time.Now().UTC())
	if err != nil {
		s.internalError(c, err)
		return
	}
	if _, err := s.submit(c.Request.Context(), op); err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.GenericResponse{Response: model.SuccessBlogDeleted})
}

// updateBlogPost replaces title, body and (optionally) image of the caller's post.
func (s *BlogService) updateBlogPost(c *gin.Context) {
	post, ok := s.lookupPost(c)
	if !ok {
		return
	}
	if post.Username != account(c).Username {
		c.JSON(http.StatusOK, model.BlogCreateUpdateResponse{Response: model.ResponseNoPermissionToEdit})
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	body := strings.TrimSpace(c.PostForm("body"))
	if title == "" || body == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{ErrorMessage: errorTitleAndBodyRequired})
		return
	}

	image, err := s.readImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{ErrorMessage: errorInvalidImage})
		return
	}

	now := time.Now().UTC()
	post.Title, post.Body = title, body
	post.DateUpdated = now.UnixMilli()
	if image != "" {
		post.Image = image
	}

	op, err := memory.NewSetOperation(post, now)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if _, err := s.submit(c.Request.Context(), op); err != nil {
		s.internalError(c, err)
		return
	}

	wire := model.NewBlogSearchResponse(post)
	c.JSON(http.StatusOK, model.BlogCreateUpdateResponse{
		Response:    model.SuccessBlogUpdated,
		Pk:          wire.Pk,
		Title:       wire.Title,
		Slug:        wire.Slug,
		Body:        wire.Body,
		Image:       wire.Image,
		DateUpdated: wire.DateUpdated,
		Username:    wire.Username,
	})
}

// readImage validates the optional "image" part and returns its public URL.
func (s *BlogService) readImage(c *gin.Context) (string, error) {
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if header.Size <= 0 || header.Size > maxImageBytes {
		return "", errors.New("image size out of range")
	}

	f, err := header.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}

	var ext string
	switch http.DetectContentType(head[:n]) {
	case "image/jpeg":
		ext = "jpg"
	case "image/png":
		ext = "png"
	default:
		return "", errors.New("unsupported image type")
	}

	return "https://cdn.example.com/blog/" + uuid.NewString() + "." + ext, nil
}

// lookupPost resolves the :slug param, writes a 404 if unknown.
func (s *BlogService) lookupPost(c *gin.Context) (model.BlogPost, bool) {
	post, err := s.store.GetBlogPostBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Response: responseBlogPostNotFound})
		return model.BlogPost{}, false
	}
	if err != nil {
		s.internalError(c, err)
		return model.BlogPost{}, false
	}

	return post, true
}

func (s *BlogService) internalError(c *gin.Context, err error) {
	s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, model.ErrorResponse{ErrorMessage: model.ErrorUnknown})
}
