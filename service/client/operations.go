package client

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/resource"
)

// SearchListBlogPosts requests one page of the ordered blog list.
func (c *Client) SearchListBlogPosts(ctx context.Context, token model.AuthToken, query, ordering string, page int) resource.APIResponse[model.BlogListSearchResponse] {
	params := url.Values{}
	params.Set("search", query)
	params.Set("ordering", ordering)
	params.Set("page", strconv.Itoa(page))

	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("blog/list", params), token, nil)
	if err != nil {
		return resource.NewAPIError[model.BlogListSearchResponse](0, err.Error())
	}

	return do[model.BlogListSearchResponse](c, "blog/list", req)
}

// IsAuthorOfBlogPost checks whether the token owner may edit the post.
func (c *Client) IsAuthorOfBlogPost(ctx context.Context, token model.AuthToken, slug string) resource.APIResponse[model.GenericResponse] {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("blog/"+url.PathEscape(slug)+"/is_author", nil), token, nil)
	if err != nil {
		return resource.NewAPIError[model.GenericResponse](0, err.Error())
	}

	return do[model.GenericResponse](c, "blog/is_author", req)
}

// DeleteBlogPost deletes the post.
func (c *Client) DeleteBlogPost(ctx context.Context, token model.AuthToken, slug string) resource.APIResponse[model.GenericResponse] {
	req, err := c.newRequest(ctx, http.MethodDelete, c.endpoint("blog/"+url.PathEscape(slug)+"/delete", nil), token, nil)
	if err != nil {
		return resource.NewAPIError[model.GenericResponse](0, err.Error())
	}

	return do[model.GenericResponse](c, "blog/delete", req)
}

// UpdateBlog sends the edited post as a multipart form, image is optional.
func (c *Client) UpdateBlog(ctx context.Context, token model.AuthToken, slug, title, body string, image *Image) resource.APIResponse[model.BlogCreateUpdateResponse] {
	form := new(bytes.Buffer)
	w := multipart.NewWriter(form)

	if err := w.WriteField("title", title); err != nil {
		return resource.NewAPIError[model.BlogCreateUpdateResponse](0, err.Error())
	}
	if err := w.WriteField("body", body); err != nil {
		return resource.NewAPIError[model.BlogCreateUpdateResponse](0, err.Error())
	}
	if image != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", multipart.FileContentDisposition("image", image.FileName))
		header.Set("Content-Type", image.ContentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return resource.NewAPIError[model.BlogCreateUpdateResponse](0, err.Error())
		}
		if _, err := part.Write(image.Data); err != nil {
			return resource.NewAPIError[model.BlogCreateUpdateResponse](0, err.Error())
		}
	}
	if err := w.Close(); err != nil {
		return resource.NewAPIError[model.BlogCreateUpdateResponse](0, err.Error())
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.endpoint("blog/"+url.PathEscape(slug)+"/update", nil), token, form)
	if err != nil {
		return resource.NewAPIError[model.BlogCreateUpdateResponse](0, err.Error())
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return do[model.BlogCreateUpdateResponse](c, "blog/update", req)
}
