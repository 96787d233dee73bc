package model

// Search blog posts API response.
type (
	BlogSearchResponse struct {
		Pk          int    `json:"pk"`
		Title       string `json:"title"`
		Slug        string `json:"slug"`
		Body        string `json:"body"`
		Image       string `json:"image"`
		DateUpdated string `json:"date_updated"`
		Username    string `json:"username"`
	}

	BlogListSearchResponse struct {
		Results []BlogSearchResponse `json:"results"`
		// Set by the server on paging errors
		Detail string `json:"detail,omitempty"`
	}
)

// Status-only API response (is_author, delete).
type GenericResponse struct {
	Response string `json:"response"`
}

// Create / update blog post API response.
type BlogCreateUpdateResponse struct {
	Response    string `json:"response"`
	Pk          int    `json:"pk"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Body        string `json:"body"`
	Image       string `json:"image"`
	DateUpdated string `json:"date_updated"`
	Username    string `json:"username"`
}

// ErrorResponse is the body the API sends along non-2xx statuses.
type ErrorResponse struct {
	ErrorMessage string `json:"error_message,omitempty"`
	Detail       string `json:"detail,omitempty"`
	Response     string `json:"response,omitempty"`
}

// Message picks the most specific message the server provided.
func (r ErrorResponse) Message() string {
	switch {
	case r.ErrorMessage != "":
		return r.ErrorMessage
	case r.Detail != "":
		return r.Detail
	}

	return r.Response
}

// ToBlogPost converts the wire representation to a cache entry.
func (r BlogSearchResponse) ToBlogPost() BlogPost {
	return BlogPost{
		Pk:          r.Pk,
		Title:       r.Title,
		Slug:        r.Slug,
		Body:        r.Body,
		Image:       r.Image,
		DateUpdated: ConvertServerStringDateToLong(r.DateUpdated),
		Username:    r.Username,
	}
}

// ToBlogPost converts the wire representation to a cache entry.
func (r BlogCreateUpdateResponse) ToBlogPost() BlogPost {
	return BlogPost{
		Pk:          r.Pk,
		Title:       r.Title,
		Slug:        r.Slug,
		Body:        r.Body,
		Image:       r.Image,
		DateUpdated: ConvertServerStringDateToLong(r.DateUpdated),
		Username:    r.Username,
	}
}

// NewBlogSearchResponse builds the wire representation of a post.
func NewBlogSearchResponse(p BlogPost) BlogSearchResponse {
	return BlogSearchResponse{
		Pk:          p.Pk,
		Title:       p.Title,
		Slug:        p.Slug,
		Body:        p.Body,
		Image:       p.Image,
		DateUpdated: ConvertLongToServerStringDate(p.DateUpdated),
		Username:    p.Username,
	}
}
