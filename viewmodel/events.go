package viewmodel

type (
	// StateEvent is a request the host sends to the view model.
	StateEvent interface {
		String() string
	}

	// SearchEvent loads the current page of the blog list.
	SearchEvent struct{}

	// CheckAuthorOfBlogPost asks whether the selected post may be edited.
	CheckAuthorOfBlogPost struct{}

	// DeleteBlogPostEvent deletes the selected post.
	DeleteBlogPostEvent struct{}

	// UpdateBlogPostEvent sends the edit of the selected post.
	// The image comes from UpdateBlogFields.UpdatedImagePath.
	UpdateBlogPostEvent struct {
		Title string
		Body  string
	}

	// NoneEvent does nothing.
	NoneEvent struct{}
)

func (SearchEvent) String() string           { return "SearchEvent" }
func (CheckAuthorOfBlogPost) String() string { return "CheckAuthorOfBlogPost" }
func (DeleteBlogPostEvent) String() string   { return "DeleteBlogPostEvent" }
func (UpdateBlogPostEvent) String() string   { return "UpdateBlogPostEvent" }
func (NoneEvent) String() string             { return "NoneEvent" }
