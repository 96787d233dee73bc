package model

type (
	// BlogViewState is the projection the blog screens render.
	BlogViewState struct {
		BlogFields       BlogFields
		ViewBlogFields   ViewBlogFields
		UpdateBlogFields UpdateBlogFields
	}

	// BlogFields is the list screen state.
	BlogFields struct {
		BlogList          BlogList
		SearchQuery       string
		Page              int
		IsQueryInProgress bool
		IsQueryExhausted  bool
		Filter            FilterField
		Order             OrderDirection
	}

	// ViewBlogFields is the detail screen state.
	ViewBlogFields struct {
		BlogPost           *BlogPost
		IsAuthorOfBlogPost bool
	}

	// UpdateBlogFields is the pending edit of the selected post.
	UpdateBlogFields struct {
		UpdatedBlogTitle string
		UpdatedBlogBody  string
		UpdatedImagePath string
	}
)

// NewBlogViewState returns the initial state: first page, newest first.
func NewBlogViewState() BlogViewState {
	return BlogViewState{
		BlogFields: BlogFields{
			Page:   1,
			Filter: BlogFilterDateUpdated,
			Order:  BlogOrderDesc,
		},
	}
}

// Clone returns a deep copy safe to hand to observers.
func (s BlogViewState) Clone() BlogViewState {
	out := s
	if s.BlogFields.BlogList != nil {
		out.BlogFields.BlogList = make(BlogList, len(s.BlogFields.BlogList))
		copy(out.BlogFields.BlogList, s.BlogFields.BlogList)
	}
	if s.ViewBlogFields.BlogPost != nil {
		post := *s.ViewBlogFields.BlogPost
		out.ViewBlogFields.BlogPost = &post
	}

	return out
}
