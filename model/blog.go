package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

type (
	// BlogPost is a cached blog post, keyed by Pk.
	BlogPost struct {
		Pk          int
		Title       string
		Slug        string
		Body        string
		Image       string
		DateUpdated int64 // unix milliseconds
		Username    string
	}

	// BlogList is an ordered cache view.
	BlogList []BlogPost
)

// String implements the stringer interface.
func (p BlogPost) String() string {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("marshal: %v", err)
	}

	return string(raw)
}

// String implements the stringer interface.
func (l BlogList) String() string {
	str := strings.Builder{}
	for i, post := range l {
		str.WriteString(fmt.Sprintf("- [%d] %s by %s (%s)\n", i, post.Title, post.Username, post.Slug))
	}

	return str.String()
}

// IndexOf returns the position of the post with the given pk or -1.
func (l BlogList) IndexOf(pk int) int {
	for i, post := range l {
		if post.Pk == pk {
			return i
		}
	}

	return -1
}

// Without returns a copy of the list without the post with the given pk.
func (l BlogList) Without(pk int) BlogList {
	out := make(BlogList, 0, len(l))
	for _, post := range l {
		if post.Pk != pk {
			out = append(out, post)
		}
	}

	return out
}

// Replace returns a copy of the list with the post matching updated.Pk replaced.
func (l BlogList) Replace(updated BlogPost) BlogList {
	out := make(BlogList, len(l))
	copy(out, l)
	if idx := out.IndexOf(updated.Pk); idx >= 0 {
		out[idx] = updated
	}

	return out
}
