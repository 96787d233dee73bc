package memory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/itiky/blogsync/model"
)

type (
	// Item keeps Store element data.
	Item struct {
		Post      model.BlogPost
		IsDeleted bool
		UpdatedAt time.Time
	}
)

// String implements stringer interface.
func (i Item) String() string {
	raw, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return fmt.Sprintf("marshal: %v", err)
	}

	return string(raw)
}

// less is the list order: date_updated, then pk.
func (i *Item) less(other *Item) bool {
	if i.Post.DateUpdated != other.Post.DateUpdated {
		return i.Post.DateUpdated < other.Post.DateUpdated
	}

	return i.Post.Pk < other.Post.Pk
}

// NewItem creates a new Item object (no validation as it is used internaly).
func NewItem(post model.BlogPost, timestamp time.Time) *Item {
	return &Item{
		Post:      post,
		UpdatedAt: timestamp,
	}
}
