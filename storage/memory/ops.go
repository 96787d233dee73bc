package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/itiky/blogsync/model"
)

type (
	// Operation is a write performed on Store to update its state.
	Operation interface {
		// Update the store state, returns false if nothing changed
		Apply(s *Store) bool
		GetPk() int
		GetTimestamp() time.Time
	}

	// SetOperation implements Operation interface for create/update operation.
	SetOperation struct {
		Post      model.BlogPost
		UpdatedAt time.Time
	}

	// DeleteOperation implements Operation interface for delete operation.
	DeleteOperation struct {
		Pk        int
		DeletedAt time.Time
	}
)

// Apply implements Operation interface.
func (o SetOperation) Apply(s *Store) bool {
	s.set(o.Post, o.UpdatedAt)
	return true
}

// GetPk implements Operation interface.
func (o SetOperation) GetPk() int {
	return o.Post.Pk
}

// GetTimestamp implements Operation interface.
func (o SetOperation) GetTimestamp() time.Time {
	return o.UpdatedAt
}

// Apply implements Operation interface.
func (o DeleteOperation) Apply(s *Store) bool {
	return s.delete(o.Pk, o.DeletedAt)
}

// GetPk implements Operation interface.
func (o DeleteOperation) GetPk() int {
	return o.Pk
}

// GetTimestamp implements Operation interface.
func (o DeleteOperation) GetTimestamp() time.Time {
	return o.DeletedAt
}

// ApplyOperations updates the store state atomically and returns the number of effective operations.
func (s *Store) ApplyOperations(ops ...Operation) int {
	s.Lock()
	applied := 0
	for _, op := range ops {
		if op == nil {
			continue
		}
		if op.Apply(s) {
			applied++
		}
	}
	s.Unlock()

	if applied > 0 {
		s.feed.Publish()
	}

	return applied
}

// NewSetOperation creates a valid Operation object.
func NewSetOperation(post model.BlogPost, timestamp time.Time) (SetOperation, error) {
	if post.Pk <= 0 {
		return SetOperation{}, fmt.Errorf("%s: must be GT 0", "pk")
	}
	if strings.TrimSpace(post.Slug) == "" {
		return SetOperation{}, fmt.Errorf("%s: empty", "slug")
	}
	if timestamp.IsZero() {
		return SetOperation{}, fmt.Errorf("%s: zero", "timestamp")
	}

	return SetOperation{
		Post:      post,
		UpdatedAt: timestamp,
	}, nil
}

// NewDeleteOperation creates a valid Operation object.
func NewDeleteOperation(pk int, timestamp time.Time) (DeleteOperation, error) {
	if pk <= 0 {
		return DeleteOperation{}, fmt.Errorf("%s: must be GT 0", "pk")
	}
	if timestamp.IsZero() {
		return DeleteOperation{}, fmt.Errorf("%s: zero", "timestamp")
	}

	return DeleteOperation{
		Pk:        pk,
		DeletedAt: timestamp,
	}, nil
}
