// Package memory implements storage.BlogPostStore in memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/storage"
)

type (
	// Store keeps Item elements alongside the list view sorted by date_updated.
	// Store implements the "soft delete" methodology.
	Store struct {
		sync.RWMutex
		list        []*Item
		idDataMatch map[int]*Item
		feed        *storage.Feed
	}
)

var _ storage.BlogPostStore = (*Store)(nil)

// String implements stringer interface.
func (s *Store) String() string {
	s.RLock()
	defer s.RUnlock()

	str := strings.Builder{}
	for i, item := range s.list {
		str.WriteString(fmt.Sprintf("- [%d] %d %s (%d)\n", i, item.Post.Pk, item.Post.Slug, item.Post.DateUpdated))
	}

	return str.String()
}

// Insert implements storage.BlogPostStore interface.
func (s *Store) Insert(ctx context.Context, post model.BlogPost) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.Lock()
	s.set(post, time.Now().UTC())
	s.Unlock()

	s.feed.Publish()

	return nil
}

// GetBlogPost implements storage.BlogPostStore interface.
func (s *Store) GetBlogPost(ctx context.Context, pk int) (model.BlogPost, error) {
	if err := ctx.Err(); err != nil {
		return model.BlogPost{}, err
	}

	s.RLock()
	defer s.RUnlock()

	item, found := s.idDataMatch[pk]
	if !found || item.IsDeleted {
		return model.BlogPost{}, storage.ErrNotFound
	}

	return item.Post, nil
}

// GetBlogPostBySlug implements storage.BlogPostStore interface.
func (s *Store) GetBlogPostBySlug(ctx context.Context, slug string) (model.BlogPost, error) {
	if err := ctx.Err(); err != nil {
		return model.BlogPost{}, err
	}

	s.RLock()
	defer s.RUnlock()

	for _, item := range s.list {
		if item.Post.Slug == slug {
			return item.Post, nil
		}
	}

	return model.BlogPost{}, storage.ErrNotFound
}

// DeleteBlogPost implements storage.BlogPostStore interface.
func (s *Store) DeleteBlogPost(ctx context.Context, pk int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.Lock()
	deleted := s.delete(pk, time.Now().UTC())
	s.Unlock()

	if deleted {
		s.feed.Publish()
	}

	return nil
}

// UpdateBlogPost implements storage.BlogPostStore interface.
func (s *Store) UpdateBlogPost(ctx context.Context, pk int, title, body, image string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.Lock()
	item, found := s.idDataMatch[pk]
	if !found || item.IsDeleted {
		s.Unlock()
		return storage.ErrNotFound
	}
	post := item.Post
	post.Title, post.Body, post.Image = title, body, image
	s.set(post, time.Now().UTC())
	s.Unlock()

	s.feed.Publish()

	return nil
}

// SearchBlogPosts implements storage.BlogPostStore interface.
func (s *Store) SearchBlogPosts(ctx context.Context, q storage.SearchQuery) (model.BlogList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}

	s.RLock()
	matched := s.match(q.Query)
	s.RUnlock()

	order, filter := model.ParseFilterAndOrder(q.FilterAndOrder)
	if filter == model.BlogFilterUsername {
		sort.SliceStable(matched, func(i, j int) bool {
			if matched[i].Username != matched[j].Username {
				return matched[i].Username < matched[j].Username
			}
			return matched[i].Pk < matched[j].Pk
		})
	}
	if order == model.BlogOrderDesc {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	if q.Offset >= len(matched) {
		return model.BlogList{}, nil
	}
	end := q.Offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[q.Offset:end], nil
}

// Count implements storage.BlogPostStore interface.
func (s *Store) Count(ctx context.Context, query string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.RLock()
	defer s.RUnlock()

	return len(s.match(query)), nil
}

// Changes implements storage.BlogPostStore interface.
func (s *Store) Changes() *storage.Feed {
	return s.feed
}

// Close implements storage.BlogPostStore interface.
func (s *Store) Close() error {
	return nil
}

// Export builds a model.BlogList (snapshot) in the date_updated order.
func (s *Store) Export() model.BlogList {
	s.RLock()
	defer s.RUnlock()

	list := make(model.BlogList, 0, len(s.list))
	for _, item := range s.list {
		list = append(list, item.Post)
	}

	return list
}

// match returns the posts (list order) whose title, body or username contains query.
func (s *Store) match(query string) model.BlogList {
	query = strings.ToLower(strings.TrimSpace(query))

	out := make(model.BlogList, 0, len(s.list))
	for _, item := range s.list {
		if query == "" ||
			strings.Contains(strings.ToLower(item.Post.Title), query) ||
			strings.Contains(strings.ToLower(item.Post.Body), query) ||
			strings.Contains(strings.ToLower(item.Post.Username), query) {
			out = append(out, item.Post)
		}
	}

	return out
}

// set creates a new / updates an existing Item while updating the sorted list index state.
// Returns the item position.
func (s *Store) set(post model.BlogPost, timestamp time.Time) int {
	item, found := s.idDataMatch[post.Pk]
	if !found {
		// Add a new Item
		item = NewItem(post, timestamp)
		s.idDataMatch[post.Pk] = item

		return s.insert(item)
	}

	if !item.IsDeleted {
		// Update an existing item (that might break the sorting, so we have to cut/insert)
		itemIdxToCut := s.findItemIdx(item)
		s.list = append(s.list[:itemIdxToCut], s.list[itemIdxToCut+1:]...)
	}

	// Update (a soft deleted item gets revived)
	item.Post = post
	item.IsDeleted = false
	item.UpdatedAt = timestamp

	return s.insert(item)
}

// delete marks an existing Item as deleted while updating the sorted list index state.
func (s *Store) delete(pk int, timestamp time.Time) bool {
	item, found := s.idDataMatch[pk]
	if !found || item.IsDeleted {
		return false
	}

	// Mark as deleted
	item.IsDeleted = true
	item.UpdatedAt = timestamp

	// Cut
	itemIdx := s.findItemIdx(item)
	s.list = append(s.list[:itemIdx], s.list[itemIdx+1:]...)

	return true
}

// insert puts item into the list keeping the order.
func (s *Store) insert(item *Item) int {
	itemIdxToInsert := s.findItemIdxLTTarget(item)
	s.list = append(s.list, nil)
	copy(s.list[itemIdxToInsert+1:], s.list[itemIdxToInsert:])
	s.list[itemIdxToInsert] = item

	return itemIdxToInsert
}

// findItemIdxLTTarget used by set/delete funcs: returns the leftmost item index not less than item.
func (s *Store) findItemIdxLTTarget(item *Item) int {
	return sort.Search(len(s.list), func(i int) bool {
		return !s.list[i].less(item)
	})
}

// findItemIdx used by set/delete funcs: returns the specified item index.
// Panics on failure (should not happen).
func (s *Store) findItemIdx(item *Item) int {
	itemIdx := s.findItemIdxLTTarget(item)
	if itemIdx == len(s.list) || s.list[itemIdx] != item {
		panic("item not found")
	}

	return itemIdx
}

// NewStore creates a new Store object.
func NewStore() *Store {
	return &Store{
		idDataMatch: make(map[int]*Item),
		feed:        storage.NewFeed(),
	}
}
