package memory

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/itiky/blogsync/model"
)

var (
	mockUsernames = []string{"mitch", "blake", "jessica", "sam", "lee"}
	mockTopics    = []string{"Kotlin", "Go", "Caching", "Pagination", "SQLite", "Networking", "Testing"}
)

// GenAndSavePosts generates random blog posts and saves them to file system.
func GenAndSavePosts(filePath string, count int) error {
	if count <= 0 {
		return fmt.Errorf("%s: must be GT 0", "count")
	}

	log.Info().Int("count", count).Msg("creating and sorting posts")
	posts := newMockPosts(count, time.Now())

	log.Info().Msg("GOB marshal")
	raw := new(bytes.Buffer)
	if err := gob.NewEncoder(raw).Encode(posts); err != nil {
		return fmt.Errorf("GOB marshal: %w", err)
	}

	log.Info().Str("path", filePath).Msg("saving file")
	if err := os.WriteFile(filePath, raw.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write to file (%s): %w", filePath, err)
	}

	return nil
}

// NewStoreFromFile builds the Store object from a GenAndSavePosts file.
func NewStoreFromFile(filePath string) (*Store, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading file (%s): %w", filePath, err)
	}

	posts := make([]model.BlogPost, 0)
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&posts); err != nil {
		return nil, fmt.Errorf("GOB unmarshal: %w", err)
	}

	s := NewStoreFromPosts(posts, time.Now().UTC())
	log.Info().Int("posts", len(s.idDataMatch)).Msg("store created")

	return s, nil
}

// NewStoreFromPosts builds the Store object from posts.
func NewStoreFromPosts(posts []model.BlogPost, now time.Time) *Store {
	s := NewStore()
	for _, post := range posts {
		s.set(post, now)
	}

	return s
}

// NewMockPosts builds n mock posts (pk 1..n), sorted by date_updated.
func NewMockPosts(n int, now time.Time) []model.BlogPost {
	return newMockPosts(n, now)
}

func newMockPosts(n int, now time.Time) []model.BlogPost {
	posts := make([]model.BlogPost, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, newMockPost(i+1, now))
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].DateUpdated < posts[j].DateUpdated
	})

	return posts
}

// newMockPost builds a mock post updated within the last 30 days.
func newMockPost(pk int, now time.Time) model.BlogPost {
	topic := mockTopics[rand.Intn(len(mockTopics))]
	updated := now.Add(-time.Duration(rand.Int63n(int64(30 * 24 * time.Hour))))

	return model.BlogPost{
		Pk:          pk,
		Title:       fmt.Sprintf("%s notes #%d", topic, pk),
		Slug:        fmt.Sprintf("%d-%s", pk, uuid.New().String()[:8]),
		Body:        fmt.Sprintf("Some thoughts about %s.", topic),
		Image:       fmt.Sprintf("https://cdn.example.com/%s.png", uuid.New().String()),
		DateUpdated: updated.UTC().UnixMilli(),
		Username:    mockUsernames[rand.Intn(len(mockUsernames))],
	}
}
