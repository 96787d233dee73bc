// Package sqlite provides the SQLite-backed blog post cache.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/storage"
	"github.com/itiky/blogsync/storage/sqlite/migrations"
)

const blogPostColumns = `pk, title, slug, body, image, date_updated, username`

// Store persists the blog post cache in SQLite.
type Store struct {
	sqlDB *sql.DB
	feed  *storage.Feed
}

var _ storage.BlogPostStore = (*Store)(nil)

// Open opens a SQLite cache and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Writers are serialized by the connection, concurrent inserts queue here
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB, feed: storage.NewFeed()}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Changes implements storage.BlogPostStore interface.
func (s *Store) Changes() *storage.Feed {
	return s.feed
}

// Insert implements storage.BlogPostStore interface.
func (s *Store) Insert(ctx context.Context, post model.BlogPost) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if post.Pk <= 0 {
		return fmt.Errorf("%s: must be GT 0", "pk")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO blog_post (`+blogPostColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		post.Pk,
		post.Title,
		post.Slug,
		post.Body,
		post.Image,
		post.DateUpdated,
		post.Username,
	)
	if err != nil {
		return fmt.Errorf("insert blog post (%s): %w", post.Slug, err)
	}
	s.feed.Publish()

	return nil
}

// GetBlogPost implements storage.BlogPostStore interface.
func (s *Store) GetBlogPost(ctx context.Context, pk int) (model.BlogPost, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+blogPostColumns+` FROM blog_post WHERE pk = ?`, pk)
	return scanBlogPost(row)
}

// GetBlogPostBySlug implements storage.BlogPostStore interface.
func (s *Store) GetBlogPostBySlug(ctx context.Context, slug string) (model.BlogPost, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+blogPostColumns+` FROM blog_post WHERE slug = ?`, strings.TrimSpace(slug))
	return scanBlogPost(row)
}

// DeleteBlogPost implements storage.BlogPostStore interface.
func (s *Store) DeleteBlogPost(ctx context.Context, pk int) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM blog_post WHERE pk = ?`, pk)
	if err != nil {
		return fmt.Errorf("delete blog post (%d): %w", pk, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.feed.Publish()
	}

	return nil
}

// UpdateBlogPost implements storage.BlogPostStore interface.
func (s *Store) UpdateBlogPost(ctx context.Context, pk int, title, body, image string) error {
	res, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE blog_post SET title = ?, body = ?, image = ? WHERE pk = ?`,
		title,
		body,
		image,
		pk,
	)
	if err != nil {
		return fmt.Errorf("update blog post (%d): %w", pk, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update blog post (%d): %w", pk, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	s.feed.Publish()

	return nil
}

// SearchBlogPosts implements storage.BlogPostStore interface.
func (s *Store) SearchBlogPosts(ctx context.Context, q storage.SearchQuery) (model.BlogList, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}

	query := strings.TrimSpace(q.Query)
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+blogPostColumns+`
		   FROM blog_post
		  WHERE title LIKE '%' || ? || '%'
		     OR body LIKE '%' || ? || '%'
		     OR username LIKE '%' || ? || '%'
		  ORDER BY `+orderByClause(q.FilterAndOrder)+`
		  LIMIT ? OFFSET ?`,
		query,
		query,
		query,
		q.Limit,
		q.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("search blog posts: %w", err)
	}
	defer rows.Close()

	list := make(model.BlogList, 0, q.Limit)
	for rows.Next() {
		post, err := scanBlogPost(rows)
		if err != nil {
			return nil, fmt.Errorf("search blog posts: %w", err)
		}
		list = append(list, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search blog posts: %w", err)
	}

	return list, nil
}

// Count implements storage.BlogPostStore interface.
func (s *Store) Count(ctx context.Context, query string) (int, error) {
	query = strings.TrimSpace(query)

	var count int
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*)
		   FROM blog_post
		  WHERE title LIKE '%' || ? || '%'
		     OR body LIKE '%' || ? || '%'
		     OR username LIKE '%' || ? || '%'`,
		query,
		query,
		query,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count blog posts: %w", err)
	}

	return count, nil
}

// orderByClause maps the selector onto a whitelisted ORDER BY clause.
func orderByClause(filterAndOrder string) string {
	order, filter := model.ParseFilterAndOrder(filterAndOrder)

	direction := "ASC"
	if order == model.BlogOrderDesc {
		direction = "DESC"
	}
	column := "date_updated"
	if filter == model.BlogFilterUsername {
		column = "username"
	}

	return column + " " + direction + ", pk " + direction
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlogPost(row rowScanner) (model.BlogPost, error) {
	var post model.BlogPost
	err := row.Scan(
		&post.Pk,
		&post.Title,
		&post.Slug,
		&post.Body,
		&post.Image,
		&post.DateUpdated,
		&post.Username,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BlogPost{}, storage.ErrNotFound
		}
		return model.BlogPost{}, fmt.Errorf("scan blog post: %w", err)
	}

	return post, nil
}
