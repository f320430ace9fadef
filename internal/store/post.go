// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"folio/internal/apperr"
	"folio/internal/models"
)

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

const postColumns = `id, title, slug, excerpt, content, status, tags,
	       category_id, series_id, series_order, meta_description, meta_keywords,
	       author_id, views, likes, published_at, created_at, updated_at`

// scanPost scans a row into a Post struct. Tags are stored as a JSONB
// array and decoded here.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	var tags []byte
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.Status, &tags,
		&p.CategoryID, &p.SeriesID, &p.SeriesOrder, &p.MetaDescription, &p.MetaKeywords,
		&p.AuthorID, &p.Views, &p.Likes, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

// encodeTags serializes a tag set for storage. nil becomes an empty array.
func encodeTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

// Create inserts a new post and returns it with the generated ID.
// A duplicate slug is reported as a conflict; an unknown category or
// series as a validation error.
func (s *PostStore) Create(p *models.Post) (*models.Post, error) {
	// If publishing immediately, set the published_at timestamp.
	if p.Status == models.PostStatusPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}

	tags, err := encodeTags(p.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	row := s.db.QueryRow(`
		INSERT INTO posts (title, slug, excerpt, content, status, tags,
		                   category_id, series_id, series_order,
		                   meta_description, meta_keywords, author_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+postColumns,
		p.Title, p.Slug, p.Excerpt, p.Content, p.Status, tags,
		p.CategoryID, p.SeriesID, p.SeriesOrder,
		p.MetaDescription, p.MetaKeywords, p.AuthorID, p.PublishedAt,
	)
	result, err := scanPost(row)
	if err != nil {
		err = classify(err,
			"a post with this slug already exists",
			"referenced category or series does not exist")
		return nil, fmt.Errorf("create post: %w", err)
	}
	return result, nil
}

// Update replaces all editable fields of an existing post (whole-object
// save — there is no partial update). The published_at timestamp is set
// on the first transition to published and kept afterwards.
func (s *PostStore) Update(p *models.Post) (*models.Post, error) {
	if p.Status == models.PostStatusPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}

	tags, err := encodeTags(p.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	row := s.db.QueryRow(`
		UPDATE posts SET
			title = $1, slug = $2, excerpt = $3, content = $4, status = $5,
			tags = $6, category_id = $7, series_id = $8, series_order = $9,
			meta_description = $10, meta_keywords = $11, published_at = $12,
			updated_at = NOW()
		WHERE id = $13
		RETURNING `+postColumns,
		p.Title, p.Slug, p.Excerpt, p.Content, p.Status,
		tags, p.CategoryID, p.SeriesID, p.SeriesOrder,
		p.MetaDescription, p.MetaKeywords, p.PublishedAt, p.ID,
	)
	result, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("update post: %w", apperr.NotFound("post not found"))
	}
	if err != nil {
		err = classify(err,
			"a post with this slug already exists",
			"referenced category or series does not exist")
		return nil, fmt.Errorf("update post: %w", err)
	}
	return result, nil
}

// FindByID retrieves a post by its UUID regardless of status.
// Returns nil if not found.
func (s *PostStore) FindByID(id uuid.UUID) (*models.Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a post by its slug regardless of status.
// The slug is the external lookup key. Returns nil if not found.
func (s *PostStore) FindBySlug(slug string) (*models.Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// List returns all posts ordered by creation date descending (admin view).
func (s *PostStore) List() ([]models.Post, error) {
	return s.queryPosts(`SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC`)
}

// ListPublished returns all published posts ordered by publish date
// descending. Used for the public listing.
func (s *PostStore) ListPublished() ([]models.Post, error) {
	return s.queryPosts(`
		SELECT ` + postColumns + `
		FROM posts
		WHERE status = 'published'
		ORDER BY published_at DESC NULLS LAST`)
}

// ListBySeries returns the posts belonging to a series in series_order.
// Ties and gaps are possible (ordering is best-effort); creation date
// breaks ties.
func (s *PostStore) ListBySeries(seriesID uuid.UUID) ([]models.Post, error) {
	return s.queryPosts(`
		SELECT `+postColumns+`
		FROM posts
		WHERE series_id = $1
		ORDER BY series_order ASC NULLS LAST, created_at ASC`, seriesID)
}

func (s *PostStore) queryPosts(query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// Delete removes a post by ID. Comments and relation edges referencing
// the post are removed by the database (ON DELETE CASCADE).
func (s *PostStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter for a post. Best-effort; callers
// may ignore the error.
func (s *PostStore) IncrementViews(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE posts SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// IncrementLikes bumps the like counter for a post.
func (s *PostStore) IncrementLikes(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE posts SET likes = likes + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment likes: %w", err)
	}
	return nil
}

// Count returns the total number of posts.
func (s *PostStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}
