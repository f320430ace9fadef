// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"folio/internal/apperr"
	"folio/internal/models"
)

// CommentStore manages visitor comments and their moderation state.
type CommentStore struct {
	db *sql.DB
}

// NewCommentStore returns a new CommentStore.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

const commentColumns = `id, post_id, author, email, website, content, is_approved, likes, created_at`

// scanComment scans a row into a Comment struct.
func scanComment(scanner interface{ Scan(...any) error }) (*models.Comment, error) {
	var c models.Comment
	err := scanner.Scan(
		&c.ID, &c.PostID, &c.Author, &c.Email, &c.Website,
		&c.Content, &c.IsApproved, &c.Likes, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new comment in the given initial approval state.
// The moderation policy decides the state before this is called.
func (s *CommentStore) Create(c *models.Comment) (*models.Comment, error) {
	row := s.db.QueryRow(`
		INSERT INTO comments (post_id, author, email, website, content, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+commentColumns,
		c.PostID, c.Author, c.Email, c.Website, c.Content, c.IsApproved,
	)
	result, err := scanComment(row)
	if err != nil {
		err = classify(err,
			"duplicate comment",
			"referenced post does not exist")
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return result, nil
}

// FindByID retrieves a comment by ID. Returns nil if not found.
func (s *CommentStore) FindByID(id uuid.UUID) (*models.Comment, error) {
	row := s.db.QueryRow(`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	return c, nil
}

// ListApprovedForPost returns the approved comments on a post, oldest first.
func (s *CommentStore) ListApprovedForPost(postID uuid.UUID) ([]models.Comment, error) {
	return s.queryComments(`
		SELECT `+commentColumns+`
		FROM comments
		WHERE post_id = $1 AND is_approved = TRUE
		ORDER BY created_at ASC`, postID)
}

// List returns comments matching the moderation filter, newest first,
// along with the aggregate counts shown in the moderation view.
func (s *CommentStore) List(filter models.CommentFilter) ([]models.Comment, models.CommentCounts, error) {
	var counts models.CommentCounts
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_approved),
		       COUNT(*) FILTER (WHERE NOT is_approved)
		FROM comments
	`).Scan(&counts.Total, &counts.Approved, &counts.Pending)
	if err != nil {
		return nil, counts, fmt.Errorf("count comments: %w", err)
	}

	query := `SELECT ` + commentColumns + ` FROM comments`
	switch filter {
	case models.CommentFilterPending:
		query += ` WHERE is_approved = FALSE`
	case models.CommentFilterApproved:
		query += ` WHERE is_approved = TRUE`
	case models.CommentFilterAll, "":
		// no filter
	default:
		return nil, counts, apperr.Validation("unknown comment filter")
	}
	query += ` ORDER BY created_at DESC`

	items, err := s.queryComments(query)
	if err != nil {
		return nil, counts, err
	}
	return items, counts, nil
}

func (s *CommentStore) queryComments(query string, args ...any) ([]models.Comment, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var items []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// SetApproved flips the moderation flag on a comment. Approve sets it
// true; reject sets it false without deleting the record.
func (s *CommentStore) SetApproved(id uuid.UUID, approved bool) error {
	result, err := s.db.Exec(`UPDATE comments SET is_approved = $1 WHERE id = $2`, approved, id)
	if err != nil {
		return fmt.Errorf("set comment approval: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set comment approval: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("comment not found")
	}
	return nil
}

// Delete removes a comment permanently.
func (s *CommentStore) Delete(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("comment not found")
	}
	return nil
}

// IncrementLikes bumps the like counter for a comment.
func (s *CommentStore) IncrementLikes(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE comments SET likes = likes + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment comment likes: %w", err)
	}
	return nil
}
