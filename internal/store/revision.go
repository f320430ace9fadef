// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"folio/internal/models"
)

// RevisionStore manages post revision snapshots. A snapshot of the
// previous state is created on every post update so edits can be audited
// and reverted from the admin panel.
type RevisionStore struct {
	db *sql.DB
}

// NewRevisionStore returns a new RevisionStore.
func NewRevisionStore(db *sql.DB) *RevisionStore {
	return &RevisionStore{db: db}
}

// Snapshot records the given post state as a revision. The post fields
// are copied as they were BEFORE the edit being saved.
func (s *RevisionStore) Snapshot(p *models.Post, log string, createdBy uuid.UUID) error {
	_, err := s.db.Exec(`
		INSERT INTO post_revisions (post_id, title, slug, excerpt, content, status,
		                            meta_description, meta_keywords, revision_log, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.Title, p.Slug, p.Excerpt, p.Content, string(p.Status),
		p.MetaDescription, p.MetaKeywords, log, createdBy)
	if err != nil {
		return fmt.Errorf("snapshot post revision: %w", err)
	}
	return nil
}

// ListByPostID returns the revisions of a post, newest first.
func (s *RevisionStore) ListByPostID(postID uuid.UUID) ([]models.PostRevision, error) {
	rows, err := s.db.Query(`
		SELECT id, post_id, title, slug, excerpt, content, status,
		       meta_description, meta_keywords, revision_log, created_by, created_at
		FROM post_revisions
		WHERE post_id = $1
		ORDER BY created_at DESC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list post revisions: %w", err)
	}
	defer rows.Close()

	var items []models.PostRevision
	for rows.Next() {
		var r models.PostRevision
		err := rows.Scan(
			&r.ID, &r.PostID, &r.Title, &r.Slug, &r.Excerpt, &r.Content, &r.Status,
			&r.MetaDescription, &r.MetaKeywords, &r.RevisionLog, &r.CreatedBy, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan post revision: %w", err)
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
