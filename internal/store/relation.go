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

// RelationStore manages the undirected related-article edges between
// posts. Uniqueness of the unordered pair is enforced by a unique index
// on (LEAST(source, target), GREATEST(source, target)), so concurrent
// inserts of the same pair cannot both succeed.
type RelationStore struct {
	db *sql.DB
}

// NewRelationStore returns a new RelationStore.
func NewRelationStore(db *sql.DB) *RelationStore {
	return &RelationStore{db: db}
}

// Add creates a relation edge between two posts. Self-loops are rejected
// as validation errors; a duplicate pair (in either direction) surfaces
// as a conflict from the normalized unique index.
func (s *RelationStore) Add(sourceID, targetID uuid.UUID, relationType string, createdBy uuid.UUID) (*models.PostRelation, error) {
	if sourceID == targetID {
		return nil, apperr.Validation("a post cannot be related to itself")
	}
	if relationType == "" {
		relationType = models.RelationTypeRelated
	}

	rel := &models.PostRelation{}
	err := s.db.QueryRow(`
		INSERT INTO post_relations (source_post_id, target_post_id, relation_type, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, source_post_id, target_post_id, relation_type, created_by, created_at
	`, sourceID, targetID, relationType, createdBy).Scan(
		&rel.ID, &rel.SourcePostID, &rel.TargetPostID,
		&rel.RelationType, &rel.CreatedBy, &rel.CreatedAt,
	)
	if err != nil {
		err = classify(err,
			"these posts are already related",
			"one of the posts does not exist")
		return nil, fmt.Errorf("add relation: %w", err)
	}
	return rel, nil
}

// ListForPost returns the related-post views for every edge that touches
// the given post, resolving the *other* endpoint of each edge. Results
// follow edge insertion order; callers must not depend on it.
func (s *RelationStore) ListForPost(postID uuid.UUID) ([]models.RelatedPost, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.relation_type,
		       p.id, p.title, p.slug, p.excerpt, p.status, p.published_at
		FROM post_relations r
		JOIN posts p ON p.id = CASE
			WHEN r.source_post_id = $1 THEN r.target_post_id
			ELSE r.source_post_id
		END
		WHERE r.source_post_id = $1 OR r.target_post_id = $1
		ORDER BY r.created_at ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}
	defer rows.Close()

	var items []models.RelatedPost
	for rows.Next() {
		var rp models.RelatedPost
		err := rows.Scan(
			&rp.RelationID, &rp.RelationType,
			&rp.PostID, &rp.Title, &rp.Slug, &rp.Excerpt, &rp.Status, &rp.PublishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		items = append(items, rp)
	}
	return items, rows.Err()
}

// FindByID retrieves an edge by ID. Returns nil if not found.
func (s *RelationStore) FindByID(id uuid.UUID) (*models.PostRelation, error) {
	rel := &models.PostRelation{}
	err := s.db.QueryRow(`
		SELECT id, source_post_id, target_post_id, relation_type, created_by, created_at
		FROM post_relations WHERE id = $1
	`, id).Scan(
		&rel.ID, &rel.SourcePostID, &rel.TargetPostID,
		&rel.RelationType, &rel.CreatedBy, &rel.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find relation by id: %w", err)
	}
	return rel, nil
}

// Remove deletes an edge by ID. Deleting an unknown ID is reported as
// not found rather than silently succeeding.
func (s *RelationStore) Remove(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM post_relations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remove relation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove relation: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("relation not found")
	}
	return nil
}
