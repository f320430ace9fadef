// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// RelationTypeRelated is the default relation type for curated links.
const RelationTypeRelated = "related"

// PostRelation is an admin-curated undirected edge between two posts,
// surfaced as "related articles". The source/target columns are a storage
// detail: lookups treat the edge as undirected, and the store normalizes
// the pair so at most one edge exists between any two posts.
type PostRelation struct {
	ID           uuid.UUID `json:"id"`
	SourcePostID uuid.UUID `json:"source_post_id"`
	TargetPostID uuid.UUID `json:"target_post_id"`
	RelationType string    `json:"relation_type"`
	CreatedBy    uuid.UUID `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// RelatedPost is the read model returned by related-article lookups:
// the edge plus a summary of the post on the other end.
type RelatedPost struct {
	RelationID   uuid.UUID  `json:"relation_id"`
	RelationType string     `json:"relation_type"`
	PostID       uuid.UUID  `json:"post_id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Excerpt      *string    `json:"excerpt,omitempty"`
	Status       PostStatus `json:"status"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}
