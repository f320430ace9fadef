// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
)

// ValidStatus reports whether s is one of the three known states.
// Any status may transition to any other; there is no state machine.
func ValidStatus(s PostStatus) bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// Post is the canonical content record. The slug is globally unique and
// serves as the external lookup key. SeriesOrder is only meaningful when
// SeriesID is set.
type Post struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Excerpt         *string    `json:"excerpt,omitempty"`
	Content         string     `json:"content"`
	Status          PostStatus `json:"status"`
	Tags            []string   `json:"tags"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	SeriesID        *uuid.UUID `json:"series_id,omitempty"`
	SeriesOrder     *int       `json:"series_order,omitempty"`
	MetaDescription *string    `json:"meta_description,omitempty"`
	MetaKeywords    *string    `json:"meta_keywords,omitempty"`
	AuthorID        uuid.UUID  `json:"author_id"`
	Views           int        `json:"views"`
	Likes           int        `json:"likes"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsPublished returns true if the post is in published status.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// PostRevision stores a snapshot of a post's state before an edit.
// Created automatically on every save, it enables reverting to previous
// versions from the admin panel.
type PostRevision struct {
	ID              uuid.UUID  `json:"id"`
	PostID          uuid.UUID  `json:"post_id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Excerpt         *string    `json:"excerpt,omitempty"`
	Content         string     `json:"content"`
	Status          string     `json:"status"`
	MetaDescription *string    `json:"meta_description,omitempty"`
	MetaKeywords    *string    `json:"meta_keywords,omitempty"`
	RevisionLog     string     `json:"revision_log"`
	CreatedBy       uuid.UUID  `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
}
